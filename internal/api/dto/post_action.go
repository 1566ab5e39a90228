package dto

import "time"

// CommentCreateDTO 创建评论请求
type CommentCreateDTO struct {
	Text string `json:"text"`
}

// CommentDTO 评论
type CommentDTO struct {
	ID        uint64    `json:"id"`
	PostID    uint64    `json:"postId"`
	AuthorID  uint64    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToggleDTO 点赞/收藏翻转结果
type ToggleDTO struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}

// PostStateDTO 当前用户对帖子的互动状态
type PostStateDTO struct {
	Liked         bool  `json:"liked"`
	Bookmarked    bool  `json:"bookmarked"`
	LikeCount     int64 `json:"likeCount"`
	BookmarkCount int64 `json:"bookmarkCount"`
	CommentCount  int64 `json:"commentCount"`
}
