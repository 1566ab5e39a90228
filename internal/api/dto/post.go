package dto

import "time"

// PostDTO 帖子
type PostDTO struct {
	ID            uint64    `json:"id"`
	AuthorID      uint64    `json:"authorId"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt"`
	Tags          []string  `json:"tags" copier:"-"`
	ImageURL      *string   `json:"imageUrl"`
	IsPublished   bool      `json:"isPublished"`
	LikeCount     int64     `json:"likeCount" copier:"LikesCount"`
	BookmarkCount int64     `json:"bookmarkCount" copier:"BookmarksCount"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PostCreateDTO 新建帖子，校验统一在服务层完成以便一次返回全部错误
type PostCreateDTO struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Excerpt     string   `json:"excerpt"`
	Tags        []string `json:"tags"`
	ImageURL    *string  `json:"imageUrl"`
	IsPublished bool     `json:"isPublished"`
}

// PostUpdateDTO 修改帖子，nil 字段保持原值；ImageURL 传空串表示清除
type PostUpdateDTO struct {
	Title       *string   `json:"title"`
	Content     *string   `json:"content"`
	Excerpt     *string   `json:"excerpt"`
	Tags        *[]string `json:"tags"`
	ImageURL    *string   `json:"imageUrl"`
	IsPublished *bool     `json:"isPublished"`
	Version     *int      `json:"version"`
}

// PostListQuery 列表查询参数，全部按字符串接收后再宽松解析
type PostListQuery struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Tag      string `form:"tag"`
	Tags     string `form:"tags"`
	Author   string `form:"author"`
	Sort     string `form:"sort"`
	Page     string `form:"page"`
	Limit    string `form:"limit"`
}

// PostPageDTO 分页结果
type PostPageDTO struct {
	Items      []*PostDTO `json:"items"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
}

// PostDetailDTO 帖子详情
type PostDetailDTO struct {
	Post         *PostDTO      `json:"post"`
	ContentHTML  string        `json:"contentHtml"`
	Comments     []*CommentDTO `json:"comments"`
	CommentCount int           `json:"commentCount"`
	RelatedPosts []*PostDTO    `json:"relatedPosts"`
}

// CategoryDTO 标签及其已发布帖子数
type CategoryDTO struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
