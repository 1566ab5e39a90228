package model

import (
	"time"
)

// InteractionKind 互动类型
type InteractionKind string

const (
	InteractionLike     InteractionKind = "like"
	InteractionBookmark InteractionKind = "bookmark"
)

// Valid 是否为已知的互动类型
func (k InteractionKind) Valid() bool {
	return k == InteractionLike || k == InteractionBookmark
}

// CounterColumn 对应 posts 表上的派生计数列
func (k InteractionKind) CounterColumn() string {
	if k == InteractionBookmark {
		return "bookmarks_count"
	}
	return "likes_count"
}

// PostInteraction 记录存在即为激活状态
type PostInteraction struct {
	UserID    uint64          `gorm:"primaryKey" json:"user_id"`
	PostID    uint64          `gorm:"primaryKey;index:idx_post_kind,priority:1" json:"post_id"`
	Kind      InteractionKind `gorm:"primaryKey;type:varchar(16);index:idx_post_kind,priority:2" json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
}

func (PostInteraction) TableName() string {
	return "post_interactions"
}
