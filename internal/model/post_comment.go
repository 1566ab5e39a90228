package model

import (
	"time"
)

type PostComment struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	PostID    uint64    `gorm:"not null;index:idx_post_created,priority:1" json:"post_id"`
	AuthorID  uint64    `gorm:"not null" json:"author_id"`
	Text      string    `gorm:"type:varchar(1000);not null" json:"text"`
	CreatedAt time.Time `gorm:"index:idx_post_created,priority:2" json:"created_at"`
}

func (PostComment) TableName() string {
	return "post_comments"
}
