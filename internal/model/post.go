package model

import (
	"time"
)

type Post struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	AuthorID       uint64    `gorm:"not null;index:idx_author_id" json:"author_id"`
	Title          string    `gorm:"type:varchar(120);not null" json:"title"`
	Content        string    `gorm:"type:longtext;not null" json:"content"`
	Excerpt        string    `gorm:"type:varchar(200);not null;default:''" json:"excerpt"`
	ImageURL       *string   `gorm:"type:varchar(512)" json:"image_url"`
	IsPublished    bool      `gorm:"type:tinyint(1);not null;default:0;index:idx_published_created,priority:1" json:"is_published"`
	LikesCount     int64     `gorm:"not null;default:0" json:"likes_count"`     // 仅由互动账本维护
	BookmarksCount int64     `gorm:"not null;default:0" json:"bookmarks_count"` // 仅由互动账本维护
	Version        int       `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time `gorm:"index:idx_published_created,priority:2" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// 关联关系
	Tags []PostTag `gorm:"foreignKey:PostID;references:ID"`
}

func (Post) TableName() string {
	return "posts"
}

// TagNames 按写入顺序返回标签名
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// VisibleTo 草稿只对作者与管理员可见
func (p *Post) VisibleTo(userID uint64, isAdmin bool) bool {
	return p.IsPublished || isAdmin || (userID != 0 && p.AuthorID == userID)
}
