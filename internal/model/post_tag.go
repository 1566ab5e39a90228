package model

type PostTag struct {
	PostID   uint64 `gorm:"primaryKey" json:"post_id"`
	Name     string `gorm:"primaryKey;type:varchar(30);index:idx_tag_name" json:"name"`
	Position int    `gorm:"not null;default:0" json:"position"`
}

func (PostTag) TableName() string {
	return "post_tags"
}

// TagCount 标签聚合结果
type TagCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
