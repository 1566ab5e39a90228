package service

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/consts"
)

// Viewer 当前请求者，UserID 为 0 表示匿名
type Viewer struct {
	UserID uint64
	Roles  []string
}

func Anonymous() Viewer {
	return Viewer{}
}

func (v Viewer) IsAuthenticated() bool {
	return v.UserID != 0
}

func (v Viewer) IsAdmin() bool {
	for _, r := range v.Roles {
		if r == consts.RoleAdmin {
			return true
		}
	}
	return false
}

func (v Viewer) IsOwner(post *model.Post) bool {
	return v.UserID != 0 && post != nil && post.AuthorID == v.UserID
}

// CanSee 草稿只对作者与管理员可见
func (v Viewer) CanSee(post *model.Post) bool {
	return post != nil && post.VisibleTo(v.UserID, v.IsAdmin())
}
