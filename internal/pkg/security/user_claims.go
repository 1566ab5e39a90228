package security

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims 身份服务签发的令牌中我们关心的字段
type UserClaims struct {
	UserID uint64   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole 是否拥有指定角色
func (c *UserClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
