package middleware

import (
	"Inkwell/internal/pkg/security"

	"github.com/gin-gonic/gin"
)

// AuthOptionalMiddleware 可选鉴权：解析成功注入 UID，失败或缺失则 UID 为 0
func AuthOptionalMiddleware(parser *security.TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, parser); ok {
			setIdentity(c, claims.UserID, claims.Roles)
		} else {
			setIdentity(c, 0, nil)
		}
		c.Next()
	}
}
