package middleware

import (
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/pkg/security"
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware(parser *security.TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, parser)
		if !ok {
			response.Fail(c, response.Unauthorized, "Token 缺失、无效或已过期")
			c.Abort()
			return
		}

		setIdentity(c, claims.UserID, claims.Roles)
		c.Next()
	}
}

func parseBearer(c *gin.Context, parser *security.TokenParser) (*security.UserClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false
	}

	claims, err := parser.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, userID uint64, roles []string) {
	c.Set(consts.ContextUserID, userID)
	c.Set(consts.ContextRoles, roles)

	newCtx := context.WithValue(c.Request.Context(), consts.ContextUserID, userID)
	c.Request = c.Request.WithContext(newCtx)
}
