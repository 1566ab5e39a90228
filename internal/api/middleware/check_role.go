package middleware

import (
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/response"
	"slices"

	"github.com/gin-gonic/gin"
)

// CheckRoles 检查当前用户是否拥有至少一个指定的角色，需挂在 AuthMiddleware 之后
func CheckRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles := c.GetStringSlice(consts.ContextRoles)

		for _, required := range requiredRoles {
			if slices.Contains(roles, required) {
				c.Next()
				return
			}
		}

		response.Fail(c, response.Forbidden, "权限不足：无权访问该资源")
		c.Abort()
	}
}
