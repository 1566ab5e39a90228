package api

import (
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/logger"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/pkg/security"

	"github.com/gin-gonic/gin"
)

// RouterOptions 路由依赖的非 Handler 组件
type RouterOptions struct {
	TokenParser    *security.TokenParser
	AllowedOrigins []string
	LogIndex       string
}

func SetupRouter(group *HandlersGroup, opts RouterOptions) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	logger.SetupGin(r, opts.LogIndex)
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware(opts.AllowedOrigins...))

	authOpt := middleware.AuthOptionalMiddleware(opts.TokenParser)
	auth := middleware.AuthMiddleware(opts.TokenParser)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			response.Success(c, "pong")
		})

		postGroup := apiGroup.Group("/posts")
		{
			authOptGroup := postGroup.Group("")
			authOptGroup.Use(authOpt)
			{
				authOptGroup.GET("", group.PostHandler.ListPosts)
				authOptGroup.GET("/categories", group.PostHandler.ListCategories)
				authOptGroup.GET("/:post_id", group.PostHandler.GetPostDetail)
				authOptGroup.GET("/:post_id/comments", group.PostActionHandler.GetComments)
				authOptGroup.GET("/:post_id/state", group.PostActionHandler.GetPostActionState)
			}

			authGroup := postGroup.Group("")
			authGroup.Use(auth)
			{
				authGroup.POST("", group.PostHandler.CreatePost)
				authGroup.PUT("/:post_id", group.PostHandler.UpdatePost)
				authGroup.POST("/:post_id/comments", group.PostActionHandler.CreateComment)
				authGroup.POST("/:post_id/like", group.PostActionHandler.LikePost)
				authGroup.POST("/:post_id/bookmark", group.PostActionHandler.BookmarkPost)
			}
		}

		// 需要登录 & 拥有 admin 角色
		adminGroup := apiGroup.Group("/admin")
		adminGroup.Use(auth, middleware.CheckRoles(consts.RoleAdmin))
		{
			adminGroup.POST("/counters/reconcile", group.PostActionHandler.ReconcileCounts)
		}
	}

	return r
}
