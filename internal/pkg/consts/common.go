package consts

const (
	// ContextUserID 鉴权中间件写入 gin.Context 与 request ctx 的用户 ID
	ContextUserID = "user_id"
	ContextRoles  = "roles"
)

const (
	RoleAdmin = "ADMIN"
)

const (
	AutoExcerptLength = 160
	ExcerptEllipsis   = "..."
)
