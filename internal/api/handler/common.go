package handler

import (
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/service"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 20

// viewerOf 读取鉴权中间件写入的身份，未登录时为匿名
func viewerOf(c *gin.Context) service.Viewer {
	return service.Viewer{
		UserID: c.GetUint64(consts.ContextUserID),
		Roles:  c.GetStringSlice(consts.ContextRoles),
	}
}

func parsePostID(c *gin.Context) (uint64, bool) {
	postID, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil || postID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return 0, false
	}
	return postID, true
}

// bindJSON 解码失败时直接写回 400
func bindJSON(c *gin.Context, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		response.Fail(c, response.BadRequest, "Json错误")
		return false
	}
	return true
}
