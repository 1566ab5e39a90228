package middleware

import (
	"bytes"
	"io"
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

const auditBodyLimit = 4096

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	if remain := auditBodyLimit - r.body.Len(); remain > 0 {
		if len(b) > remain {
			r.body.Write(b[:remain])
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// AuditMiddleware 以 DEBUG 级别记录写请求的请求体与响应体，读请求只记录状态
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if !log.Default().Enabled(ctx, log.LevelDebug) {
			c.Next()
			return
		}

		var reqBody []byte
		if c.Request.Body != nil && c.Request.Method != "GET" {
			reqBody, _ = io.ReadAll(io.LimitReader(c.Request.Body, auditBodyLimit+1))
			rest := c.Request.Body
			c.Request.Body = struct {
				io.Reader
				io.Closer
			}{io.MultiReader(bytes.NewReader(reqBody), rest), rest}
			if len(reqBody) > auditBodyLimit {
				reqBody = reqBody[:auditBodyLimit]
			}
		}

		w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w
		startTime := time.Now()

		c.Next()

		log.DebugContext(ctx, "audit",
			log.String("method", c.Request.Method),
			log.String("path", c.Request.URL.Path),
			log.String("query", c.Request.URL.RawQuery),
			log.String("req_body", string(reqBody)),
			log.Int("status", c.Writer.Status()),
			log.Duration("latency", time.Since(startTime)),
			log.String("res_body", w.body.String()),
		)
	}
}
