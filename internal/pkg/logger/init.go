package logger

import (
	"Inkwell/internal/api/config"
	"io"
	log "log/slog"
	"net"
	"os"
	"strings"
	"time"
)

var LogWriter io.Writer = os.Stdout

// ParseLevel 将配置中的级别字符串转为 slog.Level，未知值按 info 处理
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

func InitLogger(cfg config.LogstashConfig) {
	opts := &log.HandlerOptions{Level: ParseLevel(cfg.Level)}
	hStdout := log.NewJSONHandler(os.Stdout, opts)

	var finalHandler log.Handler = hStdout

	if cfg.Address != "" {
		conn, err := net.DialTimeout("tcp", cfg.Address, 3*time.Second)
		if err == nil {
			hRemote := log.NewJSONHandler(conn, opts).
				WithAttrs([]log.Attr{
					log.String("target_index", cfg.Index),
					log.String("log_token", cfg.Token),
				})

			finalHandler = &TeeHandler{
				handlers: []log.Handler{hStdout, &RemoteFilterHandler{next: hRemote}},
			}
			LogWriter = io.MultiWriter(os.Stdout, conn)
		} else {
			log.Warn("Failed to connect to Logstash, logging to stdout only", "err", err)
		}
	}

	log.SetDefault(log.New(&ContextHandler{finalHandler}))
}
