package wire

import (
	"Inkwell/internal/api"
	"Inkwell/internal/api/config"
	"Inkwell/internal/api/handler"
	"Inkwell/internal/job"
	"Inkwell/internal/pkg/cron"
	"Inkwell/internal/pkg/kafka"
	"Inkwell/internal/pkg/keylock"
	"Inkwell/internal/pkg/markdown"
	"Inkwell/internal/pkg/redis"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/repository"
	"Inkwell/internal/service"
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router    *gin.Engine
	DB        *gorm.DB
	CronMgr   *cron.Manager
	Publisher kafka.Publisher
}

// BuildApplication useRedisLock 为 false 时退化为进程内锁，只适用于单实例部署
func BuildApplication(db *gorm.DB, cfg *config.Config, useRedisLock bool) (*ApplicationContainer, error) {
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepo(db)
	interactionRepo := repository.NewInteractionRepo(db)

	publisher, err := kafka.NewPublisher(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	var locker service.KeyLocker
	if useRedisLock {
		locker = redis.NewKeyLocker(5*time.Second, 2*time.Second)
	} else {
		log.Warn("Redis not configured, interaction toggles use an in-process lock")
		locker = keylock.NewLocal()
	}

	postService := service.NewPostService(postRepo, commentRepo, publisher, markdown.NewRenderer(), service.PostOptions{
		Limits: service.ListLimits{
			DefaultLimit: cfg.Query.DefaultLimit,
			MaxLimit:     cfg.Query.MaxLimit,
		},
		RelatedLimit:      cfg.Detail.RelatedLimit,
		BestEffortTimeout: time.Duration(cfg.Detail.BestEffortTimeout) * time.Millisecond,
	})
	interactionService := service.NewInteractionService(postRepo, commentRepo, interactionRepo, locker, publisher)
	commentService := service.NewCommentService(postRepo, commentRepo, publisher)

	handlers := &api.HandlersGroup{
		PostHandler:       handler.NewPostHandler(postService),
		PostActionHandler: handler.NewPostActionHandler(interactionService, commentService),
	}

	router := api.SetupRouter(handlers, api.RouterOptions{
		TokenParser:    security.NewTokenParser(cfg.Security.JWTSecret, cfg.Security.Issuer),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		LogIndex:       cfg.Logstash.Index,
	})

	cronMgr := cron.NewCronManager(cfg.Cron.ReconcileSpec, job.NewCountReconcileJob(interactionService))

	return &ApplicationContainer{
		Router:    router,
		DB:        db,
		CronMgr:   cronMgr,
		Publisher: publisher,
	}, nil
}
