package job

import (
	"Inkwell/internal/pkg/logger"
	"Inkwell/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// CountReconcileJob 以互动账本为准修正帖子上的派生计数
type CountReconcileJob struct {
	interactionSvc service.InteractionService
	timeout        time.Duration
}

func NewCountReconcileJob(interactionSvc service.InteractionService) *CountReconcileJob {
	return &CountReconcileJob{
		interactionSvc: interactionSvc,
		timeout:        5 * time.Minute,
	}
}

func (s *CountReconcileJob) Run() {
	traceID := "job-reconcile-" + uuid.NewString()
	ctx, cancel := context.WithTimeout(logger.WithTraceID(context.Background(), traceID), s.timeout)
	defer cancel()

	start := time.Now()
	fixed, err := s.interactionSvc.ReconcileCounts(ctx)
	if err != nil {
		log.ErrorContext(ctx, "reconcile interaction counts error", "err", err)
		return
	}
	if fixed > 0 {
		log.WarnContext(ctx, "interaction counters drifted and were repaired", "fixed", fixed, "cost", time.Since(start))
		return
	}
	log.InfoContext(ctx, "interaction counters consistent", "cost", time.Since(start))
}
