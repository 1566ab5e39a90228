package cron

import (
	"Inkwell/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine        *cron.Cron
	reconcileSpec string
	reconcileJob  *job.CountReconcileJob
}

func NewCronManager(reconcileSpec string, reconcileJob *job.CountReconcileJob) *Manager {
	if reconcileSpec == "" {
		reconcileSpec = "0 0 * * * *"
	}
	return &Manager{
		engine:        cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		reconcileSpec: reconcileSpec,
		reconcileJob:  reconcileJob,
	}
}

// InitCron 注册并启动全部定时任务
func InitCron(mgr *Manager) error {
	log.Info("Cron Jobs starting...")
	if err := mgr.RegisterJobs(); err != nil {
		return err
	}
	mgr.Start()
	return nil
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.reconcileSpec, s.reconcileJob); err != nil {
		return err
	}
	log.Info("Cron job registered", "job", "count_reconcile", "spec", s.reconcileSpec)
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
