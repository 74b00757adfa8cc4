package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/adiallo/spendbot/internal/config"
	"github.com/adiallo/spendbot/internal/domain/models"
	"github.com/adiallo/spendbot/internal/repository/mongodb"
	"github.com/adiallo/spendbot/internal/service/reporting"
	"github.com/adiallo/spendbot/internal/service/telegram"
)

// Scheduler pushes periodic spending digests to every authenticated user.
type Scheduler struct {
	cron         *cron.Cron
	directory    mongodb.Directory
	digestSvc    *reporting.Service
	messagingSvc telegram.MessagingService
	cfg          config.DigestConfig
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.DigestConfig, directory mongodb.Directory, digestSvc *reporting.Service, messagingSvc telegram.MessagingService, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to local", zap.String("timezone", cfg.Timezone), zap.Error(err))
		location = time.Local
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(location)),
		directory:    directory,
		digestSvc:    digestSvc,
		messagingSvc: messagingSvc,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the digest job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sendDigests); err != nil {
		s.logger.Error("failed to schedule spending digest", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) sendDigests() {
	s.logger.Info("generating spending digests")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	users, err := s.directory.ListAuthenticated(ctx)
	if err != nil {
		s.logger.Error("failed to list authenticated users", zap.Error(err))
		return
	}

	for _, user := range users {
		digest, err := s.digestSvc.BuildDigest(ctx, user)
		if err != nil {
			s.logger.Error("failed to build digest", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
			continue
		}

		req := models.OutboundMessageRequest{
			ChatID:  user.TelegramID,
			Message: digest,
		}
		if err := s.messagingSvc.SendOutbound(ctx, req); err != nil {
			s.logger.Error("failed to send digest", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
		}
	}

	s.logger.Info("spending digests sent", zap.Int("users", len(users)))
}
