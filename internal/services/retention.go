package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"sessionrecorder/backend/pkg/logger"
)

// Purger deletes stopped recordings older than a cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionService periodically purges stopped recordings older than the
// retention window.
type RetentionService struct {
	cron    *cron.Cron
	store   Purger
	days    int
	now     func() time.Time
	entryID cron.EntryID
}

var GlobalRetention *RetentionService

func NewRetentionService(store Purger, schedule string, days int) (*RetentionService, error) {
	s := &RetentionService{
		cron:  cron.New(cron.WithSeconds()),
		store: store,
		days:  days,
		now:   time.Now,
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			logger.L().Error("Retention sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	s.entryID = entryID
	return s, nil
}

// InitRetention starts the global retention job. days <= 0 disables it.
func InitRetention(store Purger, schedule string, days int) error {
	if days <= 0 {
		logger.L().Info("Recording retention disabled")
		return nil
	}
	s, err := NewRetentionService(store, schedule, days)
	if err != nil {
		return err
	}
	GlobalRetention = s
	s.cron.Start()
	logger.L().Info("Retention service initialized", zap.String("schedule", schedule), zap.Int("days", days))
	return nil
}

// Sweep purges once and returns the number of removed recordings.
func (s *RetentionService) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -s.days)
	n, err := s.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.L().Info("Purged expired recordings", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}

// NextRun reports when the sweep fires next.
func (s *RetentionService) NextRun() time.Time {
	e := s.cron.Entry(s.entryID)
	if e.Next.IsZero() && e.Schedule != nil {
		return e.Schedule.Next(s.now())
	}
	return e.Next
}

func (s *RetentionService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.L().Info("Retention service stopped")
}
