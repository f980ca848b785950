package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"sessionrecorder/backend/internal/models"
	"sessionrecorder/backend/pkg/logger"
)

// Sessions is the live-session registry the reaper inspects.
type Sessions interface {
	ReapDead(ctx context.Context) []string
	SessionIDs() []string
}

// ActiveStore lists and closes persisted recordings.
type ActiveStore interface {
	ListActive(ctx context.Context) ([]models.Recording, error)
	SaveActions(ctx context.Context, sessionID string, actions []models.Action) error
}

// ReaperService keeps persisted state in line with the live sessions. It
// stops sessions whose browser went away and closes out rows still marked
// as recording that no live session backs, such as after a restart.
type ReaperService struct {
	sessions Sessions
	store    ActiveStore
	interval time.Duration
	// grace skips rows started too recently to have a registered session
	grace time.Duration
	now   func() time.Time

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewReaperService(sessions Sessions, store ActiveStore, interval time.Duration) *ReaperService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ReaperService{
		sessions: sessions,
		store:    store,
		interval: interval,
		grace:    30 * time.Second,
		now:      time.Now,
	}
}

func (s *ReaperService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(s.stop, s.done)
	logger.L().Info("Session reaper started", zap.Duration("interval", s.interval))
}

func (s *ReaperService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	logger.L().Info("Session reaper stopped")
}

func (s *ReaperService) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.RunOnce(context.Background())
		}
	}
}

// RunOnce performs one reap and sync pass and returns the number of
// sessions it closed.
func (s *ReaperService) RunOnce(ctx context.Context) int {
	reaped := len(s.sessions.ReapDead(ctx))
	return reaped + s.syncOrphans(ctx)
}

func (s *ReaperService) syncOrphans(ctx context.Context) int {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		logger.L().Error("Failed to query active recordings", zap.Error(err))
		return 0
	}

	live := make(map[string]bool)
	for _, id := range s.sessions.SessionIDs() {
		live[id] = true
	}

	fixed := 0
	for _, rec := range active {
		if live[rec.SessionID] || s.now().Sub(rec.StartedAt) < s.grace {
			continue
		}
		actions, err := rec.GetActions()
		if err != nil {
			logger.L().Warn("Orphaned recording has unreadable actions", zap.String("session_id", rec.SessionID), zap.Error(err))
			actions = nil
		}
		if err := s.store.SaveActions(ctx, rec.SessionID, actions); err != nil {
			logger.L().Error("Failed to close orphaned recording", zap.String("session_id", rec.SessionID), zap.Error(err))
			continue
		}
		fixed++
	}

	if fixed > 0 {
		logger.L().Info("Closed orphaned recordings", zap.Int("count", fixed))
	}
	return fixed
}
