package recorder

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/chromedp/chromedp/device"
	"go.uber.org/zap"

	"sessionrecorder/backend/internal/models"
	"sessionrecorder/backend/pkg/logger"
)

// SourceFactory opens the page a session records.
type SourceFactory func(targetURL string, dev device.Info) (EventSource, error)

// ChromeSourceFactory opens recording pages in Chrome.
func ChromeSourceFactory(opts ChromeOptions) SourceFactory {
	return func(targetURL string, dev device.Info) (EventSource, error) {
		return NewChromeEventSource(targetURL, dev, opts)
	}
}

type liveness interface {
	Alive() bool
}

type entry struct {
	recorder *Recorder
	source   EventSource

	mu          sync.Mutex
	subscribers map[int]func(models.Action)
	nextSub     int
}

func (e *entry) publish(a models.Action) {
	e.mu.Lock()
	subs := make([]func(models.Action), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn(a)
	}
}

// RecorderManager owns the live recording sessions, one page context each.
type RecorderManager struct {
	recorders map[string]*entry
	mutex     sync.RWMutex

	factory SourceFactory
	store   StateStore
}

func NewRecorderManager(factory SourceFactory, store StateStore) *RecorderManager {
	return &RecorderManager{
		recorders: make(map[string]*entry),
		factory:   factory,
		store:     store,
	}
}

// Manager is the process-wide registry used by the HTTP layer. main
// replaces it once configuration and storage are ready.
var Manager = NewRecorderManager(ChromeSourceFactory(ChromeOptions{}), nil)

func (rm *RecorderManager) StartRecording(ctx context.Context, sessionID, targetURL string, dev device.Info) error {
	rm.mutex.Lock()
	if _, exists := rm.recorders[sessionID]; exists {
		rm.mutex.Unlock()
		return fmt.Errorf("recording session %s already exists", sessionID)
	}
	// reserve the id while the browser starts
	e := &entry{subscribers: make(map[int]func(models.Action))}
	rm.recorders[sessionID] = e
	rm.mutex.Unlock()

	source, err := rm.factory(targetURL, dev)
	if err != nil {
		rm.forget(sessionID)
		return fmt.Errorf("failed to start recording: %w", err)
	}

	rec := NewRecorder(NewSession(sessionID), source, rm.store, WithActionObserver(e.publish))
	rm.mutex.Lock()
	e.source = source
	e.recorder = rec
	rm.mutex.Unlock()

	if err := rec.Start(ctx); err != nil {
		closeSource(source)
		rm.forget(sessionID)
		return err
	}

	logger.L().Info("Recording session opened",
		zap.String("session_id", sessionID),
		zap.String("url", targetURL),
		zap.String("device", dev.Name))
	return nil
}

// StopRecording stops the session and returns the number of recorded
// actions. The session stays registered until CleanupRecording.
func (rm *RecorderManager) StopRecording(ctx context.Context, sessionID string) (int, error) {
	e, err := rm.get(sessionID)
	if err != nil {
		return 0, err
	}
	return e.recorder.Stop(ctx)
}

func (rm *RecorderManager) GetRecorder(sessionID string) (*Recorder, bool) {
	e, err := rm.get(sessionID)
	if err != nil {
		return nil, false
	}
	return e.recorder, true
}

func (rm *RecorderManager) GetRecordingStatus(sessionID string) (bool, []models.Action, error) {
	e, err := rm.get(sessionID)
	if err != nil {
		return false, nil, err
	}
	s := e.recorder.Session()
	return s.IsRecording(), s.Actions(), nil
}

// Subscribe streams actions appended to the session from now on. The
// returned function cancels the subscription.
func (rm *RecorderManager) Subscribe(sessionID string, fn func(models.Action)) (func(), error) {
	e, err := rm.get(sessionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subscribers[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}, nil
}

// CleanupRecording stops the session if needed, closes its page and
// forgets it.
func (rm *RecorderManager) CleanupRecording(ctx context.Context, sessionID string) error {
	e, err := rm.get(sessionID)
	if err != nil {
		return nil
	}
	_, stopErr := e.recorder.Stop(ctx)
	closeSource(e.source)
	rm.forget(sessionID)
	return stopErr
}

// SessionIDs lists the registered sessions.
func (rm *RecorderManager) SessionIDs() []string {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	ids := make([]string, 0, len(rm.recorders))
	for id, e := range rm.recorders {
		if e.recorder != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// ReapDead stops and forgets sessions whose page went away, keeping
// whatever was captured. It returns the ids it reaped.
func (rm *RecorderManager) ReapDead(ctx context.Context) []string {
	var reaped []string
	for _, id := range rm.SessionIDs() {
		e, err := rm.get(id)
		if err != nil {
			continue
		}
		live, ok := e.source.(liveness)
		if !ok || live.Alive() {
			continue
		}
		count, err := e.recorder.Stop(ctx)
		if err != nil {
			logger.L().Error("Failed to persist reaped session", zap.String("session_id", id), zap.Error(err))
		} else {
			logger.L().Warn("Recording browser went away, session stopped",
				zap.String("session_id", id), zap.Int("actions", count))
		}
		closeSource(e.source)
		rm.forget(id)
		reaped = append(reaped, id)
	}
	return reaped
}

// CleanupAll closes every session; used on shutdown.
func (rm *RecorderManager) CleanupAll(ctx context.Context) {
	for _, id := range rm.SessionIDs() {
		if err := rm.CleanupRecording(ctx, id); err != nil {
			logger.L().Error("Failed to clean up recording", zap.String("session_id", id), zap.Error(err))
		}
	}
}

func (rm *RecorderManager) get(sessionID string) (*entry, error) {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	e, exists := rm.recorders[sessionID]
	if !exists || e.recorder == nil {
		return nil, fmt.Errorf("recording session %s not found", sessionID)
	}
	return e, nil
}

func (rm *RecorderManager) forget(sessionID string) {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	delete(rm.recorders, sessionID)
}

func closeSource(source EventSource) {
	if c, ok := source.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.L().Warn("Failed to close event source", zap.Error(err))
		}
	}
}
