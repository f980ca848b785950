package recorder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"sessionrecorder/backend/internal/dom"
	"sessionrecorder/backend/internal/models"
	"sessionrecorder/backend/internal/selector"
	"sessionrecorder/backend/pkg/logger"

	"go.uber.org/zap"
)

// Event is an interaction delivered by an EventSource.
type Event struct {
	Target  dom.Element
	PageURL string
	// Time is when the page observed the event. Zero means the recorder
	// stamps it on arrival.
	Time time.Time
}

type Handler func(Event)

// EventSource binds the recorder to a live document. Each On* method
// registers a capturing-phase listener on the document root and returns
// the function that removes it.
type EventSource interface {
	CurrentURL() string
	OnClick(h Handler) (remove func())
	OnInput(h Handler) (remove func())
	OnChange(h Handler) (remove func())
}

// StateStore persists the recording flag and the frozen action log.
type StateStore interface {
	SetRecording(ctx context.Context, sessionID string, active bool) error
	SaveActions(ctx context.Context, sessionID string, actions []models.Action) error
}

// Session is the state of one recording: the active flag and the
// append-only action log.
type Session struct {
	ID string

	mu      sync.RWMutex
	active  bool
	actions []models.Action
}

func NewSession(id string) *Session {
	return &Session{ID: id, actions: make([]models.Action, 0)}
}

func (s *Session) IsRecording() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Actions returns a copy of the log.
func (s *Session) Actions() []models.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Action(nil), s.actions...)
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.actions)
}

type Recorder struct {
	session *Session
	source  EventSource
	store   StateStore

	now      func() time.Time
	onAction func(models.Action)

	mu       sync.Mutex // serializes Start and Stop
	removers []func()
}

type Option func(*Recorder)

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithActionObserver registers fn to receive every appended action.
// fn runs on the event dispatch goroutine and must not block.
func WithActionObserver(fn func(models.Action)) Option {
	return func(r *Recorder) { r.onAction = fn }
}

func NewRecorder(session *Session, source EventSource, store StateStore, opts ...Option) *Recorder {
	r := &Recorder{
		session: session,
		source:  source,
		store:   store,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) Session() *Session { return r.session }
func (r *Recorder) IsRecording() bool { return r.session.IsRecording() }
func (r *Recorder) Len() int          { return r.session.Len() }

// Start begins recording. Calling it while already recording is a no-op
// and keeps the existing log.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session
	if s.IsRecording() {
		return nil
	}
	// the flag is persisted first so a failed write leaves the recorder idle
	if r.store != nil {
		if err := r.store.SetRecording(ctx, s.ID, true); err != nil {
			return fmt.Errorf("failed to persist recording state: %w", err)
		}
	}

	initial := models.Action{
		Type:      models.ActionNavigate,
		URL:       r.source.CurrentURL(),
		Timestamp: r.now().UnixMilli(),
	}

	s.mu.Lock()
	s.actions = []models.Action{initial}
	s.active = true
	s.mu.Unlock()

	r.removers = []func(){
		r.source.OnClick(r.handleClick),
		r.source.OnInput(r.handleInput),
		r.source.OnChange(r.handleChange),
	}

	logger.L().Info("Recording started", zap.String("session_id", s.ID))
	return nil
}

// Stop ends recording, persists the log and returns its length. When not
// recording it returns 0 and leaves the listeners alone.
func (r *Recorder) Stop(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return 0, nil
	}
	s.active = false
	frozen := append([]models.Action(nil), s.actions...)
	s.mu.Unlock()

	for _, remove := range r.removers {
		remove()
	}
	r.removers = nil

	logger.L().Info("Recording stopped", zap.String("session_id", s.ID), zap.Int("actions", len(frozen)))

	if r.store != nil {
		if err := r.store.SaveActions(ctx, s.ID, frozen); err != nil {
			return len(frozen), fmt.Errorf("failed to persist recorded actions: %w", err)
		}
	}
	return len(frozen), nil
}

func (r *Recorder) handleClick(ev Event) {
	if !r.accepts(ev) {
		return
	}
	r.append(ev, models.Action{
		Type:     models.ActionClick,
		Selector: selector.Resolve(ev.Target),
		TagName:  ev.Target.TagName(),
		Text:     truncate(strings.TrimSpace(ev.Target.TextContent()), models.MaxClickTextLength),
		Href:     ev.Target.Href(),
		URL:      ev.PageURL,
	})
}

func (r *Recorder) handleInput(ev Event) {
	if !r.accepts(ev) {
		return
	}
	r.append(ev, models.Action{
		Type:      models.ActionInput,
		Selector:  selector.Resolve(ev.Target),
		Value:     ev.Target.Value(),
		TagName:   ev.Target.TagName(),
		InputType: ev.Target.InputType(),
	})
}

func (r *Recorder) handleChange(ev Event) {
	if !r.accepts(ev) {
		return
	}
	r.append(ev, models.Action{
		Type:     models.ActionChange,
		Selector: selector.Resolve(ev.Target),
		Value:    ev.Target.Value(),
		TagName:  ev.Target.TagName(),
	})
}

// accepts drops events with no target and events that arrive while idle.
func (r *Recorder) accepts(ev Event) bool {
	return ev.Target != nil && r.session.IsRecording()
}

// append stamps and stores action unless the session stopped; a listener
// can still fire while Stop is tearing down.
func (r *Recorder) append(ev Event, action models.Action) {
	s := r.session
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	ts := ev.Time
	if ts.IsZero() {
		ts = r.now()
	}
	action.Timestamp = ts.UnixMilli()
	if n := len(s.actions); n > 0 && action.Timestamp < s.actions[n-1].Timestamp {
		action.Timestamp = s.actions[n-1].Timestamp
	}
	s.actions = append(s.actions, action)
	s.mu.Unlock()

	if r.onAction != nil {
		r.onAction(action)
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
