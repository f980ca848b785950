package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"sessionrecorder/backend/internal/models"
)

var ErrRecordingNotFound = errors.New("recording not found")

// RecordingStore persists recording sessions. It is the recorder's
// StateStore: one row per session holding the active flag and the frozen
// action log.
type RecordingStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRecordingStore(db *gorm.DB) *RecordingStore {
	return &RecordingStore{db: db, now: time.Now}
}

// CreateRecording registers a session before its browser starts so the
// row carries the owner, start URL and device.
func (s *RecordingStore) CreateRecording(ctx context.Context, rec *models.Recording) error {
	if rec.StartedAt.IsZero() {
		rec.StartedAt = s.now()
	}
	if rec.Actions == "" {
		if err := rec.SetActions(nil); err != nil {
			return err
		}
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create recording %s: %w", rec.SessionID, err)
	}
	return nil
}

func (s *RecordingStore) SetRecording(ctx context.Context, sessionID string, active bool) error {
	rec, err := s.findOrNew(ctx, sessionID)
	if err != nil {
		return err
	}
	rec.IsRecording = active
	if active {
		rec.StartedAt = s.now()
		rec.StoppedAt = nil
	}
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("failed to update recording %s: %w", sessionID, err)
	}
	return nil
}

// SaveActions stores the frozen log and clears the active flag in one
// write.
func (s *RecordingStore) SaveActions(ctx context.Context, sessionID string, actions []models.Action) error {
	rec, err := s.findOrNew(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := rec.SetActions(actions); err != nil {
		return fmt.Errorf("failed to encode actions: %w", err)
	}
	stopped := s.now()
	rec.IsRecording = false
	rec.StoppedAt = &stopped
	if rec.StartURL == "" && len(actions) > 0 && actions[0].Type == models.ActionNavigate {
		rec.StartURL = actions[0].URL
	}
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("failed to save recording %s: %w", sessionID, err)
	}
	return nil
}

func (s *RecordingStore) LoadRecording(ctx context.Context, sessionID string) (*models.Recording, error) {
	var rec models.Recording
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordingNotFound
		}
		return nil, fmt.Errorf("failed to load recording %s: %w", sessionID, err)
	}
	return &rec, nil
}

// ListRecordings pages through recordings, newest first. userID 0 lists
// every owner's recordings.
func (s *RecordingStore) ListRecordings(ctx context.Context, userID uint, page, pageSize int) ([]models.Recording, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	query := s.db.WithContext(ctx).Model(&models.Recording{})
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recordings: %w", err)
	}

	var recordings []models.Recording
	err := query.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&recordings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recordings: %w", err)
	}
	return recordings, total, nil
}

func (s *RecordingStore) DeleteRecording(ctx context.Context, sessionID string) error {
	result := s.db.WithContext(ctx).Unscoped().Where("session_id = ?", sessionID).Delete(&models.Recording{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete recording %s: %w", sessionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordingNotFound
	}
	return nil
}

// PurgeBefore permanently removes stopped recordings that stopped before
// cutoff and returns how many were removed. Active recordings are kept.
func (s *RecordingStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Unscoped().
		Where("is_recording = ? AND stopped_at IS NOT NULL AND stopped_at < ?", false, cutoff).
		Delete(&models.Recording{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge recordings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *RecordingStore) findOrNew(ctx context.Context, sessionID string) (*models.Recording, error) {
	rec, err := s.LoadRecording(ctx, sessionID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrRecordingNotFound) {
		return nil, err
	}
	rec = &models.Recording{SessionID: sessionID, StartedAt: s.now()}
	if err := rec.SetActions(nil); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListActive returns recordings whose row still says a session is running.
func (s *RecordingStore) ListActive(ctx context.Context) ([]models.Recording, error) {
	var recs []models.Recording
	if err := s.db.WithContext(ctx).Where("is_recording = ?", true).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list active recordings: %w", err)
	}
	return recs, nil
}

// RecordingSummary is what an operator has on record: stored recordings
// and the sessions still capturing.
type RecordingSummary struct {
	Total            int64    `json:"total"`
	Active           int64    `json:"active"`
	ActiveSessionIDs []string `json:"active_session_ids"`
}

// OwnerSummary counts one owner's recordings. userID 0 summarizes every
// owner.
func (s *RecordingStore) OwnerSummary(ctx context.Context, userID uint) (RecordingSummary, error) {
	scoped := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Recording{})
		if userID != 0 {
			q = q.Where("user_id = ?", userID)
		}
		return q
	}

	summary := RecordingSummary{ActiveSessionIDs: []string{}}
	if err := scoped().Count(&summary.Total).Error; err != nil {
		return summary, fmt.Errorf("failed to count recordings: %w", err)
	}
	err := scoped().Where("is_recording = ?", true).Order("started_at").Pluck("session_id", &summary.ActiveSessionIDs).Error
	if err != nil {
		return summary, fmt.Errorf("failed to list active sessions: %w", err)
	}
	if summary.ActiveSessionIDs == nil {
		summary.ActiveSessionIDs = []string{}
	}
	summary.Active = int64(len(summary.ActiveSessionIDs))
	return summary, nil
}
