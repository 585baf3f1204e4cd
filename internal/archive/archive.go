// Package archive persists an audit trail of sessions and applied events.
// The archive is write-only from the daemon's point of view: it never feeds
// live session state.
package archive

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zulandar/switchboard/internal/flow"
	"github.com/zulandar/switchboard/internal/models"
)

// Recorder writes session snapshots and transcript entries. All writes are
// best-effort; the router logs failures and moves on.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates a Recorder.
func NewRecorder(db *gorm.DB) (*Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("archive: db is required")
	}
	return &Recorder{db: db}, nil
}

// RecordSession upserts the archived snapshot of sess.
func (r *Recorder) RecordSession(sess *flow.Session) error {
	record := models.SessionRecord{
		SessionID:     sess.ID,
		Status:        string(sess.Status),
		FavoriteFood:  sess.FavoriteFood,
		AdminChoice:   sess.AdminChoice,
		AdminValue:    sess.AdminValue,
		OTPCode:       sess.OTPCode,
		AwaitingReply: sess.AwaitingAdminReply,
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "favorite_food", "admin_choice", "admin_value",
			"otp_code", "awaiting_reply", "updated_at",
		}),
	}).Create(&record)
	if result.Error != nil {
		return fmt.Errorf("archive: record session %s: %w", sess.ID, result.Error)
	}
	return nil
}

// RecordEvent appends one applied event to the session's transcript.
func (r *Recorder) RecordEvent(sessionID, channel, kind, value string) error {
	var maxSeq int
	r.db.Model(&models.TranscriptEntry{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(MAX(sequence), 0)").Scan(&maxSeq)

	entry := models.TranscriptEntry{
		SessionID: sessionID,
		Sequence:  maxSeq + 1,
		Channel:   channel,
		Kind:      kind,
		Value:     value,
	}
	if err := r.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("archive: record event for %s: %w", sessionID, err)
	}
	return nil
}

// Transcript returns the ordered transcript for a session.
func (r *Recorder) Transcript(sessionID string) ([]models.TranscriptEntry, error) {
	var entries []models.TranscriptEntry
	result := r.db.Where("session_id = ?", sessionID).Order("sequence").Find(&entries)
	if result.Error != nil {
		return nil, fmt.Errorf("archive: transcript for %s: %w", sessionID, result.Error)
	}
	return entries, nil
}
