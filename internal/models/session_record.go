// Package models defines the GORM models for the session audit archive.
package models

import "time"

// SessionRecord is the archived snapshot of a session. It mirrors the live
// in-memory record after each transition; the live store never reads it
// back, so a process restart starts from an empty session map.
type SessionRecord struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	SessionID     string `gorm:"size:64;uniqueIndex;not null"`
	Status        string `gorm:"size:32;not null;index"`
	FavoriteFood  string `gorm:"size:256"`
	AdminChoice   string `gorm:"size:8"`
	AdminValue    string `gorm:"type:text"`
	OTPCode       string `gorm:"size:64"`
	AwaitingReply bool   `gorm:"default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Transcript []TranscriptEntry `gorm:"foreignKey:SessionID;references:SessionID"`
}

// TranscriptEntry is one applied event in a session's history.
type TranscriptEntry struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"size:64;not null;index"`
	Sequence  int    `gorm:"not null"`
	Channel   string `gorm:"size:16;not null"` // "front" or "operator"
	Kind      string `gorm:"size:32;not null"`
	Value     string `gorm:"type:text"`
	CreatedAt time.Time
}
