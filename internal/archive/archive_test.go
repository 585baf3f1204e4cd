package archive

import (
	"testing"

	"github.com/zulandar/switchboard/internal/db"
	"github.com/zulandar/switchboard/internal/flow"
	"github.com/zulandar/switchboard/internal/models"
)

func setupRecorder(t *testing.T) *Recorder {
	t.Helper()
	gdb, err := db.ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	r, err := NewRecorder(gdb)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	return r
}

func TestNewRecorder_NilDB(t *testing.T) {
	if _, err := NewRecorder(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestRecordSession_Upsert(t *testing.T) {
	r := setupRecorder(t)
	sess := flow.NewSession("s1")
	sess.FavoriteFood = "pizza"
	sess.Status = flow.StateWaitingAdminChoice

	if err := r.RecordSession(sess); err != nil {
		t.Fatalf("record: %v", err)
	}

	// Advance the session and record again; the snapshot updates in place.
	sess.AdminChoice = "A"
	sess.Status = flow.StateWaitingAdminInput
	sess.AwaitingAdminReply = true
	if err := r.RecordSession(sess); err != nil {
		t.Fatalf("record again: %v", err)
	}

	var records []models.SessionRecord
	if err := r.db.Find(&records).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1 (upsert)", len(records))
	}
	rec := records[0]
	if rec.Status != string(flow.StateWaitingAdminInput) || rec.AdminChoice != "A" || !rec.AwaitingReply {
		t.Errorf("record = %+v", rec)
	}
	if rec.FavoriteFood != "pizza" {
		t.Errorf("favorite food = %q", rec.FavoriteFood)
	}
}

func TestRecordEvent_SequenceOrdering(t *testing.T) {
	r := setupRecorder(t)

	steps := []struct{ channel, kind, value string }{
		{"front", "start_session", ""},
		{"front", "submit_food", "pizza"},
		{"operator", "operator_choice", "A"},
		{"operator", "operator_free_text", "do X"},
	}
	for _, s := range steps {
		if err := r.RecordEvent("s1", s.channel, s.kind, s.value); err != nil {
			t.Fatalf("record %s: %v", s.kind, err)
		}
	}
	// A different session gets its own sequence.
	if err := r.RecordEvent("s2", "front", "start_session", ""); err != nil {
		t.Fatalf("record for s2: %v", err)
	}

	entries, err := r.Transcript("s1")
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if len(entries) != len(steps) {
		t.Fatalf("entries = %d, want %d", len(entries), len(steps))
	}
	for i, e := range entries {
		if e.Sequence != i+1 {
			t.Errorf("entry %d sequence = %d, want %d", i, e.Sequence, i+1)
		}
		if e.Kind != steps[i].kind || e.Value != steps[i].value {
			t.Errorf("entry %d = %+v, want %+v", i, e, steps[i])
		}
	}

	other, err := r.Transcript("s2")
	if err != nil {
		t.Fatalf("transcript s2: %v", err)
	}
	if len(other) != 1 || other[0].Sequence != 1 {
		t.Errorf("s2 transcript = %+v", other)
	}
}

func TestTranscript_Empty(t *testing.T) {
	r := setupRecorder(t)
	entries, err := r.Transcript("nobody")
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}
