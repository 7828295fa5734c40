package recorder

import "UpkeepSentinel/internal/accounting"

// SyncEvent records one remote sync attempt.
type SyncEvent struct {
	Trigger string // "SCHEDULED", "STARTUP" or "MANUAL"
	Outcome string // "signal", "empty", "failure" or "skipped"
	Source  string
	Error   string
}

// ReminderEvent records one reminder evaluation.
type ReminderEvent struct {
	Owed      int64
	SelfTurn  bool
	Delivered bool
	Channel   string // "telegram", "status", "muted" or "none"
}

// Recorder persists history for later inspection.
type Recorder interface {
	RecordFold(out *accounting.Outcome) error
	RecordSync(evt *SyncEvent) error
	RecordReminder(evt *ReminderEvent) error
	Close() error
}
