package recorder

import "UpkeepSentinel/internal/accounting"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordFold(_ *accounting.Outcome) error { return nil }
func (n *NoopRecorder) RecordSync(_ *SyncEvent) error          { return nil }
func (n *NoopRecorder) RecordReminder(_ *ReminderEvent) error  { return nil }
func (n *NoopRecorder) Close() error                           { return nil }
