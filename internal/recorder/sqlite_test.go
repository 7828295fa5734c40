package recorder

import (
	"path/filepath"
	"testing"

	"UpkeepSentinel/internal/accounting"
	"UpkeepSentinel/internal/model"
)

func TestSQLiteRecorderWritesAllTables(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "data", "upkeep.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	defer r.Close()

	out := &accounting.Outcome{
		Result: model.SignalResult(model.PaymentSignal{
			Source: "property", SourceReliable: true, CurrentBalance: model.Balance(0),
			ConfirmedPaidDate: model.NewDay(2025, 3, 26),
		}),
		Before: model.Settings{AmountOwed: 705000},
		After:  model.Settings{DailyCost: 352500, LastPaymentDate: model.NewDay(2025, 3, 26)},
	}
	if err := r.RecordFold(out); err != nil {
		t.Fatalf("RecordFold: %v", err)
	}
	if err := r.RecordFold(&accounting.Outcome{Result: model.FailureResult("events", model.ErrTransientFetch)}); err != nil {
		t.Fatalf("RecordFold(failure): %v", err)
	}
	for _, outcome := range []string{"signal", "skipped", "skipped"} {
		if err := r.RecordSync(&SyncEvent{Trigger: "SCHEDULED", Outcome: outcome}); err != nil {
			t.Fatalf("RecordSync: %v", err)
		}
	}
	if err := r.RecordReminder(&ReminderEvent{Owed: 352500, SelfTurn: true, Delivered: true, Channel: "telegram"}); err != nil {
		t.Fatalf("RecordReminder: %v", err)
	}

	n, err := r.CountSyncs("skipped")
	if err != nil {
		t.Fatalf("CountSyncs: %v", err)
	}
	if n != 2 {
		t.Errorf("skipped syncs = %d, want 2", n)
	}
}
