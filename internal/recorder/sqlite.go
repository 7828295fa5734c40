package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"UpkeepSentinel/internal/accounting"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	// The settings store may hold the same file open.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS folds (
			id                 TEXT PRIMARY KEY,
			timestamp          INTEGER NOT NULL,
			source             TEXT,
			kind               TEXT,
			reliable           INTEGER,
			confirmed_paid     TEXT,
			current_balance    INTEGER,
			error              TEXT,
			owed_before        INTEGER,
			owed_after         INTEGER,
			daily_cost         INTEGER,
			last_payment_date  TEXT,
			self_turn          INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_folds_ts ON folds(timestamp)`,

		`CREATE TABLE IF NOT EXISTS syncs (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			sync_trigger TEXT,
			outcome      TEXT,
			source       TEXT,
			error        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_syncs_ts ON syncs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS reminders (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			owed      INTEGER,
			self_turn INTEGER,
			delivered INTEGER,
			channel   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_ts ON reminders(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordFold(out *accounting.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := out.Result
	var balance any
	if res.Signal.CurrentBalance != nil {
		balance = *res.Signal.CurrentBalance
	}
	var errText string
	if res.Err != nil {
		errText = res.Err.Error()
	}

	_, err := r.db.Exec(`INSERT INTO folds
		(id, timestamp, source, kind, reliable, confirmed_paid, current_balance, error,
		 owed_before, owed_after, daily_cost, last_payment_date, self_turn)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		uuid.NewString(), time.Now().Unix(), res.Source, res.Kind.String(),
		res.Signal.SourceReliable, res.Signal.ConfirmedPaidDate.String(), balance, errText,
		out.Before.AmountOwed, out.After.AmountOwed, out.After.DailyCost,
		out.After.LastPaymentDate.String(), out.State.IsSelfTurn,
	)
	return err
}

func (r *SQLiteRecorder) RecordSync(evt *SyncEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO syncs
		(id, timestamp, sync_trigger, outcome, source, error)
		VALUES (?,?,?,?,?,?)`,
		uuid.NewString(), time.Now().Unix(), evt.Trigger, evt.Outcome, evt.Source, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordReminder(evt *ReminderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO reminders
		(id, timestamp, owed, self_turn, delivered, channel)
		VALUES (?,?,?,?,?,?)`,
		uuid.NewString(), time.Now().Unix(), evt.Owed, evt.SelfTurn, evt.Delivered, evt.Channel,
	)
	return err
}

// CountSyncs returns how many sync attempts with the given outcome are on record.
func (r *SQLiteRecorder) CountSyncs(outcome string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM syncs WHERE outcome = ?", outcome).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
