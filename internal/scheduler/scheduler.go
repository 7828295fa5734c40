package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"UpkeepSentinel/internal/accounting"
	"UpkeepSentinel/internal/collector"
	"UpkeepSentinel/internal/model"
	"UpkeepSentinel/internal/notifier"
	"UpkeepSentinel/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Sync triggers, as recorded.
const (
	TriggerStartup   = "STARTUP"
	TriggerScheduled = "SCHEDULED"
	TriggerManual    = "MANUAL"
)

// Scheduler owns the two daily timers: the reminder and the remote sync.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Manager   *accounting.Manager
	Notifier  *notifier.Dispatcher
	Recorder  recorder.Recorder
	Ctx       context.Context

	// Now is the clock; tests replace it.
	Now func() time.Time

	reminderAt cron.Schedule
	syncAt     cron.Schedule
	startMu    sync.Mutex
	started    bool
}

// NewScheduler creates a new Scheduler with the default daily offsets.
func NewScheduler(ctx context.Context, col *collector.Collector, mgr *accounting.Manager, disp *notifier.Dispatcher, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithLocation(time.UTC)),
		Collector:  col,
		Manager:    mgr,
		Notifier:   disp,
		Recorder:   rec,
		Ctx:        ctx,
		Now:        time.Now,
		reminderAt: DailyOffset{Before: 2 * time.Hour},
		syncAt:     DailyOffset{After: 5 * time.Minute},
	}
}

// Register arms the reminder and sync jobs on the given schedules.
func (s *Scheduler) Register(reminder, daily cron.Schedule) error {
	if reminder == nil || daily == nil {
		return errors.New("register: nil schedule")
	}
	s.reminderAt, s.syncAt = reminder, daily
	s.Cron.Schedule(reminder, cron.FuncJob(s.remind))
	s.Cron.Schedule(daily, cron.FuncJob(func() { s.SyncIfDue(s.Ctx, TriggerScheduled) }))
	log.Printf("[INFO] reminder armed for %s, sync armed for %s",
		s.NextReminderAt(s.now()).Format(time.RFC3339), s.NextSyncAt(s.now()).Format(time.RFC3339))
	return nil
}

// Start runs the guarded startup sync, then starts the timers.
func (s *Scheduler) Start() {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.SyncIfDue(s.Ctx, TriggerStartup)
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop cancels both timers and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// NextReminderAt is when the reminder fires next after now.
func (s *Scheduler) NextReminderAt(now time.Time) time.Time { return s.reminderAt.Next(now) }

// NextSyncAt is when the daily sync fires next after now.
func (s *Scheduler) NextSyncAt(now time.Time) time.Time { return s.syncAt.Next(now) }

// SyncIfDue fetches and folds unless a sync already succeeded today.
// It reports whether a fetch was made.
func (s *Scheduler) SyncIfDue(ctx context.Context, trigger string) bool {
	today := model.DayOf(s.now())
	done, err := s.Manager.SyncedOn(today)
	if err != nil {
		log.Printf("[ERROR] %s sync: %v", trigger, err)
		return false
	}
	if done {
		log.Printf("[INFO] %s sync skipped, already synced on %s", trigger, today)
		s.recordSync(&recorder.SyncEvent{Trigger: trigger, Outcome: "skipped"})
		return false
	}

	out, err := s.sync(ctx, trigger)
	if err != nil {
		log.Printf("[ERROR] %s sync: %v", trigger, err)
		return true
	}
	if msg := failureMessage(out); msg != "" {
		s.deliver(msg)
	}
	return true
}

// Refresh forces a fetch regardless of the daily guard.
func (s *Scheduler) Refresh(ctx context.Context) (accounting.Outcome, error) {
	return s.sync(ctx, TriggerManual)
}

func (s *Scheduler) sync(ctx context.Context, trigger string) (accounting.Outcome, error) {
	snap, err := s.Manager.Snapshot()
	if err != nil {
		return accounting.Outcome{}, err
	}
	now := s.now()
	res := s.Collector.Fetch(ctx, collector.Request{
		Credential: snap.Credential,
		DailyCost:  snap.DailyCost,
		Now:        now,
	})

	evt := &recorder.SyncEvent{Trigger: trigger, Outcome: res.Kind.String(), Source: res.Source}
	if res.Err != nil {
		evt.Error = res.Err.Error()
	}
	s.recordSync(evt)

	out, err := s.Manager.Fold(res, now)
	if err != nil {
		return accounting.Outcome{}, fmt.Errorf("fold: %w", err)
	}
	if err := s.Recorder.RecordFold(&out); err != nil {
		log.Printf("[ERROR] record fold: %v", err)
	}
	return out, nil
}

// remind evaluates the persisted settings and notifies when the self party
// owes money on its turn. Cron re-arms it regardless of the result.
func (s *Scheduler) remind() {
	now := s.now()
	st, err := s.Manager.Current(now)
	if err != nil {
		log.Printf("[ERROR] reminder: %v", err)
		return
	}
	evt := &recorder.ReminderEvent{Owed: st.Owed, SelfTurn: st.IsSelfTurn, Channel: "none"}
	defer func() {
		if err := s.Recorder.RecordReminder(evt); err != nil {
			log.Printf("[ERROR] record reminder: %v", err)
		}
	}()

	if !st.ReminderWorthy() {
		log.Printf("[INFO] no reminder: owed %d, self turn %v", st.Owed, st.IsSelfTurn)
		return
	}
	muted, err := s.Manager.RemindersMuted()
	if err != nil {
		log.Printf("[ERROR] reminder: %v", err)
		return
	}
	if muted {
		log.Println("[INFO] reminder suppressed, reminders muted")
		evt.Channel = "muted"
		return
	}

	channel, err := s.Notifier.Deliver(s.Ctx, notifier.FormatReminder(st, midnightAfter(now)))
	evt.Channel = channel
	if err != nil {
		log.Printf("[ERROR] deliver reminder: %v", err)
		return
	}
	evt.Delivered = true
	log.Printf("[INFO] reminder sent via %s", channel)
}

func failureMessage(out accounting.Outcome) string {
	if out.Result.Kind != model.ResultFailure {
		return ""
	}
	if model.IsCredentialError(out.Result.Err) {
		return notifier.FormatCredentialProblem(out.Result.Err)
	}
	return notifier.FormatFetchProblem(out.Result.Err, out.State)
}

func (s *Scheduler) deliver(text string) {
	if _, err := s.Notifier.Deliver(s.Ctx, text); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}

func (s *Scheduler) recordSync(evt *recorder.SyncEvent) {
	if err := s.Recorder.RecordSync(evt); err != nil {
		log.Printf("[ERROR] record sync: %v", err)
	}
}

func (s *Scheduler) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
