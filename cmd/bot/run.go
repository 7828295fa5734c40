package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"UpkeepSentinel/internal/notifier"
	"UpkeepSentinel/internal/scheduler"
)

func runBot(cfgPath string) error {
	log.Println("[INFO] UpkeepSentinel starting...")

	a, err := openApp(cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	col := buildCollector(cfg)

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	disp := &notifier.Dispatcher{Primary: tn, Fallback: &notifier.StatusWriter{W: os.Stdout}}
	if !tn.Permitted() {
		log.Println("[WARN] telegram not configured, reminders go to stdout")
	}

	rec := buildRecorder(cfg)
	defer rec.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	before, _ := cfg.ReminderBefore()
	after, _ := cfg.SyncAfter()
	reminderAt, err := scheduler.ParseSchedule(cfg.Schedule.ReminderCron, scheduler.DailyOffset{Before: before})
	if err != nil {
		return fmt.Errorf("reminder schedule: %w", err)
	}
	syncAt, err := scheduler.ParseSchedule(cfg.Schedule.SyncCron, scheduler.DailyOffset{After: after})
	if err != nil {
		return fmt.Errorf("sync schedule: %w", err)
	}

	sched := scheduler.NewScheduler(ctx, col, a.manager, disp, rec)
	if err := sched.Register(reminderAt, syncAt); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn.Permitted() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	log.Println("[INFO] UpkeepSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] UpkeepSentinel stopped")
	return nil
}
