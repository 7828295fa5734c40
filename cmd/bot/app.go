package main

import (
	"fmt"
	"log"

	"UpkeepSentinel/internal/accounting"
	"UpkeepSentinel/internal/collector"
	"UpkeepSentinel/internal/config"
	"UpkeepSentinel/internal/recorder"
	"UpkeepSentinel/internal/settings"
)

// app bundles the pieces every command needs.
type app struct {
	cfg     *config.Config
	store   settings.Store
	manager *accounting.Manager
}

func openApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	mgr, err := accounting.NewManager(store, cfg.Defaults())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init settings: %w", err)
	}
	return &app{cfg: cfg, store: store, manager: mgr}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("[WARN] close settings store: %v", err)
	}
}

func openStore(cfg *config.Config) (settings.Store, error) {
	switch cfg.Store.Backend {
	case "file":
		st, err := settings.OpenFileStore(cfg.Store.StateFile)
		if err != nil {
			return nil, fmt.Errorf("open settings file: %w", err)
		}
		return st, nil
	default:
		st, err := settings.OpenSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open settings db: %w", err)
		}
		return st, nil
	}
}

// buildCollector creates the fetchers in the configured order.
func buildCollector(cfg *config.Config) *collector.Collector {
	var fetchers []collector.Fetcher
	for _, src := range cfg.Torn.Sources {
		switch src {
		case config.SourceProperty:
			if cfg.Torn.PropertyID == "" {
				log.Println("[WARN] property source configured without torn.property_id, skipping")
				continue
			}
			fetchers = append(fetchers, collector.NewPropertyFetcher(cfg.Torn.BaseURL, cfg.Torn.PropertyID, cfg.Proxy))
		case config.SourceEvents:
			fetchers = append(fetchers, collector.NewEventsFetcher(cfg.Torn.BaseURL, cfg.Proxy))
		case config.SourceScrape:
			fetchers = append(fetchers, collector.NewScrapeFetcher(cfg.Torn.ScrapeURL, cfg.Proxy))
		}
	}
	col := collector.NewCollector(fetchers...)
	log.Printf("[INFO] payment feeds: %s", col.Names())
	return col
}

func buildRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Store.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Store.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}
