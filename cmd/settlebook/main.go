package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"SettleBook/internal/bubble"
	"SettleBook/internal/collector"
	"SettleBook/internal/config"
	"SettleBook/internal/notifier"
	"SettleBook/internal/recorder"
	"SettleBook/internal/scheduler"
	"SettleBook/internal/settlement"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] SettleBook starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init store. Without SQLite the bubble balance lives in a JSON file
	// and settlements are not recorded.
	var (
		rec    recorder.Recorder
		acc    bubble.Accumulator
		sink   collector.RowSink
		status scheduler.StatusSetter
		store  *recorder.SQLiteRecorder
	)
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using file state and noop recorder: %v", err)
		} else {
			store = sr
			defer sr.Close()
		}
	}
	if store != nil {
		rec, acc, sink, status = store, store, store, store
	} else {
		rec = recorder.NewNoopRecorder()
		acc = bubble.NewFileAccumulator(cfg.Bubble.StateFile)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch {
	case cfg.DataSource.BaseURL != "":
		fetcher = collector.NewHTTPFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case store != nil:
		fetcher = store
		sink = nil
	default:
		log.Println("[WARN] no data source and no store, weekly runs will find no rows")
		fetcher = &collector.MockFetcher{}
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, sink)

	// Init settlement
	params := cfg.Params()
	bm, err := bubble.NewManager(ctx, acc, params.BubbleEntityID, params.BubbleThreshold)
	if err != nil {
		log.Fatalf("[FATAL] init bubble manager: %v", err)
	}
	if params.BubbleEntityID == "" {
		log.Println("[INFO] bubble disabled")
	} else {
		log.Printf("[INFO] bubble entity %s, threshold %s", params.BubbleEntityID, params.BubbleThreshold)
	}
	svc := settlement.NewService(settlement.NewEngine(params), bm, rec)

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, svc, tn, status)
	if err := sched.RegisterAll(cfg.Schedule.WeeklyCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing weekly settlement now")
		go sched.RunWeeklyNow()
	}

	log.Println("[INFO] SettleBook is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] SettleBook stopped")
}
