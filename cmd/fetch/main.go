package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tradingdata/internal/aggregate"
	"tradingdata/internal/config"
	"tradingdata/internal/display/jsonchart"
	"tradingdata/internal/httpx"
	"tradingdata/internal/logging"
	"tradingdata/internal/provider/registry"
	"tradingdata/internal/recorder"
)

func main() {
	var (
		configPath   string
		symbolsCSV   string
		providersCSV string
		title        string
		containerID  string
		timeout      int
		pretty       bool
		history      bool
	)
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json or config.yaml (optional)")
	flag.StringVar(&symbolsCSV, "symbols", "", "comma-separated symbols (default from config)")
	flag.StringVar(&providersCSV, "providers", "", "comma-separated providers, e.g. av,wtd,yahoo (default: all enabled)")
	flag.StringVar(&title, "title", "Intraday", "chart title")
	flag.StringVar(&containerID, "container", "chart", "chart container id")
	flag.IntVar(&timeout, "timeout", 0, "per-fetch timeout seconds (default from config)")
	flag.BoolVar(&pretty, "pretty", false, "indent JSON output")
	flag.BoolVar(&history, "history", false, "show series stored in the SQLite recorder instead of fetching")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	if symbolsCSV != "" {
		cfg.Fetch.Symbols = config.SplitCSV(symbolsCSV)
	}
	if timeout > 0 {
		cfg.Fetch.TimeoutSec = timeout
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	if len(cfg.Fetch.Symbols) == 0 {
		log.Fatal("no symbols given")
	}

	chart := jsonchart.New(os.Stdout)
	if pretty {
		chart.Indent = "  "
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if history {
		if cfg.Recorder.SQLitePath == "" {
			log.Fatal("-history needs recorder.sqlite_path or SQLITE_PATH")
		}
		store, err := recorder.NewSQLite(cfg.Recorder.SQLitePath)
		if err != nil {
			log.Fatalf("recorder: %v", err)
		}
		defer store.Close()
		data, err := loadHistory(ctx, store, config.SplitCSV(providersCSV), cfg.Fetch.Symbols)
		if err != nil {
			log.Errorf("history: %v", err)
			store.Close()
			os.Exit(1)
		}
		if err := chart.ShowTradingData(containerID, title, data...); err != nil {
			log.Errorf("display: %v", err)
			store.Close()
			os.Exit(1)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	httpClient := httpx.New(cfg.RequestTimeout())
	all, err := registry.Build(cfg, httpClient, log)
	if err != nil {
		log.Fatalf("providers: %v", err)
	}
	providers, err := registry.Select(all, config.SplitCSV(providersCSV))
	if err != nil {
		log.Fatalf("providers: %v", err)
	}

	rec, err := recorder.Open(cfg.Recorder.SQLitePath)
	if err != nil {
		log.Fatalf("recorder: %v", err)
	}
	defer rec.Close()

	agg := aggregate.New(aggregate.WithFetchTimeout(cfg.FetchTimeout()), aggregate.WithLogger(log))
	start := time.Now()
	batch, data, err := agg.FetchBatch(ctx, aggregate.Pairs(providers, cfg.Fetch.Symbols))
	if err != nil {
		log.WithField("batch", batch).Errorf("fetch: %v", err)
		rec.Close()
		os.Exit(1)
	}
	log.WithFields(logrus.Fields{"batch": batch, "series": len(data), "took": time.Since(start)}).Info("fetched")

	if err := rec.RecordSeries(ctx, batch, data); err != nil {
		log.WithField("batch", batch).Warnf("record: %v", err)
	}

	if err := chart.ShowTradingData(containerID, title, data...); err != nil {
		log.Errorf("display: %v", err)
		rec.Close()
		os.Exit(1)
	}
}
