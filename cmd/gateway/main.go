// Command gateway is the composition root for the AI provider routing
// façade: it loads configuration, wires the provider adapters, the
// usage ledger, the two journal stores, and the router kernel, then
// serves the HTTP surface described in spec.md §6.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/AliZeynalov/ai-router-facade/internal/config"
	"github.com/AliZeynalov/ai-router-facade/internal/gateway"
	"github.com/AliZeynalov/ai-router-facade/internal/journal"
	"github.com/AliZeynalov/ai-router-facade/internal/ledger"
	"github.com/AliZeynalov/ai-router-facade/internal/provider"
	"github.com/AliZeynalov/ai-router-facade/internal/router"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	routerCfg, err := cfg.ToRouterConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid router configuration")
	}

	adapters := make([]provider.Adapter, 0, len(cfg.Providers))
	for name, sec := range cfg.Providers {
		if !sec.Enabled {
			continue
		}
		costPerToken := 0.0
		if limit, ok := routerCfg.ProviderLimits[name]; ok {
			cpt, _ := limit.CostPerToken.Float64()
			costPerToken = cpt
		}
		adapter, err := config.BuildAdapter(name, sec, costPerToken)
		if err != nil {
			log.WithError(err).Fatal("failed to build provider adapter")
		}
		adapters = append(adapters, adapter)
	}
	if len(adapters) == 0 {
		log.Fatal("no enabled providers configured")
	}

	journalOpts := cfg.JsonFileServiceOptions.ToJournalOptions()
	if err := journalOpts.Validate(); err != nil {
		log.WithError(err).Fatal("invalid journal configuration")
	}
	journalStore := journal.New(journalOpts)
	if err := journalStore.EnsureFile(); err != nil {
		log.WithError(err).Fatal("failed to initialize journal file")
	}

	historyOpts := cfg.HistoryFileServiceOptions.ToJournalOptions()
	if err := historyOpts.Validate(); err != nil {
		log.WithError(err).Fatal("invalid history journal configuration")
	}
	historyStore := journal.New(historyOpts)
	if err := historyStore.EnsureFile(); err != nil {
		log.WithError(err).Fatal("failed to initialize history file")
	}

	led := ledger.New()
	kernel := router.New(adapters, led, journalStore, routerCfg)
	handler := gateway.NewHandler(kernel, historyStore)
	engine := gateway.NewEngine(handler)

	scheduler := cron.New()
	// Scheduled rollover check, independent of the size-triggered check
	// that runs before every journal write (spec.md §4.3). Runs hourly.
	if _, err := scheduler.AddFunc("@hourly", func() {
		if err := journalStore.RolloverIfNeeded(); err != nil {
			log.WithError(err).Warn("scheduled journal rollover check failed")
		}
		if err := historyStore.RolloverIfNeeded(); err != nil {
			log.WithError(err).Warn("scheduled history rollover check failed")
		}
	}); err != nil {
		log.WithError(err).Fatal("failed to schedule rollover job")
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: engine}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("gateway listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
