package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/shapedtime/hoardhelper/internal/api"
	"github.com/shapedtime/hoardhelper/internal/downloader"
	"github.com/shapedtime/hoardhelper/internal/exporter"
	"github.com/shapedtime/hoardhelper/internal/history"
	dlog "github.com/shapedtime/hoardhelper/internal/log"
	"github.com/shapedtime/hoardhelper/internal/loot"
	"github.com/shapedtime/hoardhelper/internal/metrics"
	"github.com/shapedtime/hoardhelper/internal/monitor"
	"github.com/shapedtime/hoardhelper/internal/queue"
	"github.com/shapedtime/hoardhelper/internal/realdebrid"
	"github.com/shapedtime/hoardhelper/internal/torrentstore"
	"github.com/shapedtime/hoardhelper/internal/uploader"
	"github.com/shapedtime/hoardhelper/internal/watcher"
	"github.com/shapedtime/hoardhelper/internal/webdav"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "run the REST API, drop folder watcher and connection monitor",
	Action: serve,
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log.Info().Str("config", c.String(configFlag)).Msg("starting hoardhelper")

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Storage
	db, err := history.NewDB(cfg.Database.HistoryPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()
	historyRepo := history.NewRepository(db)
	log.Info().Str("path", cfg.Database.HistoryPath).Msg("history database initialized")

	store, err := torrentstore.Open(cfg.Database.TorrentStorePath)
	if err != nil {
		return fmt.Errorf("failed to open torrent store: %w", err)
	}
	defer store.Close()

	// Queue
	q := queue.New()
	bases := exporter.Bases{TV: cfg.Library.TVBase(), Movie: cfg.Library.MovieBase()}
	ingestor := queue.NewIngestor(bases, m, dlog.Component("ingest"))

	// Remotes
	var probers []monitor.Prober

	dav, err := webdav.NewClient(cfg.WebDAV)
	var uploads *uploader.Service
	if err != nil {
		log.Warn().Err(err).Msg("WebDAV not configured, uploads are disabled")
	} else {
		probers = append(probers, dav)
		uploads = uploader.NewService(dav, uploader.Options{
			MaxAttempts: cfg.Upload.MaxAttempts,
			History:     historyRepo,
			Status:      q,
			Observer:    m,
		})
	}

	rd := realdebrid.NewClient(cfg.RealDebrid)
	rd.SetObserver(m)
	var lootSvc *loot.Service
	if rd.Configured() {
		probers = append(probers, rd)
		lootSvc = loot.NewService(rd, loot.Options{
			Store:       store,
			Downloader:  downloader.New(cfg.Download.TempDir, m),
			Ingestor:    ingestor,
			Queue:       q,
			Concurrency: cfg.Download.Concurrency,
			Observer:    m,
		})
	} else {
		log.Warn().Msg("Real-Debrid API key not configured, debrid features are disabled")
	}

	// Connection monitor
	var mon *monitor.Monitor
	if cfg.Monitor.Enabled && len(probers) > 0 {
		mon = monitor.New(cfg.Monitor.CheckInterval, probers...)
		mon.Start()
		defer mon.Stop()
		reg.MustRegister(metrics.NewQueueCollector(q, mon))
	} else {
		reg.MustRegister(metrics.NewQueueCollector(q, nil))
	}

	// Drop folder
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	if cfg.Watch.Enabled {
		w, err := watcher.New(cfg.Watch.Folder, watcher.DefaultDebounce, func(paths []string) {
			added := q.Add(ingestor.Ingest(paths)...)
			if cfg.Watch.AutoUpload && uploads != nil {
				results := uploads.UploadAll(ctx, added, nil)
				log.Info().Str("summary", uploader.Summary(results)).Msg("drop folder upload finished")
			}
		})
		if err != nil {
			return err
		}
		w.Start()
		defer w.Stop()
	}

	// Servers
	apiServer := api.NewServer(api.Deps{
		Ingestor: ingestor,
		Queue:    q,
		Uploads:  uploads,
		History:  historyRepo,
		WebDAV:   dav,
		Debrid:   rd,
		Loot:     lootSvc,
		Monitor:  mon,
		Auth:     cfg.Server.Auth,
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: apiServer.Handler(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.HTTPPort).Msg("starting REST API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("REST API server error")
		}
	}()

	var metricsServer *metrics.Server
	if cfg.Server.MetricsPort > 0 {
		metricsServer = metrics.NewServer(cfg.Server.MetricsPort, reg)
		go metricsServer.Start()
	}

	log.Info().
		Str("api_url", fmt.Sprintf("http://localhost:%d/api", cfg.Server.HTTPPort)).
		Msg("hoardhelper is ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("REST API server shutdown error")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	log.Info().Msg("hoardhelper stopped")
	return nil
}
