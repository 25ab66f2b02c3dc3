package daemon

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tutu-network/coinquest/internal/api"
	"github.com/tutu-network/coinquest/internal/app/engagement"
	"github.com/tutu-network/coinquest/internal/health"
	"github.com/tutu-network/coinquest/internal/infra/sqlite"
)

// Daemon is the core CoinQuest runtime. It wires together all services.
type Daemon struct {
	Config       Config
	DB           *sqlite.DB
	Engine       *engagement.Engine
	Notification *engagement.NotificationService
	Health       *health.Checker
	Live         *api.LiveHub
	Server       *api.Server

	cancel   context.CancelFunc
	logFile  *os.File
	unsubs   []func()
	lastDay  string
	rollover time.Duration
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration. The engine
// is constructed but not started; call Start or Serve.
func NewWithConfig(cfg Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	home := coinquestHome()
	db, err := sqlite.Open(home)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	d := &Daemon{
		Config:   cfg,
		DB:       db,
		rollover: parseDuration(cfg.Progression.RolloverInterval, time.Minute),
	}
	d.setupLogging()

	d.Engine = engagement.New(engagement.Options{
		Store:           meteredStore{sqlite.NewProfileStore(db)},
		Thresholds:      cfg.Progression.LevelThresholds,
		Streak:          cfg.StreakPolicy(),
		RefreshMissions: cfg.Progression.RefreshMissions,
	})
	events := d.Engine.Events()

	d.unsubs = append(d.unsubs,
		observeMetrics(events),
		recordXP(events, db),
	)
	if cfg.Logging.Level == "debug" {
		d.unsubs = append(d.unsubs, traceEvents(events))
	}

	if cfg.Notifications.Enabled {
		d.Notification = engagement.NewNotificationServiceWithPolicy(
			meteredNotifications{db}, cfg.NotificationPolicy())
		d.unsubs = append(d.unsubs, d.Notification.Attach(events))
	}

	d.Health = health.NewChecker(db, home, d.Engine)

	d.Live = api.NewLiveHub()
	d.unsubs = append(d.unsubs, d.Live.Attach(events))

	srv := api.NewServer(d.Engine)
	srv.SetLedger(db)
	srv.SetHealth(d.Health)
	srv.SetLiveHub(d.Live)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	if d.Notification != nil {
		srv.SetNotifications(d.Notification)
	}
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	return d, nil
}

// Start loads the stored profile and waits for it.
func (d *Daemon) Start(ctx context.Context) error {
	d.Engine.Start(ctx)
	if _, err := d.Engine.WaitReady(ctx); err != nil {
		return err
	}
	d.lastDay = time.Now().Format("2006-01-02")
	return nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	loadCtx, loadCancel := context.WithTimeout(ctx, 30*time.Second)
	err := d.Start(loadCtx)
	loadCancel()
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	go d.Health.Run(ctx)
	go d.runRollover(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     d.Server.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 2 * time.Minute,
		// No WriteTimeout: the live feed is a long-lived stream
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Printf("CoinQuest serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		d.Close()
		return err
	}
	d.Close()
	return nil
}

// runRollover sweeps and re-issues missions when the calendar day changes
// while the process keeps running.
func (d *Daemon) runRollover(ctx context.Context) {
	ticker := time.NewTicker(d.rollover)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d.checkRollover(now)
		}
	}
}

func (d *Daemon) checkRollover(now time.Time) {
	today := now.Format("2006-01-02")
	if today == d.lastDay {
		return
	}
	d.lastDay = today

	d.Server.Exclusive(func(e *engagement.Engine) {
		expired := e.SweepExpiredMissions()
		var issued int
		if d.Config.Progression.RefreshMissions {
			issued = len(e.RefreshMissions())
		}
		log.Printf("[daemon] day rollover %s: %d expired, %d issued", today, len(expired), issued)
	})
}

// Close flushes the profile and shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	for _, unsub := range d.unsubs {
		unsub()
	}
	d.unsubs = nil
	if d.Engine != nil {
		d.Engine.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
		d.DB = nil
	}
	if d.logFile != nil {
		log.SetOutput(os.Stderr)
		_ = d.logFile.Close()
		d.logFile = nil
	}
}

// setupLogging tees the standard logger into logging.file.
func (d *Daemon) setupLogging() {
	if d.Config.Logging.File == "" {
		return
	}
	f, err := os.OpenFile(d.Config.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		log.Printf("[daemon] WARNING: cannot open log file: %v (logging to stderr only)", err)
		return
	}
	d.logFile = f
	log.SetOutput(io.MultiWriter(os.Stderr, f))
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
