// Command ashes serves the Ashes Across the Void campaign tracker.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/ashes-void/internal/api"
	"github.com/talgya/ashes-void/internal/auth"
	"github.com/talgya/ashes-void/internal/campaign"
	"github.com/talgya/ashes-void/internal/config"
	"github.com/talgya/ashes-void/internal/engine"
	"github.com/talgya/ashes-void/internal/persistence"
	"github.com/talgya/ashes-void/internal/world"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("Ashes Across the Void campaign tracker")
	if cfg.DevSecretInUse {
		slog.Warn("ASHES_AUTH_SECRET not set, using the development session secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────
	db, err := persistence.OpenWith(ctx, persistence.Options{
		Dialect: persistence.Dialect(cfg.DBDialect),
		Path:    cfg.SQLitePath,
		DSN:     cfg.PostgresDSN,
	})
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// ── Map + first season (only on an empty database) ───────────────
	m, err := world.Layout(cfg.MapLayout, cfg.MapRadius, cfg.MapSeed)
	if err != nil {
		slog.Error("failed to build map", "error", err)
		os.Exit(1)
	}
	planets, voids := world.KindCounts(m)
	slog.Info("map layout", "layout", cfg.MapLayout, "radius", m.Radius, "planets", planets, "void", voids)

	admins := auth.NewAdminList(cfg.AdminEmails)
	if admins.Len() == 0 {
		slog.Warn("no administrators configured (ASHES_ADMIN_EMAILS)")
	}
	svc := campaign.NewService(db, admins)
	if err := svc.EnsureBootstrap(ctx, campaign.Bootstrap{Map: m, SeasonLength: cfg.SeasonLength}); err != nil {
		slog.Error("failed to bootstrap campaign", "error", err)
		os.Exit(1)
	}
	if season, err := svc.Latest(ctx); err == nil {
		slog.Info("season", "name", season.Name, "status", season.Status, "banner", campaign.Banner(season, svc.Clock()))
	}

	// ── Scheduler: close seasons past their end date, nightly replay ──
	eng := engine.NewEngine()
	eng.Interval = cfg.TickInterval
	eng.OnTick = func(ctx context.Context, _ uint64) error {
		_, err := svc.Conclude(ctx)
		return err
	}
	eng.OnDay = func(ctx context.Context, _ uint64) error {
		season, err := svc.Current(ctx)
		if err != nil {
			return nil // nothing to rebuild between seasons
		}
		_, err = svc.Recalculate(ctx, season.ID)
		return err
	}
	go eng.Run(ctx)

	// ── HTTP API ──────────────────────────────────────────────────────
	srv := &api.Server{
		Service:      svc,
		Accounts:     auth.Accounts{Users: db},
		Tokens:       auth.Tokens{Secret: []byte(cfg.AuthSecret), TTL: cfg.SessionTTL},
		Eng:          eng,
		Addr:         cfg.Addr,
		CORSOrigins:  cfg.CORSOrigins,
		LoginLimiter: api.NewRateLimiter(cfg.LoginRate, cfg.LoginBurst),
	}
	httpSrv := srv.Start()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}
	slog.Info("goodbye")
}
