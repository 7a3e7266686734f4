package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/arpgcore/internal/attack"
	"github.com/udisondev/arpgcore/internal/combat"
	"github.com/udisondev/arpgcore/internal/config"
	"github.com/udisondev/arpgcore/internal/damage"
	"github.com/udisondev/arpgcore/internal/db"
	"github.com/udisondev/arpgcore/internal/journal"
	"github.com/udisondev/arpgcore/internal/telemetry"
)

const ConfigPath = "config/combatsim.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// .env is optional; variables may come from the environment directly.
	envErr := godotenv.Load()

	cfgPath := ConfigPath
	if p := os.Getenv("ARPG_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadCombatSim(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.Sim.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	if envErr != nil {
		slog.Debug(".env not loaded", "err", envErr)
	}

	slog.Info("combatsim starting",
		"log_level", cfg.Sim.LogLevel,
		"seed", cfg.Sim.Seed,
		"stage", cfg.Sim.Stage,
		"fighters", len(cfg.Roster))

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			slog.Error("telemetry shutdown", "err", err)
		}
	}()

	catalog, err := attack.LoadCatalog(cfg.Sim.CatalogPath)
	if err != nil {
		return fmt.Errorf("loading attack catalog: %w", err)
	}
	slog.Info("attack catalog loaded", "path", cfg.Sim.CatalogPath, "templates", catalog.Len())

	engine := combat.New(catalog,
		combat.WithRoller(damage.NewRandRoller(cfg.Sim.Seed)),
		combat.WithLogger(slog.Default()),
		combat.WithTracer(telemetry.Tracer("combat")),
		combat.WithCancelOnDeath(cfg.Sim.CancelOnDeath),
		combat.WithHitRadius(cfg.Sim.HitRadius),
	)

	for id, n := range cfg.Prewarm {
		if err := engine.Pool().Prewarm(id, n); err != nil {
			return fmt.Errorf("prewarming template %d: %w", id, err)
		}
	}

	var rec *journal.Recorder
	if cfg.Journal.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		runLabel := fmt.Sprintf("%s-%d-%d", cfg.Sim.Stage, cfg.Sim.Seed, time.Now().Unix())
		rec = journal.NewRecorder(runLabel, engine.Clock(), database.CombatLog(), cfg.Journal.MaxBuffered)
		engine.Feed().Subscribe(rec)
		slog.Info("journal enabled", "run", runLabel, "flush_interval", cfg.Journal.FlushInterval)
	}

	sk, err := newSkirmish(engine, cfg.Sim, cfg.Roster)
	if err != nil {
		return fmt.Errorf("setting up skirmish: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	flushCtx, stopFlush := context.WithCancel(gctx)
	defer stopFlush()

	g.Go(func() error {
		defer stopFlush()
		if err := sk.Run(gctx); err != nil {
			return fmt.Errorf("skirmish: %w", err)
		}
		return nil
	})

	if rec != nil {
		g.Go(func() error {
			err := rec.RunFlushLoop(flushCtx, cfg.Journal.FlushInterval)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	sk.Report()
	if rec != nil {
		written, dropped := rec.Stats()
		slog.Info("journal closed", "run", rec.Run(), "written", written, "dropped", dropped)
	}
	return nil
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
