// Package main runs batches of headless bot-driven arena matches and logs
// each outcome.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/match"
	"github.com/cory-johannsen/arena/internal/game/wave"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty = defaults and ARENA_* environment")
	contentDir := flag.String("content", "", "content root; overrides content.dir")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *contentDir != "" {
		cfg.Content.Dir = *contentDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	content, err := match.Load(cfg.Content.Dir)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.String("dir", cfg.Content.Dir),
		zap.String("arena", content.Layout.ID),
		zap.Int("classes", len(content.Classes)),
		zap.Int("enemies", len(content.Enemies)),
		zap.Int("waves", len(content.Schedule.Waves)),
		zap.Duration("elapsed", time.Since(start)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var archive *postgres.ResultRepository
	if cfg.Database.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to result archive", zap.Error(err))
		}
		defer pool.Close()
		archive = postgres.NewResultRepository(pool.DB())
		logger.Info("archiving results", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Name))
	}

	players := make([]string, cfg.Runner.Players)
	for i := range players {
		players[i] = cfg.Runner.Class
	}

	results := make([]match.Result, cfg.Runner.Matches)
	g, gctx := errgroup.WithContext(ctx)
	for i := range cfg.Runner.Matches {
		seed := cfg.Simulation.Seed
		if seed != 0 {
			seed += uint64(i)
		}
		mlog := observability.ForMatch(logger, i, seed)
		g.Go(func() error {
			m, err := match.New(content, match.Options{
				Players: players,
				Seed:    seed,
				Logger:  mlog,
				Bots:    true,
			})
			if err != nil {
				return err
			}
			defer m.Close()
			res, err := m.Run(gctx, cfg.Simulation.Step(), cfg.Simulation.MaxDuration)
			results[i] = res
			if err != nil {
				return err
			}
			if archive != nil {
				if _, err := archive.Save(gctx, postgres.NewRecord(res, seed, players)); err != nil {
					return fmt.Errorf("archiving match %d: %w", i, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("run stopped", zap.Error(err))
	}

	var victories int
	for i, res := range results {
		if res.ID == "" {
			continue
		}
		if res.Outcome == wave.Victory {
			victories++
		}
		logger.Info("match result",
			zap.Int("match", i),
			zap.String("match_id", res.ID),
			zap.Stringer("outcome", res.Outcome),
			zap.Int("wave", res.Wave),
			zap.Duration("simulated", res.Elapsed),
			zap.Int("kills", res.Kills),
			zap.Int("crates", res.Crates),
			zap.Int("currency", res.Currency),
		)
	}
	logger.Info("batch complete",
		zap.Int("matches", cfg.Runner.Matches),
		zap.Int("victories", victories),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Defaults()
	}
	return config.Load(path)
}
