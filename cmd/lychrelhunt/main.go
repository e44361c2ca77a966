package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/riftlab/lychrel-hunter/internal/lychrel/cache"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/cache/durable"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/common/clock"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/common/log"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/config"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/domain"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/engine"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/generator"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/hunter"
)

const version = "0.1.0-dev"

// Application wires together a configured RecordHunter and its durable
// cache tier.
type Application struct {
	hunter  *hunter.RecordHunter
	durable *durable.Store
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":        version,
		"env":            cfg.Env,
		"min_digits":     cfg.MinDigits,
		"max_digits":     cfg.MaxDigits,
		"generator_mode": cfg.GeneratorMode,
	}, "starting lychrel hunt")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "shutdown signal received, finishing current batch")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "hunt failed")
	}

	log.Info(nil, "lychrel hunt stopped gracefully")
}

// buildApplication constructs a RecordHunter (resuming from a checkpoint
// when one exists) and its supporting durable cache tier.
func buildApplication(cfg *config.HuntConfig) (*Application, error) {
	logger := log.GetLogger()
	clk := clock.RealClock{}

	var durableStore *durable.Store
	if cfg.DurableCacheFile != "" {
		var err error
		durableStore, err = durable.Open(cfg.DurableCacheFile)
		if err != nil {
			return nil, fmt.Errorf("open durable cache: %w", err)
		}
	}

	cacheOpts := cache.Options{MaxLocalSize: cfg.CacheSize, Logger: logger}

	if _, err := os.Stat(cfg.CheckpointFile); err == nil {
		return resumeFromCheckpoint(cfg, clk, logger, cacheOpts, durableStore)
	}

	return freshApplication(cfg, clk, logger, cacheOpts, durableStore)
}

func freshApplication(cfg *config.HuntConfig, clk clock.Clock, logger log.Logger, cacheOpts cache.Options, durableStore *durable.Store) (*Application, error) {
	threadCache := cache.New(cacheOpts)
	if durableStore != nil {
		important, err := durableStore.LoadAll()
		if err != nil {
			return nil, fmt.Errorf("load durable cache: %w", err)
		}
		threadCache.Import(important)
		logger.Info(map[string]any{"entries": len(important)}, "imported durable cache entries")
	}

	gen, err := generator.New(cfg.GeneratorModeValue(), cfg.MinDigits, "")
	if err != nil {
		return nil, fmt.Errorf("construct generator: %w", err)
	}

	if cfg.Warmup {
		runWarmup(threadCache, logger)
	}

	h := hunter.New(hunter.Options{
		Config:      cfg,
		Engine:      engine.New(0),
		Cache:       threadCache,
		Clock:       clk,
		Logger:      logger,
		Generator:   gen,
		Width:       cfg.MinDigits,
		Stats:       domain.NewHuntStatistics(clk.Now()),
		WorkerCount: runtime.GOMAXPROCS(0),
		OnRecord:    hunter.RecordWriter(recordDir(cfg), logger),
		CheckpointFunc: func(h *hunter.RecordHunter) error {
			return persistCheckpoint(h, cfg, durableStore)
		},
	})

	return &Application{hunter: h, durable: durableStore}, nil
}

func resumeFromCheckpoint(cfg *config.HuntConfig, clk clock.Clock, logger log.Logger, cacheOpts cache.Options, durableStore *durable.Store) (*Application, error) {
	_, gen, threadCache, stats, err := hunter.LoadCheckpoint(cfg.CheckpointFile, clk, logger, cacheOpts)
	if err != nil {
		return nil, fmt.Errorf("resume from checkpoint: %w", err)
	}
	if durableStore != nil {
		important, err := durableStore.LoadAll()
		if err != nil {
			return nil, fmt.Errorf("load durable cache: %w", err)
		}
		threadCache.Import(important)
		logger.Info(map[string]any{"entries": len(important)}, "imported durable cache entries")
	}
	logger.Info(map[string]any{
		"numbers_tested": stats.NumbersTested,
		"width":          gen.Width(),
	}, "resumed hunt from checkpoint")

	h := hunter.New(hunter.Options{
		Config:      cfg,
		Engine:      engine.New(0),
		Cache:       threadCache,
		Clock:       clk,
		Logger:      logger,
		Generator:   gen,
		Width:       gen.Width(),
		Stats:       stats,
		WorkerCount: runtime.GOMAXPROCS(0),
		OnRecord:    hunter.RecordWriter(recordDir(cfg), logger),
		CheckpointFunc: func(h *hunter.RecordHunter) error {
			return persistCheckpoint(h, cfg, durableStore)
		},
	})

	return &Application{hunter: h, durable: durableStore}, nil
}

// persistCheckpoint saves the checkpoint and companion cache file, and
// refreshes the durable cache tier with the hunter's important entries
// (max_iterations_tested >= 200) so a future run can recover them without
// re-parsing the full JSON cache file.
func persistCheckpoint(h *hunter.RecordHunter, cfg *config.HuntConfig, durableStore *durable.Store) error {
	if err := hunter.SaveCheckpoint(h, cfg.CheckpointFile); err != nil {
		return err
	}
	if durableStore == nil {
		return nil
	}
	important := h.Cache().ExportImportant()
	version, err := durableStore.Version()
	if err != nil {
		return fmt.Errorf("read durable cache version: %w", err)
	}
	return durableStore.Upsert(important, version+1, clock.RealClock{}.Now().Unix())
}

// runWarmup seeds the cache by iterating every n in [1, 10^6] against it,
// per the warmup contract in the external-interfaces section.
func runWarmup(c *cache.ThreadCache, logger log.Logger) {
	logger.Info(nil, "running cache warmup over [1, 1000000]")
	e := engine.New(0)
	e.Source = domain.SourceWarmup
	for i := int64(1); i <= 1_000_000; i++ {
		n := domain.FromInt64(i)
		e.IterateWithCache(n, 1000, warmupCacheAdapter{c})
	}
	logger.Info(map[string]any{"entries": c.LocalLen()}, "cache warmup complete")
}

// warmupCacheAdapter adapts *cache.ThreadCache to engine.Cache; defined
// here rather than in the cache package to keep that package's public
// surface small — runWarmup is the only caller that needs it directly
// (hunter workers always go through NewWorker instead).
type warmupCacheAdapter struct {
	c *cache.ThreadCache
}

func (w warmupCacheAdapter) Lookup(n domain.BigDecimalInt) (domain.ThreadInfo, bool) {
	return w.c.Lookup(n)
}
func (w warmupCacheAdapter) ShouldCache(iterations uint32) bool { return w.c.ShouldCache(iterations) }
func (w warmupCacheAdapter) AddThread(path []domain.BigDecimalInt, base uint32, reached bool, maxTested uint32, finalDigits int, source string) {
	w.c.AddThread(path, base, reached, maxTested, finalDigits, source)
}

func recordDir(cfg *config.HuntConfig) string {
	dir := filepath.Dir(cfg.CheckpointFile)
	if dir == "" {
		return "."
	}
	return dir
}

// Run starts the hunt and blocks until ctx is cancelled or max_digits is
// exhausted. RecordHunter.Run always checkpoints before returning, which
// also refreshes the durable cache tier via persistCheckpoint.
func (app *Application) Run(ctx context.Context) error {
	defer func() {
		if app.durable != nil {
			if err := app.durable.Close(); err != nil {
				log.Warn(map[string]any{"error": err.Error()}, "failed to close durable cache store")
			}
		}
	}()
	return app.hunter.Run(ctx)
}
