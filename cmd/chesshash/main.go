package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"

	"github.com/hailam/chesshash/internal/config"
	"github.com/hailam/chesshash/internal/engine"
	"github.com/hailam/chesshash/internal/logger"
	"github.com/hailam/chesshash/internal/storage"
	"github.com/hailam/chesshash/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	configPath = flag.String("config", "", "config file (JSON or YAML)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [bench [depth] [positions]]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "chesshash:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(*configPath, logger.Void())
	if err != nil {
		return err
	}
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithHandler(logger.ParseHandler(cfg.LogHandler)),
	)

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info("CPU profiling enabled", "file", profilePath)
	}

	var store *storage.Storage
	if cfg.Persist {
		store, err = storage.OpenDefault(cfg.DataDir, log)
		if err != nil {
			log.Warn("settings will not persist", "error", err)
		} else {
			defer store.Close()
			applyStored(cfg, store, log)
			logBenchHistory(store, log)
		}
	}

	eng, err := engine.New(engine.Config{HashMB: cfg.Hash, Threads: cfg.Threads}, log)
	if err != nil {
		return err
	}
	defer eng.Close()

	if flag.Arg(0) == "bench" {
		return bench(ctx, eng, store, flag.Args()[1:], log)
	}

	protocol := uci.New(eng, os.Stdin, os.Stdout, log)
	if store != nil {
		protocol.OnBench = func(res engine.BenchResult) { recordBench(store, res, log) }
	}
	err = protocol.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if store != nil {
		settings := &storage.Settings{HashMB: eng.Table().SizeMB(), Threads: eng.Options().Threads()}
		if err := store.SaveSettings(settings); err != nil {
			log.Warn("saving settings", "error", err)
		}
	}
	return err
}

// applyStored fills in the table size and thread count from the last
// session unless the config file or environment set them.
func applyStored(cfg *config.Config, store *storage.Storage, log *slog.Logger) {
	first, err := store.IsFirstLaunch()
	if err != nil {
		log.Warn("reading first launch flag", "error", err)
	} else if first {
		log.Info("first launch, using default settings")
		if err := store.MarkFirstLaunchComplete(); err != nil {
			log.Warn("marking first launch", "error", err)
		}
		return
	}

	settings, err := store.LoadSettings()
	if err != nil {
		log.Warn("loading settings", "error", err)
		return
	}
	if !cfg.Explicit(config.KeyHash) && settings.HashMB > 0 {
		cfg.Hash = settings.HashMB
	}
	if !cfg.Explicit(config.KeyThreads) && settings.Threads > 0 {
		cfg.Threads = settings.Threads
	}
	log.Debug("restored settings", "hash_mb", cfg.Hash, "threads", cfg.Threads)
}

func logBenchHistory(store *storage.Storage, log *slog.Logger) {
	stats, err := store.LoadBenchStats()
	if err != nil {
		log.Warn("loading bench stats", "error", err)
		return
	}
	if stats.Runs == 0 {
		return
	}
	log.Info("previous benches", "runs", stats.Runs, "best_nps", stats.BestNPS,
		"avg_nps", stats.AverageNPS(), "last_run", stats.LastRun)
}

func bench(ctx context.Context, eng *engine.Engine, store *storage.Storage, args []string, log *slog.Logger) error {
	var limits engine.SearchLimits
	for i, dst := range []*int{&limits.Depth, &limits.Positions} {
		if i >= len(args) {
			break
		}
		n, err := strconv.Atoi(args[i])
		if err != nil || n < 1 {
			return fmt.Errorf("bench: invalid argument %q", args[i])
		}
		*dst = n
	}

	eng.OnInfo = func(info engine.SearchInfo) {
		log.Debug("iteration", "position", info.Position, "depth", info.Depth,
			"score", info.Score, "nodes", info.Nodes, "hashfull", info.HashFull)
	}
	// An interrupt ends the bench early; report what was searched.
	res, err := eng.Bench(ctx, limits)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n===========================\n"+
		"Total time (ms) : %d\n"+
		"Nodes searched  : %d\n"+
		"Nodes/second    : %d\n"+
		"TT hits         : %d\n",
		res.Time.Milliseconds(), res.Nodes, res.NPS(), res.Hits)

	if store != nil && !res.Stopped {
		recordBench(store, res, log)
	}
	return nil
}

func recordBench(store *storage.Storage, res engine.BenchResult, log *slog.Logger) {
	stats, err := store.RecordBench(storage.BenchRun{Nodes: res.Nodes, Time: res.Time})
	if err != nil {
		log.Warn("recording bench", "error", err)
		return
	}
	log.Info("bench recorded", "runs", stats.Runs, "nps", stats.LastNPS,
		"best_nps", stats.BestNPS, "avg_nps", stats.AverageNPS())
}
