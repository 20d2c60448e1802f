// Command run loads a geometry file, wires it into a simulation driver and
// advances a fixed worker pool until the configured desorption budget is
// exhausted, a timeout elapses, or the process is interrupted (spec §6's
// minimal CLI surface).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iBaer/molflow-core/config"
	"github.com/iBaer/molflow-core/geometry"
	"github.com/iBaer/molflow-core/model"
	"github.com/iBaer/molflow-core/sim"
)

// Exit codes per spec §6.
const (
	exitOK           = 0
	exitLoadFailure  = 1
	exitRuntimeError = 2
	exitTimeout      = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	threads := flag.Int("threads", 0, "worker pool size (0 = config default)")
	seed := flag.Int64("seed", 0, "base RNG seed (0 = config default)")
	fixedSeed := flag.Bool("fixed-seed", false, "use the deterministic 42424242+id seed scheme")
	steps := flag.Int("steps", 0, "steps per dispatch batch (0 = config default)")
	desorptionLimit := flag.Int64("desorption-limit", -1, "per-worker desorption budget (-1 = config default, 0 = unlimited)")
	momentsFile := flag.String("moments", "", "moments CSV file (empty = config default / none)")
	configPath := flag.String("config", "", "run configuration YAML (empty = embedded defaults)")
	timeoutFlag := flag.Duration("timeout", 0, "wall-clock run timeout (0 = no timeout)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <geometry-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	geomPath := flag.Arg(0)
	if geomPath == "" {
		fmt.Fprintln(os.Stderr, "run: a geometry file argument is required")
		flag.Usage()
		return exitLoadFailure
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: loading config: %v\n", err)
		return exitLoadFailure
	}
	setupLogging(cfg)

	applyFlagOverrides(cfg, *threads, *seed, *fixedSeed, *steps, *desorptionLimit, *momentsFile)

	m, err := loadGeometry(geomPath)
	if err != nil {
		slog.Error("geometry_load_failed", "path", geomPath, "error", err)
		return exitLoadFailure
	}
	if err := loadMoments(m, cfg); err != nil {
		slog.Error("moments_load_failed", "error", err)
		return exitLoadFailure
	}

	driver, err := sim.LoadSimulation(m, cfg)
	if err != nil {
		slog.Error("simulation_load_failed", "error", err)
		return exitLoadFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *timeoutFlag > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, *timeoutFlag)
		defer timeoutCancel()
	}

	stepsPerDispatch := cfg.Run.StepsPerDispatch
	start := time.Now()
	exhausted := driver.Run(ctx, stepsPerDispatch)

	slog.Info("run_complete",
		"elapsed", time.Since(start),
		"workers_exhausted", exhausted,
		"total_workers", len(driver.Workers),
		"nb_desorbed", driver.Global.Global.NbDesorbed,
		"nb_hit", driver.Global.Global.NbMCHit,
		"nb_leak", driver.Global.NbLeakTotal,
	)

	if err := ctx.Err(); err != nil {
		if err == context.DeadlineExceeded {
			slog.Warn("run_timed_out")
			return exitTimeout
		}
		slog.Warn("run_cancelled")
	}
	return exitOK
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func applyFlagOverrides(cfg *config.Config, threads int, seed int64, fixedSeed bool, steps int, desorptionLimit int64, momentsFile string) {
	if threads > 0 {
		cfg.Run.Threads = threads
	}
	if seed != 0 {
		cfg.Run.Seed = seed
	}
	if fixedSeed {
		cfg.Run.FixedSeed = true
	}
	if steps > 0 {
		cfg.Run.StepsPerDispatch = steps
	}
	if desorptionLimit >= 0 {
		cfg.Run.DesorptionLimit = desorptionLimit
	}
	if momentsFile != "" {
		cfg.Run.MomentsFile = momentsFile
	}
}

func loadGeometry(path string) (*model.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening geometry file: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".xml") {
		return geometry.ParseXML(f)
	}
	return geometry.ParseGEO(f)
}

func loadMoments(m *model.Model, cfg *config.Config) error {
	if cfg.Run.MomentsFile == "" {
		return nil
	}
	times, err := geometry.LoadMomentsCSV(cfg.Run.MomentsFile)
	if err != nil {
		return err
	}
	m.MomentTimes = times
	if len(times) > 0 {
		m.LatestMoment = times[len(times)-1]
	}
	return nil
}
