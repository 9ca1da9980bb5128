package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/five82/cadence"
	"github.com/five82/cadence/internal/config"
	"github.com/five82/cadence/internal/errors"
	"github.com/five82/cadence/internal/logging"
	"github.com/five82/cadence/internal/reporter"
	"github.com/five82/cadence/internal/synth"
	"github.com/five82/cadence/internal/util"
)

// playArgs holds the parsed arguments for the play command.
type playArgs struct {
	rangeSpec string
	fps       float64
	workers   int
	loop      string
	direction string
	threshold int
	view      int
	scale     float64
	// Synthetic renderer
	latency    time.Duration
	jitter     time.Duration
	failEvery  int
	failFrames []int
	seed       uint64
	// Scripted transport
	seekAt     uint64
	seekTo     int
	seekResume bool
	pauseAt    uint64
	pauseFor   time.Duration
	duration   time.Duration
	// Output
	json    bool
	verbose bool
	logDir  string
	logJSON bool
	noLog   bool
}

func newPlayCmd() *cobra.Command {
	var pa playArgs

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a synthetic frame sequence",
		Long: `Play a frame range against the synthetic renderer.

The session ends when a single pass completes, when --duration elapses, when
too many consecutive frames fail, or on Ctrl-C. Seek and pause can be scripted
to trigger after a number of delivered frames.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlay(cmd, pa)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&pa.rangeSpec, "range", "r", fmt.Sprintf("%d-%d", config.DefaultFirstFrame, config.DefaultLastFrame), "Frame range FIRST-LAST")
	f.Float64Var(&pa.fps, "fps", config.DefaultFPS, "Desired playback rate")
	f.IntVarP(&pa.workers, "workers", "w", 0, "Parallel render workers (0 = auto)")
	f.StringVar(&pa.loop, "loop", string(config.LoopOnce), "Loop mode: once, loop, bounce")
	f.StringVarP(&pa.direction, "direction", "d", "forward", "Playback direction: forward, backward")
	f.IntVar(&pa.threshold, "threshold", config.DefaultFailureThreshold, "Consecutive failures that stop playback (0 = never)")
	f.IntVar(&pa.view, "view", 0, "View index")
	f.Float64Var(&pa.scale, "scale", config.DefaultRenderScale, "Render scale")

	f.DurationVar(&pa.latency, "latency", 10*time.Millisecond, "Synthetic render time per frame")
	f.DurationVar(&pa.jitter, "jitter", 0, "Extra random render time, up to this much")
	f.IntVar(&pa.failEvery, "fail-every", 0, "Fail every Nth frame (0 = never)")
	f.IntSliceVar(&pa.failFrames, "fail-frames", nil, "Frames that always fail")
	f.Uint64Var(&pa.seed, "seed", 1, "Jitter seed")

	f.Uint64Var(&pa.seekAt, "seek-at", 0, "Seek after this many delivered frames (0 = never)")
	f.IntVar(&pa.seekTo, "seek-to", 0, "Seek target frame")
	f.BoolVar(&pa.seekResume, "seek-resume", true, "Keep playing after the scripted seek")
	f.Uint64Var(&pa.pauseAt, "pause-at", 0, "Pause after this many delivered frames (0 = never)")
	f.DurationVar(&pa.pauseFor, "pause-for", time.Second, "How long the scripted pause lasts")
	f.DurationVar(&pa.duration, "duration", 0, "Stop the session after this long (0 = until done)")

	f.BoolVar(&pa.json, "json", false, "Emit NDJSON events instead of terminal output")
	f.BoolVarP(&pa.verbose, "verbose", "v", false, "Enable verbose output for troubleshooting")
	f.StringVarP(&pa.logDir, "log-dir", "l", "", "Log directory (defaults to the user cache directory)")
	f.BoolVar(&pa.logJSON, "log-json", false, "Write the log file as JSON lines")
	f.BoolVar(&pa.noLog, "no-log", false, "Disable log file creation")

	return cmd
}

func runPlay(cmd *cobra.Command, pa playArgs) error {
	bounds, err := config.ParseBounds(pa.rangeSpec)
	if err != nil {
		return err
	}
	mode, err := config.ParseLoopMode(pa.loop)
	if err != nil {
		return err
	}
	dir, err := config.ParseDirection(pa.direction)
	if err != nil {
		return err
	}

	// Setup file logging
	var runLog *logging.RunLog
	if !pa.noLog {
		logDir := resolveLogDir(pa.logDir)
		if err := util.EnsureDirectory(logDir); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		if err := util.EnsureDirectoryWritable(logDir); err != nil {
			return err
		}
		runLog, err = logging.SetupRunLog(logDir, logging.RunLogOptions{
			Verbose: pa.verbose,
			JSON:    pa.logJSON,
		})
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		defer func() { _ = runLog.Close() }()
	}

	switch {
	case runLog != nil:
		logging.SetGlobal(runLog.Logger)
	case pa.verbose:
		logging.Init(logging.LevelDebug, cmd.ErrOrStderr())
	default:
		logging.SetGlobal(logging.Discard())
	}
	logger := logging.Global()

	// Create reporter
	var display reporter.Reporter
	if pa.json {
		display = reporter.NewJSONReporterWithWriter(cmd.OutOrStdout())
	} else {
		display = reporter.NewTerminalReporterWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr(), pa.verbose)
	}
	rep := reporter.NewCompositeReporter(display, reporter.NewLogReporter(logger))
	if runLog != nil {
		rep.Verbose("log file: " + runLog.FilePath())
	}

	synthOpts := synth.DefaultOptions()
	synthOpts.Latency = pa.latency
	synthOpts.Jitter = pa.jitter
	synthOpts.FailEvery = pa.failEvery
	synthOpts.FailFrames = pa.failFrames
	synthOpts.Seed = pa.seed
	renderer := synth.New(synthOpts)
	sink := &displaySink{}

	opts := []cadence.Option{
		cadence.WithFPS(pa.fps),
		cadence.WithBounds(bounds.First, bounds.Last),
		cadence.WithLoopMode(mode),
		cadence.WithFailureThreshold(pa.threshold),
		cadence.WithView(pa.view),
		cadence.WithRenderScale(pa.scale),
		cadence.WithReporter(rep),
		cadence.WithLogger(logger.Logger),
	}
	if pa.workers > 0 {
		opts = append(opts, cadence.WithWorkers(pa.workers))
	}

	engine, err := cadence.New(renderer, sink, opts...)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	info := util.GetSystemInfo()
	st := engine.Status()
	logging.Info("session configured",
		"range", bounds, "fps", pa.fps, "loop", mode, "direction", dir,
		"workers", st.Workers, "lookahead", st.Lookahead, "cores", info.NumCPU, "sink", engine.SinkID())

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stopEngine := context.WithCancel(gctx)
	defer stopEngine()

	started := time.Now()
	g.Go(func() error {
		return engine.Run(runCtx)
	})
	g.Go(func() error {
		defer stopEngine()
		return drive(gctx, engine, pa, dir, rep, started)
	})

	err = g.Wait()
	if err == nil && ctx.Err() != nil {
		err = errors.NewCancelledError(ctx.Err())
	}

	stats := renderer.Stats()
	logging.Info("session finished",
		"delivered", sink.delivered.Load(), "failed", sink.failed.Load(),
		"pixels", sink.pixels.Load(), "last_frame", sink.last.Load(),
		"rendered", stats.Rendered, "aborted", stats.Aborted,
		"elapsed", time.Since(started))
	return err
}

// drive starts playback and applies the scripted transport commands until
// the session ends.
func drive(ctx context.Context, e *cadence.Engine, pa playArgs, dir cadence.Direction, rep reporter.Reporter, started time.Time) error {
	if err := e.Play(dir); err != nil {
		return err
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if pa.duration > 0 {
		t := time.NewTimer(pa.duration)
		defer t.Stop()
		deadline = t.C
	}

	var resume <-chan time.Time
	seekPending := pa.seekAt > 0
	pausePending := pa.pauseAt > 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline:
			st := e.Status()
			rep.PlaybackComplete(reporter.PlaybackSummary{
				Delivered: st.Delivered,
				Failed:    st.Failed,
				LastTime:  st.CurrentTime,
				Elapsed:   time.Since(started),
				ActualFPS: st.ActualFPS,
			})
			return nil
		case <-resume:
			resume = nil
			if err := e.Play(dir); err != nil {
				return err
			}
			continue
		case <-ticker.C:
		}

		st := e.Status()

		if seekPending && st.Delivered >= pa.seekAt {
			seekPending = false
			policy := cadence.SeekPause
			if pa.seekResume {
				policy = cadence.SeekResume
			}
			if err := e.Seek(pa.seekTo, policy); err != nil {
				return err
			}
			if !pa.seekResume {
				if err := e.Play(dir); err != nil {
					return err
				}
			}
			continue
		}

		if pausePending && st.Delivered >= pa.pauseAt {
			pausePending = false
			if err := e.Pause(); err != nil {
				return err
			}
			resume = time.After(pa.pauseFor)
			continue
		}

		// Play mints the first epoch, so a stopped engine with a non-zero
		// epoch has finished its pass or hit the failure threshold.
		if st.Epoch > 0 && st.State == cadence.Stopped && resume == nil {
			return st.Err
		}
	}
}

func resolveLogDir(dir string) string {
	if dir != "" {
		return dir
	}
	if cache, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cache, appName, "logs")
	}
	return filepath.Join(os.TempDir(), appName, "logs")
}
