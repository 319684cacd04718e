package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/tau/internal/engine"
	"github.com/roach88/tau/internal/feed"
	"github.com/roach88/tau/internal/pipeline"
	"github.com/roach88/tau/internal/trace"
)

// LiveOptions holds flags for the live command.
type LiveOptions struct {
	*RootOptions
	Feed        string
	MetricsAddr string
	Failure     string
	Duration    time.Duration
	ShowTrace   bool
}

// LiveSummary is the output of the live command.
type LiveSummary struct {
	Pipeline string         `json:"pipeline"`
	Events   int            `json:"events"`
	Digest   string         `json:"digest"`
	Records  []trace.Record `json:"records,omitempty"`
}

// String renders the text summary.
func (s LiveSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pipeline %s: %d live event(s)\n", s.Pipeline, s.Events)
	writeRecordsText(&b, s.Records)
	fmt.Fprintf(&b, "Digest: %s", s.Digest)
	return b.String()
}

// NewLiveCommand creates the live command.
func NewLiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "live <pipeline.cue>",
		Short: "Run a pipeline on the wall clock",
		Long: `Run a pipeline on the real-time scheduler.

Series sources are fed from a WebSocket feed that sends JSON messages such
as {"series": "prices", "value": 101.5}. The run ends when the feed closes,
--duration elapses, or the process is interrupted. Scheduler and feed
metrics are served in Prometheus format with --metrics-addr.

Example:
  tau live ./pipelines/vwap.cue --feed ws://localhost:8080/ticks
  tau live ./pipelines/clock.cue --duration 10s --metrics-addr :9090`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Feed, "feed", "", "WebSocket feed URL (ws:// or wss://)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&opts.Failure, "on-failure", engine.FailContinue.String(), "task failure policy (continue|halt)")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 0, "stop after this long (0 = until the feed closes or interrupt)")
	cmd.Flags().BoolVar(&opts.ShowTrace, "trace", false, "print every recorded output")

	return cmd
}

func runLive(opts *LiveOptions, path string, cmd *cobra.Command) error {
	policy, ok := engine.ParseFailurePolicy(opts.Failure)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --on-failure %q: must be continue or halt", opts.Failure))
	}
	if opts.Feed == "" && opts.Duration <= 0 {
		return NewExitError(ExitCommandError, "live needs --feed or --duration to know when to stop")
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	def, err := loadPipelineOrExit(path)
	if err != nil {
		return err
	}
	loc, err := def.TimeLocation()
	if err != nil {
		return WrapExitError(ExitFailure, "invalid location", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	rt := engine.NewRealtime(nil,
		engine.WithLogger(logger),
		engine.WithMetrics(engine.NewMetrics(reg)),
		engine.WithLocation(loc),
		engine.WithFailurePolicy(policy),
	)
	g, err := pipeline.Build(def, rt)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build pipeline", err)
	}
	if opts.Feed != "" && len(g.Inputs()) == 0 {
		logger.Warn("pipeline has no series sources; feed messages will be rejected", "pipeline", def.Name)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.Duration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, opts.Duration)
		defer cancelTimeout()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		// The worker finishing ends the run for everyone else.
		defer cancel()
		err := rt.Run(gctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})

	if opts.Feed != "" {
		client := feed.NewClient(opts.Feed, g,
			feed.WithLogger(logger),
			feed.WithMetrics(feed.NewMetrics(reg)),
		)
		grp.Go(func() error {
			err := client.Run(gctx)
			shuttingDown := gctx.Err() != nil
			// Updates already queued run before the worker stops.
			if subErr := rt.Submit(func() error { rt.Stop(); return nil }); subErr != nil {
				logger.Debug("scheduler already stopped", "error", subErr)
			}
			if shuttingDown {
				return nil
			}
			return err
		})
	}

	if opts.MetricsAddr != "" {
		if err := serveMetrics(gctx, grp, opts.MetricsAddr, reg, logger); err != nil {
			cancel()
			_ = grp.Wait()
			return WrapExitError(ExitCommandError, "failed to serve metrics", err)
		}
	}

	if err := grp.Wait(); err != nil {
		return WrapExitError(ExitFailure, "live run failed", err)
	}
	if err := g.Err(); err != nil {
		return WrapExitError(ExitFailure, "live run failed", err)
	}

	records := g.Records()
	digest, err := trace.Digest(records)
	if err != nil {
		return err
	}
	summary := LiveSummary{Pipeline: def.Name, Events: len(records), Digest: digest}
	if opts.ShowTrace {
		summary.Records = records
	}
	return formatter.Success(summary)
}

// serveMetrics listens on addr and serves reg at /metrics until ctx ends.
func serveMetrics(ctx context.Context, grp *errgroup.Group, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	logger.Info("serving metrics", "addr", ln.Addr().String())

	grp.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	grp.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return nil
}
