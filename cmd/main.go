// Command motion runs a scripted demo session through the full engine
// pipeline and prints the session summary. It doubles as a smoke test for
// threshold tuning: point MOTION_CONFIG at a config file, run, and compare
// summaries.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/physioflow/motion/internal/app"
	"github.com/physioflow/motion/internal/config"
	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/internal/synth"
	"github.com/physioflow/motion/pkg/logger"
	"github.com/physioflow/motion/pkg/metrics"
)

const (
	demoSampleHz      = 100
	demoSeconds       = 11.0
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level, falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if cfg.MetricsAddr != "" {
		startMetricsListener(ctx, log, cfg.MetricsAddr)
	}

	archetype := model.ArchetypePendulum
	if len(os.Args) > 1 {
		archetype = model.Archetype(os.Args[1])
	}
	if !archetype.Valid() {
		os.Stderr.WriteString("unknown archetype: " + string(archetype) + "\n")
		return
	}

	summary, err := runDemoSession(ctx, cfg, log, archetype)
	if err != nil {
		log.Error(ctx, "demo session failed", logger.Error(err))
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(summary)
}

// runDemoSession scripts one exercise of the given archetype and feeds it
// through the engine.
func runDemoSession(ctx context.Context, cfg *config.Config, log logger.Logger, archetype model.Archetype) (model.SessionSummary, error) {
	sess := app.New(cfg,
		app.WithLogger(log),
		app.WithCallbacks(app.Callbacks{
			OnRepetition: func(ev model.RepetitionEvent) {
				log.Info(ctx, "repetition",
					logger.Int("index", ev.Index),
					logger.Float64("rom_deg", ev.ROMDegrees),
					logger.String("strategy", ev.Strategy),
				)
			},
			OnAdvisoryReversal: func(ts time.Time) {
				log.Debug(ctx, "advisory reversal", logger.Any("ts", ts))
			},
		}),
	)
	if err := sess.Start(ctx, archetype); err != nil {
		return model.SessionSummary{}, err
	}

	start := time.Now()
	length := cfg.Calibration.DefaultSegmentLengthM

	var positions []model.PositionSample
	switch archetype {
	case model.ArchetypeCircular:
		positions = synth.Circle(start, model.Vec3{X: 0.1, Y: -0.6}, 0.2, 2.0, demoSeconds, demoSampleHz)
	case model.ArchetypeLinear:
		positions = synth.Slide(start, 0.5, demoSeconds, demoSampleHz)
	default:
		positions = synth.Pendulum(start, length, 0.5, 0.5, demoSeconds, demoSampleHz)
	}
	imu := synth.SwingGyro(start, 2.2, 0.5, demoSeconds, demoSampleHz)

	for i := range positions {
		sess.OfferPosition(ctx, positions[i])
		sess.OfferIMU(ctx, imu[i])
	}

	endCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return sess.EndSession(endCtx)
}

// startMetricsListener exposes /metrics for scrape-based monitoring.
func startMetricsListener(ctx context.Context, log logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Info(ctx, "metrics listener started", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "metrics listener failed", logger.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()
}
