package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"transitboard/internal/config"
	"transitboard/internal/conn"
	"transitboard/internal/device"
	"transitboard/internal/display"
	"transitboard/internal/feed"
	"transitboard/internal/render"
	"transitboard/internal/schedule"
	"transitboard/internal/server"
	"transitboard/internal/transport"
)

// Exit code used when the connection manager escalates to a restart; the
// supervisor (systemd or similar) restarts the process.
const restartExitCode = 3

const renderTickInterval = 250 * time.Millisecond

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("TRANSITBOARD_LOG_LEVEL")),
	}))

	configPath := flag.String("config", defaultConfigPath(), "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath, logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("transitboard starting",
		"base_url", cfg.BaseURL,
		"schedule", cfg.Schedule,
		"limit", cfg.Limit,
		"list_mode", cfg.ListMode,
		"display_departure_times", cfg.DisplayDepartureTimes,
		"unit_display", cfg.UnitDisplay.String(),
		"stops", len(cfg.Stops),
	)

	// Context with cancellation for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loop := device.NewLoop(logger)
	status := device.NewStatus()
	clock := device.SystemClock{}
	store := schedule.NewStore()
	decoder := feed.NewDecoder(cfg, logger)
	surface := display.NewFramebuffer(cfg.Display.Width, cfg.Display.Height)

	// Transport callbacks are dispatched onto the device loop so the
	// manager never runs on the read goroutine.
	sess := transport.NewWebSocket(logger, loop.Defer)

	mgr := conn.NewManager(conn.Config{
		Session:   sess,
		Scheduler: loop,
		Status:    status,
		Store:     store,
		Decoder:   decoder,
		Clock:     clock,
		Subscription: feed.Subscription{
			FeedCode:        cfg.FeedCode,
			RouteStopPairs:  cfg.Schedule,
			Limit:           cfg.Limit,
			SortByDeparture: cfg.DisplayDepartureTimes,
			ListMode:        cfg.ListMode,
		},
		BaseURL: cfg.BaseURL,
		Restart: func() {
			logger.Error("restart requested, exiting for supervisor restart")
			os.Exit(restartExitCode)
		},
		Logger: logger,
	})
	sess.OnMessage(mgr.HandleMessage)
	sess.OnEvent(mgr.HandleEvent)

	engine := render.NewEngine(render.Config{
		Surface:               surface,
		Store:                 store,
		Clock:                 clock,
		Status:                status,
		Conn:                  mgr,
		Stops:                 cfg.Stops,
		BaseURL:               cfg.BaseURL,
		DisplayLimit:          cfg.DisplayLimit,
		DisplayDepartureTimes: cfg.DisplayDepartureTimes,
		Unit:                  cfg.UnitDisplay,
		Logger:                logger,
	})

	srv := server.New(cfg.Server.Addr, store, mgr, logger)

	mgr.Start()
	loop.RunPeriodic("page_tick", renderTickInterval, engine.Tick)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(ctx) })
	g.Go(func() error { return srv.ListenAndServe(ctx) })

	if err := g.Wait(); err != nil {
		logger.Error("run error", "error", err)
		os.Exit(1)
	}

	mgr.Shutdown()
	logger.Info("shut down")
}

// defaultConfigPath resolves the config file location; the -config flag
// still overrides it.
func defaultConfigPath() string {
	if v := os.Getenv("TRANSITBOARD_CONFIG"); v != "" {
		return v
	}
	return "config.yml"
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
