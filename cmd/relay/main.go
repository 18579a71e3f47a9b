package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	cli "github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/qepting91/reddit-image-relay/internal/collector"
	"github.com/qepting91/reddit-image-relay/internal/config"
	"github.com/qepting91/reddit-image-relay/internal/dashboard"
	"github.com/qepting91/reddit-image-relay/internal/domain"
	"github.com/qepting91/reddit-image-relay/internal/ingest"
	"github.com/qepting91/reddit-image-relay/internal/pipeline"
	"github.com/qepting91/reddit-image-relay/internal/publisher"
	"github.com/qepting91/reddit-image-relay/internal/scheduler"
	"github.com/qepting91/reddit-image-relay/internal/storage"
	"github.com/qepting91/reddit-image-relay/internal/trigger"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:  "relay",
		Usage: "republish today's popular subreddit images to a Telegram channel",
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to YAML config file (optional)",
			Value:   "config.yaml",
			EnvVars: []string{"RELAY_CONFIG"},
		},
	}

	app.Commands = []*cli.Command{
		serveCmd,
		runOnceCmd,
	}
	app.DefaultCommand = serveCmd.Name

	return app.Run(args)
}

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "listen for the Telegram command and the optional schedule",
	Action: func(cctx *cli.Context) error {
		app, err := setup(cctx.String("config"))
		if err != nil {
			return err
		}
		defer app.close()

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		var sched *scheduler.Scheduler
		if app.cfg.Pipeline.Schedule != "" {
			sched, err = scheduler.NewScheduler(app.pipeline, app.cfg.Pipeline.Schedule, app.logger)
			if err != nil {
				return err
			}
		}

		g, ctx := errgroup.WithContext(ctx)

		listener := trigger.NewListener(app.bot, app.pipeline, app.cfg.Telegram.Command, app.logger)
		g.Go(func() error { return listener.Listen(ctx) })

		if sched != nil {
			g.Go(func() error { return sched.Start(ctx) })
		}

		if addr := app.cfg.Dashboard.Listen; addr != "" {
			// The dashboard is optional: a failure is logged and the bot keeps running.
			g.Go(func() error {
				app.logger.Info("starting dashboard", "listen", addr)
				if err := dashboard.Serve(ctx, addr, dashboard.NewHandler(app.pipeline, app.store)); err != nil {
					app.logger.Error("dashboard failed", "err", err)
				}
				return nil
			})
		}

		app.logger.Info("bot started successfully", "communities", len(app.targets), "channel", app.cfg.Telegram.ChannelID)

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		app.logger.Info("shutdown complete")
		return nil
	},
}

var runOnceCmd = &cli.Command{
	Name:  "run",
	Usage: "execute a single pipeline run and exit",
	Action: func(cctx *cli.Context) error {
		app, err := setup(cctx.String("config"))
		if err != nil {
			return err
		}
		defer app.close()

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		stats, err := app.pipeline.Run(ctx)
		if err != nil {
			return err
		}
		app.logger.Info("run finished", "published", stats.Published(), "duration", stats.Duration)
		return nil
	},
}

type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	bot      *tgbotapi.BotAPI
	store    *storage.DedupeStore
	pipeline *pipeline.Service
	targets  []domain.Target
	closers  []io.Closer
}

func (a *application) close() {
	for _, c := range a.closers {
		c.Close()
	}
}

func setup(configPath string) (*application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, logFile, err := setupLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	app := &application{cfg: cfg, logger: logger}
	if logFile != nil {
		app.closers = append(app.closers, logFile)
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		app.close()
		return nil, err
	}

	app.bot, err = tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error("error starting the bot", "error", err)
		app.close()
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	// A broken Reddit client is not fatal: every fetch then returns nothing.
	redditClient, err := collector.NewCollector(cfg.Reddit)
	if err != nil {
		logger.Error("failed to initialize reddit client", "mode", cfg.Reddit.Mode, "error", err)
		redditClient = nil
	} else {
		logger.Info("connected to reddit api", "mode", cfg.Reddit.Mode)
	}

	app.targets = ingest.FromNames(cfg.Pipeline.Communities)
	if path := cfg.Pipeline.CommunitiesFile; path != "" {
		targets, err := ingest.LoadTargets(path)
		switch {
		case err != nil:
			logger.Error("failed to load communities file, using configured list", "path", path, "error", err)
		case len(targets) == 0:
			logger.Warn("communities file has no valid rows, using configured list", "path", path)
		default:
			app.targets = targets
		}
	}

	app.store = storage.NewDedupeStore(cfg.Pipeline.StateFile, logger)
	pub := publisher.New(publisher.Config{
		Timeout:   cfg.Pipeline.HTTPTimeout,
		UserAgent: cfg.Reddit.UserAgent,
	}, publisher.NewTelegramSender(app.bot, cfg.Telegram.ChannelID), app.store, logger)

	app.pipeline = pipeline.NewService(
		collector.NewFetcher(redditClient, logger),
		app.store,
		pub,
		pipeline.Config{
			Targets:   app.targets,
			Threshold: cfg.Pipeline.UpvoteThreshold,
			Limit:     cfg.Pipeline.FetchLimit,
		},
		logger,
	)

	return app, nil
}

// setupLogger writes JSON lines to stdout and, unless path is "-", to path.
func setupLogger(level, path string) (*slog.Logger, *os.File, error) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	var f *os.File
	if path != "" && path != "-" {
		var err error
		f, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	return slog.New(slog.NewJSONHandler(out, opts)), f, nil
}
