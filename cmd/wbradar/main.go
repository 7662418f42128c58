package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/pricepulse/wbradar/internal/app"
	"github.com/pricepulse/wbradar/internal/config"
	"github.com/pricepulse/wbradar/pkg/logger"
)

// runEnv carries the wired application into subcommand Run methods.
type runEnv struct {
	ctx context.Context
	app *app.App
}

// ServeCmd runs the read-only API server.
type ServeCmd struct{}

func (c *ServeCmd) Run(env *runEnv) error {
	return env.app.RunServe(env.ctx)
}

// CrawlCmd runs one full catalog crawl.
type CrawlCmd struct{}

func (c *CrawlCmd) Run(env *runEnv) error {
	return env.app.RunCrawl(env.ctx)
}

// LoadCategoriesCmd refreshes the category tree from the marketplace menu.
type LoadCategoriesCmd struct{}

func (c *LoadCategoriesCmd) Run(env *runEnv) error {
	return env.app.RunLoadCategories(env.ctx)
}

var cli struct {
	Serve          ServeCmd          `cmd:"" help:"Serve the read-only catalog API."`
	Crawl          CrawlCmd          `cmd:"" help:"Run one full catalog crawl."`
	LoadCategories LoadCategoriesCmd `cmd:"" name:"load-categories" help:"Refresh the category tree from the marketplace menu."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("wbradar"),
		kong.Description("Marketplace catalog crawler and price history service."),
		kong.UsageOnError(),
	)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger.
	log := logger.New("wbradar", cfg.LogLevel)
	log.Info("starting wbradar",
		slog.String("environment", cfg.Environment),
		slog.String("command", kctx.Command()),
	)

	// Create a context that is cancelled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create the application with all dependencies wired.
	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer application.Close(context.Background())

	// Run the selected subcommand. This blocks until completion or shutdown.
	if err := kctx.Run(&runEnv{ctx: ctx, app: application}); err != nil {
		log.Error("command failed", slog.String("error", err.Error()))
		application.Close(context.Background())
		os.Exit(1)
	}

	log.Info("wbradar stopped")
}
