package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"

	"github.com/ellavondegurechaff/gavel/gavelbot"
	"github.com/ellavondegurechaff/gavel/gavelbot/auction"
	"github.com/ellavondegurechaff/gavel/gavelbot/commands"
	"github.com/ellavondegurechaff/gavel/gavelbot/database"
	"github.com/ellavondegurechaff/gavel/gavelbot/database/repositories"
	"github.com/ellavondegurechaff/gavel/gavelbot/handlers"
	"github.com/ellavondegurechaff/gavel/gavelbot/logger"
	"github.com/ellavondegurechaff/gavel/gavelbot/services"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(slog.LevelInfo)))

	path := flag.String("config", "config.toml", "path to config")
	makeConfig := flag.Bool("make-config", false, "write the default config and exit")
	checkConfig := flag.Bool("check-config", false, "validate the config and exit")
	flag.Parse()

	if *makeConfig {
		if err := gavelbot.WriteDefaultConfig(*path, false); err != nil {
			slog.Error("Failed to write default config", slog.Any("error", err))
			os.Exit(-1)
		}
		slog.Info("Default config written", slog.String("path", *path))
		return
	}

	cfg, err := gavelbot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	var logHandler slog.Handler = logger.NewHandler(cfg.Log.Level)
	if cfg.Log.Format == "json" {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     cfg.Log.Level,
			AddSource: cfg.Log.AddSource,
		})
	}
	slog.SetDefault(slog.New(logHandler))

	if *checkConfig {
		slog.Info("Configuration is valid",
			slog.String("path", *path),
			slog.Int("channels", len(cfg.Bot.Channels)))
		return
	}

	slog.Info("Starting Gavel auction bot",
		slog.String("version", version),
		slog.String("commit", commit))

	if len(cfg.Bot.Channels) == 0 {
		slog.Error("No channels configured, nothing to do")
		os.Exit(-1)
	}

	b := gavelbot.New(*cfg, version, commit)

	if cfg.DB.Enabled() {
		slog.Info("Initializing database connection...")
		dbStartTime := time.Now()

		dbCtx, dbCancel := context.WithTimeout(context.Background(), time.Minute)

		db, err := database.New(dbCtx, database.DBConfig{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			Database: cfg.DB.Database,
			PoolSize: cfg.DB.PoolSize,
		})
		if err != nil {
			dbCancel()
			slog.Error("Database connection failed",
				slog.Any("error", err),
				slog.Duration("attempted_for", time.Since(dbStartTime)))
			os.Exit(-1)
		}

		if err := db.InitializeSchema(dbCtx); err != nil {
			dbCancel()
			slog.Error("Failed to initialize database schema", slog.Any("error", err))
			os.Exit(-1)
		}
		dbCancel()
		defer db.Close()

		b.DB = db
		b.AuctionRepository = repositories.NewAuctionRepository(db.BunDB())
		slog.Info("Database connected",
			slog.String("database", cfg.DB.Database),
			slog.Duration("took", time.Since(dbStartTime)))
	} else {
		slog.Info("No database configured, auction records will not be kept")
	}

	if cfg.Spaces.Enabled() {
		archive, err := services.NewArchiveService(
			cfg.Spaces.Key,
			cfg.Spaces.Secret,
			cfg.Spaces.Region,
			cfg.Spaces.Bucket,
			cfg.Spaces.Root,
		)
		if err != nil {
			slog.Error("Failed to initialize archive storage", slog.Any("error", err))
			os.Exit(-1)
		}
		b.Archive = archive
		slog.Info("Archive storage ready", slog.String("bucket", cfg.Spaces.Bucket))
	}

	sender := gavelbot.NewChannelSender(b)
	conn := gavelbot.NewGatewayConnection(b)
	keeper := &gavelbot.RecordKeeper{Repo: b.AuctionRepository, Archive: b.Archive}

	b.AuctionManager = auction.NewManager(cfg.Bot.Channels, sender, conn, keeper)

	router := commands.NewRouter(b)

	if err = b.SetupBot(
		handlers.MessageHandler(b, router, sender),
		bot.NewListenerFunc(b.OnReady),
	); err != nil {
		slog.Error("Failed to setup bot", slog.Any("error", err))
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = b.Client.OpenGateway(ctx); err != nil {
		slog.Error("Failed to open gateway", slog.Any("error", err))
		os.Exit(-1)
	}

	// Announcers run until shutdown; a hard send failure surfaces here too.
	runCtx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.AuctionManager.Run(runCtx)
	}()

	slog.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-s:
		slog.Info("Shutting down bot...")
		stop()
		<-done
	case err := <-done:
		stop()
		if err != nil {
			slog.Error("Auction manager exited", slog.Any("error", err))
			os.Exit(-1)
		}
	}
}
