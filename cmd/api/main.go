package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/flipover/flipover_auth/internal/config"
	"github.com/flipover/flipover_auth/internal/identity"
	"github.com/flipover/flipover_auth/internal/infra"
	"github.com/flipover/flipover_auth/internal/logging"
	"github.com/flipover/flipover_auth/internal/notification"
	"github.com/flipover/flipover_auth/internal/oauth"
	"github.com/flipover/flipover_auth/internal/routes"
	"github.com/flipover/flipover_auth/internal/server"
	"github.com/flipover/flipover_auth/internal/sms"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	db, err := infra.NewMongoClient(ctx, cfg.MongoURI)
	if err != nil {
		logger.Error("connect mongo", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Disconnect(ctx); err != nil {
			logger.Warn("disconnect mongo", "error", err)
		}
	}()

	users := identity.NewMongoRepository(db.Database(cfg.MongoDatabase))
	if err := users.EnsureIndexes(ctx); err != nil {
		logger.Error("ensure indexes", "error", err)
		os.Exit(1)
	}

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}()

	var mail notification.Sender
	if cfg.SMTPHost != "" {
		mail = notification.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	} else {
		logger.Warn("SMTP not configured, mail goes to the log")
		mail = notification.NewLoggerSender(logger)
	}

	srv, err := server.New(routes.Deps{
		Cfg:    cfg,
		DB:     db,
		Cache:  cache,
		Logger: logger,
		OTP:    sms.NewTwilioVerifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioVerifySID),
		Google: oauth.NewGoogleVerifier(cfg.GoogleClientID),
		Mail:   mail,
	})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
