package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-yamdb/internal/account"
	"go-yamdb/internal/api"
	"go-yamdb/internal/catalog"
	"go-yamdb/internal/config"
	"go-yamdb/internal/db"
	"go-yamdb/internal/logging"
	"go-yamdb/internal/mail"
	redisdb "go-yamdb/internal/redis"
	"go-yamdb/internal/review"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	path := os.Getenv("YAMDB_CONFIG")
	if path == "" {
		path = "config.json"
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, logging.ParseLevel(cfg.Server.LogLevel))
	ctx := context.Background()

	if err := db.Init(cfg); err != nil {
		log.Error(ctx, "database init failed", "error", err)
		os.Exit(1)
	}

	var cooldown account.Cooldown
	if rdb := redisdb.NewClient(cfg); rdb != nil {
		if err := redisdb.Ping(ctx, rdb); err != nil {
			log.Warn(ctx, "redis unreachable; resend cooldown disabled until it recovers", "addr", cfg.Redis.Addr, "error", err)
		}
		defer rdb.Close()
		cooldown = account.NewRedisCooldown(rdb)
	} else {
		log.Info(ctx, "redis not configured; resend cooldown disabled")
	}

	var sender mail.Sender
	switch cfg.Mail.Backend {
	case "smtp":
		smtpSender := &mail.SMTPSender{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			Timeout:  15 * time.Second,
		}
		sender = mail.NewBreaker(smtpSender, 3, 30*time.Second, log.With("component", "mail"))
	default:
		log.Warn(ctx, "mail backend is log; messages are not delivered and bodies appear only at debug level")
		sender = mail.NewLogSender(log.With("component", "mail"))
	}
	sender = mail.NewJournal(sender, db.DB, log.With("component", "mail"))

	deps := &api.Deps{
		DB:       db.DB,
		Accounts: account.NewService(db.DB, sender, cooldown, log.With("component", "account"), account.OptionsFromConfig(cfg)),
		Catalog:  catalog.NewService(db.DB, log.With("component", "catalog")),
		Reviews:  review.NewService(db.DB, log.With("component", "review")),
		Log:      log,
	}

	gin.SetMode(gin.ReleaseMode)
	r := api.SetupRouter(cfg, deps)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info(ctx, "starting server", "addr", addr, "subpath", cfg.Server.Subpath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "shutdown failed", "error", err)
	}
	log.Info(ctx, "server stopped")
}
