package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/katachat/insight-api/internal/analyze"
	"github.com/katachat/insight-api/internal/api"
	"github.com/katachat/insight-api/internal/audit"
	"github.com/katachat/insight-api/internal/config"
	"github.com/katachat/insight-api/internal/llm"
	"github.com/katachat/insight-api/internal/mail"
)

func main() {
	gin.SetMode(getEnv("GIN_MODE", "release"))

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config error", zap.Error(err))
	}

	ctx := context.Background()

	var (
		store audit.Store
		db    api.HealthChecker
	)
	if cfg.EnableDB {
		pg, err := audit.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		defer pg.Close()
		store, db = pg, pg
	}

	var mailer mail.Sender
	if cfg.MailEnabled() {
		mailer = mail.NewSMTP(mail.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			To:       cfg.MailTo,
		})
	}

	svc := &analyze.Service{
		Gen: llm.NewOpenAI(llm.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		}, log),
		Mailer:                  mailer,
		Audit:                   store,
		Log:                     log,
		BlankLineClosesCategory: cfg.BlankLineClosesCategory,
	}

	srv := &api.Server{Svc: svc, Audit: store, DB: db, Log: log}
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second, // generator calls are slow
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	log.Info("server listening", zap.String("port", cfg.Port),
		zap.Bool("db", cfg.EnableDB), zap.Bool("mail", cfg.MailEnabled()))
	waitForShutdown(server, log)
}

func waitForShutdown(server *http.Server, log *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
