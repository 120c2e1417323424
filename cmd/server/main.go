package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/sneaker_shop/internal/bootstrap"
	"github.com/Skotchmaster/sneaker_shop/internal/config"
	"github.com/Skotchmaster/sneaker_shop/internal/db"
	"github.com/Skotchmaster/sneaker_shop/internal/events"
	"github.com/Skotchmaster/sneaker_shop/internal/httpserver"
	"github.com/Skotchmaster/sneaker_shop/internal/logging"
	"github.com/Skotchmaster/sneaker_shop/internal/middleware/csrf"
	"github.com/Skotchmaster/sneaker_shop/internal/repo"
	"github.com/Skotchmaster/sneaker_shop/internal/search"
	"github.com/Skotchmaster/sneaker_shop/internal/service"
	"github.com/Skotchmaster/sneaker_shop/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	gdb, err := db.Open(startCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_connect", "status", "fail", "error", err)
		os.Exit(1)
	}

	publisher := newPublisher(startCtx, cfg, logger)
	r := repo.New(gdb)

	var (
		searcher search.Searcher = search.DBSearcher{Repo: r}
		indexer  search.Indexer
	)
	if cfg.ESURL != "" {
		client, err := search.NewClient(startCtx, search.ClientConfig{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
		}, logger)
		if err != nil {
			logger.Warn("es_connect", "status", "fail", "reason", "falling back to database search", "error", err)
		} else {
			es := &search.ESSearcher{Client: client, Index: cfg.ESIndex}
			searcher, indexer = es, es
		}
	}

	if _, err := bootstrap.Run(startCtx, gdb, indexer, logger); err != nil {
		logger.Error("bootstrap", "status", "fail", "error", err)
		os.Exit(1)
	}

	authSvc := &service.AuthService{Repo: r, Events: publisher}
	shopSvc := &service.ShopService{Repo: r, Events: publisher, Searcher: searcher}

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.SessionSecure
	csrfCfg.SameSite = cfg.SessionSameSite

	e, err := httpserver.New(&httpserver.Deps{
		Logger:        logger,
		AuthHandler:   &httpserver.AuthHTTP{Svc: authSvc},
		ShopHandler:   &httpserver.ShopHTTP{Svc: shopSvc},
		HealthHandler: &httpserver.HealthHTTP{DB: gdb},
		Sessions: session.NewManager(session.Options{
			Secret:   cfg.SessionSecret,
			TTL:      cfg.SessionTTL,
			SameSite: cfg.SessionSameSite,
			Secure:   cfg.SessionSecure,
		}),
		Users:         authSvc,
		CSRF:          csrfCfg,
		StaticDir:     cfg.StaticDir,
		AuthRateLimit: cfg.AuthRateLimit,
	})
	if err != nil {
		logger.Error("http_init", "status", "fail", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_serve", "status", "fail", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force exit")
		os.Exit(1)
	}()

	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka_disabled", "reason", "KAFKA_BROKERS not set")
		return events.NopPublisher{}
	}
	if err := events.EnsureTopics(ctx, cfg.KafkaBrokers[0], events.TopicUsers, events.TopicCart); err != nil {
		logger.Warn("kafka_topics", "status", "fail", "error", err)
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers)
}
