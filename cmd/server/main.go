package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"notes-service/internal/auth"
	"notes-service/internal/broker"
	"notes-service/internal/command"
	"notes-service/internal/config"
	apphttp "notes-service/internal/http"
	"notes-service/internal/repository/sqlite"
	"notes-service/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, keeping %s", cfg.Log.Level, logger.GetLevel())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	actor := store.NewActor(sqlite.NewUserRepository(db), sqlite.NewNoteRepository(db), logger)
	if err := actor.Init(ctx); err != nil {
		logger.Fatalf("init store: %v", err)
	}

	bus := broker.New(broker.Config{
		Workers: cfg.Broker.Workers,
		Logger:  logger,
	})
	actor.Register(bus)
	if err := bus.Require(command.Kinds()...); err != nil {
		logger.Fatalf("broker routing: %v", err)
	}

	tokens := auth.NewIssuer(
		cfg.Auth.JWTSecret,
		cfg.Auth.Issuer,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
	)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(bus, tokens, hasher, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	bus.Shutdown()

	logger.Info("bye")
}
