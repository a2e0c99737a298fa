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

	intconfig "transportdesk/internal/config"
	router "transportdesk/internal/http"
	"transportdesk/internal/http/handlers"
	"transportdesk/internal/repositories"
	"transportdesk/internal/services"
	"transportdesk/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	env, err := intconfig.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	log, err := utils.NewLogger(env.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	for _, w := range env.Warnings {
		log.Warn(w)
	}

	store, err := openStore(env, log)
	if err != nil {
		log.Fatal("failed to open record store", zap.Error(err))
	}
	defer intconfig.CloseDB()

	requests := services.RequestService{
		Store:    store,
		Log:      log,
		Location: env.Location,
		Now:      time.Now,
		NewToken: uuid.NewString,
	}
	gate := services.NewAccessGate(
		services.NewStaticCredentialStore(env.DispatcherUsername, env.DispatcherPassHash),
		env.JWTSecret,
		env.SessionTTL,
		log,
	)

	r := router.NewRouter(router.RouterConfig{CORSAllowedOrigins: env.CORSAllowedOrigins, Log: log}, handlers.New(requests, gate, log))

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", env.AppAddr), zap.String("store", env.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
		return
	}

	log.Info("server stopped")
}

// openStore picks the record store for DB_DRIVER and makes sure the SQL schema exists.
func openStore(env intconfig.Env, log *zap.Logger) (repositories.TransportRequestStore, error) {
	if env.DBDriver == "memory" {
		log.Warn("using in-memory record store, requests are lost on restart")
		return repositories.NewMemoryStore(), nil
	}

	db, err := intconfig.ConnectDB(env)
	if err != nil {
		return nil, err
	}

	dialect := repositories.DialectMySQL
	if env.DBDriver == "postgres" {
		dialect = repositories.DialectPostgres
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created, err := repositories.EnsureSchema(ctx, db, dialect)
	if err != nil {
		return nil, err
	}
	if created {
		log.Info("created transport_requests table", zap.String("dialect", string(dialect)))
	}
	return repositories.NewTransportRequestRepository(db, dialect), nil
}
