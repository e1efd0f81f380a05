package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"google.golang.org/grpc"

	"ngohub.org/internal/auth"
	"ngohub.org/internal/config"
	"ngohub.org/internal/httpapi"
	"ngohub.org/internal/obs"
	"ngohub.org/internal/store"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	configPath := flag.StringP("config", "c", os.Getenv("NGOHUB_CONFIG"), "path to YAML config file")
	flag.Parse()

	log := obs.Logger()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if err := obs.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.WithError(err).Fatal("configure logging")
	}
	obs.Init()
	obs.SetBuildInfo(version, commit)

	tokens, err := cfg.Tokens()
	if err != nil {
		log.WithError(err).Fatal("token issuer")
	}

	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}
	defer db.Close()

	ready := httpapi.ReadyProbe{Store: db}
	svc := auth.NewService(tokens, db)
	api := httpapi.New(svc, db, ready, version)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var grpcServer *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.WithError(err).Fatal("grpc listen")
		}
		grpcServer = grpc.NewServer()
		health := httpapi.NewHealthServer(ready)
		health.Register(grpcServer)
		go health.Run(ctx, 5*time.Second)
		go func() {
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				log.WithError(err).Error("grpc serve")
			}
		}()
		log.WithField("addr", cfg.GRPCAddr).Info("grpc health listening")
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()
	log.WithFields(map[string]any{
		"version": version,
		"addr":    cfg.HTTPAddr,
		"driver":  db.Dialect(),
	}).Info("ngohub-api started")

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	log.Info("stopped")
}
