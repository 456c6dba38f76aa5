package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/dinein/gateway"
	"github.com/example/dinein/pkg/config"
	"github.com/example/dinein/pkg/discovery"
	"github.com/example/dinein/pkg/health"
	"github.com/example/dinein/pkg/repository"
	"github.com/example/dinein/pkg/store"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := cfg.Log.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting dine-in API",
		zap.String("name", cfg.Server.Name),
		zap.Int("grpc_port", cfg.Server.Port),
		zap.Int("http_port", cfg.Gateway.Port))

	checker := health.NewChecker(logger)

	db, err := repository.NewMySQLStore(&cfg.MySQL, repository.NewLogMailer(logger), logger)
	if err != nil {
		logger.Fatal("Failed to open record store", zap.Error(err))
	}
	defer db.Close()
	checker.Add("mysql", db)

	var records store.RecordStore = db

	redis := repository.NewRedisRepository(&cfg.Redis)
	defer redis.Close()
	checker.Add("redis", redis)
	cached := repository.NewCachedStore(records, redis, cfg.Dine.MenuCacheTTL, logger)
	if err := cached.InvalidateMenu(context.Background()); err != nil {
		logger.Warn("Failed to drop cached menu", zap.Error(err))
	}
	records = cached

	var audit gateway.AuditReader
	mongo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Warn("MongoDB unavailable, continuing without audit log", zap.Error(err))
	} else {
		defer mongo.Close(context.Background())
		checker.Add("mongodb", mongo)
		audited := repository.NewAuditedStore(records, mongo, cfg.Server.Name, logger)
		defer audited.Wait()
		records = audited
		audit = mongo
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go checker.Run(ctx, 15*time.Second)

	// gRPC listener carries the health service only.
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	if err != nil {
		logger.Fatal("Failed to listen", zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	checker.Register(grpcServer)

	gw := gateway.NewGateway(cfg, logger, records, gateway.Options{Audit: audit, Health: checker})

	serverErr := make(chan error, 2)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			serverErr <- fmt.Errorf("grpc: %w", err)
		}
	}()
	go func() {
		if err := gw.Start(); err != nil {
			serverErr <- fmt.Errorf("http: %w", err)
		}
	}()

	instance := &discovery.ServiceInstance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, logger)
	if err != nil {
		logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
	} else {
		defer sd.Close()
		if err := sd.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register service", zap.Error(err))
		} else {
			logger.Info("Service registered in etcd", zap.String("address", instance.Addr()))
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Error("Server error", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
	}
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	cancel()

	logger.Info("Service stopped")
}
