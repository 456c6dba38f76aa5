package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/dinein/pkg/config"
	"github.com/example/dinein/pkg/console"
	"github.com/example/dinein/pkg/discovery"
	"github.com/example/dinein/pkg/health"
	"github.com/example/dinein/pkg/repository"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	mode := flag.String("mode", "", "console to run: customer, kitchen, service or cashier")
	tableID := flag.String("table", "", "table id for the customer console")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *mode != "" {
		cfg.Console.Mode = *mode
	}
	if *tableID != "" {
		cfg.Console.TableID = *tableID
	}

	logger, err := cfg.Log.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting console", zap.String("mode", cfg.Console.Mode))

	api, err := waitForAPI(cfg, logger)
	switch {
	case err == nil:
		logger.Info("API instance healthy", zap.String("address", api.Addr()))
	case cfg.Console.RequireAPI:
		logger.Fatal("Refusing to start without a healthy API", zap.Error(err))
	default:
		logger.Warn("Starting without a healthy API", zap.Error(err))
	}

	db, err := repository.NewMySQLStore(&cfg.MySQL, repository.NewLogMailer(logger), logger)
	if err != nil {
		logger.Fatal("Failed to open record store", zap.Error(err))
	}
	defer db.Close()

	redis := repository.NewRedisRepository(&cfg.Redis)
	defer redis.Close()
	records := repository.NewCachedStore(db, redis, cfg.Dine.MenuCacheTTL, logger)

	sys, err := console.Start(console.Deps{Store: records, Dine: cfg.Dine, Logger: logger})
	if err != nil {
		logger.Fatal("Failed to start consoles", zap.Error(err))
	}
	defer sys.Shutdown()

	pid, refresh, err := target(sys, cfg.Console)
	if err != nil {
		logger.Fatal("Failed to start console", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poll(ctx, sys, pid, refresh, cfg.Console.RefreshInterval, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("Console stopped")
}

// target picks the console actor for mode and the message that refreshes it.
func target(sys *console.System, cfg config.ConsoleConfig) (*actor.PID, any, error) {
	switch cfg.Mode {
	case "kitchen":
		return sys.Kitchen, &console.RefreshItems{}, nil
	case "service":
		return sys.Service, &console.RefreshItems{}, nil
	case "cashier":
		return sys.Cashier, &console.RefreshItems{}, nil
	case "customer":
		if cfg.TableID == "" {
			return nil, nil, fmt.Errorf("customer console needs a table id")
		}
		pid, err := sys.SpawnCustomer(cfg.TableID)
		if err != nil {
			return nil, nil, err
		}
		return pid, &console.LoadCart{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown console mode %q", cfg.Mode)
	}
}

func poll(ctx context.Context, sys *console.System, pid *actor.PID, msg any, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		res, err := sys.Request(pid, msg)
		if err != nil {
			logger.Warn("Refresh failed", zap.Error(err))
		} else {
			report(res, logger)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func report(res any, logger *zap.Logger) {
	switch v := res.(type) {
	case *console.KitchenView:
		logger.Info("Kitchen board",
			zap.Int("pending", v.Counts.Pending),
			zap.Int("preparing", v.Counts.Preparing),
			zap.Int("prepared", v.Counts.Prepared))
	case *console.Items:
		logger.Info("Service board", zap.Int("items", len(v.Items)))
	case *console.Payments:
		logger.Info("Payment queue", zap.Int("pending", len(v.Pending)))
	case *console.CartView:
		logger.Info("Cart",
			zap.Int("items", v.ItemCount),
			zap.String("total", v.Total.StringFixed(2)))
	}
}

var errNoHealthyAPI = errors.New("no healthy API instance")

type apiFinder interface {
	Discover(ctx context.Context, serviceName string) ([]*discovery.ServiceInstance, error)
}

type healthCheck func(ctx context.Context, addr, service string) error

// waitForAPI looks up the API in etcd and returns the first instance whose
// gRPC health service reports serving.
func waitForAPI(cfg *config.Config, logger *zap.Logger) (*discovery.ServiceInstance, error) {
	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, logger)
	if err != nil {
		return nil, fmt.Errorf("service discovery: %w", err)
	}
	defer sd.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return findAPI(ctx, sd, health.Check, cfg.Server.Name, logger)
}

func findAPI(ctx context.Context, finder apiFinder, check healthCheck, name string, logger *zap.Logger) (*discovery.ServiceInstance, error) {
	instances, err := finder.Discover(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", name, err)
	}
	for _, inst := range instances {
		if err := check(ctx, inst.Addr(), ""); err != nil {
			logger.Warn("API instance unhealthy", zap.String("address", inst.Addr()), zap.Error(err))
			continue
		}
		return inst, nil
	}
	return nil, fmt.Errorf("%w for %s", errNoHealthyAPI, name)
}
