// Package health reports backing-store reachability over the standard gRPC
// health protocol.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Checker pings each dependency and mirrors the result into a gRPC health
// server. The empty service name is SERVING only when every dependency is.
type Checker struct {
	server *health.Server
	logger *zap.Logger

	mu   sync.Mutex
	deps map[string]Pinger
	last map[string]error
}

func NewChecker(logger *zap.Logger) *Checker {
	return &Checker{
		server: health.NewServer(),
		logger: logger.Named("health"),
		deps:   map[string]Pinger{},
		last:   map[string]error{},
	}
}

func (c *Checker) Add(name string, p Pinger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deps[name] = p
}

func (c *Checker) Register(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, c.server)
}

// Probe pings every dependency once and returns the failures by name.
func (c *Checker) Probe(ctx context.Context) map[string]error {
	c.mu.Lock()
	deps := make(map[string]Pinger, len(c.deps))
	for k, v := range c.deps {
		deps[k] = v
	}
	c.mu.Unlock()

	failed := map[string]error{}
	for name, p := range deps {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := p.Ping(pctx)
		cancel()

		status := grpc_health_v1.HealthCheckResponse_SERVING
		if err != nil {
			failed[name] = err
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
		c.server.SetServingStatus(name, status)
		c.noteChange(name, err)
	}

	overall := grpc_health_v1.HealthCheckResponse_SERVING
	if len(failed) > 0 {
		overall = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	c.server.SetServingStatus("", overall)
	return failed
}

func (c *Checker) noteChange(name string, err error) {
	c.mu.Lock()
	prev, seen := c.last[name]
	c.last[name] = err
	c.mu.Unlock()

	switch {
	case err != nil && (prev == nil || !seen):
		c.logger.Warn("Dependency unreachable", zap.String("dependency", name), zap.Error(err))
	case err == nil && prev != nil:
		c.logger.Info("Dependency recovered", zap.String("dependency", name))
	}
}

// Names lists the registered dependencies in order.
func (c *Checker) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.deps))
	for k := range c.deps {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Run probes on every tick until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	c.Probe(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
			c.Probe(ctx)
		}
	}
}

// Check asks the health service at addr about service ("" for overall).
func Check(ctx context.Context, addr, service string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	defer conn.Close()

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		return fmt.Errorf("%s is %s", addr, resp.Status)
	}
	return nil
}
