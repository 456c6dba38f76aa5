package health

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func serve(t *testing.T, c *Checker) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := grpc.NewServer()
	c.Register(s)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)
	return lis.Addr().String()
}

func TestCheckerReportsDependencyStatus(t *testing.T) {
	c := NewChecker(zap.NewNop())
	redisDown := errors.New("dial tcp: connection refused")
	var redisErr error = redisDown
	c.Add("mysql", PingFunc(func(context.Context) error { return nil }))
	c.Add("redis", PingFunc(func(context.Context) error { return redisErr }))
	assert.Equal(t, []string{"mysql", "redis"}, c.Names())

	addr := serve(t, c)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	failed := c.Probe(ctx)
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed["redis"], redisDown)

	assert.NoError(t, Check(ctx, addr, "mysql"))
	assert.Error(t, Check(ctx, addr, "redis"))
	assert.Error(t, Check(ctx, addr, ""))

	redisErr = nil
	assert.Empty(t, c.Probe(ctx))
	assert.NoError(t, Check(ctx, addr, ""))
}
