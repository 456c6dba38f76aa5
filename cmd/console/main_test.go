package main

import (
	"context"
	"errors"
	"testing"

	"github.com/example/dinein/pkg/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticFinder struct {
	instances []*discovery.ServiceInstance
	err       error
}

func (f staticFinder) Discover(ctx context.Context, name string) ([]*discovery.ServiceInstance, error) {
	return f.instances, f.err
}

func TestFindAPIPicksFirstHealthyInstance(t *testing.T) {
	finder := staticFinder{instances: []*discovery.ServiceInstance{
		{Name: "dine-api", Host: "10.0.0.1", Port: 50051},
		{Name: "dine-api", Host: "10.0.0.2", Port: 50051},
	}}
	var checked []string
	check := func(ctx context.Context, addr, service string) error {
		checked = append(checked, addr)
		if addr == "10.0.0.1:50051" {
			return errors.New("NOT_SERVING")
		}
		return nil
	}

	inst, err := findAPI(context.Background(), finder, check, "dine-api", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2:50051", inst.Addr())
	assert.Equal(t, []string{"10.0.0.1:50051", "10.0.0.2:50051"}, checked)
}

func TestFindAPINoHealthyInstance(t *testing.T) {
	down := func(ctx context.Context, addr, service string) error { return errors.New("connection refused") }

	_, err := findAPI(context.Background(), staticFinder{}, down, "dine-api", zap.NewNop())
	assert.ErrorIs(t, err, errNoHealthyAPI)

	finder := staticFinder{instances: []*discovery.ServiceInstance{{Name: "dine-api", Host: "10.0.0.1", Port: 50051}}}
	_, err = findAPI(context.Background(), finder, down, "dine-api", zap.NewNop())
	assert.ErrorIs(t, err, errNoHealthyAPI)

	etcdDown := errors.New("etcd unavailable")
	_, err = findAPI(context.Background(), staticFinder{err: etcdDown}, down, "dine-api", zap.NewNop())
	assert.ErrorIs(t, err, etcdDown)
}
