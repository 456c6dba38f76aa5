// Package console runs the four dine-in consoles (customer, kitchen,
// service, cashier) plus the host stand as actors sharing one event bus.
package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/dinein/pkg/cart"
	"github.com/example/dinein/pkg/config"
	"github.com/example/dinein/pkg/eventbus"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/notify"
	"github.com/example/dinein/pkg/session"
	"github.com/example/dinein/pkg/store"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

type Deps struct {
	Store    store.RecordStore
	Dine     config.DineConfig
	Logger   *zap.Logger
	Notifier notify.Notifier
}

// System owns the actor system and the bus the consoles talk over.
type System struct {
	actors *actor.ActorSystem
	bus    *eventbus.Bus
	deps   Deps

	Host    *actor.PID
	Kitchen *actor.PID
	Service *actor.PID
	Cashier *actor.PID

	mu        sync.Mutex
	customers []*actor.PID
}

// Start spawns the host, kitchen, service and cashier consoles. Customer
// consoles are per table and spawned with SpawnCustomer.
func Start(deps Deps) (*System, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Log(deps.Logger)
	}
	s := &System{
		actors: actor.NewActorSystem(),
		bus:    eventbus.New(deps.Logger.Named("bus")),
		deps:   deps,
	}

	manager := session.NewManager(deps.Store, deps.Logger.Named("session"))
	spawn := []struct {
		name     string
		pid      **actor.PID
		producer actor.Producer
	}{
		{"host", &s.Host, func() actor.Actor { return newHostActor(manager, deps) }},
		{"kitchen", &s.Kitchen, func() actor.Actor { return newKitchenActor(s.bus, deps) }},
		{"service", &s.Service, func() actor.Actor { return newServiceActor(s.bus, deps) }},
		{"cashier", &s.Cashier, func() actor.Actor { return newCashierActor(s.bus, manager, deps) }},
	}
	for _, sp := range spawn {
		pid, err := s.actors.Root.SpawnNamed(actor.PropsFromProducer(sp.producer), sp.name)
		if err != nil {
			s.Shutdown()
			return nil, fmt.Errorf("failed to spawn %s console: %w", sp.name, err)
		}
		*sp.pid = pid
	}
	for _, pid := range []*actor.PID{s.Service, s.Cashier} {
		if _, err := s.Request(pid, &ping{}); err != nil {
			s.Shutdown()
			return nil, fmt.Errorf("console %s not ready: %w", pid.Id, err)
		}
	}

	deps.Logger.Info("Consoles started",
		zap.String("host", s.Host.Id),
		zap.String("kitchen", s.Kitchen.Id),
		zap.String("service", s.Service.Id),
		zap.String("cashier", s.Cashier.Id))
	return s, nil
}

// SpawnCustomer starts the customer console for a table.
func (s *System) SpawnCustomer(tableID string) (*actor.PID, error) {
	props := actor.PropsFromProducer(func() actor.Actor {
		return newCustomerActor(tableID, s.bus, s.deps)
	})
	pid, err := s.actors.Root.SpawnNamed(props, "customer-"+tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn customer console: %w", err)
	}
	if _, err := s.Request(pid, &ping{}); err != nil {
		s.actors.Root.Stop(pid)
		return nil, fmt.Errorf("customer console not ready: %w", err)
	}
	s.mu.Lock()
	s.customers = append(s.customers, pid)
	s.mu.Unlock()
	return pid, nil
}

// Request sends msg to pid and waits for the reply. A Failure reply comes
// back as its error.
func (s *System) Request(pid *actor.PID, msg any) (any, error) {
	res, err := s.actors.Root.RequestFuture(pid, msg, requestTimeout).Result()
	if err != nil {
		return nil, err
	}
	if f, ok := res.(*Failure); ok {
		return nil, f.Err
	}
	return res, nil
}

// Ask is Request with the reply type checked.
func Ask[T any](s *System, pid *actor.PID, msg any) (T, error) {
	var zero T
	res, err := s.Request(pid, msg)
	if err != nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected reply %T", res)
	}
	return v, nil
}

func (s *System) Bus() *eventbus.Bus { return s.bus }

// Stop stops one console and waits for it to finish.
func (s *System) Stop(pid *actor.PID) error {
	return s.actors.Root.StopFuture(pid).Wait()
}

func (s *System) Shutdown() {
	s.mu.Lock()
	pids := append(s.customers, s.Host, s.Kitchen, s.Service, s.Cashier)
	s.customers = nil
	s.mu.Unlock()
	for _, pid := range pids {
		if pid != nil {
			_ = s.Stop(pid)
		}
	}
	s.bus.Close()
	s.actors.Shutdown()
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func respondErr(ctx actor.Context, err error) {
	ctx.Respond(&Failure{Err: err})
}

func cartPolicy(d config.DineConfig) cart.Policy {
	if cart.Policy(d.ConflictPolicy) == cart.VersionCheck {
		return cart.VersionCheck
	}
	return cart.LastWriterWins
}

func paymentMethods(d config.DineConfig) []models.PaymentMethod {
	if len(d.PaymentMethods) == 0 {
		return models.DefaultPaymentMethods
	}
	return d.Methods()
}

var (
	errNoBill  = errors.New("no bill has been generated yet")
	errNoOrder = errors.New("no order has been placed yet")
)
