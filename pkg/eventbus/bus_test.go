package eventbus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestPublishInSubscriptionOrder(t *testing.T) {
	bus := New(zaptest.NewLogger(t))
	var got []string
	bus.Subscribe("t", func(p any) error { got = append(got, "first:"+p.(string)); return nil })
	bus.Subscribe("t", func(p any) error { got = append(got, "second:"+p.(string)); return nil })
	bus.Subscribe("other", func(p any) error { got = append(got, "other"); return nil })

	n := bus.Publish("t", "x")

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"first:x", "second:x"}, got)
}

func TestFailingHandlersAreIsolated(t *testing.T) {
	bus := New(zaptest.NewLogger(t))
	calls := 0
	bus.Subscribe("t", func(any) error { panic("listener blew up") })
	bus.Subscribe("t", func(any) error { return errors.New("listener failed") })
	bus.Subscribe("t", func(any) error { calls++; return nil })

	assert.NotPanics(t, func() {
		assert.Equal(t, 1, bus.Publish("t", nil))
	})
	assert.Equal(t, 1, calls)
}

func TestUnsubscribe(t *testing.T) {
	bus := New(nil)
	calls := 0
	sub := bus.Subscribe("t", func(any) error { calls++; return nil })
	bus.Publish("t", nil)

	sub.Unsubscribe()
	sub.Unsubscribe()
	bus.Publish("t", nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Subscribers("t"))
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	bus := New(nil)
	calls := 0
	var sub *Subscription
	sub = bus.Subscribe("t", func(any) error { calls++; sub.Unsubscribe(); return nil })

	bus.Publish("t", nil)
	bus.Publish("t", nil)
	assert.Equal(t, 1, calls)
}

func TestCloseDropsAllRegistrations(t *testing.T) {
	bus := New(nil)
	calls := 0
	bus.Subscribe(TopicPaymentRequested, func(any) error { calls++; return nil })
	bus.Subscribe(TopicPaymentConfirmed, func(any) error { calls++; return nil })

	bus.Close()
	late := bus.Subscribe(TopicPaymentConfirmed, func(any) error { calls++; return nil })
	late.Unsubscribe()

	assert.Equal(t, 0, bus.Publish(TopicPaymentRequested, nil))
	assert.Equal(t, 0, bus.Publish(TopicPaymentConfirmed, nil))
	assert.Equal(t, 0, calls)
}

func TestBusesAreIndependent(t *testing.T) {
	a, b := New(nil), New(nil)
	calls := 0
	a.Subscribe("t", func(any) error { calls++; return nil })

	b.Publish("t", nil)
	assert.Equal(t, 0, calls)
}
