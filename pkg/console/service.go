package console

import (
	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/dinein/pkg/dashboard"
	"github.com/example/dinein/pkg/eventbus"
	"github.com/example/dinein/pkg/notify"
	"go.uber.org/zap"
)

// serviceActor is the waiter's console. It re-reads the board whenever the
// kitchen announces a prepared item.
type serviceActor struct {
	board    *dashboard.ServiceBoard
	bus      *eventbus.Bus
	notifier notify.Notifier
	logger   *zap.Logger
	sub      *eventbus.Subscription
}

func newServiceActor(bus *eventbus.Bus, deps Deps) *serviceActor {
	logger := deps.Logger.Named("service")
	return &serviceActor{
		board:    dashboard.NewServiceBoard(deps.Store, dashboard.Options{Notifier: deps.Notifier, Logger: logger}),
		bus:      bus,
		notifier: deps.Notifier,
		logger:   logger,
	}
}

func (a *serviceActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		root, self := ctx.ActorSystem().Root, ctx.Self()
		a.sub = a.bus.Subscribe(eventbus.TopicItemPrepared, func(p any) error {
			if ev, ok := p.(eventbus.ItemPrepared); ok {
				root.Send(self, &itemPrepared{ItemID: ev.ItemID})
			}
			return nil
		})
		a.logger.Info("Service console started")

	case *actor.Restarting, *actor.Stopping:
		a.sub.Unsubscribe()
		a.sub = nil

	case *ping:
		ctx.Respond(&Ack{})

	case *itemPrepared:
		rc, cancel := requestContext()
		defer cancel()
		if err := a.board.Refresh(rc); err == nil {
			a.notifier.Notify(notify.Notice{Level: notify.LevelInfo, Title: "Ready", Message: "An item is ready to serve"})
		}

	case *RefreshItems:
		rc, cancel := requestContext()
		defer cancel()
		if err := a.board.Refresh(rc); err != nil {
			respondErr(ctx, err)
			return
		}
		ctx.Respond(&Items{Items: a.board.Filter("")})

	case *FilterItems:
		ctx.Respond(&Items{Items: a.board.Filter(msg.Status)})

	case *MarkDelivered:
		rc, cancel := requestContext()
		defer cancel()
		if err := a.board.MarkDelivered(rc, msg.ItemID); err != nil {
			respondErr(ctx, err)
			return
		}
		ctx.Respond(&Items{Items: a.board.Filter("")})

	case *UndoDelivery:
		rc, cancel := requestContext()
		defer cancel()
		if err := a.board.UndoDelivery(rc, msg.ItemID); err != nil {
			respondErr(ctx, err)
			return
		}
		ctx.Respond(&Items{Items: a.board.Filter("")})

	case *actor.Stopped:
		a.logger.Info("Service console stopped")
	}
}
