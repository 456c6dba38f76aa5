package console

import (
	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/dinein/pkg/dashboard"
	"github.com/example/dinein/pkg/eventbus"
	"go.uber.org/zap"
)

type kitchenActor struct {
	board  *dashboard.KitchenBoard
	logger *zap.Logger
}

func newKitchenActor(bus *eventbus.Bus, deps Deps) *kitchenActor {
	logger := deps.Logger.Named("kitchen")
	return &kitchenActor{
		board:  dashboard.NewKitchenBoard(deps.Store, bus, dashboard.Options{Notifier: deps.Notifier, Logger: logger}),
		logger: logger,
	}
}

func (a *kitchenActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		a.logger.Info("Kitchen console started")

	case *RefreshItems:
		rc, cancel := requestContext()
		defer cancel()
		if err := a.board.Refresh(rc); err != nil {
			respondErr(ctx, err)
			return
		}
		ctx.Respond(a.view())

	case *FilterItems:
		ctx.Respond(&Items{Items: a.board.Filter(msg.Table, msg.Status)})

	case *MarkPrepared:
		rc, cancel := requestContext()
		defer cancel()
		if err := a.board.MarkPrepared(rc, msg.ItemID); err != nil {
			respondErr(ctx, err)
			return
		}
		ctx.Respond(a.view())

	case *actor.Stopped:
		a.logger.Info("Kitchen console stopped")
	}
}

func (a *kitchenActor) view() *KitchenView {
	return &KitchenView{
		Counts: a.board.Counts(),
		Tables: a.board.Tables(),
		Items:  a.board.Filter(dashboard.AllTables, ""),
	}
}
