package console

import (
	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/dinein/pkg/session"
	"go.uber.org/zap"
)

// hostActor seats and releases parties.
type hostActor struct {
	tables *session.Manager
	logger *zap.Logger
}

func newHostActor(tables *session.Manager, deps Deps) *hostActor {
	return &hostActor{tables: tables, logger: deps.Logger.Named("host")}
}

func (a *hostActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		a.logger.Info("Host console started")

	case *ListTables:
		rc, cancel := requestContext()
		defer cancel()
		list := a.tables.Tables
		if msg.Visible {
			list = a.tables.VisibleTables
		}
		tables, err := list(rc)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		ctx.Respond(&Tables{Tables: tables})

	case *SeatCustomer:
		rc, cancel := requestContext()
		defer cancel()
		fields := msg.Fields
		if fields.TableID == "" && msg.AnyTable {
			t, err := a.tables.PickFreeTable(rc)
			if err != nil {
				respondErr(ctx, err)
				return
			}
			fields.TableID = t.ID
		}
		c, err := a.tables.CreateCustomer(rc, fields)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		t, err := a.tables.Tables(rc)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		reply := &Seated{Customer: *c}
		for _, tt := range t {
			if tt.ID == c.TableID {
				reply.Table = tt
			}
		}
		ctx.Respond(reply)

	case *ReleaseCustomer:
		rc, cancel := requestContext()
		defer cancel()
		if err := a.tables.UnassignCustomer(rc, msg.CustomerID); err != nil {
			respondErr(ctx, err)
			return
		}
		ctx.Respond(&Ack{})
	}
}
