package console

import (
	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/dinein/pkg/billing"
	"github.com/example/dinein/pkg/eventbus"
	"github.com/example/dinein/pkg/session"
	"go.uber.org/zap"
)

// cashierActor owns the payment queue. The queue is in memory only and is
// lost when the console stops or restarts.
type cashierActor struct {
	bus       *eventbus.Bus
	deps      Deps
	desk      *billing.Desk
	directory *session.Directory
	tables    *session.Manager
	logger    *zap.Logger
}

func newCashierActor(bus *eventbus.Bus, tables *session.Manager, deps Deps) *cashierActor {
	return &cashierActor{
		bus:       bus,
		deps:      deps,
		directory: session.NewDirectory(),
		tables:    tables,
		logger:    deps.Logger.Named("cashier"),
	}
}

func (a *cashierActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		a.desk = billing.NewDesk(a.deps.Store, a.bus, billing.DeskOptions{
			Tables:   &refreshingDirectory{dir: a.directory, tables: a.tables, logger: a.logger},
			Notifier: a.deps.Notifier,
			Logger:   a.logger,
		})
		a.refreshTables()
		a.logger.Info("Cashier console started", zap.Int("tables", a.directory.Len()))

	case *actor.Restarting, *actor.Stopping:
		if a.desk != nil {
			a.desk.Close()
			a.desk = nil
		}

	case *RefreshItems:
		if err := a.refreshTables(); err != nil {
			respondErr(ctx, err)
			return
		}
		ctx.Respond(&Payments{Pending: a.desk.Pending()})

	case *ping:
		ctx.Respond(&Ack{})

	case *ListPayments:
		ctx.Respond(&Payments{Pending: a.desk.Pending()})

	case *ConfirmPayment:
		rc, cancel := requestContext()
		defer cancel()
		if err := a.desk.Confirm(rc, msg.BillID); err != nil {
			respondErr(ctx, err)
			return
		}
		ctx.Respond(&Payments{Pending: a.desk.Pending()})

	case *actor.Stopped:
		a.logger.Info("Cashier console stopped")
	}
}

func (a *cashierActor) refreshTables() error {
	rc, cancel := requestContext()
	defer cancel()
	if err := a.directory.Refresh(rc, a.tables); err != nil {
		a.logger.Warn("Failed to refresh tables", zap.Error(err))
		return err
	}
	return nil
}

// refreshingDirectory re-reads the table list once when asked about a table
// seated after the last refresh.
type refreshingDirectory struct {
	dir    *session.Directory
	tables *session.Manager
	logger *zap.Logger
}

func (d *refreshingDirectory) TableName(tableID string) (string, bool) {
	if name, ok := d.dir.TableName(tableID); ok {
		return name, true
	}
	rc, cancel := requestContext()
	defer cancel()
	if err := d.dir.Refresh(rc, d.tables); err != nil {
		d.logger.Warn("Failed to refresh tables", zap.Error(err))
		return "", false
	}
	return d.dir.TableName(tableID)
}
