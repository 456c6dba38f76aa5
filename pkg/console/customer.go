package console

import (
	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/dinein/pkg/billing"
	"github.com/example/dinein/pkg/cart"
	"github.com/example/dinein/pkg/checkout"
	"github.com/example/dinein/pkg/eventbus"
	"github.com/example/dinein/pkg/feedback"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/notify"
	"github.com/example/dinein/pkg/session"
	"github.com/example/dinein/pkg/store"
	"go.uber.org/zap"
)

// customerActor is the console at one table: menu, cart, checkout and the
// bill of the last order.
type customerActor struct {
	tableID  string
	store    store.RecordStore
	bus      *eventbus.Bus
	engine   *cart.Engine
	checkout *checkout.Service
	billing  *billing.Service
	tables   *session.Manager
	deps     Deps
	logger   *zap.Logger

	sub       *eventbus.Subscription
	lastOrder *models.Order
	lastBill  *models.Bill
}

func newCustomerActor(tableID string, bus *eventbus.Bus, deps Deps) *customerActor {
	logger := deps.Logger.Named("customer").With(zap.String("table_id", tableID))
	return &customerActor{
		tableID: tableID,
		store:   deps.Store,
		bus:     bus,
		engine: cart.New(deps.Store, tableID, cart.Options{
			Policy:   cartPolicy(deps.Dine),
			Notifier: deps.Notifier,
			Logger:   logger,
			Bus:      bus,
		}),
		checkout: checkout.NewService(deps.Store, paymentMethods(deps.Dine), logger),
		billing: billing.NewService(deps.Store, billing.Config{
			RequireDelivered: deps.Dine.RequireDeliveredForBill,
			Logger:           logger,
		}),
		tables: session.NewManager(deps.Store, logger),
		deps:   deps,
		logger: logger,
	}
}

func (a *customerActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		root, self := ctx.ActorSystem().Root, ctx.Self()
		a.sub = a.bus.Subscribe(eventbus.TopicPaymentConfirmed, func(p any) error {
			if ev, ok := p.(eventbus.PaymentConfirmed); ok {
				root.Send(self, &paymentConfirmed{BillID: ev.BillID})
			}
			return nil
		})
		a.logger.Info("Customer console started")

	case *actor.Restarting, *actor.Stopping:
		a.sub.Unsubscribe()
		a.sub = nil
		a.engine.Flush()

	case *actor.Stopped:
		a.logger.Info("Customer console stopped")

	case *ping:
		ctx.Respond(&Ack{})

	case *LoadCart:
		rc, cancel := requestContext()
		defer cancel()
		if err := a.engine.Load(rc); err != nil {
			respondErr(ctx, err)
			return
		}
		ctx.Respond(a.view())

	case *BrowseMenu:
		rc, cancel := requestContext()
		defer cancel()
		items, err := a.store.FetchMenuItems(rc, msg.Category)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		ctx.Respond(&Menu{Items: items})

	case *AddToCart:
		rc, cancel := requestContext()
		defer cancel()
		a.respondCart(ctx, a.engine.AddItem(rc, msg.Item))

	case *RemoveOne:
		rc, cancel := requestContext()
		defer cancel()
		a.respondCart(ctx, a.engine.RemoveOneUnit(rc, msg.ItemID))

	case *SetQuantity:
		rc, cancel := requestContext()
		defer cancel()
		a.respondCart(ctx, a.engine.SetQuantity(rc, msg.ItemID, msg.Quantity))

	case *ClearCart:
		rc, cancel := requestContext()
		defer cancel()
		a.respondCart(ctx, a.engine.Clear(rc))

	case *PlaceOrder:
		rc, cancel := requestContext()
		defer cancel()
		order, err := a.checkout.Submit(rc, a.engine, msg.Method)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		a.lastOrder = order
		a.lastBill = nil
		a.deps.Notifier.Notify(notify.Notice{Level: notify.LevelSuccess, Title: "Success", Message: "Order placed successfully"})
		ctx.Respond(&OrderPlaced{Order: *order})

	case *RequestBill:
		a.requestBill(ctx, msg)

	case *GetBill:
		if a.lastBill == nil {
			respondErr(ctx, errNoBill)
			return
		}
		ctx.Respond(a.billReply(true))

	case *EmailBill:
		if a.lastBill == nil {
			respondErr(ctx, errNoBill)
			return
		}
		rc, cancel := requestContext()
		defer cancel()
		if err := billing.SendEmail(rc, a.store, a.lastBill.ID, msg.Address); err != nil {
			respondErr(ctx, err)
			return
		}
		ctx.Respond(&Ack{})

	case *RateDishes:
		if a.lastBill == nil {
			respondErr(ctx, errNoBill)
			return
		}
		rc, cancel := requestContext()
		defer cancel()
		if err := feedback.Submit(rc, a.store, *a.lastBill, msg.Ratings); err != nil {
			respondErr(ctx, err)
			return
		}
		ctx.Respond(&Ack{})

	case *paymentConfirmed:
		if a.lastBill != nil && a.lastBill.ID == msg.BillID {
			a.lastBill.Status = models.BillConfirmed
			a.deps.Notifier.Notify(notify.Notice{Level: notify.LevelSuccess, Title: "Paid", Message: "Payment received, thank you"})
		}
	}
}

func (a *customerActor) requestBill(ctx actor.Context, msg *RequestBill) {
	orderID := msg.OrderID
	if orderID == "" && a.lastOrder != nil {
		orderID = a.lastOrder.ID
	}
	if orderID == "" {
		respondErr(ctx, errNoOrder)
		return
	}

	rc, cancel := requestContext()
	defer cancel()
	bill, err := a.billing.Generate(rc, orderID)
	if err != nil {
		respondErr(ctx, err)
		return
	}
	a.lastBill = bill

	queued := bill.Status == models.BillDraft && billing.RequestPayment(a.bus, *bill) > 0
	if !queued && bill.Status == models.BillDraft {
		a.logger.Warn("No cashier received the payment request", zap.String("bill_id", bill.ID))
	}
	ctx.Respond(a.billReply(queued))
}

func (a *customerActor) billReply(queued bool) *BillReady {
	rc, cancel := requestContext()
	defer cancel()
	name := a.tables.TableName(rc, a.tableID)
	return &BillReady{
		Bill:    *a.lastBill,
		Summary: billing.Summarize(*a.lastBill, name, a.deps.Dine.TaxRate(), a.deps.Notifier),
		Queued:  queued,
	}
}

func (a *customerActor) respondCart(ctx actor.Context, err error) {
	if err != nil {
		respondErr(ctx, err)
		return
	}
	ctx.Respond(a.view())
}

func (a *customerActor) view() *CartView {
	return &CartView{
		CartID:    a.engine.CartID(),
		Lines:     a.engine.Lines(),
		Total:     a.engine.Total(),
		ItemCount: a.engine.ItemCount(),
		Version:   a.engine.Version(),
	}
}
