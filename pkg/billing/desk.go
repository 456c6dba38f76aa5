package billing

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/eventbus"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/notify"
	"github.com/example/dinein/pkg/store"
	"go.uber.org/zap"
)

// TableDirectory resolves the tables a cashier console knows about.
type TableDirectory interface {
	TableName(tableID string) (string, bool)
}

// Desk is the cashier's queue of payment requests. It lives only in the
// memory of one cashier console.
type Desk struct {
	bills    store.BillStore
	bus      *eventbus.Bus
	tables   TableDirectory
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	pending []models.PaymentRequest
	sub     *eventbus.Subscription
}

type DeskOptions struct {
	Tables   TableDirectory
	Notifier notify.Notifier
	Logger   *zap.Logger
}

// NewDesk creates a desk listening for payment requests on bus.
func NewDesk(bills store.BillStore, bus *eventbus.Bus, opts DeskOptions) *Desk {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	d := &Desk{
		bills:    bills,
		bus:      bus,
		tables:   opts.Tables,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		now:      time.Now,
	}
	d.sub = bus.Subscribe(eventbus.TopicPaymentRequested, d.onPaymentRequested)
	return d
}

func (d *Desk) onPaymentRequested(payload any) error {
	ev, ok := payload.(eventbus.PaymentRequested)
	if !ok {
		return fmt.Errorf("unexpected payload %T", payload)
	}
	if !d.Enqueue(ev.Request) {
		return fmt.Errorf("payment request for bill %q ignored", ev.Request.BillID)
	}
	return nil
}

// Enqueue adds a request unless its table is unknown or its bill is
// already queued.
func (d *Desk) Enqueue(req models.PaymentRequest) bool {
	if req.BillID == "" || req.TableID == "" {
		return false
	}
	if d.tables != nil {
		name, ok := d.tables.TableName(req.TableID)
		if !ok {
			d.logger.Warn("Payment request for unknown table",
				zap.String("bill_id", req.BillID),
				zap.String("table_id", req.TableID))
			return false
		}
		req.TableName = name
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = d.now()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if slices.ContainsFunc(d.pending, func(p models.PaymentRequest) bool { return p.BillID == req.BillID }) {
		return true
	}
	d.pending = append(d.pending, req)
	d.logger.Info("Payment requested",
		zap.String("bill_id", req.BillID),
		zap.String("table", req.TableName))
	return true
}

// Pending returns a copy of the queue in arrival order.
func (d *Desk) Pending() []models.PaymentRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.pending)
}

// Confirm marks the bill Confirmed in the store. Only after the store
// accepts the update is the request dequeued and PaymentConfirmed published.
// On failure the request stays queued.
func (d *Desk) Confirm(ctx context.Context, billID string) error {
	d.mu.Lock()
	queued := slices.ContainsFunc(d.pending, func(p models.PaymentRequest) bool { return p.BillID == billID })
	d.mu.Unlock()
	if !queued {
		return apperr.Validation("bill_id", "No pending payment for this bill")
	}

	if err := d.bills.UpdateBillStatus(ctx, billID, models.BillConfirmed, 0); err != nil {
		d.logger.Error("Failed to confirm payment", zap.String("bill_id", billID), zap.Error(err))
		d.notifier.Notify(notify.Notice{
			Level:   notify.LevelError,
			Title:   "Error",
			Message: "Failed to confirm payment",
			Err:     err,
		})
		return err
	}

	d.mu.Lock()
	d.pending = slices.DeleteFunc(d.pending, func(p models.PaymentRequest) bool { return p.BillID == billID })
	d.mu.Unlock()

	d.bus.Publish(eventbus.TopicPaymentConfirmed, eventbus.PaymentConfirmed{BillID: billID})
	d.notifier.Notify(notify.Notice{Level: notify.LevelSuccess, Title: "Success", Message: "Payment confirmed"})
	d.logger.Info("Payment confirmed", zap.String("bill_id", billID))
	return nil
}

// Close stops listening for payment requests.
func (d *Desk) Close() {
	d.sub.Unsubscribe()
}

// RequestPayment announces a bill to the desk listening on bus.
func RequestPayment(bus *eventbus.Bus, bill models.Bill) int {
	return bus.Publish(eventbus.TopicPaymentRequested, eventbus.PaymentRequested{
		Request: models.PaymentRequest{BillID: bill.ID, TableID: bill.TableID},
	})
}

// SendEmail validates the address and asks the store to mail the bill.
func SendEmail(ctx context.Context, bills store.BillStore, billID, address string) error {
	if address == "" {
		return apperr.Validation("email", "Email address is required")
	}
	if !models.ValidEmail(address) {
		return apperr.Validation("email", "Please enter a valid email address")
	}
	return bills.SendBillEmail(ctx, billID, address)
}
