// Package cart holds the customer-side cart of one table.
//
// Mutations apply to the in-memory lines immediately and are then written to
// the Record Store in the background. A failed write raises an error notice
// and leaves the local lines as they are.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/eventbus"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/notify"
	"github.com/example/dinein/pkg/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Policy decides how concurrent writers to the same cart are reconciled.
type Policy string

const (
	// LastWriterWins overwrites the stored blob unconditionally.
	LastWriterWins Policy = "last_writer_wins"
	// VersionCheck rejects a write when the stored cart changed since it was
	// last read or written by this engine.
	VersionCheck Policy = "version_check"
)

var ErrNotLoaded = errors.New("cart not loaded")

type Options struct {
	Policy   Policy
	Notifier notify.Notifier
	Logger   *zap.Logger
	// Bus, when set, receives a CartChanged event after every mutation.
	Bus *eventbus.Bus
}

type Engine struct {
	store    store.CartStore
	tableID  string
	policy   Policy
	notifier notify.Notifier
	logger   *zap.Logger
	bus      *eventbus.Bus

	mu      sync.Mutex
	cartID  string
	version int64
	lines   []models.CartItem
	total   decimal.Decimal
	seq     uint64

	persistMu sync.Mutex
	attempted uint64
	inflight  sync.WaitGroup
}

func New(s store.CartStore, tableID string, opts Options) *Engine {
	if opts.Policy == "" {
		opts.Policy = LastWriterWins
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		store:    s,
		tableID:  tableID,
		policy:   opts.Policy,
		notifier: opts.Notifier,
		logger:   opts.Logger.With(zap.String("table_id", tableID)),
		bus:      opts.Bus,
		total:    decimal.Zero,
	}
}

// Load replaces the local cart with the table's active cart from the store.
// Unreadable stored items load as an empty cart with a warning notice.
func (e *Engine) Load(ctx context.Context) error {
	e.Flush()

	c, err := e.store.FetchActiveCart(ctx, e.tableID)
	if err != nil {
		return err
	}
	lines, err := models.DecodeLines(c.ItemsJSON)
	if err != nil {
		e.logger.Warn("Failed to parse cart items", zap.String("cart_id", c.ID), zap.Error(err))
		e.notifier.Notify(notify.Notice{
			Level:   notify.LevelWarning,
			Title:   "Warning",
			Message: "Failed to parse cart items",
			Err:     err,
		})
	}

	kept := models.MergeLines(lines)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cartID = c.ID
	e.version = c.Version
	e.lines = kept
	e.seq++
	e.recalcTotal()
	return nil
}

// AddItem adds one unit of ref, merging with an existing line of the same item.
func (e *Engine) AddItem(ctx context.Context, ref models.MenuItemRef) error {
	if ref.ID == "" {
		return apperr.Validation("id", "Menu item id is required")
	}
	if ref.Price.IsNegative() {
		return apperr.Validation("price", "Price cannot be negative")
	}
	return e.mutate(ctx, func() error {
		for i := range e.lines {
			if e.lines[i].ItemID == ref.ID {
				e.lines[i].Quantity++
				return nil
			}
		}
		e.lines = append(e.lines, models.CartItem{
			ItemID:    ref.ID,
			Name:      ref.Name,
			UnitPrice: ref.Price,
			Quantity:  1,
		})
		return nil
	})
}

// RemoveOneUnit takes one unit off a line and drops the line when it reaches zero.
func (e *Engine) RemoveOneUnit(ctx context.Context, itemID string) error {
	return e.mutate(ctx, func() error {
		i := e.indexOf(itemID)
		if i < 0 {
			return apperr.Validation("id", "Item is not in the cart")
		}
		if e.lines[i].Quantity > 1 {
			e.lines[i].Quantity--
			return nil
		}
		e.lines = append(e.lines[:i:i], e.lines[i+1:]...)
		return nil
	})
}

// SetQuantity sets the quantity of an existing line. n must be at least 1.
func (e *Engine) SetQuantity(ctx context.Context, itemID string, n int) error {
	if n < 1 {
		return apperr.Validation("quantity", "Quantity must be at least 1")
	}
	return e.mutate(ctx, func() error {
		i := e.indexOf(itemID)
		if i < 0 {
			return apperr.Validation("id", "Item is not in the cart")
		}
		e.lines[i].Quantity = n
		return nil
	})
}

func (e *Engine) Clear(ctx context.Context) error {
	return e.mutate(ctx, func() error {
		e.lines = nil
		return nil
	})
}

// Reset empties the local cart without writing it. Used after the store has
// already cleared the cart during checkout.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines = nil
	e.seq++
	e.recalcTotal()
}

func (e *Engine) mutate(ctx context.Context, fn func() error) error {
	e.mu.Lock()
	if e.cartID == "" {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if err := fn(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.recalcTotal()
	job, err := e.snapshotLocked()
	count := models.CountUnits(e.lines)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	if e.bus != nil {
		e.bus.Publish(eventbus.TopicCartChanged, eventbus.CartChanged{CartID: job.cartID, ItemCount: count})
	}
	e.persistAsync(ctx, job)
	return nil
}

func (e *Engine) indexOf(itemID string) int {
	for i, l := range e.lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

func (e *Engine) recalcTotal() {
	e.total = models.SumLines(e.lines)
}
