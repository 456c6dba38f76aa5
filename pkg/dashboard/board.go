// Package dashboard implements the kitchen and service boards. Each board
// works from its own snapshot of active order items and re-reads the store
// after every action it takes.
package dashboard

import (
	"context"
	"slices"
	"sync"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/itemflow"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/notify"
	"github.com/example/dinein/pkg/store"
	"go.uber.org/zap"
)

// AllTables is the table filter value that matches every table.
const AllTables = "All"

type Options struct {
	Notifier notify.Notifier
	Logger   *zap.Logger
}

type board struct {
	store    store.OrderStore
	notifier notify.Notifier
	logger   *zap.Logger

	mu    sync.RWMutex
	items []models.OrderItem
}

func newBoard(s store.OrderStore, opts Options) board {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return board{store: s, notifier: opts.Notifier, logger: opts.Logger}
}

// Refresh replaces the snapshot with the store's active items.
func (b *board) Refresh(ctx context.Context) error {
	items, err := b.store.FetchActiveOrderItems(ctx)
	if err != nil {
		b.logger.Error("Failed to fetch order items", zap.Error(err))
		return err
	}
	b.mu.Lock()
	b.items = items
	b.mu.Unlock()
	return nil
}

// Items returns a copy of the snapshot.
func (b *board) Items() []models.OrderItem {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.items)
}

func (b *board) find(itemID string) (models.OrderItem, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i := slices.IndexFunc(b.items, func(it models.OrderItem) bool { return it.ID == itemID })
	if i < 0 {
		return models.OrderItem{}, false
	}
	return b.items[i], true
}

// act checks the transition against the snapshot, calls the store, and
// refreshes. An illegal transition never reaches the store.
func (b *board) act(ctx context.Context, itemID string, a itemflow.Action, call func(context.Context, string) error) error {
	item, ok := b.find(itemID)
	if !ok {
		return apperr.Validation("item_id", "Item is not on the board")
	}
	if !itemflow.Allowed(item.Status, a) {
		return &apperr.StateTransitionError{ItemID: itemID, From: string(item.Status), Action: string(a)}
	}

	if err := call(ctx, itemID); err != nil {
		b.logger.Error("Failed to update item status",
			zap.String("item_id", itemID),
			zap.String("action", string(a)),
			zap.Error(err))
		b.notifier.Notify(notify.Notice{
			Level:   notify.LevelError,
			Title:   "Error",
			Message: "Failed to update item status",
			Err:     err,
		})
		return err
	}

	if err := b.Refresh(ctx); err != nil {
		b.notifier.Notify(notify.Notice{
			Level:   notify.LevelWarning,
			Title:   "Warning",
			Message: "Status updated but the board could not be refreshed",
			Err:     err,
		})
	}
	return nil
}

func newestFirst(items []models.OrderItem) []models.OrderItem {
	slices.Reverse(items)
	return items
}
