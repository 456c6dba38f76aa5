package dashboard

import (
	"context"
	"slices"

	"github.com/example/dinein/pkg/itemflow"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/notify"
	"github.com/example/dinein/pkg/store"
)

// ServiceBoard shows items that are ready to serve or already served.
type ServiceBoard struct {
	board
}

func NewServiceBoard(s store.OrderStore, opts Options) *ServiceBoard {
	return &ServiceBoard{board: newBoard(s, opts)}
}

// Filter returns Prepared or Delivered items, newest first. An empty status
// returns both.
func (b *ServiceBoard) Filter(status models.ItemStatus) []models.OrderItem {
	items := slices.DeleteFunc(b.Items(), func(it models.OrderItem) bool {
		if it.Status != models.ItemPrepared && it.Status != models.ItemDelivered {
			return true
		}
		return status != "" && it.Status != status
	})
	return newestFirst(items)
}

func (b *ServiceBoard) MarkDelivered(ctx context.Context, itemID string) error {
	if err := b.act(ctx, itemID, itemflow.MarkDelivered, b.store.MarkItemDelivered); err != nil {
		return err
	}
	b.notifier.Notify(notify.Notice{Level: notify.LevelSuccess, Title: "Success", Message: "Item marked as delivered"})
	return nil
}

func (b *ServiceBoard) UndoDelivery(ctx context.Context, itemID string) error {
	if err := b.act(ctx, itemID, itemflow.UndoDelivery, b.store.UndoItemDelivery); err != nil {
		return err
	}
	b.notifier.Notify(notify.Notice{Level: notify.LevelInfo, Title: "Undone", Message: "Delivery undone"})
	return nil
}
