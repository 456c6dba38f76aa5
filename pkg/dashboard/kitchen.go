package dashboard

import (
	"context"
	"slices"

	"github.com/example/dinein/pkg/eventbus"
	"github.com/example/dinein/pkg/itemflow"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/notify"
	"github.com/example/dinein/pkg/store"
)

type KitchenBoard struct {
	board
	bus *eventbus.Bus
}

// NewKitchenBoard creates a kitchen board. When bus is set, every prepared
// item is announced on it so a sibling component can alert the service staff.
func NewKitchenBoard(s store.OrderStore, bus *eventbus.Bus, opts Options) *KitchenBoard {
	return &KitchenBoard{board: newBoard(s, opts), bus: bus}
}

type StatusCounts struct {
	Pending   int
	Preparing int
	Prepared  int
}

// Counts is derived from the current snapshot on every call.
func (k *KitchenBoard) Counts() StatusCounts {
	k.mu.RLock()
	defer k.mu.RUnlock()
	var c StatusCounts
	for _, it := range k.items {
		switch it.Status {
		case models.ItemPending:
			c.Pending++
		case models.ItemPreparing:
			c.Preparing++
		case models.ItemPrepared:
			c.Prepared++
		}
	}
	return c
}

// Filter selects items by table name and status, newest first. An empty
// table or AllTables matches every table, an empty status every status, and
// Prepared also matches Delivered items.
func (k *KitchenBoard) Filter(table string, status models.ItemStatus) []models.OrderItem {
	items := slices.DeleteFunc(k.Items(), func(it models.OrderItem) bool {
		if table != "" && table != AllTables && it.TableLabel != table {
			return true
		}
		switch status {
		case "":
			return false
		case models.ItemPrepared:
			return it.Status != models.ItemPrepared && it.Status != models.ItemDelivered
		default:
			return it.Status != status
		}
	})
	return newestFirst(items)
}

// Tables lists AllTables followed by the distinct table names on the board.
func (k *KitchenBoard) Tables() []string {
	var names []string
	for _, it := range k.Items() {
		if it.TableLabel != "" && !slices.Contains(names, it.TableLabel) {
			names = append(names, it.TableLabel)
		}
	}
	slices.Sort(names)
	return append([]string{AllTables}, names...)
}

// CanMarkPrepared reports whether the prepare action is offered for item.
func CanMarkPrepared(item models.OrderItem) bool {
	return itemflow.Allowed(item.Status, itemflow.MarkPrepared)
}

func (k *KitchenBoard) MarkPrepared(ctx context.Context, itemID string) error {
	item, _ := k.find(itemID)
	if err := k.act(ctx, itemID, itemflow.MarkPrepared, k.store.MarkItemPrepared); err != nil {
		return err
	}
	k.notifier.Notify(notify.Notice{Level: notify.LevelSuccess, Title: "Success", Message: "Item marked as prepared"})
	if k.bus != nil {
		k.bus.Publish(eventbus.TopicItemPrepared, eventbus.ItemPrepared{ItemID: itemID, TableName: item.TableLabel})
	}
	return nil
}
