// Package memstore is a Record Store held in process memory on go-memdb.
// Every write runs in one memdb transaction, so a single operation such as
// checkout is applied entirely or not at all.
package memstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/checkout"
	"github.com/example/dinein/pkg/itemflow"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/store"
	memdb "github.com/hashicorp/go-memdb"
	"github.com/shopspring/decimal"
)

var _ store.RecordStore = (*Store)(nil)

type Store struct {
	db       *memdb.MemDB
	mailer   store.Mailer
	now      func() time.Time
	tableSeq atomic.Int64
	billSeq  atomic.Int64
}

type Option func(*Store)

func WithMailer(m store.Mailer) Option {
	return func(s *Store) { s.mailer = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) write(fn func(txn *memdb.Txn) error) error {
	txn := s.db.Txn(true)
	if err := fn(txn); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

func first[T any](txn *memdb.Txn, table, index string, args ...any) (*T, error) {
	raw, err := txn.First(table, index, args...)
	if err != nil || raw == nil {
		return nil, err
	}
	v := *raw.(*T)
	return &v, nil
}

func all[T any](txn *memdb.Txn, table, index string, args ...any) ([]T, error) {
	it, err := txn.Get(table, index, args...)
	if err != nil {
		return nil, err
	}
	var out []T
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, *obj.(*T))
	}
	return out, nil
}

func put[T any](txn *memdb.Txn, table string, v T) error {
	return txn.Insert(table, &v)
}

func mustFind[T any](txn *memdb.Txn, op, table, what, id string) (*T, error) {
	v, err := first[T](txn, table, "id", id)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	if v == nil {
		return nil, apperr.NotFound(op, what, id)
	}
	return v, nil
}

// Tables

func (s *Store) FetchTables(ctx context.Context) ([]models.Table, error) {
	tables, err := all[models.Table](s.db.Txn(false), tableTables, "id")
	if err != nil {
		return nil, apperr.Store("fetchTables", err)
	}
	slices.SortFunc(tables, func(a, b models.Table) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.DisplayName, b.DisplayName))
	})
	return tables, nil
}

func (s *Store) FetchTable(ctx context.Context, id string) (*models.Table, error) {
	return mustFind[models.Table](s.db.Txn(false), "fetchTable", tableTables, "table", id)
}

func (s *Store) CreateTable(ctx context.Context, displayName string) (*models.Table, error) {
	n := s.tableSeq.Add(1)
	if displayName == "" {
		displayName = fmt.Sprintf("T-%d", n)
	}
	now := s.now()
	t := models.Table{
		ID:          models.NewID(),
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.write(func(txn *memdb.Txn) error {
		return put(txn, tableTables, t)
	})
	if err != nil {
		return nil, apperr.Store("createTable", err)
	}
	return &t, nil
}

func (s *Store) UpdateTable(ctx context.Context, id string, fields models.TableFields) error {
	return s.write(func(txn *memdb.Txn) error {
		t, err := mustFind[models.Table](txn, "updateTable", tableTables, "table", id)
		if err != nil {
			return err
		}
		if fields.DisplayName != nil {
			t.DisplayName = *fields.DisplayName
		}
		if fields.QRCode != nil {
			t.QRCode = *fields.QRCode
		}
		if fields.Disabled != nil {
			t.Disabled = *fields.Disabled
		}
		t.UpdatedAt = s.now()
		return apperr.Store("updateTable", put(txn, tableTables, *t))
	})
}

func (s *Store) DeleteTable(ctx context.Context, id string) error {
	return s.write(func(txn *memdb.Txn) error {
		t, err := mustFind[models.Table](txn, "deleteTable", tableTables, "table", id)
		if err != nil {
			return err
		}
		if t.Occupied {
			return apperr.Store("deleteTable", fmt.Errorf("table %s is occupied", t.Name()))
		}
		return apperr.Store("deleteTable", txn.Delete(tableTables, t))
	})
}

// Customers

func (s *Store) FetchCustomersByTable(ctx context.Context, tableID string) ([]models.Customer, error) {
	customers, err := all[models.Customer](s.db.Txn(false), tableCustomers, "table_id", tableID)
	if err != nil {
		return nil, apperr.Store("fetchCustomersByTable", err)
	}
	slices.SortFunc(customers, func(a, b models.Customer) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return customers, nil
}

func (s *Store) CreateCustomer(ctx context.Context, fields models.CustomerFields) (*models.Customer, error) {
	var created models.Customer
	err := s.write(func(txn *memdb.Txn) error {
		t, err := mustFind[models.Table](txn, "createCustomer", tableTables, "table", fields.TableID)
		if err != nil {
			return err
		}
		if t.Disabled {
			return apperr.Store("createCustomer", fmt.Errorf("table %s is disabled", t.Name()))
		}
		now := s.now()
		created = models.Customer{
			ID:        models.NewID(),
			TableID:   t.ID,
			Name:      fields.Name,
			Phone:     fields.Phone,
			Email:     fields.Email,
			OrderNote: fields.OrderNote,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := put(txn, tableCustomers, created); err != nil {
			return apperr.Store("createCustomer", err)
		}
		t.Occupied = true
		t.UpdatedAt = now
		return apperr.Store("createCustomer", put(txn, tableTables, *t))
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) UpdateCustomers(ctx context.Context, updates []models.CustomerUpdate) error {
	return s.write(func(txn *memdb.Txn) error {
		for _, u := range updates {
			c, err := mustFind[models.Customer](txn, "updateCustomers", tableCustomers, "customer", u.ID)
			if err != nil {
				return err
			}
			c.Name, c.Phone, c.Email, c.OrderNote = u.Name, u.Phone, u.Email, u.OrderNote
			c.UpdatedAt = s.now()
			if err := put(txn, tableCustomers, *c); err != nil {
				return apperr.Store("updateCustomers", err)
			}
		}
		return nil
	})
}

func (s *Store) UnassignCustomer(ctx context.Context, customerID string) error {
	return s.write(func(txn *memdb.Txn) error {
		c, err := mustFind[models.Customer](txn, "unassignCustomer", tableCustomers, "customer", customerID)
		if err != nil {
			return err
		}
		tableID := c.TableID
		if tableID == "" {
			return nil
		}
		c.TableID = ""
		c.UpdatedAt = s.now()
		if err := put(txn, tableCustomers, *c); err != nil {
			return apperr.Store("unassignCustomer", err)
		}

		remaining, err := txn.First(tableCustomers, "table_id", tableID)
		if err != nil {
			return apperr.Store("unassignCustomer", err)
		}
		if remaining != nil {
			return nil
		}
		t, err := first[models.Table](txn, tableTables, "id", tableID)
		if err != nil || t == nil {
			return apperr.Store("unassignCustomer", err)
		}
		t.Occupied = false
		t.UpdatedAt = s.now()
		return apperr.Store("unassignCustomer", put(txn, tableTables, *t))
	})
}

// Carts

func activeCart(txn *memdb.Txn, tableID string) (*models.Cart, error) {
	carts, err := all[models.Cart](txn, tableCarts, "table_id", tableID)
	if err != nil {
		return nil, err
	}
	for _, c := range carts {
		if c.Status == models.CartActive {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) FetchActiveCart(ctx context.Context, tableID string) (*models.Cart, error) {
	const op = "fetchActiveCart"
	if c, err := activeCart(s.db.Txn(false), tableID); err != nil || c != nil {
		return c, apperr.Store(op, err)
	}

	var cart *models.Cart
	err := s.write(func(txn *memdb.Txn) error {
		if _, err := mustFind[models.Table](txn, op, tableTables, "table", tableID); err != nil {
			return err
		}
		existing, err := activeCart(txn, tableID)
		if err != nil {
			return apperr.Store(op, err)
		}
		if existing != nil {
			cart = existing
			return nil
		}
		now := s.now()
		cart = &models.Cart{
			ID:        models.NewID(),
			TableID:   tableID,
			ItemsJSON: "[]",
			Status:    models.CartActive,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return apperr.Store(op, put(txn, tableCarts, *cart))
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Store) UpdateCart(ctx context.Context, u models.CartUpdate) (int64, error) {
	const op = "updateCart"
	var version int64
	err := s.write(func(txn *memdb.Txn) error {
		c, err := mustFind[models.Cart](txn, op, tableCarts, "cart", u.CartID)
		if err != nil {
			return err
		}
		if c.Status != models.CartActive {
			return apperr.Store(op, fmt.Errorf("cart %s is checked out", c.ID))
		}
		if u.IfVersion != 0 && u.IfVersion != c.Version {
			return apperr.Conflict(op, "cart", c.ID)
		}
		c.ItemsJSON = u.ItemsJSON
		c.TotalAmount = u.Total
		c.Version++
		c.UpdatedAt = s.now()
		version = c.Version
		return apperr.Store(op, put(txn, tableCarts, *c))
	})
	return version, err
}

func (s *Store) Checkout(ctx context.Context, cartID string, method models.PaymentMethod) (*models.Order, error) {
	const op = "checkout"
	var order models.Order
	err := s.write(func(txn *memdb.Txn) error {
		c, err := mustFind[models.Cart](txn, op, tableCarts, "cart", cartID)
		if err != nil {
			return err
		}
		if c.Status != models.CartActive {
			return apperr.Store(op, fmt.Errorf("cart %s is checked out", c.ID))
		}
		lines, err := models.DecodeLines(c.ItemsJSON)
		if err != nil {
			return apperr.Store(op, err)
		}
		tableName := models.FallbackTableName(c.TableID)
		if t, _ := first[models.Table](txn, tableTables, "id", c.TableID); t != nil {
			tableName = t.Name()
		}

		now := s.now()
		sub, err := checkout.BuildOrder(*c, lines, method, tableName, now)
		if err != nil {
			return apperr.Store(op, err)
		}
		if err := put(txn, tableCarts, sub.Snapshot); err != nil {
			return apperr.Store(op, err)
		}
		if err := put(txn, tableOrders, sub.Order); err != nil {
			return apperr.Store(op, err)
		}
		for _, item := range sub.Items {
			if err := put(txn, tableItems, item); err != nil {
				return apperr.Store(op, err)
			}
		}

		c.ItemsJSON = "[]"
		c.TotalAmount = decimal.Zero
		c.Version++
		c.UpdatedAt = now
		order = sub.Order
		return apperr.Store(op, put(txn, tableCarts, *c))
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Orders

func (s *Store) FetchOrder(ctx context.Context, id string) (*models.Order, error) {
	return mustFind[models.Order](s.db.Txn(false), "fetchOrder", tableOrders, "order", id)
}

func sortItems(items []models.OrderItem) {
	slices.SortFunc(items, func(a, b models.OrderItem) int {
		return cmp.Or(
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.OrderID, b.OrderID),
			cmp.Compare(a.LineNo, b.LineNo),
		)
	})
}

func (s *Store) FetchOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	items, err := all[models.OrderItem](s.db.Txn(false), tableItems, "order_id", orderID)
	if err != nil {
		return nil, apperr.Store("fetchOrderItems", err)
	}
	sortItems(items)
	return items, nil
}

func (s *Store) FetchActiveOrderItems(ctx context.Context) ([]models.OrderItem, error) {
	const op = "fetchActiveOrderItems"
	txn := s.db.Txn(false)
	bills, err := all[models.Bill](txn, tableBills, "id")
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	settled := make(map[string]bool, len(bills))
	for _, b := range bills {
		if b.Status == models.BillConfirmed {
			settled[b.OrderID] = true
		}
	}
	items, err := all[models.OrderItem](txn, tableItems, "id")
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	items = slices.DeleteFunc(items, func(i models.OrderItem) bool { return settled[i.OrderID] })
	sortItems(items)
	return items, nil
}

func (s *Store) transition(op, itemID string, a itemflow.Action) error {
	return s.write(func(txn *memdb.Txn) error {
		item, err := mustFind[models.OrderItem](txn, op, tableItems, "order item", itemID)
		if err != nil {
			return err
		}
		if err := itemflow.Apply(item, a); err != nil {
			return apperr.Store(op, err)
		}
		item.UpdatedAt = s.now()
		return apperr.Store(op, put(txn, tableItems, *item))
	})
}

func (s *Store) MarkItemPrepared(ctx context.Context, itemID string) error {
	return s.transition("markItemPrepared", itemID, itemflow.MarkPrepared)
}

func (s *Store) MarkItemDelivered(ctx context.Context, itemID string) error {
	return s.transition("markItemDelivered", itemID, itemflow.MarkDelivered)
}

func (s *Store) UndoItemDelivery(ctx context.Context, itemID string) error {
	return s.transition("undoItemDelivery", itemID, itemflow.UndoDelivery)
}

// Bills

func (s *Store) FetchBillForOrder(ctx context.Context, orderID string) (*models.Bill, error) {
	const op = "fetchBillForOrder"
	b, err := first[models.Bill](s.db.Txn(false), tableBills, "order_id", orderID)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	if b == nil {
		return nil, apperr.NotFound(op, "bill for order", orderID)
	}
	return b, nil
}

func (s *Store) CreateBill(ctx context.Context, bill *models.Bill) error {
	const op = "createBill"
	return s.write(func(txn *memdb.Txn) error {
		if _, err := mustFind[models.Order](txn, op, tableOrders, "order", bill.OrderID); err != nil {
			return err
		}
		existing, err := txn.First(tableBills, "order_id", bill.OrderID)
		if err != nil {
			return apperr.Store(op, err)
		}
		if existing != nil {
			return apperr.Conflict(op, "bill for order", bill.OrderID)
		}
		if !bill.Status.Valid() {
			return apperr.Store(op, fmt.Errorf("invalid bill status %q", bill.Status))
		}
		if bill.ID == "" {
			bill.ID = models.NewID()
		}
		bill.Number = fmt.Sprintf("BILL-%05d", s.billSeq.Add(1))
		bill.Version = 1
		now := s.now()
		bill.CreatedAt, bill.UpdatedAt = now, now
		return apperr.Store(op, put(txn, tableBills, *bill))
	})
}

func (s *Store) UpdateBillStatus(ctx context.Context, billID string, status models.BillStatus, ifVersion int64) error {
	const op = "updateBillStatus"
	if !status.Valid() {
		return apperr.Store(op, fmt.Errorf("invalid bill status %q", status))
	}
	return s.write(func(txn *memdb.Txn) error {
		b, err := mustFind[models.Bill](txn, op, tableBills, "bill", billID)
		if err != nil {
			return err
		}
		if ifVersion != 0 && ifVersion != b.Version {
			return apperr.Conflict(op, "bill", billID)
		}
		b.Status = status
		b.Version++
		b.UpdatedAt = s.now()
		return apperr.Store(op, put(txn, tableBills, *b))
	})
}

func (s *Store) SendBillEmail(ctx context.Context, billID, address string) error {
	const op = "sendBillEmail"
	b, err := mustFind[models.Bill](s.db.Txn(false), op, tableBills, "bill", billID)
	if err != nil {
		return err
	}
	if s.mailer == nil {
		return apperr.Store(op, errors.New("no mailer configured"))
	}
	return apperr.Store(op, s.mailer.SendBill(ctx, b, address))
}

// Menu and feedback

// SeedMenu inserts or replaces menu items.
func (s *Store) SeedMenu(items ...models.MenuItem) error {
	return s.write(func(txn *memdb.Txn) error {
		for _, m := range items {
			if m.ID == "" {
				m.ID = models.NewID()
			}
			if err := put(txn, tableMenu, m); err != nil {
				return apperr.Store("seedMenu", err)
			}
		}
		return nil
	})
}

func (s *Store) FetchMenuItems(ctx context.Context, category string) ([]models.MenuItem, error) {
	txn := s.db.Txn(false)
	var (
		items []models.MenuItem
		err   error
	)
	if category == "" || category == models.MenuCategoryAll {
		items, err = all[models.MenuItem](txn, tableMenu, "id")
	} else {
		items, err = all[models.MenuItem](txn, tableMenu, "category", category)
	}
	if err != nil {
		return nil, apperr.Store("fetchMenuItems", err)
	}
	items = slices.DeleteFunc(items, func(m models.MenuItem) bool { return !m.Available })
	slices.SortFunc(items, func(a, b models.MenuItem) int {
		return cmp.Or(cmp.Compare(a.Category, b.Category), cmp.Compare(a.Name, b.Name))
	})
	return items, nil
}

func (s *Store) SubmitDishFeedback(ctx context.Context, fb models.DishFeedback) error {
	const op = "submitDishFeedback"
	if fb.Rating < 1 || fb.Rating > 5 {
		return apperr.Store(op, fmt.Errorf("rating %d out of range", fb.Rating))
	}
	return s.write(func(txn *memdb.Txn) error {
		if _, err := mustFind[models.Bill](txn, op, tableBills, "bill", fb.BillID); err != nil {
			return err
		}
		if fb.ID == "" {
			fb.ID = models.NewID()
		}
		return apperr.Store(op, put(txn, tableFeedback, fb))
	})
}

// Feedback returns the feedback stored for a bill.
func (s *Store) Feedback(billID string) ([]models.DishFeedback, error) {
	return all[models.DishFeedback](s.db.Txn(false), tableFeedback, "bill_id", billID)
}
