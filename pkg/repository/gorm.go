package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/checkout"
	"github.com/example/dinein/pkg/config"
	"github.com/example/dinein/pkg/itemflow"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ store.RecordStore = (*GormStore)(nil)

// GormStore is the MySQL-backed Record Store.
type GormStore struct {
	db     *gorm.DB
	mailer store.Mailer
	logger *zap.Logger
}

func NewMySQLStore(cfg *config.MySQLConfig, mailer store.Mailer, logger *zap.Logger) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	if err := db.AutoMigrate(
		&models.Table{},
		&models.Customer{},
		&models.Cart{},
		&models.Order{},
		&models.OrderItem{},
		&models.Bill{},
		&models.MenuItem{},
		&models.DishFeedback{},
		&sequence{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	if err := seedSequences(db); err != nil {
		return nil, fmt.Errorf("failed to seed sequences: %w", err)
	}

	return NewGormStore(db, mailer, logger), nil
}

func NewGormStore(db *gorm.DB, mailer store.Mailer, logger *zap.Logger) *GormStore {
	return &GormStore{db: db, mailer: mailer, logger: logger.Named("gorm-store")}
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// sequence is a named counter. Numbers are drawn under a row lock so
// concurrent transactions never read the same value.
type sequence struct {
	Name  string `gorm:"primaryKey;type:varchar(32)"`
	Value int64  `gorm:"not null;default:0"`
}

func (sequence) TableName() string {
	return "sequences"
}

const (
	seqBills  = "bills"
	seqTables = "tables"
)

// seedSequences creates missing counters, starting them at the current row
// count so numbering continues on an existing schema.
func seedSequences(db *gorm.DB) error {
	for name, model := range map[string]any{seqBills: &models.Bill{}, seqTables: &models.Table{}} {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			return err
		}
		err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&sequence{Name: name, Value: n}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// nextNumber increments the named counter inside tx and returns the new value.
// The lock is held until tx ends.
func nextNumber(tx *gorm.DB, name string) (int64, error) {
	var seq sequence
	err := forUpdate(tx).Where("name = ?", name).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = sequence{Name: name}
		err = tx.Create(&seq).Error
	}
	if err != nil {
		return 0, err
	}
	seq.Value++
	if err := tx.Model(&seq).Update("value", seq.Value).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

// find loads one record by id, mapping a missing row to a NotFound StoreError.
func find[T any](tx *gorm.DB, op, what, id string) (*T, error) {
	var v T
	if err := tx.Where("id = ?", id).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(op, what, id)
		}
		return nil, apperr.Store(op, err)
	}
	return &v, nil
}

// Tables

func (s *GormStore) FetchTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := s.db.WithContext(ctx).Order("created_at, display_name").Find(&tables).Error; err != nil {
		return nil, apperr.Store("fetchTables", err)
	}
	return tables, nil
}

func (s *GormStore) FetchTable(ctx context.Context, id string) (*models.Table, error) {
	return find[models.Table](s.db.WithContext(ctx), "fetchTable", "table", id)
}

func (s *GormStore) CreateTable(ctx context.Context, displayName string) (*models.Table, error) {
	const op = "createTable"
	t := &models.Table{ID: models.NewID(), DisplayName: displayName}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.DisplayName == "" {
			n, err := nextNumber(tx, seqTables)
			if err != nil {
				return err
			}
			t.DisplayName = fmt.Sprintf("T-%d", n)
		}
		return tx.Create(t).Error
	})
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	return t, nil
}

func (s *GormStore) UpdateTable(ctx context.Context, id string, fields models.TableFields) error {
	const op = "updateTable"
	updates := map[string]any{}
	if fields.DisplayName != nil {
		updates["display_name"] = *fields.DisplayName
	}
	if fields.QRCode != nil {
		updates["qr_code"] = *fields.QRCode
	}
	if fields.Disabled != nil {
		updates["disabled"] = *fields.Disabled
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := find[models.Table](forUpdate(tx), op, "table", id)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return apperr.Store(op, tx.Model(t).Updates(updates).Error)
	})
}

func (s *GormStore) DeleteTable(ctx context.Context, id string) error {
	const op = "deleteTable"
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := find[models.Table](forUpdate(tx), op, "table", id)
		if err != nil {
			return err
		}
		if t.Occupied {
			return apperr.Store(op, fmt.Errorf("table %s is occupied", t.Name()))
		}
		return apperr.Store(op, tx.Delete(t).Error)
	})
}

// Customers

func (s *GormStore) FetchCustomersByTable(ctx context.Context, tableID string) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.WithContext(ctx).Where("table_id = ?", tableID).Order("created_at").Find(&customers).Error
	if err != nil {
		return nil, apperr.Store("fetchCustomersByTable", err)
	}
	return customers, nil
}

func (s *GormStore) CreateCustomer(ctx context.Context, fields models.CustomerFields) (*models.Customer, error) {
	const op = "createCustomer"
	var c *models.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := find[models.Table](forUpdate(tx), op, "table", fields.TableID)
		if err != nil {
			return err
		}
		if t.Disabled {
			return apperr.Store(op, fmt.Errorf("table %s is disabled", t.Name()))
		}
		c = &models.Customer{
			ID:        models.NewID(),
			TableID:   t.ID,
			Name:      fields.Name,
			Phone:     fields.Phone,
			Email:     fields.Email,
			OrderNote: fields.OrderNote,
		}
		if err := tx.Create(c).Error; err != nil {
			return apperr.Store(op, err)
		}
		return apperr.Store(op, tx.Model(t).Update("occupied", true).Error)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GormStore) UpdateCustomers(ctx context.Context, updates []models.CustomerUpdate) error {
	const op = "updateCustomers"
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			c, err := find[models.Customer](tx, op, "customer", u.ID)
			if err != nil {
				return err
			}
			err = tx.Model(c).Updates(map[string]any{
				"name":       u.Name,
				"phone":      u.Phone,
				"email":      u.Email,
				"order_note": u.OrderNote,
			}).Error
			if err != nil {
				return apperr.Store(op, err)
			}
		}
		return nil
	})
}

func (s *GormStore) UnassignCustomer(ctx context.Context, customerID string) error {
	const op = "unassignCustomer"
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := find[models.Customer](forUpdate(tx), op, "customer", customerID)
		if err != nil {
			return err
		}
		if c.TableID == "" {
			return nil
		}
		if err := tx.Model(c).Update("table_id", "").Error; err != nil {
			return apperr.Store(op, err)
		}

		var remaining int64
		if err := tx.Model(&models.Customer{}).Where("table_id = ?", c.TableID).Count(&remaining).Error; err != nil {
			return apperr.Store(op, err)
		}
		if remaining > 0 {
			return nil
		}
		err = tx.Model(&models.Table{}).Where("id = ?", c.TableID).Update("occupied", false).Error
		return apperr.Store(op, err)
	})
}

// Carts

func (s *GormStore) FetchActiveCart(ctx context.Context, tableID string) (*models.Cart, error) {
	const op = "fetchActiveCart"
	var cart models.Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := find[models.Table](forUpdate(tx), op, "table", tableID); err != nil {
			return err
		}
		err := tx.Where("table_id = ? AND status = ?", tableID, models.CartActive).First(&cart).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Store(op, err)
		}
		cart = models.Cart{
			ID:          models.NewID(),
			TableID:     tableID,
			ItemsJSON:   "[]",
			TotalAmount: decimal.Zero,
			Status:      models.CartActive,
			Version:     1,
		}
		return apperr.Store(op, tx.Create(&cart).Error)
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *GormStore) UpdateCart(ctx context.Context, u models.CartUpdate) (int64, error) {
	const op = "updateCart"
	var version int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := find[models.Cart](forUpdate(tx), op, "cart", u.CartID)
		if err != nil {
			return err
		}
		if c.Status != models.CartActive {
			return apperr.Store(op, fmt.Errorf("cart %s is checked out", c.ID))
		}
		if u.IfVersion != 0 && u.IfVersion != c.Version {
			return apperr.Conflict(op, "cart", c.ID)
		}
		version = c.Version + 1
		return apperr.Store(op, tx.Model(c).Updates(map[string]any{
			"items":        u.ItemsJSON,
			"total_amount": u.Total,
			"version":      version,
		}).Error)
	})
	return version, err
}

func (s *GormStore) Checkout(ctx context.Context, cartID string, method models.PaymentMethod) (*models.Order, error) {
	const op = "checkout"
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := find[models.Cart](forUpdate(tx), op, "cart", cartID)
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
		if t, err := find[models.Table](tx, op, "table", c.TableID); err == nil {
			tableName = t.Name()
		}

		sub, err := checkout.BuildOrder(*c, lines, method, tableName, tx.NowFunc())
		if err != nil {
			return apperr.Store(op, err)
		}
		if err := tx.Create(&sub.Snapshot).Error; err != nil {
			return apperr.Store(op, err)
		}
		if err := tx.Create(&sub.Order).Error; err != nil {
			return apperr.Store(op, err)
		}
		if err := tx.Create(&sub.Items).Error; err != nil {
			return apperr.Store(op, err)
		}
		err = tx.Model(c).Updates(map[string]any{
			"items":        "[]",
			"total_amount": decimal.Zero,
			"version":      c.Version + 1,
		}).Error
		if err != nil {
			return apperr.Store(op, err)
		}
		order = sub.Order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("table_id", order.TableID),
		zap.String("total", order.TotalAmount.StringFixed(2)))
	return &order, nil
}

// Orders

func (s *GormStore) FetchOrder(ctx context.Context, id string) (*models.Order, error) {
	return find[models.Order](s.db.WithContext(ctx), "fetchOrder", "order", id)
}

func (s *GormStore) FetchOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("line_no").Find(&items).Error
	if err != nil {
		return nil, apperr.Store("fetchOrderItems", err)
	}
	return items, nil
}

func (s *GormStore) FetchActiveOrderItems(ctx context.Context) ([]models.OrderItem, error) {
	db := s.db.WithContext(ctx)
	settled := db.Model(&models.Bill{}).Select("order_id").Where("status = ?", models.BillConfirmed)

	var items []models.OrderItem
	err := db.Where("order_id NOT IN (?)", settled).Order("created_at, order_id, line_no").Find(&items).Error
	if err != nil {
		return nil, apperr.Store("fetchActiveOrderItems", err)
	}
	return items, nil
}

func (s *GormStore) transition(ctx context.Context, op, itemID string, a itemflow.Action) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := find[models.OrderItem](forUpdate(tx), op, "order item", itemID)
		if err != nil {
			return err
		}
		if err := itemflow.Apply(item, a); err != nil {
			return apperr.Store(op, err)
		}
		return apperr.Store(op, tx.Model(item).Update("status", item.Status).Error)
	})
}

func (s *GormStore) MarkItemPrepared(ctx context.Context, itemID string) error {
	return s.transition(ctx, "markItemPrepared", itemID, itemflow.MarkPrepared)
}

func (s *GormStore) MarkItemDelivered(ctx context.Context, itemID string) error {
	return s.transition(ctx, "markItemDelivered", itemID, itemflow.MarkDelivered)
}

func (s *GormStore) UndoItemDelivery(ctx context.Context, itemID string) error {
	return s.transition(ctx, "undoItemDelivery", itemID, itemflow.UndoDelivery)
}

// Bills

func (s *GormStore) FetchBillForOrder(ctx context.Context, orderID string) (*models.Bill, error) {
	const op = "fetchBillForOrder"
	var b models.Bill
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(op, "bill for order", orderID)
		}
		return nil, apperr.Store(op, err)
	}
	return &b, nil
}

func (s *GormStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	const op = "createBill"
	if !bill.Status.Valid() {
		return apperr.Store(op, fmt.Errorf("invalid bill status %q", bill.Status))
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := find[models.Order](forUpdate(tx), op, "order", bill.OrderID); err != nil {
			return err
		}
		var existing int64
		if err := tx.Model(&models.Bill{}).Where("order_id = ?", bill.OrderID).Count(&existing).Error; err != nil {
			return apperr.Store(op, err)
		}
		if existing > 0 {
			return apperr.Conflict(op, "bill for order", bill.OrderID)
		}
		n, err := nextNumber(tx, seqBills)
		if err != nil {
			return apperr.Store(op, err)
		}
		if bill.ID == "" {
			bill.ID = models.NewID()
		}
		bill.Number = fmt.Sprintf("BILL-%05d", n)
		bill.Version = 1
		return apperr.Store(op, tx.Create(bill).Error)
	})
}

func (s *GormStore) UpdateBillStatus(ctx context.Context, billID string, status models.BillStatus, ifVersion int64) error {
	const op = "updateBillStatus"
	if !status.Valid() {
		return apperr.Store(op, fmt.Errorf("invalid bill status %q", status))
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := find[models.Bill](forUpdate(tx), op, "bill", billID)
		if err != nil {
			return err
		}
		if ifVersion != 0 && ifVersion != b.Version {
			return apperr.Conflict(op, "bill", billID)
		}
		return apperr.Store(op, tx.Model(b).Updates(map[string]any{
			"status":  status,
			"version": b.Version + 1,
		}).Error)
	})
}

func (s *GormStore) SendBillEmail(ctx context.Context, billID, address string) error {
	const op = "sendBillEmail"
	b, err := find[models.Bill](s.db.WithContext(ctx), op, "bill", billID)
	if err != nil {
		return err
	}
	if s.mailer == nil {
		return apperr.Store(op, errors.New("no mailer configured"))
	}
	return apperr.Store(op, s.mailer.SendBill(ctx, b, address))
}

// Menu and feedback

func (s *GormStore) FetchMenuItems(ctx context.Context, category string) ([]models.MenuItem, error) {
	q := s.db.WithContext(ctx).Where("available = ?", true)
	if category != "" && category != models.MenuCategoryAll {
		q = q.Where("category = ?", category)
	}
	var items []models.MenuItem
	if err := q.Order("category, name").Find(&items).Error; err != nil {
		return nil, apperr.Store("fetchMenuItems", err)
	}
	return items, nil
}

func (s *GormStore) SubmitDishFeedback(ctx context.Context, fb models.DishFeedback) error {
	const op = "submitDishFeedback"
	if fb.Rating < 1 || fb.Rating > 5 {
		return apperr.Store(op, fmt.Errorf("rating %d out of range", fb.Rating))
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := find[models.Bill](tx, op, "bill", fb.BillID); err != nil {
			return err
		}
		if fb.ID == "" {
			fb.ID = models.NewID()
		}
		return apperr.Store(op, tx.Create(&fb).Error)
	})
}
