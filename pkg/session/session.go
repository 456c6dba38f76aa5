// Package session manages tables and the customers seated at them.
package session

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/store"
	"go.uber.org/zap"
)

const (
	ErrMsgNameRequired  = "Customer name is required"
	ErrMsgInvalidEmail  = "Please enter a valid email address"
	ErrMsgTableDisabled = "Table is disabled"
)

type Store interface {
	store.TableStore
	store.CustomerStore
}

type Manager struct {
	store  Store
	logger *zap.Logger
	rand   func(n int) int
}

func NewManager(s Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: s, logger: logger, rand: rand.IntN}
}

func validateCustomer(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("name", ErrMsgNameRequired)
	}
	if email != "" && !models.ValidEmail(email) {
		return apperr.Validation("email", ErrMsgInvalidEmail)
	}
	return nil
}

// CreateCustomer seats a customer at a table. The first customer turns the
// table occupied; later ones join the same party.
func (m *Manager) CreateCustomer(ctx context.Context, fields models.CustomerFields) (*models.Customer, error) {
	fields.Name = strings.TrimSpace(fields.Name)
	fields.Email = strings.TrimSpace(fields.Email)
	if err := validateCustomer(fields.Name, fields.Email); err != nil {
		return nil, err
	}
	if fields.TableID == "" {
		return nil, apperr.Validation("table_id", "Please select a table")
	}

	table, err := m.store.FetchTable(ctx, fields.TableID)
	if err != nil {
		return nil, err
	}
	if table.Disabled {
		return nil, apperr.Validation("table_id", ErrMsgTableDisabled)
	}

	c, err := m.store.CreateCustomer(ctx, fields)
	if err != nil {
		m.logger.Error("Failed to create customer", zap.String("table_id", fields.TableID), zap.Error(err))
		return nil, err
	}
	m.logger.Info("Customer seated",
		zap.String("customer_id", c.ID),
		zap.String("table", table.Name()))
	return c, nil
}

func (m *Manager) UnassignCustomer(ctx context.Context, customerID string) error {
	if customerID == "" {
		return apperr.Validation("customer_id", "Customer id is required")
	}
	return m.store.UnassignCustomer(ctx, customerID)
}

// UpdateCustomers applies edits in bulk after validating every one of them.
func (m *Manager) UpdateCustomers(ctx context.Context, updates []models.CustomerUpdate) error {
	for i := range updates {
		updates[i].Name = strings.TrimSpace(updates[i].Name)
		updates[i].Email = strings.TrimSpace(updates[i].Email)
		if err := validateCustomer(updates[i].Name, updates[i].Email); err != nil {
			return err
		}
	}
	if len(updates) == 0 {
		return nil
	}
	return m.store.UpdateCustomers(ctx, updates)
}

func (m *Manager) Customers(ctx context.Context, tableID string) ([]models.Customer, error) {
	return m.store.FetchCustomersByTable(ctx, tableID)
}

// CustomerName is the name of the first customer seated at a table, or
// "Guest" when nobody is.
func (m *Manager) CustomerName(ctx context.Context, tableID string) (string, error) {
	customers, err := m.store.FetchCustomersByTable(ctx, tableID)
	if err != nil {
		return "", err
	}
	if len(customers) == 0 {
		return "Guest", nil
	}
	return customers[0].Name, nil
}

func (m *Manager) CreateTable(ctx context.Context, displayName string) (*models.Table, error) {
	return m.store.CreateTable(ctx, strings.TrimSpace(displayName))
}

func (m *Manager) RenameTable(ctx context.Context, tableID, displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return apperr.Validation("display_name", "Table name is required")
	}
	return m.store.UpdateTable(ctx, tableID, models.TableFields{DisplayName: &displayName})
}

func (m *Manager) SetQRCode(ctx context.Context, tableID, code string) error {
	return m.store.UpdateTable(ctx, tableID, models.TableFields{QRCode: &code})
}

func (m *Manager) DisableTable(ctx context.Context, tableID string) error {
	disabled := true
	return m.store.UpdateTable(ctx, tableID, models.TableFields{Disabled: &disabled})
}

func (m *Manager) EnableTable(ctx context.Context, tableID string) error {
	disabled := false
	return m.store.UpdateTable(ctx, tableID, models.TableFields{Disabled: &disabled})
}

// DeleteTable removes a table that has nobody seated at it.
func (m *Manager) DeleteTable(ctx context.Context, tableID string) error {
	table, err := m.store.FetchTable(ctx, tableID)
	if err != nil {
		return err
	}
	if table.Occupied {
		return apperr.Validation("table_id", "Cannot delete an occupied table")
	}
	return m.store.DeleteTable(ctx, tableID)
}

func (m *Manager) Tables(ctx context.Context) ([]models.Table, error) {
	return m.store.FetchTables(ctx)
}

// VisibleTables lists tables that are not disabled.
func (m *Manager) VisibleTables(ctx context.Context) ([]models.Table, error) {
	tables, err := m.store.FetchTables(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(tables, func(t models.Table) bool { return t.Disabled }), nil
}

// TableName resolves a display name, falling back to a short id form when
// the table cannot be read.
func (m *Manager) TableName(ctx context.Context, tableID string) string {
	t, err := m.store.FetchTable(ctx, tableID)
	if err != nil {
		return models.FallbackTableName(tableID)
	}
	return t.Name()
}

// PickFreeTable chooses a random free table, as a QR scan at the door would.
func (m *Manager) PickFreeTable(ctx context.Context) (*models.Table, error) {
	tables, err := m.store.FetchTables(ctx)
	if err != nil {
		return nil, err
	}
	free := slices.DeleteFunc(tables, func(t models.Table) bool { return !t.Free() })
	if len(free) == 0 {
		return nil, apperr.Validation("table_id", "No free tables available")
	}
	t := free[m.rand(len(free))]
	return &t, nil
}
