package repository

import (
	"context"
	"sync"

	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Auditor persists audit entries.
type Auditor interface {
	CreateAuditLog(ctx context.Context, log *AuditLog) error
}

// AuditedStore records every successful state change of the wrapped store.
// Entries are written in the background and a failed write is only logged.
type AuditedStore struct {
	store.RecordStore
	auditor Auditor
	service string
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewAuditedStore(inner store.RecordStore, auditor Auditor, service string, logger *zap.Logger) *AuditedStore {
	return &AuditedStore{
		RecordStore: inner,
		auditor:     auditor,
		service:     service,
		logger:      logger.Named("audit"),
	}
}

func (s *AuditedStore) record(action AuditAction, entityID string, data bson.M) {
	entry := &AuditLog{
		Service:  s.service,
		Action:   action,
		Kind:     action.Kind(),
		EntityID: entityID,
		Data:     data,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.auditor.CreateAuditLog(context.Background(), entry); err != nil {
			s.logger.Warn("Failed to write audit log",
				zap.String("action", string(action)),
				zap.String("entity_id", entityID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until pending audit writes finish.
func (s *AuditedStore) Wait() {
	s.wg.Wait()
}

func (s *AuditedStore) CreateCustomer(ctx context.Context, fields models.CustomerFields) (*models.Customer, error) {
	c, err := s.RecordStore.CreateCustomer(ctx, fields)
	if err == nil {
		s.record(ActionCustomerSeated, c.TableID, bson.M{"customer_id": c.ID, "name": c.Name})
	}
	return c, err
}

func (s *AuditedStore) UnassignCustomer(ctx context.Context, customerID string) error {
	err := s.RecordStore.UnassignCustomer(ctx, customerID)
	if err == nil {
		s.record(ActionCustomerUnassigned, customerID, nil)
	}
	return err
}

func (s *AuditedStore) Checkout(ctx context.Context, cartID string, method models.PaymentMethod) (*models.Order, error) {
	o, err := s.RecordStore.Checkout(ctx, cartID, method)
	if err == nil {
		s.record(ActionOrderPlaced, o.ID, bson.M{
			"cart_id":        cartID,
			"table_id":       o.TableID,
			"payment_method": string(method),
			"total":          o.TotalAmount.StringFixed(2),
		})
	}
	return o, err
}

func (s *AuditedStore) MarkItemPrepared(ctx context.Context, itemID string) error {
	err := s.RecordStore.MarkItemPrepared(ctx, itemID)
	if err == nil {
		s.record(ActionItemPrepared, itemID, bson.M{"status": string(models.ItemPrepared)})
	}
	return err
}

func (s *AuditedStore) MarkItemDelivered(ctx context.Context, itemID string) error {
	err := s.RecordStore.MarkItemDelivered(ctx, itemID)
	if err == nil {
		s.record(ActionItemDelivered, itemID, bson.M{"status": string(models.ItemDelivered)})
	}
	return err
}

func (s *AuditedStore) UndoItemDelivery(ctx context.Context, itemID string) error {
	err := s.RecordStore.UndoItemDelivery(ctx, itemID)
	if err == nil {
		s.record(ActionItemDeliveryUndone, itemID, bson.M{"status": string(models.ItemPrepared)})
	}
	return err
}

func (s *AuditedStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	err := s.RecordStore.CreateBill(ctx, bill)
	if err == nil {
		s.record(ActionBillCreated, bill.ID, bson.M{
			"order_id": bill.OrderID,
			"number":   bill.Number,
			"total":    bill.TotalAmount.StringFixed(2),
		})
	}
	return err
}

func (s *AuditedStore) UpdateBillStatus(ctx context.Context, billID string, status models.BillStatus, ifVersion int64) error {
	err := s.RecordStore.UpdateBillStatus(ctx, billID, status, ifVersion)
	if err == nil {
		s.record(ActionBillStatusChanged, billID, bson.M{"status": string(status)})
	}
	return err
}
