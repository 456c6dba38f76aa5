package repository

import (
	"context"
	"time"

	"github.com/example/dinein/pkg/apperr"
	"github.com/example/dinein/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EntityKind names what an audit entry's EntityID refers to.
type EntityKind string

const (
	KindTable     EntityKind = "table"
	KindCustomer  EntityKind = "customer"
	KindOrder     EntityKind = "order"
	KindOrderItem EntityKind = "order_item"
	KindBill      EntityKind = "bill"
)

// AuditAction is a recorded state change.
type AuditAction string

const (
	ActionCustomerSeated     AuditAction = "customer_seated"
	ActionCustomerUnassigned AuditAction = "customer_unassigned"
	ActionOrderPlaced        AuditAction = "order_placed"
	ActionItemPrepared       AuditAction = "item_prepared"
	ActionItemDelivered      AuditAction = "item_delivered"
	ActionItemDeliveryUndone AuditAction = "item_delivery_undone"
	ActionBillCreated        AuditAction = "bill_created"
	ActionBillStatusChanged  AuditAction = "bill_status_changed"
)

var actionKinds = map[AuditAction]EntityKind{
	ActionCustomerSeated:     KindTable,
	ActionCustomerUnassigned: KindCustomer,
	ActionOrderPlaced:        KindOrder,
	ActionItemPrepared:       KindOrderItem,
	ActionItemDelivered:      KindOrderItem,
	ActionItemDeliveryUndone: KindOrderItem,
	ActionBillCreated:        KindBill,
	ActionBillStatusChanged:  KindBill,
}

// Kind is the entity kind the action is recorded against.
func (a AuditAction) Kind() EntityKind {
	return actionKinds[a]
}

func (k EntityKind) Valid() bool {
	switch k {
	case KindTable, KindCustomer, KindOrder, KindOrderItem, KindBill:
		return true
	}
	return false
}

const (
	DefaultAuditLimit int64 = 50
	MaxAuditLimit     int64 = 200
)

// AuditLog is one state change recorded against a table, customer, order,
// order item or bill.
type AuditLog struct {
	ID        string      `bson:"_id,omitempty" json:"id,omitempty"`
	Service   string      `bson:"service" json:"service"`
	Action    AuditAction `bson:"action" json:"action"`
	Kind      EntityKind  `bson:"entity_kind" json:"entity_kind"`
	EntityID  string      `bson:"entity_id" json:"entity_id"`
	Data      bson.M      `bson:"data" json:"data"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
}

// AuditQuery selects the audit trail of one entity. Kind and Action narrow it
// further when set. Limit is clamped to MaxAuditLimit; zero means the default.
type AuditQuery struct {
	EntityID string
	Kind     EntityKind
	Action   AuditAction
	Limit    int64
}

func (q AuditQuery) Validate() error {
	if q.EntityID == "" {
		return apperr.Validation("entity_id", "Entity id is required")
	}
	if q.Kind != "" && !q.Kind.Valid() {
		return apperr.Validation("kind", "Unknown entity kind "+string(q.Kind))
	}
	if q.Action != "" && q.Action.Kind() == "" {
		return apperr.Validation("action", "Unknown audit action "+string(q.Action))
	}
	if q.Limit < 0 {
		return apperr.Validation("limit", "limit must be a positive integer")
	}
	return nil
}

func (q AuditQuery) filter() bson.M {
	f := bson.M{"entity_id": q.EntityID}
	if q.Kind != "" {
		f["entity_kind"] = q.Kind
	}
	if q.Action != "" {
		f["action"] = q.Action
	}
	return f
}

func (q AuditQuery) limit() int64 {
	switch {
	case q.Limit == 0:
		return DefaultAuditLimit
	case q.Limit > MaxAuditLimit:
		return MaxAuditLimit
	}
	return q.Limit
}

type MongoRepository struct {
	client *mongo.Client
	audit  *mongo.Collection
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	m := &MongoRepository{
		client: client,
		audit:  client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return m, nil
}

// ensureIndexes backs the per-entity trail query.
func (m *MongoRepository) ensureIndexes(ctx context.Context) error {
	_, err := m.audit.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "entity_id", Value: 1},
			{Key: "entity_kind", Value: 1},
			{Key: "created_at", Value: -1},
		},
	})
	return err
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	if log.Kind == "" {
		log.Kind = log.Action.Kind()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	_, err := m.audit.InsertOne(ctx, log)
	return err
}

// GetAuditLogs returns the newest matching entries first.
func (m *MongoRepository) GetAuditLogs(ctx context.Context, q AuditQuery) ([]*AuditLog, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(q.limit())

	cursor, err := m.audit.Find(ctx, q.filter(), opts)
	if err != nil {
		return nil, apperr.Store("getAuditLogs", err)
	}
	defer cursor.Close(ctx)

	logs := []*AuditLog{}
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, apperr.Store("getAuditLogs", err)
	}
	return logs, nil
}
