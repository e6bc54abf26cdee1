package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/tienbob/Tubex-sub003/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Mongo is the MongoDB-backed Store.
type Mongo struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// Connect dials MongoDB and verifies the primary is reachable.
func Connect(ctx context.Context, cfg *config.MongoConfig, log *zap.Logger) (*Mongo, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	if log != nil {
		log.Info("Document store connected successfully", zap.String("database", cfg.Database))
	}

	return &Mongo{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: timeout,
	}, nil
}

func (m *Mongo) op(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.timeout)
}

// SaveOrder upserts the order copy keyed by order_id.
func (m *Mongo) SaveOrder(ctx context.Context, doc *OrderDocument) error {
	ctx, cancel := m.op(ctx)
	defer cancel()
	stamp(&doc.UpdatedAt)
	_, err := m.db.Collection(CollectionOrders).UpdateOne(ctx,
		bson.M{"order_id": doc.OrderID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *Mongo) RecordAnalytics(ctx context.Context, ev *AnalyticsEvent) error {
	ctx, cancel := m.op(ctx)
	defer cancel()
	stamp(&ev.OccurredAt)
	_, err := m.db.Collection(CollectionAnalytics).InsertOne(ctx, ev)
	return err
}

func (m *Mongo) RecordAudit(ctx context.Context, ev *AuditEvent) error {
	ctx, cancel := m.op(ctx)
	defer cancel()
	stamp(&ev.OccurredAt)
	_, err := m.db.Collection(CollectionAuditLogs).InsertOne(ctx, ev)
	return err
}

func (m *Mongo) RecordActivity(ctx context.Context, a *CustomerActivity) error {
	ctx, cancel := m.op(ctx)
	defer cancel()
	stamp(&a.OccurredAt)
	_, err := m.db.Collection(CollectionCustomerActivities).InsertOne(ctx, a)
	return err
}

// AuditTrail returns the newest audit events of a company.
func (m *Mongo) AuditTrail(ctx context.Context, companyID string, limit int64) ([]AuditEvent, error) {
	var out []AuditEvent
	err := m.findNewest(ctx, CollectionAuditLogs, bson.M{"company_id": companyID}, limit, &out)
	return out, err
}

// CustomerActivities returns the newest activity of a customer user.
func (m *Mongo) CustomerActivities(ctx context.Context, customerID string, limit int64) ([]CustomerActivity, error) {
	var out []CustomerActivity
	err := m.findNewest(ctx, CollectionCustomerActivities, bson.M{"customer_id": customerID}, limit, &out)
	return out, err
}

func (m *Mongo) findNewest(ctx context.Context, collection string, filter bson.M, limit int64, dest interface{}) error {
	ctx, cancel := m.op(ctx)
	defer cancel()
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	cur, err := m.db.Collection(collection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return err
	}
	return cur.All(ctx, dest)
}

// EnsureIndexes creates the indexes every collection is queried by.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := m.op(ctx)
	defer cancel()
	for collection, models := range indexModels() {
		if _, err := m.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		CollectionOrders: {
			{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		},
		CollectionAnalytics: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "event_type", Value: 1}, {Key: "occurred_at", Value: -1}}},
		},
		CollectionAuditLogs: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
			{Keys: bson.D{{Key: "entity", Value: 1}, {Key: "entity_id", Value: 1}}},
		},
		CollectionCustomerActivities: {
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		},
	}
}

func (m *Mongo) Ping(ctx context.Context) error {
	ctx, cancel := m.op(ctx)
	defer cancel()
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
