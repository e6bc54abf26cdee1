// Package docstore keeps schema-flexible copies and event streams next to
// the relational data: denormalized orders, analytics events, audit events
// and customer activity.
package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	CollectionOrders             = "orders"
	CollectionAnalytics          = "analytics"
	CollectionAuditLogs          = "audit_logs"
	CollectionCustomerActivities = "customer_activities"
)

// Store is the document store used by services. Writes are best effort;
// callers log failures instead of failing the request.
type Store interface {
	SaveOrder(ctx context.Context, doc *OrderDocument) error
	RecordAnalytics(ctx context.Context, ev *AnalyticsEvent) error
	RecordAudit(ctx context.Context, ev *AuditEvent) error
	RecordActivity(ctx context.Context, a *CustomerActivity) error
	AuditTrail(ctx context.Context, companyID string, limit int64) ([]AuditEvent, error)
	CustomerActivities(ctx context.Context, customerID string, limit int64) ([]CustomerActivity, error)
	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// OrderItemDocument is one line of a denormalized order.
type OrderItemDocument struct {
	ProductID   string `bson:"product_id" json:"product_id"`
	ProductName string `bson:"product_name,omitempty" json:"product_name,omitempty"`
	SKU         string `bson:"sku,omitempty" json:"sku,omitempty"`
	WarehouseID string `bson:"warehouse_id,omitempty" json:"warehouse_id,omitempty"`
	Quantity    string `bson:"quantity" json:"quantity"`
	UnitPrice   string `bson:"unit_price" json:"unit_price"`
	Discount    string `bson:"discount" json:"discount"`
	TotalPrice  string `bson:"total_price" json:"total_price"`
}

// OrderDocument is the order as it looked after its latest change.
// Amounts are decimal strings so no precision is lost.
type OrderDocument struct {
	OrderID           string                 `bson:"order_id" json:"order_id"`
	OrderNumber       string                 `bson:"order_number" json:"order_number"`
	CompanyID         string                 `bson:"company_id" json:"company_id"`
	CustomerID        string                 `bson:"customer_id,omitempty" json:"customer_id,omitempty"`
	CustomerCompanyID string                 `bson:"customer_company_id,omitempty" json:"customer_company_id,omitempty"`
	Status            string                 `bson:"status" json:"status"`
	PaymentStatus     string                 `bson:"payment_status" json:"payment_status"`
	Subtotal          string                 `bson:"subtotal" json:"subtotal"`
	TaxAmount         string                 `bson:"tax_amount" json:"tax_amount"`
	DiscountAmount    string                 `bson:"discount_amount" json:"discount_amount"`
	TotalAmount       string                 `bson:"total_amount" json:"total_amount"`
	ShippingAddress   map[string]interface{} `bson:"shipping_address,omitempty" json:"shipping_address,omitempty"`
	Items             []OrderItemDocument    `bson:"items" json:"items"`
	CreatedAt         time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time              `bson:"updated_at" json:"updated_at"`
}

// AnalyticsEvent is a business event for reporting pipelines.
type AnalyticsEvent struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	EventType  string                 `bson:"event_type" json:"event_type"`
	CompanyID  string                 `bson:"company_id" json:"company_id"`
	Payload    map[string]interface{} `bson:"payload,omitempty" json:"payload,omitempty"`
	OccurredAt time.Time              `bson:"occurred_at" json:"occurred_at"`
}

// AuditEvent records who changed which entity.
type AuditEvent struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	CompanyID  string                 `bson:"company_id" json:"company_id"`
	Entity     string                 `bson:"entity" json:"entity"`
	EntityID   string                 `bson:"entity_id" json:"entity_id"`
	Action     string                 `bson:"action" json:"action"`
	Actor      string                 `bson:"actor,omitempty" json:"actor,omitempty"`
	Changes    map[string]interface{} `bson:"changes,omitempty" json:"changes,omitempty"`
	OccurredAt time.Time              `bson:"occurred_at" json:"occurred_at"`
}

// CustomerActivity is one action a customer user took.
type CustomerActivity struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	CustomerID string                 `bson:"customer_id" json:"customer_id"`
	CompanyID  string                 `bson:"company_id" json:"company_id"`
	Activity   string                 `bson:"activity" json:"activity"`
	Metadata   map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	OccurredAt time.Time              `bson:"occurred_at" json:"occurred_at"`
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}
