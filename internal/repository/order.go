package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/prometheus"
	"gorm.io/gorm"
)

// OrderFilter narrows an order listing. SupplierID selects orders the
// company fulfils, CustomerCompanyID orders the company placed.
type OrderFilter struct {
	SupplierID        *uuid.UUID
	CustomerCompanyID *uuid.UUID
	Status            model.OrderStatus
	PaymentStatus     model.PaymentStatus
	From              *time.Time
	To                *time.Time
	Page
}

// StatusSummary aggregates orders in one status.
type StatusSummary struct {
	Status  model.OrderStatus `json:"status"`
	Count   int64             `json:"count"`
	Revenue decimal.Decimal   `json:"revenue"`
}

// CreateOrder inserts the order with its items and history rows.
func (s *Store) CreateOrder(ctx context.Context, o *model.Order) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return dbErr(s.conn(ctx).Create(o).Error, "order")
}

// GetOrder loads an order with items and history, without tenant checks.
// Callers decide visibility with Order.VisibleTo.
func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var o model.Order
	err := s.conn(ctx).
		Preload("Items").Preload("Items.Product").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&o, "id = ?", id).Error
	if err != nil {
		return nil, dbErr(err, "order")
	}
	return &o, nil
}

// LockOrder loads an order and its items FOR UPDATE.
func (s *Store) LockOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	defer prometheus.TrackDBOperation("lock")(time.Now())
	var o model.Order
	if err := s.conn(ctx).Scopes(ForUpdate).First(&o, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, "order")
	}
	if err := s.conn(ctx).Where("order_id = ?", id).Order("created_at ASC").Find(&o.Items).Error; err != nil {
		return nil, dbErr(err, "order")
	}
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	q := s.conn(ctx).Model(&model.Order{})
	if f.SupplierID != nil {
		q = q.Scopes(ForCompany(*f.SupplierID))
	}
	if f.CustomerCompanyID != nil {
		q = q.Where("customer_company_id = ?", *f.CustomerCompanyID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	var out []model.Order
	total, err := list(q, f.Page, "created_at DESC", &out, "Items")
	if err != nil {
		return nil, 0, dbErr(err, "order")
	}
	return out, total, nil
}

// SaveOrder writes the order row only.
func (s *Store) SaveOrder(ctx context.Context, o *model.Order) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return dbErr(s.conn(ctx).Omit("Items", "History").Save(o).Error, "order")
}

func (s *Store) AddOrderHistory(ctx context.Context, h *model.OrderHistory) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return dbErr(s.conn(ctx).Create(h).Error, "order history")
}

func (s *Store) ListOrderHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderHistory, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var out []model.OrderHistory
	err := s.conn(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&out).Error
	return out, dbErr(err, "order history")
}

// OrderSummary groups orders by status. A nil supplierID summarizes the
// whole platform.
func (s *Store) OrderSummary(ctx context.Context, supplierID *uuid.UUID, from, to *time.Time) ([]StatusSummary, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	q := s.conn(ctx).Model(&model.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS revenue")
	if supplierID != nil {
		q = q.Scopes(ForCompany(*supplierID))
	}
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at < ?", *to)
	}
	var out []StatusSummary
	err := q.Group("status").Order("status").Scan(&out).Error
	return out, dbErr(err, "order")
}
