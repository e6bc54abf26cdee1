package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderReturned   OrderStatus = "returned"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered, OrderReturned},
	OrderDelivered:  {OrderReturned},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled, OrderReturned:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order in status s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// HoldsStock reports whether inventory has been deducted for an order in status s.
func (s OrderStatus) HoldsStock() bool {
	switch s {
	case OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of an order.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPaid          PaymentStatus = "paid"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentFailed        PaymentStatus = "failed"
	PaymentRefunded      PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentPartiallyPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Order is placed by a customer user on behalf of their company and is
// fulfilled by the supplier company identified by CompanyID.
type Order struct {
	Base
	OrderNumber       string            `json:"order_number" gorm:"type:varchar(50);not null;uniqueIndex:uq_orders_company_order_number"`
	CompanyID         uuid.UUID         `json:"company_id" gorm:"type:uuid;not null;uniqueIndex:uq_orders_company_order_number"`
	CustomerID        *uuid.UUID        `json:"customer_id,omitempty" gorm:"type:uuid;index"`
	CustomerCompanyID *uuid.UUID        `json:"customer_company_id,omitempty" gorm:"type:uuid;index"`
	Status            OrderStatus       `json:"status" gorm:"type:order_status;not null;default:'pending'"`
	PaymentStatus     PaymentStatus     `json:"payment_status" gorm:"type:payment_status;not null;default:'pending'"`
	PaymentMethod     string            `json:"payment_method,omitempty" gorm:"type:varchar(50)"`
	Subtotal          decimal.Decimal   `json:"subtotal" gorm:"type:numeric(14,2);not null;default:0"`
	TaxAmount         decimal.Decimal   `json:"tax_amount" gorm:"type:numeric(14,2);not null;default:0"`
	DiscountAmount    decimal.Decimal   `json:"discount_amount" gorm:"type:numeric(14,2);not null;default:0"`
	TotalAmount       decimal.Decimal   `json:"total_amount" gorm:"type:numeric(14,2);not null;default:0"`
	ShippingAddress   datatypes.JSONMap `json:"shipping_address,omitempty" gorm:"type:jsonb"`
	Notes             string            `json:"notes,omitempty" gorm:"type:text"`
	DeliveryDate      *time.Time        `json:"delivery_date,omitempty"`

	Items   []OrderItem    `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History []OrderHistory `json:"history,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// VisibleTo reports whether a member of companyID may read the order.
func (o *Order) VisibleTo(companyID uuid.UUID) bool {
	if o.CompanyID == companyID {
		return true
	}
	return o.CustomerCompanyID != nil && *o.CustomerCompanyID == companyID
}

// OrderItem is one product line of an order.
type OrderItem struct {
	Base
	OrderID     uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	WarehouseID *uuid.UUID      `json:"warehouse_id,omitempty" gorm:"type:uuid"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:numeric(14,3);not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Discount    decimal.Decimal `json:"discount" gorm:"type:numeric(12,2);not null;default:0"`
	TotalPrice  decimal.Decimal `json:"total_price" gorm:"type:numeric(14,2);not null"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:NO ACTION"`
}

// OrderHistory is one status transition of an order.
type OrderHistory struct {
	ID             uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID    `json:"order_id" gorm:"type:uuid;not null;index"`
	PreviousStatus *OrderStatus `json:"previous_status,omitempty" gorm:"type:order_status"`
	NewStatus      OrderStatus  `json:"new_status" gorm:"type:order_status;not null"`
	ChangedBy      *uuid.UUID   `json:"changed_by,omitempty" gorm:"type:uuid"`
	Notes          string       `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt      time.Time    `json:"created_at"`
}

// TableName keeps the singular table name used by the migrations.
func (OrderHistory) TableName() string {
	return "order_history"
}

// BeforeCreate assigns an ID when the caller did not.
func (h *OrderHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
