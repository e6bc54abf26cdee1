package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/internal/report"
	"github.com/tienbob/Tubex-sub003/internal/repository"
	"github.com/tienbob/Tubex-sub003/pkg/docstore"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"github.com/tienbob/Tubex-sub003/prometheus"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type OrderItemInput struct {
	ProductID   uuid.UUID       `json:"product_id" validate:"required"`
	WarehouseID *uuid.UUID      `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Discount    decimal.Decimal `json:"discount"`
}

type CreateOrderInput struct {
	Items           []OrderItemInput       `json:"items" validate:"required,min=1,max=200,dive"`
	DiscountAmount  decimal.Decimal        `json:"discount_amount"`
	PaymentMethod   string                 `json:"payment_method" validate:"max=50"`
	ShippingAddress map[string]interface{} `json:"shipping_address"`
	Notes           string                 `json:"notes" validate:"max=2000"`
	DeliveryDate    *time.Time             `json:"delivery_date"`
}

type UpdateOrderStatusInput struct {
	Status model.OrderStatus `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled returned"`
	Notes  string            `json:"notes" validate:"max=2000"`
}

type UpdatePaymentInput struct {
	PaymentStatus model.PaymentStatus `json:"payment_status" validate:"required,oneof=pending paid partially_paid failed refunded"`
	PaymentMethod *string             `json:"payment_method" validate:"omitempty,max=50"`
}

// OrderView selects which side of the marketplace a listing shows.
type OrderView string

const (
	// OrderViewReceived lists orders the caller's company fulfils.
	OrderViewReceived OrderView = "received"
	// OrderViewPlaced lists orders the caller's company placed.
	OrderViewPlaced OrderView = "placed"
)

// Valid reports whether v is a known listing view.
func (v OrderView) Valid() bool {
	return v == OrderViewReceived || v == OrderViewPlaced
}

// OrderSummary aggregates orders by status over a period.
type OrderSummary struct {
	From         *time.Time                 `json:"from,omitempty"`
	To           *time.Time                 `json:"to,omitempty"`
	Statuses     []repository.StatusSummary `json:"statuses"`
	TotalOrders  int64                      `json:"total_orders"`
	TotalRevenue decimal.Decimal            `json:"total_revenue"`
}

// Invoice is a rendered order invoice.
type Invoice struct {
	Filename string
	Content  []byte
}

type OrderService struct {
	base
	taxRate decimal.Decimal
}

func NewOrderService(store *repository.Store, docs docstore.Store, taxRate decimal.Decimal) *OrderService {
	return &OrderService{base: newBase(store, docs), taxRate: taxRate}
}

// Create places an order on behalf of the caller's company. All items must
// come from one supplier; prices are taken from the catalog.
func (s *OrderService) Create(ctx context.Context, id auth.Identity, in CreateOrderInput) (*model.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperror.Field("items", "at least one item is required")
	}
	if in.DiscountAmount.IsNegative() {
		return nil, apperror.Field("discount_amount", "discount_amount must not be negative")
	}
	if !fitsScale(in.DiscountAmount, moneyPlaces) {
		return nil, apperror.Field("discount_amount", "discount_amount must have at most 2 decimal places")
	}

	ids := make([]uuid.UUID, 0, len(in.Items))
	for i, it := range in.Items {
		if !it.Quantity.IsPositive() {
			return nil, apperror.Field(fmt.Sprintf("items[%d].quantity", i), "quantity must be positive")
		}
		if !fitsScale(it.Quantity, quantityPlaces) {
			return nil, apperror.Field(fmt.Sprintf("items[%d].quantity", i), "quantity must have at most 3 decimal places")
		}
		if it.Discount.IsNegative() {
			return nil, apperror.Field(fmt.Sprintf("items[%d].discount", i), "discount must not be negative")
		}
		if !fitsScale(it.Discount, moneyPlaces) {
			return nil, apperror.Field(fmt.Sprintf("items[%d].discount", i), "discount must have at most 2 decimal places")
		}
		ids = append(ids, it.ProductID)
	}

	products, err := s.store.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	var supplierID uuid.UUID
	items := make([]model.OrderItem, 0, len(in.Items))
	checked := map[uuid.UUID]bool{}
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d].product_id", i)
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, apperror.Field(field, "product not found")
		}
		if p.Status != model.ProductStatusActive {
			return nil, apperror.Field(field, "product is not available for ordering")
		}
		if supplierID == uuid.Nil {
			supplierID = p.SupplierID
		} else if p.SupplierID != supplierID {
			return nil, apperror.Field(field, "all items must come from the same supplier")
		}
		if it.WarehouseID != nil && !checked[*it.WarehouseID] {
			if _, err := s.store.GetWarehouse(ctx, supplierID, *it.WarehouseID); err != nil {
				if apperror.Is(err, apperror.CodeNotFound) {
					return nil, apperror.Field(fmt.Sprintf("items[%d].warehouse_id", i), "warehouse not found")
				}
				return nil, err
			}
			checked[*it.WarehouseID] = true
		}
		items = append(items, model.OrderItem{
			ProductID:   p.ID,
			WarehouseID: it.WarehouseID,
			Quantity:    it.Quantity,
			UnitPrice:   p.BasePrice,
			Discount:    it.Discount.Round(2),
		})
	}
	if supplierID == id.CompanyID {
		return nil, apperror.Field("items", "you cannot order from your own company")
	}

	totals, err := computeTotals(items, s.taxRate, in.DiscountAmount)
	if err != nil {
		return nil, err
	}

	customer := id.UserID
	customerCompany := id.CompanyID
	var o *model.Order
	for attempt := 0; ; attempt++ {
		now := s.now()
		o = &model.Order{
			OrderNumber:       newOrderNumber(now),
			CompanyID:         supplierID,
			CustomerID:        &customer,
			CustomerCompanyID: &customerCompany,
			Status:            model.OrderPending,
			PaymentStatus:     model.PaymentPending,
			PaymentMethod:     in.PaymentMethod,
			Subtotal:          totals.Subtotal,
			TaxAmount:         totals.Tax,
			DiscountAmount:    totals.Discount,
			TotalAmount:       totals.Total,
			Notes:             in.Notes,
			DeliveryDate:      in.DeliveryDate,
			Items:             append([]model.OrderItem(nil), items...),
			History: []model.OrderHistory{{
				NewStatus: model.OrderPending,
				ChangedBy: &customer,
				Notes:     "order placed",
			}},
		}
		if in.ShippingAddress != nil {
			o.ShippingAddress = datatypes.JSONMap(in.ShippingAddress)
		}
		err = s.store.CreateOrder(ctx, o)
		if err == nil {
			break
		}
		// Order numbers are random; retry the rare collision.
		if ae, ok := apperror.As(err); ok && ae.Code == apperror.CodeConflict && ae.Fields["order_number"] != "" && attempt < 2 {
			continue
		}
		return nil, err
	}

	prometheus.RecordOrderCreated()
	logger.FromContext(ctx).Info("Order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("supplier_id", supplierID.String()),
		zap.String("total", o.TotalAmount.String()))

	for i := range o.Items {
		o.Items[i].Product = byID[o.Items[i].ProductID]
	}
	s.syncOrder(ctx, o)
	s.analytics(ctx, supplierID.String(), "order.created", map[string]interface{}{
		"order_id":            o.ID.String(),
		"customer_company_id": customerCompany.String(),
		"total_amount":        o.TotalAmount.String(),
		"items":               len(o.Items),
	})
	s.activity(ctx, id, "order.placed", map[string]interface{}{
		"order_id":     o.ID.String(),
		"order_number": o.OrderNumber,
	})
	return o, nil
}

// List shows orders the caller's company fulfils or placed. An empty view
// picks received for suppliers and placed for dealers.
func (s *OrderService) List(ctx context.Context, id auth.Identity, view OrderView, f repository.OrderFilter) (ListResult[model.Order], error) {
	if view == "" {
		view = OrderViewPlaced
		if id.IsSupplier() {
			view = OrderViewReceived
		}
	}
	company := id.CompanyID
	switch view {
	case OrderViewReceived:
		f.SupplierID = &company
		if f.CustomerCompanyID != nil && *f.CustomerCompanyID == company {
			f.CustomerCompanyID = nil
		}
	case OrderViewPlaced:
		f.CustomerCompanyID = &company
		f.SupplierID = nil
	default:
		return ListResult[model.Order]{}, apperror.Field("view", "view must be received or placed")
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return ListResult[model.Order]{}, apperror.Field("from", "from must be before to")
	}
	orders, total, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return ListResult[model.Order]{}, err
	}
	return newList(orders, total, f.Page), nil
}

// Get returns an order visible to the caller. Orders of other companies
// look like they do not exist.
func (s *OrderService) Get(ctx context.Context, id auth.Identity, orderID uuid.UUID) (*model.Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.VisibleTo(id.CompanyID) && !id.PlatformAdmin {
		return nil, apperror.NotFound("order")
	}
	return o, nil
}

// UpdateStatus moves an order along its lifecycle. Supplier side only.
// Confirming deducts stock for items with a warehouse; cancelling an order
// that holds stock puts it back.
func (s *OrderService) UpdateStatus(ctx context.Context, id auth.Identity, orderID uuid.UUID, in UpdateOrderStatusInput) (*model.Order, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	return s.changeStatus(ctx, id, orderID, in.Status, in.Notes, func(o *model.Order) error {
		if o.CompanyID == id.CompanyID {
			return nil
		}
		if o.VisibleTo(id.CompanyID) {
			return apperror.Forbidden("only the supplier can change the order status")
		}
		return apperror.NotFound("order")
	})
}

// Cancel withdraws a pending order. Customer side only.
func (s *OrderService) Cancel(ctx context.Context, id auth.Identity, orderID uuid.UUID, notes string) (*model.Order, error) {
	return s.changeStatus(ctx, id, orderID, model.OrderCancelled, notes, func(o *model.Order) error {
		if o.CustomerCompanyID == nil || *o.CustomerCompanyID != id.CompanyID {
			if o.VisibleTo(id.CompanyID) {
				return apperror.Forbidden("only the customer can cancel this way; use the status endpoint")
			}
			return apperror.NotFound("order")
		}
		if o.Status != model.OrderPending {
			return apperror.Conflict("only pending orders can be cancelled by the customer", "status")
		}
		return nil
	})
}

func (s *OrderService) changeStatus(ctx context.Context, id auth.Identity, orderID uuid.UUID, next model.OrderStatus, notes string, authorize func(*model.Order) error) (*model.Order, error) {
	var o *model.Order
	var prev model.OrderStatus
	var moved string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		o, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := authorize(o); err != nil {
			return err
		}
		prev = o.Status
		if !prev.CanTransitionTo(next) {
			return apperror.Conflict(fmt.Sprintf("order cannot move from %s to %s", prev, next), "status")
		}

		switch {
		case next == model.OrderConfirmed && !prev.HoldsStock():
			if err := moveStock(ctx, tx, o, true, s.now()); err != nil {
				return err
			}
			moved = "order_confirm"
		case next == model.OrderCancelled && prev.HoldsStock():
			if err := moveStock(ctx, tx, o, false, s.now()); err != nil {
				return err
			}
			moved = "order_cancel"
		}

		o.Status = next
		if next == model.OrderDelivered && o.DeliveryDate == nil {
			now := s.now()
			o.DeliveryDate = &now
		}
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		actor := id.UserID
		from := prev
		return tx.AddOrderHistory(ctx, &model.OrderHistory{
			OrderID:        o.ID,
			PreviousStatus: &from,
			NewStatus:      next,
			ChangedBy:      &actor,
			Notes:          notes,
		})
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordOrderTransition(string(prev), string(next))
	if moved != "" {
		prometheus.RecordInventoryAdjustment(moved)
	}
	logger.FromContext(ctx).Info("Order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("from", string(prev)),
		zap.String("to", string(next)))

	full, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.syncOrder(ctx, full)
	s.analytics(ctx, full.CompanyID.String(), "order.status_changed", map[string]interface{}{
		"order_id": full.ID.String(),
		"from":     string(prev),
		"to":       string(next),
	})
	if full.CustomerCompanyID != nil && *full.CustomerCompanyID == id.CompanyID {
		s.activity(ctx, id, "order."+string(next), map[string]interface{}{"order_id": full.ID.String()})
	}
	return full, nil
}

type stockKey struct {
	warehouseID uuid.UUID
	productID   uuid.UUID
}

// moveStock deducts (or, when deduct is false, restores) the stock held by
// o's items in the supplier's warehouses. Rows are locked in a fixed order.
func moveStock(ctx context.Context, tx *repository.Store, o *model.Order, deduct bool, now time.Time) error {
	need := map[stockKey]decimal.Decimal{}
	for _, it := range o.Items {
		if it.WarehouseID == nil {
			continue
		}
		k := stockKey{warehouseID: *it.WarehouseID, productID: it.ProductID}
		need[k] = need[k].Add(it.Quantity)
	}
	keys := make([]stockKey, 0, len(need))
	for k := range need {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].warehouseID != keys[j].warehouseID {
			return keys[i].warehouseID.String() < keys[j].warehouseID.String()
		}
		return keys[i].productID.String() < keys[j].productID.String()
	})

	for _, k := range keys {
		qty := need[k]
		inv, err := tx.LockInventoryFor(ctx, o.CompanyID, k.productID, k.warehouseID)
		if err != nil {
			if apperror.Is(err, apperror.CodeNotFound) && deduct {
				return apperror.Conflict("insufficient stock for product "+k.productID.String(), "items")
			}
			if apperror.Is(err, apperror.CodeNotFound) {
				// The stock row was removed after confirmation; nothing to restore.
				continue
			}
			return err
		}
		delta := qty
		if deduct {
			if inv.Quantity.LessThan(qty) {
				return apperror.Conflict(fmt.Sprintf("insufficient stock for product %s: available %s, requested %s",
					k.productID, inv.Quantity, qty), "items")
			}
			delta = qty.Neg()
		}
		if err := applyDelta(inv, delta, now); err != nil {
			return err
		}
		if err := tx.SaveInventory(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePaymentStatus records settlement progress. Supplier side only.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id auth.Identity, orderID uuid.UUID, in UpdatePaymentInput) (*model.Order, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	var o *model.Order
	var prev model.PaymentStatus
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		o, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.CompanyID != id.CompanyID {
			if o.VisibleTo(id.CompanyID) {
				return apperror.Forbidden("only the supplier can change the payment status")
			}
			return apperror.NotFound("order")
		}
		prev = o.PaymentStatus
		if in.PaymentStatus == model.PaymentRefunded && prev != model.PaymentPaid && prev != model.PaymentPartiallyPaid {
			return apperror.Conflict("only paid orders can be refunded", "payment_status")
		}
		o.PaymentStatus = in.PaymentStatus
		if in.PaymentMethod != nil {
			o.PaymentMethod = *in.PaymentMethod
		}
		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	full, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.syncOrder(ctx, full)
	s.audit(ctx, id, "order", full.ID.String(), "order.payment_updated",
		map[string]interface{}{"from": string(prev), "to": string(in.PaymentStatus)})
	return full, nil
}

// History returns the status transitions of a visible order.
func (s *OrderService) History(ctx context.Context, id auth.Identity, orderID uuid.UUID) ([]model.OrderHistory, error) {
	if _, err := s.Get(ctx, id, orderID); err != nil {
		return nil, err
	}
	out, err := s.store.ListOrderHistory(ctx, orderID)
	if out == nil {
		out = []model.OrderHistory{}
	}
	return out, err
}

// Summary aggregates the orders the caller's company fulfils.
func (s *OrderService) Summary(ctx context.Context, id auth.Identity, from, to *time.Time) (*OrderSummary, error) {
	if err := requireSupplier(id); err != nil {
		return nil, err
	}
	company := id.CompanyID
	return s.summarize(ctx, &company, from, to)
}

// PlatformSummary aggregates every order on the platform.
func (s *OrderService) PlatformSummary(ctx context.Context, id auth.Identity, from, to *time.Time) (*OrderSummary, error) {
	if err := requirePlatformAdmin(id); err != nil {
		return nil, err
	}
	return s.summarize(ctx, nil, from, to)
}

func (s *OrderService) summarize(ctx context.Context, supplierID *uuid.UUID, from, to *time.Time) (*OrderSummary, error) {
	if from != nil && to != nil && !from.Before(*to) {
		return nil, apperror.Field("from", "from must be before to")
	}
	rows, err := s.store.OrderSummary(ctx, supplierID, from, to)
	if err != nil {
		return nil, err
	}
	return buildSummary(rows, from, to), nil
}

// buildSummary totals rows. Cancelled and returned orders count as orders
// but not as revenue.
func buildSummary(rows []repository.StatusSummary, from, to *time.Time) *OrderSummary {
	out := &OrderSummary{From: from, To: to, Statuses: rows, TotalRevenue: decimal.Zero}
	if out.Statuses == nil {
		out.Statuses = []repository.StatusSummary{}
	}
	for _, r := range rows {
		out.TotalOrders += r.Count
		if r.Status != model.OrderCancelled && r.Status != model.OrderReturned {
			out.TotalRevenue = out.TotalRevenue.Add(r.Revenue)
		}
	}
	return out
}

// Invoice renders a PDF invoice for a visible order.
func (s *OrderService) Invoice(ctx context.Context, id auth.Identity, orderID uuid.UUID) (*Invoice, error) {
	o, err := s.Get(ctx, id, orderID)
	if err != nil {
		return nil, err
	}
	supplier, err := s.store.GetCompany(ctx, o.CompanyID)
	if err != nil {
		return nil, err
	}
	var customer *model.Company
	if o.CustomerCompanyID != nil {
		customer, err = s.store.GetCompany(ctx, *o.CustomerCompanyID)
		if err != nil && !apperror.Is(err, apperror.CodeNotFound) {
			return nil, err
		}
	}
	pdf, err := report.Invoice(o, supplier, customer)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &Invoice{Filename: "invoice-" + o.OrderNumber + ".pdf", Content: pdf}, nil
}

// orderTotals are the computed money fields of an order.
type orderTotals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// computeTotals fills each item's TotalPrice and returns the order totals:
// subtotal = sum(qty*price - discount), tax = subtotal*rate,
// total = subtotal + tax - discount. Amounts are rounded to cents.
func computeTotals(items []model.OrderItem, taxRate, discount decimal.Decimal) (orderTotals, error) {
	subtotal := decimal.Zero
	for i := range items {
		line := items[i].Quantity.Mul(items[i].UnitPrice).Sub(items[i].Discount).Round(2)
		if line.IsNegative() {
			return orderTotals{}, apperror.Field(fmt.Sprintf("items[%d].discount", i), "discount exceeds line amount")
		}
		items[i].TotalPrice = line
		subtotal = subtotal.Add(line)
	}
	discount = discount.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)
	total := subtotal.Add(tax).Sub(discount)
	if total.IsNegative() {
		return orderTotals{}, apperror.Field("discount_amount", "discount exceeds order amount")
	}
	return orderTotals{Subtotal: subtotal, Tax: tax, Discount: discount, Total: total}, nil
}

// newOrderNumber returns ORD-YYYYMMDD-XXXXXX with six random hex digits.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "ORD-" + now.Format("20060102") + "-" + suffix
}

// syncOrder upserts the denormalized copy of o in the document store.
func (s *OrderService) syncOrder(ctx context.Context, o *model.Order) {
	if err := s.docs.SaveOrder(ctx, orderDocument(o)); err != nil {
		s.docFailed(ctx, docstore.CollectionOrders, err)
	}
}

func orderDocument(o *model.Order) *docstore.OrderDocument {
	doc := &docstore.OrderDocument{
		OrderID:         o.ID.String(),
		OrderNumber:     o.OrderNumber,
		CompanyID:       o.CompanyID.String(),
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		Subtotal:        o.Subtotal.String(),
		TaxAmount:       o.TaxAmount.String(),
		DiscountAmount:  o.DiscountAmount.String(),
		TotalAmount:     o.TotalAmount.String(),
		ShippingAddress: o.ShippingAddress,
		Items:           make([]docstore.OrderItemDocument, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.CustomerID != nil {
		doc.CustomerID = o.CustomerID.String()
	}
	if o.CustomerCompanyID != nil {
		doc.CustomerCompanyID = o.CustomerCompanyID.String()
	}
	for _, it := range o.Items {
		item := docstore.OrderItemDocument{
			ProductID:  it.ProductID.String(),
			Quantity:   it.Quantity.String(),
			UnitPrice:  it.UnitPrice.String(),
			Discount:   it.Discount.String(),
			TotalPrice: it.TotalPrice.String(),
		}
		if it.Product != nil {
			item.ProductName = it.Product.Name
			item.SKU = it.Product.SKU
		}
		if it.WarehouseID != nil {
			item.WarehouseID = it.WarehouseID.String()
		}
		doc.Items = append(doc.Items, item)
	}
	return doc
}
