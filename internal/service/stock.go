package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/internal/repository"
	"github.com/tienbob/Tubex-sub003/pkg/docstore"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"github.com/tienbob/Tubex-sub003/prometheus"
	"go.uber.org/zap"
)

type WarehouseInput struct {
	Name        string                `json:"name" validate:"required,max=255"`
	Address     string                `json:"address"`
	Capacity    int                   `json:"capacity" validate:"gte=0"`
	ContactInfo string                `json:"contact_info" validate:"max=255"`
	Status      model.WarehouseStatus `json:"status" validate:"omitempty,oneof=active inactive maintenance"`
}

type CreateInventoryInput struct {
	ProductID       uuid.UUID       `json:"product_id" validate:"required"`
	WarehouseID     uuid.UUID       `json:"warehouse_id" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit" validate:"max=30"`
	MinThreshold    decimal.Decimal `json:"min_threshold"`
	MaxThreshold    decimal.Decimal `json:"max_threshold"`
	ReorderPoint    decimal.Decimal `json:"reorder_point"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity"`
	AutoReorder     bool            `json:"auto_reorder"`
}

// UpdateInventoryInput changes thresholds only. Quantity moves through
// Adjust and Transfer.
type UpdateInventoryInput struct {
	Unit            *string          `json:"unit" validate:"omitempty,max=30"`
	MinThreshold    *decimal.Decimal `json:"min_threshold"`
	MaxThreshold    *decimal.Decimal `json:"max_threshold"`
	ReorderPoint    *decimal.Decimal `json:"reorder_point"`
	ReorderQuantity *decimal.Decimal `json:"reorder_quantity"`
	AutoReorder     *bool            `json:"auto_reorder"`
}

type AdjustInventoryInput struct {
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason" validate:"max=255"`
}

type TransferInventoryInput struct {
	ProductID       uuid.UUID       `json:"product_id" validate:"required"`
	FromWarehouseID uuid.UUID       `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   uuid.UUID       `json:"to_warehouse_id" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	Notes           string          `json:"notes" validate:"max=1000"`
}

// TransferResult is the state of both stock rows after a transfer.
type TransferResult struct {
	Source      *model.Inventory `json:"source"`
	Destination *model.Inventory `json:"destination"`
}

type CreateBatchInput struct {
	BatchNumber       string          `json:"batch_number" validate:"required,max=100"`
	ProductID         uuid.UUID       `json:"product_id" validate:"required"`
	WarehouseID       uuid.UUID       `json:"warehouse_id" validate:"required"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	ManufacturingDate *time.Time      `json:"manufacturing_date"`
	ExpiryDate        *time.Time      `json:"expiry_date"`
	SupplierBatchRef  string          `json:"supplier_batch_ref" validate:"max=100"`
}

// UpdateBatchInput changes only the fields that are set.
type UpdateBatchInput struct {
	Quantity          *decimal.Decimal   `json:"quantity"`
	UnitCost          *decimal.Decimal   `json:"unit_cost"`
	ManufacturingDate *time.Time         `json:"manufacturing_date"`
	ExpiryDate        *time.Time         `json:"expiry_date"`
	Status            *model.BatchStatus `json:"status" validate:"omitempty,oneof=active expired depleted quarantined"`
	SupplierBatchRef  *string            `json:"supplier_batch_ref" validate:"omitempty,max=100"`
}

type StockService struct {
	base
}

func NewStockService(store *repository.Store, docs docstore.Store) *StockService {
	return &StockService{base: newBase(store, docs)}
}

// Warehouses

func (s *StockService) ListWarehouses(ctx context.Context, id auth.Identity, status model.WarehouseStatus) ([]model.Warehouse, error) {
	out, err := s.store.ListWarehouses(ctx, id.CompanyID, status)
	if out == nil {
		out = []model.Warehouse{}
	}
	return out, err
}

func (s *StockService) GetWarehouse(ctx context.Context, id auth.Identity, warehouseID uuid.UUID) (*model.Warehouse, error) {
	return s.store.GetWarehouse(ctx, id.CompanyID, warehouseID)
}

func (s *StockService) CreateWarehouse(ctx context.Context, id auth.Identity, in WarehouseInput) (*model.Warehouse, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	if in.Capacity < 0 {
		return nil, apperror.Field("capacity", "capacity must not be negative")
	}
	w := &model.Warehouse{
		CompanyID:   id.CompanyID,
		Name:        strings.TrimSpace(in.Name),
		Address:     in.Address,
		Capacity:    in.Capacity,
		ContactInfo: in.ContactInfo,
		Status:      in.Status,
	}
	if w.Status == "" {
		w.Status = model.WarehouseStatusActive
	}
	if err := s.store.CreateWarehouse(ctx, w); err != nil {
		return nil, err
	}
	s.audit(ctx, id, "warehouse", w.ID.String(), "warehouse.created", map[string]interface{}{"name": w.Name})
	return w, nil
}

func (s *StockService) UpdateWarehouse(ctx context.Context, id auth.Identity, warehouseID uuid.UUID, in WarehouseInput) (*model.Warehouse, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	if in.Capacity < 0 {
		return nil, apperror.Field("capacity", "capacity must not be negative")
	}
	w, err := s.store.GetWarehouse(ctx, id.CompanyID, warehouseID)
	if err != nil {
		return nil, err
	}
	w.Name = strings.TrimSpace(in.Name)
	w.Address = in.Address
	w.Capacity = in.Capacity
	w.ContactInfo = in.ContactInfo
	if in.Status != "" {
		w.Status = in.Status
	}
	if err := s.store.SaveWarehouse(ctx, w); err != nil {
		return nil, err
	}
	s.audit(ctx, id, "warehouse", w.ID.String(), "warehouse.updated", nil)
	return w, nil
}

// DeleteWarehouse removes a warehouse and, by cascade, its stock and batches.
func (s *StockService) DeleteWarehouse(ctx context.Context, id auth.Identity, warehouseID uuid.UUID) error {
	if err := requireRole(id, model.RoleAdmin); err != nil {
		return err
	}
	if err := s.store.DeleteWarehouse(ctx, id.CompanyID, warehouseID); err != nil {
		return err
	}
	s.audit(ctx, id, "warehouse", warehouseID.String(), "warehouse.deleted", nil)
	return nil
}

// Inventory

func (s *StockService) ListInventory(ctx context.Context, id auth.Identity, f repository.InventoryFilter) (ListResult[model.Inventory], error) {
	rows, total, err := s.store.ListInventory(ctx, id.CompanyID, f)
	if err != nil {
		return ListResult[model.Inventory]{}, err
	}
	return newList(rows, total, f.Page), nil
}

func (s *StockService) GetInventory(ctx context.Context, id auth.Identity, inventoryID uuid.UUID) (*model.Inventory, error) {
	return s.store.GetInventory(ctx, id.CompanyID, inventoryID)
}

// CreateInventory opens a stock row for a product in one of the caller's
// warehouses. Suppliers may only stock their own products.
func (s *StockService) CreateInventory(ctx context.Context, id auth.Identity, in CreateInventoryInput) (*model.Inventory, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	if err := checkThresholds(in.MinThreshold, in.MaxThreshold, in.ReorderPoint, in.ReorderQuantity); err != nil {
		return nil, err
	}
	if in.Quantity.IsNegative() {
		return nil, apperror.Field("quantity", "quantity must not be negative")
	}
	if !fitsScale(in.Quantity, quantityPlaces) {
		return nil, apperror.Field("quantity", "quantity must have at most 3 decimal places")
	}
	product, err := s.stockableProduct(ctx, s.store, id, in.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownWarehouse(ctx, s.store, id, in.WarehouseID, "warehouse_id"); err != nil {
		return nil, err
	}

	inv := &model.Inventory{
		ProductID:       in.ProductID,
		WarehouseID:     in.WarehouseID,
		CompanyID:       id.CompanyID,
		Quantity:        in.Quantity,
		Unit:            in.Unit,
		MinThreshold:    in.MinThreshold,
		MaxThreshold:    in.MaxThreshold,
		ReorderPoint:    in.ReorderPoint,
		ReorderQuantity: in.ReorderQuantity,
		AutoReorder:     in.AutoReorder,
	}
	if inv.Unit == "" {
		inv.Unit = product.Unit
	}
	if inv.Quantity.IsPositive() {
		now := s.now()
		inv.LastRestockDate = &now
	}
	inv.RefreshStatus()
	if err := s.store.CreateInventory(ctx, inv); err != nil {
		return nil, err
	}
	s.audit(ctx, id, "inventory", inv.ID.String(), "inventory.created",
		map[string]interface{}{"product_id": inv.ProductID.String(), "quantity": inv.Quantity.String()})
	return inv, nil
}

func (s *StockService) UpdateInventory(ctx context.Context, id auth.Identity, inventoryID uuid.UUID, in UpdateInventoryInput) (*model.Inventory, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	var inv *model.Inventory
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		inv, err = tx.LockInventory(ctx, id.CompanyID, inventoryID)
		if err != nil {
			return err
		}
		if in.Unit != nil {
			inv.Unit = *in.Unit
		}
		if in.MinThreshold != nil {
			inv.MinThreshold = *in.MinThreshold
		}
		if in.MaxThreshold != nil {
			inv.MaxThreshold = *in.MaxThreshold
		}
		if in.ReorderPoint != nil {
			inv.ReorderPoint = *in.ReorderPoint
		}
		if in.ReorderQuantity != nil {
			inv.ReorderQuantity = *in.ReorderQuantity
		}
		if in.AutoReorder != nil {
			inv.AutoReorder = *in.AutoReorder
		}
		if err := checkThresholds(inv.MinThreshold, inv.MaxThreshold, inv.ReorderPoint, inv.ReorderQuantity); err != nil {
			return err
		}
		inv.RefreshStatus()
		return tx.SaveInventory(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// AdjustInventory applies a signed delta to a stock row.
func (s *StockService) AdjustInventory(ctx context.Context, id auth.Identity, inventoryID uuid.UUID, in AdjustInventoryInput) (*model.Inventory, error) {
	if err := requireRole(id, model.RoleStaff); err != nil {
		return nil, err
	}
	if in.Delta.IsZero() {
		return nil, apperror.Field("delta", "delta must not be zero")
	}
	if !fitsScale(in.Delta, quantityPlaces) {
		return nil, apperror.Field("delta", "delta must have at most 3 decimal places")
	}

	var inv *model.Inventory
	var before decimal.Decimal
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		inv, err = tx.LockInventory(ctx, id.CompanyID, inventoryID)
		if err != nil {
			return err
		}
		before = inv.Quantity
		if err := applyDelta(inv, in.Delta, s.now()); err != nil {
			return err
		}
		return tx.SaveInventory(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordInventoryAdjustment("adjust")
	log := logger.FromContext(ctx)
	log.Info("Inventory adjusted",
		zap.String("inventory_id", inv.ID.String()),
		zap.String("delta", in.Delta.String()),
		zap.String("quantity", inv.Quantity.String()))
	if inv.NeedsReorder() {
		log.Warn("Inventory at reorder point",
			zap.String("inventory_id", inv.ID.String()),
			zap.Bool("auto_reorder", inv.AutoReorder))
	}
	s.audit(ctx, id, "inventory", inv.ID.String(), "inventory.adjusted", map[string]interface{}{
		"from":   before.String(),
		"to":     inv.Quantity.String(),
		"reason": in.Reason,
	})
	return inv, nil
}

// TransferInventory moves stock of one product between two warehouses of
// the caller's company, creating the destination row when needed.
func (s *StockService) TransferInventory(ctx context.Context, id auth.Identity, in TransferInventoryInput) (*TransferResult, error) {
	if err := requireRole(id, model.RoleStaff); err != nil {
		return nil, err
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, apperror.Field("to_warehouse_id", "source and destination warehouses must differ")
	}
	if !in.Quantity.IsPositive() {
		return nil, apperror.Field("quantity", "quantity must be positive")
	}
	if !fitsScale(in.Quantity, quantityPlaces) {
		return nil, apperror.Field("quantity", "quantity must have at most 3 decimal places")
	}

	res := &TransferResult{}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := s.ownWarehouse(ctx, tx, id, in.ToWarehouseID, "to_warehouse_id"); err != nil {
			return err
		}
		rows := make(map[uuid.UUID]*model.Inventory, 2)
		for _, wh := range lockOrder(in.FromWarehouseID, in.ToWarehouseID) {
			inv, err := tx.LockInventoryFor(ctx, id.CompanyID, in.ProductID, wh)
			switch {
			case err == nil:
				rows[wh] = inv
			case !apperror.Is(err, apperror.CodeNotFound):
				return err
			}
		}
		src := rows[in.FromWarehouseID]
		if src == nil {
			return apperror.Field("from_warehouse_id", "no stock of this product in the source warehouse")
		}
		dst := rows[in.ToWarehouseID]
		if dst == nil {
			dst = &model.Inventory{
				ProductID:   in.ProductID,
				WarehouseID: in.ToWarehouseID,
				CompanyID:   id.CompanyID,
				Unit:        src.Unit,
			}
			dst.RefreshStatus()
			if err := tx.CreateInventory(ctx, dst); err != nil {
				return err
			}
		}

		now := s.now()
		if err := applyDelta(src, in.Quantity.Neg(), now); err != nil {
			return err
		}
		if err := applyDelta(dst, in.Quantity, now); err != nil {
			return err
		}
		if err := tx.SaveInventory(ctx, src); err != nil {
			return err
		}
		if err := tx.SaveInventory(ctx, dst); err != nil {
			return err
		}
		res.Source, res.Destination = src, dst
		return nil
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordInventoryAdjustment("transfer")
	logger.FromContext(ctx).Info("Inventory transferred",
		zap.String("product_id", in.ProductID.String()),
		zap.String("from", in.FromWarehouseID.String()),
		zap.String("to", in.ToWarehouseID.String()),
		zap.String("quantity", in.Quantity.String()))
	s.audit(ctx, id, "inventory", res.Source.ID.String(), "inventory.transferred", map[string]interface{}{
		"to_inventory_id": res.Destination.ID.String(),
		"quantity":        in.Quantity.String(),
		"notes":           in.Notes,
	})
	return res, nil
}

func (s *StockService) DeleteInventory(ctx context.Context, id auth.Identity, inventoryID uuid.UUID) error {
	if err := requireRole(id, model.RoleManager); err != nil {
		return err
	}
	if err := s.store.DeleteInventory(ctx, id.CompanyID, inventoryID); err != nil {
		return err
	}
	s.audit(ctx, id, "inventory", inventoryID.String(), "inventory.deleted", nil)
	return nil
}

// LowStock reports stock rows at or below their minimum threshold.
func (s *StockService) LowStock(ctx context.Context, id auth.Identity) ([]model.Inventory, error) {
	out, err := s.store.LowStock(ctx, id.CompanyID)
	if out == nil {
		out = []model.Inventory{}
	}
	return out, err
}

// lockOrder returns the two warehouses in the order their stock rows are
// locked, the same order moveStock uses.
func lockOrder(a, b uuid.UUID) [2]uuid.UUID {
	if b.String() < a.String() {
		return [2]uuid.UUID{b, a}
	}
	return [2]uuid.UUID{a, b}
}

// applyDelta moves inv.Quantity by delta and refreshes its status. The
// quantity never goes below zero.
func applyDelta(inv *model.Inventory, delta decimal.Decimal, now time.Time) error {
	next := inv.Quantity.Add(delta)
	if next.IsNegative() {
		return apperror.Validation("insufficient stock", map[string]string{
			"quantity": "available " + inv.Quantity.String() + ", requested " + delta.Neg().String(),
		})
	}
	inv.Quantity = next
	if delta.IsPositive() {
		inv.LastRestockDate = &now
	}
	inv.RefreshStatus()
	return nil
}

func checkThresholds(min, max, reorderPoint, reorderQty decimal.Decimal) error {
	fields := map[string]string{}
	if min.IsNegative() {
		fields["min_threshold"] = "must not be negative"
	}
	if max.IsNegative() {
		fields["max_threshold"] = "must not be negative"
	}
	if reorderPoint.IsNegative() {
		fields["reorder_point"] = "must not be negative"
	}
	if reorderQty.IsNegative() {
		fields["reorder_quantity"] = "must not be negative"
	}
	for name, v := range map[string]decimal.Decimal{
		"min_threshold": min, "max_threshold": max, "reorder_point": reorderPoint, "reorder_quantity": reorderQty,
	} {
		if _, bad := fields[name]; !bad && !fitsScale(v, quantityPlaces) {
			fields[name] = "must have at most 3 decimal places"
		}
	}
	if max.IsPositive() && min.GreaterThan(max) {
		fields["min_threshold"] = "must not exceed max_threshold"
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid thresholds", fields)
	}
	return nil
}

// stockableProduct loads productID and, for suppliers, checks it is part
// of their own catalog.
func (s *StockService) stockableProduct(ctx context.Context, store *repository.Store, id auth.Identity, productID uuid.UUID) (*model.Product, error) {
	product, err := store.GetProduct(ctx, productID)
	if err != nil {
		if apperror.Is(err, apperror.CodeNotFound) {
			return nil, apperror.Field("product_id", "product not found")
		}
		return nil, err
	}
	if id.IsSupplier() && product.SupplierID != id.CompanyID {
		return nil, apperror.Field("product_id", "product does not belong to your company")
	}
	return product, nil
}

func (s *StockService) ownWarehouse(ctx context.Context, store *repository.Store, id auth.Identity, warehouseID uuid.UUID, field string) (*model.Warehouse, error) {
	w, err := store.GetWarehouse(ctx, id.CompanyID, warehouseID)
	if err != nil {
		if apperror.Is(err, apperror.CodeNotFound) {
			return nil, apperror.Field(field, "warehouse not found")
		}
		return nil, err
	}
	return w, nil
}

// Batches

func (s *StockService) ListBatches(ctx context.Context, id auth.Identity, f repository.BatchFilter) (ListResult[model.Batch], error) {
	rows, total, err := s.store.ListBatches(ctx, id.CompanyID, f)
	if err != nil {
		return ListResult[model.Batch]{}, err
	}
	return newList(rows, total, f.Page), nil
}

func (s *StockService) GetBatch(ctx context.Context, id auth.Identity, batchID uuid.UUID) (*model.Batch, error) {
	return s.store.GetBatch(ctx, id.CompanyID, batchID)
}

func (s *StockService) CreateBatch(ctx context.Context, id auth.Identity, in CreateBatchInput) (*model.Batch, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	if err := checkBatch(in.Quantity, in.UnitCost, in.ManufacturingDate, in.ExpiryDate); err != nil {
		return nil, err
	}
	if _, err := s.stockableProduct(ctx, s.store, id, in.ProductID); err != nil {
		return nil, err
	}
	if _, err := s.ownWarehouse(ctx, s.store, id, in.WarehouseID, "warehouse_id"); err != nil {
		return nil, err
	}

	b := &model.Batch{
		BatchNumber:       strings.TrimSpace(in.BatchNumber),
		CompanyID:         id.CompanyID,
		ProductID:         in.ProductID,
		WarehouseID:       in.WarehouseID,
		Quantity:          in.Quantity,
		UnitCost:          in.UnitCost.Round(2),
		ManufacturingDate: in.ManufacturingDate,
		ExpiryDate:        in.ExpiryDate,
		Status:            model.BatchStatusActive,
		SupplierBatchRef:  in.SupplierBatchRef,
	}
	refreshBatchStatus(b, s.now())
	if err := s.store.CreateBatch(ctx, b); err != nil {
		return nil, err
	}
	s.audit(ctx, id, "batch", b.ID.String(), "batch.created", map[string]interface{}{"batch_number": b.BatchNumber})
	return b, nil
}

func (s *StockService) UpdateBatch(ctx context.Context, id auth.Identity, batchID uuid.UUID, in UpdateBatchInput) (*model.Batch, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	b, err := s.store.GetBatch(ctx, id.CompanyID, batchID)
	if err != nil {
		return nil, err
	}
	if in.Quantity != nil {
		b.Quantity = *in.Quantity
	}
	if in.UnitCost != nil {
		b.UnitCost = in.UnitCost.Round(2)
	}
	if in.ManufacturingDate != nil {
		b.ManufacturingDate = in.ManufacturingDate
	}
	if in.ExpiryDate != nil {
		b.ExpiryDate = in.ExpiryDate
	}
	if in.Status != nil {
		b.Status = *in.Status
	}
	if in.SupplierBatchRef != nil {
		b.SupplierBatchRef = *in.SupplierBatchRef
	}
	if err := checkBatch(b.Quantity, b.UnitCost, b.ManufacturingDate, b.ExpiryDate); err != nil {
		return nil, err
	}
	refreshBatchStatus(b, s.now())
	if err := s.store.SaveBatch(ctx, b); err != nil {
		return nil, err
	}
	s.audit(ctx, id, "batch", b.ID.String(), "batch.updated", map[string]interface{}{"status": string(b.Status)})
	return b, nil
}

func (s *StockService) DeleteBatch(ctx context.Context, id auth.Identity, batchID uuid.UUID) error {
	if err := requireRole(id, model.RoleManager); err != nil {
		return err
	}
	if err := s.store.DeleteBatch(ctx, id.CompanyID, batchID); err != nil {
		return err
	}
	s.audit(ctx, id, "batch", batchID.String(), "batch.deleted", nil)
	return nil
}

// ExpiringBatches lists active batches that expire within days.
func (s *StockService) ExpiringBatches(ctx context.Context, id auth.Identity, days int) ([]model.Batch, error) {
	if days <= 0 {
		days = 30
	}
	if days > 3650 {
		return nil, apperror.Field("days", "days must be at most 3650")
	}
	out, err := s.store.ExpiringBatches(ctx, id.CompanyID, s.now().AddDate(0, 0, days))
	if out == nil {
		out = []model.Batch{}
	}
	return out, err
}

// refreshBatchStatus moves an active batch to depleted when it is empty, or
// to expired once its expiry date is before today.
func refreshBatchStatus(b *model.Batch, now time.Time) {
	if b.Status != model.BatchStatusActive {
		return
	}
	switch {
	case b.Quantity.IsZero():
		b.Status = model.BatchStatusDepleted
	case b.ExpiresWithin(now.UTC().Truncate(24*time.Hour), 0):
		b.Status = model.BatchStatusExpired
	}
}

func checkBatch(qty, cost decimal.Decimal, manufactured, expires *time.Time) error {
	fields := map[string]string{}
	if qty.IsNegative() {
		fields["quantity"] = "must not be negative"
	} else if !fitsScale(qty, quantityPlaces) {
		fields["quantity"] = "must have at most 3 decimal places"
	}
	if cost.IsNegative() {
		fields["unit_cost"] = "must not be negative"
	} else if !fitsScale(cost, moneyPlaces) {
		fields["unit_cost"] = "must have at most 2 decimal places"
	}
	if manufactured != nil && expires != nil && !expires.After(*manufactured) {
		fields["expiry_date"] = "must be after manufacturing_date"
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid batch", fields)
	}
	return nil
}
