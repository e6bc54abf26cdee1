package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/prometheus"
	"gorm.io/gorm"
)

// InventoryFilter narrows a company's stock listing.
type InventoryFilter struct {
	WarehouseID *uuid.UUID
	ProductID   *uuid.UUID
	LowStock    bool
	Page
}

// BatchFilter narrows a company's batch listing.
type BatchFilter struct {
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
	Status      model.BatchStatus
	Page
}

func (s *Store) CreateWarehouse(ctx context.Context, w *model.Warehouse) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return dbErr(s.conn(ctx).Create(w).Error, "warehouse")
}

func (s *Store) GetWarehouse(ctx context.Context, companyID, id uuid.UUID) (*model.Warehouse, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var w model.Warehouse
	if err := s.conn(ctx).Scopes(ForCompany(companyID)).First(&w, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, "warehouse")
	}
	return &w, nil
}

func (s *Store) ListWarehouses(ctx context.Context, companyID uuid.UUID, status model.WarehouseStatus) ([]model.Warehouse, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	q := s.conn(ctx).Scopes(ForCompany(companyID))
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []model.Warehouse
	err := q.Order("name ASC").Find(&out).Error
	return out, dbErr(err, "warehouse")
}

func (s *Store) SaveWarehouse(ctx context.Context, w *model.Warehouse) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return dbErr(s.conn(ctx).Save(w).Error, "warehouse")
}

func (s *Store) DeleteWarehouse(ctx context.Context, companyID, id uuid.UUID) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	res := s.conn(ctx).Scopes(ForCompany(companyID)).Delete(&model.Warehouse{}, "id = ?", id)
	if res.Error != nil {
		return dbErr(res.Error, "warehouse")
	}
	if res.RowsAffected == 0 {
		return dbErr(errNotFound, "warehouse")
	}
	return nil
}

func (s *Store) CreateInventory(ctx context.Context, inv *model.Inventory) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return dbErr(s.conn(ctx).Omit("Product", "Warehouse").Create(inv).Error, "inventory")
}

// GetInventory loads a stock row of companyID with its product and warehouse.
func (s *Store) GetInventory(ctx context.Context, companyID, id uuid.UUID) (*model.Inventory, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var inv model.Inventory
	err := s.conn(ctx).Scopes(ForCompany(companyID)).
		Preload("Product").Preload("Warehouse").
		First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, dbErr(err, "inventory")
	}
	return &inv, nil
}

// LockInventory loads a stock row FOR UPDATE. Call inside Transaction.
func (s *Store) LockInventory(ctx context.Context, companyID, id uuid.UUID) (*model.Inventory, error) {
	defer prometheus.TrackDBOperation("lock")(time.Now())
	var inv model.Inventory
	err := s.conn(ctx).Scopes(ForCompany(companyID), ForUpdate).First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, dbErr(err, "inventory")
	}
	return &inv, nil
}

// LockInventoryFor locks the stock row of product in warehouse. It returns
// a not-found error when no row exists yet.
func (s *Store) LockInventoryFor(ctx context.Context, companyID, productID, warehouseID uuid.UUID) (*model.Inventory, error) {
	defer prometheus.TrackDBOperation("lock")(time.Now())
	var inv model.Inventory
	err := s.conn(ctx).Scopes(ForCompany(companyID), ForUpdate).
		First(&inv, "product_id = ? AND warehouse_id = ?", productID, warehouseID).Error
	if err != nil {
		return nil, dbErr(err, "inventory")
	}
	return &inv, nil
}

func (s *Store) ListInventory(ctx context.Context, companyID uuid.UUID, f InventoryFilter) ([]model.Inventory, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	q := s.conn(ctx).Model(&model.Inventory{}).Scopes(ForCompany(companyID))
	if f.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *f.WarehouseID)
	}
	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	if f.LowStock {
		q = q.Scopes(lowStock)
	}
	var out []model.Inventory
	total, err := list(q, f.Page, "updated_at DESC", &out, "Product", "Warehouse")
	if err != nil {
		return nil, 0, dbErr(err, "inventory")
	}
	return out, total, nil
}

// LowStock returns every stock row of companyID at or below its minimum.
func (s *Store) LowStock(ctx context.Context, companyID uuid.UUID) ([]model.Inventory, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var out []model.Inventory
	err := s.conn(ctx).Scopes(ForCompany(companyID), lowStock).
		Preload("Product").Preload("Warehouse").
		Order("quantity ASC").Find(&out).Error
	return out, dbErr(err, "inventory")
}

func lowStock(db *gorm.DB) *gorm.DB {
	return db.Where("quantity <= min_threshold")
}

func (s *Store) SaveInventory(ctx context.Context, inv *model.Inventory) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return dbErr(s.conn(ctx).Omit("Product", "Warehouse").Save(inv).Error, "inventory")
}

func (s *Store) DeleteInventory(ctx context.Context, companyID, id uuid.UUID) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	res := s.conn(ctx).Scopes(ForCompany(companyID)).Delete(&model.Inventory{}, "id = ?", id)
	if res.Error != nil {
		return dbErr(res.Error, "inventory")
	}
	if res.RowsAffected == 0 {
		return dbErr(errNotFound, "inventory")
	}
	return nil
}

func (s *Store) CreateBatch(ctx context.Context, b *model.Batch) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return dbErr(s.conn(ctx).Create(b).Error, "batch")
}

func (s *Store) GetBatch(ctx context.Context, companyID, id uuid.UUID) (*model.Batch, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var b model.Batch
	if err := s.conn(ctx).Scopes(ForCompany(companyID)).First(&b, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, "batch")
	}
	return &b, nil
}

func (s *Store) ListBatches(ctx context.Context, companyID uuid.UUID, f BatchFilter) ([]model.Batch, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	q := s.conn(ctx).Model(&model.Batch{}).Scopes(ForCompany(companyID))
	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	if f.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *f.WarehouseID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []model.Batch
	total, err := list(q, f.Page, "created_at DESC", &out)
	if err != nil {
		return nil, 0, dbErr(err, "batch")
	}
	return out, total, nil
}

// ExpiringBatches returns active batches of companyID expiring before cutoff.
func (s *Store) ExpiringBatches(ctx context.Context, companyID uuid.UUID, cutoff time.Time) ([]model.Batch, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var out []model.Batch
	err := s.conn(ctx).Scopes(ForCompany(companyID)).
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date < ?", model.BatchStatusActive, cutoff).
		Order("expiry_date ASC").Find(&out).Error
	return out, dbErr(err, "batch")
}

func (s *Store) SaveBatch(ctx context.Context, b *model.Batch) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return dbErr(s.conn(ctx).Save(b).Error, "batch")
}

func (s *Store) DeleteBatch(ctx context.Context, companyID, id uuid.UUID) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	res := s.conn(ctx).Scopes(ForCompany(companyID)).Delete(&model.Batch{}, "id = ?", id)
	if res.Error != nil {
		return dbErr(res.Error, "batch")
	}
	if res.RowsAffected == 0 {
		return dbErr(errNotFound, "batch")
	}
	return nil
}
