package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WarehouseStatus is the operating state of a warehouse.
type WarehouseStatus string

const (
	WarehouseStatusActive      WarehouseStatus = "active"
	WarehouseStatusInactive    WarehouseStatus = "inactive"
	WarehouseStatusMaintenance WarehouseStatus = "maintenance"
)

// Valid reports whether s is a known warehouse status.
func (s WarehouseStatus) Valid() bool {
	return s == WarehouseStatusActive || s == WarehouseStatusInactive || s == WarehouseStatusMaintenance
}

// Warehouse is a company-scoped storage location.
type Warehouse struct {
	Base
	CompanyID   uuid.UUID       `json:"company_id" gorm:"type:uuid;not null;uniqueIndex:uq_warehouses_company_name"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:uq_warehouses_company_name"`
	Address     string          `json:"address,omitempty" gorm:"type:text"`
	Capacity    int             `json:"capacity" gorm:"not null;default:0"`
	ContactInfo string          `json:"contact_info,omitempty" gorm:"type:varchar(255)"`
	Status      WarehouseStatus `json:"status" gorm:"type:warehouse_status;not null;default:'active'"`
}

// InventoryStatus is derived from quantity against thresholds.
type InventoryStatus string

const (
	InventoryInStock    InventoryStatus = "in_stock"
	InventoryLowStock   InventoryStatus = "low_stock"
	InventoryOutOfStock InventoryStatus = "out_of_stock"
)

// Inventory is the stock of one product in one warehouse of one company.
// (product_id, warehouse_id, company_id) is unique.
type Inventory struct {
	Base
	ProductID       uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:uq_inventory_product_warehouse_company"`
	WarehouseID     uuid.UUID       `json:"warehouse_id" gorm:"type:uuid;not null;uniqueIndex:uq_inventory_product_warehouse_company"`
	CompanyID       uuid.UUID       `json:"company_id" gorm:"type:uuid;not null;uniqueIndex:uq_inventory_product_warehouse_company"`
	Quantity        decimal.Decimal `json:"quantity" gorm:"type:numeric(14,3);not null;default:0"`
	Unit            string          `json:"unit" gorm:"type:varchar(30);not null;default:'unit'"`
	MinThreshold    decimal.Decimal `json:"min_threshold" gorm:"type:numeric(14,3);not null;default:0"`
	MaxThreshold    decimal.Decimal `json:"max_threshold" gorm:"type:numeric(14,3);not null;default:0"`
	ReorderPoint    decimal.Decimal `json:"reorder_point" gorm:"type:numeric(14,3);not null;default:0"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity" gorm:"type:numeric(14,3);not null;default:0"`
	AutoReorder     bool            `json:"auto_reorder" gorm:"not null;default:false"`
	LastRestockDate *time.Time      `json:"last_restock_date,omitempty"`
	Status          InventoryStatus `json:"status" gorm:"type:varchar(20);not null;default:'in_stock'"`

	Product   *Product   `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Warehouse *Warehouse `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the singular table name used by the migrations.
func (Inventory) TableName() string {
	return "inventory"
}

// RefreshStatus recomputes Status from Quantity and MinThreshold.
func (i *Inventory) RefreshStatus() {
	switch {
	case !i.Quantity.IsPositive():
		i.Status = InventoryOutOfStock
	case i.Quantity.LessThanOrEqual(i.MinThreshold):
		i.Status = InventoryLowStock
	default:
		i.Status = InventoryInStock
	}
}

// NeedsReorder reports whether stock fell to the reorder point.
func (i *Inventory) NeedsReorder() bool {
	return i.ReorderPoint.IsPositive() && i.Quantity.LessThanOrEqual(i.ReorderPoint)
}

// BatchStatus is the lifecycle of a production batch.
type BatchStatus string

const (
	BatchStatusActive      BatchStatus = "active"
	BatchStatusExpired     BatchStatus = "expired"
	BatchStatusDepleted    BatchStatus = "depleted"
	BatchStatusQuarantined BatchStatus = "quarantined"
)

// Valid reports whether s is a known batch status.
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchStatusActive, BatchStatusExpired, BatchStatusDepleted, BatchStatusQuarantined:
		return true
	}
	return false
}

// Batch tracks a lot of a product in a warehouse, with expiry.
// batch_number is unique per company.
type Batch struct {
	Base
	BatchNumber       string          `json:"batch_number" gorm:"type:varchar(100);not null;uniqueIndex:uq_batches_company_batch_number"`
	CompanyID         uuid.UUID       `json:"company_id" gorm:"type:uuid;not null;uniqueIndex:uq_batches_company_batch_number"`
	ProductID         uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	WarehouseID       uuid.UUID       `json:"warehouse_id" gorm:"type:uuid;not null;index"`
	Quantity          decimal.Decimal `json:"quantity" gorm:"type:numeric(14,3);not null;default:0"`
	UnitCost          decimal.Decimal `json:"unit_cost" gorm:"type:numeric(12,2);not null;default:0"`
	ManufacturingDate *time.Time      `json:"manufacturing_date,omitempty" gorm:"type:date"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty" gorm:"type:date;index"`
	Status            BatchStatus     `json:"status" gorm:"type:batch_status;not null;default:'active'"`
	SupplierBatchRef  string          `json:"supplier_batch_ref,omitempty" gorm:"type:varchar(100)"`
}

// ExpiresWithin reports whether the batch expires before now+window.
func (b *Batch) ExpiresWithin(now time.Time, window time.Duration) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(now.Add(window))
}
