package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProductStatus is the catalog state of a product.
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusOutOfStock   ProductStatus = "out_of_stock"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// Valid reports whether s is a known product status.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusOutOfStock, ProductStatusDiscontinued:
		return true
	}
	return false
}

// ProductCategory groups products inside one company's catalog.
type ProductCategory struct {
	Base
	CompanyID   uuid.UUID  `json:"company_id" gorm:"type:uuid;not null;uniqueIndex:uq_product_categories_company_name"`
	Name        string     `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:uq_product_categories_company_name"`
	Description string     `json:"description,omitempty" gorm:"type:text"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" gorm:"type:uuid"`
}

// Product is a supplier-owned catalog entry.
type Product struct {
	Base
	SupplierID     uuid.UUID         `json:"supplier_id" gorm:"type:uuid;not null;uniqueIndex:uq_products_supplier_sku"`
	CategoryID     *uuid.UUID        `json:"category_id,omitempty" gorm:"type:uuid;index"`
	Name           string            `json:"name" gorm:"type:varchar(255);not null"`
	SKU            string            `json:"sku" gorm:"type:varchar(100);not null;uniqueIndex:uq_products_supplier_sku"`
	Description    string            `json:"description,omitempty" gorm:"type:text"`
	BasePrice      decimal.Decimal   `json:"base_price" gorm:"type:numeric(12,2);not null"`
	Unit           string            `json:"unit" gorm:"type:varchar(30);not null;default:'unit'"`
	Status         ProductStatus     `json:"status" gorm:"type:product_status;not null;default:'active'"`
	Specifications datatypes.JSONMap `json:"specifications,omitempty" gorm:"type:jsonb"`

	Supplier *Company         `json:"supplier,omitempty" gorm:"foreignKey:SupplierID;constraint:OnDelete:CASCADE"`
	Category *ProductCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
}
