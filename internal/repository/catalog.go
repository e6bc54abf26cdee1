package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/prometheus"
)

// ProductFilter narrows the cross-supplier catalog.
type ProductFilter struct {
	SupplierID *uuid.UUID
	CategoryID *uuid.UUID
	Status     model.ProductStatus
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Page
}

func (s *Store) CreateCategory(ctx context.Context, c *model.ProductCategory) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return dbErr(s.conn(ctx).Create(c).Error, "category")
}

func (s *Store) GetCategory(ctx context.Context, companyID, id uuid.UUID) (*model.ProductCategory, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var c model.ProductCategory
	if err := s.conn(ctx).Scopes(ForCompany(companyID)).First(&c, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, "category")
	}
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context, companyID uuid.UUID) ([]model.ProductCategory, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var out []model.ProductCategory
	err := s.conn(ctx).Scopes(ForCompany(companyID)).Order("name ASC").Find(&out).Error
	return out, dbErr(err, "category")
}

func (s *Store) SaveCategory(ctx context.Context, c *model.ProductCategory) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return dbErr(s.conn(ctx).Save(c).Error, "category")
}

func (s *Store) DeleteCategory(ctx context.Context, companyID, id uuid.UUID) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	res := s.conn(ctx).Scopes(ForCompany(companyID)).Delete(&model.ProductCategory{}, "id = ?", id)
	if res.Error != nil {
		return dbErr(res.Error, "category")
	}
	if res.RowsAffected == 0 {
		return dbErr(errNotFound, "category")
	}
	return nil
}

func (s *Store) CreateProduct(ctx context.Context, p *model.Product) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return dbErr(s.conn(ctx).Omit("Supplier", "Category").Create(p).Error, "product")
}

// GetProduct loads any catalog product with its category.
func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var p model.Product
	if err := s.conn(ctx).Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, "product")
	}
	return &p, nil
}

// GetSupplierProduct loads a product owned by supplierID.
func (s *Store) GetSupplierProduct(ctx context.Context, supplierID, id uuid.UUID) (*model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var p model.Product
	if err := s.conn(ctx).Scopes(ForSupplier(supplierID)).First(&p, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, "product")
	}
	return &p, nil
}

// GetProducts loads the products with the given ids.
func (s *Store) GetProducts(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var out []model.Product
	err := s.conn(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, dbErr(err, "product")
}

func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]model.Product, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	q := s.conn(ctx).Model(&model.Product{})
	if f.SupplierID != nil {
		q = q.Scopes(ForSupplier(*f.SupplierID))
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := containsPattern(term)
		q = q.Where("(lower(name) LIKE ? OR lower(sku) LIKE ?)", like, like)
	}
	if f.MinPrice != nil {
		q = q.Where("base_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("base_price <= ?", *f.MaxPrice)
	}
	var out []model.Product
	total, err := list(q, f.Page, "name ASC", &out, "Category")
	if err != nil {
		return nil, 0, dbErr(err, "product")
	}
	return out, total, nil
}

func (s *Store) SaveProduct(ctx context.Context, p *model.Product) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return dbErr(s.conn(ctx).Omit("Supplier", "Category").Save(p).Error, "product")
}

// DeleteProduct removes a supplier product. Products referenced by order
// items are protected by the foreign key and surface as a conflict.
func (s *Store) DeleteProduct(ctx context.Context, supplierID, id uuid.UUID) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	res := s.conn(ctx).Scopes(ForSupplier(supplierID)).Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return dbErr(res.Error, "product")
	}
	if res.RowsAffected == 0 {
		return dbErr(errNotFound, "product")
	}
	return nil
}
