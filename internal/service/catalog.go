package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/internal/repository"
	"github.com/tienbob/Tubex-sub003/pkg/docstore"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type CategoryInput struct {
	Name        string     `json:"name" validate:"required,max=100"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

type CreateProductInput struct {
	Name           string                 `json:"name" validate:"required,max=255"`
	SKU            string                 `json:"sku" validate:"required,max=100"`
	Description    string                 `json:"description"`
	BasePrice      decimal.Decimal        `json:"base_price"`
	Unit           string                 `json:"unit" validate:"max=30"`
	Status         model.ProductStatus    `json:"status" validate:"omitempty,oneof=active inactive out_of_stock discontinued"`
	CategoryID     *uuid.UUID             `json:"category_id"`
	Specifications map[string]interface{} `json:"specifications"`
}

// UpdateProductInput changes only the fields that are set.
type UpdateProductInput struct {
	Name           *string                `json:"name" validate:"omitempty,min=1,max=255"`
	SKU            *string                `json:"sku" validate:"omitempty,min=1,max=100"`
	Description    *string                `json:"description"`
	BasePrice      *decimal.Decimal       `json:"base_price"`
	Unit           *string                `json:"unit" validate:"omitempty,max=30"`
	Status         *model.ProductStatus   `json:"status" validate:"omitempty,oneof=active inactive out_of_stock discontinued"`
	CategoryID     *uuid.UUID             `json:"category_id"`
	ClearCategory  bool                   `json:"clear_category"`
	Specifications map[string]interface{} `json:"specifications"`
}

type CatalogService struct {
	base
}

func NewCatalogService(store *repository.Store, docs docstore.Store) *CatalogService {
	return &CatalogService{base: newBase(store, docs)}
}

func (s *CatalogService) ListCategories(ctx context.Context, id auth.Identity) ([]model.ProductCategory, error) {
	out, err := s.store.ListCategories(ctx, id.CompanyID)
	if out == nil {
		out = []model.ProductCategory{}
	}
	return out, err
}

func (s *CatalogService) GetCategory(ctx context.Context, id auth.Identity, categoryID uuid.UUID) (*model.ProductCategory, error) {
	return s.store.GetCategory(ctx, id.CompanyID, categoryID)
}

func (s *CatalogService) CreateCategory(ctx context.Context, id auth.Identity, in CategoryInput) (*model.ProductCategory, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, id, uuid.Nil, in.ParentID); err != nil {
		return nil, err
	}
	c := &model.ProductCategory{
		CompanyID:   id.CompanyID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ParentID:    in.ParentID,
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id auth.Identity, categoryID uuid.UUID, in CategoryInput) (*model.ProductCategory, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	c, err := s.store.GetCategory(ctx, id.CompanyID, categoryID)
	if err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, id, categoryID, in.ParentID); err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Description = in.Description
	c.ParentID = in.ParentID
	if err := s.store.SaveCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id auth.Identity, categoryID uuid.UUID) error {
	if err := requireRole(id, model.RoleManager); err != nil {
		return err
	}
	return s.store.DeleteCategory(ctx, id.CompanyID, categoryID)
}

// checkParent requires parentID to be another category of the caller's
// company that does not descend from self.
func (s *CatalogService) checkParent(ctx context.Context, id auth.Identity, self uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	next := *parentID
	for depth := 0; next != uuid.Nil; depth++ {
		if next == self || depth > 32 {
			return apperror.Field("parent_id", "category cannot be its own ancestor")
		}
		parent, err := s.store.GetCategory(ctx, id.CompanyID, next)
		if err != nil {
			if apperror.Is(err, apperror.CodeNotFound) {
				return apperror.Field("parent_id", "parent category not found")
			}
			return err
		}
		if parent.ParentID == nil {
			break
		}
		next = *parent.ParentID
	}
	return nil
}

// ListProducts searches the catalog across suppliers.
func (s *CatalogService) ListProducts(ctx context.Context, id auth.Identity, f repository.ProductFilter) (ListResult[model.Product], error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return ListResult[model.Product]{}, apperror.Field("min_price", "min_price must not exceed max_price")
	}
	products, total, err := s.store.ListProducts(ctx, f)
	if err != nil {
		return ListResult[model.Product]{}, err
	}
	return newList(products, total, f.Page), nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id auth.Identity, productID uuid.UUID) (*model.Product, error) {
	return s.store.GetProduct(ctx, productID)
}

// CreateProduct adds a product to the caller's catalog. Suppliers only.
func (s *CatalogService) CreateProduct(ctx context.Context, id auth.Identity, in CreateProductInput) (*model.Product, error) {
	if err := requireSupplier(id); err != nil {
		return nil, err
	}
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	if in.BasePrice.IsNegative() {
		return nil, apperror.Field("base_price", "base_price must not be negative")
	}
	if err := s.checkCategory(ctx, id, in.CategoryID); err != nil {
		return nil, err
	}

	p := &model.Product{
		SupplierID:     id.CompanyID,
		CategoryID:     in.CategoryID,
		Name:           strings.TrimSpace(in.Name),
		SKU:            strings.TrimSpace(in.SKU),
		Description:    in.Description,
		BasePrice:      in.BasePrice.Round(2),
		Unit:           in.Unit,
		Status:         in.Status,
		Specifications: datatypes.JSONMap(in.Specifications),
	}
	if p.Unit == "" {
		p.Unit = "unit"
	}
	if p.Status == "" {
		p.Status = model.ProductStatusActive
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Product created",
		zap.String("product_id", p.ID.String()),
		zap.String("sku", p.SKU))
	s.audit(ctx, id, "product", p.ID.String(), "product.created",
		map[string]interface{}{"sku": p.SKU, "base_price": p.BasePrice.String()})
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id auth.Identity, productID uuid.UUID, in UpdateProductInput) (*model.Product, error) {
	if err := requireSupplier(id); err != nil {
		return nil, err
	}
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	p, err := s.store.GetSupplierProduct(ctx, id.CompanyID, productID)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
		changes["name"] = p.Name
	}
	if in.SKU != nil {
		p.SKU = strings.TrimSpace(*in.SKU)
		changes["sku"] = p.SKU
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.BasePrice != nil {
		if in.BasePrice.IsNegative() {
			return nil, apperror.Field("base_price", "base_price must not be negative")
		}
		changes["base_price"] = map[string]interface{}{"from": p.BasePrice.String(), "to": in.BasePrice.Round(2).String()}
		p.BasePrice = in.BasePrice.Round(2)
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.Status != nil {
		changes["status"] = string(*in.Status)
		p.Status = *in.Status
	}
	switch {
	case in.ClearCategory:
		p.CategoryID = nil
	case in.CategoryID != nil:
		if err := s.checkCategory(ctx, id, in.CategoryID); err != nil {
			return nil, err
		}
		p.CategoryID = in.CategoryID
	}
	if in.Specifications != nil {
		p.Specifications = datatypes.JSONMap(in.Specifications)
	}

	if err := s.store.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	s.audit(ctx, id, "product", p.ID.String(), "product.updated", changes)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id auth.Identity, productID uuid.UUID) error {
	if err := requireSupplier(id); err != nil {
		return err
	}
	if err := requireRole(id, model.RoleManager); err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, id.CompanyID, productID); err != nil {
		if apperror.Is(err, apperror.CodeConflict) {
			return apperror.Conflict("product is referenced by orders; mark it discontinued instead", "id")
		}
		return err
	}
	s.audit(ctx, id, "product", productID.String(), "product.deleted", nil)
	return nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id auth.Identity, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.store.GetCategory(ctx, id.CompanyID, *categoryID); err != nil {
		if apperror.Is(err, apperror.CodeNotFound) {
			return apperror.Field("category_id", "category not found")
		}
		return err
	}
	return nil
}
