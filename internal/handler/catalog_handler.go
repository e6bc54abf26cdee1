package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/internal/repository"
	"github.com/tienbob/Tubex-sub003/internal/service"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"go.uber.org/zap"
)

type CatalogService interface {
	ListCategories(ctx context.Context, id auth.Identity) ([]model.ProductCategory, error)
	GetCategory(ctx context.Context, id auth.Identity, categoryID uuid.UUID) (*model.ProductCategory, error)
	CreateCategory(ctx context.Context, id auth.Identity, in service.CategoryInput) (*model.ProductCategory, error)
	UpdateCategory(ctx context.Context, id auth.Identity, categoryID uuid.UUID, in service.CategoryInput) (*model.ProductCategory, error)
	DeleteCategory(ctx context.Context, id auth.Identity, categoryID uuid.UUID) error
	ListProducts(ctx context.Context, id auth.Identity, f repository.ProductFilter) (service.ListResult[model.Product], error)
	GetProduct(ctx context.Context, id auth.Identity, productID uuid.UUID) (*model.Product, error)
	CreateProduct(ctx context.Context, id auth.Identity, in service.CreateProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id auth.Identity, productID uuid.UUID, in service.UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id auth.Identity, productID uuid.UUID) error
}

type CatalogHandler struct {
	svc CatalogService
}

func NewCatalogHandler(svc CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ListCategories retrieves all product categories of the caller's company
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	categories, err := h.svc.ListCategories(c.Request().Context(), id)
	if err != nil {
		return err
	}
	logger.FromEcho(c).Debug("Categories retrieved", zap.Int("count", len(categories)))
	return c.JSON(http.StatusOK, categories)
}

func (h *CatalogHandler) GetCategory(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	categoryID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.svc.GetCategory(c.Request().Context(), id, categoryID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req service.CategoryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	cat, err := h.svc.CreateCategory(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	categoryID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.CategoryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	cat, err := h.svc.UpdateCategory(c.Request().Context(), id, categoryID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	categoryID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteCategory(c.Request().Context(), id, categoryID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListProducts searches the catalog of every supplier.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	q := newQuery(c)
	f := repository.ProductFilter{
		SupplierID: q.uuid("supplier_id"),
		CategoryID: q.uuid("category_id"),
		Status:     enum(q, "status", model.ProductStatusActive, model.ProductStatusInactive, model.ProductStatusOutOfStock, model.ProductStatusDiscontinued),
		Search:     q.str("search"),
		MinPrice:   q.decimal("min_price"),
		MaxPrice:   q.decimal("max_price"),
		Page:       q.page(),
	}
	if err := q.err(); err != nil {
		return err
	}
	res, err := h.svc.ListProducts(c.Request().Context(), id, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetProduct(c.Request().Context(), id, productID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req service.CreateProductInput
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.CreateProduct(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateProductInput
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.UpdateProduct(c.Request().Context(), id, productID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteProduct(c.Request().Context(), id, productID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
