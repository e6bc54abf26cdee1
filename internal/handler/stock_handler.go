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
)

type StockService interface {
	ListWarehouses(ctx context.Context, id auth.Identity, status model.WarehouseStatus) ([]model.Warehouse, error)
	GetWarehouse(ctx context.Context, id auth.Identity, warehouseID uuid.UUID) (*model.Warehouse, error)
	CreateWarehouse(ctx context.Context, id auth.Identity, in service.WarehouseInput) (*model.Warehouse, error)
	UpdateWarehouse(ctx context.Context, id auth.Identity, warehouseID uuid.UUID, in service.WarehouseInput) (*model.Warehouse, error)
	DeleteWarehouse(ctx context.Context, id auth.Identity, warehouseID uuid.UUID) error

	ListInventory(ctx context.Context, id auth.Identity, f repository.InventoryFilter) (service.ListResult[model.Inventory], error)
	GetInventory(ctx context.Context, id auth.Identity, inventoryID uuid.UUID) (*model.Inventory, error)
	CreateInventory(ctx context.Context, id auth.Identity, in service.CreateInventoryInput) (*model.Inventory, error)
	UpdateInventory(ctx context.Context, id auth.Identity, inventoryID uuid.UUID, in service.UpdateInventoryInput) (*model.Inventory, error)
	AdjustInventory(ctx context.Context, id auth.Identity, inventoryID uuid.UUID, in service.AdjustInventoryInput) (*model.Inventory, error)
	TransferInventory(ctx context.Context, id auth.Identity, in service.TransferInventoryInput) (*service.TransferResult, error)
	DeleteInventory(ctx context.Context, id auth.Identity, inventoryID uuid.UUID) error
	LowStock(ctx context.Context, id auth.Identity) ([]model.Inventory, error)

	ListBatches(ctx context.Context, id auth.Identity, f repository.BatchFilter) (service.ListResult[model.Batch], error)
	GetBatch(ctx context.Context, id auth.Identity, batchID uuid.UUID) (*model.Batch, error)
	CreateBatch(ctx context.Context, id auth.Identity, in service.CreateBatchInput) (*model.Batch, error)
	UpdateBatch(ctx context.Context, id auth.Identity, batchID uuid.UUID, in service.UpdateBatchInput) (*model.Batch, error)
	DeleteBatch(ctx context.Context, id auth.Identity, batchID uuid.UUID) error
	ExpiringBatches(ctx context.Context, id auth.Identity, days int) ([]model.Batch, error)
}

// StockHandler serves warehouses, inventory and batches.
type StockHandler struct {
	svc StockService
}

func NewStockHandler(svc StockService) *StockHandler {
	return &StockHandler{svc: svc}
}

// Warehouses

func (h *StockHandler) ListWarehouses(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	q := newQuery(c)
	status := enum(q, "status", model.WarehouseStatusActive, model.WarehouseStatusInactive, model.WarehouseStatusMaintenance)
	if err := q.err(); err != nil {
		return err
	}
	res, err := h.svc.ListWarehouses(c.Request().Context(), id, status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StockHandler) GetWarehouse(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	warehouseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	w, err := h.svc.GetWarehouse(c.Request().Context(), id, warehouseID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, w)
}

func (h *StockHandler) CreateWarehouse(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req service.WarehouseInput
	if err := bind(c, &req); err != nil {
		return err
	}
	w, err := h.svc.CreateWarehouse(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *StockHandler) UpdateWarehouse(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	warehouseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.WarehouseInput
	if err := bind(c, &req); err != nil {
		return err
	}
	w, err := h.svc.UpdateWarehouse(c.Request().Context(), id, warehouseID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, w)
}

func (h *StockHandler) DeleteWarehouse(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	warehouseID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteWarehouse(c.Request().Context(), id, warehouseID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Inventory

func (h *StockHandler) ListInventory(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	q := newQuery(c)
	f := repository.InventoryFilter{
		WarehouseID: q.uuid("warehouse_id"),
		ProductID:   q.uuid("product_id"),
		LowStock:    q.bool("low_stock"),
		Page:        q.page(),
	}
	if err := q.err(); err != nil {
		return err
	}
	res, err := h.svc.ListInventory(c.Request().Context(), id, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StockHandler) GetInventory(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	inventoryID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	inv, err := h.svc.GetInventory(c.Request().Context(), id, inventoryID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *StockHandler) CreateInventory(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req service.CreateInventoryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	inv, err := h.svc.CreateInventory(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *StockHandler) UpdateInventory(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	inventoryID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateInventoryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	inv, err := h.svc.UpdateInventory(c.Request().Context(), id, inventoryID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *StockHandler) AdjustInventory(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	inventoryID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.AdjustInventoryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	inv, err := h.svc.AdjustInventory(c.Request().Context(), id, inventoryID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *StockHandler) TransferInventory(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req service.TransferInventoryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.TransferInventory(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StockHandler) DeleteInventory(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	inventoryID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteInventory(c.Request().Context(), id, inventoryID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *StockHandler) LowStock(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	res, err := h.svc.LowStock(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Batches

func (h *StockHandler) ListBatches(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	q := newQuery(c)
	f := repository.BatchFilter{
		ProductID:   q.uuid("product_id"),
		WarehouseID: q.uuid("warehouse_id"),
		Status:      enum(q, "status", model.BatchStatusActive, model.BatchStatusExpired, model.BatchStatusDepleted, model.BatchStatusQuarantined),
		Page:        q.page(),
	}
	if err := q.err(); err != nil {
		return err
	}
	res, err := h.svc.ListBatches(c.Request().Context(), id, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StockHandler) GetBatch(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	batchID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.svc.GetBatch(c.Request().Context(), id, batchID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *StockHandler) CreateBatch(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req service.CreateBatchInput
	if err := bind(c, &req); err != nil {
		return err
	}
	b, err := h.svc.CreateBatch(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *StockHandler) UpdateBatch(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	batchID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateBatchInput
	if err := bind(c, &req); err != nil {
		return err
	}
	b, err := h.svc.UpdateBatch(c.Request().Context(), id, batchID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *StockHandler) DeleteBatch(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	batchID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteBatch(c.Request().Context(), id, batchID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ExpiringBatches lists active batches expiring within ?days (default 30).
func (h *StockHandler) ExpiringBatches(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	q := newQuery(c)
	days := q.int("days", 0)
	if err := q.err(); err != nil {
		return err
	}
	res, err := h.svc.ExpiringBatches(c.Request().Context(), id, days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
