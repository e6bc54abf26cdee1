package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/internal/repository"
	"github.com/tienbob/Tubex-sub003/internal/service"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"go.uber.org/zap"
)

type OrderService interface {
	Create(ctx context.Context, id auth.Identity, in service.CreateOrderInput) (*model.Order, error)
	List(ctx context.Context, id auth.Identity, view service.OrderView, f repository.OrderFilter) (service.ListResult[model.Order], error)
	Get(ctx context.Context, id auth.Identity, orderID uuid.UUID) (*model.Order, error)
	UpdateStatus(ctx context.Context, id auth.Identity, orderID uuid.UUID, in service.UpdateOrderStatusInput) (*model.Order, error)
	Cancel(ctx context.Context, id auth.Identity, orderID uuid.UUID, notes string) (*model.Order, error)
	UpdatePaymentStatus(ctx context.Context, id auth.Identity, orderID uuid.UUID, in service.UpdatePaymentInput) (*model.Order, error)
	History(ctx context.Context, id auth.Identity, orderID uuid.UUID) ([]model.OrderHistory, error)
	Summary(ctx context.Context, id auth.Identity, from, to *time.Time) (*service.OrderSummary, error)
	PlatformSummary(ctx context.Context, id auth.Identity, from, to *time.Time) (*service.OrderSummary, error)
	Invoice(ctx context.Context, id auth.Identity, orderID uuid.UUID) (*service.Invoice, error)
}

type cancelOrderRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

type OrderHandler struct {
	svc OrderService
}

func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Create places an order with a single supplier.
func (h *OrderHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req service.CreateOrderInput
	if err := bind(c, &req); err != nil {
		return err
	}
	o, err := h.svc.Create(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, o)
}

// List shows received or placed orders, selected by ?view.
func (h *OrderHandler) List(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	q := newQuery(c)
	view := enum(q, "view", service.OrderViewReceived, service.OrderViewPlaced)
	f := repository.OrderFilter{
		CustomerCompanyID: q.uuid("customer_company_id"),
		Status:            enum(q, "status", model.OrderPending, model.OrderConfirmed, model.OrderProcessing, model.OrderShipped, model.OrderDelivered, model.OrderCancelled, model.OrderReturned),
		PaymentStatus:     enum(q, "payment_status", model.PaymentPending, model.PaymentPaid, model.PaymentPartiallyPaid, model.PaymentFailed, model.PaymentRefunded),
		From:              q.time("from"),
		To:                q.time("to"),
		Page:              q.page(),
	}
	if err := q.err(); err != nil {
		return err
	}
	res, err := h.svc.List(c.Request().Context(), id, view, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *OrderHandler) Get(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	o, err := h.svc.Get(c.Request().Context(), id, orderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateOrderStatusInput
	if err := bind(c, &req); err != nil {
		return err
	}
	o, err := h.svc.UpdateStatus(c.Request().Context(), id, orderID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req cancelOrderRequest
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	o, err := h.svc.Cancel(c.Request().Context(), id, orderID, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) UpdatePayment(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdatePaymentInput
	if err := bind(c, &req); err != nil {
		return err
	}
	o, err := h.svc.UpdatePaymentStatus(c.Request().Context(), id, orderID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) History(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	res, err := h.svc.History(c.Request().Context(), id, orderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Invoice streams the order invoice as a PDF attachment.
func (h *OrderHandler) Invoice(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	inv, err := h.svc.Invoice(c.Request().Context(), id, orderID)
	if err != nil {
		return err
	}
	logger.FromEcho(c).Info("Invoice rendered",
		zap.String("order_id", orderID.String()),
		zap.Int("bytes", len(inv.Content)))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", inv.Filename))
	return c.Blob(http.StatusOK, "application/pdf", inv.Content)
}

func (h *OrderHandler) Summary(c echo.Context) error {
	return h.summary(c, h.svc.Summary)
}

func (h *OrderHandler) PlatformSummary(c echo.Context) error {
	return h.summary(c, h.svc.PlatformSummary)
}

func (h *OrderHandler) summary(c echo.Context, fn func(context.Context, auth.Identity, *time.Time, *time.Time) (*service.OrderSummary, error)) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	q := newQuery(c)
	from, to := q.time("from"), q.time("to")
	if err := q.err(); err != nil {
		return err
	}
	res, err := fn(c.Request().Context(), id, from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
