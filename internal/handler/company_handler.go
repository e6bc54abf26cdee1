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
	"github.com/tienbob/Tubex-sub003/pkg/docstore"
)

type CompanyService interface {
	Mine(ctx context.Context, id auth.Identity) (*model.Company, error)
	UpdateMine(ctx context.Context, id auth.Identity, in service.UpdateCompanyInput) (*model.Company, error)
	List(ctx context.Context, id auth.Identity, f repository.CompanyFilter) (service.ListResult[model.Company], error)
	Get(ctx context.Context, id auth.Identity, companyID uuid.UUID) (*model.Company, error)
	Verify(ctx context.Context, id auth.Identity, companyID uuid.UUID, in service.VerifyCompanyInput) (*model.Company, error)
	SetStatus(ctx context.Context, id auth.Identity, companyID uuid.UUID, in service.SetCompanyStatusInput) (*model.Company, error)
	Delete(ctx context.Context, id auth.Identity, companyID uuid.UUID) error
	AuditTrail(ctx context.Context, id auth.Identity, companyID uuid.UUID, limit int64) ([]docstore.AuditEvent, error)
	UserAuditLogs(ctx context.Context, id auth.Identity, f repository.AuditFilter) (service.ListResult[model.UserAuditLog], error)
}

// CompanyHandler serves the caller's own company and the platform admin
// company endpoints.
type CompanyHandler struct {
	svc CompanyService
}

func NewCompanyHandler(svc CompanyService) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

func (h *CompanyHandler) Mine(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	co, err := h.svc.Mine(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, co)
}

func (h *CompanyHandler) UpdateMine(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req service.UpdateCompanyInput
	if err := bind(c, &req); err != nil {
		return err
	}
	co, err := h.svc.UpdateMine(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, co)
}

// MyAuditTrail returns the audit events of the caller's company.
func (h *CompanyHandler) MyAuditTrail(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	return h.auditTrail(c, id, id.CompanyID)
}

// Platform admin

func (h *CompanyHandler) List(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	q := newQuery(c)
	f := repository.CompanyFilter{
		Type:               enum(q, "type", model.CompanyTypeDealer, model.CompanyTypeSupplier),
		Status:             enum(q, "status", model.CompanyStatusPendingVerification, model.CompanyStatusActive, model.CompanyStatusSuspended, model.CompanyStatusRejected),
		VerificationStatus: enum(q, "verification_status", model.VerificationUnverified, model.VerificationPending, model.VerificationVerified, model.VerificationRejected),
		Search:             q.str("search"),
		Page:               q.page(),
	}
	if err := q.err(); err != nil {
		return err
	}
	res, err := h.svc.List(c.Request().Context(), id, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CompanyHandler) Get(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	companyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	co, err := h.svc.Get(c.Request().Context(), id, companyID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, co)
}

func (h *CompanyHandler) Verify(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	companyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.VerifyCompanyInput
	if err := bind(c, &req); err != nil {
		return err
	}
	co, err := h.svc.Verify(c.Request().Context(), id, companyID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, co)
}

func (h *CompanyHandler) SetStatus(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	companyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.SetCompanyStatusInput
	if err := bind(c, &req); err != nil {
		return err
	}
	co, err := h.svc.SetStatus(c.Request().Context(), id, companyID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, co)
}

func (h *CompanyHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	companyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id, companyID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CompanyHandler) AuditTrail(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	companyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	return h.auditTrail(c, id, companyID)
}

func (h *CompanyHandler) auditTrail(c echo.Context, id auth.Identity, companyID uuid.UUID) error {
	q := newQuery(c)
	limit := q.int("limit", 100)
	if err := q.err(); err != nil {
		return err
	}
	events, err := h.svc.AuditTrail(c.Request().Context(), id, companyID, int64(limit))
	if err != nil {
		return err
	}
	if events == nil {
		events = []docstore.AuditEvent{}
	}
	return c.JSON(http.StatusOK, events)
}

func (h *CompanyHandler) UserAuditLogs(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	q := newQuery(c)
	f := repository.AuditFilter{
		CompanyID: q.uuid("company_id"),
		UserID:    q.uuid("user_id"),
		Action:    q.str("action"),
		Page:      q.page(),
	}
	if err := q.err(); err != nil {
		return err
	}
	res, err := h.svc.UserAuditLogs(c.Request().Context(), id, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
