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

type UserService interface {
	List(ctx context.Context, id auth.Identity, f repository.UserFilter) (service.ListResult[model.User], error)
	Get(ctx context.Context, id auth.Identity, userID uuid.UUID) (*model.User, error)
	Create(ctx context.Context, id auth.Identity, in service.CreateUserInput) (*model.User, error)
	Update(ctx context.Context, id auth.Identity, userID uuid.UUID, in service.UpdateUserInput) (*model.User, error)
	Deactivate(ctx context.Context, id auth.Identity, userID uuid.UUID) (*model.User, error)
	Delete(ctx context.Context, id auth.Identity, userID uuid.UUID) error
	AuditLogs(ctx context.Context, id auth.Identity, userID uuid.UUID, p repository.Page) (service.ListResult[model.UserAuditLog], error)
	Activity(ctx context.Context, id auth.Identity, userID uuid.UUID, limit int64) ([]docstore.CustomerActivity, error)
}

type InvitationService interface {
	Create(ctx context.Context, id auth.Identity, in service.CreateInvitationInput) (*service.IssuedInvitation, error)
	List(ctx context.Context, id auth.Identity, status model.InvitationStatus) ([]model.Invitation, error)
	Revoke(ctx context.Context, id auth.Identity, invitationID uuid.UUID) (*model.Invitation, error)
	Resend(ctx context.Context, id auth.Identity, invitationID uuid.UUID) (*service.IssuedInvitation, error)
}

// UserHandler serves company user management and invitations.
type UserHandler struct {
	users       UserService
	invitations InvitationService
}

func NewUserHandler(users UserService, invitations InvitationService) *UserHandler {
	return &UserHandler{users: users, invitations: invitations}
}

func (h *UserHandler) List(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	q := newQuery(c)
	f := repository.UserFilter{
		Role:   enum(q, "role", model.RoleAdmin, model.RoleManager, model.RoleStaff),
		Status: enum(q, "status", model.UserStatusPending, model.UserStatusActive, model.UserStatusInactive, model.UserStatusSuspended),
		Search: q.str("search"),
		Page:   q.page(),
	}
	if err := q.err(); err != nil {
		return err
	}
	res, err := h.users.List(c.Request().Context(), id, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.users.Get(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req service.CreateUserInput
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.users.Create(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateUserInput
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.users.Update(c.Request().Context(), id, userID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Deactivate(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.users.Deactivate(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.Request().Context(), id, userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) AuditLogs(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	q := newQuery(c)
	p := q.page()
	if err := q.err(); err != nil {
		return err
	}
	res, err := h.users.AuditLogs(c.Request().Context(), id, userID, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *UserHandler) Activity(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	q := newQuery(c)
	limit := q.int("limit", 50)
	if err := q.err(); err != nil {
		return err
	}
	res, err := h.users.Activity(c.Request().Context(), id, userID, int64(limit))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Invitations

func (h *UserHandler) Invite(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req service.CreateInvitationInput
	if err := bind(c, &req); err != nil {
		return err
	}
	inv, err := h.invitations.Create(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *UserHandler) ListInvitations(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	q := newQuery(c)
	status := enum(q, "status", model.InvitationPending, model.InvitationAccepted, model.InvitationExpired, model.InvitationRevoked)
	if err := q.err(); err != nil {
		return err
	}
	res, err := h.invitations.List(c.Request().Context(), id, status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *UserHandler) RevokeInvitation(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	invitationID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	inv, err := h.invitations.Revoke(c.Request().Context(), id, invitationID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *UserHandler) ResendInvitation(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	invitationID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	inv, err := h.invitations.Resend(c.Request().Context(), id, invitationID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}
