package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/internal/service"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"go.uber.org/zap"
)

// AuthService is the account surface used by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	Profile(ctx context.Context, id auth.Identity) (*model.User, error)
	ChangePassword(ctx context.Context, id auth.Identity, in service.ChangePasswordInput) error
	AcceptInvitation(ctx context.Context, in service.AcceptInvitationInput) (*service.AuthResult, error)
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register creates a company together with its first admin user.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	logger.FromEcho(c).Info("Company registered",
		zap.String("company_id", res.Company.ID.String()),
		zap.String("company_type", string(res.Company.Type)))
	return c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) AcceptInvitation(c echo.Context) error {
	var req service.AcceptInvitationInput
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.AcceptInvitation(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Me(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Profile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req service.ChangePasswordInput
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.svc.ChangePassword(c.Request().Context(), id, req); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
