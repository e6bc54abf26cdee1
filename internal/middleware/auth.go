package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/pkg/jwtutil"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"github.com/tienbob/Tubex-sub003/prometheus"
	"go.uber.org/zap"
)

// Echo context keys set by Auth.
const (
	IdentityKey  = "identity"
	UserIDKey    = "user_id"
	CompanyIDKey = "company_id"
)

// TokenValidator parses a bearer token into claims.
type TokenValidator interface {
	ValidateToken(token string) (*jwtutil.UserClaims, error)
}

// Auth validates the bearer token from the Authorization header and stores
// the caller's identity on the echo context and the request context.
func Auth(tokens TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return apperror.Unauthorized("missing authorization token")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return apperror.Unauthorized("invalid authorization format, expected Bearer token")
			}

			claims, err := tokens.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return apperror.Unauthorized("invalid or expired token")
			}

			id := auth.Identity{
				UserID:        claims.UserID,
				CompanyID:     claims.CompanyID,
				CompanyType:   model.CompanyType(claims.CompanyType),
				Role:          model.UserRole(claims.Role),
				Email:         claims.Email,
				PlatformAdmin: claims.PlatformAdmin,
				IPAddress:     c.RealIP(),
				UserAgent:     c.Request().UserAgent(),
			}

			c.Set(IdentityKey, id)
			c.Set(UserIDKey, id.UserID)
			c.Set(CompanyIDKey, id.CompanyID)

			ctxLogger := log.With(
				zap.String("user_id", id.UserID.String()),
				zap.String("company_id", id.CompanyID.String()))
			c.Set(logger.EchoKey, ctxLogger)
			ctx := auth.WithIdentity(c.Request().Context(), id)
			ctx = logger.WithContext(ctx, ctxLogger)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	id, ok := c.Get(IdentityKey).(auth.Identity)
	return id, ok
}

// RequireRole rejects callers whose role ranks below min.
func RequireRole(min model.UserRole) echo.MiddlewareFunc {
	return require(func(id auth.Identity) error {
		if !id.HasRole(min) {
			return apperror.Forbidden("requires " + string(min) + " role")
		}
		return nil
	})
}

// RequireSupplier rejects callers from dealer companies.
func RequireSupplier() echo.MiddlewareFunc {
	return require(func(id auth.Identity) error {
		if !id.IsSupplier() {
			return apperror.Forbidden("only supplier companies can perform this action")
		}
		return nil
	})
}

// RequirePlatformAdmin rejects callers that are not platform operators.
func RequirePlatformAdmin() echo.MiddlewareFunc {
	return require(func(id auth.Identity) error {
		if !id.PlatformAdmin {
			return apperror.Forbidden("platform admin access required")
		}
		return nil
	})
}

func require(check func(auth.Identity) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return apperror.Unauthorized("authentication required")
			}
			if err := check(id); err != nil {
				logger.FromEcho(c).Warn("Access denied",
					zap.String("path", c.Path()),
					zap.String("role", string(id.Role)),
					zap.Error(err))
				return err
			}
			return next(c)
		}
	}
}
