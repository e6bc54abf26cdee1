package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/internal/repository"
	"github.com/tienbob/Tubex-sub003/pkg/config"
	"github.com/tienbob/Tubex-sub003/pkg/docstore"
	"github.com/tienbob/Tubex-sub003/pkg/jwtutil"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"github.com/tienbob/Tubex-sub003/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// RegisterInput creates a company together with its first admin.
type RegisterInput struct {
	CompanyName     string            `json:"company_name" validate:"required,max=255"`
	CompanyType     model.CompanyType `json:"company_type" validate:"required,oneof=dealer supplier"`
	TaxID           string            `json:"tax_id" validate:"required,max=50"`
	BusinessLicense string            `json:"business_license" validate:"max=100"`
	Address         string            `json:"address"`
	ContactPhone    string            `json:"contact_phone" validate:"max=30"`
	Email           string            `json:"email" validate:"required,email,max=255"`
	Password        string            `json:"password" validate:"required,min=8,max=72"`
	FirstName       string            `json:"first_name" validate:"max=100"`
	LastName        string            `json:"last_name" validate:"max=100"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type AcceptInvitationInput struct {
	Code      string `json:"code" validate:"required"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// AuthResult is returned by every operation that issues a token.
type AuthResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *model.User    `json:"user"`
	Company   *model.Company `json:"company"`
}

type AuthService struct {
	base
	jwt      *jwtutil.JWTUtil
	business *config.BusinessConfig
	cost     int
}

func NewAuthService(store *repository.Store, docs docstore.Store, jwt *jwtutil.JWTUtil, business *config.BusinessConfig) *AuthService {
	return &AuthService{
		base:     newBase(store, docs),
		jwt:      jwt,
		business: business,
		cost:     bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperror.Internal(err)
	}
	return string(h), nil
}

// Register creates a company and its first admin user in one transaction.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	log := logger.FromContext(ctx)

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	company := &model.Company{
		Name:               strings.TrimSpace(in.CompanyName),
		Type:               in.CompanyType,
		TaxID:              strings.TrimSpace(in.TaxID),
		BusinessLicense:    in.BusinessLicense,
		Address:            in.Address,
		ContactEmail:       email,
		ContactPhone:       in.ContactPhone,
		Status:             model.CompanyStatusPendingVerification,
		SubscriptionTier:   model.SubscriptionFree,
		VerificationStatus: model.VerificationPending,
		Metadata:           datatypes.JSONMap{},
	}
	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         model.RoleAdmin,
		Status:       model.UserStatusActive,
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.CreateCompany(ctx, company); err != nil {
			return err
		}
		user.CompanyID = company.ID
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.CreateAuditLog(ctx, &model.UserAuditLog{
			UserID:    user.ID,
			CompanyID: company.ID,
			Action:    model.AuditUserCreated,
			Changes:   datatypes.JSONMap{"role": string(user.Role), "source": "registration"},
		})
	})
	if err != nil {
		log.Warn("Company registration failed", zap.String("tax_id", company.TaxID), zap.Error(err))
		return nil, err
	}

	prometheus.RecordRegistration(string(company.Type))
	log.Info("Company registered",
		zap.String("company_id", company.ID.String()),
		zap.String("company_type", string(company.Type)),
		zap.String("admin_email", email))

	id := identityFor(user, company, false)
	s.audit(ctx, id, "company", company.ID.String(), "company.registered", map[string]interface{}{"name": company.Name})
	s.analytics(ctx, company.ID.String(), "company_registered", map[string]interface{}{"company_type": string(company.Type)})

	return s.issue(user, company)
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	log := logger.FromContext(ctx)

	user, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if apperror.Is(err, apperror.CodeNotFound) {
			prometheus.RecordLogin(false)
			prometheus.RecordAuthError("invalid_credentials")
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", user.Email))
		prometheus.RecordLogin(false)
		prometheus.RecordAuthError("invalid_credentials")
		return nil, apperror.Unauthorized("invalid credentials")
	}

	if !user.CanLogin() {
		prometheus.RecordLogin(false)
		prometheus.RecordAuthError("inactive_user")
		return nil, apperror.Forbidden("account is " + string(user.Status))
	}
	if c := user.Company; c != nil && (c.Status == model.CompanyStatusSuspended || c.Status == model.CompanyStatusRejected) {
		prometheus.RecordLogin(false)
		prometheus.RecordAuthError("company_" + string(c.Status))
		return nil, apperror.Forbidden("company is " + string(c.Status))
	}

	now := s.now()
	if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	prometheus.RecordLogin(true)
	log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("company_id", user.CompanyID.String()))

	s.activity(ctx, identityFor(user, user.Company, false), "login", nil)
	return s.issue(user, user.Company)
}

// Profile returns the caller with their company.
func (s *AuthService) Profile(ctx context.Context, id auth.Identity) (*model.User, error) {
	return s.store.GetUserWithCompany(ctx, id.UserID)
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, id auth.Identity, in ChangePasswordInput) error {
	user, err := s.store.GetUser(ctx, id.CompanyID, id.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return apperror.Field("current_password", "current password is incorrect")
	}
	if in.CurrentPassword == in.NewPassword {
		return apperror.Field("new_password", "new password must differ from the current one")
	}
	hash, err := s.hash(in.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
		return tx.CreateAuditLog(ctx, auditEntry(id, user, model.AuditUserPassword, nil))
	})
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

// AcceptInvitation turns a pending invitation into an active user of the
// inviting company.
func (s *AuthService) AcceptInvitation(ctx context.Context, in AcceptInvitationInput) (*AuthResult, error) {
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	var user *model.User
	var company *model.Company
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		inv, err := tx.LockInvitationByCode(ctx, in.Code)
		if err != nil {
			return err
		}
		if err := checkAcceptable(inv, s.now()); err != nil {
			return err
		}

		company, err = tx.GetCompany(ctx, inv.CompanyID)
		if err != nil {
			return err
		}

		now := s.now()
		user = &model.User{
			CompanyID:    inv.CompanyID,
			Email:        normalizeEmail(inv.Email),
			PasswordHash: hash,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Role:         inv.Role,
			Status:       model.UserStatusActive,
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}

		inv.Status = model.InvitationAccepted
		inv.AcceptedAt = &now
		if err := tx.SaveInvitation(ctx, inv); err != nil {
			return err
		}

		return tx.CreateAuditLog(ctx, &model.UserAuditLog{
			UserID:      user.ID,
			CompanyID:   inv.CompanyID,
			PerformedBy: inv.InvitedBy,
			Action:      model.AuditUserCreated,
			Changes:     datatypes.JSONMap{"role": string(user.Role), "source": "invitation", "invitation_id": inv.ID.String()},
		})
	})
	if err != nil {
		return nil, err
	}

	prometheus.RecordInvitation("accepted")
	logger.FromContext(ctx).Info("Invitation accepted",
		zap.String("user_id", user.ID.String()),
		zap.String("company_id", user.CompanyID.String()))

	return s.issue(user, company)
}

// checkAcceptable maps an invitation's state to the error a caller sees.
func checkAcceptable(inv *model.Invitation, now time.Time) error {
	switch inv.Status {
	case model.InvitationAccepted:
		return apperror.Conflict("invitation has already been accepted", "code")
	case model.InvitationRevoked:
		return apperror.Conflict("invitation has been revoked", "code")
	case model.InvitationExpired:
		return apperror.Gone("invitation has expired")
	}
	if inv.Expired(now) {
		return apperror.Gone("invitation has expired")
	}
	return nil
}

func (s *AuthService) issue(user *model.User, company *model.Company) (*AuthResult, error) {
	if company == nil {
		return nil, apperror.Internal(errors.New("user has no company loaded"))
	}
	token, err := s.jwt.GenerateToken(jwtutil.UserClaims{
		Email:         user.Email,
		UserID:        user.ID,
		CompanyID:     company.ID,
		CompanyType:   string(company.Type),
		Role:          string(user.Role),
		PlatformAdmin: s.business.IsPlatformAdmin(user.Email),
	})
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return nil, apperror.Internal(err)
	}
	user.Company = nil
	return &AuthResult{
		Token:     token,
		ExpiresAt: s.now().Add(s.jwt.TTL()),
		User:      user,
		Company:   company,
	}, nil
}

func identityFor(u *model.User, c *model.Company, platformAdmin bool) auth.Identity {
	id := auth.Identity{
		UserID:        u.ID,
		CompanyID:     u.CompanyID,
		Role:          u.Role,
		Email:         u.Email,
		PlatformAdmin: platformAdmin,
	}
	if c != nil {
		id.CompanyType = c.Type
	}
	return id
}
