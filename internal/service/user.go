package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/internal/repository"
	"github.com/tienbob/Tubex-sub003/pkg/docstore"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

type CreateUserInput struct {
	Email     string         `json:"email" validate:"required,email,max=255"`
	Password  string         `json:"password" validate:"required,min=8,max=72"`
	FirstName string         `json:"first_name" validate:"max=100"`
	LastName  string         `json:"last_name" validate:"max=100"`
	Role      model.UserRole `json:"role" validate:"required,oneof=admin manager staff"`
}

// UpdateUserInput changes only the fields that are set.
type UpdateUserInput struct {
	FirstName *string           `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string           `json:"last_name" validate:"omitempty,max=100"`
	Role      *model.UserRole   `json:"role" validate:"omitempty,oneof=admin manager staff"`
	Status    *model.UserStatus `json:"status" validate:"omitempty,oneof=pending active inactive suspended"`
}

type UserService struct {
	base
	cost int
}

func NewUserService(store *repository.Store, docs docstore.Store) *UserService {
	return &UserService{base: newBase(store, docs), cost: bcrypt.DefaultCost}
}

func (s *UserService) List(ctx context.Context, id auth.Identity, f repository.UserFilter) (ListResult[model.User], error) {
	users, total, err := s.store.ListUsers(ctx, id.CompanyID, f)
	if err != nil {
		return ListResult[model.User]{}, err
	}
	return newList(users, total, f.Page), nil
}

func (s *UserService) Get(ctx context.Context, id auth.Identity, userID uuid.UUID) (*model.User, error) {
	return s.store.GetUser(ctx, id.CompanyID, userID)
}

// Create adds a user to the caller's company. Managers cannot create admins.
func (s *UserService) Create(ctx context.Context, id auth.Identity, in CreateUserInput) (*model.User, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	if in.Role == model.RoleAdmin && id.Role != model.RoleAdmin {
		return nil, apperror.Forbidden("only admins can create admin users")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	user := &model.User{
		CompanyID:    id.CompanyID,
		Email:        normalizeEmail(in.Email),
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		Status:       model.UserStatusActive,
	}

	changes := map[string]interface{}{"email": user.Email, "role": string(user.Role)}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.CreateAuditLog(ctx, auditEntry(id, user, model.AuditUserCreated, changes))
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))
	s.audit(ctx, id, "user", user.ID.String(), model.AuditUserCreated, changes)
	return user, nil
}

// Update applies in to a user. Users may edit their own names; role and
// status changes need an admin, and the company keeps at least one admin.
func (s *UserService) Update(ctx context.Context, id auth.Identity, userID uuid.UUID, in UpdateUserInput) (*model.User, error) {
	self := userID == id.UserID
	if !self {
		if err := requireRole(id, model.RoleManager); err != nil {
			return nil, err
		}
	}
	if (in.Role != nil || in.Status != nil) && id.Role != model.RoleAdmin {
		return nil, apperror.Forbidden("only admins can change role or status")
	}

	var user *model.User
	var changes map[string]interface{}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		user, err = tx.GetUser(ctx, id.CompanyID, userID)
		if err != nil {
			return err
		}
		if user.Role == model.RoleAdmin && id.Role != model.RoleAdmin {
			return apperror.Forbidden("only admins can modify admin users")
		}
		before := *user

		if in.FirstName != nil {
			user.FirstName = *in.FirstName
		}
		if in.LastName != nil {
			user.LastName = *in.LastName
		}
		if in.Role != nil {
			user.Role = *in.Role
		}
		if in.Status != nil {
			user.Status = *in.Status
		}

		if removesAdmin(&before, user) {
			if err := ensureAnotherAdmin(ctx, tx, id.CompanyID); err != nil {
				return err
			}
		}

		changes = diffUser(&before, user)
		if len(changes) == 0 {
			return nil
		}
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
		return tx.CreateAuditLog(ctx, auditEntry(id, user, model.AuditUserUpdated, changes))
	})
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		s.audit(ctx, id, "user", user.ID.String(), model.AuditUserUpdated, changes)
	}
	return user, nil
}

// Deactivate blocks a user from logging in.
func (s *UserService) Deactivate(ctx context.Context, id auth.Identity, userID uuid.UUID) (*model.User, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	if userID == id.UserID {
		return nil, apperror.Field("id", "you cannot deactivate yourself")
	}

	var user *model.User
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		user, err = tx.GetUser(ctx, id.CompanyID, userID)
		if err != nil {
			return err
		}
		if user.Role == model.RoleAdmin && id.Role != model.RoleAdmin {
			return apperror.Forbidden("only admins can deactivate admin users")
		}
		if user.Status == model.UserStatusInactive {
			return nil
		}
		before := *user
		user.Status = model.UserStatusInactive
		if removesAdmin(&before, user) {
			if err := ensureAnotherAdmin(ctx, tx, id.CompanyID); err != nil {
				return err
			}
		}
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
		return tx.CreateAuditLog(ctx, auditEntry(id, user, model.AuditUserDeactivated, diffUser(&before, user)))
	})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, id, "user", user.ID.String(), model.AuditUserDeactivated, nil)
	return user, nil
}

// Delete removes a user of the caller's company. Admins only, never self.
func (s *UserService) Delete(ctx context.Context, id auth.Identity, userID uuid.UUID) error {
	if err := requireRole(id, model.RoleAdmin); err != nil {
		return err
	}
	if userID == id.UserID {
		return apperror.Field("id", "you cannot delete yourself")
	}

	var email string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		user, err := tx.GetUser(ctx, id.CompanyID, userID)
		if err != nil {
			return err
		}
		email = user.Email
		if user.Role == model.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, tx, id.CompanyID); err != nil {
				return err
			}
		}
		return tx.DeleteUser(ctx, id.CompanyID, userID)
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info("User deleted", zap.String("user_id", userID.String()))
	s.audit(ctx, id, "user", userID.String(), model.AuditUserDeleted, map[string]interface{}{"email": email})
	return nil
}

// AuditLogs lists the relational audit trail of one user of the company.
func (s *UserService) AuditLogs(ctx context.Context, id auth.Identity, userID uuid.UUID, p repository.Page) (ListResult[model.UserAuditLog], error) {
	if userID != id.UserID {
		if err := requireRole(id, model.RoleAdmin); err != nil {
			return ListResult[model.UserAuditLog]{}, err
		}
	}
	logs, total, err := s.store.ListAuditLogs(ctx, repository.AuditFilter{CompanyID: &id.CompanyID, UserID: &userID, Page: p})
	if err != nil {
		return ListResult[model.UserAuditLog]{}, err
	}
	return newList(logs, total, p), nil
}

// Activity returns the user's recent activity from the document store.
func (s *UserService) Activity(ctx context.Context, id auth.Identity, userID uuid.UUID, limit int64) ([]docstore.CustomerActivity, error) {
	if userID != id.UserID {
		if err := requireRole(id, model.RoleManager); err != nil {
			return nil, err
		}
		if _, err := s.store.GetUser(ctx, id.CompanyID, userID); err != nil {
			return nil, err
		}
	}
	return s.docs.CustomerActivities(ctx, userID.String(), limit)
}

func removesAdmin(before, after *model.User) bool {
	wasAdmin := before.Role == model.RoleAdmin && before.CanLogin()
	isAdmin := after.Role == model.RoleAdmin && after.CanLogin()
	return wasAdmin && !isAdmin
}

func ensureAnotherAdmin(ctx context.Context, tx *repository.Store, companyID uuid.UUID) error {
	admins, err := tx.LockActiveAdmins(ctx, companyID)
	if err != nil {
		return err
	}
	if len(admins) <= 1 {
		return apperror.Conflict("company must keep at least one active admin", "role")
	}
	return nil
}

// diffUser returns {"field": {"from": old, "to": new}} for changed fields.
func diffUser(before, after *model.User) map[string]interface{} {
	changes := map[string]interface{}{}
	add := func(field string, from, to interface{}) {
		if from != to {
			changes[field] = map[string]interface{}{"from": from, "to": to}
		}
	}
	add("first_name", before.FirstName, after.FirstName)
	add("last_name", before.LastName, after.LastName)
	add("role", string(before.Role), string(after.Role))
	add("status", string(before.Status), string(after.Status))
	add("email", before.Email, after.Email)
	return changes
}

func auditEntry(id auth.Identity, user *model.User, action string, changes map[string]interface{}) *model.UserAuditLog {
	performer := id.UserID
	entry := &model.UserAuditLog{
		UserID:      user.ID,
		CompanyID:   user.CompanyID,
		PerformedBy: &performer,
		Action:      action,
		IPAddress:   id.IPAddress,
		UserAgent:   id.UserAgent,
	}
	if len(changes) > 0 {
		entry.Changes = datatypes.JSONMap(changes)
	}
	return entry
}
