package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/prometheus"
)

// UserFilter narrows a company's user listing.
type UserFilter struct {
	Role   model.UserRole
	Status model.UserStatus
	Search string
	Page
}

// AuditFilter narrows the user audit trail.
type AuditFilter struct {
	CompanyID *uuid.UUID
	UserID    *uuid.UUID
	Action    string
	Page
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return dbErr(s.conn(ctx).Create(u).Error, "user")
}

// GetUser loads a user of companyID.
func (s *Store) GetUser(ctx context.Context, companyID, id uuid.UUID) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var u model.User
	if err := s.conn(ctx).Scopes(ForCompany(companyID)).First(&u, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, "user")
	}
	return &u, nil
}

// GetUserWithCompany loads a user by id regardless of tenant, with its company.
func (s *Store) GetUserWithCompany(ctx context.Context, id uuid.UUID) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var u model.User
	if err := s.conn(ctx).Preload("Company").First(&u, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, "user")
	}
	return &u, nil
}

// GetUserByEmail looks a user up by normalized email, with its company.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var u model.User
	err := s.conn(ctx).Preload("Company").
		First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, dbErr(err, "user")
	}
	return &u, nil
}

// EmailTaken reports whether any user already has email.
func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var n int64
	err := s.conn(ctx).Model(&model.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Count(&n).Error
	return n > 0, dbErr(err, "user")
}

func (s *Store) ListUsers(ctx context.Context, companyID uuid.UUID, f UserFilter) ([]model.User, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	q := s.conn(ctx).Model(&model.User{}).Scopes(ForCompany(companyID))
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := containsPattern(term)
		q = q.Where("(email LIKE ? OR lower(first_name) LIKE ? OR lower(last_name) LIKE ?)", like, like, like)
	}
	var out []model.User
	total, err := list(q, f.Page, "created_at DESC", &out)
	if err != nil {
		return nil, 0, dbErr(err, "user")
	}
	return out, total, nil
}

func (s *Store) SaveUser(ctx context.Context, u *model.User) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return dbErr(s.conn(ctx).Omit("Company").Save(u).Error, "user")
}

// TouchLastLogin stamps the login time without touching other columns.
func (s *Store) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	err := s.conn(ctx).Model(&model.User{}).Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
	return dbErr(err, "user")
}

func (s *Store) DeleteUser(ctx context.Context, companyID, id uuid.UUID) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	res := s.conn(ctx).Scopes(ForCompany(companyID)).Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return dbErr(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return dbErr(errNotFound, "user")
	}
	return nil
}

// LockActiveAdmins locks the admins of companyID that can still log in and
// returns their ids. Call inside Transaction.
func (s *Store) LockActiveAdmins(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	defer prometheus.TrackDBOperation("lock")(time.Now())
	var ids []uuid.UUID
	err := s.conn(ctx).Model(&model.User{}).Scopes(ForCompany(companyID), ForUpdate).
		Where("role = ? AND status IN ?", model.RoleAdmin, []model.UserStatus{model.UserStatusActive, model.UserStatusPending}).
		Order("id").
		Pluck("id", &ids).Error
	return ids, dbErr(err, "user")
}

func (s *Store) CreateAuditLog(ctx context.Context, l *model.UserAuditLog) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return dbErr(s.conn(ctx).Create(l).Error, "audit log")
}

func (s *Store) ListAuditLogs(ctx context.Context, f AuditFilter) ([]model.UserAuditLog, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	q := s.conn(ctx).Model(&model.UserAuditLog{})
	if f.CompanyID != nil {
		q = q.Scopes(ForCompany(*f.CompanyID))
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	var out []model.UserAuditLog
	total, err := list(q, f.Page, "created_at DESC", &out)
	if err != nil {
		return nil, 0, dbErr(err, "audit log")
	}
	return out, total, nil
}
