package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/prometheus"
)

func (s *Store) CreateInvitation(ctx context.Context, inv *model.Invitation) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return dbErr(s.conn(ctx).Omit("Company").Create(inv).Error, "invitation")
}

func (s *Store) GetInvitation(ctx context.Context, companyID, id uuid.UUID) (*model.Invitation, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var inv model.Invitation
	if err := s.conn(ctx).Scopes(ForCompany(companyID)).First(&inv, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, "invitation")
	}
	return &inv, nil
}

// LockInvitationByCode loads an invitation by its code FOR UPDATE.
func (s *Store) LockInvitationByCode(ctx context.Context, code string) (*model.Invitation, error) {
	defer prometheus.TrackDBOperation("lock")(time.Now())
	var inv model.Invitation
	err := s.conn(ctx).Scopes(ForUpdate).First(&inv, "code = ?", strings.TrimSpace(code)).Error
	if err != nil {
		return nil, dbErr(err, "invitation")
	}
	return &inv, nil
}

// PendingInvitationExists reports whether companyID has an open invite for email.
func (s *Store) PendingInvitationExists(ctx context.Context, companyID uuid.UUID, email string) (bool, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var n int64
	err := s.conn(ctx).Model(&model.Invitation{}).Scopes(ForCompany(companyID)).
		Where("lower(email) = ? AND status = ?", strings.ToLower(email), model.InvitationPending).
		Count(&n).Error
	return n > 0, dbErr(err, "invitation")
}

func (s *Store) ListInvitations(ctx context.Context, companyID uuid.UUID, status model.InvitationStatus) ([]model.Invitation, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	q := s.conn(ctx).Scopes(ForCompany(companyID))
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []model.Invitation
	err := q.Order("created_at DESC").Find(&out).Error
	return out, dbErr(err, "invitation")
}

func (s *Store) SaveInvitation(ctx context.Context, inv *model.Invitation) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return dbErr(s.conn(ctx).Omit("Company").Save(inv).Error, "invitation")
}

// ExpireInvitations marks pending invitations past their expiry as expired.
func (s *Store) ExpireInvitations(ctx context.Context, now time.Time) (int64, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())
	res := s.conn(ctx).Model(&model.Invitation{}).
		Where("status = ? AND expires_at <= ?", model.InvitationPending, now).
		Updates(map[string]interface{}{"status": model.InvitationExpired, "updated_at": now})
	return res.RowsAffected, dbErr(res.Error, "invitation")
}
