package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/internal/repository"
	"github.com/tienbob/Tubex-sub003/pkg/docstore"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"github.com/tienbob/Tubex-sub003/prometheus"
	"go.uber.org/zap"
)

type CreateInvitationInput struct {
	Email string         `json:"email" validate:"required,email,max=255"`
	Role  model.UserRole `json:"role" validate:"required,oneof=admin manager staff"`
}

// IssuedInvitation carries the secret code, which is only returned when
// an invitation is created or resent.
type IssuedInvitation struct {
	*model.Invitation
	Code string `json:"code"`
}

type InvitationService struct {
	base
	ttl time.Duration
}

func NewInvitationService(store *repository.Store, docs docstore.Store, ttl time.Duration) *InvitationService {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &InvitationService{base: newBase(store, docs), ttl: ttl}
}

func newInvitationCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Create invites email into the caller's company with role.
func (s *InvitationService) Create(ctx context.Context, id auth.Identity, in CreateInvitationInput) (*IssuedInvitation, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	if in.Role == model.RoleAdmin && id.Role != model.RoleAdmin {
		return nil, apperror.Forbidden("only admins can invite admin users")
	}

	email := normalizeEmail(in.Email)
	taken, err := s.store.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.Conflict("a user with this email already exists", "email")
	}

	if _, err := s.store.ExpireInvitations(ctx, s.now()); err != nil {
		return nil, err
	}
	pending, err := s.store.PendingInvitationExists(ctx, id.CompanyID, email)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperror.Conflict("a pending invitation for this email already exists", "email")
	}

	inviter := id.UserID
	inv := &model.Invitation{
		CompanyID: id.CompanyID,
		Email:     email,
		Code:      newInvitationCode(),
		Role:      in.Role,
		InvitedBy: &inviter,
		Status:    model.InvitationPending,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}

	prometheus.RecordInvitation("created")
	logger.FromContext(ctx).Info("Invitation created",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("email", email),
		zap.Time("expires_at", inv.ExpiresAt))
	s.audit(ctx, id, "invitation", inv.ID.String(), "invitation.created",
		map[string]interface{}{"email": email, "role": string(in.Role)})
	return &IssuedInvitation{Invitation: inv, Code: inv.Code}, nil
}

// List returns the company's invitations after expiring stale ones.
func (s *InvitationService) List(ctx context.Context, id auth.Identity, status model.InvitationStatus) ([]model.Invitation, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	if _, err := s.store.ExpireInvitations(ctx, s.now()); err != nil {
		return nil, err
	}
	out, err := s.store.ListInvitations(ctx, id.CompanyID, status)
	if out == nil {
		out = []model.Invitation{}
	}
	return out, err
}

// Revoke cancels a pending invitation.
func (s *InvitationService) Revoke(ctx context.Context, id auth.Identity, invitationID uuid.UUID) (*model.Invitation, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	inv, err := s.store.GetInvitation(ctx, id.CompanyID, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvitationPending {
		return nil, apperror.Conflict("only pending invitations can be revoked", "status")
	}
	inv.Status = model.InvitationRevoked
	if err := s.store.SaveInvitation(ctx, inv); err != nil {
		return nil, err
	}
	prometheus.RecordInvitation("revoked")
	s.audit(ctx, id, "invitation", inv.ID.String(), "invitation.revoked", nil)
	return inv, nil
}

// Resend issues a fresh code and expiry for a pending or expired invitation.
func (s *InvitationService) Resend(ctx context.Context, id auth.Identity, invitationID uuid.UUID) (*IssuedInvitation, error) {
	if err := requireRole(id, model.RoleManager); err != nil {
		return nil, err
	}
	inv, err := s.store.GetInvitation(ctx, id.CompanyID, invitationID)
	if err != nil {
		return nil, err
	}
	switch inv.Status {
	case model.InvitationPending, model.InvitationExpired:
	default:
		return nil, apperror.Conflict("invitation is "+string(inv.Status), "status")
	}

	inv.Code = newInvitationCode()
	inv.Status = model.InvitationPending
	inv.ExpiresAt = s.now().Add(s.ttl)
	if err := s.store.SaveInvitation(ctx, inv); err != nil {
		return nil, err
	}

	prometheus.RecordInvitation("resent")
	s.audit(ctx, id, "invitation", inv.ID.String(), "invitation.resent", nil)
	return &IssuedInvitation{Invitation: inv, Code: inv.Code}, nil
}
