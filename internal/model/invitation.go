package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// InvitationStatus is the state of an onboarding invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
	InvitationRevoked  InvitationStatus = "revoked"
)

// Valid reports whether s is a known invitation state.
func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationExpired, InvitationRevoked:
		return true
	}
	return false
}

// Invitation lets a company admin onboard a user by email code.
// Only one pending invitation per (company, email) exists at a time.
type Invitation struct {
	Base
	CompanyID  uuid.UUID        `json:"company_id" gorm:"type:uuid;not null;index"`
	Email      string           `json:"email" gorm:"type:varchar(255);not null"`
	Code       string           `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	Role       UserRole         `json:"role" gorm:"type:user_role;not null;default:'staff'"`
	InvitedBy  *uuid.UUID       `json:"invited_by,omitempty" gorm:"type:uuid"`
	Status     InvitationStatus `json:"status" gorm:"type:invitation_status;not null;default:'pending'"`
	ExpiresAt  time.Time        `json:"expires_at" gorm:"not null"`
	AcceptedAt *time.Time       `json:"accepted_at,omitempty"`

	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}

// Expired reports whether a pending invitation is past its expiry at now.
func (i *Invitation) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// UserAuditLog records a change made to a user account.
type UserAuditLog struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index"`
	CompanyID   uuid.UUID         `json:"company_id" gorm:"type:uuid;not null;index"`
	PerformedBy *uuid.UUID        `json:"performed_by,omitempty" gorm:"type:uuid"`
	Action      string            `json:"action" gorm:"type:varchar(50);not null"`
	Changes     datatypes.JSONMap `json:"changes,omitempty" gorm:"type:jsonb"`
	IPAddress   string            `json:"ip_address,omitempty" gorm:"type:varchar(45)"`
	UserAgent   string            `json:"user_agent,omitempty" gorm:"type:text"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Audit actions recorded for users.
const (
	AuditUserCreated     = "user.created"
	AuditUserUpdated     = "user.updated"
	AuditUserDeactivated = "user.deactivated"
	AuditUserDeleted     = "user.deleted"
	AuditUserPassword    = "user.password_changed"
	AuditUserLogin       = "user.login"
)
