package model

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is a role inside the user's company.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleStaff   UserRole = "staff"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleStaff
}

// Rank orders roles so that admin > manager > staff.
func (r UserRole) Rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleManager:
		return 2
	case RoleStaff:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r carries at least the permissions of min.
func (r UserRole) AtLeast(min UserRole) bool {
	return r.Rank() >= min.Rank()
}

// UserStatus is the account state.
type UserStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// Valid reports whether s is a known account state.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusPending, UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}

// User is a person acting on behalf of a single company.
type User struct {
	Base
	CompanyID    uuid.UUID  `json:"company_id" gorm:"type:uuid;not null;index"`
	Email        string     `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"`
	FirstName    string     `json:"first_name" gorm:"type:varchar(100)"`
	LastName     string     `json:"last_name" gorm:"type:varchar(100)"`
	Role         UserRole   `json:"role" gorm:"type:user_role;not null;default:'staff'"`
	Status       UserStatus `json:"status" gorm:"type:user_status;not null;default:'pending'"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`

	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}

// CanLogin reports whether the account may authenticate.
func (u *User) CanLogin() bool {
	return u.Status == UserStatusActive || u.Status == UserStatusPending
}
