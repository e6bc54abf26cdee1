package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CompanyType distinguishes the two sides of the marketplace.
type CompanyType string

const (
	CompanyTypeDealer   CompanyType = "dealer"
	CompanyTypeSupplier CompanyType = "supplier"
)

// CompanyStatus is the lifecycle state of a tenant.
type CompanyStatus string

const (
	CompanyStatusPendingVerification CompanyStatus = "pending_verification"
	CompanyStatusActive              CompanyStatus = "active"
	CompanyStatusSuspended           CompanyStatus = "suspended"
	CompanyStatusRejected            CompanyStatus = "rejected"
)

// SubscriptionTier is the billing plan of a company.
type SubscriptionTier string

const (
	SubscriptionFree       SubscriptionTier = "free"
	SubscriptionBasic      SubscriptionTier = "basic"
	SubscriptionPremium    SubscriptionTier = "premium"
	SubscriptionEnterprise SubscriptionTier = "enterprise"
)

// VerificationStatus tracks business document review.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationRejected   VerificationStatus = "rejected"
)

// Company is the tenant. Every user, product, warehouse, inventory row and
// order belongs to exactly one company.
type Company struct {
	Base
	Name               string             `json:"name" gorm:"type:varchar(255);not null"`
	Type               CompanyType        `json:"type" gorm:"type:company_type;not null"`
	TaxID              string             `json:"tax_id" gorm:"type:varchar(50);not null;uniqueIndex"`
	BusinessLicense    string             `json:"business_license,omitempty" gorm:"type:varchar(100)"`
	Address            string             `json:"address,omitempty" gorm:"type:text"`
	ContactEmail       string             `json:"contact_email" gorm:"type:varchar(255)"`
	ContactPhone       string             `json:"contact_phone,omitempty" gorm:"type:varchar(30)"`
	Status             CompanyStatus      `json:"status" gorm:"type:company_status;not null;default:'pending_verification'"`
	SubscriptionTier   SubscriptionTier   `json:"subscription_tier" gorm:"type:subscription_tier;not null;default:'free'"`
	VerificationStatus VerificationStatus `json:"verification_status" gorm:"type:verification_status;not null;default:'unverified'"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
	VerifiedBy         *uuid.UUID         `json:"verified_by,omitempty" gorm:"type:uuid"`
	VerificationNotes  string             `json:"verification_notes,omitempty" gorm:"type:text"`
	Metadata           datatypes.JSONMap  `json:"metadata,omitempty" gorm:"type:jsonb"`
}

// IsSupplier reports whether the company sells products.
func (c *Company) IsSupplier() bool {
	return c.Type == CompanyTypeSupplier
}

// Valid reports whether t is a known company type.
func (t CompanyType) Valid() bool {
	return t == CompanyTypeDealer || t == CompanyTypeSupplier
}

// Valid reports whether s is a known company status.
func (s CompanyStatus) Valid() bool {
	switch s {
	case CompanyStatusPendingVerification, CompanyStatusActive, CompanyStatusSuspended, CompanyStatusRejected:
		return true
	}
	return false
}

// Valid reports whether s is a known verification status.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationUnverified, VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

// Valid reports whether s is a known subscription tier.
func (s SubscriptionTier) Valid() bool {
	switch s {
	case SubscriptionFree, SubscriptionBasic, SubscriptionPremium, SubscriptionEnterprise:
		return true
	}
	return false
}
