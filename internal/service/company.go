package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/internal/repository"
	"github.com/tienbob/Tubex-sub003/pkg/docstore"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// UpdateCompanyInput changes only the fields that are set.
type UpdateCompanyInput struct {
	Name             *string                 `json:"name" validate:"omitempty,min=1,max=255"`
	TaxID            *string                 `json:"tax_id" validate:"omitempty,min=1,max=50"`
	BusinessLicense  *string                 `json:"business_license" validate:"omitempty,max=100"`
	Address          *string                 `json:"address"`
	ContactEmail     *string                 `json:"contact_email" validate:"omitempty,email"`
	ContactPhone     *string                 `json:"contact_phone" validate:"omitempty,max=30"`
	SubscriptionTier *model.SubscriptionTier `json:"subscription_tier" validate:"omitempty,oneof=free basic premium enterprise"`
	Metadata         map[string]interface{}  `json:"metadata"`
}

// VerifyCompanyInput records a platform admin's review decision.
type VerifyCompanyInput struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes" validate:"max=2000"`
}

type SetCompanyStatusInput struct {
	Status model.CompanyStatus `json:"status" validate:"required,oneof=pending_verification active suspended rejected"`
}

type CompanyService struct {
	base
}

func NewCompanyService(store *repository.Store, docs docstore.Store) *CompanyService {
	return &CompanyService{base: newBase(store, docs)}
}

// Mine returns the caller's company.
func (s *CompanyService) Mine(ctx context.Context, id auth.Identity) (*model.Company, error) {
	return s.store.GetCompany(ctx, id.CompanyID)
}

// UpdateMine edits the caller's company. Company admins only.
func (s *CompanyService) UpdateMine(ctx context.Context, id auth.Identity, in UpdateCompanyInput) (*model.Company, error) {
	if err := requireRole(id, model.RoleAdmin); err != nil {
		return nil, err
	}
	if in.SubscriptionTier != nil && !in.SubscriptionTier.Valid() {
		return nil, apperror.Field("subscription_tier", "unknown subscription tier")
	}
	c, err := s.store.GetCompany(ctx, id.CompanyID)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	set := func(field string, dst *string, v *string) {
		if v == nil {
			return
		}
		nv := strings.TrimSpace(*v)
		if *dst != nv {
			changes[field] = map[string]interface{}{"from": *dst, "to": nv}
			*dst = nv
		}
	}
	set("name", &c.Name, in.Name)
	set("tax_id", &c.TaxID, in.TaxID)
	set("business_license", &c.BusinessLicense, in.BusinessLicense)
	set("address", &c.Address, in.Address)
	set("contact_email", &c.ContactEmail, in.ContactEmail)
	set("contact_phone", &c.ContactPhone, in.ContactPhone)
	if in.SubscriptionTier != nil && *in.SubscriptionTier != c.SubscriptionTier {
		changes["subscription_tier"] = map[string]interface{}{"from": string(c.SubscriptionTier), "to": string(*in.SubscriptionTier)}
		c.SubscriptionTier = *in.SubscriptionTier
	}
	if in.Metadata != nil {
		c.Metadata = datatypes.JSONMap(in.Metadata)
		changes["metadata"] = "replaced"
	}
	if len(changes) == 0 {
		return c, nil
	}

	if err := s.store.SaveCompany(ctx, c); err != nil {
		return nil, err
	}
	s.audit(ctx, id, "company", c.ID.String(), "company.updated", changes)
	return c, nil
}

func (s *CompanyService) List(ctx context.Context, id auth.Identity, f repository.CompanyFilter) (ListResult[model.Company], error) {
	if err := requirePlatformAdmin(id); err != nil {
		return ListResult[model.Company]{}, err
	}
	companies, total, err := s.store.ListCompanies(ctx, f)
	if err != nil {
		return ListResult[model.Company]{}, err
	}
	return newList(companies, total, f.Page), nil
}

func (s *CompanyService) Get(ctx context.Context, id auth.Identity, companyID uuid.UUID) (*model.Company, error) {
	if companyID != id.CompanyID {
		if err := requirePlatformAdmin(id); err != nil {
			return nil, err
		}
	}
	return s.store.GetCompany(ctx, companyID)
}

// Verify approves or rejects a company's business documents. Approval
// activates the company.
func (s *CompanyService) Verify(ctx context.Context, id auth.Identity, companyID uuid.UUID, in VerifyCompanyInput) (*model.Company, error) {
	if err := requirePlatformAdmin(id); err != nil {
		return nil, err
	}
	c, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	reviewer := id.UserID
	c.VerifiedAt = &now
	c.VerifiedBy = &reviewer
	c.VerificationNotes = in.Notes
	action := "company.verified"
	if in.Approve {
		c.VerificationStatus = model.VerificationVerified
		c.Status = model.CompanyStatusActive
	} else {
		c.VerificationStatus = model.VerificationRejected
		c.Status = model.CompanyStatusRejected
		action = "company.rejected"
	}

	if err := s.store.SaveCompany(ctx, c); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Company verification reviewed",
		zap.String("company_id", c.ID.String()),
		zap.Bool("approved", in.Approve))
	s.audit(ctx, id, "company", c.ID.String(), action, map[string]interface{}{"notes": in.Notes})
	s.analytics(ctx, c.ID.String(), action, nil)
	return c, nil
}

// SetStatus suspends or reactivates a company.
func (s *CompanyService) SetStatus(ctx context.Context, id auth.Identity, companyID uuid.UUID, in SetCompanyStatusInput) (*model.Company, error) {
	if err := requirePlatformAdmin(id); err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, apperror.Field("status", "unknown company status")
	}
	c, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	from := c.Status
	c.Status = in.Status
	if err := s.store.SaveCompany(ctx, c); err != nil {
		return nil, err
	}
	s.audit(ctx, id, "company", c.ID.String(), "company.status_changed",
		map[string]interface{}{"from": string(from), "to": string(in.Status)})
	return c, nil
}

// Delete removes a company and, through cascading keys, all its data.
func (s *CompanyService) Delete(ctx context.Context, id auth.Identity, companyID uuid.UUID) error {
	if err := requirePlatformAdmin(id); err != nil {
		return err
	}
	if companyID == id.CompanyID {
		return apperror.Field("id", "you cannot delete your own company")
	}
	if err := s.store.DeleteCompany(ctx, companyID); err != nil {
		return err
	}
	logger.FromContext(ctx).Warn("Company deleted", zap.String("company_id", companyID.String()))
	s.audit(ctx, id, "company", companyID.String(), "company.deleted", nil)
	return nil
}

// AuditTrail returns a company's audit events from the document store.
func (s *CompanyService) AuditTrail(ctx context.Context, id auth.Identity, companyID uuid.UUID, limit int64) ([]docstore.AuditEvent, error) {
	if companyID != id.CompanyID {
		if err := requirePlatformAdmin(id); err != nil {
			return nil, err
		}
	} else if err := requireRole(id, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.docs.AuditTrail(ctx, companyID.String(), limit)
}

// UserAuditLogs lists relational user audit logs across the platform.
func (s *CompanyService) UserAuditLogs(ctx context.Context, id auth.Identity, f repository.AuditFilter) (ListResult[model.UserAuditLog], error) {
	if err := requirePlatformAdmin(id); err != nil {
		return ListResult[model.UserAuditLog]{}, err
	}
	logs, total, err := s.store.ListAuditLogs(ctx, f)
	if err != nil {
		return ListResult[model.UserAuditLog]{}, err
	}
	return newList(logs, total, f.Page), nil
}
