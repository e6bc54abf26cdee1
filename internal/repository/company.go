package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/prometheus"
)

// CompanyFilter narrows the platform-wide company listing.
type CompanyFilter struct {
	Type               model.CompanyType
	Status             model.CompanyStatus
	VerificationStatus model.VerificationStatus
	Search             string
	Page
}

func (s *Store) CreateCompany(ctx context.Context, c *model.Company) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return dbErr(s.conn(ctx).Create(c).Error, "company")
}

func (s *Store) GetCompany(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var c model.Company
	if err := s.conn(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, "company")
	}
	return &c, nil
}

// SaveCompany writes every column of c.
func (s *Store) SaveCompany(ctx context.Context, c *model.Company) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return dbErr(s.conn(ctx).Save(c).Error, "company")
}

// DeleteCompany removes the company. Foreign keys cascade to users,
// catalog, warehouses, stock and supplier orders.
func (s *Store) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	res := s.conn(ctx).Delete(&model.Company{}, "id = ?", id)
	if res.Error != nil {
		return dbErr(res.Error, "company")
	}
	if res.RowsAffected == 0 {
		return dbErr(errNotFound, "company")
	}
	return nil
}

func (s *Store) ListCompanies(ctx context.Context, f CompanyFilter) ([]model.Company, int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	q := s.conn(ctx).Model(&model.Company{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.VerificationStatus != "" {
		q = q.Where("verification_status = ?", f.VerificationStatus)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := containsPattern(term)
		q = q.Where("(lower(name) LIKE ? OR lower(tax_id) LIKE ?)", like, like)
	}
	var out []model.Company
	total, err := list(q, f.Page, "created_at DESC", &out)
	if err != nil {
		return nil, 0, dbErr(err, "company")
	}
	return out, total, nil
}
