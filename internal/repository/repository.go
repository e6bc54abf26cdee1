// Package repository is the gorm data access layer. Tenant-owned queries
// always go through a company scope so rows from another company are never
// read or written.
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Store wraps a gorm handle. Inside Transaction it wraps the transaction.
type Store struct {
	db *gorm.DB
}

// New returns a Store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Transaction runs fn with a Store bound to a single transaction. fn's
// error rolls the transaction back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	defer prometheus.TrackDBOperation("transaction")(time.Now())
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// ForCompany restricts a query to rows owned by companyID.
func ForCompany(companyID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID)
	}
}

// ForSupplier restricts a product query to the supplier's catalog.
func ForSupplier(supplierID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("supplier_id = ?", supplierID)
	}
}

// ForUpdate locks the selected rows until the transaction ends.
func ForUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern returns a case-folded LIKE pattern matching term anywhere.
// Wildcards inside term match literally.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// Page is a 1-based page request.
type Page struct {
	Page     int `query:"page"`
	PageSize int `query:"page_size"`
}

// Normalize clamps the request to valid bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize <= 0:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Paginate applies limit and offset for p.
func Paginate(p Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		n := p.Normalize()
		return db.Offset(n.Offset()).Limit(n.PageSize)
	}
}

// list counts the filtered query and loads one page of it into dest,
// preloading the named associations.
func list(q *gorm.DB, p Page, order string, dest interface{}, preloads ...string) (int64, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	page := q.Scopes(Paginate(p)).Order(order)
	for _, name := range preloads {
		page = page.Preload(name)
	}
	if err := page.Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

var errNotFound = gorm.ErrRecordNotFound

func dbErr(err error, resource string) error {
	return apperror.FromDB(err, resource)
}
