// Package service holds the business rules. Every operation takes the
// caller's auth.Identity and only touches data of the caller's company
// unless the caller is a platform admin.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/internal/repository"
	"github.com/tienbob/Tubex-sub003/pkg/docstore"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"github.com/tienbob/Tubex-sub003/prometheus"
	"go.uber.org/zap"
)

// Decimal places of the quantity and money columns.
const (
	quantityPlaces = 3
	moneyPlaces    = 2
)

// fitsScale reports whether d has no digits beyond places decimals.
func fitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// ListResult is one page of a listing.
type ListResult[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func newList[T any](items []T, total int64, p repository.Page) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	n := p.Normalize()
	return ListResult[T]{Items: items, Total: total, Page: n.Page, PageSize: n.PageSize}
}

// base is shared by every service.
type base struct {
	store *repository.Store
	docs  docstore.Store
	now   func() time.Time
}

func newBase(store *repository.Store, docs docstore.Store) base {
	if docs == nil {
		docs = docstore.Nop{}
	}
	return base{
		store: store,
		docs:  docs,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// audit writes an audit event to the document store. Failures are logged.
func (b *base) audit(ctx context.Context, id auth.Identity, entity, entityID, action string, changes map[string]interface{}) {
	ev := &docstore.AuditEvent{
		CompanyID:  id.CompanyID.String(),
		Entity:     entity,
		EntityID:   entityID,
		Action:     action,
		Actor:      id.UserID.String(),
		Changes:    changes,
		OccurredAt: b.now(),
	}
	if err := b.docs.RecordAudit(ctx, ev); err != nil {
		b.docFailed(ctx, docstore.CollectionAuditLogs, err)
	}
}

func (b *base) analytics(ctx context.Context, companyID, eventType string, payload map[string]interface{}) {
	ev := &docstore.AnalyticsEvent{
		EventType:  eventType,
		CompanyID:  companyID,
		Payload:    payload,
		OccurredAt: b.now(),
	}
	if err := b.docs.RecordAnalytics(ctx, ev); err != nil {
		b.docFailed(ctx, docstore.CollectionAnalytics, err)
	}
}

func (b *base) activity(ctx context.Context, id auth.Identity, activity string, metadata map[string]interface{}) {
	a := &docstore.CustomerActivity{
		CustomerID: id.UserID.String(),
		CompanyID:  id.CompanyID.String(),
		Activity:   activity,
		Metadata:   metadata,
		OccurredAt: b.now(),
	}
	if err := b.docs.RecordActivity(ctx, a); err != nil {
		b.docFailed(ctx, docstore.CollectionCustomerActivities, err)
	}
}

func (b *base) docFailed(ctx context.Context, collection string, err error) {
	prometheus.RecordDocstoreError(collection)
	logger.FromContext(ctx).Warn("Document store write failed",
		zap.String("collection", collection),
		zap.Error(err))
}

func requireRole(id auth.Identity, min model.UserRole) error {
	if !id.HasRole(min) {
		return apperror.Forbidden("requires " + string(min) + " role")
	}
	return nil
}

func requireSupplier(id auth.Identity) error {
	if !id.IsSupplier() {
		return apperror.Forbidden("only supplier companies can perform this action")
	}
	return nil
}

func requirePlatformAdmin(id auth.Identity) error {
	if !id.PlatformAdmin {
		return apperror.Forbidden("platform admin access required")
	}
	return nil
}
