package docstore

import "context"

// Nop discards every write. It is used when no MONGO_URI is configured.
type Nop struct{}

func (Nop) SaveOrder(context.Context, *OrderDocument) error { return nil }
func (Nop) RecordAnalytics(context.Context, *AnalyticsEvent) error { return nil }
func (Nop) RecordAudit(context.Context, *AuditEvent) error { return nil }
func (Nop) RecordActivity(context.Context, *CustomerActivity) error { return nil }
func (Nop) EnsureIndexes(context.Context) error { return nil }
func (Nop) Ping(context.Context) error { return nil }
func (Nop) Close(context.Context) error { return nil }

func (Nop) AuditTrail(context.Context, string, int64) ([]AuditEvent, error) {
	return []AuditEvent{}, nil
}

func (Nop) CustomerActivities(context.Context, string, int64) ([]CustomerActivity, error) {
	return []CustomerActivity{}, nil
}
