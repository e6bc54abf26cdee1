package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter metrics
var (
	// Company registrations by company type
	RegisterCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubex_company_registrations_total",
			Help: "Total number of company registrations",
		},
		[]string{"company_type"},
	)

	// Login attempts by result
	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubex_login_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"}, // "success" or "failure"
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubex_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "invalid_credentials", "invalid_token", "inactive_user" etc.
	)

	// Orders placed
	OrderCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tubex_orders_created_total",
			Help: "Total number of orders placed",
		},
	)

	// Order status transitions
	OrderStatusCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubex_order_status_transitions_total",
			Help: "Total number of order status transitions",
		},
		[]string{"from", "to"},
	)

	// Inventory changes by reason
	InventoryAdjustmentCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubex_inventory_adjustments_total",
			Help: "Total number of inventory quantity changes",
		},
		[]string{"reason"}, // "adjust", "transfer", "order_confirm", "order_cancel"
	)

	// Invitation lifecycle events
	InvitationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubex_invitations_total",
			Help: "Total number of invitation events",
		},
		[]string{"event"}, // "created", "accepted", "revoked", "resent"
	)

	// Document store write failures
	DocstoreErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubex_docstore_errors_total",
			Help: "Total number of failed document store writes",
		},
		[]string{"collection"},
	)
)

// Histogram metrics
var (
	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tubex_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Gauge metrics
var (
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tubex_info",
			Help: "Information about the service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(OrderCreatedCounter)
	prometheus.MustRegister(OrderStatusCounter)
	prometheus.MustRegister(InventoryAdjustmentCounter)
	prometheus.MustRegister(InvitationCounter)
	prometheus.MustRegister(DocstoreErrorCounter)

	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)
}

// SetVersion publishes the running build version.
func SetVersion(version string) {
	InfoGauge.Reset()
	InfoGauge.With(prometheus.Labels{"version": version}).Set(1)
}

// TrackDBOperation returns a function that records the duration of a
// database operation started at startTime. Use with defer:
//
//	defer prometheus.TrackDBOperation("query")(time.Now())
func TrackDBOperation(operation string) func(startTime time.Time) {
	return func(startTime time.Time) {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordLogin records a login attempt outcome
func RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	LoginCounter.With(prometheus.Labels{"result": result}).Inc()
}

// RecordRegistration records a new company registration
func RecordRegistration(companyType string) {
	RegisterCounter.With(prometheus.Labels{"company_type": companyType}).Inc()
}

// RecordOrderCreated records a placed order
func RecordOrderCreated() {
	OrderCreatedCounter.Inc()
}

// RecordOrderTransition records an order moving between statuses
func RecordOrderTransition(from, to string) {
	OrderStatusCounter.With(prometheus.Labels{"from": from, "to": to}).Inc()
}

// RecordInventoryAdjustment records a stock movement by reason
func RecordInventoryAdjustment(reason string) {
	InventoryAdjustmentCounter.With(prometheus.Labels{"reason": reason}).Inc()
}

// RecordInvitation records an invitation lifecycle event
func RecordInvitation(event string) {
	InvitationCounter.With(prometheus.Labels{"event": event}).Inc()
}

// RecordDocstoreError records a failed document store write
func RecordDocstoreError(collection string) {
	DocstoreErrorCounter.With(prometheus.Labels{"collection": collection}).Inc()
}
