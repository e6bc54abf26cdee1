package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorders(t *testing.T) {
	tests := []struct {
		name   string
		record func()
		value  func() float64
	}{
		{"login success", func() { RecordLogin(true) }, func() float64 {
			return testutil.ToFloat64(LoginCounter.WithLabelValues("success"))
		}},
		{"login failure", func() { RecordLogin(false) }, func() float64 {
			return testutil.ToFloat64(LoginCounter.WithLabelValues("failure"))
		}},
		{"registration", func() { RecordRegistration("dealer") }, func() float64 {
			return testutil.ToFloat64(RegisterCounter.WithLabelValues("dealer"))
		}},
		{"order created", RecordOrderCreated, func() float64 {
			return testutil.ToFloat64(OrderCreatedCounter)
		}},
		{"order transition", func() { RecordOrderTransition("pending", "confirmed") }, func() float64 {
			return testutil.ToFloat64(OrderStatusCounter.WithLabelValues("pending", "confirmed"))
		}},
		{"inventory", func() { RecordInventoryAdjustment("transfer") }, func() float64 {
			return testutil.ToFloat64(InventoryAdjustmentCounter.WithLabelValues("transfer"))
		}},
		{"invitation", func() { RecordInvitation("accepted") }, func() float64 {
			return testutil.ToFloat64(InvitationCounter.WithLabelValues("accepted"))
		}},
		{"auth error", func() { RecordAuthError("invalid_token") }, func() float64 {
			return testutil.ToFloat64(AuthErrorCounter.WithLabelValues("invalid_token"))
		}},
		{"docstore error", func() { RecordDocstoreError("orders") }, func() float64 {
			return testutil.ToFloat64(DocstoreErrorCounter.WithLabelValues("orders"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.value()
			tt.record()
			if got := tt.value(); got != before+1 {
				t.Errorf("counter = %v, want %v", got, before+1)
			}
		})
	}
}

func TestTrackDBOperation_RecordsPerOperation(t *testing.T) {
	before := testutil.CollectAndCount(DBOperationDuration)

	done := TrackDBOperation("metrics_test")
	done(time.Now().Add(-50 * time.Millisecond))

	if got := testutil.CollectAndCount(DBOperationDuration); got != before+1 {
		t.Fatalf("series = %d, want %d", got, before+1)
	}
}

func TestSetVersion_KeepsOneSeries(t *testing.T) {
	SetVersion("1.0.0")
	SetVersion("1.1.0")
	if got := testutil.CollectAndCount(InfoGauge); got != 1 {
		t.Fatalf("info series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(InfoGauge.WithLabelValues("1.1.0")); got != 1 {
		t.Errorf("info{version=1.1.0} = %v", got)
	}
}
