package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusCategory(t *testing.T) {
	cases := map[int]string{200: "2xx", 201: "2xx", 304: "3xx", 404: "4xx", 409: "4xx", 500: "5xx", 100: ""}
	for status, want := range cases {
		if got := StatusCategory(status); got != want {
			t.Errorf("StatusCategory(%d) = %q, want %q", status, got, want)
		}
	}
}

func TestMiddleware_RecordsHandlerErrorsWithFinalStatus(t *testing.T) {
	m := NewHTTPMetrics("tubex-test")
	NewHTTPMetrics("tubex-test") // registering twice must not panic

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "taken")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	got := testutil.ToFloat64(RequestCounter.WithLabelValues("tubex-test", http.MethodGet, "/boom", "409"))
	if got != 1 {
		t.Errorf("expected one request counted with status 409, got %v", got)
	}
}
