package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Field("email", "required"), http.StatusBadRequest},
		{Unauthorized("no token"), http.StatusUnauthorized},
		{Forbidden("nope"), http.StatusForbidden},
		{NotFound("order"), http.StatusNotFound},
		{Conflict("taken", "sku"), http.StatusConflict},
		{Gone("expired"), http.StatusGone},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
		{&Error{Code: "WHATEVER"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.err.Status(); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.err.Code, got, tt.want)
		}
	}
}

func TestAsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("loading: %w", NotFound("product"))
	if !Is(err, CodeNotFound) {
		t.Fatal("wrapped error lost its code")
	}
	e, _ := As(err)
	if e.Message != "product not found" {
		t.Errorf("message = %q", e.Message)
	}
}

func TestFromDB(t *testing.T) {
	if FromDB(nil, "x") != nil {
		t.Fatal("nil must stay nil")
	}

	if !Is(FromDB(gorm.ErrRecordNotFound, "warehouse"), CodeNotFound) {
		t.Error("record not found should map to not found")
	}

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "uq_companies_tax_id"}
	e, ok := As(FromDB(fmt.Errorf("insert: %w", dup), "company"))
	if !ok || e.Code != CodeConflict {
		t.Fatalf("unique violation: got %v", e)
	}
	if _, ok := e.Fields["tax_id"]; !ok {
		t.Errorf("expected tax_id field, got %v", e.Fields)
	}
	if !errors.Is(e, dup) {
		t.Error("cause not preserved")
	}

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "order_items_product_id_fkey"}
	if !Is(FromDB(fk, "product"), CodeConflict) {
		t.Error("fk violation should map to conflict")
	}

	check := &pgconn.PgError{Code: "23514", ConstraintName: "inventory_quantity_check"}
	e, _ = As(FromDB(check, "inventory"))
	if e.Code != CodeValidation || e.Fields["quantity"] == "" {
		t.Errorf("check violation: got %+v", e)
	}

	badEnum := &pgconn.PgError{Code: "22P02", Message: `invalid input value for enum order_status: "bogus"`}
	if e, _ := As(FromDB(badEnum, "order")); e == nil || e.Status() != http.StatusBadRequest {
		t.Errorf("invalid text representation: got %+v", e)
	}

	overflow := &pgconn.PgError{Code: "22003", ColumnName: "quantity"}
	if e, _ := As(FromDB(overflow, "inventory")); e == nil || e.Code != CodeValidation || e.Fields["quantity"] == "" {
		t.Errorf("numeric out of range: got %+v", e)
	}

	if !Is(FromDB(gorm.ErrDuplicatedKey, "user"), CodeConflict) {
		t.Error("translated duplicate key should map to conflict")
	}

	if !Is(FromDB(errors.New("connection reset"), "user"), CodeInternal) {
		t.Error("unknown errors should be internal")
	}

	already := Forbidden("no")
	if FromDB(already, "x") != error(already) {
		t.Error("classified errors must pass through untouched")
	}
}
