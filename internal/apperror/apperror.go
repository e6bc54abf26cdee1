// Package apperror defines the typed errors services return and their
// HTTP mapping.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Code is a stable machine-readable error identifier.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeGone         Code = "GONE"
	CodeInternal     Code = "INTERNAL_ERROR"
)

var statusByCode = map[Code]int{
	CodeValidation:   http.StatusBadRequest,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
	CodeNotFound:     http.StatusNotFound,
	CodeConflict:     http.StatusConflict,
	CodeGone:         http.StatusGone,
	CodeInternal:     http.StatusInternalServerError,
}

// Error is a classified application error.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error code.
func (e *Error) Status() int {
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Validation reports invalid input. fields maps input names to messages.
func Validation(msg string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Fields: fields}
}

// Field is a Validation error for a single input field.
func Field(field, msg string) *Error {
	return Validation(msg, map[string]string{field: msg})
}

func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

// NotFound reports that resource does not exist or is not visible to the caller.
func NotFound(resource string) *Error {
	return &Error{Code: CodeNotFound, Message: resource + " not found"}
}

// Conflict reports a uniqueness or state conflict. field may be empty.
func Conflict(msg, field string) *Error {
	e := &Error{Code: CodeConflict, Message: msg}
	if field != "" {
		e.Fields = map[string]string{field: msg}
	}
	return e
}

func Gone(msg string) *Error {
	return &Error{Code: CodeGone, Message: msg}
}

// Internal wraps an unexpected error. The cause is never sent to clients.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "internal server error", Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// Postgres SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgInvalidText         = "22P02"
	pgNumericOutOfRange   = "22003"
)

// constraintFields names the input field behind each known constraint.
var constraintFields = map[string]string{
	"uq_companies_tax_id":                    "tax_id",
	"uq_users_email":                         "email",
	"uq_product_categories_company_name":     "name",
	"uq_products_supplier_sku":               "sku",
	"uq_warehouses_company_name":             "name",
	"uq_inventory_product_warehouse_company": "product_id",
	"uq_batches_company_batch_number":        "batch_number",
	"uq_orders_company_order_number":         "order_number",
	"uq_invitations_code":                    "code",
	"uq_invitations_pending_email":           "email",
	"inventory_quantity_check":               "quantity",
	"batches_quantity_check":                 "quantity",
	"chk_batches_dates":                      "expiry_date",
	"warehouses_capacity_check":              "capacity",
	"products_base_price_check":              "base_price",
}

// FromDB classifies a database error. resource names the entity for
// not-found messages. Errors that are already classified pass through.
func FromDB(err error, resource string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(resource)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		field := constraintFields[pgErr.ConstraintName]
		switch pgErr.Code {
		case pgUniqueViolation:
			msg := resource + " already exists"
			if field != "" {
				msg = fmt.Sprintf("%s with this %s already exists", resource, field)
			}
			return &Error{Code: CodeConflict, Message: msg, Fields: fieldMap(field, "already exists"), Err: err}
		case pgForeignKeyViolation:
			return &Error{Code: CodeConflict, Message: resource + " references or is referenced by another record", Err: err}
		case pgCheckViolation, pgNotNullViolation:
			if field == "" {
				field = pgErr.ColumnName
			}
			return &Error{Code: CodeValidation, Message: "invalid " + resource, Fields: fieldMap(field, "violates constraint"), Err: err}
		case pgInvalidText, pgNumericOutOfRange:
			return &Error{Code: CodeValidation, Message: "invalid " + resource, Fields: fieldMap(pgErr.ColumnName, "invalid value"), Err: err}
		}
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Code: CodeConflict, Message: resource + " already exists", Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &Error{Code: CodeConflict, Message: resource + " references or is referenced by another record", Err: err}
	}
	return Internal(err)
}

func fieldMap(field, msg string) map[string]string {
	if field == "" {
		return nil
	}
	return map[string]string{field: msg}
}
