package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/middleware"
	"github.com/tienbob/Tubex-sub003/internal/repository"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"go.uber.org/zap"
)

// bind decodes the request body into dst and validates it.
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		logger.FromEcho(c).Warn("Invalid request body", zap.Error(err))
		return apperror.Validation("invalid request body", nil)
	}
	return c.Validate(dst)
}

func identity(c echo.Context) (auth.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return auth.Identity{}, apperror.Unauthorized("authentication required")
	}
	return id, nil
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.Field(name, "must be a valid UUID")
	}
	return id, nil
}

// query reads optional query parameters, collecting every malformed one
// into a single validation error.
type query struct {
	c      echo.Context
	fields map[string]string
}

func newQuery(c echo.Context) *query {
	return &query{c: c, fields: map[string]string{}}
}

func (q *query) fail(name, msg string) {
	q.fields[name] = msg
}

func (q *query) str(name string) string {
	return q.c.QueryParam(name)
}

type enumValue interface {
	~string
	Valid() bool
}

// enum reads an optional enum parameter. values are listed in the error
// message when the parameter is not one of them.
func enum[T enumValue](q *query, name string, values ...T) T {
	v := T(q.c.QueryParam(name))
	if v == "" || v.Valid() {
		return v
	}
	names := make([]string, len(values))
	for i, value := range values {
		names[i] = string(value)
	}
	q.fail(name, "must be one of: "+strings.Join(names, ", "))
	return ""
}

func (q *query) uuid(name string) *uuid.UUID {
	raw := q.c.QueryParam(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		q.fail(name, "must be a valid UUID")
		return nil
	}
	return &id
}

func (q *query) decimal(name string) *decimal.Decimal {
	raw := q.c.QueryParam(name)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		q.fail(name, "must be a number")
		return nil
	}
	return &d
}

// time accepts RFC 3339 timestamps or plain dates.
func (q *query) time(name string) *time.Time {
	raw := q.c.QueryParam(name)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	q.fail(name, "must be an RFC 3339 timestamp or YYYY-MM-DD date")
	return nil
}

func (q *query) int(name string, def int) int {
	raw := q.c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.fail(name, "must be an integer")
		return def
	}
	return n
}

func (q *query) bool(name string) bool {
	raw := q.c.QueryParam(name)
	if raw == "" {
		return false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail(name, "must be true or false")
	}
	return b
}

func (q *query) page() repository.Page {
	return repository.Page{
		Page:     q.int("page", 1),
		PageSize: q.int("page_size", repository.DefaultPageSize),
	}
}

func (q *query) err() error {
	if len(q.fields) == 0 {
		return nil
	}
	return apperror.Validation("invalid query parameters", q.fields)
}
