package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/middleware"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/internal/repository"
	"github.com/tienbob/Tubex-sub003/internal/service"
	"github.com/tienbob/Tubex-sub003/pkg/jwtutil"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
)

// Fakes embed the interface so unused methods panic if reached.

type fakeAuth struct {
	AuthService
	register func(service.RegisterInput) (*service.AuthResult, error)
}

func (f fakeAuth) Register(_ context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	return f.register(in)
}

type fakeCatalog struct {
	CatalogService
	listProducts func(auth.Identity, repository.ProductFilter) (service.ListResult[model.Product], error)
}

func (f fakeCatalog) ListProducts(_ context.Context, id auth.Identity, pf repository.ProductFilter) (service.ListResult[model.Product], error) {
	return f.listProducts(id, pf)
}

type fakeOrders struct {
	OrderService
	create  func(auth.Identity, service.CreateOrderInput) (*model.Order, error)
	invoice func(uuid.UUID) (*service.Invoice, error)
	cancel  func(uuid.UUID, string) (*model.Order, error)
}

func (f fakeOrders) Create(_ context.Context, id auth.Identity, in service.CreateOrderInput) (*model.Order, error) {
	return f.create(id, in)
}

func (f fakeOrders) Invoice(_ context.Context, _ auth.Identity, orderID uuid.UUID) (*service.Invoice, error) {
	return f.invoice(orderID)
}

func (f fakeOrders) Cancel(_ context.Context, _ auth.Identity, orderID uuid.UUID, notes string) (*model.Order, error) {
	return f.cancel(orderID, notes)
}

type testServer struct {
	e      *echo.Echo
	tokens *jwtutil.JWTUtil
}

func newTestServer(h Handlers) *testServer {
	if h.Auth == nil {
		h.Auth = NewAuthHandler(fakeAuth{})
	}
	if h.Users == nil {
		h.Users = NewUserHandler(nil, nil)
	}
	if h.Companies == nil {
		h.Companies = NewCompanyHandler(nil)
	}
	if h.Catalog == nil {
		h.Catalog = NewCatalogHandler(fakeCatalog{})
	}
	if h.Stock == nil {
		h.Stock = NewStockHandler(nil)
	}
	if h.Orders == nil {
		h.Orders = NewOrderHandler(fakeOrders{})
	}
	if h.Health == nil {
		h.Health = NewHealthHandler("test", nil)
	}

	tokens := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "handler-test", ExpirationHours: 1, Issuer: "test"})
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	RegisterRoutes(e, h, tokens, http.NotFoundHandler())
	return &testServer{e: e, tokens: tokens}
}

func (s *testServer) token(t *testing.T, role model.UserRole, typ model.CompanyType) (string, jwtutil.UserClaims) {
	t.Helper()
	claims := jwtutil.UserClaims{
		Email:       "caller@example.com",
		UserID:      uuid.New(),
		CompanyID:   uuid.New(),
		CompanyType: string(typ),
		Role:        string(role),
	}
	tok, err := s.tokens.GenerateToken(claims)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok, claims
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestRegister_ValidationUsesJSONFieldNames(t *testing.T) {
	s := newTestServer(Handlers{Auth: NewAuthHandler(fakeAuth{
		register: func(service.RegisterInput) (*service.AuthResult, error) {
			t.Fatal("service must not be called with invalid input")
			return nil, nil
		},
	})})

	rec := s.do(http.MethodPost, "/api/v1/auth/register", "",
		`{"company_name":"Acme","company_type":"wholesaler","tax_id":"T1","email":"bad","password":"short"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeError(t, rec)
	if resp.Code != apperror.CodeValidation || resp.RequestID != "req-1" {
		t.Errorf("resp = %+v", resp)
	}
	for _, field := range []string{"company_type", "email", "password"} {
		if _, ok := resp.Fields[field]; !ok {
			t.Errorf("fields missing %q: %v", field, resp.Fields)
		}
	}
	if !strings.Contains(resp.Fields["company_type"], "dealer, supplier") {
		t.Errorf("company_type message = %q", resp.Fields["company_type"])
	}
}

func TestRegister_ConflictCarriesField(t *testing.T) {
	s := newTestServer(Handlers{Auth: NewAuthHandler(fakeAuth{
		register: func(service.RegisterInput) (*service.AuthResult, error) {
			return nil, apperror.Conflict("tax_id already registered", "tax_id")
		},
	})})

	rec := s.do(http.MethodPost, "/api/v1/auth/register", "",
		`{"company_name":"Acme","company_type":"dealer","tax_id":"T1","email":"a@example.com","password":"password1"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Code != apperror.CodeConflict || resp.Fields["tax_id"] == "" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	s := newTestServer(Handlers{})
	rec := s.do(http.MethodPost, "/api/v1/auth/register", "", `{"company_name":`)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != apperror.CodeValidation {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(Handlers{})
	for _, path := range []string{"/api/v1/users", "/api/v1/orders", "/api/v1/admin/companies", "/api/v1/auth/me"} {
		rec := s.do(http.MethodGet, path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d", path, rec.Code)
			continue
		}
		if resp := decodeError(t, rec); resp.Code != apperror.CodeUnauthorized {
			t.Errorf("%s: code = %s", path, resp.Code)
		}
	}
}

func TestRouteGuards(t *testing.T) {
	s := newTestServer(Handlers{})
	staffDealer, _ := s.token(t, model.RoleStaff, model.CompanyTypeDealer)

	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/products"},
		{http.MethodGet, "/api/v1/admin/companies"},
		{http.MethodGet, "/api/v1/orders/summary"},
		{http.MethodPost, "/api/v1/invitations"},
		{http.MethodDelete, "/api/v1/warehouses/" + uuid.NewString()},
	}
	for _, tt := range tests {
		rec := s.do(tt.method, tt.path, staffDealer, `{}`)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s: status = %d", tt.method, tt.path, rec.Code)
		}
	}
}

func TestListProducts_ParsesFilters(t *testing.T) {
	supplierID := uuid.New()
	var got repository.ProductFilter
	s := newTestServer(Handlers{Catalog: NewCatalogHandler(fakeCatalog{
		listProducts: func(_ auth.Identity, f repository.ProductFilter) (service.ListResult[model.Product], error) {
			got = f
			return service.ListResult[model.Product]{Items: []model.Product{}, Page: f.Page.Page, PageSize: f.Page.PageSize}, nil
		},
	})})
	tok, _ := s.token(t, model.RoleStaff, model.CompanyTypeDealer)

	rec := s.do(http.MethodGet, "/api/v1/products?supplier_id="+supplierID.String()+"&status=active&min_price=10.5&search=cement&page=2&page_size=5", tok, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if got.SupplierID == nil || *got.SupplierID != supplierID {
		t.Errorf("supplier = %v", got.SupplierID)
	}
	if got.MinPrice == nil || !got.MinPrice.Equal(decimal.RequireFromString("10.5")) || got.MaxPrice != nil {
		t.Errorf("prices = %v %v", got.MinPrice, got.MaxPrice)
	}
	if got.Status != model.ProductStatusActive {
		t.Errorf("status = %q", got.Status)
	}
	if got.Search != "cement" || got.Page.Page != 2 || got.Page.PageSize != 5 {
		t.Errorf("filter = %+v", got)
	}
}

func TestListProducts_RejectsBadQuery(t *testing.T) {
	s := newTestServer(Handlers{})
	tok, _ := s.token(t, model.RoleStaff, model.CompanyTypeDealer)

	rec := s.do(http.MethodGet, "/api/v1/products?category_id=nope&max_price=cheap&page=x", tok, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeError(t, rec)
	for _, field := range []string{"category_id", "max_price", "page"} {
		if resp.Fields[field] == "" {
			t.Errorf("fields missing %q: %v", field, resp.Fields)
		}
	}
}

func TestListEndpoints_RejectUnknownEnumValues(t *testing.T) {
	s := newTestServer(Handlers{})
	manager, _ := s.token(t, model.RoleManager, model.CompanyTypeSupplier)
	platform, err := s.tokens.GenerateToken(jwtutil.UserClaims{
		Email:         "ops@example.com",
		UserID:        uuid.New(),
		CompanyID:     uuid.New(),
		CompanyType:   string(model.CompanyTypeSupplier),
		Role:          string(model.RoleAdmin),
		PlatformAdmin: true,
	})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		path   string
		token  string
		fields []string
	}{
		{"/api/v1/products?status=bogus", manager, []string{"status"}},
		{"/api/v1/orders?status=bogus&payment_status=later&view=mine", manager, []string{"status", "payment_status", "view"}},
		{"/api/v1/users?role=owner&status=gone", manager, []string{"role", "status"}},
		{"/api/v1/invitations?status=bogus", manager, []string{"status"}},
		{"/api/v1/warehouses?status=closed", manager, []string{"status"}},
		{"/api/v1/batches?status=bogus", manager, []string{"status"}},
		{"/api/v1/admin/companies?type=broker&status=bogus&verification_status=maybe", platform, []string{"type", "status", "verification_status"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := s.do(http.MethodGet, tt.path, tt.token, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
			}
			resp := decodeError(t, rec)
			if resp.Code != apperror.CodeValidation {
				t.Errorf("code = %q", resp.Code)
			}
			for _, field := range tt.fields {
				if !strings.HasPrefix(resp.Fields[field], "must be one of: ") {
					t.Errorf("fields[%q] = %q", field, resp.Fields[field])
				}
			}
		})
	}
}

func TestQueryEnum(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?role=staff&status=bogus", nil), httptest.NewRecorder())
	q := newQuery(c)

	if got := enum(q, "role", model.RoleAdmin, model.RoleManager, model.RoleStaff); got != model.RoleStaff {
		t.Errorf("role = %q", got)
	}
	if got := enum(q, "missing", model.RoleAdmin); got != "" {
		t.Errorf("missing = %q", got)
	}
	if got := enum(q, "status", model.UserStatusActive, model.UserStatusInactive); got != "" {
		t.Errorf("status = %q", got)
	}
	if q.fields["status"] != "must be one of: active, inactive" {
		t.Errorf("message = %q", q.fields["status"])
	}
}

func TestCreateOrder(t *testing.T) {
	var gotID auth.Identity
	var gotIn service.CreateOrderInput
	s := newTestServer(Handlers{Orders: NewOrderHandler(fakeOrders{
		create: func(id auth.Identity, in service.CreateOrderInput) (*model.Order, error) {
			gotID, gotIn = id, in
			return &model.Order{OrderNumber: "ORD-20260101-ABCDEF", Status: model.OrderPending}, nil
		},
	})})
	tok, claims := s.token(t, model.RoleStaff, model.CompanyTypeDealer)
	productID := uuid.New()

	rec := s.do(http.MethodPost, "/api/v1/orders", tok,
		`{"items":[{"product_id":"`+productID.String()+`","quantity":"2.5","discount":"1"}],"notes":"rush"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if gotID.UserID != claims.UserID || gotID.CompanyID != claims.CompanyID {
		t.Errorf("identity = %+v", gotID)
	}
	if len(gotIn.Items) != 1 || gotIn.Items[0].ProductID != productID || !gotIn.Items[0].Quantity.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("input = %+v", gotIn)
	}
}

func TestCreateOrder_NestedValidation(t *testing.T) {
	s := newTestServer(Handlers{})
	tok, _ := s.token(t, model.RoleStaff, model.CompanyTypeDealer)

	rec := s.do(http.MethodPost, "/api/v1/orders", tok, `{"items":[{"quantity":"1"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Fields["items[0].product_id"] == "" {
		t.Errorf("fields = %v", resp.Fields)
	}

	rec = s.do(http.MethodPost, "/api/v1/orders", tok, `{"items":[]}`)
	if resp := decodeError(t, rec); rec.Code != http.StatusBadRequest || resp.Fields["items"] == "" {
		t.Errorf("empty items: status %d fields %v", rec.Code, resp.Fields)
	}
}

func TestCancelOrder_EmptyBody(t *testing.T) {
	orderID := uuid.New()
	var gotNotes = "unset"
	s := newTestServer(Handlers{Orders: NewOrderHandler(fakeOrders{
		cancel: func(id uuid.UUID, notes string) (*model.Order, error) {
			if id != orderID {
				t.Errorf("order id = %s", id)
			}
			gotNotes = notes
			return &model.Order{Status: model.OrderCancelled}, nil
		},
	})})
	tok, _ := s.token(t, model.RoleStaff, model.CompanyTypeDealer)

	rec := s.do(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", tok, "")
	if rec.Code != http.StatusOK || gotNotes != "" {
		t.Fatalf("status = %d notes %q", rec.Code, gotNotes)
	}
}

func TestOrderInvoice(t *testing.T) {
	s := newTestServer(Handlers{Orders: NewOrderHandler(fakeOrders{
		invoice: func(uuid.UUID) (*service.Invoice, error) {
			return &service.Invoice{Filename: "ORD-1.pdf", Content: []byte("%PDF-1.3 test")}, nil
		},
	})})
	tok, _ := s.token(t, model.RoleStaff, model.CompanyTypeDealer)

	rec := s.do(http.MethodGet, "/api/v1/orders/"+uuid.NewString()+"/invoice", tok, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, `filename="ORD-1.pdf"`) {
		t.Errorf("content disposition = %q", cd)
	}

	rec = s.do(http.MethodGet, "/api/v1/orders/not-a-uuid/invoice", tok, "")
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Fields["id"] == "" {
		t.Errorf("bad id: status = %d", rec.Code)
	}
}

func TestErrorHandler_Shapes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   apperror.Code
		msg    string
	}{
		{"not found", apperror.NotFound("order"), http.StatusNotFound, apperror.CodeNotFound, "order not found"},
		{"gone", apperror.Gone("invitation expired"), http.StatusGone, apperror.CodeGone, "invitation expired"},
		{"echo 404", echo.ErrNotFound, http.StatusNotFound, apperror.CodeNotFound, "Not Found"},
		{"echo 405", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, apperror.CodeValidation, "Method Not Allowed"},
		{"internal hides cause", apperror.Internal(errors.New("pq: secret")), http.StatusInternalServerError, apperror.CodeInternal, "internal server error"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, apperror.CodeInternal, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			c.Set(middleware.RequestIDKey, "rid")

			ErrorHandler(tt.err, c)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			resp := decodeError(t, rec)
			if resp.Code != tt.code || resp.Error != tt.msg || resp.RequestID != "rid" {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(Handlers{Health: NewHealthHandler("1.2.3", map[string]Check{
		"db":    func(context.Context) error { return nil },
		"mongo": func(context.Context) error { return errors.New("down") },
	})})

	rec := s.do(http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness status = %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/health?check=deps", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("deps status = %d", rec.Code)
	}
	var body struct {
		Status       string            `json:"status"`
		Version      string            `json:"version"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "error" || body.Version != "1.2.3" || body.Dependencies["db"] != "ok" || body.Dependencies["mongo"] != "error" {
		t.Errorf("body = %+v", body)
	}
}

func TestQueryTime(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?from=2026-03-01&to=2026-03-31T23:59:59Z&bad=yesterday", nil), httptest.NewRecorder())
	q := newQuery(c)

	from, to := q.time("from"), q.time("to")
	if from == nil || !from.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", from)
	}
	if to == nil || to.Day() != 31 {
		t.Errorf("to = %v", to)
	}
	if q.err() != nil {
		t.Fatalf("unexpected error %v", q.err())
	}
	if q.time("bad") != nil || q.err() == nil {
		t.Error("bad time should be reported")
	}
}
