package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tienbob/Tubex-sub003/internal/apperror"
	"github.com/tienbob/Tubex-sub003/internal/auth"
	"github.com/tienbob/Tubex-sub003/internal/model"
	"github.com/tienbob/Tubex-sub003/internal/repository"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotals(t *testing.T) {
	items := []model.OrderItem{
		{Quantity: dec("3"), UnitPrice: dec("19.99"), Discount: dec("0.97")},
		{Quantity: dec("0.5"), UnitPrice: dec("10.01"), Discount: decimal.Zero},
	}
	totals, err := computeTotals(items, dec("0.10"), dec("5"))
	if err != nil {
		t.Fatalf("computeTotals: %v", err)
	}

	// 3*19.99-0.97 = 59.00; 0.5*10.01 = 5.005 -> 5.01
	if !items[0].TotalPrice.Equal(dec("59.00")) {
		t.Errorf("line 0 total = %s, want 59.00", items[0].TotalPrice)
	}
	if !items[1].TotalPrice.Equal(dec("5.01")) {
		t.Errorf("line 1 total = %s, want 5.01", items[1].TotalPrice)
	}
	if !totals.Subtotal.Equal(dec("64.01")) {
		t.Errorf("subtotal = %s, want 64.01", totals.Subtotal)
	}
	if !totals.Tax.Equal(dec("6.40")) {
		t.Errorf("tax = %s, want 6.40", totals.Tax)
	}
	if !totals.Total.Equal(dec("65.41")) {
		t.Errorf("total = %s, want 65.41", totals.Total)
	}
}

func TestComputeTotals_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		items    []model.OrderItem
		discount decimal.Decimal
		field    string
	}{
		{
			name:  "line discount above amount",
			items: []model.OrderItem{{Quantity: dec("1"), UnitPrice: dec("5"), Discount: dec("6")}},
			field: "items[0].discount",
		},
		{
			name:     "order discount above amount",
			items:    []model.OrderItem{{Quantity: dec("1"), UnitPrice: dec("5")}},
			discount: dec("10"),
			field:    "discount_amount",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := computeTotals(tt.items, decimal.Zero, tt.discount)
			ae, ok := apperror.As(err)
			if !ok || ae.Code != apperror.CodeValidation {
				t.Fatalf("err = %v, want validation error", err)
			}
			if _, ok := ae.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %s", ae.Fields, tt.field)
			}
		})
	}
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	re := regexp.MustCompile(`^ORD-20240309-[0-9A-F]{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n := newOrderNumber(now)
		if !re.MatchString(n) {
			t.Fatalf("order number %q does not match %s", n, re)
		}
		seen[n] = true
	}
	if len(seen) < 45 {
		t.Errorf("only %d distinct numbers out of 50", len(seen))
	}
}

func TestBuildSummary_ExcludesCancelledRevenue(t *testing.T) {
	rows := []repository.StatusSummary{
		{Status: model.OrderDelivered, Count: 2, Revenue: dec("100.50")},
		{Status: model.OrderCancelled, Count: 1, Revenue: dec("40")},
		{Status: model.OrderPending, Count: 3, Revenue: dec("9.50")},
		{Status: model.OrderReturned, Count: 1, Revenue: dec("7")},
	}
	s := buildSummary(rows, nil, nil)
	if s.TotalOrders != 7 {
		t.Errorf("TotalOrders = %d, want 7", s.TotalOrders)
	}
	if !s.TotalRevenue.Equal(dec("110")) {
		t.Errorf("TotalRevenue = %s, want 110", s.TotalRevenue)
	}
	if empty := buildSummary(nil, nil, nil); empty.Statuses == nil {
		t.Error("Statuses should be an empty slice, not nil")
	}
}

func TestApplyDelta(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := &model.Inventory{Quantity: dec("5"), MinThreshold: dec("2")}

	if err := applyDelta(inv, dec("-3"), now); err != nil {
		t.Fatalf("applyDelta(-3): %v", err)
	}
	if !inv.Quantity.Equal(dec("2")) || inv.Status != model.InventoryLowStock {
		t.Errorf("after -3: quantity %s status %s", inv.Quantity, inv.Status)
	}
	if inv.LastRestockDate != nil {
		t.Error("negative delta must not set LastRestockDate")
	}

	if err := applyDelta(inv, dec("-2.001"), now); !apperror.Is(err, apperror.CodeValidation) {
		t.Fatalf("overdraw err = %v, want validation error", err)
	}
	if !inv.Quantity.Equal(dec("2")) {
		t.Errorf("failed delta changed quantity to %s", inv.Quantity)
	}

	if err := applyDelta(inv, dec("10"), now); err != nil {
		t.Fatalf("applyDelta(10): %v", err)
	}
	if inv.LastRestockDate == nil || !inv.LastRestockDate.Equal(now) {
		t.Errorf("LastRestockDate = %v, want %v", inv.LastRestockDate, now)
	}
	if inv.Status != model.InventoryInStock {
		t.Errorf("status = %s, want in_stock", inv.Status)
	}

	if err := applyDelta(inv, dec("-12"), now); err != nil {
		t.Fatalf("applyDelta(-12): %v", err)
	}
	if inv.Status != model.InventoryOutOfStock {
		t.Errorf("status = %s, want out_of_stock", inv.Status)
	}
}

func TestCheckThresholds(t *testing.T) {
	if err := checkThresholds(dec("1"), dec("10"), dec("2"), dec("5")); err != nil {
		t.Errorf("valid thresholds: %v", err)
	}
	if err := checkThresholds(dec("5"), decimal.Zero, decimal.Zero, decimal.Zero); err != nil {
		t.Errorf("zero max means unbounded: %v", err)
	}
	err := checkThresholds(dec("11"), dec("10"), dec("-1"), decimal.Zero)
	ae, ok := apperror.As(err)
	if !ok {
		t.Fatalf("err = %v, want validation error", err)
	}
	for _, f := range []string{"min_threshold", "reorder_point"} {
		if _, ok := ae.Fields[f]; !ok {
			t.Errorf("missing field %s in %v", f, ae.Fields)
		}
	}
}

func TestCheckThresholds_Scale(t *testing.T) {
	err := checkThresholds(dec("1.0005"), dec("10"), dec("2.125"), dec("5.0000"))
	ae, ok := apperror.As(err)
	if !ok {
		t.Fatalf("err = %v, want validation error", err)
	}
	if ae.Fields["min_threshold"] == "" {
		t.Errorf("min_threshold accepted at four places: %v", ae.Fields)
	}
	if _, ok := ae.Fields["reorder_point"]; ok {
		t.Errorf("reorder_point rejected at three places: %v", ae.Fields)
	}
	if _, ok := ae.Fields["reorder_quantity"]; ok {
		t.Errorf("trailing zeros rejected: %v", ae.Fields)
	}
}

func TestFitsScale(t *testing.T) {
	tests := []struct {
		in     string
		places int32
		want   bool
	}{
		{"1", quantityPlaces, true},
		{"1.001", quantityPlaces, true},
		{"1.0010", quantityPlaces, true},
		{"1.0005", quantityPlaces, false},
		{"-0.0001", quantityPlaces, false},
		{"19.99", moneyPlaces, true},
		{"19.995", moneyPlaces, false},
	}
	for _, tt := range tests {
		if got := fitsScale(dec(tt.in), tt.places); got != tt.want {
			t.Errorf("fitsScale(%s, %d) = %v, want %v", tt.in, tt.places, got, tt.want)
		}
	}
}

func TestQuantityScaleRejectedBeforeWrites(t *testing.T) {
	ctx := context.Background()
	staff := auth.Identity{UserID: uuid.New(), CompanyID: uuid.New(), CompanyType: model.CompanyTypeDealer, Role: model.RoleStaff}

	_, err := (&OrderService{}).Create(ctx, staff, CreateOrderInput{Items: []OrderItemInput{
		{ProductID: uuid.New(), Quantity: dec("1")},
		{ProductID: uuid.New(), Quantity: dec("1.0005")},
	}})
	if ae, ok := apperror.As(err); !ok || ae.Fields["items[1].quantity"] == "" {
		t.Errorf("order item quantity: err = %v", err)
	}

	_, err = (&OrderService{}).Create(ctx, staff, CreateOrderInput{Items: []OrderItemInput{
		{ProductID: uuid.New(), Quantity: dec("1"), Discount: dec("0.005")},
	}})
	if ae, ok := apperror.As(err); !ok || ae.Fields["items[0].discount"] == "" {
		t.Errorf("order item discount: err = %v", err)
	}

	stock := &StockService{}
	_, err = stock.AdjustInventory(ctx, staff, uuid.New(), AdjustInventoryInput{Delta: dec("-0.0001")})
	if ae, ok := apperror.As(err); !ok || ae.Fields["delta"] == "" {
		t.Errorf("adjust delta: err = %v", err)
	}
	_, err = stock.TransferInventory(ctx, staff, TransferInventoryInput{
		ProductID:       uuid.New(),
		FromWarehouseID: uuid.New(),
		ToWarehouseID:   uuid.New(),
		Quantity:        dec("2.5005"),
	})
	if ae, ok := apperror.As(err); !ok || ae.Fields["quantity"] == "" {
		t.Errorf("transfer quantity: err = %v", err)
	}
}

func TestCheckBatch(t *testing.T) {
	made := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := made.AddDate(1, 0, 0)

	if err := checkBatch(dec("1"), dec("1"), &made, &later); err != nil {
		t.Errorf("valid batch: %v", err)
	}
	if err := checkBatch(dec("1"), dec("1"), nil, &later); err != nil {
		t.Errorf("missing manufacturing date is allowed: %v", err)
	}
	err := checkBatch(dec("1"), dec("1"), &later, &made)
	if ae, ok := apperror.As(err); !ok || ae.Fields["expiry_date"] == "" {
		t.Errorf("expiry before manufacturing: err = %v", err)
	}
	err = checkBatch(dec("1"), dec("1"), &made, &made)
	if !apperror.Is(err, apperror.CodeValidation) {
		t.Errorf("expiry equal to manufacturing: err = %v", err)
	}
	err = checkBatch(dec("1.2345"), dec("0.999"), nil, nil)
	if ae, ok := apperror.As(err); !ok || ae.Fields["quantity"] == "" || ae.Fields["unit_cost"] == "" {
		t.Errorf("excess scale: err = %v", err)
	}
}

func TestCheckAcceptable(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		status model.InvitationStatus
		expiry time.Time
		code   apperror.Code
	}{
		{"pending", model.InvitationPending, now.Add(time.Hour), ""},
		{"pending but past expiry", model.InvitationPending, now, apperror.CodeGone},
		{"expired", model.InvitationExpired, now.Add(time.Hour), apperror.CodeGone},
		{"accepted", model.InvitationAccepted, now.Add(time.Hour), apperror.CodeConflict},
		{"revoked", model.InvitationRevoked, now.Add(time.Hour), apperror.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkAcceptable(&model.Invitation{Status: tt.status, ExpiresAt: tt.expiry}, now)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("err = %v, want nil", err)
				}
				return
			}
			if !apperror.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRemovesAdmin(t *testing.T) {
	admin := model.User{Role: model.RoleAdmin, Status: model.UserStatusActive}
	tests := []struct {
		name  string
		after model.User
		want  bool
	}{
		{"unchanged", admin, false},
		{"demoted", model.User{Role: model.RoleManager, Status: model.UserStatusActive}, true},
		{"deactivated", model.User{Role: model.RoleAdmin, Status: model.UserStatusInactive}, true},
		{"suspended", model.User{Role: model.RoleAdmin, Status: model.UserStatusSuspended}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := removesAdmin(&admin, &tt.after); got != tt.want {
				t.Errorf("removesAdmin = %v, want %v", got, tt.want)
			}
		})
	}

	staff := model.User{Role: model.RoleStaff, Status: model.UserStatusActive}
	if removesAdmin(&staff, &model.User{Role: model.RoleStaff, Status: model.UserStatusInactive}) {
		t.Error("deactivating staff does not remove an admin")
	}
}

func TestDiffUser(t *testing.T) {
	before := &model.User{FirstName: "Ann", LastName: "Lee", Role: model.RoleStaff, Status: model.UserStatusActive}
	after := *before
	after.FirstName = "Anne"
	after.Role = model.RoleManager

	got := diffUser(before, &after)
	if len(got) != 2 {
		t.Fatalf("diff = %v, want 2 fields", got)
	}
	role, ok := got["role"].(map[string]interface{})
	if !ok || role["from"] != "staff" || role["to"] != "manager" {
		t.Errorf("role diff = %v", got["role"])
	}
	if len(diffUser(before, before)) != 0 {
		t.Error("identical users should produce an empty diff")
	}
}

func TestGuards(t *testing.T) {
	staff := auth.Identity{Role: model.RoleStaff, CompanyType: model.CompanyTypeDealer}
	if err := requireRole(staff, model.RoleManager); !apperror.Is(err, apperror.CodeForbidden) {
		t.Errorf("requireRole: err = %v, want forbidden", err)
	}
	if err := requireSupplier(staff); !apperror.Is(err, apperror.CodeForbidden) {
		t.Errorf("requireSupplier: err = %v, want forbidden", err)
	}
	if err := requirePlatformAdmin(staff); !apperror.Is(err, apperror.CodeForbidden) {
		t.Errorf("requirePlatformAdmin: err = %v, want forbidden", err)
	}

	admin := auth.Identity{Role: model.RoleAdmin, CompanyType: model.CompanyTypeSupplier, PlatformAdmin: true}
	for name, err := range map[string]error{
		"role":     requireRole(admin, model.RoleManager),
		"supplier": requireSupplier(admin),
		"platform": requirePlatformAdmin(admin),
	} {
		if err != nil {
			t.Errorf("%s guard rejected admin: %v", name, err)
		}
	}
}

func TestNewList_NormalizesPage(t *testing.T) {
	got := newList[int](nil, 0, repository.Page{Page: 0, PageSize: 1000})
	if got.Items == nil || got.Page != 1 || got.PageSize != repository.MaxPageSize {
		t.Errorf("newList = %+v", got)
	}
}

func TestOrderDocument(t *testing.T) {
	customer := uuid.New()
	wh := uuid.New()
	o := &model.Order{
		OrderNumber:       "ORD-20240101-000001",
		CompanyID:         uuid.New(),
		CustomerCompanyID: &customer,
		Status:            model.OrderPending,
		PaymentStatus:     model.PaymentPending,
		TotalAmount:       dec("12.30"),
		Items: []model.OrderItem{{
			ProductID:   uuid.New(),
			WarehouseID: &wh,
			Quantity:    dec("1.5"),
			UnitPrice:   dec("8.20"),
			TotalPrice:  dec("12.30"),
			Product:     &model.Product{Name: "Bolt", SKU: "B-1"},
		}},
	}
	doc := orderDocument(o)
	if doc.TotalAmount != "12.3" || doc.CustomerCompanyID != customer.String() || doc.CustomerID != "" {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Items) != 1 || doc.Items[0].SKU != "B-1" || doc.Items[0].WarehouseID != wh.String() {
		t.Errorf("items = %+v", doc.Items)
	}
}

func TestLockOrder_IsDirectionIndependent(t *testing.T) {
	a := uuid.MustParse("11111111-0000-0000-0000-000000000000")
	b := uuid.MustParse("22222222-0000-0000-0000-000000000000")
	if lockOrder(a, b) != lockOrder(b, a) {
		t.Errorf("A->B locks %v, B->A locks %v", lockOrder(a, b), lockOrder(b, a))
	}
	if got := lockOrder(b, a); got[0] != a {
		t.Errorf("first lock = %s, want %s", got[0], a)
	}
}

func TestRefreshBatchStatus(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	day := func(d int) *time.Time {
		v := time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	tests := []struct {
		name  string
		batch model.Batch
		want  model.BatchStatus
	}{
		{"fresh", model.Batch{Quantity: dec("5"), ExpiryDate: day(20), Status: model.BatchStatusActive}, model.BatchStatusActive},
		{"expires today", model.Batch{Quantity: dec("5"), ExpiryDate: day(10), Status: model.BatchStatusActive}, model.BatchStatusActive},
		{"expired yesterday", model.Batch{Quantity: dec("5"), ExpiryDate: day(9), Status: model.BatchStatusActive}, model.BatchStatusExpired},
		{"no expiry", model.Batch{Quantity: dec("5"), Status: model.BatchStatusActive}, model.BatchStatusActive},
		{"empty", model.Batch{Quantity: decimal.Zero, ExpiryDate: day(9), Status: model.BatchStatusActive}, model.BatchStatusDepleted},
		{"quarantine kept", model.Batch{Quantity: dec("5"), ExpiryDate: day(1), Status: model.BatchStatusQuarantined}, model.BatchStatusQuarantined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.batch
			refreshBatchStatus(&b, now)
			if b.Status != tt.want {
				t.Errorf("status = %s, want %s", b.Status, tt.want)
			}
		})
	}
}

func TestCompanyInputsRejectUnknownEnums(t *testing.T) {
	ctx := context.Background()
	admin := auth.Identity{UserID: uuid.New(), CompanyID: uuid.New(), Role: model.RoleAdmin}
	tier := model.SubscriptionTier("platinum")
	_, err := (&CompanyService{}).UpdateMine(ctx, admin, UpdateCompanyInput{SubscriptionTier: &tier})
	if ae, ok := apperror.As(err); !ok || ae.Fields["subscription_tier"] == "" {
		t.Errorf("tier: err = %v", err)
	}

	platform := admin
	platform.PlatformAdmin = true
	_, err = (&CompanyService{}).SetStatus(ctx, platform, uuid.New(), SetCompanyStatusInput{Status: "archived"})
	if ae, ok := apperror.As(err); !ok || ae.Fields["status"] == "" {
		t.Errorf("status: err = %v", err)
	}
}
