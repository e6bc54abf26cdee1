package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderPending, OrderConfirmed, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderShipped, false},
		{OrderConfirmed, OrderProcessing, true},
		{OrderConfirmed, OrderDelivered, false},
		{OrderProcessing, OrderShipped, true},
		{OrderProcessing, OrderCancelled, true},
		{OrderShipped, OrderDelivered, true},
		{OrderShipped, OrderCancelled, false},
		{OrderDelivered, OrderReturned, true},
		{OrderDelivered, OrderPending, false},
		{OrderCancelled, OrderPending, false},
		{OrderReturned, OrderDelivered, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, s := range []OrderStatus{OrderCancelled, OrderReturned} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []OrderStatus{OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	if OrderStatus("bogus").Valid() {
		t.Error("unknown status reported valid")
	}
}

func TestOrderHoldsStock(t *testing.T) {
	if OrderPending.HoldsStock() || OrderCancelled.HoldsStock() {
		t.Error("pending and cancelled orders hold no stock")
	}
	if !OrderConfirmed.HoldsStock() || !OrderShipped.HoldsStock() {
		t.Error("confirmed and shipped orders hold stock")
	}
}

func TestOrderVisibleTo(t *testing.T) {
	supplier, dealer, other := uuid.New(), uuid.New(), uuid.New()
	o := &Order{CompanyID: supplier, CustomerCompanyID: &dealer}

	if !o.VisibleTo(supplier) || !o.VisibleTo(dealer) {
		t.Error("order should be visible to both parties")
	}
	if o.VisibleTo(other) {
		t.Error("order visible to unrelated company")
	}
	o.CustomerCompanyID = nil
	if o.VisibleTo(dealer) {
		t.Error("order without customer company visible to dealer")
	}
}

func TestInventoryRefreshStatus(t *testing.T) {
	tests := []struct {
		qty, min string
		want     InventoryStatus
	}{
		{"0", "5", InventoryOutOfStock},
		{"5", "5", InventoryLowStock},
		{"3.5", "5", InventoryLowStock},
		{"12", "5", InventoryInStock},
		{"1", "0", InventoryInStock},
	}
	for _, tt := range tests {
		inv := Inventory{
			Quantity:     decimal.RequireFromString(tt.qty),
			MinThreshold: decimal.RequireFromString(tt.min),
		}
		inv.RefreshStatus()
		if inv.Status != tt.want {
			t.Errorf("qty=%s min=%s: got %s, want %s", tt.qty, tt.min, inv.Status, tt.want)
		}
	}
}

func TestInventoryNeedsReorder(t *testing.T) {
	inv := Inventory{Quantity: decimal.NewFromInt(4), ReorderPoint: decimal.NewFromInt(5)}
	if !inv.NeedsReorder() {
		t.Error("expected reorder at or below reorder point")
	}
	inv.ReorderPoint = decimal.Zero
	if inv.NeedsReorder() {
		t.Error("zero reorder point disables reorder")
	}
}

func TestUserRoleRank(t *testing.T) {
	if !RoleAdmin.AtLeast(RoleManager) || !RoleManager.AtLeast(RoleStaff) {
		t.Error("role ordering broken")
	}
	if RoleStaff.AtLeast(RoleManager) {
		t.Error("staff must not outrank manager")
	}
	if UserRole("owner").Valid() {
		t.Error("unknown role reported valid")
	}
}

func TestUserCanLogin(t *testing.T) {
	for status, want := range map[UserStatus]bool{
		UserStatusActive:    true,
		UserStatusPending:   true,
		UserStatusInactive:  false,
		UserStatusSuspended: false,
	} {
		u := User{Status: status}
		if got := u.CanLogin(); got != want {
			t.Errorf("%s: got %v, want %v", status, got, want)
		}
	}
}

func TestInvitationExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	inv := Invitation{ExpiresAt: now.Add(time.Hour)}
	if inv.Expired(now) {
		t.Error("invitation expired too early")
	}
	if !inv.Expired(now.Add(time.Hour)) {
		t.Error("invitation should expire at ExpiresAt")
	}
}

func TestBatchExpiresWithin(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 0, 10)
	b := Batch{ExpiryDate: &expiry}
	if !b.ExpiresWithin(now, 30*24*time.Hour) {
		t.Error("batch expiring in 10 days is within 30")
	}
	if b.ExpiresWithin(now, 5*24*time.Hour) {
		t.Error("batch expiring in 10 days is not within 5")
	}
	b.ExpiryDate = nil
	if b.ExpiresWithin(now, 365*24*time.Hour) {
		t.Error("batch without expiry never expires")
	}
}

func TestBaseBeforeCreateKeepsID(t *testing.T) {
	id := uuid.New()
	b := Base{ID: id}
	if err := b.BeforeCreate(nil); err != nil {
		t.Fatal(err)
	}
	if b.ID != id {
		t.Error("existing id overwritten")
	}
	b = Base{}
	_ = b.BeforeCreate(nil)
	if b.ID == uuid.Nil {
		t.Error("id not assigned")
	}
}
