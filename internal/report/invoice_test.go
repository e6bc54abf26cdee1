package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tienbob/Tubex-sub003/internal/model"
)

func TestInvoice_RendersPDF(t *testing.T) {
	o := &model.Order{
		OrderNumber:    "ORD-20240105-ABC123",
		Status:         model.OrderConfirmed,
		PaymentStatus:  model.PaymentPending,
		Subtotal:       decimal.RequireFromString("20.00"),
		TaxAmount:      decimal.RequireFromString("2.00"),
		DiscountAmount: decimal.Zero,
		TotalAmount:    decimal.RequireFromString("22.00"),
		Notes:          "Leave at the loading dock",
		Items: []model.OrderItem{
			{
				ProductID:  uuid.New(),
				Quantity:   decimal.NewFromInt(2),
				UnitPrice:  decimal.RequireFromString("10.00"),
				Discount:   decimal.Zero,
				TotalPrice: decimal.RequireFromString("20.00"),
				Product:    &model.Product{Name: "Cà phê", SKU: "CF-1"},
			},
			{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1)},
		},
	}
	o.CreatedAt = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	out, err := Invoice(o, &model.Company{Name: "Acme Supply", TaxID: "T-1"}, nil)
	if err != nil {
		t.Fatalf("Invoice: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output does not start with a PDF header: %q", out[:8])
	}
}
