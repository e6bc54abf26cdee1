// Package report renders printable documents.
package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/tienbob/Tubex-sub003/internal/model"
)

// Invoice renders an A4 invoice for o. Items should have Product loaded;
// customer may be nil when the customer company was deleted.
func Invoice(o *model.Order, supplier, customer *model.Company) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+o.OrderNumber, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr("Invoice "+o.OrderNumber), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, "Date: "+o.CreatedAt.Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Status: "+string(o.Status)+"   Payment: "+string(o.PaymentStatus), "", 1, "L", false, 0, "")
	if supplier != nil {
		pdf.CellFormat(0, 7, tr("Supplier: "+supplier.Name+" ("+supplier.TaxID+")"), "", 1, "L", false, 0, "")
	}
	if customer != nil {
		pdf.CellFormat(0, 7, tr("Customer: "+customer.Name+" ("+customer.TaxID+")"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(30, 9, "SKU", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 9, "Product", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 9, "Quantity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 9, "Price", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 9, "Discount", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 9, "Total", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, it := range o.Items {
		sku, name := "", it.ProductID.String()
		if it.Product != nil {
			sku, name = it.Product.SKU, it.Product.Name
		}
		pdf.CellFormat(30, 8, tr(sku), "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 8, tr(name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, it.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 8, it.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 8, it.Discount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, it.TotalPrice.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	totals := []struct {
		label string
		value string
	}{
		{"Subtotal", o.Subtotal.StringFixed(2)},
		{"Tax", o.TaxAmount.StringFixed(2)},
		{"Discount", o.DiscountAmount.StringFixed(2)},
		{"Total", o.TotalAmount.StringFixed(2)},
	}
	for i, t := range totals {
		if i == len(totals)-1 {
			pdf.SetFont("Arial", "B", 11)
		}
		pdf.CellFormat(160, 7, t.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, t.value, "", 1, "R", false, 0, "")
	}

	if o.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "I", 10)
		pdf.MultiCell(0, 6, tr("Notes: "+o.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", o.OrderNumber, err)
	}
	return buf.Bytes(), nil
}
