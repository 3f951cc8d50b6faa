package pdf

import (
	"bytes"
	"testing"
	"time"

	"freightflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestGenerateInvoicePDF(t *testing.T) {
	amount := decimal.NewFromInt(1000)
	invoice := &model.Invoice{
		InvoiceNo:  "INV-202608-00001",
		PeriodFrom: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodTo:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Subtotal:   amount,
		CGST:       decimal.NewFromInt(90),
		SGST:       decimal.NewFromInt(90),
		TotalTax:   decimal.NewFromInt(180),
		GrandTotal: decimal.NewFromInt(1180),
		Customer: &model.Customer{
			Name:  "Acme Traders",
			GSTIN: "27AAAAA0000A1Z5",
			Phone: "9876543210",
		},
		LineItems: []model.InvoiceLineItem{
			{
				BookingID:   uuid.New(),
				LRNumber:    "LR-20260801-00001",
				Description: "Freight Mumbai Central to Pune Camp",
				BookingDate: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
				Amount:      amount,
			},
		},
		CreatedAt: time.Now(),
	}

	data, err := NewInvoiceGenerator().Generate(invoice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty pdf output")
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output does not look like a pdf document")
	}
}

func TestGenerateInvoicePDFInterstate(t *testing.T) {
	invoice := &model.Invoice{
		InvoiceNo:  "INV-202608-00002",
		Interstate: true,
		Subtotal:   decimal.NewFromInt(1000),
		IGST:       decimal.NewFromInt(180),
		TotalTax:   decimal.NewFromInt(180),
		GrandTotal: decimal.NewFromInt(1180),
		CreatedAt:  time.Now(),
	}

	data, err := NewInvoiceGenerator().Generate(invoice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty pdf output")
	}
}
