package service

import (
	"errors"
	"testing"
	"time"

	"freightflow/internal/model"

	"github.com/google/uuid"
)

func TestComputeTaxIntrastate(t *testing.T) {
	tax := ComputeTax(dec("1000"), dec("0.18"), false)

	if !tax.CGST.Equal(dec("90")) {
		t.Errorf("CGST: got %s, want 90", tax.CGST)
	}
	if !tax.SGST.Equal(dec("90")) {
		t.Errorf("SGST: got %s, want 90", tax.SGST)
	}
	if tax.IGST.Sign() != 0 {
		t.Errorf("IGST must be zero intrastate, got %s", tax.IGST)
	}
	if !tax.Total.Equal(dec("180")) {
		t.Errorf("total tax: got %s, want 180", tax.Total)
	}
}

func TestComputeTaxInterstate(t *testing.T) {
	tax := ComputeTax(dec("1000"), dec("0.18"), true)

	if !tax.IGST.Equal(dec("180")) {
		t.Errorf("IGST: got %s, want 180", tax.IGST)
	}
	if tax.CGST.Sign() != 0 || tax.SGST.Sign() != 0 {
		t.Errorf("CGST/SGST must be zero interstate, got %s/%s", tax.CGST, tax.SGST)
	}
	if !tax.Total.Equal(dec("180")) {
		t.Errorf("total tax: got %s, want 180", tax.Total)
	}
}

func TestComputeTaxHalvesAlwaysSum(t *testing.T) {
	// 333.33 * 0.18 = 60.00 (rounded); the halves must recombine exactly.
	tax := ComputeTax(dec("333.33"), dec("0.18"), false)
	if !tax.CGST.Add(tax.SGST).Equal(tax.Total) {
		t.Errorf("CGST %s + SGST %s != total %s", tax.CGST, tax.SGST, tax.Total)
	}

	// An odd total leaves the extra paisa on SGST.
	tax = ComputeTax(dec("100.27"), dec("0.18"), false)
	if !tax.CGST.Add(tax.SGST).Equal(tax.Total) {
		t.Errorf("CGST %s + SGST %s != total %s", tax.CGST, tax.SGST, tax.Total)
	}
}

func TestBuildLineItems(t *testing.T) {
	bookings := []model.Booking{
		{ID: uuid.New(), LRNumber: "LR-20260801-00001", TotalAmount: dec("450.50"), BookingDate: time.Now()},
		{ID: uuid.New(), LRNumber: "LR-20260801-00002", TotalAmount: dec("549.50"), BookingDate: time.Now()},
	}

	lines, subtotal := buildLineItems(bookings)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !subtotal.Equal(dec("1000")) {
		t.Errorf("subtotal: got %s, want 1000", subtotal)
	}
	if lines[0].LRNumber != "LR-20260801-00001" {
		t.Errorf("line order must follow booking order, got %s first", lines[0].LRNumber)
	}
	if !lines[1].Amount.Equal(dec("549.50")) {
		t.Errorf("line amount must copy the booking charge, got %s", lines[1].Amount)
	}
}

func TestIsInterstate(t *testing.T) {
	intrastate := []model.Booking{{
		FromBranch: &model.Branch{StateCode: "27"},
		ToBranch:   &model.Branch{StateCode: "27"},
	}}
	if isInterstate(intrastate) {
		t.Error("matching state codes must be intrastate")
	}

	interstate := []model.Booking{{
		FromBranch: &model.Branch{StateCode: "27"},
		ToBranch:   &model.Branch{StateCode: "29"},
	}}
	if !isInterstate(interstate) {
		t.Error("differing state codes must be interstate")
	}
}

func TestParseInvoiceFilter(t *testing.T) {
	req := GenerateInvoiceRequest{
		CustomerID: uuid.New().String(),
		PeriodFrom: "2026-08-01",
		PeriodTo:   "2026-08-31",
	}
	filter, err := parseInvoiceFilter(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.ToDate.Before(filter.FromDate) {
		t.Fatal("parsed period is inverted")
	}

	req.PeriodTo = "2026-07-01"
	if _, err := parseInvoiceFilter(req); err == nil {
		t.Fatal("inverted period must be rejected")
	} else {
		var policy *PolicyError
		if !errors.As(err, &policy) {
			t.Fatalf("expected a policy rejection, got %T", err)
		}
	}

	req.PeriodTo = "31-08-2026"
	if _, err := parseInvoiceFilter(req); err == nil {
		t.Fatal("malformed date must be rejected")
	}
}
