package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"freightflow/internal/model"
)

// InvoiceGenerator renders tax invoices.
type InvoiceGenerator struct {
	fontName string
}

func NewInvoiceGenerator() *InvoiceGenerator {
	return &InvoiceGenerator{fontName: "Helvetica"}
}

// Generate renders the invoice with its line items to PDF bytes. The invoice
// must be loaded with LineItems (and ideally Customer) preloaded.
func (g *InvoiceGenerator) Generate(invoice *model.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, "TAX INVOICE", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Invoice No: %s", invoice.InvoiceNo), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Date: %s", formatDate(invoice.CreatedAt)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Billing Period: %s to %s",
		formatDate(invoice.PeriodFrom), formatDate(invoice.PeriodTo)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if invoice.Customer != nil {
		pdf.SetFont(g.fontName, "B", 11)
		pdf.CellFormat(0, 6, "Bill To", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 5, invoice.Customer.Name, "", 1, "L", false, 0, "")
		if invoice.Customer.GSTIN != "" {
			pdf.CellFormat(0, 5, fmt.Sprintf("GSTIN: %s", invoice.Customer.GSTIN), "", 1, "L", false, 0, "")
		}
		if invoice.Customer.Phone != "" {
			pdf.CellFormat(0, 5, fmt.Sprintf("Phone: %s", invoice.Customer.Phone), "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	headers := []string{"LR Number", "Date", "Description", "Amount"}
	colWidths := []float64{35, 25, 85, 35}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	for _, line := range invoice.LineItems {
		row := []string{
			line.LRNumber,
			formatDate(line.BookingDate),
			truncate(line.Description, 52),
			line.Amount.StringFixed(2),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Subtotal: %s", invoice.Subtotal.StringFixed(2)), "", 1, "R", false, 0, "")
	if invoice.Interstate {
		pdf.CellFormat(0, 6, fmt.Sprintf("IGST: %s", invoice.IGST.StringFixed(2)), "", 1, "R", false, 0, "")
	} else {
		pdf.CellFormat(0, 6, fmt.Sprintf("CGST: %s", invoice.CGST.StringFixed(2)), "", 1, "R", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("SGST: %s", invoice.SGST.StringFixed(2)), "", 1, "R", false, 0, "")
	}
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Grand Total: %s", invoice.GrandTotal.StringFixed(2)), "", 1, "R", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Amount in figures: %s", amountLabel(invoice.GrandTotal)), "", 1, "L", false, 0, "")
	pdf.Ln(8)
	pdf.CellFormat(0, 6, "Authorised Signatory: ______________________", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i == len(cols)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}

func amountLabel(amount decimal.Decimal) string {
	return strings.TrimSpace("INR " + amount.StringFixed(2))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02-01-2006")
}
