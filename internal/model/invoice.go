package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice status enum constants
const (
	InvoiceDraft     = "DRAFT"
	InvoiceGenerated = "GENERATED"
	InvoiceSent      = "SENT"
	InvoicePaid      = "PAID"
)

var invoiceTransitions = map[string][]string{
	InvoiceDraft:     {InvoiceGenerated, InvoiceSent},
	InvoiceGenerated: {InvoiceSent, InvoicePaid},
	InvoiceSent:      {InvoicePaid},
	InvoicePaid:      {},
}

// CanTransitionInvoice reports whether an invoice status move is legal.
// Invoices are immutable once generated except for these forward moves.
func CanTransitionInvoice(from, to string) bool {
	for _, next := range invoiceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Invoice is the billing artifact compiled over a customer's settled bookings
// for one period. GrandTotal = Subtotal + TotalTax, and the tax is entirely
// CGST+SGST (intrastate) or entirely IGST (interstate), never a mix.
type Invoice struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoices_org_no" json:"organization_id"`
	InvoiceNo      string    `gorm:"type:varchar(40);not null;uniqueIndex:idx_invoices_org_no" json:"invoice_no"`

	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	BranchID   uuid.UUID `gorm:"type:uuid;not null" json:"branch_id"`

	PeriodFrom time.Time `gorm:"not null" json:"period_from"`
	PeriodTo   time.Time `gorm:"not null" json:"period_to"`

	Subtotal   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	CGST       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"cgst"`
	SGST       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"sgst"`
	IGST       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"igst"`
	TotalTax   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_tax"`
	GrandTotal decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"grand_total"`

	Interstate bool   `gorm:"not null" json:"interstate"`
	Status     string `gorm:"type:varchar(20);not null;default:'GENERATED';index" json:"status"`

	LineItems []InvoiceLineItem `gorm:"foreignKey:InvoiceID" json:"line_items,omitempty"`

	GeneratedBy *uuid.UUID `gorm:"type:uuid" json:"generated_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// InvoiceLineItem is one settled booking's already-resolved charge on an
// invoice. Pricing is never re-resolved at invoice time.
type InvoiceLineItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	BookingID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"booking_id"`
	LRNumber    string          `gorm:"type:varchar(30);not null" json:"lr_number"`
	Description string          `gorm:"type:varchar(255)" json:"description"`
	BookingDate time.Time       `gorm:"not null" json:"booking_date"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
}
