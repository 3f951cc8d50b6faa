package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"freightflow/internal/model"
	"freightflow/internal/notification"
	"freightflow/internal/pdf"
	"freightflow/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type GenerateInvoiceRequest struct {
	CustomerID    string `json:"customer_id" binding:"required"`
	PeriodFrom    string `json:"period_from" binding:"required"` // YYYY-MM-DD
	PeriodTo      string `json:"period_to" binding:"required"`   // YYYY-MM-DD
	DeliveredOnly bool   `json:"delivered_only"`
	PaymentType   string `json:"payment_type" binding:"omitempty,oneof=PAID TO_PAY"`
}

type InvoiceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=GENERATED SENT PAID"`
}

// InvoicePreview is the dry-run output: the same figures Generate would
// commit, without writing anything.
type InvoicePreview struct {
	CustomerID uuid.UUID               `json:"customer_id"`
	Bookings   int                     `json:"bookings"`
	LineItems  []model.InvoiceLineItem `json:"line_items"`
	Subtotal   decimal.Decimal         `json:"subtotal"`
	Tax        TaxBreakdown            `json:"tax"`
	GrandTotal decimal.Decimal         `json:"grand_total"`
	Interstate bool                    `json:"interstate"`
}

// TaxBreakdown splits the tax by jurisdiction. Intrastate movements carry
// CGST+SGST in equal halves, interstate movements carry IGST only.
type TaxBreakdown struct {
	CGST  decimal.Decimal `json:"cgst"`
	SGST  decimal.Decimal `json:"sgst"`
	IGST  decimal.Decimal `json:"igst"`
	Total decimal.Decimal `json:"total"`
}

// --- Interface ---

type InvoiceService interface {
	Preview(ctx context.Context, rc model.RequestContext, req GenerateInvoiceRequest) (InvoicePreview, error)
	Generate(ctx context.Context, rc model.RequestContext, req GenerateInvoiceRequest) (*model.Invoice, error)
	Get(ctx context.Context, rc model.RequestContext, invoiceID string) (*model.Invoice, error)
	List(ctx context.Context, rc model.RequestContext, filter repository.InvoiceListFilter) ([]model.Invoice, int64, error)
	UpdateStatus(ctx context.Context, rc model.RequestContext, invoiceID string, req InvoiceStatusRequest) (*model.Invoice, error)
	RenderPDF(ctx context.Context, rc model.RequestContext, invoiceID string) ([]byte, string, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	bookingRepo repository.BookingRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	pdfGen      *pdf.InvoiceGenerator
	notifier    notification.Notifier
	gstRate     decimal.Decimal
	log         zerolog.Logger
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	bookingRepo repository.BookingRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	pdfGen *pdf.InvoiceGenerator,
	notifier notification.Notifier,
	gstRate decimal.Decimal,
	log zerolog.Logger,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		bookingRepo: bookingRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		pdfGen:      pdfGen,
		notifier:    notifier,
		gstRate:     gstRate,
		log:         log,
	}
}

// --- Implementation ---

func (s *invoiceService) Preview(ctx context.Context, rc model.RequestContext, req GenerateInvoiceRequest) (InvoicePreview, error) {
	filter, err := parseInvoiceFilter(req)
	if err != nil {
		return InvoicePreview{}, err
	}

	bookings, err := s.bookingRepo.FindInvoiceable(ctx, rc.OrganizationID, filter)
	if err != nil {
		return InvoicePreview{}, fmt.Errorf("failed to fetch invoiceable bookings: %w", err)
	}
	if len(bookings) == 0 {
		return InvoicePreview{}, ErrNoEligibleBookings
	}

	lines, subtotal := buildLineItems(bookings)
	interstate := isInterstate(bookings)
	tax := ComputeTax(subtotal, s.gstRate, interstate)

	return InvoicePreview{
		CustomerID: filter.CustomerID,
		Bookings:   len(bookings),
		LineItems:  lines,
		Subtotal:   subtotal,
		Tax:        tax,
		GrandTotal: subtotal.Add(tax.Total),
		Interstate: interstate,
	}, nil
}

// Generate compiles one invoice over the customer's eligible bookings. The
// header, line items, and booking back-references commit atomically; PDF
// rendering and SMS dispatch happen after commit and never fail the call.
func (s *invoiceService) Generate(ctx context.Context, rc model.RequestContext, req GenerateInvoiceRequest) (*model.Invoice, error) {
	filter, err := parseInvoiceFilter(req)
	if err != nil {
		return nil, err
	}

	var invoice *model.Invoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		bookings, findErr := s.bookingRepo.FindInvoiceable(txCtx, rc.OrganizationID, filter)
		if findErr != nil {
			return fmt.Errorf("failed to fetch invoiceable bookings: %w", findErr)
		}
		if len(bookings) == 0 {
			return ErrNoEligibleBookings
		}

		lines, subtotal := buildLineItems(bookings)
		interstate := isInterstate(bookings)
		tax := ComputeTax(subtotal, s.gstRate, interstate)

		prefix := "INV-" + time.Now().Format("200601") + "-"
		if lockErr := s.invoiceRepo.AcquireNumberLock(txCtx, rc.OrganizationID.String()+prefix); lockErr != nil {
			return fmt.Errorf("failed to acquire invoice number lock: %w", lockErr)
		}
		count, numErr := s.invoiceRepo.CountByPrefix(txCtx, rc.OrganizationID, prefix)
		if numErr != nil {
			return fmt.Errorf("failed to generate invoice number: %w", numErr)
		}

		invoice = &model.Invoice{
			OrganizationID: rc.OrganizationID,
			InvoiceNo:      fmt.Sprintf("%s%05d", prefix, count+1),
			CustomerID:     filter.CustomerID,
			BranchID:       rc.BranchID,
			PeriodFrom:     filter.FromDate,
			PeriodTo:       filter.ToDate,
			Subtotal:       subtotal,
			CGST:           tax.CGST,
			SGST:           tax.SGST,
			IGST:           tax.IGST,
			TotalTax:       tax.Total,
			GrandTotal:     subtotal.Add(tax.Total),
			Interstate:     interstate,
			Status:         model.InvoiceGenerated,
			GeneratedBy:    rc.Actor(),
		}
		if createErr := s.invoiceRepo.Create(txCtx, invoice); createErr != nil {
			return fmt.Errorf("failed to create invoice: %w", createErr)
		}

		bookingIDs := make([]uuid.UUID, 0, len(bookings))
		for i := range lines {
			lines[i].InvoiceID = invoice.ID
			bookingIDs = append(bookingIDs, lines[i].BookingID)
		}
		if linesErr := s.invoiceRepo.CreateLineItems(txCtx, lines); linesErr != nil {
			return fmt.Errorf("failed to create invoice line items: %w", linesErr)
		}
		if markErr := s.bookingRepo.MarkInvoiced(txCtx, bookingIDs, invoice.ID); markErr != nil {
			return fmt.Errorf("failed to mark bookings invoiced: %w", markErr)
		}
		invoice.LineItems = lines

		s.writeAudit(txCtx, rc, invoice, len(bookings))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, rc, invoice)
	return invoice, nil
}

// afterCommit performs the side effects the invoice does not depend on.
// Failures are logged and swallowed: the invoice already exists.
func (s *invoiceService) afterCommit(ctx context.Context, rc model.RequestContext, invoice *model.Invoice) {
	full, err := s.invoiceRepo.FindByIDWithLines(ctx, rc.OrganizationID, invoice.ID)
	if err != nil {
		s.log.Error().Err(err).Str("invoice_no", invoice.InvoiceNo).Msg("post-commit invoice reload failed")
		return
	}

	if s.pdfGen != nil {
		if _, err := s.pdfGen.Generate(full); err != nil {
			s.log.Error().Err(err).Str("invoice_no", invoice.InvoiceNo).Msg("invoice pdf generation failed")
		}
	}

	if s.notifier != nil && full.Customer != nil && full.Customer.Phone != "" {
		msg := fmt.Sprintf("Invoice %s for %s has been generated. Amount due: %s",
			full.InvoiceNo, full.Customer.Name, full.GrandTotal.StringFixed(2))
		if err := s.notifier.Send(ctx, full.Customer.Phone, msg); err != nil {
			s.log.Error().Err(err).Str("invoice_no", invoice.InvoiceNo).Msg("invoice sms dispatch failed")
		}
	}
}

func (s *invoiceService) Get(ctx context.Context, rc model.RequestContext, invoiceID string) (*model.Invoice, error) {
	id, err := uuid.Parse(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice id: %w", err)
	}
	invoice, err := s.invoiceRepo.FindByIDWithLines(ctx, rc.OrganizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "invoice", ID: invoiceID}
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return invoice, nil
}

func (s *invoiceService) List(ctx context.Context, rc model.RequestContext, filter repository.InvoiceListFilter) ([]model.Invoice, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	invoices, total, err := s.invoiceRepo.List(ctx, rc.OrganizationID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}
	return invoices, total, nil
}

func (s *invoiceService) UpdateStatus(ctx context.Context, rc model.RequestContext, invoiceID string, req InvoiceStatusRequest) (*model.Invoice, error) {
	id, err := uuid.Parse(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice id: %w", err)
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, rc.OrganizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "invoice", ID: invoiceID}
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	if req.Status == invoice.Status {
		return invoice, nil
	}
	if !model.CanTransitionInvoice(invoice.Status, req.Status) {
		return nil, &InvalidTransitionError{
			Entity:    "invoice",
			Current:   invoice.Status,
			Requested: req.Status,
		}
	}
	if err := s.invoiceRepo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}
	invoice.Status = req.Status
	return invoice, nil
}

func (s *invoiceService) RenderPDF(ctx context.Context, rc model.RequestContext, invoiceID string) ([]byte, string, error) {
	invoice, err := s.Get(ctx, rc, invoiceID)
	if err != nil {
		return nil, "", err
	}
	data, err := s.pdfGen.Generate(invoice)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render invoice pdf: %w", err)
	}
	return data, invoice.InvoiceNo + ".pdf", nil
}

// --- Pure compilation logic ---

// ComputeTax applies the GST rate to the subtotal. Intrastate tax is split
// evenly between CGST and SGST; any odd paisa lands on SGST so the halves
// always sum to the total.
func ComputeTax(subtotal, rate decimal.Decimal, interstate bool) TaxBreakdown {
	total := subtotal.Mul(rate).Round(2)
	if interstate {
		return TaxBreakdown{IGST: total, Total: total}
	}
	cgst := total.Div(decimal.NewFromInt(2)).Round(2)
	return TaxBreakdown{CGST: cgst, SGST: total.Sub(cgst), Total: total}
}

// buildLineItems copies each booking's already-resolved charge onto a line.
func buildLineItems(bookings []model.Booking) ([]model.InvoiceLineItem, decimal.Decimal) {
	lines := make([]model.InvoiceLineItem, 0, len(bookings))
	subtotal := decimal.Zero
	for _, booking := range bookings {
		description := fmt.Sprintf("Freight %s", routeLabel(booking))
		lines = append(lines, model.InvoiceLineItem{
			BookingID:   booking.ID,
			LRNumber:    booking.LRNumber,
			Description: description,
			BookingDate: booking.BookingDate,
			Amount:      booking.TotalAmount,
		})
		subtotal = subtotal.Add(booking.TotalAmount)
	}
	return lines, subtotal
}

// isInterstate reports whether the billed movements cross a state boundary,
// judged from the first booking's origin and destination branches.
func isInterstate(bookings []model.Booking) bool {
	first := bookings[0]
	if first.FromBranch == nil || first.ToBranch == nil {
		return false
	}
	return first.FromBranch.StateCode != first.ToBranch.StateCode
}

func routeLabel(booking model.Booking) string {
	if booking.FromBranch != nil && booking.ToBranch != nil {
		return booking.FromBranch.Name + " to " + booking.ToBranch.Name
	}
	return booking.LRNumber
}

func parseInvoiceFilter(req GenerateInvoiceRequest) (repository.InvoiceableFilter, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return repository.InvoiceableFilter{}, fmt.Errorf("invalid customer_id: %w", err)
	}
	from, err := time.Parse("2006-01-02", req.PeriodFrom)
	if err != nil {
		return repository.InvoiceableFilter{}, fmt.Errorf("invalid period_from (expected YYYY-MM-DD): %w", err)
	}
	to, err := time.Parse("2006-01-02", req.PeriodTo)
	if err != nil {
		return repository.InvoiceableFilter{}, fmt.Errorf("invalid period_to (expected YYYY-MM-DD): %w", err)
	}
	if to.Before(from) {
		return repository.InvoiceableFilter{}, &PolicyError{Reason: "period_to must not precede period_from"}
	}
	return repository.InvoiceableFilter{
		CustomerID:    customerID,
		FromDate:      from,
		ToDate:        to,
		DeliveredOnly: req.DeliveredOnly,
		PaymentType:   req.PaymentType,
	}, nil
}

func (s *invoiceService) writeAudit(ctx context.Context, rc model.RequestContext, invoice *model.Invoice, bookingCount int) {
	details := fmt.Sprintf(`{"invoice_no":%q,"bookings":%d,"grand_total":%q}`,
		invoice.InvoiceNo, bookingCount, invoice.GrandTotal.StringFixed(2))
	entry := &model.AuditLog{
		OrganizationID: rc.OrganizationID,
		UserID:         rc.Actor(),
		Action:         model.ActionGenerateInvoice,
		EntityID:       invoice.ID.String(),
		EntityName:     invoice.InvoiceNo,
		Details:        details,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("action", model.ActionGenerateInvoice).Msg("audit log write failed")
	}
}
