package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"freightflow/internal/model"
	"freightflow/internal/repository"
	"freightflow/internal/websocket"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type ArticleInput struct {
	ArticleID   string `json:"article_id"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
	WeightKg    string `json:"weight_kg" binding:"required"`
}

type CreateBookingRequest struct {
	FromBranchID string         `json:"from_branch_id" binding:"required"`
	ToBranchID   string         `json:"to_branch_id" binding:"required"`
	SenderID     string         `json:"sender_id" binding:"required"`
	ReceiverID   string         `json:"receiver_id" binding:"required"`
	PaymentType  string         `json:"payment_type" binding:"required,oneof=PAID TO_PAY QUOTATION"`
	BookingDate  string         `json:"booking_date"` // YYYY-MM-DD, defaults to today
	PODRequired  *bool          `json:"pod_required"`
	Articles     []ArticleInput `json:"articles" binding:"required,min=1,dive"`
	// ManualFreight is the fallback charge when no rate contract matches.
	ManualFreight string `json:"manual_freight"`
}

type TransitionRequest struct {
	Status      string `json:"status" binding:"required"`
	PODRequired *bool  `json:"pod_required"`
	Description string `json:"description"`
}

type RecordPODRequest struct {
	ReceiverName string `json:"receiver_name" binding:"required"`
	PhotoURL     string `json:"photo_url"`
	Remarks      string `json:"remarks"`
}

// TransitionResult reports the booking after a transition attempt. Changed is
// false for the idempotent same-status no-op.
type TransitionResult struct {
	Booking *model.Booking `json:"booking"`
	Changed bool           `json:"changed"`
}

// CreateBookingResult carries the committed booking plus any credit warning
// the caller must surface.
type CreateBookingResult struct {
	Booking       *model.Booking `json:"booking"`
	CreditWarning string         `json:"credit_warning,omitempty"`
}

// --- Interface ---

type BookingService interface {
	Create(ctx context.Context, rc model.RequestContext, req CreateBookingRequest) (CreateBookingResult, error)
	Transition(ctx context.Context, rc model.RequestContext, bookingID string, req TransitionRequest) (TransitionResult, error)
	// ApplyTransition runs one state-machine step against whatever
	// transaction is carried in ctx. The manifest orchestrator composes its
	// bulk operations from this.
	ApplyTransition(ctx context.Context, rc model.RequestContext, bookingID uuid.UUID, target, description string, podOverride *bool) (*model.Booking, bool, error)
	Get(ctx context.Context, rc model.RequestContext, bookingID string) (*model.Booking, error)
	List(ctx context.Context, rc model.RequestContext, filter repository.BookingListFilter) ([]model.Booking, int64, error)
	History(ctx context.Context, rc model.RequestContext, bookingID string) ([]model.BookingStatusEvent, error)
	RecordPOD(ctx context.Context, rc model.RequestContext, bookingID string, req RecordPODRequest) (*model.ProofOfDelivery, error)
}

type bookingService struct {
	bookingRepo  repository.BookingRepository
	customerRepo repository.CustomerRepository
	branchRepo   repository.BranchRepository
	auditRepo    repository.AuditRepository
	rates        RateService
	credit       CreditService
	txManager    repository.TransactionManager
	hub          *websocket.Hub
	log          zerolog.Logger
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	customerRepo repository.CustomerRepository,
	branchRepo repository.BranchRepository,
	auditRepo repository.AuditRepository,
	rates RateService,
	credit CreditService,
	txManager repository.TransactionManager,
	hub *websocket.Hub,
	log zerolog.Logger,
) BookingService {
	return &bookingService{
		bookingRepo:  bookingRepo,
		customerRepo: customerRepo,
		branchRepo:   branchRepo,
		auditRepo:    auditRepo,
		rates:        rates,
		credit:       credit,
		txManager:    txManager,
		hub:          hub,
		log:          log,
	}
}

// --- Implementation ---

func (s *bookingService) Create(ctx context.Context, rc model.RequestContext, req CreateBookingRequest) (CreateBookingResult, error) {
	fromBranch, err := uuid.Parse(req.FromBranchID)
	if err != nil {
		return CreateBookingResult{}, fmt.Errorf("invalid from_branch_id: %w", err)
	}
	toBranch, err := uuid.Parse(req.ToBranchID)
	if err != nil {
		return CreateBookingResult{}, fmt.Errorf("invalid to_branch_id: %w", err)
	}
	senderID, err := uuid.Parse(req.SenderID)
	if err != nil {
		return CreateBookingResult{}, fmt.Errorf("invalid sender_id: %w", err)
	}
	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		return CreateBookingResult{}, fmt.Errorf("invalid receiver_id: %w", err)
	}

	bookingDate := time.Now()
	if req.BookingDate != "" {
		bookingDate, err = time.Parse("2006-01-02", req.BookingDate)
		if err != nil {
			return CreateBookingResult{}, fmt.Errorf("invalid booking_date (expected YYYY-MM-DD): %w", err)
		}
	}

	articles := make([]model.BookingArticle, 0, len(req.Articles))
	totalWeight := decimal.Zero
	totalQuantity := 0
	var firstArticleID *uuid.UUID
	for i, a := range req.Articles {
		weight, parseErr := decimal.NewFromString(a.WeightKg)
		if parseErr != nil {
			return CreateBookingResult{}, fmt.Errorf("invalid weight_kg on article %d: %w", i+1, parseErr)
		}
		article := model.BookingArticle{
			Description: a.Description,
			Quantity:    a.Quantity,
			WeightKg:    weight,
		}
		if a.ArticleID != "" {
			parsed, parseErr := uuid.Parse(a.ArticleID)
			if parseErr != nil {
				return CreateBookingResult{}, fmt.Errorf("invalid article_id on article %d: %w", i+1, parseErr)
			}
			article.ArticleID = &parsed
			if firstArticleID == nil {
				firstArticleID = &parsed
			}
		}
		totalWeight = totalWeight.Add(weight)
		totalQuantity += a.Quantity
		articles = append(articles, article)
	}

	// Route branches must belong to the caller's organization.
	for _, branchID := range []uuid.UUID{fromBranch, toBranch} {
		if _, findErr := s.branchRepo.FindByID(ctx, rc.OrganizationID, branchID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return CreateBookingResult{}, &NotFoundError{Entity: "branch", ID: branchID.String()}
			}
			return CreateBookingResult{}, fmt.Errorf("failed to load branch: %w", findErr)
		}
	}

	// Resolve the charge from the sender's rate contract; fall back to the
	// caller-supplied manual freight when no contract covers the booking.
	breakdown, err := s.rates.ResolvePrice(ctx, rc, PriceInput{
		CustomerID:   senderID,
		FromBranchID: fromBranch,
		ToBranchID:   toBranch,
		ArticleID:    firstArticleID,
		Weight:       totalWeight,
		Quantity:     totalQuantity,
		BookingDate:  bookingDate,
	})
	if err != nil {
		if !errors.Is(err, ErrNoRateContract) {
			return CreateBookingResult{}, err
		}
		if req.ManualFreight == "" {
			return CreateBookingResult{}, &PolicyError{Reason: "no rate contract covers this booking, manual_freight is required"}
		}
		manual, parseErr := decimal.NewFromString(req.ManualFreight)
		if parseErr != nil {
			return CreateBookingResult{}, fmt.Errorf("invalid manual_freight: %w", parseErr)
		}
		if manual.Sign() <= 0 {
			return CreateBookingResult{}, &PolicyError{Reason: "manual_freight must be positive"}
		}
		breakdown = PriceBreakdown{BaseAmount: manual, TotalAmount: manual}
	}

	// Quotations carry no credit exposure; everything else passes the gate
	// before any row is written.
	var warning string
	if req.PaymentType != model.PaymentQuotation {
		decision, gateErr := s.credit.Check(ctx, rc, senderID, breakdown.TotalAmount)
		if gateErr != nil {
			return CreateBookingResult{}, gateErr
		}
		if !decision.Allowed {
			return CreateBookingResult{}, &PolicyError{Reason: decision.Reason, Shortfall: decision.Shortfall}
		}
		warning = decision.Warning
	}

	podRequired := true
	if req.PODRequired != nil {
		podRequired = *req.PODRequired
	}

	booking := &model.Booking{
		OrganizationID: rc.OrganizationID,
		BranchID:       rc.BranchID,
		FromBranchID:   fromBranch,
		ToBranchID:     toBranch,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		PaymentType:    req.PaymentType,
		Status:         model.BookingBooked,
		BaseAmount:     breakdown.BaseAmount,
		SurchargeTotal: breakdown.SurchargeSum(),
		DiscountTotal:  breakdown.DiscountSum(),
		TotalAmount:    breakdown.TotalAmount,
		PODRequired:    podRequired,
		BookingDate:    bookingDate,
		Articles:       articles,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		lrNumber, numErr := s.generateLRNumber(txCtx, rc.OrganizationID)
		if numErr != nil {
			return fmt.Errorf("failed to generate LR number: %w", numErr)
		}
		booking.LRNumber = lrNumber

		if createErr := s.bookingRepo.Create(txCtx, booking); createErr != nil {
			return fmt.Errorf("failed to create booking: %w", createErr)
		}

		if podRequired {
			pod := &model.ProofOfDelivery{BookingID: booking.ID, Status: model.PODPending}
			if podErr := s.bookingRepo.SavePOD(txCtx, pod); podErr != nil {
				return fmt.Errorf("failed to create pod record: %w", podErr)
			}
		}

		// Booking creation increases the sender's credit exposure. The gate
		// above read an unlocked row, so the verdict is re-checked against
		// the locked one before the balance moves: two concurrent creations
		// could otherwise both pass and overshoot the limit together.
		if req.PaymentType != model.PaymentQuotation {
			sender, lockErr := s.customerRepo.FindByIDForUpdate(txCtx, rc.OrganizationID, senderID)
			if lockErr != nil {
				return fmt.Errorf("sender not found: %w", lockErr)
			}
			decision := EvaluateCredit(sender, breakdown.TotalAmount)
			if !decision.Allowed {
				return &PolicyError{Reason: decision.Reason, Shortfall: decision.Shortfall}
			}
			warning = decision.Warning
			newBalance := sender.OutstandingBalance.Add(breakdown.TotalAmount)
			if balErr := s.customerRepo.UpdateOutstanding(txCtx, senderID, newBalance); balErr != nil {
				return fmt.Errorf("failed to update outstanding balance: %w", balErr)
			}
		}

		s.writeAudit(txCtx, rc, model.ActionCreateBooking, booking.ID.String(), booking.LRNumber, map[string]interface{}{
			"lr_number":    booking.LRNumber,
			"total_amount": booking.TotalAmount.StringFixed(2),
			"payment_type": booking.PaymentType,
		})
		return nil
	})
	if err != nil {
		return CreateBookingResult{}, err
	}

	s.broadcast(websocket.EventBookingStatusChanged, booking.ID, "", model.BookingBooked)

	return CreateBookingResult{Booking: booking, CreditWarning: warning}, nil
}

func (s *bookingService) Transition(ctx context.Context, rc model.RequestContext, bookingID string, req TransitionRequest) (TransitionResult, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("invalid booking id: %w", err)
	}
	if !model.IsBookingStatus(req.Status) {
		return TransitionResult{}, fmt.Errorf("unknown status %q", req.Status)
	}

	var booking *model.Booking
	var changed bool
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		booking, changed, txErr = s.ApplyTransition(txCtx, rc, id, req.Status, req.Description, req.PODRequired)
		return txErr
	})
	if err != nil {
		return TransitionResult{}, err
	}

	if changed {
		s.broadcast(websocket.EventBookingStatusChanged, booking.ID, "", booking.Status)
	}
	return TransitionResult{Booking: booking, Changed: changed}, nil
}

// ApplyTransition is the single place booking status ever changes. It runs
// against the transaction in ctx: validates the edge, enforces the POD guard
// for DELIVERED, flips the row with an expected-status conditional update,
// and writes exactly one status event.
func (s *bookingService) ApplyTransition(ctx context.Context, rc model.RequestContext, bookingID uuid.UUID, target, description string, podOverride *bool) (*model.Booking, bool, error) {
	booking, err := s.bookingRepo.FindByIDForUpdate(ctx, rc.OrganizationID, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, &NotFoundError{Entity: "booking", ID: bookingID.String()}
		}
		return nil, false, fmt.Errorf("failed to load booking: %w", err)
	}

	current := booking.Status
	if target == current {
		// Idempotent no-op: no status event is emitted.
		return booking, false, nil
	}

	if !model.CanTransition(current, target) {
		return nil, false, &InvalidTransitionError{
			Entity:    "booking",
			Current:   current,
			Requested: target,
			Allowed:   model.AllowedTransitions(current),
		}
	}

	if target == model.BookingDelivered {
		if err := s.checkPODGuard(ctx, booking, podOverride); err != nil {
			return nil, false, err
		}
	}

	rows, err := s.bookingRepo.UpdateStatusIf(ctx, bookingID, current, target)
	if err != nil {
		return nil, false, fmt.Errorf("failed to update booking status: %w", err)
	}
	if rows == 0 {
		return nil, false, ErrConcurrentModification
	}

	event := &model.BookingStatusEvent{
		BookingID:   bookingID,
		FromStatus:  current,
		ToStatus:    target,
		ActorID:     rc.Actor(),
		Description: description,
	}
	if err := s.bookingRepo.CreateStatusEvent(ctx, event); err != nil {
		return nil, false, fmt.Errorf("failed to write status event: %w", err)
	}

	// Cancelling a booking that never left the branch releases the credit
	// exposure taken at creation.
	if target == model.BookingCancelled && current == model.BookingBooked &&
		booking.PaymentType != model.PaymentQuotation {
		if err := s.releaseExposure(ctx, rc, booking); err != nil {
			return nil, false, err
		}
	}

	booking.Status = target
	return booking, true, nil
}

func (s *bookingService) checkPODGuard(ctx context.Context, booking *model.Booking, podOverride *bool) error {
	required := booking.PODRequired
	if podOverride != nil {
		required = *podOverride
	}
	if !required {
		return nil
	}

	pod, err := s.bookingRepo.FindPOD(ctx, booking.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &PolicyError{Reason: "proof of delivery is required before marking delivered"}
		}
		return fmt.Errorf("failed to load pod record: %w", err)
	}
	if pod.Status != model.PODCompleted {
		return &PolicyError{Reason: "proof of delivery is not completed yet"}
	}
	return nil
}

func (s *bookingService) releaseExposure(ctx context.Context, rc model.RequestContext, booking *model.Booking) error {
	sender, err := s.customerRepo.FindByIDForUpdate(ctx, rc.OrganizationID, booking.SenderID)
	if err != nil {
		return fmt.Errorf("sender not found: %w", err)
	}
	newBalance := sender.OutstandingBalance.Sub(booking.TotalAmount)
	if newBalance.Sign() < 0 {
		newBalance = decimal.Zero
	}
	if err := s.customerRepo.UpdateOutstanding(ctx, booking.SenderID, newBalance); err != nil {
		return fmt.Errorf("failed to release credit exposure: %w", err)
	}
	return nil
}

func (s *bookingService) Get(ctx context.Context, rc model.RequestContext, bookingID string) (*model.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking id: %w", err)
	}
	booking, err := s.bookingRepo.FindByID(ctx, rc.OrganizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "booking", ID: bookingID}
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, rc model.RequestContext, filter repository.BookingListFilter) ([]model.Booking, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	bookings, total, err := s.bookingRepo.List(ctx, rc.OrganizationID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch bookings: %w", err)
	}
	return bookings, total, nil
}

func (s *bookingService) History(ctx context.Context, rc model.RequestContext, bookingID string) ([]model.BookingStatusEvent, error) {
	booking, err := s.Get(ctx, rc, bookingID)
	if err != nil {
		return nil, err
	}
	events, err := s.bookingRepo.ListStatusEvents(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status events: %w", err)
	}
	return events, nil
}

func (s *bookingService) RecordPOD(ctx context.Context, rc model.RequestContext, bookingID string, req RecordPODRequest) (*model.ProofOfDelivery, error) {
	booking, err := s.Get(ctx, rc, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == model.BookingCancelled {
		return nil, &PolicyError{Reason: "cannot record pod on a cancelled booking"}
	}

	var pod *model.ProofOfDelivery
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, findErr := s.bookingRepo.FindPOD(txCtx, booking.ID)
		if findErr != nil {
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to load pod record: %w", findErr)
			}
			existing = &model.ProofOfDelivery{BookingID: booking.ID}
		}

		now := time.Now()
		existing.Status = model.PODCompleted
		existing.ReceiverName = req.ReceiverName
		existing.PhotoURL = req.PhotoURL
		existing.Remarks = req.Remarks
		existing.SignedAt = &now

		if saveErr := s.bookingRepo.SavePOD(txCtx, existing); saveErr != nil {
			return fmt.Errorf("failed to save pod record: %w", saveErr)
		}
		pod = existing

		s.writeAudit(txCtx, rc, model.ActionRecordPOD, booking.ID.String(), booking.LRNumber, map[string]interface{}{
			"receiver_name": req.ReceiverName,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pod, nil
}

func (s *bookingService) generateLRNumber(ctx context.Context, orgID uuid.UUID) (string, error) {
	prefix := "LR-" + time.Now().Format("20060102") + "-"
	count, err := s.bookingRepo.CountByPrefix(ctx, orgID, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

// Best-effort audit log. A write failure never fails the surrounding
// operation.
func (s *bookingService) writeAudit(ctx context.Context, rc model.RequestContext, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)
	entry := &model.AuditLog{
		OrganizationID: rc.OrganizationID,
		UserID:         rc.Actor(),
		Action:         action,
		EntityID:       entityID,
		EntityName:     entityName,
		Details:        string(detailsJSON),
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("action", action).Msg("audit log write failed")
	}
}

func (s *bookingService) broadcast(eventType string, bookingID uuid.UUID, manifestID, status string) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(websocket.Event{
		Type:       eventType,
		BookingID:  bookingID.String(),
		ManifestID: manifestID,
		Status:     status,
		At:         time.Now(),
	})
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- payload:
	default:
	}
}
