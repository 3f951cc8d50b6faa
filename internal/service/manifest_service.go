package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"freightflow/internal/model"
	"freightflow/internal/repository"
	"freightflow/internal/websocket"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateManifestRequest struct {
	VehicleNumber string `json:"vehicle_number" binding:"required"`
	DriverName    string `json:"driver_name" binding:"required"`
	DriverPhone   string `json:"driver_phone"`
	FromBranchID  string `json:"from_branch_id" binding:"required"`
	ToBranchID    string `json:"to_branch_id" binding:"required"`
}

type ManifestBookingsRequest struct {
	BookingIDs []string `json:"booking_ids" binding:"required,min=1"`
}

type ManifestStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=IN_TRANSIT COMPLETED CANCELLED"`
}

// UnloadingCondition is the caller-supplied per-booking arrival condition.
type UnloadingCondition struct {
	Status  string `json:"status" binding:"omitempty,oneof=GOOD DAMAGED MISSING"`
	Remarks string `json:"remarks"`
	Photo   string `json:"photo"`
}

type UnloadManifestRequest struct {
	UnloadingConditions map[string]UnloadingCondition `json:"unloading_conditions"`
}

type UnloadBookingsRequest struct {
	BookingIDs          []string                      `json:"booking_ids" binding:"required,min=1"`
	UnloadingConditions map[string]UnloadingCondition `json:"unloading_conditions"`
}

type UnloadResult struct {
	ManifestID     string `json:"manifest_id"`
	ManifestStatus string `json:"manifest_status"`
	Unloaded       int    `json:"unloaded"`
}

// --- Interface ---

type ManifestService interface {
	Create(ctx context.Context, rc model.RequestContext, req CreateManifestRequest) (*model.Manifest, error)
	Get(ctx context.Context, rc model.RequestContext, manifestID string) (*model.Manifest, error)
	List(ctx context.Context, rc model.RequestContext, filter repository.ManifestListFilter) ([]model.Manifest, int64, error)
	UpdateStatus(ctx context.Context, rc model.RequestContext, manifestID string, req ManifestStatusRequest) (*model.Manifest, error)
	LoadBookings(ctx context.Context, rc model.RequestContext, manifestID string, req ManifestBookingsRequest) ([]model.LoadingRecord, error)
	RemoveBookings(ctx context.Context, rc model.RequestContext, manifestID string, req ManifestBookingsRequest) error
	Unload(ctx context.Context, rc model.RequestContext, manifestID string, req UnloadManifestRequest) (UnloadResult, error)
	UnloadBookings(ctx context.Context, rc model.RequestContext, manifestID string, req UnloadBookingsRequest) (UnloadResult, error)
}

type manifestService struct {
	manifestRepo repository.ManifestRepository
	bookingRepo  repository.BookingRepository
	auditRepo    repository.AuditRepository
	bookings     BookingService
	txManager    repository.TransactionManager
	hub          *websocket.Hub
	log          zerolog.Logger

	// locks serializes bulk operations per manifest in-process; booking rows
	// are additionally guarded by expected-status conditional updates.
	locks sync.Map // manifest uuid -> *sync.Mutex
}

func NewManifestService(
	manifestRepo repository.ManifestRepository,
	bookingRepo repository.BookingRepository,
	auditRepo repository.AuditRepository,
	bookings BookingService,
	txManager repository.TransactionManager,
	hub *websocket.Hub,
	log zerolog.Logger,
) ManifestService {
	return &manifestService{
		manifestRepo: manifestRepo,
		bookingRepo:  bookingRepo,
		auditRepo:    auditRepo,
		bookings:     bookings,
		txManager:    txManager,
		hub:          hub,
		log:          log,
	}
}

func (s *manifestService) lockManifest(id uuid.UUID) func() {
	value, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// --- Implementation ---

func (s *manifestService) Create(ctx context.Context, rc model.RequestContext, req CreateManifestRequest) (*model.Manifest, error) {
	fromBranch, err := uuid.Parse(req.FromBranchID)
	if err != nil {
		return nil, fmt.Errorf("invalid from_branch_id: %w", err)
	}
	toBranch, err := uuid.Parse(req.ToBranchID)
	if err != nil {
		return nil, fmt.Errorf("invalid to_branch_id: %w", err)
	}

	manifest := &model.Manifest{
		OrganizationID: rc.OrganizationID,
		VehicleNumber:  req.VehicleNumber,
		DriverName:     req.DriverName,
		DriverPhone:    req.DriverPhone,
		FromBranchID:   fromBranch,
		ToBranchID:     toBranch,
		Status:         model.ManifestCreated,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		prefix := "MF-" + time.Now().Format("20060102") + "-"
		count, numErr := s.manifestRepo.CountByPrefix(txCtx, rc.OrganizationID, prefix)
		if numErr != nil {
			return fmt.Errorf("failed to generate manifest number: %w", numErr)
		}
		manifest.ManifestNo = fmt.Sprintf("%s%05d", prefix, count+1)
		if createErr := s.manifestRepo.Create(txCtx, manifest); createErr != nil {
			return fmt.Errorf("failed to create manifest: %w", createErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

func (s *manifestService) Get(ctx context.Context, rc model.RequestContext, manifestID string) (*model.Manifest, error) {
	id, err := uuid.Parse(manifestID)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest id: %w", err)
	}
	manifest, err := s.manifestRepo.FindByIDWithRecords(ctx, rc.OrganizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "manifest", ID: manifestID}
		}
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	return manifest, nil
}

func (s *manifestService) List(ctx context.Context, rc model.RequestContext, filter repository.ManifestListFilter) ([]model.Manifest, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	manifests, total, err := s.manifestRepo.List(ctx, rc.OrganizationID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch manifests: %w", err)
	}
	return manifests, total, nil
}

func (s *manifestService) UpdateStatus(ctx context.Context, rc model.RequestContext, manifestID string, req ManifestStatusRequest) (*model.Manifest, error) {
	id, err := uuid.Parse(manifestID)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest id: %w", err)
	}

	unlock := s.lockManifest(id)
	defer unlock()

	manifest, err := s.manifestRepo.FindByID(ctx, rc.OrganizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "manifest", ID: manifestID}
		}
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	if req.Status == manifest.Status {
		return manifest, nil
	}
	if !model.CanTransitionManifest(manifest.Status, req.Status) {
		return nil, &InvalidTransitionError{
			Entity:    "manifest",
			Current:   manifest.Status,
			Requested: req.Status,
		}
	}

	rows, err := s.manifestRepo.UpdateStatusIf(ctx, id, manifest.Status, req.Status, manifest.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update manifest status: %w", err)
	}
	if rows == 0 {
		return nil, ErrConcurrentModification
	}

	manifest.Status = req.Status
	manifest.Version++
	s.broadcastManifest(id, req.Status)
	return manifest, nil
}

// LoadBookings moves a set of bookings onto the manifest as one logical unit:
// loading records plus every booking's BOOKED -> IN_TRANSIT flip commit or
// roll back together. Bookings are processed in caller order.
func (s *manifestService) LoadBookings(ctx context.Context, rc model.RequestContext, manifestID string, req ManifestBookingsRequest) ([]model.LoadingRecord, error) {
	id, err := uuid.Parse(manifestID)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest id: %w", err)
	}
	bookingIDs, err := parseBookingIDs(req.BookingIDs)
	if err != nil {
		return nil, err
	}

	unlock := s.lockManifest(id)
	defer unlock()

	var records []model.LoadingRecord
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		manifest, findErr := s.manifestRepo.FindByID(txCtx, rc.OrganizationID, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "manifest", ID: manifestID}
			}
			return fmt.Errorf("failed to load manifest: %w", findErr)
		}
		if !model.ManifestLoadable(manifest.Status) {
			return &PolicyError{Reason: fmt.Sprintf("manifest is %s, bookings can no longer be added", manifest.Status)}
		}

		now := time.Now()
		records = make([]model.LoadingRecord, 0, len(bookingIDs))
		for _, bookingID := range bookingIDs {
			records = append(records, model.LoadingRecord{
				ManifestID: id,
				BookingID:  bookingID,
				LoadedBy:   rc.Actor(),
				LoadedAt:   now,
			})
		}
		if insErr := s.manifestRepo.CreateLoadingRecords(txCtx, records); insErr != nil {
			return fmt.Errorf("failed to insert loading records: %w", insErr)
		}

		for i, bookingID := range bookingIDs {
			desc := fmt.Sprintf("loaded on manifest %s", manifest.ManifestNo)
			if _, _, trErr := s.bookings.ApplyTransition(txCtx, rc, bookingID, model.BookingInTransit, desc, nil); trErr != nil {
				// Rolling back the transaction removes every loading record
				// and status flip from this call.
				return &PartialFailureError{
					Op:           "load bookings",
					Processed:    i,
					FailedID:     bookingID.String(),
					Compensation: "loading records and status changes rolled back",
					Err:          trErr,
				}
			}
		}

		s.writeAudit(txCtx, rc, model.ActionLoadManifest, manifest.ID.String(), manifest.ManifestNo, map[string]interface{}{
			"booking_ids": req.BookingIDs,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, bookingID := range bookingIDs {
		s.broadcastBooking(bookingID, id, model.BookingInTransit)
	}
	return records, nil
}

// RemoveBookings is the mirror of LoadBookings: loading records are deleted
// and each booking reverts IN_TRANSIT -> BOOKED in the same transaction.
func (s *manifestService) RemoveBookings(ctx context.Context, rc model.RequestContext, manifestID string, req ManifestBookingsRequest) error {
	id, err := uuid.Parse(manifestID)
	if err != nil {
		return fmt.Errorf("invalid manifest id: %w", err)
	}
	bookingIDs, err := parseBookingIDs(req.BookingIDs)
	if err != nil {
		return err
	}

	unlock := s.lockManifest(id)
	defer unlock()

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		manifest, findErr := s.manifestRepo.FindByID(txCtx, rc.OrganizationID, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "manifest", ID: manifestID}
			}
			return fmt.Errorf("failed to load manifest: %w", findErr)
		}
		if !model.ManifestLoadable(manifest.Status) {
			return &PolicyError{Reason: fmt.Sprintf("manifest is %s, bookings can no longer be removed", manifest.Status)}
		}

		if delErr := s.manifestRepo.DeleteLoadingRecords(txCtx, id, bookingIDs); delErr != nil {
			return fmt.Errorf("failed to delete loading records: %w", delErr)
		}

		for _, bookingID := range bookingIDs {
			rows, revErr := s.bookingRepo.UpdateStatusIf(txCtx, bookingID, model.BookingInTransit, model.BookingBooked)
			if revErr != nil {
				return fmt.Errorf("failed to revert booking %s: %w", bookingID, revErr)
			}
			if rows == 0 {
				return &PolicyError{Reason: fmt.Sprintf("booking %s is not in transit on this manifest", bookingID)}
			}
			event := &model.BookingStatusEvent{
				BookingID:   bookingID,
				FromStatus:  model.BookingInTransit,
				ToStatus:    model.BookingBooked,
				ActorID:     rc.Actor(),
				Description: fmt.Sprintf("removed from manifest %s", manifest.ManifestNo),
			}
			if evErr := s.bookingRepo.CreateStatusEvent(txCtx, event); evErr != nil {
				return fmt.Errorf("failed to write status event: %w", evErr)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, bookingID := range bookingIDs {
		s.broadcastBooking(bookingID, id, model.BookingBooked)
	}
	return nil
}

// Unload processes every booking on the manifest and completes it.
func (s *manifestService) Unload(ctx context.Context, rc model.RequestContext, manifestID string, req UnloadManifestRequest) (UnloadResult, error) {
	return s.unload(ctx, rc, manifestID, nil, req.UnloadingConditions, true)
}

// UnloadBookings processes an explicit subset and leaves the manifest
// IN_TRANSIT.
func (s *manifestService) UnloadBookings(ctx context.Context, rc model.RequestContext, manifestID string, req UnloadBookingsRequest) (UnloadResult, error) {
	subset, err := parseBookingIDs(req.BookingIDs)
	if err != nil {
		return UnloadResult{}, err
	}
	return s.unload(ctx, rc, manifestID, subset, req.UnloadingConditions, false)
}

// unload applies the per-booking arrival condition and the
// IN_TRANSIT -> UNLOADED transition booking by booking, each in its own
// transaction. A failure aborts further processing; bookings already
// unloaded in the same call stay unloaded, and the error reports exactly how
// far the call got.
func (s *manifestService) unload(ctx context.Context, rc model.RequestContext, manifestID string, subset []uuid.UUID, conditions map[string]UnloadingCondition, full bool) (UnloadResult, error) {
	id, err := uuid.Parse(manifestID)
	if err != nil {
		return UnloadResult{}, fmt.Errorf("invalid manifest id: %w", err)
	}

	unlock := s.lockManifest(id)
	defer unlock()

	manifest, err := s.manifestRepo.FindByID(ctx, rc.OrganizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UnloadResult{}, &NotFoundError{Entity: "manifest", ID: manifestID}
		}
		return UnloadResult{}, fmt.Errorf("failed to load manifest: %w", err)
	}
	if manifest.Status != model.ManifestInTransit {
		return UnloadResult{}, &PolicyError{Reason: fmt.Sprintf("manifest is %s, only in-transit manifests can be unloaded", manifest.Status)}
	}

	records, err := s.manifestRepo.ListLoadingRecords(ctx, id)
	if err != nil {
		return UnloadResult{}, fmt.Errorf("failed to load loading records: %w", err)
	}

	targets := records
	if subset != nil {
		wanted := make(map[uuid.UUID]bool, len(subset))
		for _, bid := range subset {
			wanted[bid] = true
		}
		targets = targets[:0:0]
		for _, record := range records {
			if wanted[record.BookingID] {
				targets = append(targets, record)
			}
		}
		if len(targets) != len(subset) {
			return UnloadResult{}, &PolicyError{Reason: "one or more bookings are not loaded on this manifest"}
		}
	}

	unloaded := 0
	for _, record := range targets {
		condition := conditions[record.BookingID.String()]
		if condition.Status == "" {
			condition.Status = model.ConditionGood
		}
		if !model.IsUnloadingCondition(condition.Status) {
			return UnloadResult{}, &PolicyError{Reason: fmt.Sprintf("unknown unloading condition %q for booking %s", condition.Status, record.BookingID)}
		}
		desc := fmt.Sprintf("unloaded from manifest %s, condition %s", manifest.ManifestNo, condition.Status)
		if condition.Remarks != "" {
			desc += ": " + condition.Remarks
		}

		txErr := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			_, _, trErr := s.bookings.ApplyTransition(txCtx, rc, record.BookingID, model.BookingUnloaded, desc, nil)
			return trErr
		})
		if txErr != nil {
			return UnloadResult{}, &PartialFailureError{
				Op:           "unload manifest",
				Processed:    unloaded,
				FailedID:     record.BookingID.String(),
				Compensation: "bookings unloaded before the failure were kept",
				Err:          txErr,
			}
		}
		unloaded++
		s.broadcastBooking(record.BookingID, id, model.BookingUnloaded)
	}

	status := manifest.Status
	if full {
		rows, casErr := s.manifestRepo.UpdateStatusIf(ctx, id, model.ManifestInTransit, model.ManifestCompleted, manifest.Version)
		if casErr != nil {
			return UnloadResult{}, fmt.Errorf("failed to complete manifest: %w", casErr)
		}
		if rows == 0 {
			return UnloadResult{}, ErrConcurrentModification
		}
		status = model.ManifestCompleted
		s.broadcastManifest(id, status)
	}

	s.writeAudit(ctx, rc, model.ActionUnloadManifest, manifest.ID.String(), manifest.ManifestNo, map[string]interface{}{
		"unloaded": unloaded,
		"full":     full,
	})

	return UnloadResult{ManifestID: manifestID, ManifestStatus: status, Unloaded: unloaded}, nil
}

// --- Helpers ---

func parseBookingIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	seen := make(map[uuid.UUID]bool, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("invalid booking id %q: %w", value, err)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *manifestService) writeAudit(ctx context.Context, rc model.RequestContext, action, entityID, entityName string, details interface{}) {
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

func (s *manifestService) broadcastBooking(bookingID, manifestID uuid.UUID, status string) {
	s.publish(websocket.Event{
		Type:       websocket.EventBookingStatusChanged,
		BookingID:  bookingID.String(),
		ManifestID: manifestID.String(),
		Status:     status,
		At:         time.Now(),
	})
}

func (s *manifestService) broadcastManifest(manifestID uuid.UUID, status string) {
	s.publish(websocket.Event{
		Type:       websocket.EventManifestStatusChanged,
		ManifestID: manifestID.String(),
		Status:     status,
		At:         time.Now(),
	})
}

func (s *manifestService) publish(event websocket.Event) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- payload:
	default:
	}
}
