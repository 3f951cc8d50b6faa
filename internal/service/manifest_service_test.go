package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"freightflow/internal/model"
	"freightflow/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type stubManifestRepo struct {
	repository.ManifestRepository
	store    *bookingStore
	manifest *model.Manifest
}

func (r *stubManifestRepo) FindByID(_ context.Context, _, _ uuid.UUID) (*model.Manifest, error) {
	return r.manifest, nil
}

func (r *stubManifestRepo) CreateLoadingRecords(_ context.Context, records []model.LoadingRecord) error {
	r.store.records = append(r.store.records, records...)
	return nil
}

// A failure partway through a load must leave nothing behind: no loading
// record for any booking in the batch and every booking at its prior status.
func TestLoadBookingsRollsBackWholeBatch(t *testing.T) {
	store := newBookingStore()
	first, second, third := uuid.New(), uuid.New(), uuid.New()
	store.bookings[first] = &model.Booking{ID: first, Status: model.BookingBooked}
	store.bookings[second] = &model.Booking{ID: second, Status: model.BookingCancelled}
	store.bookings[third] = &model.Booking{ID: third, Status: model.BookingBooked}

	bookingRepo := &stubBookingRepo{store: store}
	manifest := &model.Manifest{ID: uuid.New(), ManifestNo: "MF-20260815-00001", Status: model.ManifestCreated}
	s := &manifestService{
		manifestRepo: &stubManifestRepo{store: store, manifest: manifest},
		bookingRepo:  bookingRepo,
		auditRepo:    &stubAuditRepo{},
		bookings:     &bookingService{bookingRepo: bookingRepo},
		txManager:    &fakeTxManager{store: store},
		log:          zerolog.Nop(),
	}

	req := ManifestBookingsRequest{BookingIDs: []string{first.String(), second.String(), third.String()}}
	_, err := s.LoadBookings(context.Background(), model.RequestContext{}, manifest.ID.String(), req)

	var partial *PartialFailureError
	if !errors.As(err, &partial) {
		t.Fatalf("expected a partial failure, got %T: %v", err, err)
	}
	if partial.Processed != 1 {
		t.Errorf("processed count: got %d, want 1", partial.Processed)
	}
	if partial.FailedID != second.String() {
		t.Errorf("failed id: got %s, want the cancelled booking", partial.FailedID)
	}
	if len(store.records) != 0 {
		t.Errorf("loading records must be rolled back, found %d", len(store.records))
	}
	if store.bookings[first].Status != model.BookingBooked {
		t.Errorf("first booking must revert to BOOKED, got %s", store.bookings[first].Status)
	}
	if store.bookings[third].Status != model.BookingBooked {
		t.Errorf("third booking must stay BOOKED, got %s", store.bookings[third].Status)
	}
	if len(store.events) != 0 {
		t.Errorf("status events must be rolled back, found %d", len(store.events))
	}
}

func TestParseBookingIDs(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	ids, err := parseBookingIDs([]string{a.String(), b.String(), a.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("duplicates must be collapsed, got %d ids", len(ids))
	}
	if ids[0] != a || ids[1] != b {
		t.Fatal("caller order must be preserved")
	}

	if _, err := parseBookingIDs([]string{a.String(), "not-a-uuid"}); err == nil {
		t.Fatal("malformed id must be rejected")
	}
}

func TestPartialFailureErrorMessage(t *testing.T) {
	inner := &PolicyError{Reason: "proof of delivery is not completed yet"}
	err := &PartialFailureError{
		Op:           "unload manifest",
		Processed:    3,
		FailedID:     "abc",
		Compensation: "bookings unloaded before the failure were kept",
		Err:          inner,
	}

	msg := err.Error()
	for _, want := range []string{"unload manifest", "abc", "3", "kept"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q should contain %q", msg, want)
		}
	}

	var policy *PolicyError
	if !errors.As(err, &policy) {
		t.Fatal("partial failure must unwrap to the underlying cause")
	}
}

func TestInvalidTransitionErrorMessage(t *testing.T) {
	err := &InvalidTransitionError{
		Entity:    "booking",
		Current:   "BOOKED",
		Requested: "DELIVERED",
		Allowed:   []string{"IN_TRANSIT", "CANCELLED"},
	}
	msg := err.Error()
	if !strings.Contains(msg, "IN_TRANSIT") || !strings.Contains(msg, "CANCELLED") {
		t.Errorf("message should list the legal alternatives, got %q", msg)
	}

	terminal := &InvalidTransitionError{Entity: "booking", Current: "CANCELLED", Requested: "BOOKED"}
	if !strings.Contains(terminal.Error(), "terminal") {
		t.Errorf("terminal message should say so, got %q", terminal.Error())
	}
}
