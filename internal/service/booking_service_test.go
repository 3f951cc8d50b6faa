package service

import (
	"context"
	"errors"
	"testing"

	"freightflow/internal/model"
	"freightflow/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// fakePODRepo stubs only the POD lookup; every other method panics via the
// embedded nil interface, which is fine because the guard never calls them.
type fakePODRepo struct {
	repository.BookingRepository
	pod    *model.ProofOfDelivery
	podErr error
}

func (f *fakePODRepo) FindPOD(_ context.Context, _ uuid.UUID) (*model.ProofOfDelivery, error) {
	return f.pod, f.podErr
}

func boolPtr(v bool) *bool { return &v }

// bookingStore is the shared in-memory state behind the repo stubs below.
// The fake transaction manager snapshots it before the closure runs and
// restores it when the closure fails, mimicking a rollback.
type bookingStore struct {
	bookings map[uuid.UUID]*model.Booking
	events   []model.BookingStatusEvent
	records  []model.LoadingRecord
}

func newBookingStore() *bookingStore {
	return &bookingStore{bookings: make(map[uuid.UUID]*model.Booking)}
}

func (st *bookingStore) snapshot() *bookingStore {
	saved := newBookingStore()
	for id, b := range st.bookings {
		dup := *b
		saved.bookings[id] = &dup
	}
	saved.events = append([]model.BookingStatusEvent(nil), st.events...)
	saved.records = append([]model.LoadingRecord(nil), st.records...)
	return saved
}

func (st *bookingStore) restore(saved *bookingStore) {
	st.bookings = saved.bookings
	st.events = saved.events
	st.records = saved.records
}

type fakeTxManager struct {
	store *bookingStore
}

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	saved := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(saved)
		return err
	}
	return nil
}

type stubBookingRepo struct {
	repository.BookingRepository
	store         *bookingStore
	statusUpdates int
}

func (r *stubBookingRepo) Create(_ context.Context, booking *model.Booking) error {
	booking.ID = uuid.New()
	r.store.bookings[booking.ID] = booking
	return nil
}

func (r *stubBookingRepo) FindByIDForUpdate(_ context.Context, _, id uuid.UUID) (*model.Booking, error) {
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	dup := *b
	return &dup, nil
}

func (r *stubBookingRepo) UpdateStatusIf(_ context.Context, id uuid.UUID, expected, target string) (int64, error) {
	r.statusUpdates++
	b, ok := r.store.bookings[id]
	if !ok || b.Status != expected {
		return 0, nil
	}
	b.Status = target
	return 1, nil
}

func (r *stubBookingRepo) CreateStatusEvent(_ context.Context, event *model.BookingStatusEvent) error {
	r.store.events = append(r.store.events, *event)
	return nil
}

func (r *stubBookingRepo) CountByPrefix(_ context.Context, _ uuid.UUID, _ string) (int64, error) {
	return 0, nil
}

func (r *stubBookingRepo) SavePOD(_ context.Context, _ *model.ProofOfDelivery) error {
	return nil
}

type stubCustomerRepo struct {
	repository.CustomerRepository
	customer *model.Customer
	updates  int
}

func (r *stubCustomerRepo) FindByIDForUpdate(_ context.Context, _, _ uuid.UUID) (*model.Customer, error) {
	return r.customer, nil
}

func (r *stubCustomerRepo) UpdateOutstanding(_ context.Context, _ uuid.UUID, balance decimal.Decimal) error {
	r.updates++
	r.customer.OutstandingBalance = balance
	return nil
}

type stubBranchRepo struct{}

func (stubBranchRepo) FindByID(_ context.Context, _, _ uuid.UUID) (*model.Branch, error) {
	return &model.Branch{}, nil
}

type stubAuditRepo struct {
	repository.AuditRepository
	entries []model.AuditLog
}

func (r *stubAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

type stubRates struct {
	breakdown PriceBreakdown
}

func (s stubRates) ResolvePrice(_ context.Context, _ model.RequestContext, _ PriceInput) (PriceBreakdown, error) {
	return s.breakdown, nil
}

type stubCredit struct {
	decision CreditDecision
}

func (s stubCredit) Check(_ context.Context, _ model.RequestContext, _ uuid.UUID, _ decimal.Decimal) (CreditDecision, error) {
	return s.decision, nil
}

func (s stubCredit) RecordPayment(_ context.Context, _ model.RequestContext, _ string, _ RecordPaymentRequest) (*model.Payment, error) {
	return nil, nil
}

func newCreateRequest() CreateBookingRequest {
	return CreateBookingRequest{
		FromBranchID: uuid.New().String(),
		ToBranchID:   uuid.New().String(),
		SenderID:     uuid.New().String(),
		ReceiverID:   uuid.New().String(),
		PaymentType:  model.PaymentToPay,
		Articles:     []ArticleInput{{Description: "cartons", Quantity: 2, WeightKg: "10"}},
	}
}

func TestCheckPODGuard(t *testing.T) {
	booking := &model.Booking{ID: uuid.New(), PODRequired: true}

	tests := []struct {
		name     string
		booking  *model.Booking
		override *bool
		pod      *model.ProofOfDelivery
		podErr   error
		wantErr  bool
	}{
		{
			name:    "completed pod passes",
			booking: booking,
			pod:     &model.ProofOfDelivery{Status: model.PODCompleted},
		},
		{
			name:    "pending pod rejects",
			booking: booking,
			pod:     &model.ProofOfDelivery{Status: model.PODPending},
			wantErr: true,
		},
		{
			name:    "missing pod rejects",
			booking: booking,
			podErr:  gorm.ErrRecordNotFound,
			wantErr: true,
		},
		{
			name:     "override disables the requirement",
			booking:  booking,
			override: boolPtr(false),
			podErr:   gorm.ErrRecordNotFound,
		},
		{
			name:    "booking without requirement passes",
			booking: &model.Booking{ID: uuid.New(), PODRequired: false},
			podErr:  gorm.ErrRecordNotFound,
		},
		{
			name:     "override can re-enable the requirement",
			booking:  &model.Booking{ID: uuid.New(), PODRequired: false},
			override: boolPtr(true),
			pod:      &model.ProofOfDelivery{Status: model.PODPending},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &bookingService{bookingRepo: &fakePODRepo{pod: tt.pod, podErr: tt.podErr}}
			err := s.checkPODGuard(context.Background(), tt.booking, tt.override)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected a rejection")
				}
				var policy *PolicyError
				if !errors.As(err, &policy) {
					t.Fatalf("expected a policy rejection, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestApplyTransitionSameStatusEmitsNothing(t *testing.T) {
	store := newBookingStore()
	id := uuid.New()
	store.bookings[id] = &model.Booking{ID: id, Status: model.BookingInTransit}
	repo := &stubBookingRepo{store: store}
	s := &bookingService{bookingRepo: repo}

	booking, changed, err := s.ApplyTransition(context.Background(), model.RequestContext{}, id, model.BookingInTransit, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Error("same-status transition must report no change")
	}
	if booking.Status != model.BookingInTransit {
		t.Errorf("status must be untouched, got %s", booking.Status)
	}
	if len(store.events) != 0 {
		t.Errorf("no status event may be written, found %d", len(store.events))
	}
	if repo.statusUpdates != 0 {
		t.Errorf("no row update may run, ran %d", repo.statusUpdates)
	}
}

// The fast-path gate reads an unlocked row, so a concurrent booking can
// consume the headroom it saw. The verdict must be re-checked against the
// locked row inside the transaction before the balance moves.
func TestCreateRechecksCreditUnderLock(t *testing.T) {
	store := newBookingStore()
	customers := &stubCustomerRepo{customer: customer(model.CreditActive, "10000", "9500")}
	s := &bookingService{
		bookingRepo:  &stubBookingRepo{store: store},
		customerRepo: customers,
		branchRepo:   stubBranchRepo{},
		auditRepo:    &stubAuditRepo{},
		rates:        stubRates{breakdown: PriceBreakdown{BaseAmount: dec("900"), TotalAmount: dec("900")}},
		credit:       stubCredit{decision: CreditDecision{Allowed: true}},
		txManager:    &fakeTxManager{store: store},
		log:          zerolog.Nop(),
	}

	_, err := s.Create(context.Background(), model.RequestContext{}, newCreateRequest())
	if err == nil {
		t.Fatal("creation must fail when the locked balance no longer covers the charge")
	}
	var policy *PolicyError
	if !errors.As(err, &policy) {
		t.Fatalf("expected a policy rejection, got %T: %v", err, err)
	}
	if !policy.Shortfall.Equal(dec("400")) {
		t.Errorf("shortfall: got %s, want 400", policy.Shortfall)
	}
	if customers.updates != 0 {
		t.Error("balance must not move on a rejected charge")
	}
	if len(store.bookings) != 0 {
		t.Errorf("booking row must be rolled back, found %d", len(store.bookings))
	}
}

func TestCreateAddsExposureWhenLockedCheckPasses(t *testing.T) {
	store := newBookingStore()
	customers := &stubCustomerRepo{customer: customer(model.CreditActive, "10000", "8000")}
	s := &bookingService{
		bookingRepo:  &stubBookingRepo{store: store},
		customerRepo: customers,
		branchRepo:   stubBranchRepo{},
		auditRepo:    &stubAuditRepo{},
		rates:        stubRates{breakdown: PriceBreakdown{BaseAmount: dec("900"), TotalAmount: dec("900")}},
		credit:       stubCredit{decision: CreditDecision{Allowed: true}},
		txManager:    &fakeTxManager{store: store},
		log:          zerolog.Nop(),
	}

	result, err := s.Create(context.Background(), model.RequestContext{}, newCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !customers.customer.OutstandingBalance.Equal(dec("8900")) {
		t.Errorf("outstanding balance: got %s, want 8900", customers.customer.OutstandingBalance)
	}
	if result.CreditWarning == "" {
		t.Error("89 percent utilization must carry a warning")
	}
	if result.Booking.Status != model.BookingBooked {
		t.Errorf("new booking status: got %s, want %s", result.Booking.Status, model.BookingBooked)
	}
}
