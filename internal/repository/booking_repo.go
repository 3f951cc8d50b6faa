package repository

import (
	"context"
	"time"

	"freightflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingListFilter narrows booking list queries.
type BookingListFilter struct {
	Status     string
	CustomerID *uuid.UUID
	FromDate   *time.Time
	ToDate     *time.Time
	Page       int
	Limit      int
}

// InvoiceableFilter selects bookings eligible for invoicing.
type InvoiceableFilter struct {
	CustomerID    uuid.UUID
	FromDate      time.Time
	ToDate        time.Time
	DeliveredOnly bool
	PaymentType   string
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Booking, error)
	FindByIDForUpdate(ctx context.Context, orgID, id uuid.UUID) (*model.Booking, error)
	List(ctx context.Context, orgID uuid.UUID, filter BookingListFilter) ([]model.Booking, int64, error)
	// UpdateStatusIf flips the status only when the row still holds expected.
	// It returns the number of rows affected; zero means a concurrent writer
	// got there first.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, target string) (int64, error)
	CreateStatusEvent(ctx context.Context, event *model.BookingStatusEvent) error
	ListStatusEvents(ctx context.Context, bookingID uuid.UUID) ([]model.BookingStatusEvent, error)
	FindInvoiceable(ctx context.Context, orgID uuid.UUID, filter InvoiceableFilter) ([]model.Booking, error)
	MarkInvoiced(ctx context.Context, bookingIDs []uuid.UUID, invoiceID uuid.UUID) error
	CountByPrefix(ctx context.Context, orgID uuid.UUID, prefix string) (int64, error)
	FindPOD(ctx context.Context, bookingID uuid.UUID) (*model.ProofOfDelivery, error)
	SavePOD(ctx context.Context, pod *model.ProofOfDelivery) error
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return GetDB(ctx, r.db).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	err := GetDB(ctx, r.db).
		Preload("Articles").
		Preload("POD").
		Preload("FromBranch").
		Preload("ToBranch").
		First(&booking, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, orgID, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&booking, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) List(ctx context.Context, orgID uuid.UUID, filter BookingListFilter) ([]model.Booking, int64, error) {
	db := GetDB(ctx, r.db)

	apply := func(q *gorm.DB) *gorm.DB {
		q = q.Where("organization_id = ?", orgID)
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.CustomerID != nil {
			q = q.Where("sender_id = ? OR receiver_id = ?", *filter.CustomerID, *filter.CustomerID)
		}
		if filter.FromDate != nil {
			q = q.Where("booking_date >= ?", *filter.FromDate)
		}
		if filter.ToDate != nil {
			q = q.Where("booking_date <= ?", *filter.ToDate)
		}
		return q
	}

	var total int64
	if err := apply(db.Model(&model.Booking{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var bookings []model.Booking
	err := apply(db.Preload("Articles")).
		Order("created_at desc").
		Offset(offset).
		Limit(filter.Limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *bookingRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, target string) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", target)
	return res.RowsAffected, res.Error
}

func (r *bookingRepository) CreateStatusEvent(ctx context.Context, event *model.BookingStatusEvent) error {
	return GetDB(ctx, r.db).Create(event).Error
}

func (r *bookingRepository) ListStatusEvents(ctx context.Context, bookingID uuid.UUID) ([]model.BookingStatusEvent, error) {
	var events []model.BookingStatusEvent
	err := GetDB(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order("created_at asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *bookingRepository) FindInvoiceable(ctx context.Context, orgID uuid.UUID, filter InvoiceableFilter) ([]model.Booking, error) {
	query := GetDB(ctx, r.db).
		Preload("Articles").
		Preload("FromBranch").
		Preload("ToBranch").
		Where("organization_id = ?", orgID).
		Where("sender_id = ?", filter.CustomerID).
		Where("booking_date >= ? AND booking_date <= ?", filter.FromDate, filter.ToDate).
		Where("invoice_id IS NULL").
		Where("status <> ?", model.BookingCancelled).
		Where("payment_type <> ?", model.PaymentQuotation)

	if filter.DeliveredOnly {
		query = query.Where("status IN ?", []string{model.BookingDelivered, model.BookingPODReceived})
	}
	if filter.PaymentType != "" {
		query = query.Where("payment_type = ?", filter.PaymentType)
	}

	var bookings []model.Booking
	if err := query.Order("booking_date asc").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) MarkInvoiced(ctx context.Context, bookingIDs []uuid.UUID, invoiceID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("id IN ?", bookingIDs).
		Update("invoice_id", invoiceID).Error
}

func (r *bookingRepository) CountByPrefix(ctx context.Context, orgID uuid.UUID, prefix string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("organization_id = ? AND lr_number LIKE ?", orgID, prefix+"%").
		Count(&count).Error
	return count, err
}

func (r *bookingRepository) FindPOD(ctx context.Context, bookingID uuid.UUID) (*model.ProofOfDelivery, error) {
	var pod model.ProofOfDelivery
	if err := GetDB(ctx, r.db).First(&pod, "booking_id = ?", bookingID).Error; err != nil {
		return nil, err
	}
	return &pod, nil
}

func (r *bookingRepository) SavePOD(ctx context.Context, pod *model.ProofOfDelivery) error {
	return GetDB(ctx, r.db).Save(pod).Error
}
