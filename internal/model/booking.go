package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking status enum constants
const (
	BookingBooked         = "BOOKED"
	BookingInTransit      = "IN_TRANSIT"
	BookingUnloaded       = "UNLOADED"
	BookingOutForDelivery = "OUT_FOR_DELIVERY"
	BookingDelivered      = "DELIVERED"
	BookingPODReceived    = "POD_RECEIVED"
	BookingCancelled      = "CANCELLED"
)

// PaymentType enum constants
const (
	PaymentPaid      = "PAID"
	PaymentToPay     = "TO_PAY"
	PaymentQuotation = "QUOTATION"
)

// bookingTransitions is the canonical directed status graph. A booking may
// only move along these edges; same-state requests are treated as no-ops by
// the service layer.
var bookingTransitions = map[string][]string{
	BookingBooked:         {BookingInTransit, BookingCancelled},
	BookingInTransit:      {BookingUnloaded, BookingCancelled},
	BookingUnloaded:       {BookingOutForDelivery, BookingCancelled},
	BookingOutForDelivery: {BookingDelivered, BookingCancelled},
	BookingDelivered:      {BookingPODReceived},
	BookingPODReceived:    {},
	BookingCancelled:      {},
}

// AllowedTransitions returns the legal successor statuses for the given
// status. Unknown statuses have no successors.
func AllowedTransitions(status string) []string {
	next, ok := bookingTransitions[status]
	if !ok {
		return nil
	}
	out := make([]string, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is a legal edge in the graph.
func CanTransition(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further transitions are possible.
func IsTerminalStatus(status string) bool {
	next, ok := bookingTransitions[status]
	return ok && len(next) == 0
}

// IsBookingStatus reports whether the string is a known booking status.
func IsBookingStatus(status string) bool {
	_, ok := bookingTransitions[status]
	return ok
}

// Booking is a single consignment shipment record. It is created at booking
// submission with a resolved charge breakdown and is mutated only through the
// status state machine afterwards. Bookings that have left BOOKED are never
// hard-deleted.
type Booking struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_bookings_org_lr" json:"organization_id"`
	BranchID       uuid.UUID `gorm:"type:uuid;not null;index" json:"branch_id"`
	LRNumber       string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_bookings_org_lr" json:"lr_number"`

	FromBranchID uuid.UUID `gorm:"type:uuid;not null" json:"from_branch_id"`
	FromBranch   *Branch   `gorm:"foreignKey:FromBranchID" json:"from_branch,omitempty"`
	ToBranchID   uuid.UUID `gorm:"type:uuid;not null" json:"to_branch_id"`
	ToBranch     *Branch   `gorm:"foreignKey:ToBranchID" json:"to_branch,omitempty"`

	SenderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	Sender     *Customer `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null" json:"receiver_id"`
	Receiver   *Customer `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`

	PaymentType string `gorm:"type:varchar(20);not null" json:"payment_type"` // PAID, TO_PAY, QUOTATION
	Status      string `gorm:"type:varchar(30);not null;default:'BOOKED';index" json:"status"`

	BaseAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"base_amount"`
	SurchargeTotal decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"surcharge_total"`
	DiscountTotal  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"discount_total"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`

	PODRequired bool            `gorm:"not null;default:true" json:"pod_required"`
	POD         *ProofOfDelivery `gorm:"foreignKey:BookingID" json:"pod,omitempty"`

	InvoiceID *uuid.UUID `gorm:"type:uuid;index" json:"invoice_id"` // set once billed

	BookingDate time.Time        `gorm:"not null;index" json:"booking_date"`
	Articles    []BookingArticle `gorm:"foreignKey:BookingID" json:"articles,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookingArticle is one goods line on a booking.
type BookingArticle struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BookingID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"booking_id"`
	ArticleID   *uuid.UUID      `gorm:"type:uuid" json:"article_id"` // optional master-data reference
	Description string          `gorm:"type:varchar(255)" json:"description"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	WeightKg    decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"weight_kg"`
}

// BookingStatusEvent is the immutable audit trail of the state machine.
// Exactly one row is written per successful transition, inside the same
// transaction as the status change; rejected and no-op attempts write none.
type BookingStatusEvent struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BookingID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"booking_id"`
	FromStatus  string     `gorm:"type:varchar(30);not null" json:"from_status"`
	ToStatus    string     `gorm:"type:varchar(30);not null" json:"to_status"`
	ActorID     *uuid.UUID `gorm:"type:uuid" json:"actor_id"`
	Description string     `gorm:"type:text" json:"description"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

// POD status enum constants
const (
	PODPending   = "PENDING"
	PODCompleted = "COMPLETED"
)

// ProofOfDelivery gates the DELIVERED transition when the booking requires it.
type ProofOfDelivery struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BookingID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"booking_id"`
	Status       string     `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	ReceiverName string     `gorm:"type:varchar(120)" json:"receiver_name"`
	PhotoURL     string     `gorm:"type:text" json:"photo_url"`
	Remarks      string     `gorm:"type:text" json:"remarks"`
	SignedAt     *time.Time `json:"signed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
