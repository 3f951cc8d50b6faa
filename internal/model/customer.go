package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Credit status enum constants
const (
	CreditActive    = "ACTIVE"
	CreditOnHold    = "ON_HOLD"
	CreditBlocked   = "BLOCKED"
	CreditSuspended = "SUSPENDED"
)

// Customer carries the credit state read by the gate. CreditLimit of zero
// means unlimited. OutstandingBalance grows on booking commit and shrinks on
// payment recording; the booking engine itself never writes credit fields
// outside those two paths.
type Customer struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"type:varchar(120);not null" json:"name"`
	Phone          string    `gorm:"type:varchar(20);index" json:"phone"`
	GSTIN          string    `gorm:"type:varchar(20)" json:"gstin"`

	CreditLimit        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"credit_limit"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"outstanding_balance"`
	CreditStatus       string          `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"credit_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Payment records money received against a customer's outstanding balance.
type Payment struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID   `gorm:"type:uuid;not null;index" json:"organization_id"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Mode       string          `gorm:"type:varchar(20)" json:"mode"` // CASH, UPI, BANK, CHEQUE
	Reference  string          `gorm:"type:varchar(60)" json:"reference"`
	ReceivedBy *uuid.UUID      `gorm:"type:uuid" json:"received_by"`
	CreatedAt  time.Time       `json:"created_at"`
}
