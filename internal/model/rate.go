package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateContract status enum constants
const (
	ContractDraft   = "DRAFT"
	ContractPending = "PENDING"
	ContractActive  = "ACTIVE"
	ContractExpired = "EXPIRED"
)

// RateBasis enum constants
const (
	BasisPerKg   = "PER_KG"
	BasisPerUnit = "PER_UNIT"
	BasisFixed   = "FIXED"
	BasisMaxOf   = "MAX_OF" // max of the per-kg and per-unit calculations
)

// Surcharge rule type enum constants
const (
	RuleSurcharge = "SURCHARGE"
	RuleDiscount  = "DISCOUNT"
)

// Surcharge calculation method enum constants
const (
	CalcPercentage = "PERCENTAGE"
	CalcFixed      = "FIXED"
	CalcPerKg      = "PER_KG"
	CalcPerUnit    = "PER_UNIT"
)

// RateContract is a customer-scoped pricing agreement with a validity window.
// Only ACTIVE contracts whose window contains the booking date participate in
// price resolution.
type RateContract struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	CustomerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	Name           string    `gorm:"type:varchar(120)" json:"name"`
	Status         string    `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	ValidFrom      time.Time `gorm:"not null" json:"valid_from"`
	ValidTo        time.Time `gorm:"not null" json:"valid_to"`

	Slabs          []RateSlab      `gorm:"foreignKey:ContractID" json:"slabs,omitempty"`
	SurchargeRules []SurchargeRule `gorm:"foreignKey:ContractID" json:"surcharge_rules,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RateSlab maps a route and weight band to a charge basis. Both band ends are
// inclusive: a slab matches when weight_from <= w <= weight_to. A nil
// ArticleID means the slab applies to any article; article-scoped slabs win
// over unscoped ones, then the most recently created slab wins.
type RateSlab struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ContractID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"contract_id"`
	FromBranchID uuid.UUID  `gorm:"type:uuid;not null" json:"from_branch_id"`
	ToBranchID   uuid.UUID  `gorm:"type:uuid;not null" json:"to_branch_id"`
	ArticleID    *uuid.UUID `gorm:"type:uuid" json:"article_id"`

	WeightFrom decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"weight_from"`
	WeightTo   decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"weight_to"`

	RateBasis     string          `gorm:"type:varchar(20);not null" json:"rate_basis"`
	RatePerKg     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"rate_per_kg"`
	RatePerUnit   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"rate_per_unit"`
	FixedAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"fixed_amount"`
	MinimumCharge decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"minimum_charge"`

	CreatedAt time.Time `json:"created_at"`
}

// SurchargeRule is an additional charge (or discount) applied on top of the
// slab base amount. Route and article filters are optional; a nil filter
// matches everything. Computed amounts are clamped to [MinAmount, MaxAmount]
// when the bounds are set.
type SurchargeRule struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ContractID uuid.UUID  `gorm:"type:uuid;not null;index" json:"contract_id"`
	Name       string     `gorm:"type:varchar(120);not null" json:"name"` // e.g. FUEL, TOLL, HANDLING
	RuleType   string     `gorm:"type:varchar(20);not null;default:'SURCHARGE'" json:"rule_type"`
	CalcMethod string     `gorm:"type:varchar(20);not null" json:"calc_method"`

	Value     decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"value"` // percent (0.05 = 5%) or amount
	MinAmount *decimal.Decimal `gorm:"type:decimal(18,2)" json:"min_amount"`
	MaxAmount *decimal.Decimal `gorm:"type:decimal(18,2)" json:"max_amount"`

	FromBranchID *uuid.UUID `gorm:"type:uuid" json:"from_branch_id"`
	ToBranchID   *uuid.UUID `gorm:"type:uuid" json:"to_branch_id"`
	ArticleID    *uuid.UUID `gorm:"type:uuid" json:"article_id"`

	ValidFrom time.Time `gorm:"not null" json:"valid_from"`
	ValidTo   time.Time `gorm:"not null" json:"valid_to"`

	CreatedAt time.Time `json:"created_at"`
}
