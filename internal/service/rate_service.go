package service

import (
	"context"
	"fmt"
	"time"

	"freightflow/internal/model"
	"freightflow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

// PriceInput identifies one booking-to-be for price resolution.
type PriceInput struct {
	CustomerID   uuid.UUID
	FromBranchID uuid.UUID
	ToBranchID   uuid.UUID
	ArticleID    *uuid.UUID
	Weight       decimal.Decimal
	Quantity     int
	BookingDate  time.Time
}

type CalculatePriceRequest struct {
	CustomerID   string `json:"customer_id" binding:"required"`
	FromBranchID string `json:"from_branch_id" binding:"required"`
	ToBranchID   string `json:"to_branch_id" binding:"required"`
	ArticleID    string `json:"article_id"`
	Weight       string `json:"weight" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,min=1"`
	BookingDate  string `json:"booking_date"` // YYYY-MM-DD, defaults to today
}

// ChargeLine is one applied surcharge or discount.
type ChargeLine struct {
	Name   string          `json:"name"`
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// PriceBreakdown is the resolver output:
// TotalAmount = BaseAmount + surcharges - discounts.
type PriceBreakdown struct {
	ContractID  *uuid.UUID      `json:"contract_id,omitempty"`
	SlabID      *uuid.UUID      `json:"slab_id,omitempty"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	Surcharges  []ChargeLine    `json:"surcharges"`
	Discounts   []ChargeLine    `json:"discounts"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func (b PriceBreakdown) SurchargeSum() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range b.Surcharges {
		sum = sum.Add(line.Amount)
	}
	return sum
}

func (b PriceBreakdown) DiscountSum() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range b.Discounts {
		sum = sum.Add(line.Amount)
	}
	return sum
}

// --- Interface ---

type RateService interface {
	ResolvePrice(ctx context.Context, rc model.RequestContext, input PriceInput) (PriceBreakdown, error)
}

type rateService struct {
	rateRepo repository.RateRepository
}

func NewRateService(rateRepo repository.RateRepository) RateService {
	return &rateService{rateRepo: rateRepo}
}

// --- Implementation ---

func (s *rateService) ResolvePrice(ctx context.Context, rc model.RequestContext, input PriceInput) (PriceBreakdown, error) {
	contracts, err := s.rateRepo.FindActiveContracts(ctx, rc.OrganizationID, input.CustomerID, input.BookingDate)
	if err != nil {
		return PriceBreakdown{}, fmt.Errorf("failed to load rate contracts: %w", err)
	}
	if len(contracts) == 0 {
		return PriceBreakdown{}, ErrNoRateContract
	}

	var slabs []model.RateSlab
	var rules []model.SurchargeRule
	slabContract := make(map[uuid.UUID]uuid.UUID, len(contracts))
	for _, contract := range contracts {
		for _, slab := range contract.Slabs {
			slabs = append(slabs, slab)
			slabContract[slab.ID] = contract.ID
		}
		rules = append(rules, contract.SurchargeRules...)
	}

	slab := SelectSlab(slabs, input.FromBranchID, input.ToBranchID, input.ArticleID, input.Weight)
	if slab == nil {
		return PriceBreakdown{}, ErrNoRateContract
	}

	base := ComputeBaseAmount(*slab, input.Weight, input.Quantity)
	surcharges, discounts := ApplyChargeRules(rules, input, base)

	total := base.Add(sumLines(surcharges)).Sub(sumLines(discounts))

	contractID := slabContract[slab.ID]
	slabID := slab.ID
	return PriceBreakdown{
		ContractID:  &contractID,
		SlabID:      &slabID,
		BaseAmount:  base,
		Surcharges:  surcharges,
		Discounts:   discounts,
		TotalAmount: total,
	}, nil
}

// --- Pure resolution logic ---

// SelectSlab picks the slab for a route/article/weight. Both band ends are
// inclusive. Article-scoped slabs beat article-agnostic ones; among equally
// specific candidates the most recently created slab wins, so overlapping
// bands resolve deterministically.
func SelectSlab(slabs []model.RateSlab, fromBranch, toBranch uuid.UUID, articleID *uuid.UUID, weight decimal.Decimal) *model.RateSlab {
	var best *model.RateSlab
	for i := range slabs {
		slab := &slabs[i]
		if slab.FromBranchID != fromBranch || slab.ToBranchID != toBranch {
			continue
		}
		if weight.LessThan(slab.WeightFrom) || weight.GreaterThan(slab.WeightTo) {
			continue
		}
		if slab.ArticleID != nil {
			if articleID == nil || *slab.ArticleID != *articleID {
				continue
			}
		}
		if best == nil || slabBeats(slab, best) {
			best = slab
		}
	}
	return best
}

func slabBeats(candidate, current *model.RateSlab) bool {
	candidateScoped := candidate.ArticleID != nil
	currentScoped := current.ArticleID != nil
	if candidateScoped != currentScoped {
		return candidateScoped
	}
	return candidate.CreatedAt.After(current.CreatedAt)
}

// ComputeBaseAmount evaluates the slab's charge basis and applies the
// minimum-charge floor.
func ComputeBaseAmount(slab model.RateSlab, weight decimal.Decimal, quantity int) decimal.Decimal {
	byWeight := weight.Mul(slab.RatePerKg)
	byUnit := decimal.NewFromInt(int64(quantity)).Mul(slab.RatePerUnit)

	var base decimal.Decimal
	switch slab.RateBasis {
	case model.BasisPerKg:
		base = byWeight
	case model.BasisPerUnit:
		base = byUnit
	case model.BasisFixed:
		base = slab.FixedAmount
	case model.BasisMaxOf:
		base = decimal.Max(byWeight, byUnit)
	default:
		base = byWeight
	}

	if base.LessThan(slab.MinimumCharge) {
		base = slab.MinimumCharge
	}
	return base
}

// ApplyChargeRules evaluates every rule valid on the booking date and
// matching the route/article filters, splitting the results into surcharges
// and discounts. Each computed amount is clamped to the rule's bounds.
func ApplyChargeRules(rules []model.SurchargeRule, input PriceInput, base decimal.Decimal) (surcharges, discounts []ChargeLine) {
	for _, rule := range rules {
		if !ruleApplies(rule, input) {
			continue
		}
		amount := computeRuleAmount(rule, input, base)
		if amount.Sign() <= 0 {
			continue
		}
		line := ChargeLine{Name: rule.Name, Method: rule.CalcMethod, Amount: amount}
		if rule.RuleType == model.RuleDiscount {
			discounts = append(discounts, line)
		} else {
			surcharges = append(surcharges, line)
		}
	}
	return surcharges, discounts
}

func ruleApplies(rule model.SurchargeRule, input PriceInput) bool {
	if input.BookingDate.Before(rule.ValidFrom) || input.BookingDate.After(rule.ValidTo) {
		return false
	}
	if rule.FromBranchID != nil && *rule.FromBranchID != input.FromBranchID {
		return false
	}
	if rule.ToBranchID != nil && *rule.ToBranchID != input.ToBranchID {
		return false
	}
	if rule.ArticleID != nil {
		if input.ArticleID == nil || *rule.ArticleID != *input.ArticleID {
			return false
		}
	}
	return true
}

func computeRuleAmount(rule model.SurchargeRule, input PriceInput, base decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch rule.CalcMethod {
	case model.CalcPercentage:
		amount = base.Mul(rule.Value)
	case model.CalcFixed:
		amount = rule.Value
	case model.CalcPerKg:
		amount = input.Weight.Mul(rule.Value)
	case model.CalcPerUnit:
		amount = decimal.NewFromInt(int64(input.Quantity)).Mul(rule.Value)
	default:
		return decimal.Zero
	}

	if rule.MinAmount != nil && amount.LessThan(*rule.MinAmount) {
		amount = *rule.MinAmount
	}
	if rule.MaxAmount != nil && amount.GreaterThan(*rule.MaxAmount) {
		amount = *rule.MaxAmount
	}
	return amount
}

func sumLines(lines []ChargeLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Amount)
	}
	return sum
}
