package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"freightflow/internal/model"
	"freightflow/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// warnUtilization is the post-booking utilization at which the gate still
// passes but attaches a warning the caller must surface.
var warnUtilization = decimal.NewFromFloat(0.8)

// CreditDecision is the gate's verdict on a proposed charge.
type CreditDecision struct {
	Allowed   bool            `json:"allowed"`
	Reason    string          `json:"reason,omitempty"`
	Warning   string          `json:"warning,omitempty"`
	Shortfall decimal.Decimal `json:"shortfall,omitempty"`
}

type RecordPaymentRequest struct {
	Amount    string `json:"amount" binding:"required"`
	Mode      string `json:"mode" binding:"required,oneof=CASH UPI BANK CHEQUE"`
	Reference string `json:"reference"`
}

// --- Interface ---

type CreditService interface {
	Check(ctx context.Context, rc model.RequestContext, customerID uuid.UUID, amount decimal.Decimal) (CreditDecision, error)
	RecordPayment(ctx context.Context, rc model.RequestContext, customerID string, req RecordPaymentRequest) (*model.Payment, error)
}

type creditService struct {
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	log          zerolog.Logger
}

func NewCreditService(
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	log zerolog.Logger,
) CreditService {
	return &creditService{
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		log:          log,
	}
}

// --- Implementation ---

func (s *creditService) Check(ctx context.Context, rc model.RequestContext, customerID uuid.UUID, amount decimal.Decimal) (CreditDecision, error) {
	customer, err := s.customerRepo.FindByID(ctx, rc.OrganizationID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CreditDecision{}, &NotFoundError{Entity: "customer", ID: customerID.String()}
		}
		return CreditDecision{}, fmt.Errorf("failed to load customer: %w", err)
	}
	return EvaluateCredit(customer, amount), nil
}

// EvaluateCredit is the pure gate decision over a customer's credit state.
// A zero credit limit means unlimited. Post-booking utilization at or above
// 80% of a finite limit yields a pass with warning.
func EvaluateCredit(customer *model.Customer, amount decimal.Decimal) CreditDecision {
	switch customer.CreditStatus {
	case model.CreditBlocked, model.CreditSuspended:
		return CreditDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("credit status is %s", customer.CreditStatus),
		}
	case model.CreditOnHold:
		return CreditDecision{
			Allowed: false,
			Reason:  "credit is on hold, manual override required",
		}
	}

	if customer.CreditLimit.Sign() <= 0 {
		return CreditDecision{Allowed: true}
	}

	available := customer.CreditLimit.Sub(customer.OutstandingBalance)
	if amount.GreaterThan(available) {
		shortfall := amount.Sub(available)
		return CreditDecision{
			Allowed: false,
			Reason: fmt.Sprintf("credit limit exceeded by %s (available %s)",
				shortfall.StringFixed(2), available.StringFixed(2)),
			Shortfall: shortfall,
		}
	}

	utilization := customer.OutstandingBalance.Add(amount).Div(customer.CreditLimit)
	if utilization.GreaterThanOrEqual(warnUtilization) {
		return CreditDecision{
			Allowed: true,
			Warning: fmt.Sprintf("credit utilization will reach %s%% of limit",
				utilization.Mul(decimal.NewFromInt(100)).StringFixed(0)),
		}
	}

	return CreditDecision{Allowed: true}
}

func (s *creditService) RecordPayment(ctx context.Context, rc model.RequestContext, customerID string, req RecordPaymentRequest) (*model.Payment, error) {
	id, err := uuid.Parse(customerID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id: %w", err)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.Sign() <= 0 {
		return nil, &PolicyError{Reason: "payment amount must be positive"}
	}

	payment := &model.Payment{
		OrganizationID: rc.OrganizationID,
		CustomerID:     id,
		Amount:         amount,
		Mode:           req.Mode,
		Reference:      req.Reference,
		ReceivedBy:     rc.Actor(),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, lockErr := s.customerRepo.FindByIDForUpdate(txCtx, rc.OrganizationID, id)
		if lockErr != nil {
			if errors.Is(lockErr, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "customer", ID: customerID}
			}
			return fmt.Errorf("failed to load customer: %w", lockErr)
		}

		if createErr := s.customerRepo.CreatePayment(txCtx, payment); createErr != nil {
			return fmt.Errorf("failed to record payment: %w", createErr)
		}

		newBalance := customer.OutstandingBalance.Sub(amount)
		if newBalance.Sign() < 0 {
			newBalance = decimal.Zero
		}
		if balErr := s.customerRepo.UpdateOutstanding(txCtx, id, newBalance); balErr != nil {
			return fmt.Errorf("failed to update outstanding balance: %w", balErr)
		}

		details, _ := json.Marshal(map[string]string{
			"amount": amount.StringFixed(2),
			"mode":   req.Mode,
		})
		entry := &model.AuditLog{
			OrganizationID: rc.OrganizationID,
			UserID:         rc.Actor(),
			Action:         model.ActionRecordPayment,
			EntityID:       payment.ID.String(),
			EntityName:     customer.Name,
			Details:        string(details),
		}
		if auditErr := s.auditRepo.Create(txCtx, entry); auditErr != nil {
			s.log.Error().Err(auditErr).Msg("audit log write failed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}
