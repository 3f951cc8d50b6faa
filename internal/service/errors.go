package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNoRateContract         = errors.New("no active rate contract for customer on booking date")
	ErrNoEligibleBookings     = errors.New("no eligible bookings in the selected period")
	ErrConcurrentModification = errors.New("record was modified concurrently, retry the operation")
)

// NotFoundError identifies an absent entity. An entity outside tenant scope
// reports the same way, so callers cannot probe other tenants' IDs.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidTransitionError reports a state-machine violation together with the
// legal alternatives so the caller can self-correct without a second round
// trip.
type InvalidTransitionError struct {
	Entity    string
	Current   string
	Requested string
	Allowed   []string
}

func (e *InvalidTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("%s status %s is terminal, cannot move to %s", e.Entity, e.Current, e.Requested)
	}
	return fmt.Sprintf("cannot move %s from %s to %s, allowed: %s",
		e.Entity, e.Current, e.Requested, strings.Join(e.Allowed, ", "))
}

// PolicyError is a business-rule rejection (credit gate, manifest-state
// gate). Shortfall is set for credit rejections.
type PolicyError struct {
	Reason    string
	Shortfall decimal.Decimal
}

func (e *PolicyError) Error() string {
	return e.Reason
}

// PartialFailureError reports a mid-batch failure together with the
// compensating action already performed, so the persisted state is never
// inconsistent with what the caller is told.
type PartialFailureError struct {
	Op           string
	Processed    int
	FailedID     string
	Compensation string
	Err          error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s failed at %s after %d processed (%s): %v",
		e.Op, e.FailedID, e.Processed, e.Compensation, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }
