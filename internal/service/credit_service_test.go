package service

import (
	"strings"
	"testing"

	"freightflow/internal/model"
)

func customer(status, limit, outstanding string) *model.Customer {
	return &model.Customer{
		Name:               "Acme Traders",
		CreditStatus:       status,
		CreditLimit:        dec(limit),
		OutstandingBalance: dec(outstanding),
	}
}

func TestEvaluateCreditHardRejections(t *testing.T) {
	for _, status := range []string{model.CreditBlocked, model.CreditSuspended} {
		decision := EvaluateCredit(customer(status, "100000", "0"), dec("1"))
		if decision.Allowed {
			t.Errorf("%s customer must be rejected regardless of headroom", status)
		}
		if !strings.Contains(decision.Reason, status) {
			t.Errorf("rejection reason should name the status, got %q", decision.Reason)
		}
	}
}

func TestEvaluateCreditOnHold(t *testing.T) {
	decision := EvaluateCredit(customer(model.CreditOnHold, "100000", "0"), dec("1"))
	if decision.Allowed {
		t.Fatal("ON_HOLD customer must be rejected")
	}
	if !strings.Contains(decision.Reason, "override") {
		t.Errorf("on-hold rejection should mention the manual override, got %q", decision.Reason)
	}
}

func TestEvaluateCreditUnlimitedWhenZeroLimit(t *testing.T) {
	decision := EvaluateCredit(customer(model.CreditActive, "0", "9999999"), dec("5000000"))
	if !decision.Allowed || decision.Warning != "" {
		t.Fatalf("zero limit means unlimited, got %+v", decision)
	}
}

func TestEvaluateCreditShortfall(t *testing.T) {
	// limit 10000, outstanding 9000: only 1000 available.
	decision := EvaluateCredit(customer(model.CreditActive, "10000", "9000"), dec("2000"))
	if decision.Allowed {
		t.Fatal("charge above available credit must be rejected")
	}
	if !decision.Shortfall.Equal(dec("1000")) {
		t.Errorf("shortfall: got %s, want 1000", decision.Shortfall)
	}
}

func TestEvaluateCreditUtilizationWarning(t *testing.T) {
	// 9000 + 900 = 99% of the 10000 limit: pass with warning.
	decision := EvaluateCredit(customer(model.CreditActive, "10000", "9000"), dec("900"))
	if !decision.Allowed {
		t.Fatal("charge within the limit must pass")
	}
	if decision.Warning == "" {
		t.Fatal("utilization at or above 80% must attach a warning")
	}
	if !strings.Contains(decision.Warning, "99") {
		t.Errorf("warning should carry the utilization percentage, got %q", decision.Warning)
	}

	// 1000 + 1000 = 20%: no warning.
	decision = EvaluateCredit(customer(model.CreditActive, "10000", "1000"), dec("1000"))
	if !decision.Allowed || decision.Warning != "" {
		t.Fatalf("low utilization must pass silently, got %+v", decision)
	}

	// Exactly 80% triggers the warning.
	decision = EvaluateCredit(customer(model.CreditActive, "10000", "7000"), dec("1000"))
	if !decision.Allowed || decision.Warning == "" {
		t.Fatalf("exactly 80%% utilization must warn, got %+v", decision)
	}
}

func TestEvaluateCreditExactHeadroom(t *testing.T) {
	// Consuming the entire remaining credit is allowed (with a warning).
	decision := EvaluateCredit(customer(model.CreditActive, "10000", "9000"), dec("1000"))
	if !decision.Allowed {
		t.Fatal("charge equal to the available credit must pass")
	}
	if decision.Warning == "" {
		t.Fatal("full utilization must attach a warning")
	}
}
