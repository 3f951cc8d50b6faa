package service

import (
	"testing"
	"time"

	"freightflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	branchA = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	branchB = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	branchC = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	article = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func slab(from, to uuid.UUID, articleID *uuid.UUID, weightFrom, weightTo string, createdAt time.Time) model.RateSlab {
	return model.RateSlab{
		ID:           uuid.New(),
		FromBranchID: from,
		ToBranchID:   to,
		ArticleID:    articleID,
		WeightFrom:   dec(weightFrom),
		WeightTo:     dec(weightTo),
		RateBasis:    model.BasisPerKg,
		RatePerKg:    dec("10"),
		CreatedAt:    createdAt,
	}
}

func TestSelectSlabRouteAndBand(t *testing.T) {
	now := time.Now()
	slabs := []model.RateSlab{
		slab(branchA, branchB, nil, "0", "100", now),
		slab(branchA, branchC, nil, "0", "100", now),
		slab(branchA, branchB, nil, "101", "500", now),
	}

	got := SelectSlab(slabs, branchA, branchB, nil, dec("50"))
	if got == nil || got.ID != slabs[0].ID {
		t.Fatal("expected the A->B 0-100 slab")
	}

	if SelectSlab(slabs, branchB, branchA, nil, dec("50")) != nil {
		t.Fatal("reversed route must not match")
	}
	if SelectSlab(slabs, branchA, branchB, nil, dec("501")) != nil {
		t.Fatal("weight above every band must not match")
	}
}

func TestSelectSlabInclusiveBoundaries(t *testing.T) {
	now := time.Now()
	slabs := []model.RateSlab{
		slab(branchA, branchB, nil, "0", "100", now),
	}

	for _, weight := range []string{"0", "100"} {
		if SelectSlab(slabs, branchA, branchB, nil, dec(weight)) == nil {
			t.Errorf("weight %s must match the inclusive band", weight)
		}
	}
	if SelectSlab(slabs, branchA, branchB, nil, dec("100.001")) != nil {
		t.Error("weight just above the band must not match")
	}
}

func TestSelectSlabOverlapMostRecentWins(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	// Bands 0-100 and 100-200 both contain the boundary weight 100.
	slabs := []model.RateSlab{
		slab(branchA, branchB, nil, "0", "100", older),
		slab(branchA, branchB, nil, "100", "200", newer),
	}

	got := SelectSlab(slabs, branchA, branchB, nil, dec("100"))
	if got == nil || got.ID != slabs[1].ID {
		t.Fatal("most recently created slab must win an overlap")
	}
}

func TestSelectSlabArticleScopedWins(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	// The article-agnostic slab is newer, but article scope beats recency.
	slabs := []model.RateSlab{
		slab(branchA, branchB, nil, "0", "100", newer),
		slab(branchA, branchB, &article, "0", "100", older),
	}

	got := SelectSlab(slabs, branchA, branchB, &article, dec("50"))
	if got == nil || got.ID != slabs[1].ID {
		t.Fatal("article-scoped slab must beat the agnostic one")
	}

	// Without an article on the booking, scoped slabs are out of reach.
	got = SelectSlab(slabs, branchA, branchB, nil, dec("50"))
	if got == nil || got.ID != slabs[0].ID {
		t.Fatal("bookings without an article must fall back to the agnostic slab")
	}
}

func TestComputeBaseAmount(t *testing.T) {
	base := model.RateSlab{
		RatePerKg:   dec("10"),
		RatePerUnit: dec("150"),
		FixedAmount: dec("900"),
	}

	cases := []struct {
		basis    string
		weight   string
		quantity int
		want     string
	}{
		{model.BasisPerKg, "50", 2, "500"},
		{model.BasisPerUnit, "50", 2, "300"},
		{model.BasisFixed, "50", 2, "900"},
		{model.BasisMaxOf, "50", 2, "500"},  // 50*10 > 2*150
		{model.BasisMaxOf, "10", 4, "600"},  // 4*150 > 10*10
	}

	for _, tc := range cases {
		s := base
		s.RateBasis = tc.basis
		got := ComputeBaseAmount(s, dec(tc.weight), tc.quantity)
		if !got.Equal(dec(tc.want)) {
			t.Errorf("basis %s: got %s, want %s", tc.basis, got, tc.want)
		}
	}
}

func TestComputeBaseAmountMinimumChargeFloor(t *testing.T) {
	s := model.RateSlab{
		RateBasis:     model.BasisPerKg,
		RatePerKg:     dec("10"),
		MinimumCharge: dec("250"),
	}

	if got := ComputeBaseAmount(s, dec("5"), 1); !got.Equal(dec("250")) {
		t.Errorf("below the floor: got %s, want 250", got)
	}
	if got := ComputeBaseAmount(s, dec("50"), 1); !got.Equal(dec("500")) {
		t.Errorf("above the floor: got %s, want 500", got)
	}
}

func TestApplyChargeRules(t *testing.T) {
	now := time.Now()
	input := PriceInput{
		FromBranchID: branchA,
		ToBranchID:   branchB,
		Weight:       dec("100"),
		Quantity:     4,
		BookingDate:  now,
	}
	window := func(r *model.SurchargeRule) {
		r.ValidFrom = now.Add(-24 * time.Hour)
		r.ValidTo = now.Add(24 * time.Hour)
	}

	fuel := model.SurchargeRule{Name: "FUEL", RuleType: model.RuleSurcharge, CalcMethod: model.CalcPercentage, Value: dec("0.05")}
	window(&fuel)
	toll := model.SurchargeRule{Name: "TOLL", RuleType: model.RuleSurcharge, CalcMethod: model.CalcFixed, Value: dec("120")}
	window(&toll)
	loyalty := model.SurchargeRule{Name: "LOYALTY", RuleType: model.RuleDiscount, CalcMethod: model.CalcPercentage, Value: dec("0.10")}
	window(&loyalty)
	expired := model.SurchargeRule{Name: "OLD", RuleType: model.RuleSurcharge, CalcMethod: model.CalcFixed, Value: dec("999")}
	expired.ValidFrom = now.Add(-48 * time.Hour)
	expired.ValidTo = now.Add(-24 * time.Hour)

	base := dec("1000")
	surcharges, discounts := ApplyChargeRules([]model.SurchargeRule{fuel, toll, loyalty, expired}, input, base)

	if len(surcharges) != 2 {
		t.Fatalf("expected 2 surcharges, got %d", len(surcharges))
	}
	if !surcharges[0].Amount.Equal(dec("50")) {
		t.Errorf("fuel surcharge: got %s, want 50", surcharges[0].Amount)
	}
	if !surcharges[1].Amount.Equal(dec("120")) {
		t.Errorf("toll surcharge: got %s, want 120", surcharges[1].Amount)
	}
	if len(discounts) != 1 || !discounts[0].Amount.Equal(dec("100")) {
		t.Fatalf("expected one 100 discount, got %+v", discounts)
	}
}

func TestApplyChargeRulesClamping(t *testing.T) {
	now := time.Now()
	input := PriceInput{FromBranchID: branchA, ToBranchID: branchB, Weight: dec("10"), Quantity: 1, BookingDate: now}

	min := dec("75")
	max := dec("200")
	rule := model.SurchargeRule{
		Name:       "HANDLING",
		RuleType:   model.RuleSurcharge,
		CalcMethod: model.CalcPercentage,
		Value:      dec("0.05"),
		MinAmount:  &min,
		MaxAmount:  &max,
		ValidFrom:  now.Add(-time.Hour),
		ValidTo:    now.Add(time.Hour),
	}

	// 5% of 1000 = 50, clamped up to the 75 minimum.
	surcharges, _ := ApplyChargeRules([]model.SurchargeRule{rule}, input, dec("1000"))
	if len(surcharges) != 1 || !surcharges[0].Amount.Equal(dec("75")) {
		t.Fatalf("expected min clamp to 75, got %+v", surcharges)
	}

	// 5% of 10000 = 500, clamped down to the 200 maximum.
	surcharges, _ = ApplyChargeRules([]model.SurchargeRule{rule}, input, dec("10000"))
	if len(surcharges) != 1 || !surcharges[0].Amount.Equal(dec("200")) {
		t.Fatalf("expected max clamp to 200, got %+v", surcharges)
	}
}

func TestApplyChargeRulesRouteAndArticleFilters(t *testing.T) {
	now := time.Now()
	other := branchC
	input := PriceInput{FromBranchID: branchA, ToBranchID: branchB, Weight: dec("10"), Quantity: 1, BookingDate: now}

	routeScoped := model.SurchargeRule{
		Name: "ROUTE", RuleType: model.RuleSurcharge, CalcMethod: model.CalcFixed, Value: dec("10"),
		FromBranchID: &other,
		ValidFrom:    now.Add(-time.Hour), ValidTo: now.Add(time.Hour),
	}
	articleScoped := model.SurchargeRule{
		Name: "FRAGILE", RuleType: model.RuleSurcharge, CalcMethod: model.CalcFixed, Value: dec("30"),
		ArticleID: &article,
		ValidFrom: now.Add(-time.Hour), ValidTo: now.Add(time.Hour),
	}

	surcharges, _ := ApplyChargeRules([]model.SurchargeRule{routeScoped, articleScoped}, input, dec("100"))
	if len(surcharges) != 0 {
		t.Fatalf("mismatched filters must exclude both rules, got %+v", surcharges)
	}

	input.ArticleID = &article
	surcharges, _ = ApplyChargeRules([]model.SurchargeRule{routeScoped, articleScoped}, input, dec("100"))
	if len(surcharges) != 1 || surcharges[0].Name != "FRAGILE" {
		t.Fatalf("expected only the article-scoped rule, got %+v", surcharges)
	}
}
