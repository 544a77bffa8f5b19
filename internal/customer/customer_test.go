package customer

import (
	"testing"
	"time"

	"github.com/mbd888/codtrack/internal/orders"
)

func score(v int) *int { return &v }

func codOrder(phone string, status orders.Status, amount int64, date time.Time, riskScore *int) *orders.Order {
	return &orders.Order{
		ID:         "ord_" + phone + "_" + date.Format("20060102"),
		MerchantID: "mer_1",
		Phone:      phone,
		Status:     status,
		Amount:     amount,
		OrderDate:  date,
		CreatedAt:  date,
		RiskScore:  riskScore,
		// empty PaymentMethod = COD
	}
}

var day = 24 * time.Hour

func TestEmptyHistoryYieldsNoProfile(t *testing.T) {
	calc := NewCalculator()
	if p := calc.Calculate("0900000001", nil, nil); p != nil {
		t.Errorf("empty history should yield nil profile, got %+v", p)
	}
}

func TestNeutralBaselineWithoutScoredOrders(t *testing.T) {
	calc := NewCalculator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// One order, no risk score, outcome neither success nor boom.
	history := []*orders.Order{
		codOrder("0900000001", orders.StatusDelivering, 200_000, base, nil),
	}
	p := calc.Calculate("0900000001", history, nil)

	if p.BaseScore != NeutralBaseline {
		t.Errorf("BaseScore = %d, want neutral %d", p.BaseScore, NeutralBaseline)
	}
	if p.Score != NeutralBaseline {
		t.Errorf("Score = %d, want %d (no deltas applied)", p.Score, NeutralBaseline)
	}
}

func TestBaselineAveragesScoredCODOrders(t *testing.T) {
	calc := NewCalculator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	history := []*orders.Order{
		codOrder("p", orders.StatusDelivering, 100, base, score(20)),
		codOrder("p", orders.StatusDelivering, 100, base.Add(day), score(40)),
	}
	// A prepaid order's score must not count toward the baseline.
	prepaid := codOrder("p", orders.StatusDelivering, 100, base.Add(2*day), score(100))
	prepaid.PaymentMethod = "bank_transfer"
	history = append(history, prepaid)

	p := calc.Calculate("p", history, nil)
	if p.BaseScore != 30 {
		t.Errorf("BaseScore = %d, want 30 (mean of 20 and 40)", p.BaseScore)
	}
}

func TestLargeSuccessDelta(t *testing.T) {
	// COD order, amount 2,000,000, ORDER_PAID, not blacklisted: delta −10.
	calc := NewCalculator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	history := []*orders.Order{
		codOrder("p", orders.StatusPaid, 2_000_000, base, score(50)),
	}
	p := calc.Calculate("p", history, nil)

	if p.Score != 40 {
		t.Errorf("Score = %d, want 40 (baseline 50 − 10)", p.Score)
	}
	if p.SuccessOrders != 1 {
		t.Errorf("SuccessOrders = %d, want 1", p.SuccessOrders)
	}
}

func TestBlacklistedBoomDoubles(t *testing.T) {
	// Boom after the blacklist timestamp: delta +40 (base +20, doubled).
	calc := NewCalculator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	listedAt := base.Add(-day)

	history := []*orders.Order{
		codOrder("p", orders.StatusCustomerCancelled, 300_000, base, score(50)),
	}
	p := calc.Calculate("p", history, &listedAt)

	if p.Score != 90 {
		t.Errorf("Score = %d, want 90 (baseline 50 + 40)", p.Score)
	}
	if p.FailedOrders != 1 {
		t.Errorf("FailedOrders = %d, want 1", p.FailedOrders)
	}
}

func TestBlacklistedRejectionNotDoubled(t *testing.T) {
	// ORDER_REJECTED means the merchant did not trade, so no multiplier.
	calc := NewCalculator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	listedAt := base.Add(-day)

	history := []*orders.Order{
		codOrder("p", orders.StatusRejected, 300_000, base, score(50)),
	}
	p := calc.Calculate("p", history, &listedAt)

	if p.Score != 70 {
		t.Errorf("Score = %d, want 70 (baseline 50 + 20, not doubled)", p.Score)
	}
}

func TestBlacklistAfterOrderDoesNotApply(t *testing.T) {
	// Blacklisted strictly after the order date: the order predates the
	// flag, so no multiplier.
	calc := NewCalculator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	listedAt := base.Add(day)

	history := []*orders.Order{
		codOrder("p", orders.StatusCustomerCancelled, 300_000, base, score(50)),
	}
	p := calc.Calculate("p", history, &listedAt)

	if p.Score != 70 {
		t.Errorf("Score = %d, want 70 (baseline 50 + 20)", p.Score)
	}
}

func TestBlacklistedSuccessRewardAlsoDoubled(t *testing.T) {
	// The multiplier applies to both signs: a blacklisted customer who pays
	// earns double credit.
	calc := NewCalculator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	listedAt := base.Add(-day)

	history := []*orders.Order{
		codOrder("p", orders.StatusPaid, 2_000_000, base, score(50)),
	}
	p := calc.Calculate("p", history, &listedAt)

	if p.Score != 30 {
		t.Errorf("Score = %d, want 30 (baseline 50 − 20)", p.Score)
	}
}

func TestScoreClamped(t *testing.T) {
	calc := NewCalculator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Ten booms from a high baseline would walk far past 100.
	var booms []*orders.Order
	for i := 0; i < 10; i++ {
		booms = append(booms, codOrder("p", orders.StatusCustomerCancelled, 100, base.Add(time.Duration(i)*day), score(90)))
	}
	if p := calc.Calculate("p", booms, nil); p.Score != 100 {
		t.Errorf("Score = %d, want clamped to 100", p.Score)
	}

	// Many large successes from a low baseline would walk below 0.
	var wins []*orders.Order
	for i := 0; i < 10; i++ {
		wins = append(wins, codOrder("p", orders.StatusPaid, 2_000_000, base.Add(time.Duration(i)*day), score(10)))
	}
	if p := calc.Calculate("p", wins, nil); p.Score != 0 {
		t.Errorf("Score = %d, want clamped to 0", p.Score)
	}
}

func TestReplayIsIdempotent(t *testing.T) {
	calc := NewCalculator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	history := []*orders.Order{
		codOrder("p", orders.StatusPaid, 1_200_000, base, score(60)),
		codOrder("p", orders.StatusCustomerCancelled, 400_000, base.Add(day), score(30)),
		codOrder("p", orders.StatusCompleted, 150_000, base.Add(2*day), nil),
	}

	first := calc.Calculate("p", history, nil)
	second := calc.Calculate("p", history, nil)

	if first.Score != second.Score || first.BaseScore != second.BaseScore {
		t.Errorf("replay not idempotent: %d/%d vs %d/%d",
			first.BaseScore, first.Score, second.BaseScore, second.Score)
	}
}

func TestReplaySortsChronologically(t *testing.T) {
	calc := NewCalculator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Same orders, shuffled input order. The profile name and last-order
	// timestamp must come from the chronologically newest order.
	newest := codOrder("p", orders.StatusPaid, 100, base.Add(5*day), score(50))
	newest.CustomerName = "Latest Name"
	oldest := codOrder("p", orders.StatusCustomerCancelled, 100, base, score(50))
	oldest.CustomerName = "Old Name"

	p := calc.Calculate("p", []*orders.Order{newest, oldest}, nil)

	if p.CustomerName != "Latest Name" {
		t.Errorf("CustomerName = %q, want from newest order", p.CustomerName)
	}
	if !p.LastOrderAt.Equal(newest.OrderDate) {
		t.Errorf("LastOrderAt = %v, want %v", p.LastOrderAt, newest.OrderDate)
	}
}

func TestCalculateAllIgnoresPhonelessOrders(t *testing.T) {
	calc := NewCalculator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	all := []*orders.Order{
		codOrder("0900000001", orders.StatusPaid, 100, base, score(50)),
		codOrder("", orders.StatusPaid, 100, base, score(50)),
		codOrder("0900000002", orders.StatusCustomerCancelled, 100, base, score(50)),
	}

	profiles := calc.CalculateAll(all, nil)
	if len(profiles) != 2 {
		t.Fatalf("len(profiles) = %d, want 2 (phoneless order ignored)", len(profiles))
	}
	if profiles["0900000001"].Score >= profiles["0900000002"].Score {
		t.Errorf("paying customer should score below a boom customer: %d vs %d",
			profiles["0900000001"].Score, profiles["0900000002"].Score)
	}
}

func TestOrderDateFallsBackToCreatedAt(t *testing.T) {
	calc := NewCalculator()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	o := codOrder("p", orders.StatusPaid, 100, base, score(50))
	o.OrderDate = time.Time{} // no business date

	p := calc.Calculate("p", []*orders.Order{o}, nil)
	if !p.LastOrderAt.Equal(base) {
		t.Errorf("LastOrderAt = %v, want CreatedAt fallback %v", p.LastOrderAt, base)
	}
}
