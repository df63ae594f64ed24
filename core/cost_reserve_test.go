package core

import (
	"errors"
	"testing"
)

// TestCostReserveMonotonicNonIncreasing is property #8 (first half): the
// cost-unit balance is non-increasing across consumes, aside from explicit
// credits.
func TestCostReserveMonotonicNonIncreasing(t *testing.T) {
	c := NewCostReserve(DefaultFeeTable, 1_000)
	prev := c.Remaining()
	for i := 0; i < 5; i++ {
		if err := c.Consume(50, CostReasonInvoke); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		cur := c.Remaining()
		if cur > prev {
			t.Fatalf("remaining increased without a credit: %d -> %d", prev, cur)
		}
		prev = cur
	}
}

// TestCostReserveCreditIncreasesSpentAccounting asserts Credit is the only
// way the receipt's fee accounting moves in the refund direction; it does
// not itself replenish the loan window (spec §4.3 "credit... a receipt-level
// refund record, not a consumable allowance").
func TestCostReserveCreditIncreasesSpentAccounting(t *testing.T) {
	c := NewCostReserve(DefaultFeeTable, 1_000)
	if err := c.Consume(100, CostReasonInvoke); err != nil {
		t.Fatalf("consume: %v", err)
	}
	remainingBefore := c.Remaining()
	c.Credit(30)
	if c.Remaining() != remainingBefore {
		t.Fatalf("expected Credit to not alter the loan window directly, got %d -> %d", remainingBefore, c.Remaining())
	}
	summary := c.Summary()
	var sawRefund bool
	for _, r := range summary.CostBreakdown {
		if r.Reason == "refund" && r.Units == 30 {
			sawRefund = true
		}
	}
	if !sawRefund {
		t.Fatalf("expected a refund record in the cost breakdown")
	}
}

// TestCostReserveAbortsOnExhaustion is property #8 (second half): once the
// loan is exhausted, Consume fails with *CostingError within finitely many
// further operations (here: immediately on the first over-budget call).
func TestCostReserveAbortsOnExhaustion(t *testing.T) {
	c := NewCostReserve(DefaultFeeTable, 100)
	if err := c.Consume(100, CostReasonInvoke); err != nil {
		t.Fatalf("consume within loan: %v", err)
	}
	if c.Remaining() != 0 {
		t.Fatalf("expected loan fully drawn down, remaining=%d", c.Remaining())
	}

	err := c.Consume(1, CostReasonInvoke)
	if err == nil {
		t.Fatalf("expected OutOfCostUnits once the loan is exhausted")
	}
	var costErr *CostingError
	if !errors.As(err, &costErr) {
		t.Fatalf("expected *CostingError, got %T: %v", err, err)
	}
}
