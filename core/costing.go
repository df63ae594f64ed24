package core

// costing.go – cost-reserve accounting, loan mechanics, fee payment and the
// fixed-cost fee table (spec §4.3). Grounded on the teacher's GasMeter in
// virtual_machine.go for the "balance + Consume(reason) -> error" shape,
// extended with the loan/credit/fee-lock bookkeeping the spec requires that
// the teacher's single-purpose VM gas meter never needed.
//
// The loan window is a plain decrementing counter (spent vs. loan), not
// golang.org/x/time/rate's token bucket: rate.NewLimiter(rate.Inf, burst)
// never actually throttles (rate.Inf makes every reservation succeed
// regardless of burst, per the package's own doc), so it cannot serve as an
// exhaustible allowance. A real rate limiter would also refill over wall-clock
// time, which this reserve must never do (spec §9 "no wall-clock").

// CostReason names the kind of operation being charged, for the receipt's
// cost-record ledger (spec §4.3 "a sequence of (reason, units) records").
type CostReason string

const (
	CostReasonInvoke         CostReason = "invoke"
	CostReasonDropNode       CostReason = "drop-node"
	CostReasonCreateNode     CostReason = "create-node"
	CostReasonLockSubstate   CostReason = "lock-substate"
	CostReasonReadSubstate   CostReason = "read-substate"
	CostReasonWriteSubstate  CostReason = "write-substate"
	CostReasonDropLock       CostReason = "drop-lock"
	CostReasonWasmInstantiate CostReason = "wasm-instantiate"
	CostReasonWasmUnit       CostReason = "wasm-unit"
	CostReasonNativeFn       CostReason = "native-fn"
)

// FeeTable prices fixed-cost primitives by operation kind (spec §4.3 "Fixed-
// cost primitives are priced via a fee table keyed by operation kind").
type FeeTable map[CostReason]uint64

// DefaultFeeTable mirrors the teacher's gas_table.go convention of a
// package-level constant schedule — this one is legitimately static data,
// not session state, so it stays a package-level var (spec §9's "no
// process-wide singletons" applies to session state, not immutable
// configuration tables).
var DefaultFeeTable = FeeTable{
	CostReasonInvoke:          5_000,
	CostReasonDropNode:        500,
	CostReasonCreateNode:      1_000,
	CostReasonLockSubstate:    500,
	CostReasonReadSubstate:    200,
	CostReasonWriteSubstate:   300,
	CostReasonDropLock:        100,
	CostReasonWasmInstantiate: 50_000,
	CostReasonWasmUnit:        1,
	CostReasonNativeFn:        2_000,
}

func (ft FeeTable) cost(reason CostReason) uint64 {
	if c, ok := ft[reason]; ok {
		return c
	}
	return DefaultGasCost
}

// CostReserve is the per-session execution-unit accounting module (spec
// §4.3). It is a field of the session, never a package-level singleton.
// Royalty accrual is tracked separately by RoyaltyModule (§C.3's two-vault
// split), not duplicated here.
type CostReserve struct {
	fees     FeeTable
	loan     uint64
	spent    uint64
	records  []CostRecord
	feeVault NodeId
	hasVault bool
}

// NewCostReserve constructs a reserve with the given free loan allowance
// (spec §4.3 "loan (initial free allowance)").
func NewCostReserve(fees FeeTable, loan uint64) *CostReserve {
	if fees == nil {
		fees = DefaultFeeTable
	}
	return &CostReserve{
		fees: fees,
		loan: loan,
	}
}

// Consume deducts units for the given reason, failing with *CostingError
// once the loan is exhausted (spec §4.3 consume).
func (c *CostReserve) Consume(units uint64, reason CostReason) error {
	if units == 0 {
		return nil
	}
	if c.spent+units > c.loan {
		return NewCostingError("OutOfCostUnits: exhausted after spending %d units", c.spent)
	}
	c.spent += units
	c.records = append(c.records, CostRecord{Reason: string(reason), Units: units})
	return nil
}

// ChargeFixed prices and consumes the fixed cost of a named operation kind.
func (c *CostReserve) ChargeFixed(reason CostReason) error {
	return c.Consume(c.fees.cost(reason), reason)
}

// LockFee attaches a vault commitment for fee payment (spec §4.3 lock_fee):
// it records the fee vault and, for a non-contingent lock, a "lock-fee"
// cost record of amount. It does not debit the vault or write any substate,
// so no force-write takes place here.
func (c *CostReserve) LockFee(vault NodeId, amount uint64, contingent bool) {
	c.feeVault = vault
	c.hasVault = true
	if !contingent {
		c.records = append(c.records, CostRecord{Reason: "lock-fee", Units: amount})
	}
}

// Credit refunds units on the commit-success path (spec §4.3 credit).
func (c *CostReserve) Credit(amount uint64) {
	c.records = append(c.records, CostRecord{Reason: "refund", Units: amount})
}

// Remaining reports units left in the loan window.
func (c *CostReserve) Remaining() uint64 {
	if c.loan < c.spent {
		return 0
	}
	return c.loan - c.spent
}

// Summary assembles the receipt's FeeSummary (spec §6.2). The caller folds
// in RoyaltyModule's accrued total separately (see txproc.go Finalize).
func (c *CostReserve) Summary() FeeSummary {
	return FeeSummary{
		TotalCost:     c.spent,
		CostBreakdown: append([]CostRecord(nil), c.records...),
	}
}

