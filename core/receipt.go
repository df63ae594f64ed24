package core

// receipt.go – the transaction outcome model (spec §6.2 Receipt output).
// Grounded on the teacher's Receipt type returned by VM.Execute in
// virtual_machine.go (`Receipt{Success, Logs, GasUsed, ReturnData}`), which
// this generalizes from a single-call VM result into the full transaction
// receipt the spec requires: outcome, fee summary, state deltas, new
// addresses, events, logs.

// Outcome is the top-level result of a transaction (spec §6.2, §7
// "Fee-loan phase exhaustion maps to a distinct AbortedDuringFeeLoan
// outcome").
type Outcome uint8

const (
	OutcomeCommitSuccess Outcome = iota
	OutcomeCommitFailure
	OutcomeRejection
	OutcomeAbortedDuringFeeLoan
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitSuccess:
		return "CommitSuccess"
	case OutcomeCommitFailure:
		return "CommitFailure"
	case OutcomeRejection:
		return "Rejection"
	case OutcomeAbortedDuringFeeLoan:
		return "AbortedDuringFeeLoan"
	default:
		return "UnknownOutcome"
	}
}

// FeeSummary aggregates the cost-reserve accounting for the receipt (spec
// §4.3, §6.2 "fee summary").
type FeeSummary struct {
	TotalCost    uint64
	Tips         uint64
	Royalties    uint64
	Refund       uint64
	CostBreakdown []CostRecord
}

// CostRecord is one (reason, units) entry in the cost reserve's ledger (spec
// §4.3 "a sequence of (reason, units) records for the receipt").
type CostRecord struct {
	Reason string
	Units  uint64
}

// EventTypeIdentifier tags an emitted event with its emitter and schema
// reference (spec §6.2 "EventTypeIdentifier = (Emitter, SchemaTypeRef)").
type EventTypeIdentifier struct {
	Emitter      NodeId
	SchemaTypeRef string
}

// Event is one emitted event, in emission order (spec §9 Open Question:
// "preserve emission order, do not reorder for batching").
type Event struct {
	Type    EventTypeIdentifier
	Payload []byte
}

// LogLevel mirrors the receipt's (level, message) log pairs (spec §6.2).
type LogLevel uint8

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// LogEntry is one emitted log line.
type LogEntry struct {
	Level   LogLevel
	Message string
}

// Receipt is the complete output of executing one transaction (spec §6.2).
type Receipt struct {
	Outcome         Outcome
	FailureReason   error
	Fees            FeeSummary
	StateUpdates    []Delta
	NewAddresses    []NodeId
	Events          []Event
	Logs            []LogEntry
}

// Success reports whether the receipt represents a committed transaction.
func (r *Receipt) Success() bool { return r.Outcome == OutcomeCommitSuccess }
