package core

// events.go – event emission in program order (spec §6.2 "emitted events",
// §9 Open Question: "preserve emission order, do not reorder for batching").
// Grounded on the teacher's EventManager in event_management.go, adapted
// from a global singleton persisting JSON blobs into a shared ledger (with a
// Broadcast network side effect, out of scope here) into a session-scoped
// append-only log: one EventLog per transaction-processor session, never a
// package-level global (spec §9 "no process-wide singletons").

import "fmt"

// EventLog accumulates events emitted during one session, in emission order.
type EventLog struct {
	events []Event
}

// NewEventLog constructs an empty log.
func NewEventLog() *EventLog { return &EventLog{} }

// Emit appends an event to the log. Because the log is a plain slice
// appended to under the kernel's single-threaded execution model (spec §5
// "single-threaded cooperative within one transaction"), no locking is
// required.
func (l *EventLog) Emit(emitter NodeId, schemaTypeRef string, payload []byte) {
	l.events = append(l.events, Event{
		Type:    EventTypeIdentifier{Emitter: emitter, SchemaTypeRef: schemaTypeRef},
		Payload: append([]byte(nil), payload...),
	})
}

// All returns the events in emission order, for receipt assembly.
func (l *EventLog) All() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// ByEmitter filters the log for events emitted by a specific node, a
// convenience used by tests asserting per-actor emission without needing to
// know the interleaving with other emitters.
func (l *EventLog) ByEmitter(emitter NodeId) []Event {
	var out []Event
	for _, e := range l.events {
		if e.Type.Emitter == emitter {
			out = append(out, e)
		}
	}
	return out
}

// CheckSize validates a single event's payload against the configured
// maximum (spec §A Limits "max event size"), returning
// *TransactionLimitsError on violation.
func (l *EventLog) CheckSize(payload []byte, maxEventSize int) error {
	if maxEventSize > 0 && len(payload) > maxEventSize {
		return NewTransactionLimitsError("event payload %d bytes exceeds max %d", len(payload), maxEventSize)
	}
	return nil
}

func (l *EventLog) String() string {
	return fmt.Sprintf("EventLog{%d events}", len(l.events))
}
