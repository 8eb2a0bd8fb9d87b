package models

import "time"

// EventType names a ledger state change.
type EventType string

const (
	EventExpenseRecorded     EventType = "expense.recorded"
	EventExpenseUpdated      EventType = "expense.updated"
	EventExpenseDeleted      EventType = "expense.deleted"
	EventSettlementProposed  EventType = "settlement.proposed"
	EventSettlementConfirmed EventType = "settlement.confirmed"
	EventSettlementCancelled EventType = "settlement.cancelled"
	EventGroupCreated        EventType = "group.created"
	EventGroupDeactivated    EventType = "group.deactivated"
	EventMembershipRequested EventType = "membership.requested"
	EventMembershipActivated EventType = "membership.activated"
	EventMembershipRemoved   EventType = "membership.removed"
)

// Event is returned by every mutating operation and delivered to interested
// collaborators after the command commits.
type Event struct {
	// ID is assigned when the event is appended to the event log.
	ID string

	Type    EventType
	GroupID string

	// SourceID is the expense, settlement or membership the event is about.
	SourceID string

	// TriggeredBy is the acting membership, empty for system actions.
	TriggeredBy string

	OccurredAt time.Time
	Payload    map[string]string
}

// NewEvent stamps an event with the current time.
func NewEvent(typ EventType, groupID, sourceID, triggeredBy string, payload map[string]string) Event {
	return Event{
		Type:        typ,
		GroupID:     groupID,
		SourceID:    sourceID,
		TriggeredBy: triggeredBy,
		OccurredAt:  time.Now(),
		Payload:     payload,
	}
}
