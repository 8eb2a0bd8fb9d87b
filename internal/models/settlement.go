package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SettlementStatus is the state of a settlement.
//
//	CREATED → CONFIRMED | CANCELLED
//
// CONFIRMED and CANCELLED are terminal.
type SettlementStatus string

const (
	SettlementCreated   SettlementStatus = "CREATED"
	SettlementConfirmed SettlementStatus = "CONFIRMED"
	SettlementCancelled SettlementStatus = "CANCELLED"
)

func (s SettlementStatus) IsTerminal() bool {
	return s == SettlementConfirmed || s == SettlementCancelled
}

// Settlement represents a payment between group members to clear debts.
// Confirming it moves money between the two balances; that mutation is
// performed by the ledger coordinator, not by the settlement itself.
type Settlement struct {
	// ID is empty for suggested settlements that were never persisted.
	ID      string
	GroupID string

	// PayerID is the membership paying back (debtor settling up).
	PayerID string

	// ReceiverID is the membership being paid (creditor).
	ReceiverID string

	Amount decimal.Decimal
	Status SettlementStatus

	CreatedAt time.Time

	// ResolvedAt and ResolvedBy are set when the settlement reaches a
	// terminal state.
	ResolvedAt time.Time
	ResolvedBy string
}

// NewSettlement creates a settlement in the CREATED state.
func NewSettlement(groupID, payerID, receiverID string, amount decimal.Decimal) (*Settlement, error) {
	if payerID == "" || receiverID == "" {
		return nil, fmt.Errorf("%w: payer and receiver are required", ErrInvalidSettlement)
	}
	if payerID == receiverID {
		return nil, fmt.Errorf("%w: payer and receiver must be different", ErrInvalidSettlement)
	}
	if err := RequirePositive(amount); err != nil {
		return nil, err
	}
	return &Settlement{
		GroupID:    groupID,
		PayerID:    payerID,
		ReceiverID: receiverID,
		Amount:     RoundMoney(amount),
		Status:     SettlementCreated,
		CreatedAt:  time.Now(),
	}, nil
}

func (s *Settlement) IsPending() bool {
	return s.Status == SettlementCreated
}

// CanBeConfirmedBy reports whether actor is the receiver. Only the member
// who got the money can say it arrived.
func (s *Settlement) CanBeConfirmedBy(actor *Membership) bool {
	return actor != nil && actor.ID == s.ReceiverID
}

// CanBeCancelledBy allows the payer, the receiver, or any admin of the group.
func (s *Settlement) CanBeCancelledBy(actor *Membership) bool {
	if actor == nil {
		return false
	}
	if actor.ID == s.PayerID || actor.ID == s.ReceiverID {
		return true
	}
	return actor.IsAdmin() && actor.GroupID == s.GroupID
}

// Confirm moves a CREATED settlement to CONFIRMED.
func (s *Settlement) Confirm(actor *Membership) (Event, error) {
	if !s.CanBeConfirmedBy(actor) {
		return Event{}, fmt.Errorf("%w: only the receiver can confirm settlement %s", ErrUnauthorized, s.ID)
	}
	if s.Status != SettlementCreated {
		return Event{}, fmt.Errorf("%w: cannot confirm a %s settlement", ErrInvalidStateTransition, s.Status)
	}
	s.resolve(SettlementConfirmed, actor.ID)
	return NewEvent(EventSettlementConfirmed, s.GroupID, s.ID, actor.ID, s.payload()), nil
}

// Cancel moves a CREATED settlement to CANCELLED. It has no balance effect.
func (s *Settlement) Cancel(actor *Membership) (Event, error) {
	if !s.CanBeCancelledBy(actor) {
		return Event{}, fmt.Errorf("%w: cannot cancel settlement %s", ErrUnauthorized, s.ID)
	}
	if s.Status != SettlementCreated {
		return Event{}, fmt.Errorf("%w: cannot cancel a %s settlement", ErrInvalidStateTransition, s.Status)
	}
	s.resolve(SettlementCancelled, actor.ID)
	return NewEvent(EventSettlementCancelled, s.GroupID, s.ID, actor.ID, s.payload()), nil
}

// ProposedEvent describes the creation of the settlement by actorID.
func (s *Settlement) ProposedEvent(actorID string) Event {
	return NewEvent(EventSettlementProposed, s.GroupID, s.ID, actorID, s.payload())
}

func (s *Settlement) resolve(status SettlementStatus, by string) {
	s.Status = status
	s.ResolvedAt = time.Now()
	s.ResolvedBy = by
}

func (s *Settlement) payload() map[string]string {
	return map[string]string{
		"amount":      s.Amount.StringFixed(MoneyScale),
		"payer_id":    s.PayerID,
		"receiver_id": s.ReceiverID,
	}
}
