package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies an expense.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryAccommodation Category = "accommodation"
	CategoryEntertainment Category = "entertainment"
	CategoryUtilities     Category = "utilities"
	CategoryOther         Category = "other"
)

var categories = map[Category]bool{
	CategoryFood:          true,
	CategoryTransport:     true,
	CategoryAccommodation: true,
	CategoryEntertainment: true,
	CategoryUtilities:     true,
	CategoryOther:         true,
}

// ParseCategory accepts a category name in any case. An empty name maps to
// CategoryOther.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryOther, nil
	}
	c := Category(s)
	if !categories[c] {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidExpense, s)
	}
	return c, nil
}

// ParticipantShare is the portion of an expense attributed to one participant.
type ParticipantShare struct {
	MembershipID string
	Amount       decimal.Decimal
}

// Expense is an amount paid by one member and shared by participants.
// Expenses are soft-deleted only.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID      string
	GroupID string

	// PayerID is the membership that paid the full amount.
	PayerID string

	// CreatedBy is the membership that recorded the expense. It may equal PayerID.
	CreatedBy string

	Amount      decimal.Decimal
	Description string
	Category    Category

	ExpenseDate time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Deleted bool

	// Shares are kept in participant order; the order decides who absorbs
	// rounding residue.
	Shares []ParticipantShare
}

// NewExpense validates the scalar fields of a new expense. Shares are filled
// in by the split calculator.
func NewExpense(groupID, payerID, createdBy string, amount decimal.Decimal, description string, category Category, expenseDate time.Time) (*Expense, error) {
	if err := RequirePositive(amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidExpense)
	}
	if category == "" {
		category = CategoryOther
	}
	if !categories[category] {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidExpense, category)
	}
	now := time.Now()
	if expenseDate.IsZero() {
		expenseDate = now
	}
	return &Expense{
		GroupID:     groupID,
		PayerID:     payerID,
		CreatedBy:   createdBy,
		Amount:      RoundMoney(amount),
		Description: strings.TrimSpace(description),
		Category:    category,
		ExpenseDate: expenseDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsEditableBy reports whether actor may change the expense: its creator or
// an admin of the same group.
func (e *Expense) IsEditableBy(actor *Membership) bool {
	if actor == nil || actor.GroupID != e.GroupID {
		return false
	}
	return actor.IsAdmin() || actor.ID == e.CreatedBy
}

// CanBeDeletedBy follows the same rule as IsEditableBy.
func (e *Expense) CanBeDeletedBy(actor *Membership) bool {
	return e.IsEditableBy(actor)
}

// ParticipantIDs returns the participant memberships in share order.
func (e *Expense) ParticipantIDs() []string {
	ids := make([]string, len(e.Shares))
	for i, s := range e.Shares {
		ids[i] = s.MembershipID
	}
	return ids
}

// ShareTotal sums the participant shares.
func (e *Expense) ShareTotal() decimal.Decimal {
	total := decimal.Zero
	for _, s := range e.Shares {
		total = total.Add(s.Amount)
	}
	return total
}

// IsConsistent reports whether the shares add up to the amount.
func (e *Expense) IsConsistent() bool {
	return e.ShareTotal().Equal(e.Amount)
}

// RecordedEvent describes the creation of the expense.
func (e *Expense) RecordedEvent() Event {
	return NewEvent(EventExpenseRecorded, e.GroupID, e.ID, e.CreatedBy, map[string]string{
		"amount":       e.Amount.StringFixed(MoneyScale),
		"payer_id":     e.PayerID,
		"description":  e.Description,
		"participants": fmt.Sprint(len(e.Shares)),
	})
}

// ExpenseChanges lists the fields an edit may touch. Nil fields are kept.
type ExpenseChanges struct {
	Amount      *decimal.Decimal
	Description *string
	Category    *Category
}

// Modify applies changes on behalf of actor. It does not touch Shares; the
// caller recomputes them when the amount changes.
func (e *Expense) Modify(changes ExpenseChanges, actor *Membership) (Event, error) {
	if !e.IsEditableBy(actor) {
		return Event{}, fmt.Errorf("%w: only the creator or an admin can edit expense %s", ErrUnauthorized, e.ID)
	}
	if e.Deleted {
		return Event{}, fmt.Errorf("%w: expense %s is deleted", ErrInvalidStateTransition, e.ID)
	}
	if changes.Amount != nil {
		if err := RequirePositive(*changes.Amount); err != nil {
			return Event{}, err
		}
	}
	if changes.Description != nil && strings.TrimSpace(*changes.Description) == "" {
		return Event{}, fmt.Errorf("%w: description is required", ErrInvalidExpense)
	}
	if changes.Category != nil && !categories[*changes.Category] {
		return Event{}, fmt.Errorf("%w: unknown category %q", ErrInvalidExpense, *changes.Category)
	}

	if changes.Amount != nil {
		e.Amount = RoundMoney(*changes.Amount)
	}
	if changes.Description != nil {
		e.Description = strings.TrimSpace(*changes.Description)
	}
	if changes.Category != nil {
		e.Category = *changes.Category
	}
	e.UpdatedAt = time.Now()

	return NewEvent(EventExpenseUpdated, e.GroupID, e.ID, actor.ID, map[string]string{
		"amount":      e.Amount.StringFixed(MoneyScale),
		"description": e.Description,
		"category":    string(e.Category),
	}), nil
}

// MarkDeleted soft-deletes the expense on behalf of actor.
func (e *Expense) MarkDeleted(actor *Membership) (Event, error) {
	if !e.CanBeDeletedBy(actor) {
		return Event{}, fmt.Errorf("%w: only the creator or an admin can delete expense %s", ErrUnauthorized, e.ID)
	}
	if e.Deleted {
		return Event{}, fmt.Errorf("%w: expense %s already deleted", ErrInvalidStateTransition, e.ID)
	}
	e.Deleted = true
	e.UpdatedAt = time.Now()

	return NewEvent(EventExpenseDeleted, e.GroupID, e.ID, actor.ID, map[string]string{
		"amount":      e.Amount.StringFixed(MoneyScale),
		"description": e.Description,
	}), nil
}
