package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is a membership's net monetary position inside its group.
// Positive means the member is owed money, negative means the member owes
// money, zero means settled. Balances are never deleted, only zeroed.
type Balance struct {
	// ID is empty until the balance is persisted.
	ID string

	MembershipID string
	GroupID      string

	// Amount is always rounded to cents.
	Amount decimal.Decimal

	UpdatedAt time.Time

	// Version is bumped by the store on every successful write and checked
	// before the next one.
	Version int64
}

// NewBalance opens a zero balance for an active membership.
func NewBalance(m *Membership) *Balance {
	return &Balance{
		MembershipID: m.ID,
		GroupID:      m.GroupID,
		Amount:       decimal.Zero,
		UpdatedAt:    time.Now(),
	}
}

// Increase adds a positive amount (more credit, or less debt).
func (b *Balance) Increase(amount decimal.Decimal) error {
	if err := RequirePositive(amount); err != nil {
		return err
	}
	b.Amount = RoundMoney(b.Amount.Add(amount))
	b.touch()
	return nil
}

// Decrease subtracts a positive amount (less credit, or more debt).
func (b *Balance) Decrease(amount decimal.Decimal) error {
	if err := RequirePositive(amount); err != nil {
		return err
	}
	b.Amount = RoundMoney(b.Amount.Sub(amount))
	b.touch()
	return nil
}

// Apply adds a signed delta. A zero delta, including the zero Decimal value,
// leaves both the amount and the timestamp untouched.
func (b *Balance) Apply(delta decimal.Decimal) {
	if delta.IsZero() {
		return
	}
	b.Amount = RoundMoney(b.Amount.Add(delta))
	b.touch()
}

// Settle forces the balance to exactly zero.
func (b *Balance) Settle() {
	b.Amount = decimal.Zero
	b.touch()
}

// IsSettled reports whether the amount equals zero.
func (b *Balance) IsSettled() bool {
	return b.Amount.IsZero()
}

// Debt returns the absolute amount owed, or zero for a non-negative balance.
func (b *Balance) Debt() decimal.Decimal {
	if b.Amount.IsNegative() {
		return b.Amount.Abs()
	}
	return decimal.Zero
}

func (b *Balance) touch() {
	b.UpdatedAt = time.Now()
}
