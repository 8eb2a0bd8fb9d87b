package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExpense(t *testing.T) *Expense {
	t.Helper()
	e, err := NewExpense("g1", payer.ID, payer.ID, dec("100"), "Dinner", CategoryFood, time.Time{})
	require.NoError(t, err)
	e.ID = "e1"
	e.Shares = []ParticipantShare{
		{MembershipID: payer.ID, Amount: dec("50")},
		{MembershipID: receiver.ID, Amount: dec("50")},
	}
	return e
}

func TestNewExpense_Validation(t *testing.T) {
	_, err := NewExpense("g1", "p", "p", dec("0"), "x", CategoryFood, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewExpense("g1", "p", "p", dec("10"), "   ", CategoryFood, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidExpense)

	_, err = NewExpense("g1", "p", "p", dec("10"), "x", Category("groceries"), time.Time{})
	assert.ErrorIs(t, err, ErrInvalidExpense)

	e, err := NewExpense("g1", "p", "p", dec("10"), " Taxi ", "", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, CategoryOther, e.Category)
	assert.Equal(t, "Taxi", e.Description)
	assert.False(t, e.ExpenseDate.IsZero())
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Transport")
	require.NoError(t, err)
	assert.Equal(t, CategoryTransport, c)

	_, err = ParseCategory("rockets")
	assert.ErrorIs(t, err, ErrInvalidExpense)
}

func TestExpense_Permissions(t *testing.T) {
	e := newTestExpense(t)

	assert.True(t, e.IsEditableBy(payer))
	assert.True(t, e.IsEditableBy(admin))
	assert.False(t, e.IsEditableBy(receiver))
	assert.False(t, e.IsEditableBy(foreign), "admin of another group")
	assert.False(t, e.CanBeDeletedBy(nil))
}

func TestExpense_Modify(t *testing.T) {
	e := newTestExpense(t)
	amount := dec("80")
	desc := "Late dinner"

	_, err := e.Modify(ExpenseChanges{Amount: &amount}, receiver)
	assert.ErrorIs(t, err, ErrUnauthorized)

	ev, err := e.Modify(ExpenseChanges{Amount: &amount, Description: &desc}, admin)
	require.NoError(t, err)
	assert.Equal(t, EventExpenseUpdated, ev.Type)
	assert.Equal(t, "80.00", ev.Payload["amount"])
	assert.Equal(t, desc, e.Description)
	assert.Equal(t, CategoryFood, e.Category)

	bad := dec("-1")
	_, err = e.Modify(ExpenseChanges{Amount: &bad}, payer)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.True(t, amount.Equal(e.Amount))
}

func TestExpense_MarkDeleted(t *testing.T) {
	e := newTestExpense(t)

	_, err := e.MarkDeleted(receiver)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, e.Deleted)

	ev, err := e.MarkDeleted(payer)
	require.NoError(t, err)
	assert.True(t, e.Deleted)
	assert.Equal(t, EventExpenseDeleted, ev.Type)

	_, err = e.MarkDeleted(payer)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	amount := dec("1")
	_, err = e.Modify(ExpenseChanges{Amount: &amount}, payer)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestExpense_IsConsistent(t *testing.T) {
	e := newTestExpense(t)
	assert.True(t, e.IsConsistent())
	assert.Equal(t, []string{payer.ID, receiver.ID}, e.ParticipantIDs())

	e.Shares[0].Amount = dec("49.99")
	assert.False(t, e.IsConsistent())
}
