package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// RecordExpenseInput describes a new equally split expense.
type RecordExpenseInput struct {
	GroupID string
	// ActorID is the membership recording the expense.
	ActorID string
	// PayerID is the membership that paid. It need not be a participant.
	PayerID     string
	Amount      decimal.Decimal
	Description string
	Category    models.Category
	// ExpenseDate defaults to now.
	ExpenseDate time.Time
	// Participants share the amount equally. The order decides who absorbs
	// rounding residue.
	Participants []string
}

// RecordExpense persists an expense, splits it equally among the
// participants and moves their balances: the payer is credited the amount
// minus their own share, every other participant is debited their share.
func (c *Coordinator) RecordExpense(ctx context.Context, in RecordExpenseInput) (*models.Expense, []models.Event, error) {
	var expense *models.Expense
	evs, err := c.Execute(ctx, "record_expense", in.GroupID, func(ctx context.Context, tx storage.Repository) ([]models.Event, error) {
		e, err := models.NewExpense(in.GroupID, in.PayerID, in.ActorID, in.Amount, in.Description, in.Category, in.ExpenseDate)
		if err != nil {
			return nil, err
		}

		if _, err := activeGroup(ctx, tx, in.GroupID); err != nil {
			return nil, err
		}
		if _, err := actorIn(ctx, tx, in.GroupID, in.ActorID); err != nil {
			return nil, err
		}
		if _, err := memberIn(ctx, tx, in.GroupID, in.PayerID, models.ErrInvalidExpense); err != nil {
			return nil, err
		}
		for _, p := range in.Participants {
			if _, err := memberIn(ctx, tx, in.GroupID, p, models.ErrInvalidExpense); err != nil {
				return nil, err
			}
		}

		shares, err := calculator.SplitEqually(e.Amount, in.Participants)
		if err != nil {
			return nil, err
		}
		e.Shares = shares

		if err := tx.CreateExpense(ctx, e); err != nil {
			return nil, err
		}
		if err := applyDeltas(ctx, tx, calculator.ExpenseDeltas(e.PayerID, e.Amount, e.Shares)); err != nil {
			return nil, err
		}

		expense = e
		return []models.Event{e.RecordedEvent()}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return expense, evs, nil
}

// EditExpenseInput lists the changes to an expense. Nil fields are kept.
type EditExpenseInput struct {
	ExpenseID   string
	ActorID     string
	Amount      *decimal.Decimal
	Description *string
	Category    *models.Category
}

// EditExpense changes an expense on behalf of its creator or a group admin.
// Balances move only when the amount changes, by the difference between the
// new and the old split.
func (c *Coordinator) EditExpense(ctx context.Context, in EditExpenseInput) (*models.Expense, []models.Event, error) {
	groupID, err := c.expenseGroup(ctx, in.ExpenseID)
	if err != nil {
		return nil, nil, err
	}

	var expense *models.Expense
	evs, err := c.Execute(ctx, "edit_expense", groupID, func(ctx context.Context, tx storage.Repository) ([]models.Event, error) {
		e, err := tx.GetExpense(ctx, in.ExpenseID)
		if err != nil {
			return nil, err
		}
		actor, err := actorIn(ctx, tx, e.GroupID, in.ActorID)
		if err != nil {
			return nil, err
		}

		oldAmount, oldShares := e.Amount, e.Shares
		ev, err := e.Modify(models.ExpenseChanges{
			Amount:      in.Amount,
			Description: in.Description,
			Category:    in.Category,
		}, actor)
		if err != nil {
			return nil, err
		}

		if !e.Amount.Equal(oldAmount) {
			if _, err := activeGroup(ctx, tx, e.GroupID); err != nil {
				return nil, err
			}
			newShares, deltas, err := calculator.EditDeltas(e.PayerID, oldAmount, oldShares, e.Amount)
			if err != nil {
				return nil, err
			}
			if err := requireActiveParties(ctx, tx, e.GroupID, deltas); err != nil {
				return nil, err
			}
			e.Shares = newShares
			if err := applyDeltas(ctx, tx, deltas); err != nil {
				return nil, err
			}
			ev.Payload["previous_amount"] = oldAmount.StringFixed(models.MoneyScale)
		}

		if err := tx.UpdateExpense(ctx, e); err != nil {
			return nil, err
		}

		expense = e
		return []models.Event{ev}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return expense, evs, nil
}

// DeleteExpense soft-deletes an expense and reverses its balance effect.
func (c *Coordinator) DeleteExpense(ctx context.Context, expenseID, actorID string) (*models.Expense, []models.Event, error) {
	groupID, err := c.expenseGroup(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}

	var expense *models.Expense
	evs, err := c.Execute(ctx, "delete_expense", groupID, func(ctx context.Context, tx storage.Repository) ([]models.Event, error) {
		e, err := tx.GetExpense(ctx, expenseID)
		if err != nil {
			return nil, err
		}
		actor, err := actorIn(ctx, tx, e.GroupID, actorID)
		if err != nil {
			return nil, err
		}

		ev, err := e.MarkDeleted(actor)
		if err != nil {
			return nil, err
		}
		if _, err := activeGroup(ctx, tx, e.GroupID); err != nil {
			return nil, err
		}
		reversal := calculator.ReversalDeltas(e.PayerID, e.Amount, e.Shares)
		if err := requireActiveParties(ctx, tx, e.GroupID, reversal); err != nil {
			return nil, err
		}
		if err := applyDeltas(ctx, tx, reversal); err != nil {
			return nil, err
		}
		if err := tx.UpdateExpense(ctx, e); err != nil {
			return nil, err
		}

		expense = e
		return []models.Event{ev}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return expense, evs, nil
}

// expenseGroup finds the group to lock for an expense command. An expense
// never changes group, so reading it before the lock is safe.
func (c *Coordinator) expenseGroup(ctx context.Context, expenseID string) (string, error) {
	e, err := c.store.GetExpense(ctx, expenseID)
	if err != nil {
		return "", fmt.Errorf("failed to find expense: %w", err)
	}
	return e.GroupID, nil
}
