package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

// Queries read committed state without taking the group lock. Callers are
// expected to have checked that the requester may see the group.

// GroupBalances returns every balance of the group ordered by membership ID.
func (c *Coordinator) GroupBalances(ctx context.Context, groupID string) ([]*models.Balance, error) {
	balances, err := c.store.ListBalancesByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	return balances, nil
}

// MemberBalance returns one membership's balance.
func (c *Coordinator) MemberBalance(ctx context.Context, membershipID string) (*models.Balance, error) {
	return c.store.GetBalanceByMembership(ctx, membershipID)
}

// SuggestSettlements runs the debt optimizer over the group's current
// balances. The suggestions are not persisted.
func (c *Coordinator) SuggestSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	ctx, span := c.tracer.Start(ctx, "ledger.suggest_settlements")
	defer span.End()

	balances, err := c.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	suggestions, err := calculator.OptimizeDebts(groupID, snapshot(balances))
	if err != nil {
		if errors.Is(err, models.ErrLedgerInconsistent) {
			c.logger.ErrorContext(ctx, "Group balances do not sum to zero", "group_id", groupID, "error", err)
		}
		span.RecordError(err)
		return nil, err
	}
	return suggestions, nil
}

// IsGroupSettled reports whether every balance in the group is zero.
func (c *Coordinator) IsGroupSettled(ctx context.Context, groupID string) (bool, error) {
	balances, err := c.GroupBalances(ctx, groupID)
	if err != nil {
		return false, err
	}
	for _, b := range balances {
		if !b.IsSettled() {
			return false, nil
		}
	}
	return true, nil
}

// TotalGroupDebt sums what the group's debtors owe, as a positive amount.
func (c *Coordinator) TotalGroupDebt(ctx context.Context, groupID string) (decimal.Decimal, error) {
	balances, err := c.GroupBalances(ctx, groupID)
	if err != nil {
		return decimal.Zero, err
	}
	debt, _ := calculator.Totals(snapshot(balances))
	return debt, nil
}

// TotalGroupCredit sums what the group's creditors are owed.
func (c *Coordinator) TotalGroupCredit(ctx context.Context, groupID string) (decimal.Decimal, error) {
	balances, err := c.GroupBalances(ctx, groupID)
	if err != nil {
		return decimal.Zero, err
	}
	_, credit := calculator.Totals(snapshot(balances))
	return credit, nil
}

// Debtors returns the balances below zero.
func (c *Coordinator) Debtors(ctx context.Context, groupID string) ([]*models.Balance, error) {
	return c.filterBalances(ctx, groupID, decimal.Decimal.IsNegative)
}

// Creditors returns the balances above zero.
func (c *Coordinator) Creditors(ctx context.Context, groupID string) ([]*models.Balance, error) {
	return c.filterBalances(ctx, groupID, decimal.Decimal.IsPositive)
}

func (c *Coordinator) filterBalances(ctx context.Context, groupID string, keep func(decimal.Decimal) bool) ([]*models.Balance, error) {
	balances, err := c.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	var out []*models.Balance
	for _, b := range balances {
		if keep(b.Amount) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ExpenseHistory returns the group's expenses newest first.
func (c *Coordinator) ExpenseHistory(ctx context.Context, groupID string, includeDeleted bool) ([]*models.Expense, error) {
	expenses, err := c.store.ListExpensesByGroup(ctx, groupID, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// GetExpense returns an expense with its shares.
func (c *Coordinator) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	return c.store.GetExpense(ctx, expenseID)
}

// GetSettlement returns a settlement.
func (c *Coordinator) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	return c.store.GetSettlement(ctx, settlementID)
}

// GroupSettlements returns every settlement of the group newest first.
func (c *Coordinator) GroupSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	settlements, err := c.store.ListSettlementsByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	return settlements, nil
}

// PendingSettlements returns the group's CREATED settlements.
func (c *Coordinator) PendingSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	return c.settlementsWithStatus(ctx, groupID, models.SettlementCreated)
}

// CompletedSettlements returns the group's CONFIRMED settlements.
func (c *Coordinator) CompletedSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	return c.settlementsWithStatus(ctx, groupID, models.SettlementConfirmed)
}

func (c *Coordinator) settlementsWithStatus(ctx context.Context, groupID string, status models.SettlementStatus) ([]*models.Settlement, error) {
	all, err := c.GroupSettlements(ctx, groupID)
	if err != nil {
		return nil, err
	}
	var out []*models.Settlement
	for _, s := range all {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

// CanConfirm reports whether actorID could confirm the settlement right now.
func (c *Coordinator) CanConfirm(ctx context.Context, settlementID, actorID string) (bool, error) {
	s, err := c.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return false, err
	}
	actor, err := c.store.GetMembership(ctx, actorID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.IsPending() && actor.BelongsTo(s.GroupID) && s.CanBeConfirmedBy(actor), nil
}

// GroupEvents returns the group's event log oldest first.
func (c *Coordinator) GroupEvents(ctx context.Context, groupID string) ([]models.Event, error) {
	evs, err := c.store.ListEventsByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return evs, nil
}

func snapshot(balances []*models.Balance) []calculator.MemberBalance {
	out := make([]calculator.MemberBalance, len(balances))
	for i, b := range balances {
		out[i] = calculator.MemberBalance{MembershipID: b.MembershipID, Amount: b.Amount}
	}
	return out
}
