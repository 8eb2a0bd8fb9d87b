package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// ProposeSettlementInput describes a repayment from a debtor to a creditor.
type ProposeSettlementInput struct {
	GroupID string
	// ActorID must be the payer or an admin of the group.
	ActorID    string
	PayerID    string
	ReceiverID string
	Amount     decimal.Decimal
}

// ProposeSettlement records a CREATED settlement. Balances do not move until
// the receiver confirms it. The payer must currently owe at least amount.
func (c *Coordinator) ProposeSettlement(ctx context.Context, in ProposeSettlementInput) (*models.Settlement, []models.Event, error) {
	var settlement *models.Settlement
	evs, err := c.Execute(ctx, "propose_settlement", in.GroupID, func(ctx context.Context, tx storage.Repository) ([]models.Event, error) {
		s, err := models.NewSettlement(in.GroupID, in.PayerID, in.ReceiverID, in.Amount)
		if err != nil {
			return nil, err
		}

		if _, err := activeGroup(ctx, tx, in.GroupID); err != nil {
			return nil, err
		}
		actor, err := actorIn(ctx, tx, in.GroupID, in.ActorID)
		if err != nil {
			return nil, err
		}
		if actor.ID != in.PayerID && !actor.IsAdmin() {
			return nil, fmt.Errorf("%w: only the payer or an admin can propose a settlement", models.ErrUnauthorized)
		}
		if _, err := memberIn(ctx, tx, in.GroupID, in.PayerID, models.ErrInvalidSettlement); err != nil {
			return nil, err
		}
		if _, err := memberIn(ctx, tx, in.GroupID, in.ReceiverID, models.ErrInvalidSettlement); err != nil {
			return nil, err
		}

		balance, err := tx.GetBalanceByMembership(ctx, in.PayerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load payer balance: %w", err)
		}
		if !balance.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: payer %s has no debt to settle", models.ErrExceedsDebt, in.PayerID)
		}
		if s.Amount.GreaterThan(balance.Debt()) {
			return nil, fmt.Errorf("%w: amount %s exceeds debt %s", models.ErrExceedsDebt,
				s.Amount.StringFixed(models.MoneyScale), balance.Debt().StringFixed(models.MoneyScale))
		}

		if err := tx.CreateSettlement(ctx, s); err != nil {
			return nil, err
		}

		settlement = s
		return []models.Event{s.ProposedEvent(actor.ID)}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return settlement, evs, nil
}

// ConfirmSettlement completes a settlement on behalf of its receiver: the
// payer's balance increases and the receiver's decreases by the amount.
// Any other actor gets models.ErrUnauthorized and nothing changes.
func (c *Coordinator) ConfirmSettlement(ctx context.Context, settlementID, actorID string) (*models.Settlement, []models.Event, error) {
	groupID, err := c.settlementGroup(ctx, settlementID)
	if err != nil {
		return nil, nil, err
	}

	var settlement *models.Settlement
	evs, err := c.Execute(ctx, "confirm_settlement", groupID, func(ctx context.Context, tx storage.Repository) ([]models.Event, error) {
		s, err := tx.GetSettlement(ctx, settlementID)
		if err != nil {
			return nil, err
		}
		actor, err := actorIn(ctx, tx, s.GroupID, actorID)
		if err != nil {
			return nil, err
		}

		ev, err := s.Confirm(actor)
		if err != nil {
			return nil, err
		}
		if _, err := activeGroup(ctx, tx, s.GroupID); err != nil {
			return nil, err
		}

		if err := moveBalance(ctx, tx, s.PayerID, (*models.Balance).Increase, s.Amount); err != nil {
			return nil, err
		}
		if err := moveBalance(ctx, tx, s.ReceiverID, (*models.Balance).Decrease, s.Amount); err != nil {
			return nil, err
		}
		if err := tx.UpdateSettlement(ctx, s); err != nil {
			return nil, err
		}

		settlement = s
		return []models.Event{ev}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return settlement, evs, nil
}

// CancelSettlement withdraws a pending settlement. Payer, receiver or a
// group admin may cancel. Balances are untouched.
func (c *Coordinator) CancelSettlement(ctx context.Context, settlementID, actorID string) (*models.Settlement, []models.Event, error) {
	groupID, err := c.settlementGroup(ctx, settlementID)
	if err != nil {
		return nil, nil, err
	}

	var settlement *models.Settlement
	evs, err := c.Execute(ctx, "cancel_settlement", groupID, func(ctx context.Context, tx storage.Repository) ([]models.Event, error) {
		s, err := tx.GetSettlement(ctx, settlementID)
		if err != nil {
			return nil, err
		}
		actor, err := actorIn(ctx, tx, s.GroupID, actorID)
		if err != nil {
			return nil, err
		}

		ev, err := s.Cancel(actor)
		if err != nil {
			return nil, err
		}
		if err := tx.UpdateSettlement(ctx, s); err != nil {
			return nil, err
		}

		settlement = s
		return []models.Event{ev}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return settlement, evs, nil
}

func moveBalance(ctx context.Context, tx storage.Repository, membershipID string,
	op func(*models.Balance, decimal.Decimal) error, amount decimal.Decimal) error {
	balance, err := tx.GetBalanceByMembership(ctx, membershipID)
	if err != nil {
		return fmt.Errorf("failed to load balance of %s: %w", membershipID, err)
	}
	if err := op(balance, amount); err != nil {
		return err
	}
	return tx.UpdateBalance(ctx, balance)
}

// settlementGroup finds the group to lock for a settlement command.
func (c *Coordinator) settlementGroup(ctx context.Context, settlementID string) (string, error) {
	s, err := c.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return "", fmt.Errorf("failed to find settlement: %w", err)
	}
	return s.GroupID, nil
}
