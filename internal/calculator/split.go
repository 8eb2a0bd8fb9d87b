package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Deltas maps a membership ID to the signed amount its balance must move by.
type Deltas map[string]decimal.Decimal

// MembershipIDs returns the keys in ascending order so callers touch
// balances in a stable sequence.
func (d Deltas) MembershipIDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sum adds up every delta. A correct set of expense deltas sums to zero.
func (d Deltas) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range d {
		total = total.Add(v)
	}
	return total
}

// SplitEqually divides total among participants in equal shares.
//
// Algorithm: share = round_half_up(total / N, 2). The residue
// total - N*share is at most N/2 cents; it is handed out one cent at a time
// to the participants in the order given, so the shares always add up to
// total exactly.
func SplitEqually(total decimal.Decimal, participants []string) ([]models.ParticipantShare, error) {
	if err := models.RequirePositive(total); err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: must have at least one participant", models.ErrInvalidExpense)
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if p == "" {
			return nil, fmt.Errorf("%w: empty participant id", models.ErrInvalidExpense)
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: participant %s listed twice", models.ErrInvalidExpense, p)
		}
		seen[p] = true
	}

	total = models.RoundMoney(total)
	n := decimal.NewFromInt(int64(len(participants)))
	share := total.DivRound(n, models.MoneyScale)

	shares := make([]models.ParticipantShare, len(participants))
	for i, p := range participants {
		shares[i] = models.ParticipantShare{MembershipID: p, Amount: share}
	}

	residual := total.Sub(share.Mul(n))
	step := models.Cent
	if residual.IsNegative() {
		step = step.Neg()
	}
	cents := residual.Div(models.Cent).Abs().IntPart()
	for i := int64(0); i < cents; i++ {
		shares[i].Amount = shares[i].Amount.Add(step)
	}

	for _, s := range shares {
		if !s.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: %s is too small to split %d ways",
				models.ErrInvalidExpense, total.StringFixed(models.MoneyScale), len(participants))
		}
	}
	return shares, nil
}

// ExpenseDeltas returns the balance movements caused by an expense: the
// payer is credited total minus their own share (zero if they did not take
// part) and every other participant is debited their share.
func ExpenseDeltas(payerID string, total decimal.Decimal, shares []models.ParticipantShare) Deltas {
	deltas := Deltas{payerID: total}
	for _, s := range shares {
		deltas[s.MembershipID] = deltas[s.MembershipID].Sub(s.Amount)
	}
	for id, v := range deltas {
		if v.IsZero() {
			delete(deltas, id)
		}
	}
	return deltas
}

// ReversalDeltas undoes ExpenseDeltas for a soft-deleted expense.
func ReversalDeltas(payerID string, total decimal.Decimal, shares []models.ParticipantShare) Deltas {
	deltas := ExpenseDeltas(payerID, total, shares)
	for id, v := range deltas {
		deltas[id] = v.Neg()
	}
	return deltas
}

// EditDeltas recomputes the shares of an expense whose amount changed and
// returns them with the signed adjustment each balance needs. Participants
// whose position does not move are left out.
func EditDeltas(payerID string, oldTotal decimal.Decimal, oldShares []models.ParticipantShare, newTotal decimal.Decimal) ([]models.ParticipantShare, Deltas, error) {
	ids := make([]string, len(oldShares))
	for i, s := range oldShares {
		ids[i] = s.MembershipID
	}

	newShares, err := SplitEqually(newTotal, ids)
	if err != nil {
		return nil, nil, err
	}

	deltas := ExpenseDeltas(payerID, newTotal, newShares)
	for id, v := range ExpenseDeltas(payerID, oldTotal, oldShares) {
		deltas[id] = deltas[id].Sub(v)
	}
	for id, v := range deltas {
		if v.IsZero() {
			delete(deltas, id)
		}
	}
	return newShares, deltas, nil
}
