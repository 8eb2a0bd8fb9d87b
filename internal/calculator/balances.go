package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// MemberBalance is one entry of a balance snapshot.
type MemberBalance struct {
	MembershipID string
	Amount       decimal.Decimal // Positive = owed money, Negative = owes money
}

// Totals returns the total owed by debtors and the total owed to creditors,
// both as non-negative amounts.
func Totals(balances []MemberBalance) (debt, credit decimal.Decimal) {
	debt, credit = decimal.Zero, decimal.Zero
	for _, b := range balances {
		switch {
		case b.Amount.IsNegative():
			debt = debt.Add(b.Amount.Abs())
		case b.Amount.IsPositive():
			credit = credit.Add(b.Amount)
		}
	}
	return debt, credit
}

// CheckClosed returns ErrLedgerInconsistent unless the snapshot sums to zero.
func CheckClosed(balances []MemberBalance) error {
	debt, credit := Totals(balances)
	if !debt.Equal(credit) {
		return fmt.Errorf("%w: total debt %s != total credit %s", models.ErrLedgerInconsistent,
			debt.StringFixed(models.MoneyScale), credit.StringFixed(models.MoneyScale))
	}
	return nil
}

type party struct {
	id     string
	amount decimal.Decimal
}

// OptimizeDebts turns a snapshot of net balances into suggested settlements
// that zero every balance once confirmed.
//
// Algorithm (greedy, not a proven minimum):
//   - Split members into debtors (by absolute amount) and creditors; skip zeros
//   - Sort both descending by amount, ties by membership ID
//   - Match the largest debtor with the largest creditor for the smaller of
//     the two amounts, then advance past whoever is exhausted
//
// The returned settlements are CREATED and unpersisted. A snapshot whose
// debts and credits differ is a data-integrity bug and fails with
// ErrLedgerInconsistent rather than leaving a party unmatched.
func OptimizeDebts(groupID string, balances []MemberBalance) ([]*models.Settlement, error) {
	if err := CheckClosed(balances); err != nil {
		return nil, err
	}

	var debtors, creditors []party
	for _, b := range balances {
		switch {
		case b.Amount.IsNegative():
			debtors = append(debtors, party{id: b.MembershipID, amount: b.Amount.Abs()})
		case b.Amount.IsPositive():
			creditors = append(creditors, party{id: b.MembershipID, amount: b.Amount})
		}
	}
	sortParties(debtors)
	sortParties(creditors)

	var settlements []*models.Settlement
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := &debtors[i], &creditors[j]

		amount := decimal.Min(debtor.amount, creditor.amount)
		s, err := models.NewSettlement(groupID, debtor.id, creditor.id, amount)
		if err != nil {
			return nil, fmt.Errorf("failed to build suggestion: %w", err)
		}
		settlements = append(settlements, s)

		debtor.amount = debtor.amount.Sub(amount)
		creditor.amount = creditor.amount.Sub(amount)
		if debtor.amount.IsZero() {
			i++
		}
		if creditor.amount.IsZero() {
			j++
		}
	}

	return settlements, nil
}

func sortParties(ps []party) {
	sort.Slice(ps, func(a, b int) bool {
		if c := ps[a].amount.Cmp(ps[b].amount); c != 0 {
			return c > 0
		}
		return ps[a].id < ps[b].id
	})
}
