package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSplitEqually(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		participants []string
		wantShares   []string
		wantErr      error
	}{
		{
			name:         "two people even split",
			total:        "100.00",
			participants: []string{"Alice", "Bob"},
			wantShares:   []string{"50.00", "50.00"},
		},
		{
			name:         "three people, first absorbs the extra cent",
			total:        "100.00",
			participants: []string{"Alice", "Bob", "Charlie"},
			wantShares:   []string{"33.34", "33.33", "33.33"},
		},
		{
			name:         "rounded share overshoots, first gives a cent back",
			total:        "0.05",
			participants: []string{"Alice", "Bob"},
			wantShares:   []string{"0.02", "0.03"},
		},
		{
			name:         "seven ways, rounded share overshoots by a cent",
			total:        "10.00",
			participants: []string{"a", "b", "c", "d", "e", "f", "g"},
			wantShares:   []string{"1.42", "1.43", "1.43", "1.43", "1.43", "1.43", "1.43"},
		},
		{
			name:         "single participant takes everything",
			total:        "12.345",
			participants: []string{"Alice"},
			wantShares:   []string{"12.35"},
		},
		{
			name:         "zero amount",
			total:        "0",
			participants: []string{"Alice"},
			wantErr:      models.ErrInvalidAmount,
		},
		{
			name:         "no participants",
			total:        "10",
			participants: nil,
			wantErr:      models.ErrInvalidExpense,
		},
		{
			name:         "duplicate participant",
			total:        "10",
			participants: []string{"Alice", "Alice"},
			wantErr:      models.ErrInvalidExpense,
		},
		{
			name:         "too small to split",
			total:        "0.01",
			participants: []string{"Alice", "Bob"},
			wantErr:      models.ErrInvalidExpense,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := SplitEqually(dec(tt.total), tt.participants)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SplitEqually() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitEqually() unexpected error: %v", err)
			}
			if len(shares) != len(tt.wantShares) {
				t.Fatalf("got %d shares, want %d", len(shares), len(tt.wantShares))
			}
			sum := decimal.Zero
			for i, s := range shares {
				if s.MembershipID != tt.participants[i] {
					t.Errorf("share %d belongs to %s, want %s", i, s.MembershipID, tt.participants[i])
				}
				if got := s.Amount.StringFixed(2); got != tt.wantShares[i] {
					t.Errorf("share %d = %s, want %s", i, got, tt.wantShares[i])
				}
				sum = sum.Add(s.Amount)
			}
			if !sum.Equal(models.RoundMoney(dec(tt.total))) {
				t.Errorf("shares sum to %s, want %s", sum, tt.total)
			}
		})
	}
}

func TestExpenseDeltas(t *testing.T) {
	shares, err := SplitEqually(dec("100"), []string{"Alice", "Bob"})
	if err != nil {
		t.Fatal(err)
	}

	deltas := ExpenseDeltas("Alice", dec("100"), shares)
	if got := deltas["Alice"].StringFixed(2); got != "50.00" {
		t.Errorf("payer delta = %s, want 50.00", got)
	}
	if got := deltas["Bob"].StringFixed(2); got != "-50.00" {
		t.Errorf("participant delta = %s, want -50.00", got)
	}
	if !deltas.Sum().IsZero() {
		t.Errorf("deltas sum to %s, want 0", deltas.Sum())
	}
}

func TestExpenseDeltas_PayerNotParticipating(t *testing.T) {
	shares, err := SplitEqually(dec("30"), []string{"Bob", "Charlie"})
	if err != nil {
		t.Fatal(err)
	}

	deltas := ExpenseDeltas("Alice", dec("30"), shares)
	if got := deltas["Alice"].StringFixed(2); got != "30.00" {
		t.Errorf("payer delta = %s, want 30.00", got)
	}
	if !deltas.Sum().IsZero() {
		t.Errorf("deltas sum to %s, want 0", deltas.Sum())
	}
}

func TestExpenseDeltas_SoloExpenseMovesNothing(t *testing.T) {
	shares, err := SplitEqually(dec("20"), []string{"Alice"})
	if err != nil {
		t.Fatal(err)
	}
	if deltas := ExpenseDeltas("Alice", dec("20"), shares); len(deltas) != 0 {
		t.Errorf("expected no deltas, got %v", deltas)
	}
}

func TestReversalDeltas(t *testing.T) {
	participants := []string{"Alice", "Bob", "Charlie"}
	shares, err := SplitEqually(dec("100"), participants)
	if err != nil {
		t.Fatal(err)
	}

	forward := ExpenseDeltas("Alice", dec("100"), shares)
	reverse := ReversalDeltas("Alice", dec("100"), shares)
	for _, id := range participants {
		if !forward[id].Add(reverse[id]).IsZero() {
			t.Errorf("%s: forward %s + reverse %s != 0", id, forward[id], reverse[id])
		}
	}
}

func TestEditDeltas(t *testing.T) {
	participants := []string{"Alice", "Bob", "Charlie"}
	oldShares, err := SplitEqually(dec("90"), participants)
	if err != nil {
		t.Fatal(err)
	}

	newShares, deltas, err := EditDeltas("Alice", dec("90"), oldShares, dec("120"))
	if err != nil {
		t.Fatalf("EditDeltas() error: %v", err)
	}

	for _, s := range newShares {
		if got := s.Amount.StringFixed(2); got != "40.00" {
			t.Errorf("%s new share = %s, want 40.00", s.MembershipID, got)
		}
	}
	// Alice's credit goes from 60 to 80; Bob and Charlie each owe 10 more.
	want := map[string]string{"Alice": "20.00", "Bob": "-10.00", "Charlie": "-10.00"}
	for id, w := range want {
		if got := deltas[id].StringFixed(2); got != w {
			t.Errorf("%s delta = %s, want %s", id, got, w)
		}
	}
	if !deltas.Sum().IsZero() {
		t.Errorf("deltas sum to %s, want 0", deltas.Sum())
	}

	// Applying the original deltas and then the edit equals recording the new amount directly.
	combined := ExpenseDeltas("Alice", dec("90"), oldShares)
	for id, d := range deltas {
		combined[id] = combined[id].Add(d)
	}
	direct := ExpenseDeltas("Alice", dec("120"), newShares)
	for _, id := range participants {
		if !combined[id].Equal(direct[id]) {
			t.Errorf("%s: edited %s != direct %s", id, combined[id], direct[id])
		}
	}
}

func TestEditDeltas_InvalidAmount(t *testing.T) {
	oldShares, _ := SplitEqually(dec("10"), []string{"Alice", "Bob"})
	if _, _, err := EditDeltas("Alice", dec("10"), oldShares, dec("-5")); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestDeltas_MembershipIDsSorted(t *testing.T) {
	d := Deltas{"c": dec("1"), "a": dec("-2"), "b": dec("1")}
	got := d.MembershipIDs()
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MembershipIDs() = %v, want %v", got, want)
		}
	}
}
