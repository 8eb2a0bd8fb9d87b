package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixture is a group whose members are addressed by name. The first name is
// the admin.
type fixture struct {
	store   *sqlite.SQLiteStore
	coord   *Coordinator
	pub     *events.MemoryPublisher
	group   *models.Group
	members map[string]string // name -> membership ID
}

func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, members: make(map[string]string)}
	f.group = f.addGroup(t, names...)
	f.pub = events.NewMemoryPublisher()
	f.coord = New(store, WithPublisher(f.pub))
	return f
}

// addGroup creates another group in the same store with fresh users.
func (f *fixture) addGroup(t *testing.T, names ...string) *models.Group {
	t.Helper()
	ctx := context.Background()

	group := &models.Group{Name: "Trip", Currency: "EUR", Active: true}
	require.NoError(t, f.store.CreateGroup(ctx, group))

	for i, name := range names {
		user := models.NewUser(name+"."+group.ID+"@example.com", name, "hash")
		require.NoError(t, f.store.CreateUser(ctx, user))

		role := models.RoleMember
		if i == 0 {
			role = models.RoleAdmin
		}
		m := &models.Membership{GroupID: group.ID, UserID: user.ID, Role: role, Status: models.MembershipActive}
		require.NoError(t, f.store.CreateMembership(ctx, m))
		require.NoError(t, f.store.CreateBalance(ctx, models.NewBalance(m)))
		f.members[name] = m.ID
	}
	return group
}

func (f *fixture) id(name string) string {
	return f.members[name]
}

func (f *fixture) ids(names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = f.members[n]
	}
	return out
}

func (f *fixture) balance(t *testing.T, name string) string {
	t.Helper()
	b, err := f.coord.MemberBalance(context.Background(), f.id(name))
	require.NoError(t, err)
	return b.Amount.StringFixed(2)
}

func (f *fixture) record(t *testing.T, payer, amount string, participants ...string) *models.Expense {
	t.Helper()
	e, _, err := f.coord.RecordExpense(context.Background(), RecordExpenseInput{
		GroupID:      f.group.ID,
		ActorID:      f.id(payer),
		PayerID:      f.id(payer),
		Amount:       dec(amount),
		Description:  "expense",
		Participants: f.ids(participants...),
	})
	require.NoError(t, err)
	return e
}

// assertClosed checks that the group's balances sum to exactly zero.
func (f *fixture) assertClosed(t *testing.T) {
	t.Helper()
	balances, err := f.coord.GroupBalances(context.Background(), f.group.ID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b.Amount)
	}
	assert.True(t, sum.IsZero(), "balances sum to %s", sum)
}

func TestCoordinator_AliceBobScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob")

	expense := f.record(t, "alice", "100.00", "alice", "bob")
	assert.Equal(t, "50.00", f.balance(t, "alice"))
	assert.Equal(t, "-50.00", f.balance(t, "bob"))
	assert.True(t, expense.IsConsistent())

	settlement, _, err := f.coord.ProposeSettlement(ctx, ProposeSettlementInput{
		GroupID:    f.group.ID,
		ActorID:    f.id("bob"),
		PayerID:    f.id("bob"),
		ReceiverID: f.id("alice"),
		Amount:     dec("50.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.SettlementCreated, settlement.Status)
	assert.Equal(t, "-50.00", f.balance(t, "bob"), "proposing must not move balances")

	confirmed, evs, err := f.coord.ConfirmSettlement(ctx, settlement.ID, f.id("alice"))
	require.NoError(t, err)
	assert.Equal(t, models.SettlementConfirmed, confirmed.Status)
	assert.Equal(t, f.id("alice"), confirmed.ResolvedBy)
	require.Len(t, evs, 1)
	assert.Equal(t, models.EventSettlementConfirmed, evs[0].Type)

	assert.Equal(t, "0.00", f.balance(t, "alice"))
	assert.Equal(t, "0.00", f.balance(t, "bob"))

	settled, err := f.coord.IsGroupSettled(ctx, f.group.ID)
	require.NoError(t, err)
	assert.True(t, settled)

	assert.Equal(t, []models.EventType{
		models.EventExpenseRecorded,
		models.EventSettlementProposed,
		models.EventSettlementConfirmed,
	}, f.pub.Types())

	logged, err := f.coord.GroupEvents(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, logged, 3)
	assert.Equal(t, settlement.ID, logged[2].SourceID)
	assert.NotEmpty(t, logged[2].ID)
}

func TestCoordinator_ClosedSystem(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol", "dave")

	f.record(t, "alice", "100.00", "alice", "bob", "carol")
	f.assertClosed(t)
	assert.Equal(t, "66.66", f.balance(t, "alice"), "alice keeps the residual cent as her own share")

	// Payer outside the participant list is credited the full amount.
	f.record(t, "dave", "10.00", "alice", "bob", "carol")
	f.assertClosed(t)
	assert.Equal(t, "10.00", f.balance(t, "dave"))

	f.record(t, "bob", "0.05", "carol", "bob")
	f.assertClosed(t)

	f.record(t, "carol", "7.77", "carol")
	f.assertClosed(t)
}

func TestCoordinator_RecordExpenseValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob")
	f.addGroup(t, "zed")

	tests := []struct {
		name    string
		in      RecordExpenseInput
		wantErr error
	}{
		{
			name:    "non-positive amount",
			in:      RecordExpenseInput{ActorID: f.id("alice"), PayerID: f.id("alice"), Amount: dec("0"), Description: "x", Participants: f.ids("alice")},
			wantErr: models.ErrInvalidAmount,
		},
		{
			name:    "blank description",
			in:      RecordExpenseInput{ActorID: f.id("alice"), PayerID: f.id("alice"), Amount: dec("5"), Description: "  ", Participants: f.ids("alice")},
			wantErr: models.ErrInvalidExpense,
		},
		{
			name:    "no participants",
			in:      RecordExpenseInput{ActorID: f.id("alice"), PayerID: f.id("alice"), Amount: dec("5"), Description: "x"},
			wantErr: models.ErrInvalidExpense,
		},
		{
			name:    "participant from another group",
			in:      RecordExpenseInput{ActorID: f.id("alice"), PayerID: f.id("alice"), Amount: dec("5"), Description: "x", Participants: f.ids("alice", "zed")},
			wantErr: models.ErrInvalidExpense,
		},
		{
			name:    "payer from another group",
			in:      RecordExpenseInput{ActorID: f.id("alice"), PayerID: f.id("zed"), Amount: dec("5"), Description: "x", Participants: f.ids("alice")},
			wantErr: models.ErrInvalidExpense,
		},
		{
			name:    "actor outside the group",
			in:      RecordExpenseInput{ActorID: f.id("zed"), PayerID: f.id("alice"), Amount: dec("5"), Description: "x", Participants: f.ids("alice")},
			wantErr: models.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.GroupID = f.group.ID
			_, evs, err := f.coord.RecordExpense(ctx, tt.in)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, evs)
		})
	}

	// Nothing leaked from the rejected commands.
	history, err := f.coord.ExpenseHistory(ctx, f.group.ID, true)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, "0.00", f.balance(t, "alice"))
	assert.Empty(t, f.pub.Events())

	logged, err := f.coord.GroupEvents(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Empty(t, logged)
}

func TestCoordinator_DeleteExpenseReverses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob", "carol")

	keep := f.record(t, "bob", "30.00", "alice", "bob", "carol")
	before := map[string]string{"alice": f.balance(t, "alice"), "bob": f.balance(t, "bob"), "carol": f.balance(t, "carol")}

	drop := f.record(t, "alice", "99.99", "alice", "bob", "carol")
	assert.NotEqual(t, before["alice"], f.balance(t, "alice"))

	deleted, evs, err := f.coord.DeleteExpense(ctx, drop.ID, f.id("alice"))
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	require.Len(t, evs, 1)
	assert.Equal(t, models.EventExpenseDeleted, evs[0].Type)

	for name, want := range before {
		assert.Equal(t, want, f.balance(t, name), "%s balance after delete", name)
	}
	f.assertClosed(t)

	_, _, err = f.coord.DeleteExpense(ctx, drop.ID, f.id("alice"))
	assert.ErrorIs(t, err, models.ErrInvalidStateTransition)

	live, err := f.coord.ExpenseHistory(ctx, f.group.ID, false)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, keep.ID, live[0].ID)

	all, err := f.coord.ExpenseHistory(ctx, f.group.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCoordinator_DeleteExpenseAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "admin", "bob", "carol")

	e := f.record(t, "bob", "20.00", "bob", "carol")

	_, _, err := f.coord.DeleteExpense(ctx, e.ID, f.id("carol"))
	require.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Equal(t, "-10.00", f.balance(t, "carol"))

	_, _, err = f.coord.DeleteExpense(ctx, e.ID, f.id("admin"))
	require.NoError(t, err)
	assert.Equal(t, "0.00", f.balance(t, "carol"))

	_, _, err = f.coord.DeleteExpense(ctx, "missing", f.id("admin"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCoordinator_EditExpense(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob", "carol")

	e := f.record(t, "alice", "90.00", "alice", "bob", "carol")

	newAmount := dec("120.00")
	desc := "Dinner and drinks"
	edited, evs, err := f.coord.EditExpense(ctx, EditExpenseInput{
		ExpenseID:   e.ID,
		ActorID:     f.id("alice"),
		Amount:      &newAmount,
		Description: &desc,
	})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, models.EventExpenseUpdated, evs[0].Type)
	assert.Equal(t, "90.00", evs[0].Payload["previous_amount"])
	assert.Equal(t, desc, edited.Description)
	assert.True(t, edited.IsConsistent())

	assert.Equal(t, "80.00", f.balance(t, "alice"))
	assert.Equal(t, "-40.00", f.balance(t, "bob"))
	assert.Equal(t, "-40.00", f.balance(t, "carol"))

	stored, err := f.coord.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "120.00", stored.Amount.StringFixed(2))
	assert.True(t, stored.IsConsistent())

	t.Run("description only leaves balances alone", func(t *testing.T) {
		other := "Team dinner"
		_, _, err := f.coord.EditExpense(ctx, EditExpenseInput{ExpenseID: e.ID, ActorID: f.id("alice"), Description: &other})
		require.NoError(t, err)
		assert.Equal(t, "80.00", f.balance(t, "alice"))
	})

	t.Run("non-creator member is refused", func(t *testing.T) {
		amount := dec("1")
		_, _, err := f.coord.EditExpense(ctx, EditExpenseInput{ExpenseID: e.ID, ActorID: f.id("bob"), Amount: &amount})
		require.ErrorIs(t, err, models.ErrUnauthorized)
		assert.Equal(t, "-40.00", f.balance(t, "bob"))
	})

	t.Run("invalid amount rolls back", func(t *testing.T) {
		amount := dec("-5")
		_, _, err := f.coord.EditExpense(ctx, EditExpenseInput{ExpenseID: e.ID, ActorID: f.id("alice"), Amount: &amount})
		require.ErrorIs(t, err, models.ErrInvalidAmount)
		stored, _ := f.coord.GetExpense(ctx, e.ID)
		assert.Equal(t, "120.00", stored.Amount.StringFixed(2))
	})

	t.Run("deleted expense cannot be edited", func(t *testing.T) {
		_, _, err := f.coord.DeleteExpense(ctx, e.ID, f.id("alice"))
		require.NoError(t, err)
		amount := dec("10")
		_, _, err = f.coord.EditExpense(ctx, EditExpenseInput{ExpenseID: e.ID, ActorID: f.id("alice"), Amount: &amount})
		require.ErrorIs(t, err, models.ErrInvalidStateTransition)
		f.assertClosed(t)
		assert.Equal(t, "0.00", f.balance(t, "alice"))
	})
}

func TestCoordinator_OptimizerExample(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob", "charlie")

	f.record(t, "charlie", "50.00", "alice")
	f.record(t, "charlie", "30.00", "bob")
	assert.Equal(t, "-50.00", f.balance(t, "alice"))
	assert.Equal(t, "-30.00", f.balance(t, "bob"))
	assert.Equal(t, "80.00", f.balance(t, "charlie"))

	suggestions, err := f.coord.SuggestSettlements(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	// Ties and order follow the debtor amounts: alice owes more than bob.
	assert.Equal(t, f.id("alice"), suggestions[0].PayerID)
	assert.Equal(t, f.id("charlie"), suggestions[0].ReceiverID)
	assert.Equal(t, "50.00", suggestions[0].Amount.StringFixed(2))
	assert.Equal(t, f.id("bob"), suggestions[1].PayerID)
	assert.Equal(t, "30.00", suggestions[1].Amount.StringFixed(2))

	pending, err := f.coord.PendingSettlements(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Empty(t, pending, "suggestions are not persisted")

	for _, s := range suggestions {
		proposed, _, err := f.coord.ProposeSettlement(ctx, ProposeSettlementInput{
			GroupID: f.group.ID, ActorID: s.PayerID, PayerID: s.PayerID, ReceiverID: s.ReceiverID, Amount: s.Amount,
		})
		require.NoError(t, err)
		_, _, err = f.coord.ConfirmSettlement(ctx, proposed.ID, s.ReceiverID)
		require.NoError(t, err)
	}

	settled, err := f.coord.IsGroupSettled(ctx, f.group.ID)
	require.NoError(t, err)
	assert.True(t, settled)

	completed, err := f.coord.CompletedSettlements(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	again, err := f.coord.SuggestSettlements(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestCoordinator_ProposeSettlementRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "admin", "bob", "carol")
	f.record(t, "admin", "60.00", "admin", "bob", "carol") // bob -20, carol -20, admin +40

	propose := func(actor, payer, receiver, amount string) error {
		_, _, err := f.coord.ProposeSettlement(ctx, ProposeSettlementInput{
			GroupID: f.group.ID, ActorID: f.id(actor), PayerID: f.id(payer), ReceiverID: f.id(receiver), Amount: dec(amount),
		})
		return err
	}

	assert.ErrorIs(t, propose("bob", "bob", "admin", "20.01"), models.ErrExceedsDebt)
	assert.ErrorIs(t, propose("admin", "admin", "bob", "5"), models.ErrExceedsDebt, "creditor has no debt")
	assert.ErrorIs(t, propose("carol", "bob", "admin", "5"), models.ErrUnauthorized)
	assert.ErrorIs(t, propose("bob", "bob", "bob", "5"), models.ErrInvalidSettlement)
	assert.ErrorIs(t, propose("bob", "bob", "admin", "0"), models.ErrInvalidAmount)

	assert.NoError(t, propose("bob", "bob", "admin", "20.00"))
	assert.NoError(t, propose("admin", "carol", "admin", "10.00"), "admins may propose on behalf of a debtor")

	pending, err := f.coord.PendingSettlements(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestCoordinator_ConfirmByNonReceiver(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "admin", "bob", "carol")
	f.record(t, "carol", "40.00", "bob", "carol")

	s, _, err := f.coord.ProposeSettlement(ctx, ProposeSettlementInput{
		GroupID: f.group.ID, ActorID: f.id("bob"), PayerID: f.id("bob"), ReceiverID: f.id("carol"), Amount: dec("20"),
	})
	require.NoError(t, err)

	for _, actor := range []string{"bob", "admin"} {
		t.Run(actor, func(t *testing.T) {
			can, err := f.coord.CanConfirm(ctx, s.ID, f.id(actor))
			require.NoError(t, err)
			assert.False(t, can)

			_, evs, err := f.coord.ConfirmSettlement(ctx, s.ID, f.id(actor))
			require.ErrorIs(t, err, models.ErrUnauthorized)
			assert.Nil(t, evs)
			assert.Equal(t, "-20.00", f.balance(t, "bob"))
			assert.Equal(t, "20.00", f.balance(t, "carol"))

			stored, err := f.coord.GetSettlement(ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, models.SettlementCreated, stored.Status)
		})
	}

	can, err := f.coord.CanConfirm(ctx, s.ID, f.id("carol"))
	require.NoError(t, err)
	assert.True(t, can)
}

func TestCoordinator_TerminalSettlements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "admin", "bob")
	f.record(t, "admin", "40.00", "admin", "bob")

	propose := func() *models.Settlement {
		s, _, err := f.coord.ProposeSettlement(ctx, ProposeSettlementInput{
			GroupID: f.group.ID, ActorID: f.id("bob"), PayerID: f.id("bob"), ReceiverID: f.id("admin"), Amount: dec("10"),
		})
		require.NoError(t, err)
		return s
	}

	cancelled := propose()
	_, evs, err := f.coord.CancelSettlement(ctx, cancelled.ID, f.id("bob"))
	require.NoError(t, err)
	assert.Equal(t, models.EventSettlementCancelled, evs[0].Type)
	assert.Equal(t, "-20.00", f.balance(t, "bob"), "cancel has no balance effect")

	_, _, err = f.coord.ConfirmSettlement(ctx, cancelled.ID, f.id("admin"))
	assert.ErrorIs(t, err, models.ErrInvalidStateTransition)
	_, _, err = f.coord.CancelSettlement(ctx, cancelled.ID, f.id("admin"))
	assert.ErrorIs(t, err, models.ErrInvalidStateTransition)

	confirmed := propose()
	_, _, err = f.coord.ConfirmSettlement(ctx, confirmed.ID, f.id("admin"))
	require.NoError(t, err)
	_, _, err = f.coord.ConfirmSettlement(ctx, confirmed.ID, f.id("admin"))
	assert.ErrorIs(t, err, models.ErrInvalidStateTransition)
	_, _, err = f.coord.CancelSettlement(ctx, confirmed.ID, f.id("bob"))
	assert.ErrorIs(t, err, models.ErrInvalidStateTransition)

	assert.Equal(t, "-10.00", f.balance(t, "bob"))
	f.assertClosed(t)
}

func TestCoordinator_InactiveGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob")
	f.record(t, "alice", "10.00", "alice", "bob")

	s, _, err := f.coord.ProposeSettlement(ctx, ProposeSettlementInput{
		GroupID: f.group.ID, ActorID: f.id("bob"), PayerID: f.id("bob"), ReceiverID: f.id("alice"), Amount: dec("5"),
	})
	require.NoError(t, err)

	f.group.Active = false
	require.NoError(t, f.store.UpdateGroup(ctx, f.group))

	_, _, err = f.coord.RecordExpense(ctx, RecordExpenseInput{
		GroupID: f.group.ID, ActorID: f.id("alice"), PayerID: f.id("alice"),
		Amount: dec("10"), Description: "late", Participants: f.ids("alice", "bob"),
	})
	assert.ErrorIs(t, err, models.ErrInvalidStateTransition)

	_, _, err = f.coord.ConfirmSettlement(ctx, s.ID, f.id("alice"))
	assert.ErrorIs(t, err, models.ErrInvalidStateTransition)

	_, _, err = f.coord.CancelSettlement(ctx, s.ID, f.id("bob"))
	assert.NoError(t, err, "pending settlements can still be withdrawn")
}

func TestCoordinator_Aggregates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob", "carol")
	f.record(t, "alice", "90.00", "alice", "bob", "carol")

	debt, err := f.coord.TotalGroupDebt(ctx, f.group.ID)
	require.NoError(t, err)
	credit, err := f.coord.TotalGroupCredit(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Equal(t, "60.00", debt.StringFixed(2))
	assert.True(t, debt.Equal(credit))

	debtors, err := f.coord.Debtors(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Len(t, debtors, 2)

	creditors, err := f.coord.Creditors(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, creditors, 1)
	assert.Equal(t, f.id("alice"), creditors[0].MembershipID)
}

func TestCoordinator_PublishFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.coord = New(f.store, WithPublisher(events.PublisherFunc(func(context.Context, []models.Event) error {
		return errors.New("broker down")
	})))

	f.record(t, "alice", "10.00", "alice", "bob")
	assert.Equal(t, "-5.00", f.balance(t, "bob"))

	logged, err := f.coord.GroupEvents(context.Background(), f.group.ID)
	require.NoError(t, err)
	assert.Len(t, logged, 1)
}

// conflictStore makes the nth balance write of every transaction fail as if
// another writer got there first.
type conflictStore struct {
	storage.Store
	failOn int
}

func (s *conflictStore) WithTx(ctx context.Context, fn func(tx storage.Repository) error) error {
	return s.Store.WithTx(ctx, func(tx storage.Repository) error {
		return fn(&conflictRepo{Repository: tx, failOn: s.failOn})
	})
}

type conflictRepo struct {
	storage.Repository
	failOn int
	writes int
}

func (r *conflictRepo) UpdateBalance(ctx context.Context, b *models.Balance) error {
	r.writes++
	if r.writes == r.failOn {
		return models.ErrConcurrentUpdate
	}
	return r.Repository.UpdateBalance(ctx, b)
}

func TestCoordinator_ConflictRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob", "carol")
	pub := events.NewMemoryPublisher()
	coord := New(&conflictStore{Store: f.store, failOn: 2}, WithPublisher(pub))

	_, _, err := coord.RecordExpense(ctx, RecordExpenseInput{
		GroupID: f.group.ID, ActorID: f.id("alice"), PayerID: f.id("alice"),
		Amount: dec("30"), Description: "raced", Participants: f.ids("alice", "bob", "carol"),
	})
	require.ErrorIs(t, err, models.ErrConcurrentUpdate)

	for _, name := range []string{"alice", "bob", "carol"} {
		assert.Equal(t, "0.00", f.balance(t, name), "%s must be untouched", name)
	}
	history, err := f.coord.ExpenseHistory(ctx, f.group.ID, true)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, pub.Events())
}

func TestCoordinator_ConcurrentCommands(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob", "carol")
	second := f.addGroup(t, "xena", "yuri")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, err := f.coord.RecordExpense(ctx, RecordExpenseInput{
				GroupID: f.group.ID, ActorID: f.id("alice"), PayerID: f.id("alice"),
				Amount: dec("10.00"), Description: "round", Participants: f.ids("alice", "bob", "carol"),
			})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, _, err := f.coord.RecordExpense(ctx, RecordExpenseInput{
				GroupID: second.ID, ActorID: f.id("xena"), PayerID: f.id("xena"),
				Amount: dec("3.00"), Description: "coffee", Participants: f.ids("xena", "yuri"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Each 10.00 split three ways: alice +6.66, bob -3.33, carol -3.33.
	assert.Equal(t, "133.20", f.balance(t, "alice"))
	assert.Equal(t, "-66.60", f.balance(t, "bob"))
	assert.Equal(t, "-66.60", f.balance(t, "carol"))
	assert.Equal(t, "30.00", f.balance(t, "xena"))
	f.assertClosed(t)

	b, err := f.coord.MemberBalance(ctx, f.id("bob"))
	require.NoError(t, err)
	assert.Equal(t, int64(n+1), b.Version)
}

func TestCoordinator_PanickingCommandReleasesLock(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()

	assert.Panics(t, func() {
		_, _ = f.coord.Execute(ctx, "boom", f.group.ID, func(context.Context, storage.Repository) ([]models.Event, error) {
			panic("boom")
		})
	})
	assert.Equal(t, 0, f.coord.locks.size())

	done := make(chan error, 1)
	go func() {
		_, _, err := f.coord.RecordExpense(ctx, RecordExpenseInput{
			GroupID: f.group.ID, ActorID: f.id("alice"), PayerID: f.id("alice"),
			Amount: dec("10"), Description: "dinner",
			Participants: f.ids("alice", "bob"),
		})
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("group stayed locked after a panicking command")
	}
	assert.Equal(t, "5.00", f.balance(t, "alice"))
}
