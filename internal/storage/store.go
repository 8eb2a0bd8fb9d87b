// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns nil and no error when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns nil and no error when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns the users that exist, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// GroupStore persists groups and the memberships inside them.
// Lookups by ID return an error wrapping models.ErrNotFound when nothing matches.
type GroupStore interface {
	// CreateGroup assigns group.ID if empty.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error

	// ListGroupsByUser returns every group the user holds a non-removed membership in.
	ListGroupsByUser(ctx context.Context, userID string) ([]*models.Group, error)

	// CreateMembership assigns membership.ID if empty.
	CreateMembership(ctx context.Context, membership *models.Membership) error
	GetMembership(ctx context.Context, membershipID string) (*models.Membership, error)

	// GetMembershipByUser finds the user's membership in a group, whatever its status.
	GetMembershipByUser(ctx context.Context, groupID, userID string) (*models.Membership, error)
	ListMembershipsByGroup(ctx context.Context, groupID string) ([]*models.Membership, error)
	UpdateMembership(ctx context.Context, membership *models.Membership) error
}

// BalanceStore persists balances.
type BalanceStore interface {
	// CreateBalance assigns balance.ID and starts it at version 1.
	CreateBalance(ctx context.Context, balance *models.Balance) error
	GetBalanceByMembership(ctx context.Context, membershipID string) (*models.Balance, error)
	ListBalancesByGroup(ctx context.Context, groupID string) ([]*models.Balance, error)

	// UpdateBalance writes amount and timestamp only if the stored version
	// still equals balance.Version, then increments balance.Version.
	// A stale version fails with models.ErrConcurrentUpdate.
	UpdateBalance(ctx context.Context, balance *models.Balance) error
}

// ExpenseStore persists expenses together with their participant shares.
type ExpenseStore interface {
	// CreateExpense assigns expense.ID if empty and stores the shares in order.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup returns expenses newest first.
	ListExpensesByGroup(ctx context.Context, groupID string, includeDeleted bool) ([]*models.Expense, error)

	// UpdateExpense rewrites the scalar fields and replaces the shares.
	UpdateExpense(ctx context.Context, expense *models.Expense) error
}

// SettlementStore persists settlements.
type SettlementStore interface {
	// CreateSettlement assigns settlement.ID if empty.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ListSettlementsByGroup returns settlements newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// UpdateSettlement writes the status and resolution fields.
	UpdateSettlement(ctx context.Context, settlement *models.Settlement) error
}

// EventLog is the append-only record of ledger events.
type EventLog interface {
	// AppendEvents assigns IDs to the events in place.
	AppendEvents(ctx context.Context, events []models.Event) error

	// ListEventsByGroup returns events oldest first.
	ListEventsByGroup(ctx context.Context, groupID string) ([]models.Event, error)
}

// Repository is everything a ledger command may read or write.
type Repository interface {
	UserStore
	GroupStore
	BalanceStore
	ExpenseStore
	SettlementStore
	EventLog
}

// Store is a Repository that can open transactions.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the ledger or service layer.
type Store interface {
	Repository

	// WithTx runs fn against a Repository bound to a single transaction.
	// The transaction commits if fn returns nil and rolls back otherwise.
	// fn must use only the Repository it is given.
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	// Close releases any resources held by the store.
	Close() error
}
