package models

import "errors"

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidExpense         = errors.New("invalid expense")
	ErrInvalidSettlement      = errors.New("invalid settlement")
	ErrExceedsDebt            = errors.New("amount exceeds outstanding debt")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrNotFound               = errors.New("not found")

	// ErrLedgerInconsistent reports a group whose balances do not sum to zero.
	ErrLedgerInconsistent = errors.New("ledger inconsistent")
	// ErrConcurrentUpdate reports a balance written by another command since it was read.
	ErrConcurrentUpdate = errors.New("concurrent update")
	// ErrInvalidGroup reports a group that cannot be created as described.
	ErrInvalidGroup = errors.New("invalid group")
	// ErrUnsettledBalance reports a membership that cannot leave while it owes or is owed money.
	ErrUnsettledBalance = errors.New("balance not settled")
)
