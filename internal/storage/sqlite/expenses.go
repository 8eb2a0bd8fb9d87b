package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

const expenseColumns = `id, group_id, payer_id, created_by, amount, description, category,
	expense_date, created_at, updated_at, deleted`

// CreateExpense persists a new expense and its shares.
func (s *SQLiteStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	return s.atomic(ctx, func(q dbtx) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.GroupID, e.PayerID, e.CreatedBy, e.Amount, e.Description, e.Category,
			toMillis(e.ExpenseDate), toMillis(e.CreatedAt), toMillis(e.UpdatedAt), e.Deleted,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		return insertShares(ctx, q, e)
	})
}

// GetExpense retrieves an expense by ID, including its shares.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	e, err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, expenseID))
	if err != nil {
		return nil, notFound(err, "expense", expenseID)
	}

	if err := s.loadShares(ctx, []*models.Expense{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// ListExpensesByGroup retrieves a group's expenses, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string, includeDeleted bool) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE group_id = ?`
	if !includeDeleted {
		query += ` AND deleted = 0`
	}
	query += ` ORDER BY expense_date DESC, created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	// Rows are closed before loading shares: the single connection cannot
	// serve a second query while the first is still open.
	if err := s.loadShares(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// UpdateExpense rewrites an expense and replaces its shares.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, e *models.Expense) error {
	return s.atomic(ctx, func(q dbtx) error {
		res, err := q.ExecContext(ctx,
			`UPDATE expenses SET amount = ?, description = ?, category = ?, expense_date = ?,
			 updated_at = ?, deleted = ? WHERE id = ?`,
			e.Amount, e.Description, e.Category, toMillis(e.ExpenseDate),
			toMillis(e.UpdatedAt), e.Deleted, e.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if err := checkAffected(res, "expense", e.ID); err != nil {
			return err
		}

		if _, err := q.ExecContext(ctx, "DELETE FROM expense_shares WHERE expense_id = ?", e.ID); err != nil {
			return fmt.Errorf("failed to clear expense shares: %w", err)
		}
		return insertShares(ctx, q, e)
	})
}

func insertShares(ctx context.Context, q dbtx, e *models.Expense) error {
	for i, share := range e.Shares {
		_, err := q.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, membership_id, position, amount) VALUES (?, ?, ?, ?)",
			e.ID, share.MembershipID, i, share.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}
	return nil
}

// loadShares fills in the shares of the given expenses in one query.
func (s *SQLiteStore) loadShares(ctx context.Context, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[string]*models.Expense, len(expenses))
	args := make([]any, len(expenses))
	for i, e := range expenses {
		byID[e.ID] = e
		args[i] = e.ID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT expense_id, membership_id, amount FROM expense_shares
		 WHERE expense_id IN (`+placeholders(len(expenses))+`)
		 ORDER BY expense_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID string
		var share models.ParticipantShare
		if err := rows.Scan(&expenseID, &share.MembershipID, &share.Amount); err != nil {
			return fmt.Errorf("failed to scan expense share: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Shares = append(e.Shares, share)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense shares: %w", err)
	}
	return nil
}

func scanExpense(row scanner) (*models.Expense, error) {
	e := &models.Expense{}
	var expenseDate, createdAt, updatedAt int64
	err := row.Scan(&e.ID, &e.GroupID, &e.PayerID, &e.CreatedBy, &e.Amount, &e.Description,
		&e.Category, &expenseDate, &createdAt, &updatedAt, &e.Deleted)
	if err != nil {
		return nil, err
	}
	e.ExpenseDate = fromMillis(expenseDate)
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	return e, nil
}
