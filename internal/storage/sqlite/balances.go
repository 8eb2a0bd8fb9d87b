package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

const balanceColumns = `id, membership_id, group_id, amount, updated_at, version`

// CreateBalance persists a new balance at version 1.
func (s *SQLiteStore) CreateBalance(ctx context.Context, b *models.Balance) error {
	if b.ID == "" {
		b.ID = newID()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now()
	}
	b.Version = 1

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO balances (`+balanceColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.MembershipID, b.GroupID, models.RoundMoney(b.Amount), toMillis(b.UpdatedAt), b.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert balance: %w", err)
	}
	return nil
}

// GetBalanceByMembership retrieves the balance of a membership.
func (s *SQLiteStore) GetBalanceByMembership(ctx context.Context, membershipID string) (*models.Balance, error) {
	b, err := scanBalance(s.db.QueryRowContext(ctx,
		`SELECT `+balanceColumns+` FROM balances WHERE membership_id = ?`, membershipID))
	if err != nil {
		return nil, notFound(err, "balance", membershipID)
	}
	return b, nil
}

// ListBalancesByGroup retrieves every balance of a group ordered by membership ID.
func (s *SQLiteStore) ListBalancesByGroup(ctx context.Context, groupID string) ([]*models.Balance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+balanceColumns+` FROM balances WHERE group_id = ? ORDER BY membership_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	var balances []*models.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return balances, nil
}

// UpdateBalance writes the amount if nobody else has since the balance was read.
func (s *SQLiteStore) UpdateBalance(ctx context.Context, b *models.Balance) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE balances SET amount = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		models.RoundMoney(b.Amount), toMillis(b.UpdatedAt), b.ID, b.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("balance %s at version %d: %w", b.ID, b.Version, models.ErrConcurrentUpdate)
	}

	b.Version++
	return nil
}

func scanBalance(row scanner) (*models.Balance, error) {
	b := &models.Balance{}
	var updatedAt int64
	if err := row.Scan(&b.ID, &b.MembershipID, &b.GroupID, &b.Amount, &updatedAt, &b.Version); err != nil {
		return nil, err
	}
	b.UpdatedAt = fromMillis(updatedAt)
	return b, nil
}
