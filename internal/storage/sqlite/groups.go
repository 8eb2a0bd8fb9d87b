package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

// CreateGroup persists a new group.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = newID()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO groups (id, name, currency, active, created_at) VALUES (?, ?, ?, ?, ?)",
		group.ID, group.Name, group.Currency, group.Active, toMillis(group.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := scanGroup(s.db.QueryRowContext(ctx,
		"SELECT id, name, currency, active, created_at FROM groups WHERE id = ?", groupID))
	if err != nil {
		return nil, notFound(err, "group", groupID)
	}
	return group, nil
}

// UpdateGroup updates a group's name, currency and active flag.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE groups SET name = ?, currency = ?, active = ? WHERE id = ?",
		group.Name, group.Currency, group.Active, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return checkAffected(res, "group", group.ID)
}

// ListGroupsByUser retrieves the groups a user belongs to or has asked to join.
func (s *SQLiteStore) ListGroupsByUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.currency, g.active, g.created_at
		 FROM groups g
		 JOIN memberships m ON m.group_id = g.id
		 WHERE m.user_id = ? AND m.status != ?
		 ORDER BY g.created_at DESC`,
		userID, models.MembershipRemoved,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

func scanGroup(row scanner) (*models.Group, error) {
	group := &models.Group{}
	var createdAt int64
	if err := row.Scan(&group.ID, &group.Name, &group.Currency, &group.Active, &createdAt); err != nil {
		return nil, err
	}
	group.CreatedAt = fromMillis(createdAt)
	return group, nil
}

const membershipColumns = `id, group_id, user_id, role, status, joined_at`

// CreateMembership persists a new membership.
func (s *SQLiteStore) CreateMembership(ctx context.Context, m *models.Membership) error {
	if m.ID == "" {
		m.ID = newID()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memberships (`+membershipColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.GroupID, m.UserID, m.Role, m.Status, toMillis(m.JoinedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// GetMembership retrieves a membership by ID.
func (s *SQLiteStore) GetMembership(ctx context.Context, membershipID string) (*models.Membership, error) {
	m, err := scanMembership(s.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE id = ?`, membershipID))
	if err != nil {
		return nil, notFound(err, "membership", membershipID)
	}
	return m, nil
}

// GetMembershipByUser retrieves a user's membership in a group.
func (s *SQLiteStore) GetMembershipByUser(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	m, err := scanMembership(s.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE group_id = ? AND user_id = ?`,
		groupID, userID))
	if err != nil {
		return nil, notFound(err, "membership", groupID+"/"+userID)
	}
	return m, nil
}

// ListMembershipsByGroup retrieves every membership of a group in join order.
func (s *SQLiteStore) ListMembershipsByGroup(ctx context.Context, groupID string) ([]*models.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE group_id = ? ORDER BY joined_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return memberships, nil
}

// UpdateMembership updates a membership's role and status.
func (s *SQLiteStore) UpdateMembership(ctx context.Context, m *models.Membership) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE memberships SET role = ?, status = ? WHERE id = ?",
		m.Role, m.Status, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}
	return checkAffected(res, "membership", m.ID)
}

func scanMembership(row scanner) (*models.Membership, error) {
	m := &models.Membership{}
	var joinedAt int64
	if err := row.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.Status, &joinedAt); err != nil {
		return nil, err
	}
	m.JoinedAt = fromMillis(joinedAt)
	return m, nil
}
