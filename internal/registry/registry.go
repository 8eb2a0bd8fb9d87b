// Package registry manages groups and the memberships inside them.
//
// The registry holds no money. Its only ledger duty is to open a zero balance
// when a membership becomes active and to refuse removal while a member still
// owes or is owed money. Commands run through the ledger coordinator so they
// take the same group lock and land in the same event log as ledger commands.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// DefaultCurrency is used when a group is created without one.
const DefaultCurrency = "EUR"

// Registry creates groups and moves memberships through
// pending → active → removed.
type Registry struct {
	store storage.Store
	coord *ledger.Coordinator
}

func New(store storage.Store, coord *ledger.Coordinator) *Registry {
	return &Registry{store: store, coord: coord}
}

// CreateGroup creates an active group whose creator is its first, active
// admin with a zero balance.
func (r *Registry) CreateGroup(ctx context.Context, userID, name, currency string) (*models.Group, *models.Membership, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: group name is required", models.ErrInvalidGroup)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, nil, fmt.Errorf("%w: currency %q is not an ISO 4217 code", models.ErrInvalidGroup, currency)
	}

	group := &models.Group{
		ID:        uuid.New().String(),
		Name:      name,
		Currency:  currency,
		Active:    true,
		CreatedAt: time.Now(),
	}
	var admin *models.Membership

	_, err := r.coord.Execute(ctx, "create_group", group.ID, func(ctx context.Context, tx storage.Repository) ([]models.Event, error) {
		user, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
		}

		if err := tx.CreateGroup(ctx, group); err != nil {
			return nil, err
		}
		admin = &models.Membership{
			GroupID: group.ID,
			UserID:  userID,
			Role:    models.RoleAdmin,
			Status:  models.MembershipActive,
		}
		if err := tx.CreateMembership(ctx, admin); err != nil {
			return nil, err
		}
		if err := tx.CreateBalance(ctx, models.NewBalance(admin)); err != nil {
			return nil, err
		}

		return []models.Event{
			models.NewEvent(models.EventGroupCreated, group.ID, group.ID, admin.ID, map[string]string{
				"name":     group.Name,
				"currency": group.Currency,
			}),
			activatedEvent(admin, admin.ID),
		}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return group, admin, nil
}

// Join asks for membership in an active group. The membership stays pending
// until an admin approves it. A previously removed user may ask again.
func (r *Registry) Join(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	var membership *models.Membership

	_, err := r.coord.Execute(ctx, "join_group", groupID, func(ctx context.Context, tx storage.Repository) ([]models.Event, error) {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if !group.Active {
			return nil, fmt.Errorf("%w: group %s is inactive", models.ErrInvalidStateTransition, groupID)
		}

		existing, err := tx.GetMembershipByUser(ctx, groupID, userID)
		switch {
		case err == nil && existing.Status != models.MembershipRemoved:
			return nil, fmt.Errorf("%w: user is already %s in group %s", models.ErrInvalidStateTransition, existing.Status, groupID)
		case err == nil:
			existing.Status = models.MembershipPending
			existing.Role = models.RoleMember
			if err := tx.UpdateMembership(ctx, existing); err != nil {
				return nil, err
			}
			membership = existing
		case isNotFound(err):
			membership = &models.Membership{
				GroupID: groupID,
				UserID:  userID,
				Role:    models.RoleMember,
				Status:  models.MembershipPending,
			}
			if err := tx.CreateMembership(ctx, membership); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}

		return []models.Event{
			models.NewEvent(models.EventMembershipRequested, groupID, membership.ID, membership.ID, map[string]string{
				"user_id": userID,
			}),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// Approve activates a pending membership and opens its balance. Only an
// active admin of the group may approve.
func (r *Registry) Approve(ctx context.Context, membershipID, actorID string) (*models.Membership, error) {
	groupID, err := r.membershipGroup(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	var membership *models.Membership
	_, err = r.coord.Execute(ctx, "approve_membership", groupID, func(ctx context.Context, tx storage.Repository) ([]models.Event, error) {
		if _, err := adminOf(ctx, tx, groupID, actorID); err != nil {
			return nil, err
		}
		m, err := tx.GetMembership(ctx, membershipID)
		if err != nil {
			return nil, err
		}
		if m.Status != models.MembershipPending {
			return nil, fmt.Errorf("%w: cannot approve a %s membership", models.ErrInvalidStateTransition, m.Status)
		}

		m.Status = models.MembershipActive
		if err := tx.UpdateMembership(ctx, m); err != nil {
			return nil, err
		}

		// A member who left and came back keeps the zero balance they left with.
		if _, err := tx.GetBalanceByMembership(ctx, m.ID); isNotFound(err) {
			if err := tx.CreateBalance(ctx, models.NewBalance(m)); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}

		membership = m
		return []models.Event{activatedEvent(m, actorID)}, nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// Remove ends a membership. Members may leave on their own; admins may
// remove anyone. The member's balance must be settled, and a group keeps at
// least one active admin.
func (r *Registry) Remove(ctx context.Context, membershipID, actorID string) (*models.Membership, error) {
	groupID, err := r.membershipGroup(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	var membership *models.Membership
	_, err = r.coord.Execute(ctx, "remove_membership", groupID, func(ctx context.Context, tx storage.Repository) ([]models.Event, error) {
		actor, err := tx.GetMembership(ctx, actorID)
		if err != nil || !actor.BelongsTo(groupID) {
			return nil, fmt.Errorf("%w: %s is not an active member of group %s", models.ErrUnauthorized, actorID, groupID)
		}
		m, err := tx.GetMembership(ctx, membershipID)
		if err != nil {
			return nil, err
		}
		if actor.ID != m.ID && !actor.IsAdmin() {
			return nil, fmt.Errorf("%w: only admins can remove other members", models.ErrUnauthorized)
		}
		if m.Status == models.MembershipRemoved {
			return nil, fmt.Errorf("%w: membership %s already removed", models.ErrInvalidStateTransition, m.ID)
		}

		if m.IsActive() {
			balance, err := tx.GetBalanceByMembership(ctx, m.ID)
			if err != nil {
				return nil, err
			}
			if !balance.IsSettled() {
				return nil, fmt.Errorf("%w: member %s has balance %s", models.ErrUnsettledBalance,
					m.ID, balance.Amount.StringFixed(models.MoneyScale))
			}
			if m.IsAdmin() {
				if err := requireAnotherAdmin(ctx, tx, groupID, m.ID); err != nil {
					return nil, err
				}
			}
		}

		m.Status = models.MembershipRemoved
		if err := tx.UpdateMembership(ctx, m); err != nil {
			return nil, err
		}

		membership = m
		return []models.Event{
			models.NewEvent(models.EventMembershipRemoved, groupID, m.ID, actor.ID, map[string]string{
				"user_id": m.UserID,
			}),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// Deactivate closes a group to new expenses and settlements. Only an active
// admin may deactivate, and only once.
func (r *Registry) Deactivate(ctx context.Context, groupID, actorID string) (*models.Group, error) {
	var group *models.Group
	_, err := r.coord.Execute(ctx, "deactivate_group", groupID, func(ctx context.Context, tx storage.Repository) ([]models.Event, error) {
		if _, err := adminOf(ctx, tx, groupID, actorID); err != nil {
			return nil, err
		}
		g, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if !g.Active {
			return nil, fmt.Errorf("%w: group %s is already inactive", models.ErrInvalidStateTransition, groupID)
		}

		g.Active = false
		if err := tx.UpdateGroup(ctx, g); err != nil {
			return nil, err
		}

		group = g
		return []models.Event{models.NewEvent(models.EventGroupDeactivated, groupID, groupID, actorID, nil)}, nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// Group returns a group by ID.
func (r *Registry) Group(ctx context.Context, groupID string) (*models.Group, error) {
	return r.store.GetGroup(ctx, groupID)
}

// Members returns every membership of the group, removed ones included.
func (r *Registry) Members(ctx context.Context, groupID string) ([]*models.Membership, error) {
	return r.store.ListMembershipsByGroup(ctx, groupID)
}

// GroupsForUser returns the groups where the user is pending or active.
func (r *Registry) GroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	return r.store.ListGroupsByUser(ctx, userID)
}

// MembershipOf returns the user's membership in the group.
func (r *Registry) MembershipOf(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	return r.store.GetMembershipByUser(ctx, groupID, userID)
}

// Users resolves user IDs to accounts for display.
func (r *Registry) Users(ctx context.Context, ids []string) (map[string]*models.User, error) {
	return r.store.GetUsersByIDs(ctx, ids)
}

func (r *Registry) membershipGroup(ctx context.Context, membershipID string) (string, error) {
	m, err := r.store.GetMembership(ctx, membershipID)
	if err != nil {
		return "", fmt.Errorf("failed to find membership: %w", err)
	}
	return m.GroupID, nil
}

func adminOf(ctx context.Context, tx storage.Repository, groupID, actorID string) (*models.Membership, error) {
	actor, err := tx.GetMembership(ctx, actorID)
	if err != nil || !actor.BelongsTo(groupID) || !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: %s is not an admin of group %s", models.ErrUnauthorized, actorID, groupID)
	}
	return actor, nil
}

func requireAnotherAdmin(ctx context.Context, tx storage.Repository, groupID, leavingID string) error {
	members, err := tx.ListMembershipsByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.ID != leavingID && m.IsActive() && m.IsAdmin() {
			return nil
		}
	}
	return fmt.Errorf("%w: the last admin cannot leave the group", models.ErrInvalidStateTransition)
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}

func activatedEvent(m *models.Membership, actorID string) models.Event {
	return models.NewEvent(models.EventMembershipActivated, m.GroupID, m.ID, actorID, map[string]string{
		"user_id": m.UserID,
		"role":    string(m.Role),
	})
}
