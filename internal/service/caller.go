package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/registry"
)

// callerID returns the authenticated user, or a CodeUnauthenticated error.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// callerMembership resolves the caller's membership in groupID, whatever its
// status. Commands pass its ID on as the acting membership and let the
// registry or coordinator decide what that membership may do.
func callerMembership(ctx context.Context, reg *registry.Registry, groupID string) (*models.Membership, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if groupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group_id is required"))
	}
	m, err := reg.MembershipOf(ctx, groupID, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: not a member of group %s", models.ErrUnauthorized, groupID)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// viewer is callerMembership restricted to active members, for reads.
func viewer(ctx context.Context, reg *registry.Registry, groupID string) (*models.Membership, error) {
	m, err := callerMembership(ctx, reg, groupID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive() {
		return nil, fmt.Errorf("%w: membership in group %s is %s", models.ErrUnauthorized, groupID, m.Status)
	}
	return m, nil
}
