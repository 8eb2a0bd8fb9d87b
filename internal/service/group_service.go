package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/registry"
	"github.com/mmynk/splitledger/pkg/api"
)

// GroupService implements api.GroupServiceHandler on top of the registry.
type GroupService struct {
	registry *registry.Registry
}

// NewGroupService creates a new GroupService.
func NewGroupService(reg *registry.Registry) *GroupService {
	return &GroupService{registry: reg}
}

// CreateGroup creates a group with the caller as its admin.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received", "name", req.Msg.Name, "user_id", userID)

	group, admin, err := s.registry.CreateGroup(ctx, userID, req.Msg.Name, req.Msg.Currency)
	if err != nil {
		return nil, toConnectError(ctx, "CreateGroup", err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{
		Group:      toAPIGroup(group),
		Membership: s.member(ctx, admin),
	}), nil
}

// GetGroup returns a group and all of its memberships.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	if _, err := viewer(ctx, s.registry, req.Msg.GroupID); err != nil {
		return nil, toConnectError(ctx, "GetGroup", err)
	}

	group, err := s.registry.Group(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "GetGroup", err)
	}
	memberships, err := s.registry.Members(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(ctx, "GetGroup", err)
	}

	userIDs := make([]string, len(memberships))
	for i, m := range memberships {
		userIDs[i] = m.UserID
	}
	users, err := s.registry.Users(ctx, userIDs)
	if err != nil {
		return nil, toConnectError(ctx, "GetGroup", err)
	}

	members := make([]*api.Member, len(memberships))
	for i, m := range memberships {
		members[i] = toAPIMember(m, users)
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group), Members: members}), nil
}

// ListGroups returns the groups the caller is pending or active in.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.registry.GroupsForUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(ctx, "ListGroups", err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g)
	}
	slog.Info("ListGroups successful", "user_id", userID, "count", len(out))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// JoinGroup asks for membership on behalf of the caller.
func (s *GroupService) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.MembershipResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	m, err := s.registry.Join(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(ctx, "JoinGroup", err)
	}
	slog.Info("Membership requested", "group_id", m.GroupID, "membership_id", m.ID)
	return connect.NewResponse(&api.MembershipResponse{Membership: s.member(ctx, m)}), nil
}

// ApproveMember activates a pending membership. Admins only.
func (s *GroupService) ApproveMember(ctx context.Context, req *connect.Request[api.MembershipRequest]) (*connect.Response[api.MembershipResponse], error) {
	actor, err := callerMembership(ctx, s.registry, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "ApproveMember", err)
	}

	m, err := s.registry.Approve(ctx, req.Msg.MembershipID, actor.ID)
	if err != nil {
		return nil, toConnectError(ctx, "ApproveMember", err)
	}
	slog.Info("Membership approved", "group_id", m.GroupID, "membership_id", m.ID)
	return connect.NewResponse(&api.MembershipResponse{Membership: s.member(ctx, m)}), nil
}

// RemoveMember removes a membership. Callers may remove themselves; admins
// may remove anyone with a settled balance.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.MembershipRequest]) (*connect.Response[api.MembershipResponse], error) {
	actor, err := callerMembership(ctx, s.registry, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "RemoveMember", err)
	}

	m, err := s.registry.Remove(ctx, req.Msg.MembershipID, actor.ID)
	if err != nil {
		return nil, toConnectError(ctx, "RemoveMember", err)
	}
	slog.Info("Membership removed", "group_id", m.GroupID, "membership_id", m.ID)
	return connect.NewResponse(&api.MembershipResponse{Membership: s.member(ctx, m)}), nil
}

// DeactivateGroup closes the group to new ledger activity. Admins only.
func (s *GroupService) DeactivateGroup(ctx context.Context, req *connect.Request[api.DeactivateGroupRequest]) (*connect.Response[api.DeactivateGroupResponse], error) {
	actor, err := callerMembership(ctx, s.registry, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "DeactivateGroup", err)
	}

	group, err := s.registry.Deactivate(ctx, req.Msg.GroupID, actor.ID)
	if err != nil {
		return nil, toConnectError(ctx, "DeactivateGroup", err)
	}
	slog.Info("Group deactivated", "group_id", group.ID)
	return connect.NewResponse(&api.DeactivateGroupResponse{Group: toAPIGroup(group)}), nil
}

// member converts m, adding the display name when it can be resolved.
func (s *GroupService) member(ctx context.Context, m *models.Membership) *api.Member {
	users, err := s.registry.Users(ctx, []string{m.UserID})
	if err != nil {
		slog.Warn("Failed to resolve display name", "user_id", m.UserID, "error", err)
	}
	return toAPIMember(m, users)
}
