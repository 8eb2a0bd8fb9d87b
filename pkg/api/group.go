package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

const GroupServiceName = "splitledger.v1.GroupService"

const (
	GroupServiceCreateGroupProcedure     = "/splitledger.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure        = "/splitledger.v1.GroupService/GetGroup"
	GroupServiceListGroupsProcedure      = "/splitledger.v1.GroupService/ListGroups"
	GroupServiceJoinGroupProcedure       = "/splitledger.v1.GroupService/JoinGroup"
	GroupServiceApproveMemberProcedure   = "/splitledger.v1.GroupService/ApproveMember"
	GroupServiceRemoveMemberProcedure    = "/splitledger.v1.GroupService/RemoveMember"
	GroupServiceDeactivateGroupProcedure = "/splitledger.v1.GroupService/DeactivateGroup"
)

// GroupServiceHandler serves groups and memberships.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[ListGroupsResponse], error)
	JoinGroup(context.Context, *connect.Request[JoinGroupRequest]) (*connect.Response[MembershipResponse], error)
	ApproveMember(context.Context, *connect.Request[MembershipRequest]) (*connect.Response[MembershipResponse], error)
	RemoveMember(context.Context, *connect.Request[MembershipRequest]) (*connect.Response[MembershipResponse], error)
	DeactivateGroup(context.Context, *connect.Request[DeactivateGroupRequest]) (*connect.Response[DeactivateGroupResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opt := handlerOptions(opts)
	handlers := map[string]http.Handler{
		GroupServiceCreateGroupProcedure:     connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opt),
		GroupServiceGetGroupProcedure:        connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opt),
		GroupServiceListGroupsProcedure:      connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opt),
		GroupServiceJoinGroupProcedure:       connect.NewUnaryHandler(GroupServiceJoinGroupProcedure, svc.JoinGroup, opt),
		GroupServiceApproveMemberProcedure:   connect.NewUnaryHandler(GroupServiceApproveMemberProcedure, svc.ApproveMember, opt),
		GroupServiceRemoveMemberProcedure:    connect.NewUnaryHandler(GroupServiceRemoveMemberProcedure, svc.RemoveMember, opt),
		GroupServiceDeactivateGroupProcedure: connect.NewUnaryHandler(GroupServiceDeactivateGroupProcedure, svc.DeactivateGroup, opt),
	}
	return "/" + GroupServiceName + "/", route(handlers)
}

// GroupServiceClient is a client for splitledger.v1.GroupService.
type GroupServiceClient interface {
	GroupServiceHandler
}

// NewGroupServiceClient constructs a client. baseURL is the server root.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opt := clientOptions(opts)
	return &groupServiceClient{
		createGroup:     connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opt),
		getGroup:        connect.NewClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opt),
		listGroups:      connect.NewClient[emptypb.Empty, ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opt),
		joinGroup:       connect.NewClient[JoinGroupRequest, MembershipResponse](httpClient, baseURL+GroupServiceJoinGroupProcedure, opt),
		approveMember:   connect.NewClient[MembershipRequest, MembershipResponse](httpClient, baseURL+GroupServiceApproveMemberProcedure, opt),
		removeMember:    connect.NewClient[MembershipRequest, MembershipResponse](httpClient, baseURL+GroupServiceRemoveMemberProcedure, opt),
		deactivateGroup: connect.NewClient[DeactivateGroupRequest, DeactivateGroupResponse](httpClient, baseURL+GroupServiceDeactivateGroupProcedure, opt),
	}
}

type groupServiceClient struct {
	createGroup     *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup        *connect.Client[GetGroupRequest, GetGroupResponse]
	listGroups      *connect.Client[emptypb.Empty, ListGroupsResponse]
	joinGroup       *connect.Client[JoinGroupRequest, MembershipResponse]
	approveMember   *connect.Client[MembershipRequest, MembershipResponse]
	removeMember    *connect.Client[MembershipRequest, MembershipResponse]
	deactivateGroup *connect.Client[DeactivateGroupRequest, DeactivateGroupResponse]
}

func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListGroups(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *groupServiceClient) JoinGroup(ctx context.Context, req *connect.Request[JoinGroupRequest]) (*connect.Response[MembershipResponse], error) {
	return c.joinGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) ApproveMember(ctx context.Context, req *connect.Request[MembershipRequest]) (*connect.Response[MembershipResponse], error) {
	return c.approveMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) RemoveMember(ctx context.Context, req *connect.Request[MembershipRequest]) (*connect.Response[MembershipResponse], error) {
	return c.removeMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) DeactivateGroup(ctx context.Context, req *connect.Request[DeactivateGroupRequest]) (*connect.Response[DeactivateGroupResponse], error) {
	return c.deactivateGroup.CallUnary(ctx, req)
}

// route dispatches on the exact procedure path.
func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
