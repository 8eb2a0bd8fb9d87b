package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const LedgerServiceName = "splitledger.v1.LedgerService"

const (
	LedgerServiceRecordExpenseProcedure      = "/splitledger.v1.LedgerService/RecordExpense"
	LedgerServiceEditExpenseProcedure        = "/splitledger.v1.LedgerService/EditExpense"
	LedgerServiceDeleteExpenseProcedure      = "/splitledger.v1.LedgerService/DeleteExpense"
	LedgerServiceGetExpenseProcedure         = "/splitledger.v1.LedgerService/GetExpense"
	LedgerServiceListExpensesProcedure       = "/splitledger.v1.LedgerService/ListExpenses"
	LedgerServiceGetBalancesProcedure        = "/splitledger.v1.LedgerService/GetBalances"
	LedgerServiceSuggestSettlementsProcedure = "/splitledger.v1.LedgerService/SuggestSettlements"
	LedgerServiceProposeSettlementProcedure  = "/splitledger.v1.LedgerService/ProposeSettlement"
	LedgerServiceConfirmSettlementProcedure  = "/splitledger.v1.LedgerService/ConfirmSettlement"
	LedgerServiceCancelSettlementProcedure   = "/splitledger.v1.LedgerService/CancelSettlement"
	LedgerServiceListSettlementsProcedure    = "/splitledger.v1.LedgerService/ListSettlements"
	LedgerServiceListEventsProcedure         = "/splitledger.v1.LedgerService/ListEvents"
)

// LedgerServiceHandler serves expenses, balances and settlements.
type LedgerServiceHandler interface {
	RecordExpense(context.Context, *connect.Request[RecordExpenseRequest]) (*connect.Response[ExpenseResponse], error)
	EditExpense(context.Context, *connect.Request[EditExpenseRequest]) (*connect.Response[ExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[ExpenseRequest]) (*connect.Response[ExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[ExpenseRequest]) (*connect.Response[ExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error)
	GetBalances(context.Context, *connect.Request[GroupRequest]) (*connect.Response[GetBalancesResponse], error)
	SuggestSettlements(context.Context, *connect.Request[GroupRequest]) (*connect.Response[SuggestSettlementsResponse], error)
	ProposeSettlement(context.Context, *connect.Request[ProposeSettlementRequest]) (*connect.Response[SettlementResponse], error)
	ConfirmSettlement(context.Context, *connect.Request[SettlementRequest]) (*connect.Response[SettlementResponse], error)
	CancelSettlement(context.Context, *connect.Request[SettlementRequest]) (*connect.Response[SettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error)
	ListEvents(context.Context, *connect.Request[GroupRequest]) (*connect.Response[ListEventsResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opt := handlerOptions(opts)
	// Reads are side-effect free and may be retried or served over GET.
	read := connect.WithHandlerOptions(opt, connect.WithIdempotency(connect.IdempotencyNoSideEffects))
	handlers := map[string]http.Handler{
		LedgerServiceRecordExpenseProcedure:      connect.NewUnaryHandler(LedgerServiceRecordExpenseProcedure, svc.RecordExpense, opt),
		LedgerServiceEditExpenseProcedure:        connect.NewUnaryHandler(LedgerServiceEditExpenseProcedure, svc.EditExpense, opt),
		LedgerServiceDeleteExpenseProcedure:      connect.NewUnaryHandler(LedgerServiceDeleteExpenseProcedure, svc.DeleteExpense, opt),
		LedgerServiceGetExpenseProcedure:         connect.NewUnaryHandler(LedgerServiceGetExpenseProcedure, svc.GetExpense, read),
		LedgerServiceListExpensesProcedure:       connect.NewUnaryHandler(LedgerServiceListExpensesProcedure, svc.ListExpenses, read),
		LedgerServiceGetBalancesProcedure:        connect.NewUnaryHandler(LedgerServiceGetBalancesProcedure, svc.GetBalances, read),
		LedgerServiceSuggestSettlementsProcedure: connect.NewUnaryHandler(LedgerServiceSuggestSettlementsProcedure, svc.SuggestSettlements, read),
		LedgerServiceProposeSettlementProcedure:  connect.NewUnaryHandler(LedgerServiceProposeSettlementProcedure, svc.ProposeSettlement, opt),
		LedgerServiceConfirmSettlementProcedure:  connect.NewUnaryHandler(LedgerServiceConfirmSettlementProcedure, svc.ConfirmSettlement, opt),
		LedgerServiceCancelSettlementProcedure:   connect.NewUnaryHandler(LedgerServiceCancelSettlementProcedure, svc.CancelSettlement, opt),
		LedgerServiceListSettlementsProcedure:    connect.NewUnaryHandler(LedgerServiceListSettlementsProcedure, svc.ListSettlements, read),
		LedgerServiceListEventsProcedure:         connect.NewUnaryHandler(LedgerServiceListEventsProcedure, svc.ListEvents, read),
	}
	return "/" + LedgerServiceName + "/", route(handlers)
}

// LedgerServiceClient is a client for splitledger.v1.LedgerService.
type LedgerServiceClient interface {
	LedgerServiceHandler
}

// NewLedgerServiceClient constructs a client. baseURL is the server root.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opt := clientOptions(opts)
	return &ledgerServiceClient{
		recordExpense:      connect.NewClient[RecordExpenseRequest, ExpenseResponse](httpClient, baseURL+LedgerServiceRecordExpenseProcedure, opt),
		editExpense:        connect.NewClient[EditExpenseRequest, ExpenseResponse](httpClient, baseURL+LedgerServiceEditExpenseProcedure, opt),
		deleteExpense:      connect.NewClient[ExpenseRequest, ExpenseResponse](httpClient, baseURL+LedgerServiceDeleteExpenseProcedure, opt),
		getExpense:         connect.NewClient[ExpenseRequest, ExpenseResponse](httpClient, baseURL+LedgerServiceGetExpenseProcedure, opt),
		listExpenses:       connect.NewClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL+LedgerServiceListExpensesProcedure, opt),
		getBalances:        connect.NewClient[GroupRequest, GetBalancesResponse](httpClient, baseURL+LedgerServiceGetBalancesProcedure, opt),
		suggestSettlements: connect.NewClient[GroupRequest, SuggestSettlementsResponse](httpClient, baseURL+LedgerServiceSuggestSettlementsProcedure, opt),
		proposeSettlement:  connect.NewClient[ProposeSettlementRequest, SettlementResponse](httpClient, baseURL+LedgerServiceProposeSettlementProcedure, opt),
		confirmSettlement:  connect.NewClient[SettlementRequest, SettlementResponse](httpClient, baseURL+LedgerServiceConfirmSettlementProcedure, opt),
		cancelSettlement:   connect.NewClient[SettlementRequest, SettlementResponse](httpClient, baseURL+LedgerServiceCancelSettlementProcedure, opt),
		listSettlements:    connect.NewClient[ListSettlementsRequest, ListSettlementsResponse](httpClient, baseURL+LedgerServiceListSettlementsProcedure, opt),
		listEvents:         connect.NewClient[GroupRequest, ListEventsResponse](httpClient, baseURL+LedgerServiceListEventsProcedure, opt),
	}
}

type ledgerServiceClient struct {
	recordExpense      *connect.Client[RecordExpenseRequest, ExpenseResponse]
	editExpense        *connect.Client[EditExpenseRequest, ExpenseResponse]
	deleteExpense      *connect.Client[ExpenseRequest, ExpenseResponse]
	getExpense         *connect.Client[ExpenseRequest, ExpenseResponse]
	listExpenses       *connect.Client[ListExpensesRequest, ListExpensesResponse]
	getBalances        *connect.Client[GroupRequest, GetBalancesResponse]
	suggestSettlements *connect.Client[GroupRequest, SuggestSettlementsResponse]
	proposeSettlement  *connect.Client[ProposeSettlementRequest, SettlementResponse]
	confirmSettlement  *connect.Client[SettlementRequest, SettlementResponse]
	cancelSettlement   *connect.Client[SettlementRequest, SettlementResponse]
	listSettlements    *connect.Client[ListSettlementsRequest, ListSettlementsResponse]
	listEvents         *connect.Client[GroupRequest, ListEventsResponse]
}

func (c *ledgerServiceClient) RecordExpense(ctx context.Context, req *connect.Request[RecordExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	return c.recordExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) EditExpense(ctx context.Context, req *connect.Request[EditExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	return c.editExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[ExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetExpense(ctx context.Context, req *connect.Request[ExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetBalances(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) SuggestSettlements(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[SuggestSettlementsResponse], error) {
	return c.suggestSettlements.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ProposeSettlement(ctx context.Context, req *connect.Request[ProposeSettlementRequest]) (*connect.Response[SettlementResponse], error) {
	return c.proposeSettlement.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ConfirmSettlement(ctx context.Context, req *connect.Request[SettlementRequest]) (*connect.Response[SettlementResponse], error) {
	return c.confirmSettlement.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) CancelSettlement(ctx context.Context, req *connect.Request[SettlementRequest]) (*connect.Response[SettlementResponse], error) {
	return c.cancelSettlement.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListEvents(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[ListEventsResponse], error) {
	return c.listEvents.CallUnary(ctx, req)
}
