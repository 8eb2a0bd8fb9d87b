package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/registry"
	"github.com/mmynk/splitledger/pkg/api"
)

// LedgerService implements api.LedgerServiceHandler. It resolves the caller
// to a membership of the requested group and hands the command to the
// coordinator, which enforces every ledger rule.
type LedgerService struct {
	ledger   *ledger.Coordinator
	registry *registry.Registry
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(coord *ledger.Coordinator, reg *registry.Registry) *LedgerService {
	return &LedgerService{ledger: coord, registry: reg}
}

// RecordExpense splits a new expense equally among its participants.
func (s *LedgerService) RecordExpense(ctx context.Context, req *connect.Request[api.RecordExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	actor, err := callerMembership(ctx, s.registry, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "RecordExpense", err)
	}
	slog.Info("RecordExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"participants_count", len(req.Msg.Participants),
	)

	amount, err := models.ParseAmount(req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(ctx, "RecordExpense", err)
	}
	category, err := models.ParseCategory(req.Msg.Category)
	if err != nil {
		return nil, toConnectError(ctx, "RecordExpense", err)
	}
	payerID := req.Msg.PayerID
	if payerID == "" {
		payerID = actor.ID
	}
	var expenseDate time.Time
	if req.Msg.ExpenseDate != nil {
		expenseDate = *req.Msg.ExpenseDate
	}

	expense, evs, err := s.ledger.RecordExpense(ctx, ledger.RecordExpenseInput{
		GroupID:      req.Msg.GroupID,
		ActorID:      actor.ID,
		PayerID:      payerID,
		Amount:       amount,
		Description:  req.Msg.Description,
		Category:     category,
		ExpenseDate:  expenseDate,
		Participants: req.Msg.Participants,
	})
	if err != nil {
		return nil, toConnectError(ctx, "RecordExpense", err)
	}

	slog.Info("Expense recorded", "group_id", expense.GroupID, "expense_id", expense.ID)
	return connect.NewResponse(&api.ExpenseResponse{Expense: toAPIExpense(expense), Events: toAPIEvents(evs)}), nil
}

// EditExpense changes the fields set on the request.
func (s *LedgerService) EditExpense(ctx context.Context, req *connect.Request[api.EditExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	actor, err := callerMembership(ctx, s.registry, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "EditExpense", err)
	}

	in := ledger.EditExpenseInput{
		ExpenseID:   req.Msg.ExpenseID,
		ActorID:     actor.ID,
		Description: req.Msg.Description,
	}
	if req.Msg.Amount != nil {
		amount, err := models.ParseAmount(*req.Msg.Amount)
		if err != nil {
			return nil, toConnectError(ctx, "EditExpense", err)
		}
		in.Amount = &amount
	}
	if req.Msg.Category != nil {
		category, err := models.ParseCategory(*req.Msg.Category)
		if err != nil {
			return nil, toConnectError(ctx, "EditExpense", err)
		}
		in.Category = &category
	}

	expense, evs, err := s.ledger.EditExpense(ctx, in)
	if err != nil {
		return nil, toConnectError(ctx, "EditExpense", err)
	}

	slog.Info("Expense updated", "group_id", expense.GroupID, "expense_id", expense.ID)
	return connect.NewResponse(&api.ExpenseResponse{Expense: toAPIExpense(expense), Events: toAPIEvents(evs)}), nil
}

// DeleteExpense soft-deletes an expense and reverses its balance effect.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[api.ExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	actor, err := callerMembership(ctx, s.registry, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "DeleteExpense", err)
	}

	expense, evs, err := s.ledger.DeleteExpense(ctx, req.Msg.ExpenseID, actor.ID)
	if err != nil {
		return nil, toConnectError(ctx, "DeleteExpense", err)
	}

	slog.Info("Expense deleted", "group_id", expense.GroupID, "expense_id", expense.ID)
	return connect.NewResponse(&api.ExpenseResponse{Expense: toAPIExpense(expense), Events: toAPIEvents(evs)}), nil
}

// GetExpense returns one expense with its shares.
func (s *LedgerService) GetExpense(ctx context.Context, req *connect.Request[api.ExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	if _, err := viewer(ctx, s.registry, req.Msg.GroupID); err != nil {
		return nil, toConnectError(ctx, "GetExpense", err)
	}

	expense, err := s.ledger.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(ctx, "GetExpense", err)
	}
	if expense.GroupID != req.Msg.GroupID {
		return nil, toConnectError(ctx, "GetExpense", fmt.Errorf("expense %s: %w", req.Msg.ExpenseID, models.ErrNotFound))
	}
	return connect.NewResponse(&api.ExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// ListExpenses returns the group's expenses newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	if _, err := viewer(ctx, s.registry, req.Msg.GroupID); err != nil {
		return nil, toConnectError(ctx, "ListExpenses", err)
	}

	expenses, err := s.ledger.ExpenseHistory(ctx, req.Msg.GroupID, req.Msg.IncludeDeleted)
	if err != nil {
		return nil, toConnectError(ctx, "ListExpenses", err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// GetBalances returns every balance of the group with its totals.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	if _, err := viewer(ctx, s.registry, req.Msg.GroupID); err != nil {
		return nil, toConnectError(ctx, "GetBalances", err)
	}

	balances, err := s.ledger.GroupBalances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "GetBalances", err)
	}

	out := make([]*api.Balance, len(balances))
	debt, credit := decimal.Zero, decimal.Zero
	settled := true
	for i, b := range balances {
		out[i] = toAPIBalance(b)
		switch {
		case b.Amount.IsNegative():
			debt = debt.Sub(b.Amount)
			settled = false
		case b.Amount.IsPositive():
			credit = credit.Add(b.Amount)
			settled = false
		}
	}

	return connect.NewResponse(&api.GetBalancesResponse{
		Balances:    out,
		TotalDebt:   money(debt),
		TotalCredit: money(credit),
		Settled:     settled,
	}), nil
}

// SuggestSettlements returns the minimal set of payments that would settle
// the group. Nothing is persisted.
func (s *LedgerService) SuggestSettlements(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.SuggestSettlementsResponse], error) {
	if _, err := viewer(ctx, s.registry, req.Msg.GroupID); err != nil {
		return nil, toConnectError(ctx, "SuggestSettlements", err)
	}

	suggestions, err := s.ledger.SuggestSettlements(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "SuggestSettlements", err)
	}
	return connect.NewResponse(&api.SuggestSettlementsResponse{Settlements: toAPISettlements(suggestions)}), nil
}

// ProposeSettlement records a repayment awaiting the receiver's confirmation.
func (s *LedgerService) ProposeSettlement(ctx context.Context, req *connect.Request[api.ProposeSettlementRequest]) (*connect.Response[api.SettlementResponse], error) {
	actor, err := callerMembership(ctx, s.registry, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "ProposeSettlement", err)
	}

	amount, err := models.ParseAmount(req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(ctx, "ProposeSettlement", err)
	}
	payerID := req.Msg.PayerID
	if payerID == "" {
		payerID = actor.ID
	}

	settlement, evs, err := s.ledger.ProposeSettlement(ctx, ledger.ProposeSettlementInput{
		GroupID:    req.Msg.GroupID,
		ActorID:    actor.ID,
		PayerID:    payerID,
		ReceiverID: req.Msg.ReceiverID,
		Amount:     amount,
	})
	if err != nil {
		return nil, toConnectError(ctx, "ProposeSettlement", err)
	}

	slog.Info("Settlement proposed", "group_id", settlement.GroupID, "settlement_id", settlement.ID)
	return connect.NewResponse(&api.SettlementResponse{Settlement: toAPISettlement(settlement), Events: toAPIEvents(evs)}), nil
}

// ConfirmSettlement completes a settlement. Only its receiver may confirm.
func (s *LedgerService) ConfirmSettlement(ctx context.Context, req *connect.Request[api.SettlementRequest]) (*connect.Response[api.SettlementResponse], error) {
	actor, err := callerMembership(ctx, s.registry, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "ConfirmSettlement", err)
	}

	settlement, evs, err := s.ledger.ConfirmSettlement(ctx, req.Msg.SettlementID, actor.ID)
	if err != nil {
		return nil, toConnectError(ctx, "ConfirmSettlement", err)
	}

	slog.Info("Settlement confirmed", "group_id", settlement.GroupID, "settlement_id", settlement.ID)
	return connect.NewResponse(&api.SettlementResponse{Settlement: toAPISettlement(settlement), Events: toAPIEvents(evs)}), nil
}

// CancelSettlement withdraws a pending settlement.
func (s *LedgerService) CancelSettlement(ctx context.Context, req *connect.Request[api.SettlementRequest]) (*connect.Response[api.SettlementResponse], error) {
	actor, err := callerMembership(ctx, s.registry, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "CancelSettlement", err)
	}

	settlement, evs, err := s.ledger.CancelSettlement(ctx, req.Msg.SettlementID, actor.ID)
	if err != nil {
		return nil, toConnectError(ctx, "CancelSettlement", err)
	}

	slog.Info("Settlement cancelled", "group_id", settlement.GroupID, "settlement_id", settlement.ID)
	return connect.NewResponse(&api.SettlementResponse{Settlement: toAPISettlement(settlement), Events: toAPIEvents(evs)}), nil
}

// ListSettlements returns the group's settlements, optionally by status.
func (s *LedgerService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	if _, err := viewer(ctx, s.registry, req.Msg.GroupID); err != nil {
		return nil, toConnectError(ctx, "ListSettlements", err)
	}

	var (
		settlements []*models.Settlement
		err         error
	)
	switch models.SettlementStatus(strings.ToUpper(req.Msg.Status)) {
	case "":
		settlements, err = s.ledger.GroupSettlements(ctx, req.Msg.GroupID)
	case models.SettlementCreated:
		settlements, err = s.ledger.PendingSettlements(ctx, req.Msg.GroupID)
	case models.SettlementConfirmed:
		settlements, err = s.ledger.CompletedSettlements(ctx, req.Msg.GroupID)
	case models.SettlementCancelled:
		var all []*models.Settlement
		all, err = s.ledger.GroupSettlements(ctx, req.Msg.GroupID)
		for _, st := range all {
			if st.Status == models.SettlementCancelled {
				settlements = append(settlements, st)
			}
		}
	default:
		err = fmt.Errorf("%w: unknown status %q", models.ErrInvalidSettlement, req.Msg.Status)
	}
	if err != nil {
		return nil, toConnectError(ctx, "ListSettlements", err)
	}

	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: toAPISettlements(settlements)}), nil
}

// ListEvents returns the group's event log oldest first.
func (s *LedgerService) ListEvents(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.ListEventsResponse], error) {
	if _, err := viewer(ctx, s.registry, req.Msg.GroupID); err != nil {
		return nil, toConnectError(ctx, "ListEvents", err)
	}

	evs, err := s.ledger.GroupEvents(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, "ListEvents", err)
	}
	return connect.NewResponse(&api.ListEventsResponse{Events: toAPIEvents(evs)}), nil
}
