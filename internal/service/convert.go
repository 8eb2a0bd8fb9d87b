package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(models.MoneyScale)
}

func unix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   unix(u.CreatedAt),
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Currency:  g.Currency,
		Active:    g.Active,
		CreatedAt: g.CreatedAt,
	}
}

// toAPIMember fills DisplayName from users when the user is known.
func toAPIMember(m *models.Membership, users map[string]*models.User) *api.Member {
	member := &api.Member{
		MembershipID: m.ID,
		UserID:       m.UserID,
		Role:         string(m.Role),
		Status:       string(m.Status),
		JoinedAt:     m.JoinedAt,
	}
	if u, ok := users[m.UserID]; ok {
		member.DisplayName = u.DisplayName
	}
	return member
}

func toAPIBalance(b *models.Balance) *api.Balance {
	return &api.Balance{
		MembershipID: b.MembershipID,
		Amount:       money(b.Amount),
		UpdatedAt:    b.UpdatedAt,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	shares := make([]api.Share, len(e.Shares))
	for i, s := range e.Shares {
		shares[i] = api.Share{MembershipID: s.MembershipID, Amount: money(s.Amount)}
	}
	return &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		PayerID:     e.PayerID,
		CreatedBy:   e.CreatedBy,
		Amount:      money(e.Amount),
		Description: e.Description,
		Category:    string(e.Category),
		ExpenseDate: e.ExpenseDate,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		Deleted:     e.Deleted,
		Shares:      shares,
	}
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	out := &api.Settlement{
		ID:         s.ID,
		GroupID:    s.GroupID,
		PayerID:    s.PayerID,
		ReceiverID: s.ReceiverID,
		Amount:     money(s.Amount),
		Status:     string(s.Status),
		CreatedAt:  s.CreatedAt,
		ResolvedBy: s.ResolvedBy,
	}
	if !s.ResolvedAt.IsZero() {
		resolved := s.ResolvedAt
		out.ResolvedAt = &resolved
	}
	return out
}

func toAPISettlements(in []*models.Settlement) []*api.Settlement {
	out := make([]*api.Settlement, len(in))
	for i, s := range in {
		out[i] = toAPISettlement(s)
	}
	return out
}

func toAPIEvents(in []models.Event) []*api.Event {
	out := make([]*api.Event, len(in))
	for i, e := range in {
		out[i] = &api.Event{
			ID:          e.ID,
			Type:        string(e.Type),
			GroupID:     e.GroupID,
			SourceID:    e.SourceID,
			TriggeredBy: e.TriggeredBy,
			OccurredAt:  e.OccurredAt,
			Payload:     e.Payload,
		}
	}
	return out
}
