package api

import "time"

// Amounts travel as decimal strings with two fractional digits ("12.50").
// Member and participant IDs are membership IDs, not user IDs.

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type Member struct {
	MembershipID string    `json:"membership_id"`
	UserID       string    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	JoinedAt     time.Time `json:"joined_at"`
}

type Balance struct {
	MembershipID string    `json:"membership_id"`
	Amount       string    `json:"amount"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Share struct {
	MembershipID string `json:"membership_id"`
	Amount       string `json:"amount"`
}

type Expense struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	PayerID     string    `json:"payer_id"`
	CreatedBy   string    `json:"created_by"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	ExpenseDate time.Time `json:"expense_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Deleted     bool      `json:"deleted"`
	Shares      []Share   `json:"shares"`
}

type Settlement struct {
	ID         string     `json:"id,omitempty"`
	GroupID    string     `json:"group_id"`
	PayerID    string     `json:"payer_id"`
	ReceiverID string     `json:"receiver_id"`
	Amount     string     `json:"amount"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy string     `json:"resolved_by,omitempty"`
}

type Event struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	GroupID     string            `json:"group_id"`
	SourceID    string            `json:"source_id"`
	TriggeredBy string            `json:"triggered_by"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Payload     map[string]string `json:"payload,omitempty"`
}

// Auth

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse answers both Register and Login.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type MeResponse struct {
	User *User `json:"user"`
}

// Groups

type CreateGroupRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type CreateGroupResponse struct {
	Group      *Group  `json:"group"`
	Membership *Member `json:"membership"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group   *Group    `json:"group"`
	Members []*Member `json:"members"`
}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type JoinGroupRequest struct {
	GroupID string `json:"group_id"`
}

// MembershipRequest targets one membership of a group. Used by Approve and
// Remove; removing your own membership leaves the group.
type MembershipRequest struct {
	GroupID      string `json:"group_id"`
	MembershipID string `json:"membership_id"`
}

type MembershipResponse struct {
	Membership *Member `json:"membership"`
}

type DeactivateGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeactivateGroupResponse struct {
	Group *Group `json:"group"`
}

// Ledger

type RecordExpenseRequest struct {
	GroupID     string `json:"group_id"`
	PayerID     string `json:"payer_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	// ExpenseDate defaults to now.
	ExpenseDate *time.Time `json:"expense_date,omitempty"`
	// Participants share the amount equally, in this order for rounding.
	Participants []string `json:"participants"`
}

// EditExpenseRequest changes only the fields that are set.
type EditExpenseRequest struct {
	GroupID     string  `json:"group_id"`
	ExpenseID   string  `json:"expense_id"`
	Amount      *string `json:"amount,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
}

type ExpenseRequest struct {
	GroupID   string `json:"group_id"`
	ExpenseID string `json:"expense_id"`
}

type ExpenseResponse struct {
	Expense *Expense `json:"expense"`
	Events  []*Event `json:"events,omitempty"`
}

type ListExpensesRequest struct {
	GroupID        string `json:"group_id"`
	IncludeDeleted bool   `json:"include_deleted"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type GroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetBalancesResponse struct {
	Balances    []*Balance `json:"balances"`
	TotalDebt   string     `json:"total_debt"`
	TotalCredit string     `json:"total_credit"`
	Settled     bool       `json:"settled"`
}

type SuggestSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type ProposeSettlementRequest struct {
	GroupID string `json:"group_id"`
	// PayerID defaults to the caller's membership.
	PayerID    string `json:"payer_id,omitempty"`
	ReceiverID string `json:"receiver_id"`
	Amount     string `json:"amount"`
}

type SettlementRequest struct {
	GroupID      string `json:"group_id"`
	SettlementID string `json:"settlement_id"`
}

type SettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
	Events     []*Event    `json:"events,omitempty"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"group_id"`
	// Status filters by CREATED, CONFIRMED or CANCELLED. Empty lists all.
	Status string `json:"status,omitempty"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type ListEventsResponse struct {
	Events []*Event `json:"events"`
}
