package models

import "time"

// Group is a set of people sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Work Lunch").
	Name string

	// Currency is an ISO 4217 code. It is informational only; amounts are
	// never converted.
	Currency string

	// Active is false once an admin deactivates the group. Inactive groups
	// accept no new expenses or settlements.
	Active bool

	CreatedAt time.Time
}

// Role is a membership's permission level inside its group.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// MembershipStatus tracks a membership through the join workflow.
type MembershipStatus string

const (
	MembershipPending MembershipStatus = "pending"
	MembershipActive  MembershipStatus = "active"
	MembershipRemoved MembershipStatus = "removed"
)

// Membership is a user's participation record in one group.
type Membership struct {
	ID      string
	GroupID string
	UserID  string
	Role    Role
	Status  MembershipStatus

	JoinedAt time.Time
}

func (m *Membership) IsAdmin() bool {
	return m != nil && m.Role == RoleAdmin
}

func (m *Membership) IsActive() bool {
	return m != nil && m.Status == MembershipActive
}

// BelongsTo reports whether the membership is an active member of groupID.
func (m *Membership) BelongsTo(groupID string) bool {
	return m.IsActive() && m.GroupID == groupID
}
