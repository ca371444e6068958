package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequesterMayNotDriveAnyTransition(t *testing.T) {
	for _, target := range AllStatuses {
		assert.False(t, IsAuthorized(RoleRequester, target), "requester must not reach %s", target)
	}
}

func TestApproverOnlyResolvesApprovals(t *testing.T) {
	for _, target := range AllStatuses {
		want := target == StatusApproved || target == StatusRejected
		assert.Equal(t, want, IsAuthorized(RoleApprover, target), "approver vs %s", target)
	}
}

func TestOperationalRolesShareTheFulfillmentRange(t *testing.T) {
	for _, role := range []Role{RoleITSupport, RoleEmpfang} {
		for _, target := range AllStatuses {
			assert.Equal(t, IsAuthorized(RoleITSupport, target), IsAuthorized(role, target),
				"%s and IT support must agree on %s", role, target)
		}
		// Fulfillment staff never resolve approvals or create orders.
		assert.False(t, IsAuthorized(role, StatusApproved))
		assert.False(t, IsAuthorized(role, StatusRejected))
		assert.False(t, IsAuthorized(role, StatusNew))
		assert.False(t, IsAuthorized(role, StatusPendingApproval))
		assert.True(t, IsAuthorized(role, StatusOrdered))
		assert.True(t, IsAuthorized(role, StatusCancelled))
	}
}

func TestAdminIsAuthorizedForEveryStatus(t *testing.T) {
	for _, target := range AllStatuses {
		assert.True(t, IsAuthorized(RoleAdmin, target))
	}
}

func TestCanUserTransitionRequiresGraphAndRole(t *testing.T) {
	tests := []struct {
		name string
		role Role
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"it support starts review", RoleITSupport, StatusNew, StatusInReview, true},
		{"approver resolves pending approval", RoleApprover, StatusPendingApproval, StatusApproved, true},
		{"legal edge but role not permitted", RoleApprover, StatusInReview, StatusOnHold, false},
		{"role permitted but edge missing", RoleITSupport, StatusNew, StatusOrdered, false},
		{"requester blocked on legal edge", RoleRequester, StatusNew, StatusInReview, false},
		{"admin blocked on missing edge", RoleAdmin, StatusCompleted, StatusInReview, false},
		{"admin allowed on any legal edge", RoleAdmin, StatusPendingApproval, StatusRejected, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanUserTransition(tt.role, tt.from, tt.to))
		})
	}
}

func TestRoleIsValid(t *testing.T) {
	for _, role := range AllRoles {
		assert.True(t, role.IsValid())
	}
	assert.False(t, Role("MANAGER").IsValid())
	assert.False(t, Role("").IsValid())
}
