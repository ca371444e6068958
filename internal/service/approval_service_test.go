package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pendingChairOrder creates an order for a flagged product so it lands in
// PENDING_APPROVAL with one pending approval for the department approver.
func pendingChairOrder(t *testing.T, env *testEnv, requester *model.User) *OrderResponse {
	t.Helper()
	chair := env.createProduct(t, "Ergonomic Chair", true)
	svc := newOrderServiceForTest(env, nil, nil)

	order, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items:      []CreateOrderItemDTO{{ProductID: chair.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, string(model.StatusPendingApproval), order.Status)
	return order
}

func TestDecideApprovalApprove(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	approver := env.createUser(t, "bob", model.RoleApprover, "IT")
	order := pendingChairOrder(t, env, requester)
	svc := newApprovalServiceForTest(env)

	decided, err := svc.DecideApproval(context.Background(), order.ID, approver.ID.String(), true, "within budget")
	require.NoError(t, err)

	assert.Equal(t, model.ApprovalApproved, decided.Status)
	assert.Equal(t, "within budget", decided.Comment)
	require.NotNil(t, decided.DecidedAt)

	assert.Equal(t, model.StatusApproved, env.orderStatus(t, order.ID))

	history := env.orderHistory(t, order.ID)
	require.Len(t, history, 3)
	last := history[len(history)-1]
	require.NotNil(t, last.FromStatus)
	assert.Equal(t, model.StatusPendingApproval, *last.FromStatus)
	assert.Equal(t, model.StatusApproved, last.ToStatus)
	assert.Equal(t, "within budget", last.Note)
	require.NotNil(t, last.ActorID)
	assert.Equal(t, approver.ID, *last.ActorID)
}

func TestDecideApprovalReject(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	approver := env.createUser(t, "bob", model.RoleApprover, "IT")
	order := pendingChairOrder(t, env, requester)
	svc := newApprovalServiceForTest(env)

	decided, err := svc.DecideApproval(context.Background(), order.ID, approver.ID.String(), false, "no budget left")
	require.NoError(t, err)

	assert.Equal(t, model.ApprovalRejected, decided.Status)
	assert.Equal(t, model.StatusRejected, env.orderStatus(t, order.ID))
	assert.True(t, model.StatusRejected.IsTerminal())
}

func TestDecideApprovalWithoutPendingApproval(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	env.createUser(t, "bob", model.RoleApprover, "IT")
	outsider := env.createUser(t, "carol", model.RoleApprover, "Sales")
	order := pendingChairOrder(t, env, requester)
	svc := newApprovalServiceForTest(env)

	_, err := svc.DecideApproval(context.Background(), order.ID, outsider.ID.String(), true, "")

	var notFound *ApprovalNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, model.StatusPendingApproval, env.orderStatus(t, order.ID))
}

func TestDecideApprovalTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	approver := env.createUser(t, "bob", model.RoleApprover, "IT")
	order := pendingChairOrder(t, env, requester)
	svc := newApprovalServiceForTest(env)

	_, err := svc.DecideApproval(context.Background(), order.ID, approver.ID.String(), true, "ok")
	require.NoError(t, err)

	// The approval is resolved; a second submission has nothing pending.
	_, err = svc.DecideApproval(context.Background(), order.ID, approver.ID.String(), false, "changed my mind")

	var notFound *ApprovalNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, model.StatusApproved, env.orderStatus(t, order.ID))
}

func TestDecideApprovalUnknownOrder(t *testing.T) {
	env := newTestEnv(t)
	approver := env.createUser(t, "bob", model.RoleApprover, "IT")
	svc := newApprovalServiceForTest(env)

	_, err := svc.DecideApproval(context.Background(), uuid.NewString(), approver.ID.String(), true, "")

	var notFound *OrderNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestLosingDecisionIsRecordedButDoesNotMoveOrder(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	first := env.createUser(t, "bob", model.RoleApprover, "IT")
	second := env.createUser(t, "dora", model.RoleApprover, "Finance")
	order := pendingChairOrder(t, env, requester)
	svc := newApprovalServiceForTest(env)

	// A second reviewer was asked as well.
	require.NoError(t, env.approvals.Create(context.Background(), &model.Approval{
		OrderID:    uuid.MustParse(order.ID),
		ApproverID: second.ID,
		Status:     model.ApprovalPending,
	}))

	_, err := svc.DecideApproval(context.Background(), order.ID, first.ID.String(), true, "fine by me")
	require.NoError(t, err)
	require.Equal(t, model.StatusApproved, env.orderStatus(t, order.ID))

	_, err = svc.DecideApproval(context.Background(), order.ID, second.ID.String(), false, "too expensive")

	var conflict *OrderNotPendingApprovalError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, model.StatusApproved, conflict.Status)

	// The losing verdict is persisted, the order keeps the winner's status.
	var losing model.Approval
	require.NoError(t, env.db.
		Where("order_id = ? AND approver_id = ?", order.ID, second.ID).
		First(&losing).Error)
	assert.Equal(t, model.ApprovalRejected, losing.Status)
	assert.NotNil(t, losing.DecidedAt)
	assert.Equal(t, model.StatusApproved, env.orderStatus(t, order.ID))

	// Exactly one transition out of PENDING_APPROVAL in the history.
	history := env.orderHistory(t, order.ID)
	require.Len(t, history, 3)
	assert.Equal(t, model.StatusApproved, history[len(history)-1].ToStatus)
}

func TestListApprovalsFiltersByApprover(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", model.RoleRequester, "IT")
	bob := env.createUser(t, "bob", model.RoleApprover, "IT")
	carl := env.createUser(t, "carl", model.RoleRequester, "Sales")
	env.createUser(t, "dora", model.RoleApprover, "Sales")

	pendingChairOrder(t, env, alice)
	pendingChairOrder(t, env, carl)

	svc := newApprovalServiceForTest(env)

	all, total, err := svc.ListApprovals(context.Background(), ApprovalFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	mine, total, err := svc.ListApprovals(context.Background(), ApprovalFilter{ApproverID: bob.ID.String()})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, mine, 1)
	assert.Equal(t, bob.ID.String(), mine[0].ApproverID)

	none, total, err := svc.ListApprovals(context.Background(), ApprovalFilter{Status: model.ApprovalRejected})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

func TestApprovedOrderContinuesThroughFulfillment(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	approver := env.createUser(t, "bob", model.RoleApprover, "IT")
	staff := env.createUser(t, "carol", model.RoleITSupport, "IT")
	order := pendingChairOrder(t, env, requester)

	approvalSvc := newApprovalServiceForTest(env)
	orderSvc := newOrderServiceForTest(env, nil, nil)

	_, err := approvalSvc.DecideApproval(context.Background(), order.ID, approver.ID.String(), true, "ok")
	require.NoError(t, err)

	_, err = orderSvc.TransitionStatus(context.Background(), order.ID, model.StatusOrdered, model.RoleITSupport, staff.ID.String(), "sent to supplier")
	require.NoError(t, err)

	// The requester cannot push it any further.
	_, err = orderSvc.TransitionStatus(context.Background(), order.ID, model.StatusOrderConfirmed, model.RoleRequester, requester.ID.String(), "")
	var unauthorized *UnauthorizedTransitionError
	require.ErrorAs(t, err, &unauthorized)

	assert.Equal(t, model.StatusOrdered, env.orderStatus(t, order.ID))
	history := env.orderHistory(t, order.ID)
	require.Len(t, history, 4)
	assert.Equal(t, model.StatusOrdered, history[len(history)-1].ToStatus)
}
