package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderRejectsEmptyOrder(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	svc := newOrderServiceForTest(env, nil, nil)

	_, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
	})

	require.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCreateOrderReportsUnknownProducts(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	cable := env.createProduct(t, "USB Cable", false)
	svc := newOrderServiceForTest(env, nil, nil)

	ghost := uuid.NewString()
	_, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items: []CreateOrderItemDTO{
			{ProductID: cable.ID.String(), Quantity: 1},
			{ProductID: ghost, Quantity: 2},
		},
	})

	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{ghost}, notFound.ProductIDs)
}

func TestCreateOrderRejectsNonPositiveQuantity(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	cable := env.createProduct(t, "USB Cable", false)
	svc := newOrderServiceForTest(env, nil, nil)

	_, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items:      []CreateOrderItemDTO{{ProductID: cable.ID.String(), Quantity: 0}},
	})

	require.Error(t, err)
}

func TestCreateOrderWithoutApprovalStaysNew(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	cable := env.createProduct(t, "USB Cable", false)
	svc := newOrderServiceForTest(env, fixedClock(2024, time.January, 15), func(int) int { return 42 })

	order, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items:      []CreateOrderItemDTO{{ProductID: cable.ID.String(), Quantity: 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, "BEST-20240115-0042", order.OrderNo)
	assert.Equal(t, string(model.StatusNew), order.Status)
	assert.Empty(t, order.Approvals)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, "99.90", order.Items[0].UnitPrice)

	history := env.orderHistory(t, order.ID)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].FromStatus)
	assert.Equal(t, model.StatusNew, history[0].ToStatus)
	require.NotNil(t, history[0].ActorID)
	assert.Equal(t, requester.ID, *history[0].ActorID)
}

func TestCreateOrderWithFlaggedProductGoesToPendingApproval(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	approver := env.createUser(t, "bob", model.RoleApprover, "IT")
	chair := env.createProduct(t, "Ergonomic Chair", true)
	svc := newOrderServiceForTest(env, nil, nil)

	order, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items:      []CreateOrderItemDTO{{ProductID: chair.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, string(model.StatusPendingApproval), order.Status)
	require.Len(t, order.Approvals, 1)
	assert.Equal(t, model.ApprovalPending, order.Approvals[0].Status)
	assert.Equal(t, approver.ID.String(), order.Approvals[0].ApproverID)

	history := env.orderHistory(t, order.ID)
	require.Len(t, history, 2)
	assert.Equal(t, model.StatusNew, history[0].ToStatus)
	require.NotNil(t, history[1].FromStatus)
	assert.Equal(t, model.StatusNew, *history[1].FromStatus)
	assert.Equal(t, model.StatusPendingApproval, history[1].ToStatus)
}

func TestCreateOrderSpecialRequestTriggersApproval(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	env.createUser(t, "bob", model.RoleApprover, "IT")
	cable := env.createProduct(t, "USB Cable", false)
	svc := newOrderServiceForTest(env, nil, nil)

	order, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter:     "CC-100",
		Items:          []CreateOrderItemDTO{{ProductID: cable.ID.String(), Quantity: 1}},
		SpecialRequest: "need the extra-long variant",
	})
	require.NoError(t, err)

	assert.Equal(t, string(model.StatusPendingApproval), order.Status)
	require.Len(t, order.Approvals, 1)
}

func TestCreateOrderWhitespaceSpecialRequestNeedsNoApproval(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	cable := env.createProduct(t, "USB Cable", false)
	svc := newOrderServiceForTest(env, nil, nil)

	order, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter:     "CC-100",
		Items:          []CreateOrderItemDTO{{ProductID: cable.ID.String(), Quantity: 1}},
		SpecialRequest: "   ",
	})
	require.NoError(t, err)

	assert.Equal(t, string(model.StatusNew), order.Status)
	assert.Empty(t, order.Approvals)
}

func TestCreateOrderFailsClosedWithoutApprover(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "Facilities")
	chair := env.createProduct(t, "Ergonomic Chair", true)
	svc := newOrderServiceForTest(env, nil, nil)

	_, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-200",
		Items:      []CreateOrderItemDTO{{ProductID: chair.ID.String(), Quantity: 1}},
	})

	var noApprover *NoApproverFoundError
	require.ErrorAs(t, err, &noApprover)
	assert.Equal(t, "Facilities", noApprover.Department)

	// Nothing persisted.
	var count int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOrderRetriesOnOrderNumberCollision(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	cable := env.createProduct(t, "USB Cable", false)

	// The second order first draws the taken suffix, then a fresh one.
	suffixes := []int{7, 7, 8}
	svc := newOrderServiceForTest(env, fixedClock(2024, time.March, 1), func(int) int {
		next := suffixes[0]
		suffixes = suffixes[1:]
		return next
	})

	first, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items:      []CreateOrderItemDTO{{ProductID: cable.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "BEST-20240301-0007", first.OrderNo)

	second, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items:      []CreateOrderItemDTO{{ProductID: cable.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "BEST-20240301-0008", second.OrderNo)
}

func TestTransitionStatusHappyPath(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	staff := env.createUser(t, "carol", model.RoleITSupport, "IT")
	cable := env.createProduct(t, "USB Cable", false)
	svc := newOrderServiceForTest(env, nil, nil)

	order, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items:      []CreateOrderItemDTO{{ProductID: cable.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	updated, err := svc.TransitionStatus(context.Background(), order.ID, model.StatusInReview, model.RoleITSupport, staff.ID.String(), "picking it up")
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusInReview), updated.Status)

	history := env.orderHistory(t, order.ID)
	require.Len(t, history, 2)
	last := history[len(history)-1]
	require.NotNil(t, last.FromStatus)
	assert.Equal(t, model.StatusNew, *last.FromStatus)
	assert.Equal(t, model.StatusInReview, last.ToStatus)
	assert.Equal(t, "picking it up", last.Note)
	require.NotNil(t, last.ActorID)
	assert.Equal(t, staff.ID, *last.ActorID)
}

func TestTransitionStatusRejectsIllegalEdge(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	admin := env.createUser(t, "root", model.RoleAdmin, "IT")
	cable := env.createProduct(t, "USB Cable", false)
	svc := newOrderServiceForTest(env, nil, nil)

	order, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items:      []CreateOrderItemDTO{{ProductID: cable.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.TransitionStatus(context.Background(), order.ID, model.StatusOrdered, model.RoleAdmin, admin.ID.String(), "")

	var illegal *IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, model.StatusNew, illegal.From)
	assert.Equal(t, model.StatusOrdered, illegal.To)

	// Status and history untouched.
	assert.Equal(t, model.StatusNew, env.orderStatus(t, order.ID))
	assert.Len(t, env.orderHistory(t, order.ID), 1)
}

func TestTransitionStatusRejectsUnauthorizedRole(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	cable := env.createProduct(t, "USB Cable", false)
	svc := newOrderServiceForTest(env, nil, nil)

	order, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items:      []CreateOrderItemDTO{{ProductID: cable.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	// NEW -> IN_REVIEW exists in the graph, but requesters may not drive it.
	_, err = svc.TransitionStatus(context.Background(), order.ID, model.StatusInReview, model.RoleRequester, requester.ID.String(), "")

	var unauthorized *UnauthorizedTransitionError
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, model.RoleRequester, unauthorized.Role)
	assert.Equal(t, model.StatusNew, env.orderStatus(t, order.ID))
}

func TestTransitionStatusChecksGraphBeforeRole(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	cable := env.createProduct(t, "USB Cable", false)
	svc := newOrderServiceForTest(env, nil, nil)

	order, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items:      []CreateOrderItemDTO{{ProductID: cable.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	// Both the edge and the role are wrong; the structural error wins.
	_, err = svc.TransitionStatus(context.Background(), order.ID, model.StatusOrdered, model.RoleRequester, requester.ID.String(), "")

	var illegal *IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
}

func TestTransitionStatusUnknownOrder(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "root", model.RoleAdmin, "IT")
	svc := newOrderServiceForTest(env, nil, nil)

	_, err := svc.TransitionStatus(context.Background(), uuid.NewString(), model.StatusInReview, model.RoleAdmin, admin.ID.String(), "")

	var notFound *OrderNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestTerminalOrderAcceptsNoFurtherTransitions(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	admin := env.createUser(t, "root", model.RoleAdmin, "IT")
	cable := env.createProduct(t, "USB Cable", false)
	svc := newOrderServiceForTest(env, nil, nil)

	order, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items:      []CreateOrderItemDTO{{ProductID: cable.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.TransitionStatus(context.Background(), order.ID, model.StatusRejected, model.RoleAdmin, admin.ID.String(), "not needed")
	require.NoError(t, err)

	for _, target := range model.AllStatuses {
		_, err = svc.TransitionStatus(context.Background(), order.ID, target, model.RoleAdmin, admin.ID.String(), "")
		var illegal *IllegalTransitionError
		require.ErrorAs(t, err, &illegal, "REJECTED -> %s must be refused", target)
	}
}

func TestHistoryStaysConsistentAcrossTransitions(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	staff := env.createUser(t, "carol", model.RoleITSupport, "IT")
	admin := env.createUser(t, "root", model.RoleAdmin, "IT")
	cable := env.createProduct(t, "USB Cable", false)
	svc := newOrderServiceForTest(env, nil, nil)

	order, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items:      []CreateOrderItemDTO{{ProductID: cable.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	steps := []struct {
		target model.OrderStatus
		role   model.Role
		actor  string
	}{
		{model.StatusInReview, model.RoleITSupport, staff.ID.String()},
		{model.StatusApproved, model.RoleAdmin, admin.ID.String()},
		{model.StatusOrdered, model.RoleITSupport, staff.ID.String()},
		{model.StatusOrderConfirmed, model.RoleITSupport, staff.ID.String()},
	}
	for _, step := range steps {
		_, err = svc.TransitionStatus(context.Background(), order.ID, step.target, step.role, step.actor, "")
		require.NoError(t, err)
	}

	history := env.orderHistory(t, order.ID)
	require.Len(t, history, len(steps)+1)

	// The chain is gapless and the last entry matches the live status.
	assert.Nil(t, history[0].FromStatus)
	for i := 1; i < len(history); i++ {
		require.NotNil(t, history[i].FromStatus)
		assert.Equal(t, history[i-1].ToStatus, *history[i].FromStatus, "gap before entry %d", i)
	}
	assert.Equal(t, env.orderStatus(t, order.ID), history[len(history)-1].ToStatus)
}

func TestAddCommentOnMissingOrder(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "alice", model.RoleRequester, "IT")
	svc := newOrderServiceForTest(env, nil, nil)

	_, err := svc.AddComment(context.Background(), uuid.NewString(), author.ID.String(), "where is my order")

	var notFound *OrderNotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestGetOrderExposesNextStatuses(t *testing.T) {
	env := newTestEnv(t)
	requester := env.createUser(t, "alice", model.RoleRequester, "IT")
	cable := env.createProduct(t, "USB Cable", false)
	svc := newOrderServiceForTest(env, nil, nil)

	created, err := svc.CreateOrder(context.Background(), requester.ID.String(), CreateOrderDTO{
		CostCenter: "CC-100",
		Items:      []CreateOrderItemDTO{{ProductID: cable.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	order, err := svc.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.OrderStatus{model.StatusInReview, model.StatusRejected}, order.NextStatuses)
}
