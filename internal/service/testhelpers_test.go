package service

import (
	"fmt"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv bundles an isolated in-memory database with real repositories so
// service tests exercise the full persistence path.
type testEnv struct {
	db        *gorm.DB
	orders    repository.OrderRepository
	products  repository.ProductRepository
	users     repository.UserRepository
	approvals repository.ApprovalRepository
	audits    repository.AuditRepository
	txm       repository.TransactionManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// A named shared-cache database keeps the pool's connections on the same
	// in-memory store while isolating parallel tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.StatusHistory{},
		&model.Approval{},
		&model.Comment{},
		&model.AuditLog{},
	))

	return &testEnv{
		db:        db,
		orders:    repository.NewOrderRepository(db),
		products:  repository.NewProductRepository(db),
		users:     repository.NewUserRepository(db),
		approvals: repository.NewApprovalRepository(db),
		audits:    repository.NewAuditRepository(db),
		txm:       repository.NewTransactionManager(db),
	}
}

// newOrderServiceForTest swaps the clock and random source for deterministic
// order numbers.
func newOrderServiceForTest(env *testEnv, now func() time.Time, randInt func(int) int) OrderService {
	svc := NewOrderService(env.orders, env.products, env.users, env.approvals, env.audits, env.txm, nil).(*orderService)
	if now != nil {
		svc.now = now
	}
	if randInt != nil {
		svc.randInt = randInt
	}
	return svc
}

func newApprovalServiceForTest(env *testEnv) ApprovalService {
	return NewApprovalService(env.approvals, env.orders, env.audits, env.txm, nil)
}

func (e *testEnv) createUser(t *testing.T, username string, role model.Role, department string) *model.User {
	t.Helper()
	user := &model.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   "hashed",
		Role:       role,
		Department: department,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createProduct(t *testing.T, name string, requiresApproval bool) *model.Product {
	t.Helper()
	product := &model.Product{
		SKU:              "SKU-" + uuid.NewString()[:8],
		Name:             name,
		Category:         "office",
		UnitPrice:        decimal.NewFromFloat(99.90),
		RequiresApproval: requiresApproval,
		ResponsibleRole:  model.RoleITSupport,
	}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func (e *testEnv) orderHistory(t *testing.T, orderID string) []model.StatusHistory {
	t.Helper()
	var history []model.StatusHistory
	// rowid breaks ties between rows written in the same transaction.
	require.NoError(t, e.db.Where("order_id = ?", orderID).Order("created_at ASC, rowid ASC").Find(&history).Error)
	return history
}

func (e *testEnv) orderStatus(t *testing.T, orderID string) model.OrderStatus {
	t.Helper()
	var order model.Order
	require.NoError(t, e.db.First(&order, "id = ?", orderID).Error)
	return order.Status
}

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 10, 30, 0, 0, time.UTC)
	}
}
