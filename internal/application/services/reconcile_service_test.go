package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/DanielPopoola/storefront/internal/accesstoken"
	"github.com/DanielPopoola/storefront/internal/application/services"
	"github.com/DanielPopoola/storefront/internal/application/services/testhelpers"
	"github.com/DanielPopoola/storefront/internal/config"
	"github.com/DanielPopoola/storefront/internal/domain"
	"github.com/DanielPopoola/storefront/internal/infrastructure/gateway"
	"github.com/DanielPopoola/storefront/internal/infrastructure/gateway/mocks"
	"github.com/DanielPopoola/storefront/internal/infrastructure/persistence/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ReconcileServiceTestSuite struct {
	suite.Suite
	testDB      *testhelpers.TestDatabase
	orderRepo   *postgres.OrderRepository
	mockGateway *mocks.MockGatewayClient
	alerter     *recordingAlerter
	service     *services.ReconcileService
}

func TestReconcileServiceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Run(t, new(ReconcileServiceTestSuite))
}

func (suite *ReconcileServiceTestSuite) SetupSuite() {
	suite.testDB = testhelpers.SetupTestDatabase(suite.T())
	suite.orderRepo = postgres.NewOrderRepository(suite.testDB.DB)
}

func (suite *ReconcileServiceTestSuite) TearDownSuite() {
	suite.testDB.Cleanup(suite.T())
}

func (suite *ReconcileServiceTestSuite) SetupTest() {
	suite.testDB.CleanTables(suite.T())
	suite.mockGateway = mocks.NewMockGatewayClient(suite.T())
	suite.alerter = &recordingAlerter{}
	suite.service = services.NewReconcileService(
		suite.orderRepo,
		suite.mockGateway,
		suite.alerter,
		config.OrderConfig{
			CreateTimeout: time.Second,
			PendingTTL:    30 * time.Minute,
			ExpireAfter:   24 * time.Hour,
		},
		discardLogger(),
	)
}

func (suite *ReconcileServiceTestSuite) tokens() *accesstoken.Issuer {
	tokens, err := accesstoken.NewIssuer("reconcile-token-secret")
	require.NoError(suite.T(), err)
	return tokens
}

func (suite *ReconcileServiceTestSuite) seedStale() (*domain.Order, *domain.Product) {
	ctx := context.Background()
	t := suite.T()

	p := testhelpers.NewSingleUnitProduct(250000)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, p)
	order := testhelpers.NewPendingOrderAt(t, time.Now().UTC().Add(-2*time.Hour).Truncate(time.Microsecond), p)
	testhelpers.SeedOrder(t, ctx, suite.orderRepo, order)
	return order, p
}

func (suite *ReconcileServiceTestSuite) Test_FindStale_SkipsFreshOrders() {
	ctx := context.Background()
	t := suite.T()

	stale, _ := suite.seedStale()
	fresh := testhelpers.NewSingleUnitProduct(1000)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, fresh)
	testhelpers.SeedOrder(t, ctx, suite.orderRepo, testhelpers.NewPendingOrder(t, fresh))

	orders, err := suite.service.FindStale(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, stale.ID, orders[0].ID)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_Settled() {
	ctx := context.Background()
	t := suite.T()
	order, product := suite.seedStale()

	suite.mockGateway.EXPECT().
		GetTransactionStatus(mock.Anything, order.GatewayOrderID).
		Return(&domain.Notification{
			StatusCode:        "200",
			GrossAmount:       "265000.00",
			TransactionStatus: domain.TransactionSettlement,
			TransactionID:     "b7e5f1f2-2f0a-4a53-9c59-2e4a3f1ed8a1",
		}, nil).
		Once()

	result, err := suite.service.Reconcile(ctx, order)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, domain.StatusPending, result.From)
	assert.Equal(t, domain.StatusPaid, result.To)
	assert.Empty(t, result.Warnings)

	saved, err := suite.orderRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, saved.PaymentStatus)

	p, err := suite.orderRepo.FindProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductSold, p.Status)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_Expired() {
	ctx := context.Background()
	t := suite.T()
	order, _ := suite.seedStale()

	suite.mockGateway.EXPECT().
		GetTransactionStatus(mock.Anything, order.GatewayOrderID).
		Return(&domain.Notification{StatusCode: "407", TransactionStatus: domain.TransactionExpire}, nil).
		Once()

	result, err := suite.service.Reconcile(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, result.To)

	orders, err := suite.service.FindStale(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_NoTransactionAtGateway() {
	ctx := context.Background()
	t := suite.T()
	order, _ := suite.seedStale()

	suite.mockGateway.EXPECT().
		GetTransactionStatus(mock.Anything, order.GatewayOrderID).
		Return(nil, &gateway.GatewayError{Code: "404", Message: "Transaction doesn't exist.", StatusCode: 404}).
		Once()

	result, err := suite.service.Reconcile(ctx, order)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.False(t, result.Changed)

	saved, err := suite.orderRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, saved.PaymentStatus)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_AbandonedCheckoutExpires() {
	ctx := context.Background()
	t := suite.T()

	p := testhelpers.NewSingleUnitProduct(250000)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, p)
	order := testhelpers.NewPendingOrderAt(t, time.Now().UTC().Add(-48*time.Hour).Truncate(time.Microsecond), p)
	testhelpers.SeedOrder(t, ctx, suite.orderRepo, order)

	suite.mockGateway.EXPECT().
		GetTransactionStatus(mock.Anything, order.GatewayOrderID).
		Return(nil, &gateway.GatewayError{Code: "404", Message: "Transaction doesn't exist.", StatusCode: 404}).
		Once()

	result, err := suite.service.Reconcile(ctx, order)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.False(t, result.Skipped)
	assert.Equal(t, domain.StatusPending, result.From)
	assert.Equal(t, domain.StatusExpired, result.To)

	saved, err := suite.orderRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, saved.PaymentStatus)

	// The product is free again.
	suite.mockGateway.EXPECT().
		CreateTransaction(mock.Anything, mock.Anything).
		Return(snapResponse(), nil).
		Once()
	orders := services.NewOrderService(
		suite.orderRepo,
		suite.mockGateway,
		suite.tokens(),
		config.OrderConfig{CreateTimeout: 10 * time.Second, PendingTTL: 30 * time.Minute, ExpireAfter: 24 * time.Hour},
		discardLogger(),
	)
	created, err := orders.Create(ctx, createCommand(p))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, created.Order.PaymentStatus)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_AbandonedCheckoutAlreadyPaid() {
	ctx := context.Background()
	t := suite.T()

	p := testhelpers.NewSingleUnitProduct(250000)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, p)
	order := testhelpers.NewPendingOrderAt(t, time.Now().UTC().Add(-48*time.Hour).Truncate(time.Microsecond), p)
	testhelpers.SeedOrder(t, ctx, suite.orderRepo, order)

	// A settlement lands between the stale scan and the gateway query.
	paid, err := suite.orderRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, paid.MarkPaid("b7e5f1f2-2f0a-4a53-9c59-2e4a3f1ed8a1", time.Now().UTC()))
	require.NoError(t, suite.orderRepo.UpdateOrder(ctx, paid))

	suite.mockGateway.EXPECT().
		GetTransactionStatus(mock.Anything, order.GatewayOrderID).
		Return(nil, &gateway.GatewayError{Code: "404", Message: "Transaction doesn't exist.", StatusCode: 404}).
		Once()

	result, err := suite.service.Reconcile(ctx, order)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.False(t, result.Changed)

	saved, err := suite.orderRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, saved.PaymentStatus)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_GatewayDown() {
	ctx := context.Background()
	order, _ := suite.seedStale()

	suite.mockGateway.EXPECT().
		GetTransactionStatus(mock.Anything, order.GatewayOrderID).
		Return(nil, &gateway.GatewayError{Code: "http_error", Message: "Bad Gateway", StatusCode: 502}).
		Once()

	_, err := suite.service.Reconcile(ctx, order)
	require.Error(suite.T(), err)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_AmountMismatchAlerts() {
	ctx := context.Background()
	t := suite.T()
	order, _ := suite.seedStale()

	suite.mockGateway.EXPECT().
		GetTransactionStatus(mock.Anything, order.GatewayOrderID).
		Return(&domain.Notification{StatusCode: "200", GrossAmount: "1.00", TransactionStatus: domain.TransactionCapture}, nil).
		Once()

	result, err := suite.service.Reconcile(ctx, order)
	require.NoError(t, err)
	assert.Len(t, result.Warnings, 1)
	assert.Equal(t, []string{"reconciled_with_warning"}, suite.alerter.Events())
}
