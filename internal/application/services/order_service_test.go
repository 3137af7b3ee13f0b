package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DanielPopoola/storefront/internal/accesstoken"
	"github.com/DanielPopoola/storefront/internal/application"
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

type OrderServiceTestSuite struct {
	suite.Suite
	testDB      *testhelpers.TestDatabase
	orderRepo   *postgres.OrderRepository
	mockGateway *mocks.MockGatewayClient
	tokens      *accesstoken.Issuer
	service     *services.OrderService
}

func TestOrderServiceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Run(t, new(OrderServiceTestSuite))
}

func (suite *OrderServiceTestSuite) SetupSuite() {
	suite.testDB = testhelpers.SetupTestDatabase(suite.T())
	suite.orderRepo = postgres.NewOrderRepository(suite.testDB.DB)

	tokens, err := accesstoken.NewIssuer("order-token-secret")
	require.NoError(suite.T(), err)
	suite.tokens = tokens
}

func (suite *OrderServiceTestSuite) TearDownSuite() {
	suite.testDB.Cleanup(suite.T())
}

func (suite *OrderServiceTestSuite) SetupTest() {
	suite.testDB.CleanTables(suite.T())
	suite.mockGateway = mocks.NewMockGatewayClient(suite.T())
	suite.service = services.NewOrderService(
		suite.orderRepo,
		suite.mockGateway,
		suite.tokens,
		config.OrderConfig{
			DefaultShippingCost: 15000,
			CreateTimeout:       10 * time.Second,
			PendingTTL:          30 * time.Minute,
		},
		discardLogger(),
	)
}

func snapResponse() *application.CreateTransactionResponse {
	return &application.CreateTransactionResponse{
		Token:       "66e4fa55-fdac-4ef9-91b5-733b97d1b862",
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v4/redirection/66e4fa55-fdac-4ef9-91b5-733b97d1b862",
	}
}

func createCommand(products ...*domain.Product) services.CreateOrderCommand {
	cmd := services.CreateOrderCommand{Customer: testhelpers.DefaultCustomer()}
	for _, p := range products {
		cmd.Items = append(cmd.Items, services.OrderLine{
			ProductID:        p.ID,
			Quantity:         1,
			VariantSelection: map[string]string{"size": "M"},
		})
	}
	return cmd
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok, "expected ServiceError, got %T: %v", err, err)
	assert.Equal(t, code, svcErr.Code)
}

// ============================================================================
// CREATE
// ============================================================================

func (suite *OrderServiceTestSuite) Test_Create_Success() {
	ctx := context.Background()
	t := suite.T()

	scarf := testhelpers.NewSingleUnitProduct(250000)
	tote := testhelpers.NewStockedProduct(75000, 10)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, scarf, tote)

	var sent application.CreateTransactionRequest
	suite.mockGateway.EXPECT().
		CreateTransaction(mock.Anything, mock.Anything).
		Run(func(_ context.Context, req application.CreateTransactionRequest) { sent = req }).
		Return(snapResponse(), nil).
		Once()

	result, err := suite.service.Create(ctx, createCommand(scarf, tote))
	require.NoError(t, err)

	order := result.Order
	assert.Equal(t, domain.StatusPending, order.PaymentStatus)
	assert.Equal(t, int64(325000), order.Subtotal)
	assert.Equal(t, int64(15000), order.ShippingCost)
	assert.Equal(t, int64(340000), order.TotalAmount)
	require.NotNil(t, order.PaymentToken)
	assert.Equal(t, snapResponse().Token, *order.PaymentToken)
	assert.True(t, suite.tokens.Verify(order.ID, result.AccessToken))

	assert.Equal(t, order.GatewayOrderID, sent.GatewayOrderID)
	assert.Equal(t, order.TotalAmount, sent.Amount)
	assert.Len(t, sent.Items, 2)

	saved, err := suite.orderRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, saved.PaymentStatus)
	require.NotNil(t, saved.PaymentRedirectURL)
	assert.Equal(t, snapResponse().RedirectURL, *saved.PaymentRedirectURL)
	require.Len(t, saved.Items, 2)
	assert.Equal(t, "M", saved.Items[0].VariantSelection["size"])
}

func (suite *OrderServiceTestSuite) Test_Create_ShippingOverride() {
	ctx := context.Background()
	t := suite.T()

	tote := testhelpers.NewStockedProduct(75000, 10)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, tote)

	suite.mockGateway.EXPECT().
		CreateTransaction(mock.Anything, mock.Anything).
		Return(snapResponse(), nil).
		Once()

	cmd := createCommand(tote)
	free := int64(0)
	cmd.ShippingCost = &free

	result, err := suite.service.Create(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(75000), result.Order.TotalAmount)
}

func (suite *OrderServiceTestSuite) Test_Create_MissingCustomerField() {
	ctx := context.Background()
	t := suite.T()

	cmd := createCommand(testhelpers.NewSingleUnitProduct(1000))
	cmd.Customer.Email = " "

	_, err := suite.service.Create(ctx, cmd)
	requireCode(t, err, application.ErrCodeValidation)
	suite.mockGateway.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func (suite *OrderServiceTestSuite) Test_Create_UnknownProduct() {
	_, err := suite.service.Create(context.Background(), createCommand(testhelpers.NewSingleUnitProduct(1000)))
	requireCode(suite.T(), err, application.ErrCodeNotFound)
}

func (suite *OrderServiceTestSuite) Test_Create_SoldProduct() {
	ctx := context.Background()
	t := suite.T()

	scarf := testhelpers.NewSingleUnitProduct(250000)
	scarf.Status = domain.ProductSold
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, scarf)

	_, err := suite.service.Create(ctx, createCommand(scarf))
	requireCode(t, err, application.ErrCodeNotAvailable)
}

func (suite *OrderServiceTestSuite) Test_Create_PendingOrderBlocksSingleUnit() {
	ctx := context.Background()
	t := suite.T()

	scarf := testhelpers.NewSingleUnitProduct(250000)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, scarf)

	suite.mockGateway.EXPECT().
		CreateTransaction(mock.Anything, mock.Anything).
		Return(snapResponse(), nil).
		Once()

	_, err := suite.service.Create(ctx, createCommand(scarf))
	require.NoError(t, err)

	_, err = suite.service.Create(ctx, createCommand(scarf))
	requireCode(t, err, application.ErrCodeConflict)
}

func (suite *OrderServiceTestSuite) Test_Create_StockedProductAllowsConcurrentPending() {
	ctx := context.Background()
	t := suite.T()

	tote := testhelpers.NewStockedProduct(75000, 5)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, tote)

	suite.mockGateway.EXPECT().
		CreateTransaction(mock.Anything, mock.Anything).
		Return(snapResponse(), nil).
		Twice()

	_, err := suite.service.Create(ctx, createCommand(tote))
	require.NoError(t, err)
	_, err = suite.service.Create(ctx, createCommand(tote))
	require.NoError(t, err)
}

func (suite *OrderServiceTestSuite) Test_Create_GatewayFailureLeavesNoOrder() {
	ctx := context.Background()
	t := suite.T()

	scarf := testhelpers.NewSingleUnitProduct(250000)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, scarf)

	suite.mockGateway.EXPECT().
		CreateTransaction(mock.Anything, mock.Anything).
		Return(nil, &gateway.GatewayError{Code: "http_error", Message: "Service Unavailable", StatusCode: 503}).
		Once()

	_, err := suite.service.Create(ctx, createCommand(scarf))
	requireCode(t, err, application.ErrCodeUpstream)

	_, total, err := suite.orderRepo.ListOrders(ctx, application.OrderFilter{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)

	pending, err := suite.orderRepo.HasPendingOrderForProduct(ctx, scarf.ID)
	require.NoError(t, err)
	assert.False(t, pending)
}

func (suite *OrderServiceTestSuite) Test_Create_ConcurrentCheckoutsOneWins() {
	ctx := context.Background()
	t := suite.T()

	scarf := testhelpers.NewSingleUnitProduct(250000)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, scarf)

	suite.mockGateway.EXPECT().
		CreateTransaction(mock.Anything, mock.Anything).
		Return(snapResponse(), nil)

	const buyers = 5
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make(chan error, buyers)
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := suite.service.Create(ctx, createCommand(scarf))
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, application.ErrCodeConflict, application.ToErrorCode(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	_, total, err := suite.orderRepo.ListOrders(ctx, application.OrderFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

// ============================================================================
// READS
// ============================================================================

func (suite *OrderServiceTestSuite) Test_GetPublicOrder() {
	ctx := context.Background()
	t := suite.T()

	scarf := testhelpers.NewSingleUnitProduct(250000)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, scarf)

	suite.mockGateway.EXPECT().
		CreateTransaction(mock.Anything, mock.Anything).
		Return(snapResponse(), nil).
		Once()

	result, err := suite.service.Create(ctx, createCommand(scarf))
	require.NoError(t, err)

	view, err := suite.service.GetPublicOrder(ctx, result.Order.ID, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.Order.OrderCode, view.OrderCode)
	assert.Equal(t, snapResponse().RedirectURL, view.PaymentRedirectURL)
	assert.Empty(t, view.ReceiptNumber)
	assert.Empty(t, view.TrackingCode)

	_, err = suite.service.GetPublicOrder(ctx, result.Order.ID, "deadbeef")
	requireCode(t, err, application.ErrCodeUnauthorized)
}

func (suite *OrderServiceTestSuite) Test_GetPublicOrder_WrongTokenHidesMissingOrder() {
	_, err := suite.service.GetPublicOrder(context.Background(), "00000000-0000-0000-0000-000000000000", "deadbeef")
	requireCode(suite.T(), err, application.ErrCodeUnauthorized)
}

func (suite *OrderServiceTestSuite) Test_ListOrders() {
	ctx := context.Background()
	t := suite.T()

	for range 3 {
		p := testhelpers.NewSingleUnitProduct(10000)
		testhelpers.SeedProducts(t, ctx, suite.orderRepo, p)
		testhelpers.SeedOrder(t, ctx, suite.orderRepo, testhelpers.NewPendingOrder(t, p))
	}

	page, err := suite.service.ListOrders(ctx, application.OrderFilter{Status: domain.StatusPending, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Orders, 2)

	page, err = suite.service.ListOrders(ctx, application.OrderFilter{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)

	_, err = suite.service.ListOrders(ctx, application.OrderFilter{Status: "SHIPPED"})
	requireCode(t, err, application.ErrCodeValidation)
}

// ============================================================================
// SHIPMENT AND CANCELLATION
// ============================================================================

func (suite *OrderServiceTestSuite) seedPaidOrder() *domain.Order {
	ctx := context.Background()
	t := suite.T()

	p := testhelpers.NewSingleUnitProduct(250000)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, p)
	order := testhelpers.NewPendingOrder(t, p)
	testhelpers.SeedOrder(t, ctx, suite.orderRepo, order)

	require.NoError(t, order.MarkPaid("txn-1", time.Now().UTC()))
	require.NoError(t, suite.orderRepo.UpdateOrder(ctx, order))
	return order
}

func (suite *OrderServiceTestSuite) Test_ConfirmShipment() {
	ctx := context.Background()
	t := suite.T()
	order := suite.seedPaidOrder()

	shipped, err := suite.service.ConfirmShipment(ctx, services.ConfirmShipmentCommand{
		OrderID:           order.ID,
		ExpeditionName:    "JNE",
		TrackingReference: "JNE1234567890",
	})
	require.NoError(t, err)
	assert.True(t, shipped.ShippedToExpedition)
	require.NotNil(t, shipped.ShippedAt)

	again, err := suite.service.ConfirmShipment(ctx, services.ConfirmShipmentCommand{
		OrderID:           order.ID,
		ExpeditionName:    "JNE",
		TrackingReference: "JNE1234567890",
	})
	require.NoError(t, err)
	require.NotNil(t, again.ShippedAt)
	assert.WithinDuration(t, *shipped.ShippedAt, *again.ShippedAt, time.Millisecond)

	_, err = suite.service.ConfirmShipment(ctx, services.ConfirmShipmentCommand{
		OrderID:           order.ID,
		ExpeditionName:    "SiCepat",
		TrackingReference: "SC000111222",
	})
	requireCode(t, err, application.ErrCodeConflict)
}

func (suite *OrderServiceTestSuite) Test_ConfirmShipment_UnpaidOrder() {
	ctx := context.Background()
	t := suite.T()

	p := testhelpers.NewSingleUnitProduct(250000)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, p)
	order := testhelpers.NewPendingOrder(t, p)
	testhelpers.SeedOrder(t, ctx, suite.orderRepo, order)

	_, err := suite.service.ConfirmShipment(ctx, services.ConfirmShipmentCommand{
		OrderID:           order.ID,
		ExpeditionName:    "JNE",
		TrackingReference: "JNE1234567890",
	})
	requireCode(t, err, application.ErrCodePreconditionFailed)
}

func (suite *OrderServiceTestSuite) Test_Cancel_FreesProduct() {
	ctx := context.Background()
	t := suite.T()

	scarf := testhelpers.NewSingleUnitProduct(250000)
	testhelpers.SeedProducts(t, ctx, suite.orderRepo, scarf)
	order := testhelpers.NewPendingOrder(t, scarf)
	testhelpers.SeedOrder(t, ctx, suite.orderRepo, order)

	cancelled, err := suite.service.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.PaymentStatus)

	suite.mockGateway.EXPECT().
		CreateTransaction(mock.Anything, mock.Anything).
		Return(snapResponse(), nil).
		Once()

	_, err = suite.service.Create(ctx, createCommand(scarf))
	require.NoError(t, err)

	_, err = suite.service.Cancel(ctx, order.ID)
	requireCode(t, err, application.ErrCodeConflict)
}
