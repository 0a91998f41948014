package repository

import (
	"context"

	"github.com/cubazon/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockProductRepository struct {
	mock.Mock
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{}
}

func (m *MockProductRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)

	if product, ok := args.Get(0).(*models.Product); ok {
		return product, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockProductRepository) GetStock(ctx context.Context, id int64) (int, error) {
	args := m.Called(ctx, id)

	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) ListProducts(ctx context.Context, page, size int) ([]models.Product, int, error) {
	args := m.Called(ctx, page, size)

	if products, ok := args.Get(0).([]models.Product); ok {
		return products, args.Int(1), args.Error(2)
	}

	return nil, args.Int(1), args.Error(2)
}

type MockCouponRepository struct {
	mock.Mock
}

func NewMockCouponRepository() *MockCouponRepository {
	return &MockCouponRepository{}
}

func (m *MockCouponRepository) GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	args := m.Called(ctx, code)

	if coupon, ok := args.Get(0).(*models.Coupon); ok {
		return coupon, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCouponRepository) IncrementUsage(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{}
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)

	return args.Error(0)
}

func (m *MockOrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)

	if order, ok := args.Get(0).(*models.Order); ok {
		return order, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockShippingRepository struct {
	mock.Mock
}

func NewMockShippingRepository() *MockShippingRepository {
	return &MockShippingRepository{}
}

func (m *MockShippingRepository) GetZone(ctx context.Context, code string) (*models.ShippingZone, error) {
	args := m.Called(ctx, code)

	if zone, ok := args.Get(0).(*models.ShippingZone); ok {
		return zone, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockShippingRepository) ListZones(ctx context.Context) ([]models.ShippingZone, error) {
	args := m.Called(ctx)

	if zones, ok := args.Get(0).([]models.ShippingZone); ok {
		return zones, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockStockRPCClient struct {
	mock.Mock
}

func NewMockStockRPCClient() *MockStockRPCClient {
	return &MockStockRPCClient{}
}

func (m *MockStockRPCClient) VerifyStock(ctx context.Context, items []models.StockCheckItem) (*models.StockResult, error) {
	args := m.Called(ctx, items)

	if result, ok := args.Get(0).(*models.StockResult); ok {
		return result, args.Error(1)
	}

	return nil, args.Error(1)
}
