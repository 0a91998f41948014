package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/cubazon/storefront/internal/cache"
	appErrors "github.com/cubazon/storefront/internal/errors"
	"github.com/cubazon/storefront/internal/models"
	repository "github.com/cubazon/storefront/internal/repositories"
	service "github.com/cubazon/storefront/internal/services"
	"github.com/cubazon/storefront/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartFixture() (*repository.MockProductRepository, cache.Cache, *service.CartStore, *session.Session) {
	mockRepo := repository.NewMockProductRepository()
	slots := cache.NewMemoryCache()
	store := service.NewCartStore(mockRepo, slots)
	sess := &session.Session{ID: "test-session"}

	return mockRepo, slots, store, sess
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	shirt := &models.Product{ID: 1, Name: "Shirt", Price: 25.0, Stock: 10, Status: "active"}

	t.Run("Success - New Line Added", func(t *testing.T) {
		// Arrange
		mockRepo, _, store, sess := newCartFixture()
		mockRepo.On("GetProductByID", ctx, int64(1)).Return(shirt, nil).Once()

		// Act
		state, err := store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 1, Quantity: 2})

		// Assert
		assert.NoError(t, err)
		require.NotNil(t, state)
		require.Len(t, state.Items, 1)
		assert.NotEmpty(t, state.Items[0].ID)
		assert.Equal(t, int64(1), state.Items[0].ProductID)
		assert.Equal(t, 2, state.Items[0].Quantity)
		assert.Equal(t, 25.0, state.Items[0].UnitPrice)
		assert.Equal(t, 50.0, state.Subtotal)
		assert.Equal(t, 2, state.TotalQuantity)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Success - Same Variant Merges Into One Line", func(t *testing.T) {
		// Arrange
		mockRepo, _, store, sess := newCartFixture()
		mockRepo.On("GetProductByID", ctx, int64(1)).Return(shirt, nil).Twice()
		options := map[string]string{"size": "M"}

		// Act
		_, err := store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 1, Quantity: 1, Options: options})
		require.NoError(t, err)
		state, err := store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 1, Quantity: 2, Options: options})

		// Assert
		assert.NoError(t, err)
		require.Len(t, state.Items, 1)
		assert.Equal(t, 3, state.Items[0].Quantity)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Success - Different Options Stay Separate Lines", func(t *testing.T) {
		// Arrange
		mockRepo, _, store, sess := newCartFixture()
		mockRepo.On("GetProductByID", ctx, int64(1)).Return(shirt, nil).Twice()

		// Act
		_, err := store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 1, Quantity: 1, Options: map[string]string{"size": "M"}})
		require.NoError(t, err)
		state, err := store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 1, Quantity: 1, Options: map[string]string{"size": "L"}})

		// Assert
		assert.NoError(t, err)
		assert.Len(t, state.Items, 2)
		assert.Equal(t, 2, state.TotalQuantity)
	})

	t.Run("Success - Offer Price Wins When Offer Is Active", func(t *testing.T) {
		// Arrange
		mockRepo, _, store, sess := newCartFixture()
		offered := &models.Product{ID: 2, Name: "Cap", Price: 15.0, OnOffer: true, OfferPrice: 9.99, Stock: 5}
		mockRepo.On("GetProductByID", ctx, int64(2)).Return(offered, nil).Once()

		// Act
		state, err := store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 2, Quantity: 1})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 9.99, state.Items[0].UnitPrice)
	})

	t.Run("Failure - Product Not Found", func(t *testing.T) {
		// Arrange
		mockRepo, _, store, sess := newCartFixture()
		mockRepo.On("GetProductByID", ctx, int64(99)).Return(nil, sql.ErrNoRows).Once()

		// Act
		state, err := store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 99, Quantity: 1})

		// Assert
		assert.Error(t, err)
		assert.Nil(t, state)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})

	t.Run("Failure - Insufficient Stock", func(t *testing.T) {
		// Arrange
		mockRepo, _, store, sess := newCartFixture()
		scarce := &models.Product{ID: 3, Name: "Boots", Price: 80.0, Stock: 1}
		mockRepo.On("GetProductByID", ctx, int64(3)).Return(scarce, nil).Once()

		// Act
		state, err := store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 3, Quantity: 2})

		// Assert
		assert.Error(t, err)
		assert.Nil(t, state)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeInsufficientStock, appErr.Code)
	})
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()

	shirt := &models.Product{ID: 1, Name: "Shirt", Price: 10.0, Stock: 10}

	seed := func(t *testing.T) (*repository.MockProductRepository, *service.CartStore, *session.Session, string) {
		t.Helper()

		mockRepo, _, store, sess := newCartFixture()
		mockRepo.On("GetProductByID", ctx, int64(1)).Return(shirt, nil).Once()

		state, err := store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 1, Quantity: 2})
		require.NoError(t, err)

		return mockRepo, store, sess, state.Items[0].ID
	}

	t.Run("Success - Update In Place After Stock Check", func(t *testing.T) {
		// Arrange
		mockRepo, store, sess, itemID := seed(t)
		mockRepo.On("GetStock", ctx, int64(1)).Return(5, nil).Once()

		// Act
		state, err := store.SetQuantity(ctx, sess, itemID, 5)

		// Assert
		assert.NoError(t, err)
		require.Len(t, state.Items, 1)
		assert.Equal(t, 5, state.Items[0].Quantity)
		assert.Equal(t, 50.0, state.Subtotal)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Success - Zero Quantity Removes The Line", func(t *testing.T) {
		// Arrange
		_, store, sess, itemID := seed(t)

		// Act
		state, err := store.SetQuantity(ctx, sess, itemID, 0)

		// Assert
		assert.NoError(t, err)
		assert.Empty(t, state.Items)
		assert.Equal(t, 0.0, state.Subtotal)
	})

	t.Run("Failure - Exceeds Current Stock", func(t *testing.T) {
		// Arrange
		mockRepo, store, sess, itemID := seed(t)
		mockRepo.On("GetStock", ctx, int64(1)).Return(3, nil).Once()

		// Act
		state, err := store.SetQuantity(ctx, sess, itemID, 4)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, state)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeInsufficientStock, appErr.Code)
	})

	t.Run("Failure - Unknown Line", func(t *testing.T) {
		// Arrange
		_, store, sess, _ := seed(t)

		// Act
		state, err := store.SetQuantity(ctx, sess, "nope", 1)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, state)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestCartDerivedTotals(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Subtotal And Quantity Track Mutations", func(t *testing.T) {
		// Arrange
		mockRepo, _, store, sess := newCartFixture()
		mockRepo.On("GetProductByID", ctx, int64(1)).Return(&models.Product{ID: 1, Name: "A", Price: 3.5, Stock: 10}, nil).Once()
		mockRepo.On("GetProductByID", ctx, int64(2)).Return(&models.Product{ID: 2, Name: "B", Price: 2.0, Stock: 10}, nil).Once()
		mockRepo.On("GetStock", ctx, int64(1)).Return(10, nil).Once()

		// Act
		state, err := store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 1, Quantity: 2})
		require.NoError(t, err)
		state, err = store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 2, Quantity: 3})
		require.NoError(t, err)
		state, err = store.SetQuantity(ctx, sess, state.Items[0].ID, 4)
		require.NoError(t, err)

		// Assert: subtotal == sum(unitPrice*quantity), quantity == sum(quantity)
		assert.Equal(t, 4*3.5+3*2.0, state.Subtotal)
		assert.Equal(t, 7, state.TotalQuantity)

		subtotal, err := store.Subtotal(ctx, sess)
		assert.NoError(t, err)
		assert.Equal(t, state.Subtotal, subtotal)

		quantity, err := store.TotalQuantity(ctx, sess)
		assert.NoError(t, err)
		assert.Equal(t, 7, quantity)
	})
}

func TestClearCart(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Clear Then Clear Again Is Idempotent", func(t *testing.T) {
		// Arrange
		mockRepo, _, store, sess := newCartFixture()
		mockRepo.On("GetProductByID", ctx, int64(1)).Return(&models.Product{ID: 1, Name: "A", Price: 1, Stock: 5}, nil).Once()
		_, err := store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 1, Quantity: 1})
		require.NoError(t, err)

		// Act
		emptied, err := store.Clear(ctx, sess)
		assert.NoError(t, err)
		assert.True(t, emptied)

		emptiedAgain, err := store.Clear(ctx, sess)

		// Assert
		assert.NoError(t, err)
		assert.False(t, emptiedAgain)
	})
}

func TestLoadCart(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Snapshot Restored From Slot", func(t *testing.T) {
		// Arrange
		mockRepo := repository.NewMockProductRepository()
		slots := cache.NewMemoryCache()
		sess := &session.Session{ID: "restore"}

		snapshot := models.CartSnapshot{Items: []models.CartItem{
			{ID: "line-1", ProductID: 1, Name: "A", UnitPrice: 2.0, Quantity: 2},
		}}
		require.NoError(t, slots.Set(ctx, "cart:restore", snapshot, 0))

		store := service.NewCartStore(mockRepo, slots)

		// Act
		items, err := store.Load(ctx, sess)

		// Assert
		assert.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "line-1", items[0].ID)
	})

	t.Run("Success - Unreadable Snapshot Resets To Empty", func(t *testing.T) {
		// Arrange
		mockRepo := repository.NewMockProductRepository()
		slots := &failingSlotCache{getErr: errors.New("corrupt snapshot")}
		sess := &session.Session{ID: "broken"}
		store := service.NewCartStore(mockRepo, slots)

		// Act
		items, err := store.Load(ctx, sess)

		// Assert: a parse failure never propagates
		assert.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()

	t.Run("Failure - Unknown Line Reports Not Found", func(t *testing.T) {
		// Arrange
		mockRepo, _, store, sess := newCartFixture()
		mockRepo.On("GetProductByID", ctx, int64(1)).Return(&models.Product{ID: 1, Name: "A", Price: 1, Stock: 5}, nil).Once()
		_, err := store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 1, Quantity: 1})
		require.NoError(t, err)

		// Act
		state, err := store.RemoveItem(ctx, sess, "missing")

		// Assert
		assert.Error(t, err)
		assert.Nil(t, state)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestCartObservers(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Observer Notified With Derived Totals", func(t *testing.T) {
		// Arrange
		mockRepo, _, store, sess := newCartFixture()
		mockRepo.On("GetProductByID", ctx, int64(1)).Return(&models.Product{ID: 1, Name: "A", Price: 4.0, Stock: 5}, nil).Once()

		var notified []models.CartState
		store.Subscribe(func(sessionID string, state models.CartState) {
			assert.Equal(t, sess.ID, sessionID)
			notified = append(notified, state)
		})

		// Act
		_, err := store.AddItem(ctx, sess, &models.AddItemRequest{ProductID: 1, Quantity: 2})

		// Assert
		assert.NoError(t, err)
		require.Len(t, notified, 1)
		assert.Equal(t, 8.0, notified[0].Subtotal)
		assert.Equal(t, 2, notified[0].TotalQuantity)
	})
}

// failingSlotCache simulates an unreadable persistent slot.
type failingSlotCache struct {
	getErr error
}

func (f *failingSlotCache) Get(context.Context, string, any) (bool, error) { return false, f.getErr }
func (f *failingSlotCache) Set(context.Context, string, any, time.Duration) error {
	return nil
}
func (f *failingSlotCache) Delete(context.Context, string) error { return nil }
func (f *failingSlotCache) Close() error                         { return nil }
