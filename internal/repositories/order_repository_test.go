package repository_test

import (
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	appErrors "github.com/cubazon/storefront/internal/errors"
	"github.com/cubazon/storefront/internal/models"
	repository "github.com/cubazon/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrderRepoTest(t *testing.T) (repository.OrderRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	repo := repository.NewOrderRepo(db)
	require.NotNil(t, repo, "NewOrderRepo should return a non-nil repository")

	return repo, mock
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID: uuid.New(),
		Items: []models.OrderLine{
			{ProductID: 1, Name: "Shirt", UnitPrice: 100, Quantity: 2, LineSubtotal: 200},
		},
		Subtotal: 200,
		Shipping: 20,
		Discount: 20,
		Total:    200,
		Customer: models.Customer{
			Name: "Jane Doe", Email: "jane@example.com", Phone: "55512345",
			Address: "123 Main Street", Locality: "Downtown", IDDocument: "A1234567",
		},
		PaymentMethod: "cash",
		CouponCode:    "SAVE10",
		CreatedAt:     time.Now(),
	}
}

func TestOrderRepository(t *testing.T) {
	repo, mock := setupOrderRepoTest(t)
	ctx := t.Context()

	t.Run("Create Order", func(t *testing.T) {

		insertSQL := regexp.QuoteMeta(`
			INSERT INTO orders (id, items, subtotal, shipping, discount, total, customer, payment_method, coupon_code, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
			RETURNING id, created_at
		`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			order := sampleOrder()
			itemsJSON, err := json.Marshal(order.Items)
			require.NoError(t, err)
			customerJSON, err := json.Marshal(order.Customer)
			require.NoError(t, err)

			mock.ExpectQuery(insertSQL).
				WithArgs(order.ID, itemsJSON, order.Subtotal, order.Shipping, order.Discount,
					order.Total, customerJSON, order.PaymentMethod, order.CouponCode, order.CreatedAt).
				WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
					AddRow(order.ID, order.CreatedAt))

			// Act
			err = repo.CreateOrder(ctx, order)

			// Assert
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("Failure - Unique Violation Maps To Duplicate Submission", func(t *testing.T) {
			// Arrange
			order := sampleOrder()
			mock.ExpectQuery(insertSQL).
				WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

			// Act
			err := repo.CreateOrder(ctx, order)

			// Assert
			require.Error(t, err)
			appErr, ok := appErrors.IsAppError(err)
			require.True(t, ok)
			assert.Equal(t, appErrors.ErrCodeDuplicateSubmission, appErr.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("Failure - Other Database Error Passes Through", func(t *testing.T) {
			// Arrange
			order := sampleOrder()
			dbErr := errors.New("connection reset")
			mock.ExpectQuery(insertSQL).WillReturnError(dbErr)

			// Act
			err := repo.CreateOrder(ctx, order)

			// Assert
			require.Error(t, err)
			_, ok := appErrors.IsAppError(err)
			assert.False(t, ok)
			assert.ErrorIs(t, err, dbErr)
		})
	})

	t.Run("Get Order By ID", func(t *testing.T) {

		selectSQL := regexp.QuoteMeta(`
			SELECT id, items, subtotal, shipping, discount, total, customer, payment_method, COALESCE(coupon_code, ''), created_at
			FROM orders
			WHERE id = $1
		`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			order := sampleOrder()
			itemsJSON, err := json.Marshal(order.Items)
			require.NoError(t, err)
			customerJSON, err := json.Marshal(order.Customer)
			require.NoError(t, err)

			mock.ExpectQuery(selectSQL).
				WithArgs(order.ID).
				WillReturnRows(sqlmock.NewRows([]string{
					"id", "items", "subtotal", "shipping", "discount", "total",
					"customer", "payment_method", "coupon_code", "created_at",
				}).AddRow(order.ID, itemsJSON, order.Subtotal, order.Shipping, order.Discount,
					order.Total, customerJSON, order.PaymentMethod, order.CouponCode, order.CreatedAt))

			// Act
			got, err := repo.GetOrderByID(ctx, order.ID)

			// Assert
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, order.ID, got.ID)
			assert.Equal(t, order.Total, got.Total)
			require.Len(t, got.Items, 1)
			assert.Equal(t, "Shirt", got.Items[0].Name)
			assert.Equal(t, "jane@example.com", got.Customer.Email)
		})

		t.Run("Failure - Not Found", func(t *testing.T) {
			// Arrange
			id := uuid.New()
			mock.ExpectQuery(selectSQL).WithArgs(id).WillReturnError(sql.ErrNoRows)

			// Act
			got, err := repo.GetOrderByID(ctx, id)

			// Assert
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, sql.ErrNoRows)
		})

		t.Run("Failure - Corrupt Items Payload", func(t *testing.T) {
			// Arrange
			order := sampleOrder()
			customerJSON, err := json.Marshal(order.Customer)
			require.NoError(t, err)

			mock.ExpectQuery(selectSQL).
				WithArgs(order.ID).
				WillReturnRows(sqlmock.NewRows([]string{
					"id", "items", "subtotal", "shipping", "discount", "total",
					"customer", "payment_method", "coupon_code", "created_at",
				}).AddRow(order.ID, []byte("{not json"), order.Subtotal, order.Shipping,
					order.Discount, order.Total, customerJSON, order.PaymentMethod,
					order.CouponCode, order.CreatedAt))

			// Act
			got, err := repo.GetOrderByID(ctx, order.ID)

			// Assert
			require.Error(t, err)
			assert.Nil(t, got)
		})
	})
}
