package repository

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMongoTestStore connects to the replica set named by MONGO_TEST_URI,
// using a throwaway database per test.
func newMongoTestStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set; skipping mongo integration test")
	}

	ctx := context.Background()
	s, err := NewMongoStore(ctx, MongoConfig{
		URI:      uri,
		Database: "restaurant_test_" + uuid.NewString()[:8],
		Timeout:  10 * time.Second,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.products.Database().Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestMongoStore_StockAndAvailability(t *testing.T) {
	s := newMongoTestStore(t)
	ctx := context.Background()
	seed(t, s, []models.Product{{Name: "Tomato", Stock: 5, Categories: []string{"vegetable"}}}, []models.Dish{
		dish("Margherita", true, "Tomato"),
		dish("Bread", true, "Flour"),
	})

	err := s.WithTransaction(ctx, func(ctx context.Context, uow UnitOfWork) error {
		change, err := uow.AdjustProductStock(ctx, "Tomato", -5)
		require.NoError(t, err)
		assert.Equal(t, 5, change.Previous)
		assert.Equal(t, 0, change.Product.Stock)

		n, err := uow.SetDishAvailability(ctx, "Tomato", false, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	})
	require.NoError(t, err)

	err = s.WithTransaction(ctx, func(ctx context.Context, uow UnitOfWork) error {
		_, err := uow.AdjustProductStock(ctx, "Tomato", -1)
		assert.ErrorIs(t, err, ErrInsufficientStock)

		_, err = uow.AdjustProductStock(ctx, "Tomato", math.MinInt)
		assert.ErrorIs(t, err, ErrInsufficientStock)

		_, err = uow.AdjustProductStock(ctx, "Basil", 1)
		assert.ErrorIs(t, err, ErrNotFound)

		d, err := uow.FindDish(ctx, "Margherita")
		require.NoError(t, err)
		assert.False(t, d.Available)

		b, err := uow.FindDish(ctx, "Bread")
		require.NoError(t, err)
		assert.True(t, b.Available)
		return nil
	})
	require.NoError(t, err)

	err = s.WithTransaction(ctx, func(ctx context.Context, uow UnitOfWork) error {
		if _, err := uow.AdjustProductStock(ctx, "Tomato", 5); err != nil {
			return err
		}
		_, err := uow.AdjustProductStock(ctx, "Tomato", math.MaxInt)
		assert.ErrorIs(t, err, ErrStockOverflow)
		return nil
	})
	require.NoError(t, err)

	err = s.View(ctx, func(ctx context.Context, r Reader) error {
		p, err := r.FindProduct(ctx, "Tomato")
		require.NoError(t, err)
		assert.Equal(t, 5, p.Stock)
		return nil
	})
	require.NoError(t, err)
}

func TestMongoStore_ConditionalOrderReplace(t *testing.T) {
	s := newMongoTestStore(t)
	ctx := context.Background()

	o := models.Order{ID: uuid.NewString(), UserID: "u1", Status: models.OrderStatusPending, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.WithTransaction(ctx, func(ctx context.Context, uow UnitOfWork) error {
		return uow.InsertOrder(ctx, o)
	}))

	err := s.WithTransaction(ctx, func(ctx context.Context, uow UnitOfWork) error {
		next := o
		next.Status = models.OrderStatusAccepted
		require.NoError(t, uow.ReplaceOrderIfStatus(ctx, next, models.OrderStatusPending))

		next.Status = models.OrderStatusCanceled
		assert.ErrorIs(t, uow.ReplaceOrderIfStatus(ctx, next, models.OrderStatusPending), ErrConflict)
		return nil
	})
	require.NoError(t, err)
}
