package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yummyfi/yummyfi-backend/cycle"
	"github.com/yummyfi/yummyfi-backend/database"
	"github.com/yummyfi/yummyfi-backend/lifecycle"
	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/store"
	"github.com/yummyfi/yummyfi-backend/utils"
)

// T0 sits well inside the 2026-04-10 business day.
var T0 = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db      *gorm.DB
	store   *store.GormStore
	clock   *cycle.ManualClock
	service *OrderService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := utils.NewTestLogger()
	db, err := database.OpenMemory(uuid.NewString(), log)
	require.NoError(t, err)

	clock := cycle.NewManualClock(T0)
	s := store.New(db, clock, log)
	t.Cleanup(func() { s.Close() })

	return &testEnv{
		db:      db,
		store:   s,
		clock:   clock,
		service: NewOrderService(s, clock, lifecycle.DefaultCancelPolicy(), log),
	}
}

func (e *testEnv) place(t *testing.T, table string) string {
	t.Helper()
	id, err := e.service.PlaceOrder(context.Background(), PlaceOrderInput{
		TableNumber: table,
		Items:       []ItemInput{{ProductID: "p1", Name: "Dal Makhani", Price: 200, Quantity: 1}},
	})
	require.NoError(t, err)
	return id
}

// seedOrder stores an order directly, bypassing the service clock.
func (e *testEnv) seedOrder(t *testing.T, createdAt time.Time, status models.OrderStatus) string {
	t.Helper()
	o := &models.Order{TableNumber: "9", CustomerName: "Guest", Status: status, TotalAmount: 100, CreatedAt: createdAt}
	if status != models.StatusPending && status != models.StatusCancelled {
		o.ConfirmedAt = &createdAt
	}
	id, err := e.store.Create(context.Background(), o)
	require.NoError(t, err)
	return id
}
