package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yummyfi/yummyfi-backend/cycle"
	"github.com/yummyfi/yummyfi-backend/database"
	"github.com/yummyfi/yummyfi-backend/lifecycle"
	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/store"
)

var t0 = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) (*store.GormStore, *cycle.ManualClock) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	db, err := database.OpenMemory(uuid.NewString(), log)
	require.NoError(t, err)
	clock := cycle.NewManualClock(t0)
	s := store.New(db, clock, log)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func newOrder(table string, createdAt time.Time) *models.Order {
	return &models.Order{
		TableNumber:  table,
		CustomerName: "Asha",
		Status:       models.StatusPending,
		TotalAmount:  480,
		CreatedAt:    createdAt,
		Items: []models.OrderItem{
			{ProductID: "p1", Name: "Paneer Butter Masala", UnitPrice: 240, Quantity: 2},
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, newOrder("T1", t0))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "T1", got.TableNumber)
	assert.Equal(t, models.StatusPending, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, id, got.Items[0].OrderID)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListFiltersAndOrdersNewestFirst(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	older, err := s.Create(ctx, newOrder("T1", t0.Add(-2*time.Hour)))
	require.NoError(t, err)
	newer, err := s.Create(ctx, newOrder("T2", t0))
	require.NoError(t, err)

	all, err := s.List(ctx, store.Query{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer, all[0].ID)
	assert.Equal(t, older, all[1].ID)

	byTable, err := s.List(ctx, store.Query{TableNumber: "T1"})
	require.NoError(t, err)
	require.Len(t, byTable, 1)
	assert.Equal(t, older, byTable[0].ID)

	inRange, err := s.List(ctx, store.Query{CreatedFrom: t0.Add(-time.Hour), CreatedTo: t0.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, newer, inRange[0].ID)

	none, err := s.List(ctx, store.Query{Statuses: []models.OrderStatus{models.StatusReady}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateStatusIsConditional(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, newOrder("T1", t0))
	require.NoError(t, err)
	order, err := s.Get(ctx, id)
	require.NoError(t, err)

	patch, err := lifecycle.Apply(order, models.StatusConfirmed, "", clock.Now(), lifecycle.DefaultCancelPolicy())
	require.NoError(t, err)
	require.NoError(t, s.UpdateStatus(ctx, id, models.StatusPending, patch))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	require.NotNil(t, got.ConfirmedAt)
	assert.True(t, got.ConfirmedAt.Equal(t0))

	// A second writer still believing the order is pending loses.
	err = s.UpdateStatus(ctx, id, models.StatusPending, patch)
	assert.ErrorIs(t, err, store.ErrConflict)

	err = s.UpdateStatus(ctx, "missing", models.StatusPending, patch)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, newOrder("T1", t0))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	var items int64
	require.NoError(t, s.DB().Model(&models.OrderItem{}).Where("order_id = ?", id).Count(&items).Error)
	assert.Zero(t, items)

	assert.ErrorIs(t, s.Delete(ctx, id), store.ErrNotFound)
}

func TestChangeFeedRecordsEveryWrite(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, newOrder("T1", t0))
	require.NoError(t, err)
	order, err := s.Get(ctx, id)
	require.NoError(t, err)
	patch, err := lifecycle.Apply(order, models.StatusConfirmed, "", clock.Now(), lifecycle.DefaultCancelPolicy())
	require.NoError(t, err)
	require.NoError(t, s.UpdateStatus(ctx, id, models.StatusPending, patch))
	require.NoError(t, s.Delete(ctx, id))

	changes, err := s.ChangesSince(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, models.ChangeInsert, changes[0].Action)
	assert.Equal(t, models.ChangeUpdate, changes[1].Action)
	assert.Equal(t, models.ChangeDelete, changes[2].Action)

	last, err := s.LastChangeID(ctx)
	require.NoError(t, err)
	assert.Equal(t, changes[2].ID, last)

	rest, err := s.ChangesSince(ctx, changes[0].ID, 100)
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	// A failed conditional write leaves no trace in the feed.
	_ = s.UpdateStatus(ctx, id, models.StatusPending, patch)
	after, err := s.LastChangeID(ctx)
	require.NoError(t, err)
	assert.Equal(t, last, after)
}

func TestPruneChanges(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, newOrder("T1", t0))
	require.NoError(t, err)
	clock.Advance(48 * time.Hour)
	_, err = s.Create(ctx, newOrder("T2", clock.Now()))
	require.NoError(t, err)

	n, err := s.PruneChanges(ctx, clock.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	changes, err := s.ChangesSince(ctx, 0, 100)
	require.NoError(t, err)
	assert.Len(t, changes, 1)
}

func TestSubscribeStartsWithCurrentState(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id, err := s.Create(ctx, newOrder("T1", t0))
	require.NoError(t, err)

	sub, err := s.Subscribe(ctx, store.Query{OrderID: id})
	require.NoError(t, err)

	select {
	case snap := <-sub.C:
		require.Len(t, snap.Orders, 1)
		assert.Equal(t, id, snap.Orders[0].ID)
		assert.NotZero(t, snap.Seq)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-sub.C
		return !open
	}, time.Second, 10*time.Millisecond)
}
