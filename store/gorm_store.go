package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yummyfi/yummyfi-backend/cycle"
	"github.com/yummyfi/yummyfi-backend/lifecycle"
	"github.com/yummyfi/yummyfi-backend/models"
)

// GormStore keeps orders in a SQL database through gorm. Each write appends
// an OrderChange row in the same transaction so that other processes sharing
// the database can follow the change feed.
type GormStore struct {
	db     *gorm.DB
	clock  cycle.Clock
	broker *Broker
	log    logrus.FieldLogger
	ownsDB bool
}

// New wraps an already opened and migrated database. Close leaves db open.
func New(db *gorm.DB, clock cycle.Clock, log logrus.FieldLogger) *GormStore {
	return &GormStore{db: db, clock: clock, broker: NewBroker(), log: log}
}

// Open connects through dialector, migrates the order tables and returns a
// store that owns the connection.
func Open(dialector gorm.Dialector, clock cycle.Clock, log logrus.FieldLogger) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.OrderChange{}); err != nil {
		return nil, fmt.Errorf("failed to migrate order tables: %w", err)
	}
	s := New(db, clock, log)
	s.ownsDB = true
	return s, nil
}

// Close ends all subscriptions and, if Open created it, the connection.
func (s *GormStore) Close() error {
	s.broker.Close()
	if !s.ownsDB {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Broker() *Broker { return s.broker }

func (s *GormStore) Create(ctx context.Context, order *models.Order) (string, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return s.recordChange(tx, order.ID, models.ChangeInsert)
	})
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	return order.ID, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return &order, nil
}

func (s *GormStore) List(ctx context.Context, q Query) ([]models.Order, error) {
	return s.list(s.db.WithContext(ctx), q)
}

func (s *GormStore) list(db *gorm.DB, q Query) ([]models.Order, error) {
	db = db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
	if q.OrderID != "" {
		db = db.Where("id = ?", q.OrderID)
	}
	if q.TableNumber != "" {
		db = db.Where("table_number = ?", q.TableNumber)
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, st := range q.Statuses {
			statuses[i] = string(st)
		}
		db = db.Where("status IN ?", statuses)
	}
	if !q.CreatedFrom.IsZero() {
		db = db.Where("created_at >= ?", q.CreatedFrom)
	}
	if !q.CreatedTo.IsZero() {
		db = db.Where("created_at < ?", q.CreatedTo)
	}

	orders := []models.Order{}
	if err := db.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *GormStore) UpdateStatus(ctx context.Context, id string, expected models.OrderStatus, patch lifecycle.Patch) error {
	fields := patch.Fields()
	fields["updated_at"] = s.clock.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, string(expected)).
			Updates(fields)
		if res.Error != nil {
			return fmt.Errorf("update order %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return fmt.Errorf("update order %s: %w", id, err)
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrConflict
		}
		return s.recordChange(tx, id, models.ChangeUpdate)
	})
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("delete items of order %s: %w", id, err)
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("delete order %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return s.recordChange(tx, id, models.ChangeDelete)
	})
}

// Subscribe starts a subscription. Its first snapshot is the current state.
func (s *GormStore) Subscribe(ctx context.Context, q Query) (*Subscription, error) {
	var initial *Snapshot
	if _, ok := s.broker.Last(); !ok {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		initial = &snap
	}
	return s.broker.Subscribe(ctx, q, initial)
}

// Snapshot reads every order together with the change-feed position it reflects.
func (s *GormStore) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := lastChangeID(tx)
		if err != nil {
			return err
		}
		orders, err := s.list(tx, Query{})
		if err != nil {
			return err
		}
		snap = Snapshot{Orders: orders, Seq: seq, At: s.clock.Now()}
		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}

// ChangesSince returns up to limit change rows with ID greater than cursor.
func (s *GormStore) ChangesSince(ctx context.Context, cursor uint, limit int) ([]models.OrderChange, error) {
	var changes []models.OrderChange
	err := s.db.WithContext(ctx).
		Where("id > ?", cursor).
		Order("id ASC").
		Limit(limit).
		Find(&changes).Error
	if err != nil {
		return nil, fmt.Errorf("read change feed: %w", err)
	}
	return changes, nil
}

// LastChangeID is the newest change-feed position, 0 when the feed is empty.
func (s *GormStore) LastChangeID(ctx context.Context) (uint, error) {
	return lastChangeID(s.db.WithContext(ctx))
}

// PruneChanges drops change rows recorded before cutoff.
func (s *GormStore) PruneChanges(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("changed_at < ?", cutoff).Delete(&models.OrderChange{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune change feed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) recordChange(tx *gorm.DB, orderID, action string) error {
	change := models.OrderChange{OrderID: orderID, Action: action, ChangedAt: s.clock.Now()}
	if err := tx.Create(&change).Error; err != nil {
		return fmt.Errorf("record %s change for order %s: %w", action, orderID, err)
	}
	return nil
}

func lastChangeID(db *gorm.DB) (uint, error) {
	var seq uint
	err := db.Model(&models.OrderChange{}).Select("COALESCE(MAX(id), 0)").Scan(&seq).Error
	if err != nil {
		return 0, fmt.Errorf("read change feed position: %w", err)
	}
	return seq, nil
}
