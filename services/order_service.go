package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yummyfi/yummyfi-backend/cart"
	"github.com/yummyfi/yummyfi-backend/cycle"
	"github.com/yummyfi/yummyfi-backend/lifecycle"
	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/store"
)

// maxTransitionAttempts bounds the re-read and re-validate loop run when a
// conditional status write loses a race.
const maxTransitionAttempts = 3

// Notifier is told after every successful write so snapshot delivery does not
// wait for the next poll.
type Notifier interface {
	Notify()
}

type ItemInput struct {
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	OfferPrice float64 `json:"offer_price"`
	Category   string  `json:"category"`
	IsVeg      bool    `json:"is_veg"`
	Quantity   int     `json:"quantity"`
}

type PlaceOrderInput struct {
	TableNumber   string      `json:"table_number"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	Items         []ItemInput `json:"items"`
}

// OrderService runs every order operation that touches the store. Legality is
// always decided against the stored order, never against a cached view.
type OrderService struct {
	store    store.OrderStore
	clock    cycle.Clock
	policy   lifecycle.CancelPolicy
	log      logrus.FieldLogger
	notifier Notifier
}

func NewOrderService(s store.OrderStore, clock cycle.Clock, policy lifecycle.CancelPolicy, log logrus.FieldLogger) *OrderService {
	return &OrderService{store: s, clock: clock, policy: policy, log: log}
}

// SetNotifier registers n to hear about writes. Call before serving.
func (s *OrderService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *OrderService) Clock() cycle.Clock { return s.clock }

func (s *OrderService) Policy() lifecycle.CancelPolicy { return s.policy }

func (s *OrderService) notify() {
	if s.notifier != nil {
		s.notifier.Notify()
	}
}

// PlaceOrder validates the input and stores a new pending order. Item prices
// are the selling prices the customer saw; the catalog is not consulted.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (string, error) {
	table := strings.TrimSpace(in.TableNumber)
	if table == "" {
		return "", validationError("table number is required")
	}
	if len(in.Items) == 0 {
		return "", validationError("cart is empty")
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	var total float64
	for i, it := range in.Items {
		if strings.TrimSpace(it.Name) == "" && strings.TrimSpace(it.ProductID) == "" {
			return "", validationError("item %d has no product", i+1)
		}
		if it.Quantity < 1 {
			return "", validationError("item %q needs a quantity of at least 1", it.Name)
		}
		if it.Price < 0 || it.OfferPrice < 0 {
			return "", validationError("item %q has a negative price", it.Name)
		}
		items = append(items, models.OrderItem{
			ProductID:  it.ProductID,
			Name:       it.Name,
			UnitPrice:  it.Price,
			OfferPrice: it.OfferPrice,
			Category:   it.Category,
			IsVeg:      it.IsVeg,
			Quantity:   it.Quantity,
		})
		total += it.Price * float64(it.Quantity)
	}

	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		name = "Guest"
	}
	var email *string
	if e := strings.TrimSpace(in.CustomerEmail); e != "" {
		email = &e
	}

	order := &models.Order{
		TableNumber:   table,
		CustomerName:  name,
		CustomerEmail: email,
		Items:         items,
		TotalAmount:   math.Round(total*100) / 100,
		Status:        models.StatusPending,
		CreatedAt:     s.clock.Now(),
	}
	id, err := s.store.Create(ctx, order)
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": id,
		"table":    table,
		"items":    len(items),
		"total":    order.TotalAmount,
	}).Info("Order placed")
	s.notify()
	return id, nil
}

// Checkout places the session's cart as an order and empties the cart.
// Items in the input are ignored; the cart is the source of lines. The cart
// is claimed before the order is written, so a repeated submit finds it empty
// instead of placing a second order. If placing fails the lines go back.
func (s *OrderService) Checkout(ctx context.Context, carts cart.Store, session string, in PlaceOrderInput) (string, error) {
	lines, err := carts.Take(ctx, session)
	if err != nil {
		return "", err
	}
	in.Items = make([]ItemInput, len(lines))
	for i, line := range lines {
		in.Items[i] = ItemInput{
			ProductID:  line.ProductID,
			Name:       line.Name,
			Price:      line.Price,
			OfferPrice: line.OfferPrice,
			Category:   line.Category,
			IsVeg:      line.IsVeg,
			Quantity:   line.Quantity,
		}
	}

	id, err := s.PlaceOrder(ctx, in)
	if err != nil {
		if rerr := carts.Restore(ctx, session, lines); rerr != nil {
			s.log.WithError(rerr).WithField("session", session).Error("Failed to restore cart after checkout error")
		}
		return "", err
	}
	return id, nil
}

// Transition moves an order to target. The edge is validated against the
// stored order and written only if the status is still the one validated.
// A lost race re-reads and re-validates, so the loser ends up with either an
// invalid-transition error or, after maxTransitionAttempts, ErrConflict.
func (s *OrderService) Transition(ctx context.Context, id string, target models.OrderStatus, actor models.Actor) (*models.Order, error) {
	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		order, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		now := s.clock.Now()
		patch, err := lifecycle.Apply(order, target, actor, now, s.policy)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"order_id": id,
				"from":     order.Status,
				"to":       target,
				"actor":    actor,
			}).WithError(err).Warn("Rejected order transition")
			return nil, err
		}

		err = s.store.UpdateStatus(ctx, id, order.Status, patch)
		if err == nil {
			patch.ApplyTo(order)
			order.UpdatedAt = now
			s.log.WithFields(logrus.Fields{
				"order_id": id,
				"status":   target,
				"actor":    actor,
			}).Info("Order status updated")
			s.notify()
			return order, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{"order_id": id, "attempt": attempt}).Debug("Order changed during transition, retrying")
	}
	return nil, fmt.Errorf("order %s: %w", id, ErrConflict)
}

// Cancel is Transition to cancelled on behalf of actor.
func (s *OrderService) Cancel(ctx context.Context, id string, actor models.Actor) (*models.Order, error) {
	return s.Transition(ctx, id, models.StatusCancelled, actor)
}

// Delete removes an order outright. Staff only.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("order_id", id).Info("Order deleted")
	s.notify()
	return nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.store.Get(ctx, id)
}

func (s *OrderService) List(ctx context.Context, q store.Query) ([]models.Order, error) {
	return s.store.List(ctx, q)
}

func (s *OrderService) Subscribe(ctx context.Context, q store.Query) (*store.Subscription, error) {
	return s.store.Subscribe(ctx, q)
}

// Track returns the order with its preparation timer as of now.
func (s *OrderService) Track(ctx context.Context, id string) (Tracking, error) {
	order, err := s.store.Get(ctx, id)
	if err != nil {
		return Tracking{}, err
	}
	return NewTracking(order, s.clock.Now()), nil
}

// CurrentWindow is the business day containing the clock's now.
func (s *OrderService) CurrentWindow() cycle.Window {
	return cycle.Compute(s.clock.Now())
}

// WindowOrders lists the orders created in the current business day.
func (s *OrderService) WindowOrders(ctx context.Context) ([]models.Order, cycle.Window, error) {
	w := s.CurrentWindow()
	orders, err := s.store.List(ctx, store.Query{CreatedFrom: w.Start, CreatedTo: w.End})
	if err != nil {
		return nil, w, err
	}
	return orders, w, nil
}

// Summary aggregates the current business day.
func (s *OrderService) Summary(ctx context.Context) (lifecycle.Summary, error) {
	orders, w, err := s.WindowOrders(ctx)
	if err != nil {
		return lifecycle.Summary{}, err
	}
	return lifecycle.Aggregate(orders, w), nil
}

// CleanupExpiredOrders deletes every order in orders created before w opened.
// Each delete stands alone: a failure is logged and the sweep moves on. Orders
// already gone are not reported, so a repeat run over the same input removes
// nothing. Only a cancelled ctx stops the sweep early.
func (s *OrderService) CleanupExpiredOrders(ctx context.Context, orders []models.Order, w cycle.Window) ([]string, error) {
	var removed []string
	for _, o := range lifecycle.Expired(orders, w) {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		err := s.store.Delete(ctx, o.ID)
		switch {
		case err == nil:
			removed = append(removed, o.ID)
		case errors.Is(err, store.ErrNotFound):
			s.log.WithField("order_id", o.ID).Debug("Expired order already removed")
		default:
			s.log.WithFields(logrus.Fields{
				"order_id":     o.ID,
				"window_start": w.Start,
			}).WithError(err).Error("Failed to delete expired order")
		}
	}
	if len(removed) > 0 {
		s.log.WithFields(logrus.Fields{
			"removed":      len(removed),
			"window_start": w.Start,
		}).Info("Removed orders from previous business days")
		s.notify()
	}
	return removed, nil
}

// SweepExpired reads every order older than the current business day from the
// store and cleans them up.
func (s *OrderService) SweepExpired(ctx context.Context) ([]string, error) {
	w := s.CurrentWindow()
	expired, err := s.store.List(ctx, store.Query{CreatedTo: w.Start})
	if err != nil {
		return nil, err
	}
	return s.CleanupExpiredOrders(ctx, expired, w)
}
