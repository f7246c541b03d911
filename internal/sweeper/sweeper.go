// Package sweeper periodically re-evaluates every ready order against the
// pickup window and forces the no-show transition once it has elapsed.
package sweeper

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shanthaneddula/zsmokeshop-sub001/internal/apperr"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/notify"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/orders"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/pickup"
)

// Store is the slice of the order store the sweeper needs.
type Store interface {
	ListByStatus(ctx context.Context, status orders.Status) ([]*orders.Order, error)
	MarkReminderSent(ctx context.Context, orderID string, at time.Time) error
	AppendCommunication(ctx context.Context, orderID string, comm orders.Communication) error
}

// Lifecycle performs the forced transition through the state machine; the
// sweeper never touches status fields directly.
type Lifecycle interface {
	MarkNoShow(ctx context.Context, orderID string) (*orders.Order, error)
}

// SMSNotifier sends the expiring-soon reminder text.
type SMSNotifier interface {
	SendSMSToCustomer(ctx context.Context, o *orders.Order, msg notify.Message) orders.Communication
}

// Metrics publishes per-cycle counters. May be nil.
type Metrics interface {
	PutSweepMetrics(ctx context.Context, at time.Time, counts map[string]int) error
}

// Result summarizes one sweep cycle.
type Result struct {
	Ready        int
	Expired      int
	ExpiringSoon int
	Reminders    int
	Raced        int
}

// Sweeper runs one evaluation cycle over all ready orders. It holds no state
// between cycles, so any number of instances can run concurrently: the
// conditional transition makes a duplicate sweep a no-op, not a double fire.
type Sweeper struct {
	store     Store
	lifecycle Lifecycle
	notifier  SMSNotifier
	metrics   Metrics
	policy    pickup.Policy
	nowFunc   func() time.Time
}

// New returns a Sweeper. metrics may be nil to skip CloudWatch publishing.
func New(store Store, lifecycle Lifecycle, notifier SMSNotifier, metrics Metrics, policy pickup.Policy) *Sweeper {
	return &Sweeper{
		store:     store,
		lifecycle: lifecycle,
		notifier:  notifier,
		metrics:   metrics,
		policy:    policy,
		nowFunc:   time.Now,
	}
}

// Sweep evaluates every ready order once against a single now. Orders staff
// transitioned before the sweep observed them simply don't appear in the query.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	now := s.nowFunc().UTC()
	var res Result

	ready, err := s.store.ListByStatus(ctx, orders.StatusReady)
	if err != nil {
		return res, err
	}
	res.Ready = len(ready)

	for _, o := range ready {
		if o.Timeline.ReadyAt == nil {
			log.Printf("[sweeper] order %s is ready with no ready_at stamp, skipping", o.OrderNumber)
			continue
		}
		readyAt := *o.Timeline.ReadyAt

		if s.policy.Expired(readyAt, now) {
			if _, err := s.lifecycle.MarkNoShow(ctx, o.OrderID); err != nil {
				if errors.Is(err, apperr.ErrInvalidTransition) {
					// Staff or another sweeper got there first.
					res.Raced++
					continue
				}
				log.Printf("[sweeper] order %s: no-show transition failed: %v", o.OrderNumber, err)
				continue
			}
			res.Expired++
			continue
		}

		if s.policy.IsExpiringSoon(readyAt, now) {
			res.ExpiringSoon++
			if o.ReminderSentAt == nil {
				s.sendReminder(ctx, o, readyAt, now, &res)
			}
		}
	}

	if s.metrics != nil {
		counts := map[string]int{
			"ReadyOrders":    res.Ready,
			"ExpiredOrders":  res.Expired,
			"ExpiringSoon":   res.ExpiringSoon,
			"RemindersSent":  res.Reminders,
			"RacedSweeps":    res.Raced,
		}
		if err := s.metrics.PutSweepMetrics(ctx, now, counts); err != nil {
			log.Printf("[sweeper] metrics publish failed: %v", err)
		}
	}

	return res, nil
}

// sendReminder claims the at-most-once reminder stamp before sending, so two
// sweepers cannot both text the customer.
func (s *Sweeper) sendReminder(ctx context.Context, o *orders.Order, readyAt, now time.Time, res *Result) {
	if err := s.store.MarkReminderSent(ctx, o.OrderID, now); err != nil {
		if err == orders.ErrStatusMismatch {
			res.Raced++
			return
		}
		log.Printf("[sweeper] order %s: reminder stamp failed: %v", o.OrderNumber, err)
		return
	}

	remaining, ok := s.policy.Remaining(readyAt, now)
	msg := notify.ReminderMessage(o, pickup.FormatRemaining(remaining, ok))
	comm := s.notifier.SendSMSToCustomer(ctx, o, msg)
	if err := s.store.AppendCommunication(ctx, o.OrderID, comm); err != nil {
		log.Printf("[sweeper] order %s: could not log reminder: %v", o.OrderNumber, err)
		return
	}
	res.Reminders++
}

// Run executes Sweep on a fixed cadence until ctx is cancelled. Used by the
// local runtime; deployed sweepers are invoked per scheduled event instead.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := s.Sweep(ctx)
			if err != nil {
				log.Printf("[sweeper] sweep failed: %v", err)
				continue
			}
			if res.Expired > 0 || res.Reminders > 0 || res.Raced > 0 {
				log.Printf("[sweeper] ready=%d expired=%d expiring_soon=%d reminders=%d raced=%d",
					res.Ready, res.Expired, res.ExpiringSoon, res.Reminders, res.Raced)
			}
		}
	}
}
