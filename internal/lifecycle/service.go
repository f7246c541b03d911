// Package lifecycle owns the pickup order's status transitions and the
// notification side effects each customer-facing transition triggers.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shanthaneddula/zsmokeshop-sub001/internal/apperr"
	internalaws "github.com/shanthaneddula/zsmokeshop-sub001/internal/aws"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/notify"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/orders"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/pickup"
)

// Store is the slice of the order store the lifecycle service needs.
// *orders.Store implements it; tests substitute an in-memory fake.
type Store interface {
	Create(ctx context.Context, o *orders.Order) error
	NextOrderNumber(ctx context.Context) (string, error)
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*orders.Order, error)
	ListByStatus(ctx context.Context, status orders.Status) ([]*orders.Order, error)
	TransitionStatus(ctx context.Context, orderID string, expected, next orders.Status, stamp string, at time.Time) error
	AppendCommunication(ctx context.Context, orderID string, comm orders.Communication) error
}

// Notifier delivers one customer notification and reports the attempt.
type Notifier interface {
	SendToCustomer(ctx context.Context, o *orders.Order, msg notify.Message) orders.Communication
}

// Publisher announces newly placed orders to the store-notification queue.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, ev internalaws.OrderPlacedEvent) error
}

// transitions is the full legal transition table. Anything absent is rejected.
var transitions = map[orders.Status]map[orders.Status]bool{
	orders.StatusPending:   {orders.StatusConfirmed: true, orders.StatusCancelled: true},
	orders.StatusConfirmed: {orders.StatusReady: true, orders.StatusCancelled: true},
	orders.StatusReady:     {orders.StatusPickedUp: true, orders.StatusNoShow: true},
}

// stamps maps each target status to the timeline attribute it sets.
var stamps = map[orders.Status]string{
	orders.StatusConfirmed: orders.StampConfirmedAt,
	orders.StatusReady:     orders.StampReadyAt,
	orders.StatusPickedUp:  orders.StampCompletedAt,
	orders.StatusNoShow:    orders.StampCompletedAt,
	orders.StatusCancelled: orders.StampCancelledAt,
}

// CanTransition reports whether from -> to is in the lifecycle table.
func CanTransition(from, to orders.Status) bool {
	next := transitions[from]
	return next != nil && next[to]
}

// Service validates and performs status transitions, stamping the timeline and
// dispatching exactly one customer notification per customer-facing change.
type Service struct {
	store     Store
	notifier  Notifier
	publisher Publisher
	policy    pickup.Policy
	nowFunc   func() time.Time
}

// New returns a lifecycle Service. publisher may be nil when no queue is
// configured; order placement then skips the store alert.
func New(store Store, notifier Notifier, publisher Publisher, policy pickup.Policy) *Service {
	return &Service{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		policy:    policy,
		nowFunc:   time.Now,
	}
}

// LineItemInput is one requested product at checkout.
type LineItemInput struct {
	ProductID             string
	ProductName           string
	Quantity              int
	PricePerUnit          float64
	ReplacementPreference orders.ReplacementPreference
}

// CreateOrderInput carries everything checkout supplies for a new order.
type CreateOrderInput struct {
	CustomerName       string
	CustomerPhone      string
	CustomerEmail      string
	NotificationMethod orders.NotificationMethod
	StoreLocation      string
	Items              []LineItemInput
}

// Create persists a new pending order and announces it on the order-placed
// queue. Duplicate-submission protection sits with the caller; the store's
// create guard only prevents an id collision from overwriting a document.
func (s *Service) Create(ctx context.Context, in CreateOrderInput) (*orders.Order, error) {
	number, err := s.store.NextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate order number: %w", err)
	}

	now := s.nowFunc().UTC()
	items := make([]orders.LineItem, 0, len(in.Items))
	var total float64
	for _, it := range in.Items {
		line := orders.LineItem{
			ProductID:             it.ProductID,
			ProductName:           it.ProductName,
			Quantity:              it.Quantity,
			PricePerUnit:          it.PricePerUnit,
			TotalPrice:            float64(it.Quantity) * it.PricePerUnit,
			ReplacementPreference: it.ReplacementPreference,
		}
		total += line.TotalPrice
		items = append(items, line)
	}

	contact := in.CustomerEmail
	if in.NotificationMethod == orders.MethodSMS {
		contact = in.CustomerPhone
	}

	o := &orders.Order{
		OrderID:            uuid.NewString(),
		OrderNumber:        number,
		Status:             orders.StatusPending,
		CustomerName:       in.CustomerName,
		CustomerPhone:      in.CustomerPhone,
		CustomerEmail:      in.CustomerEmail,
		Contact:            contact,
		NotificationMethod: in.NotificationMethod,
		StoreLocation:      in.StoreLocation,
		PickupCode:         newPickupCode(),
		Total:              total,
		Items:              items,
		Timeline:           orders.Timeline{PlacedAt: now},
	}

	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		ev := internalaws.OrderPlacedEvent{
			OrderID:       o.OrderID,
			OrderNumber:   o.OrderNumber,
			CustomerName:  o.CustomerName,
			StoreLocation: o.StoreLocation,
			Total:         o.Total,
			ItemCount:     len(o.Items),
		}
		// Queue trouble must not undo a placed order; the store alert is lost
		// and operators see it in the logs.
		if err := s.publisher.PublishOrderPlaced(ctx, ev); err != nil {
			log.Printf("[lifecycle] order %s placed but queue publish failed: %v", o.OrderNumber, err)
		}
	}

	return o, nil
}

// Confirm moves pending -> confirmed and notifies the customer.
func (s *Service) Confirm(ctx context.Context, orderID string) (*orders.Order, error) {
	return s.transition(ctx, orderID, orders.StatusConfirmed)
}

// MarkReady moves confirmed -> ready, starting the pickup window.
func (s *Service) MarkReady(ctx context.Context, orderID string) (*orders.Order, error) {
	return s.transition(ctx, orderID, orders.StatusReady)
}

// MarkPickedUp moves ready -> picked-up.
func (s *Service) MarkPickedUp(ctx context.Context, orderID string) (*orders.Order, error) {
	return s.transition(ctx, orderID, orders.StatusPickedUp)
}

// MarkNoShow moves ready -> no-show, by sweeper or staff override.
func (s *Service) MarkNoShow(ctx context.Context, orderID string) (*orders.Order, error) {
	return s.transition(ctx, orderID, orders.StatusNoShow)
}

// Cancel moves pending or confirmed -> cancelled.
func (s *Service) Cancel(ctx context.Context, orderID string) (*orders.Order, error) {
	return s.transition(ctx, orderID, orders.StatusCancelled)
}

func (s *Service) transition(ctx context.Context, orderID string, target orders.Status) (*orders.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.ErrOrderNotFound
	}
	if !CanTransition(o.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, o.Status, target)
	}

	now := s.nowFunc().UTC()
	err = s.store.TransitionStatus(ctx, orderID, o.Status, target, stamps[target], now)
	if err == orders.ErrStatusMismatch {
		// Lost the race: someone else transitioned first. Report against the
		// status they actually set.
		current, getErr := s.store.Get(ctx, orderID)
		if getErr == nil && current != nil {
			return nil, fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, current.Status, target)
		}
		return nil, fmt.Errorf("%w: -> %s", apperr.ErrInvalidTransition, target)
	}
	if err != nil {
		return nil, err
	}
	o.Status = target

	// The status change is committed; the notification outcome, sent or
	// failed, is recorded but never rolls it back.
	if msg, ok := s.messageFor(o, target); ok {
		comm := s.notifier.SendToCustomer(ctx, o, msg)
		if err := s.store.AppendCommunication(ctx, orderID, comm); err != nil {
			log.Printf("[lifecycle] order %s: could not log %s notification: %v", o.OrderNumber, target, err)
		}
	}

	updated, err := s.store.Get(ctx, orderID)
	if err != nil || updated == nil {
		return o, nil
	}
	return updated, nil
}

// messageFor returns the customer notification for a transition target, if any.
// picked-up is the handoff itself and sends nothing.
func (s *Service) messageFor(o *orders.Order, target orders.Status) (notify.Message, bool) {
	switch target {
	case orders.StatusConfirmed:
		return notify.ConfirmedMessage(o), true
	case orders.StatusReady:
		return notify.ReadyMessage(o, s.policy.Window), true
	case orders.StatusCancelled:
		return notify.CancelledMessage(o), true
	case orders.StatusNoShow:
		return notify.NoShowMessage(o), true
	default:
		return notify.Message{}, false
	}
}

// Track is the customer-facing lookup. Both the order number and the contact
// credential must match; every failure mode reads identically as not found so
// guessing order numbers leaks nothing.
func (s *Service) Track(ctx context.Context, orderNumber, contact string) (*orders.Order, error) {
	o, err := s.store.GetByNumber(ctx, strings.TrimSpace(orderNumber))
	if err != nil {
		return nil, err
	}
	if o == nil || !o.ContactMatches(strings.TrimSpace(contact)) {
		return nil, apperr.ErrOrderNotFound
	}
	return o, nil
}

// ListByStatus is the staff dashboard query.
func (s *Service) ListByStatus(ctx context.Context, status orders.Status) ([]*orders.Order, error) {
	return s.store.ListByStatus(ctx, status)
}

// Get returns one order by id for staff views.
func (s *Service) Get(ctx context.Context, orderID string) (*orders.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.ErrOrderNotFound
	}
	return o, nil
}

// newPickupCode returns the short code the customer shows at the counter.
func newPickupCode() string {
	return strings.ToUpper(uuid.NewString()[:6])
}
