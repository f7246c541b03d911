// Package substitution implements the approval sub-protocol for replacing an
// unavailable line item: staff propose, the customer answers by text.
package substitution

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/shanthaneddula/zsmokeshop-sub001/internal/apperr"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/notify"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/orders"
)

// Store is the slice of the order store the substitution workflow needs.
type Store interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	ListByContact(ctx context.Context, contact string) ([]*orders.Order, error)
	SetPendingSubstitution(ctx context.Context, orderID string, ps orders.PendingSubstitution) error
	ClearPendingSubstitution(ctx context.Context, orderID string) error
	ApplyReplacement(ctx context.Context, orderID string, itemIndex int, ps orders.PendingSubstitution, approvedAt time.Time) error
	AppendCommunication(ctx context.Context, orderID string, comm orders.Communication) error
}

// SMSNotifier sends the approval request; the round-trip is text-only.
type SMSNotifier interface {
	SendSMSToCustomer(ctx context.Context, o *orders.Order, msg notify.Message) orders.Communication
}

// Service drives the suggest / reply protocol.
type Service struct {
	store    Store
	notifier SMSNotifier
	nowFunc  func() time.Time
}

// New returns a substitution Service.
func New(store Store, notifier SMSNotifier) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		nowFunc:  time.Now,
	}
}

// SuggestInput carries the staff-proposed replacement. The replacement name
// comes from the staff UI; the catalog is not this service's concern.
type SuggestInput struct {
	OrderID                string
	OriginalProductID      string
	ReplacementProductID   string
	ReplacementProductName string
	Note                   string
}

// Suggest records a proposed replacement on a confirmed order and texts the
// customer for approval. The line item stays unmodified until they answer.
func (s *Service) Suggest(ctx context.Context, in SuggestInput) (*orders.Order, error) {
	o, err := s.store.Get(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.ErrOrderNotFound
	}
	if o.Status != orders.StatusConfirmed {
		return nil, fmt.Errorf("%w: substitution requires a confirmed order, got %s", apperr.ErrInvalidTransition, o.Status)
	}

	idx := o.ItemIndex(in.OriginalProductID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: product %s", apperr.ErrItemNotFound, in.OriginalProductID)
	}
	if o.Items[idx].WasReplaced {
		return nil, fmt.Errorf("%w: product %s", apperr.ErrAlreadyReplaced, in.OriginalProductID)
	}

	ps := orders.PendingSubstitution{
		OriginalProductID:      in.OriginalProductID,
		ReplacementProductID:   in.ReplacementProductID,
		ReplacementProductName: in.ReplacementProductName,
		Note:                   in.Note,
		SuggestedAt:            s.nowFunc().UTC(),
	}

	if err := s.store.SetPendingSubstitution(ctx, in.OrderID, ps); err != nil {
		if err == orders.ErrStatusMismatch {
			return nil, fmt.Errorf("%w: order left confirmed before the suggestion landed", apperr.ErrInvalidTransition)
		}
		return nil, err
	}

	msg := notify.SubstitutionRequestMessage(o, &o.Items[idx], ps)
	comm := s.notifier.SendSMSToCustomer(ctx, o, msg)
	if err := s.store.AppendCommunication(ctx, in.OrderID, comm); err != nil {
		log.Printf("[substitution] order %s: could not log approval request: %v", o.OrderNumber, err)
	}

	updated, err := s.store.Get(ctx, in.OrderID)
	if err != nil || updated == nil {
		return o, nil
	}
	return updated, nil
}

// HandleReply matches an inbound message to the most recent order for that
// contact awaiting an answer, records it, and applies the classified decision.
// There is no conversation id on the channel; contact address is all we have,
// so two simultaneously awaiting orders from one customer are ambiguous — the
// newest suggestion wins and the ambiguity is logged for staff.
func (s *Service) HandleReply(ctx context.Context, fromContact, bodyText string) (*orders.Order, Reply, error) {
	candidates, err := s.store.ListByContact(ctx, fromContact)
	if err != nil {
		return nil, ReplyUnrecognized, err
	}

	// A suggestion stays answerable while the order is still in the shop:
	// confirmed, or ready when staff finished preparation before the customer
	// decided. The reply must be recorded either way.
	var awaiting []*orders.Order
	for _, o := range candidates {
		if o.PendingSubstitution == nil {
			continue
		}
		if o.Status == orders.StatusConfirmed || o.Status == orders.StatusReady {
			awaiting = append(awaiting, o)
		}
	}
	if len(awaiting) == 0 {
		return nil, ReplyUnrecognized, apperr.ErrNoPendingReply
	}

	target := awaiting[0]
	for _, o := range awaiting[1:] {
		if o.PendingSubstitution.SuggestedAt.After(target.PendingSubstitution.SuggestedAt) {
			target = o
		}
	}
	if len(awaiting) > 1 {
		log.Printf("[substitution] contact %s has %d orders awaiting a reply; applying to newest suggestion (order %s)",
			fromContact, len(awaiting), target.OrderNumber)
	}

	reply := Classify(bodyText)
	now := s.nowFunc().UTC()

	comm := orders.Communication{
		ID:        uuid.NewString(),
		Timestamp: now,
		Direction: orders.DirFromCustomer,
		Method:    methodForContact(target, fromContact),
		Message:   bodyText,
		Status:    orders.CommDelivered,
	}
	if err := s.store.AppendCommunication(ctx, target.OrderID, comm); err != nil {
		log.Printf("[substitution] order %s: could not log inbound reply: %v", target.OrderNumber, err)
	}

	ps := *target.PendingSubstitution

	switch reply {
	case ReplyApprove:
		idx := target.ItemIndex(ps.OriginalProductID)
		if idx < 0 {
			return target, reply, fmt.Errorf("%w: product %s", apperr.ErrItemNotFound, ps.OriginalProductID)
		}
		if err := s.store.ApplyReplacement(ctx, target.OrderID, idx, ps, now); err != nil {
			if err == orders.ErrStatusMismatch {
				return target, reply, fmt.Errorf("%w: product %s", apperr.ErrAlreadyReplaced, ps.OriginalProductID)
			}
			return target, reply, err
		}

	case ReplyReject:
		if err := s.store.ClearPendingSubstitution(ctx, target.OrderID); err != nil {
			return target, reply, err
		}
		// The item falls back to its stated preference. "call" means staff
		// follow up by phone; refund and cancel are handled outside this core.
		if idx := target.ItemIndex(ps.OriginalProductID); idx >= 0 {
			log.Printf("[substitution] order %s: substitution rejected, item %s falls back to preference %q",
				target.OrderNumber, ps.OriginalProductID, target.Items[idx].ReplacementPreference)
		}

	default:
		// Unrecognized text has no automatic effect; the logged record above
		// is all staff need.
	}

	updated, err := s.store.Get(ctx, target.OrderID)
	if err != nil || updated == nil {
		return target, reply, nil
	}
	return updated, reply, nil
}

func methodForContact(o *orders.Order, contact string) orders.NotificationMethod {
	if contact == o.CustomerEmail && contact != "" {
		return orders.MethodEmail
	}
	return orders.MethodSMS
}
