package apperr

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrInvalidTransition rejects a state change not in the lifecycle table.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrOrderNotFound is returned for both a missing order and a contact
	// mismatch on the tracking query, so callers cannot probe order numbers.
	ErrOrderNotFound = errors.New("order not found")
	// ErrItemNotFound rejects a substitution against a product not on the order.
	ErrItemNotFound = errors.New("line item not found")
	// ErrAlreadyReplaced rejects a second substitution on the same line item.
	ErrAlreadyReplaced = errors.New("line item already replaced")
	// ErrNoPendingReply means an inbound message matched no order awaiting a reply.
	ErrNoPendingReply = errors.New("no order awaiting a reply for this contact")
)

func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"

	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"

	case errors.Is(err, ErrItemNotFound):
		return "item_not_found"

	case errors.Is(err, ErrAlreadyReplaced):
		return "already_replaced"

	case errors.Is(err, ErrNoPendingReply):
		return "no_pending_reply"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	default:
		return "internal"
	}
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrAlreadyReplaced):
		return http.StatusConflict

	case errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrItemNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrNoPendingReply):
		return http.StatusOK // webhook acks regardless; nothing to apply

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}
