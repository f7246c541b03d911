// Package notify dispatches lifecycle messages over interchangeable SMS and
// email gateways and turns every attempt into a Communication record.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/shanthaneddula/zsmokeshop-sub001/internal/orders"
)

// Gateway is the uniform send contract both channels implement. SMS gateways
// ignore subject. The returned reference is an opaque provider id.
type Gateway interface {
	Send(ctx context.Context, to, subject, body string) (providerRef string, err error)
}

// Message is one outbound notification. Subject is used by the email channel
// and as the logged text for email communications.
type Message struct {
	Subject string
	Body    string
}

// Notifier picks the gateway for an order's notification method and records
// the outcome. A send failure is observed, never propagated: the caller always
// gets a Communication to append, and the triggering state change stands.
type Notifier struct {
	sms     Gateway
	email   Gateway
	timeout time.Duration
	nowFunc func() time.Time
}

// New returns a Notifier. timeout bounds each individual gateway call so a
// dead provider cannot stall a transition indefinitely.
func New(sms, email Gateway, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		sms:     sms,
		email:   email,
		timeout: timeout,
		nowFunc: time.Now,
	}
}

// Dispatch sends msg to one address over the given method and returns the
// Communication record for the attempt, failed or sent.
func (n *Notifier) Dispatch(ctx context.Context, method orders.NotificationMethod, direction orders.Direction, to string, msg Message) orders.Communication {
	gw := n.email
	logged := msg.Subject
	if method == orders.MethodSMS {
		gw = n.sms
		logged = msg.Body
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	comm := orders.Communication{
		ID:        uuid.NewString(),
		Timestamp: n.nowFunc().UTC(),
		Direction: direction,
		Method:    method,
		Message:   logged,
		Status:    orders.CommSent,
	}

	ref, err := gw.Send(sendCtx, to, msg.Subject, msg.Body)
	if err != nil {
		comm.Status = orders.CommFailed
		comm.FailureReason = err.Error()
		log.Printf("[notify] send failed method=%s to=%s: %v", method, to, err)
		return comm
	}
	comm.ProviderRef = ref
	return comm
}

// SendToCustomer delivers a lifecycle message on the order's chosen channel.
func (n *Notifier) SendToCustomer(ctx context.Context, o *orders.Order, msg Message) orders.Communication {
	to := o.CustomerEmail
	if o.NotificationMethod == orders.MethodSMS {
		to = o.CustomerPhone
	}
	return n.Dispatch(ctx, o.NotificationMethod, orders.DirToCustomer, to, msg)
}

// SendSMSToCustomer forces the SMS channel regardless of the order's
// notification method; the substitution approval round-trip is text-only.
func (n *Notifier) SendSMSToCustomer(ctx context.Context, o *orders.Order, msg Message) orders.Communication {
	return n.Dispatch(ctx, orders.MethodSMS, orders.DirToCustomer, o.CustomerPhone, msg)
}

// SendToStore emails the store inbox, e.g. the new-order alert.
func (n *Notifier) SendToStore(ctx context.Context, storeEmail string, msg Message) orders.Communication {
	return n.Dispatch(ctx, orders.MethodEmail, orders.DirToStore, storeEmail, msg)
}
