package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	internalaws "github.com/shanthaneddula/zsmokeshop-sub001/internal/aws"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/config"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/notify"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/orders"
)

// StoreNotifier delivers the to-store alert for one event.
type StoreNotifier interface {
	SendToStore(ctx context.Context, storeEmail string, msg notify.Message) orders.Communication
}

// OrderStore is the slice of the order store the worker needs.
type OrderStore interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	AppendCommunication(ctx context.Context, orderID string, comm orders.Communication) error
}

// Processor consumes order-placed events and emails the store about each new
// pickup order, logging the attempt on the order's communication history.
type Processor struct {
	store      OrderStore
	notifier   StoreNotifier
	storeEmail string
}

// NewProcessor wires a processor from AWS clients and app config.
func NewProcessor(clients *internalaws.AWSClients, cfg *config.Config) *Processor {
	email := notify.NewSendGridGateway(cfg.SendGridAPIKey, cfg.SendGridFrom, cfg.StoreLocation)
	sms := notify.NewTwilioGateway(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.GatewaySendTimeout)

	return &Processor{
		store:      orders.NewStore(clients.DynamoDB, cfg.OrdersTable),
		notifier:   notify.New(sms, email, cfg.GatewaySendTimeout),
		storeEmail: cfg.StoreEmail,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda retries, and repeated failures land in the DLQ.
			log.Printf("worker error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev internalaws.OrderPlacedEvent
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	log.Printf("[worker] received order=%s number=%s", ev.OrderID, ev.OrderNumber)

	o, err := p.store.Get(ctx, ev.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if o == nil {
		// Should never happen; DLQ if it does.
		return fmt.Errorf("order not found: %s", ev.OrderID)
	}

	// Skip alerts for orders that already moved past pending: a redelivered
	// event after staff confirmed tells the store nothing new.
	if o.Status != orders.StatusPending {
		log.Printf("[worker] order=%s already %s, skipping store alert", ev.OrderNumber, o.Status)
		return nil
	}

	msg := notify.StoreNewOrderMessage(ev.OrderNumber, ev.CustomerName, ev.StoreLocation, ev.Total, ev.ItemCount)
	comm := p.notifier.SendToStore(ctx, p.storeEmail, msg)

	// The attempt is recorded sent or failed; a down email provider is an
	// operator problem, not a reason to re-drive the queue.
	if err := p.store.AppendCommunication(ctx, o.OrderID, comm); err != nil {
		return fmt.Errorf("failed to log store alert: %w", err)
	}

	log.Printf("[worker] store alert %s for order=%s", comm.Status, ev.OrderNumber)
	return nil
}
