package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// OrderPlacedEvent is the payload sent API -> SQS -> store-notification worker
// when a new pickup order is created.
type OrderPlacedEvent struct {
	OrderID       string  `json:"order_id"`
	OrderNumber   string  `json:"order_number"`
	CustomerName  string  `json:"customer_name"`
	StoreLocation string  `json:"store_location"`
	Total         float64 `json:"total"`
	ItemCount     int     `json:"item_count"`
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// PublishOrderPlaced sends an order-placed event with the order identifiers as
// message attributes so consumers and DLQ tooling can filter without parsing the body.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, ev OrderPlacedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order placed event: %w", err)
	}

	bodyStr := string(body)
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &bodyStr,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"order_id": {
				DataType:    awsString("String"),
				StringValue: &ev.OrderID,
			},
			"order_number": {
				DataType:    awsString("String"),
				StringValue: &ev.OrderNumber,
			},
		},
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
