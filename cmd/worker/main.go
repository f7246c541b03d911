package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	internalaws "github.com/shanthaneddula/zsmokeshop-sub001/internal/aws"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/config"
)

func main() {
	cfg := config.Load()

	clients, err := internalaws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	p := NewProcessor(clients, cfg)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"order_id":"local-order-1","order_number":"ZS-000001","customer_name":"Local Test","store_location":"Z Smoke Shop","total":19.99,"item_count":1}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
