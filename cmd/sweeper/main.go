package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	internalaws "github.com/shanthaneddula/zsmokeshop-sub001/internal/aws"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/config"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/lifecycle"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/notify"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/orders"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/pickup"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/sweeper"
)

func main() {
	cfg := config.Load()

	clients, err := internalaws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	store := orders.NewStore(clients.DynamoDB, cfg.OrdersTable)
	policy := pickup.NewPolicy(cfg.PickupWindow, cfg.ExpiringSoonThreshold)

	sms := notify.NewTwilioGateway(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.GatewaySendTimeout)
	email := notify.NewSendGridGateway(cfg.SendGridAPIKey, cfg.SendGridFrom, cfg.StoreLocation)
	notifier := notify.New(sms, email, cfg.GatewaySendTimeout)

	// The sweeper's no-show goes through the same state machine as a staff
	// override; no queue publisher is needed here.
	lifecycleSvc := lifecycle.New(store, notifier, nil, policy)
	metrics := internalaws.NewMetricsEmitter(clients.CloudWatch)

	sw := sweeper.New(store, lifecycleSvc, notifier, metrics, policy)

	// If RUN_LOCAL=true, run the tick loop in-process until interrupted.
	// Deployed, each scheduled event triggers exactly one sweep.
	if os.Getenv("RUN_LOCAL") == "true" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Printf("sweeper running locally every %s (window=%s threshold=%s)",
			cfg.SweepInterval, policy.Window, policy.ExpiringSoonThreshold)
		sw.Run(ctx, cfg.SweepInterval)
		return
	}

	lambda.Start(func(ctx context.Context, _ events.CloudWatchEvent) error {
		res, err := sw.Sweep(ctx)
		if err != nil {
			return err
		}
		log.Printf("[sweeper] ready=%d expired=%d expiring_soon=%d reminders=%d raced=%d",
			res.Ready, res.Expired, res.ExpiringSoon, res.Reminders, res.Raced)
		return nil
	})
}
