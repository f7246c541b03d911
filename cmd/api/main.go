package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	internalaws "github.com/shanthaneddula/zsmokeshop-sub001/internal/aws"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/config"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/handlers"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/lifecycle"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/notify"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/orders"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/pickup"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/substitution"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterOrderRoutes(r, cfg)

	return r
}

func main() {
	appCfg := config.Load()

	clients, err := internalaws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	store := orders.NewStore(clients.DynamoDB, appCfg.OrdersTable)
	policy := pickup.NewPolicy(appCfg.PickupWindow, appCfg.ExpiringSoonThreshold)

	sms := notify.NewTwilioGateway(appCfg.TwilioAccountSID, appCfg.TwilioAuthToken, appCfg.TwilioFromNumber, appCfg.GatewaySendTimeout)
	email := notify.NewSendGridGateway(appCfg.SendGridAPIKey, appCfg.SendGridFrom, appCfg.StoreLocation)
	notifier := notify.New(sms, email, appCfg.GatewaySendTimeout)

	var publisher lifecycle.Publisher
	if appCfg.QueueURL != "" {
		publisher = internalaws.NewPublisher(clients.SQS, appCfg.QueueURL)
	} else {
		log.Printf("ORDERS_QUEUE_URL not set; store alerts disabled")
	}

	lifecycleSvc := lifecycle.New(store, notifier, publisher, policy)
	substitutionSvc := substitution.New(store, notifier)

	r := setupRouter(handlers.HandlerConfig{
		Lifecycle:            lifecycleSvc,
		Substitution:         substitutionSvc,
		DefaultStoreLocation: appCfg.StoreLocation,
	})

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":" + appCfg.Port
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
