// config.go
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OrdersTable   string
	QueueURL      string
	Port          string
	StoreLocation string
	StoreEmail    string

	// Pickup policy. Sweep interval must stay at or below the expiring-soon
	// threshold or the reminder band can be skipped entirely.
	PickupWindow          time.Duration
	ExpiringSoonThreshold time.Duration
	SweepInterval         time.Duration
	GatewaySendTimeout    time.Duration

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	SendGridAPIKey   string
	SendGridFrom     string
}

func Load() *Config {
	// .env is optional; real deployments configure the environment directly.
	_ = godotenv.Load()

	return &Config{
		OrdersTable:   getEnv("ORDERS_TABLE", "pickup_orders"),
		QueueURL:      getEnv("ORDERS_QUEUE_URL", ""),
		Port:          getEnv("PORT", "8080"),
		StoreLocation: getEnv("STORE_LOCATION", "Z Smoke Shop"),
		StoreEmail:    getEnv("STORE_EMAIL", "orders@zsmokeshop.example"),

		PickupWindow:          getDuration("PICKUP_WINDOW", time.Hour),
		ExpiringSoonThreshold: getDuration("EXPIRING_SOON_THRESHOLD", 15*time.Minute),
		SweepInterval:         getDuration("SWEEP_INTERVAL", 45*time.Second),
		GatewaySendTimeout:    getDuration("GATEWAY_SEND_TIMEOUT", 10*time.Second),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		SendGridFrom:     getEnv("SENDGRID_FROM", "no-reply@zsmokeshop.example"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
