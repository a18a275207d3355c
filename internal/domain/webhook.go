package domain

import "time"

// WebhookEvent is a verified webhook delivery from Shopify
type WebhookEvent struct {
	Topic      string
	Shop       string
	WebhookID  string
	Payload    []byte
	ReceivedAt time.Time
}
