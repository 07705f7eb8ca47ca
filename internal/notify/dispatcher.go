package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/momtazchem/commerce-backend/pkg/enums"
)

const defaultPublishTimeout = 15 * time.Second

// Event is the payload handed to the delivery worker. The engine only
// records and publishes; rendering into email/SMS happens downstream.
type Event struct {
	NotificationID uuid.UUID                 `json:"notification_id"`
	CustomerID     uuid.UUID                 `json:"customer_id"`
	Recipient      string                    `json:"recipient"`
	Type           enums.NotificationType    `json:"type"`
	Channel        enums.NotificationChannel `json:"channel"`
	Title          string                    `json:"title"`
	Message        string                    `json:"message"`
	OrderNumber    string                    `json:"order_number,omitempty"`
}

// Dispatcher hands a notification event to the delivery pipeline.
type Dispatcher interface {
	Send(ctx context.Context, event Event) error
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) *gcppubsub.PublishResult
}

type pubsubDispatcher struct {
	pub publisher
}

// NewPubSubDispatcher wraps a Pub/Sub publisher as a Dispatcher.
func NewPubSubDispatcher(pub *gcppubsub.Publisher) Dispatcher {
	return &pubsubDispatcher{pub: pub}
}

func (d *pubsubDispatcher) Send(ctx context.Context, event Event) error {
	if d == nil || d.pub == nil {
		return fmt.Errorf("notification publisher not configured")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding notification event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := d.pub.Publish(publishCtx, &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":        event.Type.String(),
			"channel":     event.Channel.String(),
			"customer_id": event.CustomerID.String(),
		},
	})
	if result == nil {
		return fmt.Errorf("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publishing notification event: %w", err)
	}
	return nil
}
