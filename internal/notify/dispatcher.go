package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/agrolink/backend/internal/kafka"
)

// Dispatcher is the "notify subjects" sink of the order engine. Delivery
// is someone else's problem; a failed dispatch must never fail or roll
// back the business operation it follows.
type Dispatcher interface {
	NotifyOne(ctx context.Context, userID string, ev Event) error
	NotifyMany(ctx context.Context, userIDs []string, ev Event) error
}

// KafkaDispatcher publishes notification requests through the async
// producer inbox; the notifier service consumes and persists them.
type KafkaDispatcher struct {
	Producer *kafkax.Producer
	Service  string
}

func (d *KafkaDispatcher) NotifyOne(ctx context.Context, userID string, ev Event) error {
	return d.publish([]string{userID}, ev)
}

func (d *KafkaDispatcher) NotifyMany(ctx context.Context, userIDs []string, ev Event) error {
	if len(userIDs) == 0 {
		return nil
	}
	return d.publish(userIDs, ev)
}

func (d *KafkaDispatcher) publish(userIDs []string, ev Event) error {
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventNotificationRequested,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      d.Service,
		CorrelationID: ev.ReferenceID,
		Payload:       kafkax.MustMarshal(RequestedPayload{UserIDs: userIDs, Event: ev}),
	}
	d.Producer.Publish(PartitionKey(ev.ReferenceID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventNotificationRequested)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}
