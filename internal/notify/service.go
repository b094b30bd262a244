package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/agrolink/backend/internal/kafka"
	"github.com/agrolink/backend/internal/redisx"
)

// Service consumes notification requests off the bus and persists them.
type Service struct {
	Repo        *Repo
	Redis       *redis.Client
	ServiceName string
}

// HandleNotifyRequested is wired as the consumer handler.
func (s *Service) HandleNotifyRequested(ctx context.Context, m kafkago.Message) error {
	var env Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != EventNotificationRequested {
		return nil
	}

	// dedup by event id across redeliveries
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[RequestedPayload](env.Payload)
	if err != nil {
		return err
	}
	n, err := s.Repo.Create(ctx, p.Event, p.UserIDs)
	if err != nil {
		return err
	}

	for _, uid := range p.UserIDs {
		_ = s.Redis.Incr(ctx, fmt.Sprintf(redisx.KeyUnreadCount, uid)).Err()
	}
	log.Printf("notification %s stored for %d user(s)", n.ID, len(p.UserIDs))
	return nil
}
