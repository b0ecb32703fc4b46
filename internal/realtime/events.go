package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventChannel is the Redis pub/sub channel mirroring dashboard events, so
// instances other than the one that handled the request can relay them.
const EventChannel = "events:admin"

// Event is the envelope every dashboard socket message uses. Origin
// identifies the instance that produced the event; the relay uses it to skip
// events it already delivered locally.
type Event struct {
	Type   string      `json:"type"`
	Data   interface{} `json:"data"`
	At     time.Time   `json:"at"`
	Origin string      `json:"origin,omitempty"`
}

// Broadcaster pushes marketplace events to local dashboard sockets and
// mirrors them onto Redis. A nil Hub or RDB disables that leg.
type Broadcaster struct {
	Hub      *Hub
	RDB      *redis.Client
	instance string
}

func NewBroadcaster(hub *Hub, rdb *redis.Client) *Broadcaster {
	return &Broadcaster{Hub: hub, RDB: rdb, instance: uuid.NewString()}
}

// Publish never fails the request that triggered the event. Delivery is best
// effort.
func (b *Broadcaster) Publish(eventType string, data interface{}) {
	if b == nil {
		return
	}
	evt := Event{Type: eventType, Data: data, At: time.Now().UTC(), Origin: b.instance}

	if b.Hub != nil {
		b.Hub.BroadcastJSON(evt)
	}

	if b.RDB != nil {
		payload, err := json.Marshal(evt)
		if err != nil {
			log.Printf("realtime: failed to marshal event %s: %v", eventType, err)
			return
		}
		if err := b.RDB.Publish(context.Background(), EventChannel, payload).Err(); err != nil {
			log.Printf("realtime: failed to publish event %s: %v", eventType, err)
		}
	}
}

// RelayFromRedis subscribes to the event channel and rebroadcasts events
// published by other instances to this instance's sockets.
func (b *Broadcaster) RelayFromRedis(ctx context.Context) {
	if b.RDB == nil || b.Hub == nil {
		return
	}
	sub := b.RDB.Subscribe(ctx, EventChannel)
	defer sub.Close()

	for msg := range sub.Channel() {
		var evt Event
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			continue
		}
		if evt.Origin == b.instance {
			continue
		}
		b.Hub.BroadcastJSON(evt)
	}
}
