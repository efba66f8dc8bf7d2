// Package stream pushes live updates (like counts, new followers, new posts)
// to websocket subscribers. Each process delivers to its own clients and
// relays through Redis pub/sub so subscribers on other instances see the
// same updates.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"backend-snapgraph/internal/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisPrefix = "stream:"

type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	origin  string
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	Channel string
	Send    chan []byte
}

type relayMessage struct {
	Origin  string `json:"origin"`
	Channel string `json:"channel"`
	Data    []byte `json:"data"`
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		origin:  uuid.NewString(),
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		h.pubsub = redisClient.PSubscribe(context.Background(), redisPrefix+"*")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if _, err := h.pubsub.Receive(ctx); err != nil {
			slog.Warn("stream relay subscription not confirmed", "error", err)
		}
		cancel()
		go h.relay(h.pubsub.Channel())
	}
	return h
}

func (h *Hub) Register(channel string) *Client {
	client := &Client{
		Channel: channel,
		Send:    make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[channel] == nil {
		h.clients[channel] = map[*Client]struct{}{}
	}
	h.clients[channel][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if channelClients, ok := h.clients[client.Channel]; ok {
		delete(channelClients, client)
		if len(channelClients) == 0 {
			delete(h.clients, client.Channel)
		}
	}
	close(client.Send)
}

// Broadcast delivers payload to local subscribers of channel and relays it to
// the other instances.
func (h *Hub) Broadcast(channel string, payload []byte) {
	h.deliver(channel, payload)

	if h.redis != nil {
		msg, _ := json.Marshal(relayMessage{Origin: h.origin, Channel: channel, Data: payload})
		if err := h.redis.Publish(context.Background(), redisChannel(channel), msg).Err(); err != nil {
			slog.Warn("redis publish error", "channel", channel, "error", err)
		}
	}
}

// Publish lets the hub sit behind events.Publisher.
func (h *Hub) Publish(_ context.Context, evt events.Event) error {
	if evt.Channel == "" {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	h.Broadcast(evt.Channel, payload)
	return nil
}

func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	return h.pubsub.Close()
}

func (h *Hub) deliver(channel string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// Slow clients drop messages instead of blocking the publisher.
	for client := range h.clients[channel] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) relay(msgs <-chan *redis.Message) {
	for msg := range msgs {
		var m relayMessage
		if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
			slog.Warn("dropping malformed relay message", "redis_channel", msg.Channel, "error", err)
			continue
		}
		if m.Origin == h.origin {
			continue
		}
		if m.Channel == "" {
			m.Channel = channelFromRedis(msg.Channel)
		}
		h.deliver(m.Channel, m.Data)
	}
}

func redisChannel(channel string) string {
	return redisPrefix + channel
}

func channelFromRedis(ch string) string {
	if !strings.HasPrefix(ch, redisPrefix) {
		return ""
	}
	return strings.TrimPrefix(ch, redisPrefix)
}
