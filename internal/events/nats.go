package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const subjectPrefix = "snapgraph."

type NatsPublisher struct {
	nc *nats.Conn
}

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

// Connect returns a nil connection when url is empty; NATS is optional.
func Connect(url string) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := nats.Connect(url,
		nats.Name("snapgraph-api"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

func Subject(name string) string { return subjectPrefix + name }

func (p *NatsPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := encode(ctx, evt)
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "publishing event", "subject", msg.Subject)
	return p.nc.PublishMsg(msg)
}

// encode builds the NATS message and injects the current trace context into
// its headers so consumers can continue the trace.
func encode(ctx context.Context, evt Event) (*nats.Msg, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshalling error: %w", err)
	}
	msg := &nats.Msg{
		Subject: Subject(evt.Name),
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	return msg, nil
}
