package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eclipse/paho.golang/paho"

	"github.com/cwbudde/algo-modal/dispatch"
	"github.com/cwbudde/algo-modal/pipeline"
)

// DefaultOutcomeTopic carries per-cycle outcome summaries.
const DefaultOutcomeTopic = "tmd/outcome"

// Publisher implements pipeline.Sink by publishing a JSON summary of every
// cycle.
type Publisher struct {
	client dispatch.Publisher
	topic  string
}

// NewPublisher returns a Publisher on topic.
func NewPublisher(client dispatch.Publisher, topic string) *Publisher {
	if topic == "" {
		topic = DefaultOutcomeTopic
	}
	return &Publisher{client: client, topic: topic}
}

// Record publishes o with QoS 0.
func (p *Publisher) Record(ctx context.Context, o pipeline.Outcome) error {
	payload, err := json.Marshal(o.Summary())
	if err != nil {
		return fmt.Errorf("telemetry: marshal outcome: %w", err)
	}
	_, err = p.client.Publish(ctx, &paho.Publish{
		Topic:   p.topic,
		QoS:     0,
		Payload: payload,
		Properties: &paho.PublishProperties{
			ContentType: "application/json",
		},
	})
	if err != nil {
		return fmt.Errorf("telemetry: publish %s: %w", p.topic, err)
	}
	return nil
}
