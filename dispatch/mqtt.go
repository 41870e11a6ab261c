package dispatch

import (
	"context"
	"fmt"

	"github.com/eclipse/paho.golang/paho"

	"github.com/cwbudde/algo-modal/control"
)

// DefaultCommandTopic carries actuator commands.
const DefaultCommandTopic = "tmd/actuator/command"

// Publisher is the subset of *paho.Client used for delivery.
type Publisher interface {
	Publish(ctx context.Context, p *paho.Publish) (*paho.PublishResponse, error)
}

// MQTT publishes commands to a broker topic with QoS 1.
type MQTT struct {
	client Publisher
	topic  string
}

// NewMQTT returns an MQTT dispatcher publishing on topic.
func NewMQTT(client Publisher, topic string) *MQTT {
	if topic == "" {
		topic = DefaultCommandTopic
	}
	return &MQTT{client: client, topic: topic}
}

// Dispatch publishes the formatted command.
func (m *MQTT) Dispatch(ctx context.Context, cmd control.Command) error {
	_, err := m.client.Publish(ctx, &paho.Publish{
		Topic:   m.topic,
		QoS:     1,
		Payload: FormatCommand(cmd),
	})
	if err != nil {
		return fmt.Errorf("dispatch: publish %s: %w", m.topic, err)
	}
	return nil
}
