// Package mqttconn dials an MQTT v5 broker and returns a connected paho
// client.
package mqttconn

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/eclipse/paho.golang/paho"
)

// DefaultKeepAlive is the keep-alive interval in seconds.
const DefaultKeepAlive = 30

// Dial connects to server ("tcp://host:port" or "host:port") as clientID.
func Dial(ctx context.Context, server, clientID string) (*paho.Client, error) {
	addr, err := address(server)
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("mqttconn: dial %s: %w", addr, err)
	}

	client := paho.NewClient(paho.ClientConfig{
		ClientID: clientID,
		Conn:     conn,
	})
	ack, err := client.Connect(ctx, &paho.Connect{
		ClientID:   clientID,
		KeepAlive:  DefaultKeepAlive,
		CleanStart: true,
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("mqttconn: connect %s: %w", addr, err)
	}
	if ack.ReasonCode >= 0x80 {
		_ = conn.Close()
		return nil, fmt.Errorf("mqttconn: connect %s: reason code %d", addr, ack.ReasonCode)
	}
	return client, nil
}

// Close sends DISCONNECT.
func Close(client *paho.Client) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(&paho.Disconnect{ReasonCode: 0})
}

func address(server string) (string, error) {
	if server == "" {
		return "", fmt.Errorf("mqttconn: empty server address")
	}
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		// Plain host:port.
		return server, nil
	}
	switch u.Scheme {
	case "tcp", "mqtt":
		return u.Host, nil
	default:
		return "", fmt.Errorf("mqttconn: unsupported scheme %q", u.Scheme)
	}
}
