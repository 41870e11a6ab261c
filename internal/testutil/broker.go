package testutil

import (
	"fmt"
	"net"
	"testing"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/require"
)

// StartBroker spins up an in-process MQTT broker on a free local port for
// the duration of t and returns its address.
func StartBroker(t testing.TB) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	broker := mochi.New(nil)
	require.NoError(t, broker.AddHook(&auth.AllowHook{}, nil))
	require.NoError(t, broker.AddListener(listeners.NewTCP(listeners.Config{
		ID:      "t1",
		Type:    "tcp",
		Address: addr,
	})))
	require.NoError(t, broker.Serve())
	t.Cleanup(func() { _ = broker.Close() })
	return addr
}
