package mqttconn

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-modal/internal/testutil"
)

func TestAddress(t *testing.T) {
	for in, want := range map[string]string{
		"tcp://broker:1883":    "broker:1883",
		"mqtt://10.0.0.1:1883": "10.0.0.1:1883",
		"localhost:1883":       "localhost:1883",
	} {
		got, err := address(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := address("")
	require.Error(t, err)
	_, err = address("ws://broker:80")
	require.Error(t, err)
}

func TestDialAndClose(t *testing.T) {
	addr := testutil.StartBroker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, "tcp://"+addr, "mqttconn-test")
	require.NoError(t, err)
	require.NoError(t, Close(client))
}

func TestDialUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Dial(ctx, fmt.Sprintf("127.0.0.1:%d", freePort(t)), "nobody")
	require.Error(t, err)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}
