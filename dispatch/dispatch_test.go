package dispatch

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-modal/control"
)

func TestFormatCommand(t *testing.T) {
	cases := map[float64]string{
		278.836:  "278.84\n",
		-39.27:   "-39.27\n",
		0:        "0.00\n",
		1234.005: "1234.00\n",
	}
	for deg, want := range cases {
		require.Equal(t, want, string(FormatCommand(control.Command{Degrees: deg})))
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	d := NewWriter(&buf)
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, control.Command{Degrees: 10}))
	require.NoError(t, d.Dispatch(ctx, control.Command{Degrees: -2.5}))
	require.Equal(t, "10.00\n-2.50\n", buf.String())
}

func TestWriterCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewWriter(&buf).Dispatch(ctx, control.Command{Degrees: 1})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, buf.Len())
}

type failing struct{ err error }

func (f failing) Dispatch(context.Context, control.Command) error { return f.err }

func TestMultiTriesAll(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	m := Multi{failing{boom}, NewWriter(&buf), Discard{}}

	err := m.Dispatch(context.Background(), control.Command{Degrees: 3})
	require.ErrorIs(t, err, boom)
	require.Equal(t, "3.00\n", buf.String())
}
