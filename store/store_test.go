package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-modal/control"
	"github.com/cwbudde/algo-modal/pipeline"
)

func newTestStore(t *testing.T, opts ...Option) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := Connect(context.Background(), mr.Addr(), "", 0, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRecordAndRecent(t *testing.T) {
	r, _ := newTestStore(t, WithHistory(2))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		o := pipeline.Outcome{
			RunID:   "run",
			Cycle:   i,
			Command: control.Command{Degrees: float64(i) * 10},
		}
		require.NoError(t, r.Record(ctx, o))
	}

	got, err := r.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 3, got[0].Cycle)
	require.Equal(t, 2, got[1].Cycle)
	require.Equal(t, 30.0, got[0].DeltaDeg)

	none, err := r.Recent(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestStateRoundTrip(t *testing.T) {
	r, _ := newTestStore(t, WithPrefix("bench2"))
	ctx := context.Background()

	_, ok, err := r.LoadState(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, r.SaveState(ctx, control.State{StartNorm: 0.504, Steps: 12}))
	s, ok, err := r.LoadState(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, control.State{StartNorm: 0.504, Steps: 12}, s)

	require.NoError(t, r.ClearState(ctx))
	_, ok, err = r.LoadState(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKeysArePrefixed(t *testing.T) {
	r, mr := newTestStore(t, WithPrefix("lab"))
	ctx := context.Background()

	require.NoError(t, r.SaveState(ctx, control.NewState(0.5)))
	require.NoError(t, r.Record(ctx, pipeline.Outcome{Cycle: 1}))
	require.True(t, mr.Exists("lab:state"))
	require.True(t, mr.Exists("lab:history"))
}

func TestTTL(t *testing.T) {
	r, mr := newTestStore(t, WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, r.SaveState(ctx, control.NewState(0.5)))
	require.NoError(t, r.Record(ctx, pipeline.Outcome{Cycle: 1}))
	require.Equal(t, time.Minute, mr.TTL("tmd:state"))
	require.Equal(t, time.Minute, mr.TTL("tmd:history"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := r.LoadState(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCorruptState(t *testing.T) {
	r, mr := newTestStore(t)
	require.NoError(t, mr.Set("tmd:state", "{not json"))
	_, _, err := r.LoadState(context.Background())
	require.Error(t, err)
}

func TestConnectUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Connect(ctx, addr, "", 0)
	require.Error(t, err)
}

func TestNewWrapsClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := New(client)
	defer r.Close()

	require.NoError(t, r.SaveState(context.Background(), control.NewState(0.3)))
	s, ok, err := r.LoadState(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0.3, s.StartNorm)
}
