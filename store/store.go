// Package store keeps cycle history and controller state in Redis so a
// restarted controller resumes from the last committed damper position.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cwbudde/algo-modal/control"
	"github.com/cwbudde/algo-modal/pipeline"
)

// DefaultHistory is the number of cycle summaries kept.
const DefaultHistory = 1000

// Recorder is the full persistence surface used by the CLI.
type Recorder interface {
	pipeline.Sink
	pipeline.StateStore
	Recent(ctx context.Context, n int) ([]pipeline.Summary, error)
	Close() error
}

// Option configures a Redis store.
type Option func(*Redis)

// WithPrefix namespaces every key, e.g. per bench.
func WithPrefix(prefix string) Option {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithHistory caps the history list length.
func WithHistory(n int) Option {
	return func(r *Redis) {
		if n > 0 {
			r.history = n
		}
	}
}

// WithTTL expires history and state after d of inactivity.
func WithTTL(d time.Duration) Option {
	return func(r *Redis) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// Redis implements Recorder.
type Redis struct {
	client  *redis.Client
	prefix  string
	history int
	ttl     time.Duration
}

var _ Recorder = (*Redis)(nil)

// Connect opens a client on addr and pings it.
func Connect(ctx context.Context, addr, password string, db int, opts ...Option) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		DB:         db,
		MaxRetries: 3,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: connect %s: %w", addr, err)
	}
	return New(client, opts...), nil
}

// New wraps an existing client.
func New(client *redis.Client, opts ...Option) *Redis {
	r := &Redis{client: client, prefix: "tmd", history: DefaultHistory}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Redis) historyKey() string { return r.prefix + ":history" }
func (r *Redis) stateKey() string   { return r.prefix + ":state" }

// Record prepends the outcome summary to the history list and trims it.
func (r *Redis) Record(ctx context.Context, o pipeline.Outcome) error {
	data, err := json.Marshal(o.Summary())
	if err != nil {
		return fmt.Errorf("store: marshal outcome: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.historyKey(), data)
	pipe.LTrim(ctx, r.historyKey(), 0, int64(r.history-1))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.historyKey(), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store: record cycle %d: %w", o.Cycle, err)
	}
	return nil
}

// Recent returns up to n summaries, newest first.
func (r *Redis) Recent(ctx context.Context, n int) ([]pipeline.Summary, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := r.client.LRange(ctx, r.historyKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}
	out := make([]pipeline.Summary, 0, len(raw))
	for _, item := range raw {
		var s pipeline.Summary
		if err := json.Unmarshal([]byte(item), &s); err != nil {
			return nil, fmt.Errorf("store: decode history: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

type stateRecord struct {
	StartNorm float64   `json:"start_norm"`
	Steps     int       `json:"steps"`
	Saved     time.Time `json:"saved"`
}

// SaveState stores the committed controller state.
func (r *Redis) SaveState(ctx context.Context, s control.State) error {
	data, err := json.Marshal(stateRecord{StartNorm: s.StartNorm, Steps: s.Steps, Saved: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("store: marshal state: %w", err)
	}
	if err := r.client.Set(ctx, r.stateKey(), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("store: save state: %w", err)
	}
	return nil
}

// LoadState returns the last saved state; ok is false if none exists.
func (r *Redis) LoadState(ctx context.Context) (control.State, bool, error) {
	data, err := r.client.Get(ctx, r.stateKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return control.State{}, false, nil
	}
	if err != nil {
		return control.State{}, false, fmt.Errorf("store: load state: %w", err)
	}
	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return control.State{}, false, fmt.Errorf("store: decode state: %w", err)
	}
	return control.State{StartNorm: rec.StartNorm, Steps: rec.Steps}, true, nil
}

// ClearState removes the saved controller state.
func (r *Redis) ClearState(ctx context.Context) error {
	return r.client.Del(ctx, r.stateKey()).Err()
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
