package probe

import (
	"context"
	"math"
	"time"

	"github.com/hamed0406/livestatus/internal/transport"
)

// Timed is a successful probe: the payload and how long the call took.
type Timed[T any] struct {
	Data      T     `json:"data"`
	LatencyMS int64 `json:"latencyMs"`
}

// API probes path through the API-scoped client. Failures are *transport.HTTPError
// whose URL is the client base followed by path.
func API[T any](ctx context.Context, c *transport.Client, path string) (Timed[T], error) {
	return timed[T](ctx, c, path, c.Base+path)
}

// Root probes path through the root-scoped client. It has no meaningful prefix, so
// failures carry the bare path.
func Root[T any](ctx context.Context, c *transport.Client, path string) (Timed[T], error) {
	return timed[T](ctx, c, path, path)
}

func timed[T any](ctx context.Context, c *transport.Client, path, errURL string) (Timed[T], error) {
	start := time.Now()
	data, err := transport.Get[T](ctx, c, path)
	if err != nil {
		return Timed[T]{}, transport.Normalize(err, errURL)
	}
	return Timed[T]{Data: data, LatencyMS: sinceMS(start)}, nil
}

// sinceMS is the elapsed wall-clock time rounded to whole milliseconds.
func sinceMS(start time.Time) int64 {
	ms := math.Round(float64(time.Since(start)) / float64(time.Millisecond))
	if ms < 0 {
		return 0
	}
	return int64(ms)
}
