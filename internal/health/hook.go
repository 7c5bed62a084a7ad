// Package health holds the display-facing lifecycle of a single probe: a hook that
// runs one attempt per mount (or per probe identity) and commits its outcome only
// while the attempt is still current.
package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/livestatus/internal/probe"
	"github.com/hamed0406/livestatus/internal/transport"
)

// Fetch performs one timed probe.
type Fetch[T any] func(ctx context.Context) (probe.Timed[T], error)

// Probe is what a Hook tracks. Identity is the pointer: handing the hook a different
// *Probe restarts it even if both wrap the same Fetch.
type Probe[T any] struct {
	Name  string
	Fetch Fetch[T]
}

func NewProbe[T any](name string, fn Fetch[T]) *Probe[T] {
	return &Probe[T]{Name: name, Fetch: fn}
}

// State is the value a view renders.
//
//	Loading        => !OK, Data and Error empty
//	OK             => Error empty, Data and LatencyMS set
//	!OK && !Loading => Error set
type State[T any] struct {
	Loading   bool                 `json:"loading"`
	OK        bool                 `json:"ok"`
	LatencyMS *int64               `json:"latencyMs,omitempty"`
	Data      *T                   `json:"data,omitempty"`
	Error     string               `json:"error,omitempty"`
	Failure   *transport.HTTPError `json:"failure,omitempty"`
}

// Pending is the state of a hook whose attempt has not resolved yet.
func Pending[T any]() State[T] { return State[T]{Loading: true} }

// token belongs to exactly one attempt. cancelled is guarded by Hook.mu.
type token struct {
	cancelled bool
	done      chan struct{}
}

type Hook[T any] struct {
	log *zap.Logger

	mu       sync.Mutex
	state    State[T]
	probe    *Probe[T]
	current  *token
	onChange func(State[T])
}

func New[T any](log *zap.Logger) *Hook[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hook[T]{log: log, state: Pending[T]()}
}

// OnChange registers fn to receive every state the hook takes, in order. fn runs with
// the hook locked and must not call back into it.
func (h *Hook[T]) OnChange(fn func(State[T])) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

// Use mounts the hook on p. A fresh mount or a new identity resets the state to
// Pending and starts exactly one attempt; the same identity is a no-op.
//
// A superseded attempt keeps running on ctx; only its outcome is dropped.
func (h *Hook[T]) Use(ctx context.Context, p *Probe[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil && !h.current.cancelled && h.probe == p {
		return
	}
	if h.current != nil {
		h.current.cancelled = true
	}

	tok := &token{done: make(chan struct{})}
	h.current = tok
	h.probe = p
	h.set(Pending[T]())

	go h.run(ctx, p, tok)
}

// Unmount tears the hook down. The in-flight attempt, if any, can no longer commit.
func (h *Hook[T]) Unmount() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current != nil {
		h.current.cancelled = true
	}
	h.probe = nil
}

// State returns a snapshot of the current state.
func (h *Hook[T]) State() State[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Settled is closed once the current attempt has resolved, whether its outcome was
// committed or dropped. Before the first Use it is already closed.
func (h *Hook[T]) Settled() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return h.current.done
}

// Wait blocks until the current attempt settles or ctx ends, then returns the state.
func (h *Hook[T]) Wait(ctx context.Context) (State[T], error) {
	select {
	case <-h.Settled():
		return h.State(), nil
	case <-ctx.Done():
		return h.State(), ctx.Err()
	}
}

func (h *Hook[T]) run(ctx context.Context, p *Probe[T], tok *token) {
	res, err := h.fetch(ctx, p)

	h.mu.Lock()
	defer h.mu.Unlock()
	defer close(tok.done)

	name := probeName(p)
	if tok.cancelled || h.current != tok {
		h.log.Debug("probe_discarded", zap.String("probe", name), zap.Bool("failed", err != nil))
		return
	}

	if err != nil {
		he := transport.Normalize(err, name)
		h.set(State[T]{Error: FormatError(he), Failure: he})
		h.log.Info("probe_committed",
			zap.String("probe", name),
			zap.Bool("ok", false),
			zap.Int("status", he.Status),
			zap.String("error", he.Message),
		)
		return
	}

	latency, data := res.LatencyMS, res.Data
	h.set(State[T]{OK: true, LatencyMS: &latency, Data: &data})
	h.log.Info("probe_committed",
		zap.String("probe", name),
		zap.Bool("ok", true),
		zap.Int64("latency_ms", latency),
	)
}

// fetch runs the probe and turns a panic into an ordinary failure.
func (h *Hook[T]) fetch(ctx context.Context, p *Probe[T]) (res probe.Timed[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &transport.UnexpectedError{Value: r}
		}
	}()
	if p == nil || p.Fetch == nil {
		return res, errors.New("health: probe has no fetch function")
	}
	return p.Fetch(ctx)
}

// set must be called with h.mu held.
func (h *Hook[T]) set(s State[T]) {
	h.state = s
	if h.onChange != nil {
		h.onChange(s)
	}
}

func probeName[T any](p *Probe[T]) string {
	if p == nil {
		return ""
	}
	return p.Name
}

// FormatError renders a failure as one readable line: the message, the status in
// parentheses, then content type and body preview each set off by an em dash.
// Missing segments are left out.
func FormatError(err error) string {
	var he *transport.HTTPError
	if errors.As(err, &he) {
		parts := make([]string, 0, 4)
		if he.Message != "" {
			parts = append(parts, he.Message)
		}
		if he.Status != 0 {
			parts = append(parts, fmt.Sprintf("(%d)", he.Status))
		}
		if he.ContentType != "" {
			parts = append(parts, "— "+he.ContentType)
		}
		if he.BodyPreview != "" {
			parts = append(parts, "— "+he.BodyPreview)
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return "Unknown error"
}
