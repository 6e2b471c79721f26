package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
)

// ErrClosed is reported by Err when the channel was shut down locally rather
// than by the transport.
var ErrClosed = errors.New("channel closed")

// streaming connections stay open indefinitely, so no client-level timeout
var streamHTTP = &http.Client{}

// Channel is one live subscription to one (log key, kind) pair. Events arrive
// in server-send order on Events; the channel owns its connection and closes
// it exactly once. A transport failure ends the event stream and does not
// reconnect; the viewer must Open a fresh channel to resume.
type Channel struct {
	identity Identity
	events   chan Event
	cancel   context.CancelFunc
	body     io.ReadCloser

	closeOnce sync.Once
	active    atomic.Bool

	mu  sync.Mutex
	err error
}

// Open subscribes to the identity's push stream on the daemon at baseURL.
func Open(ctx context.Context, baseURL string, id Identity) (*Channel, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse stream base url: %w", err)
	}
	values := url.Values{}
	values.Set("log_key", id.LogKey)
	values.Set("kind", string(id.Kind))
	rel := &url.URL{Path: "/api/stream_log", RawQuery: values.Encode()}
	streamURL := base.ResolveReference(rel)

	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, streamURL.String(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := streamHTTP.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("stream %s returned status %d", id, resp.StatusCode)
	}

	c := &Channel{
		identity: id,
		events:   make(chan Event, 16),
		cancel:   cancel,
		body:     resp.Body,
	}
	c.active.Store(true)
	go c.readLoop(streamCtx)
	return c, nil
}

// Identity returns the pair the channel was opened on.
func (c *Channel) Identity() Identity { return c.identity }

// Events delivers wire messages in arrival order. The channel is closed when
// the subscription ends, either by Close or by a transport failure.
func (c *Channel) Events() <-chan Event { return c.events }

// Active reports whether the subscription is still live.
func (c *Channel) Active() bool { return c.active.Load() }

// Err returns why the event stream ended: ErrClosed after a local Close, the
// transport error otherwise, nil while still active.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close releases the connection. Safe to call more than once; any event read
// from the wire but not yet delivered is dropped.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.setErr(ErrClosed)
		c.active.Store(false)
		c.cancel()
		_ = c.body.Close()
	})
	return nil
}

func (c *Channel) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

func (c *Channel) readLoop(ctx context.Context) {
	defer close(c.events)
	dec := NewDecoder(c.body)
	for {
		ev, err := dec.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.setErr(err)
			} else {
				c.setErr(io.EOF)
			}
			c.active.Store(false)
			return
		}
		select {
		case c.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
