package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Message is one observation pushed by a feed.
type Message struct {
	Series string  `json:"series"`
	Value  float64 `json:"value"`
}

// Sink receives observations. Update must be safe to call from the feed's
// reader goroutine; pipeline graphs on a real-time scheduler are.
type Sink interface {
	Update(series string, value float64) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(series string, value float64) error

// Update calls f.
func (f SinkFunc) Update(series string, value float64) error { return f(series, value) }

// Client reads one WebSocket feed into a Sink.
type Client struct {
	url     string
	sink    Sink
	header  http.Header
	dialer  *websocket.Dialer
	logger  *slog.Logger
	metrics *Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records message outcomes in m.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithHeader sends h with the handshake request.
func WithHeader(h http.Header) ClientOption {
	return func(c *Client) { c.header = h }
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *Client) { c.dialer = d }
}

// NewClient creates a client for the feed at url ("ws://" or "wss://").
func NewClient(url string, sink Sink, opts ...ClientOption) *Client {
	c := &Client{
		url:    url,
		sink:   sink,
		dialer: websocket.DefaultDialer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run dials the feed and delivers messages until the server closes the
// connection or ctx is cancelled.
//
// Returns nil on a normal close, ctx.Err() on cancellation, and the dial
// or read error otherwise.
func (c *Client) Run(ctx context.Context) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", c.url, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	defer conn.Close()

	c.logger.Info("feed connected", "url", c.url)

	// Unblock ReadMessage when ctx ends.
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, io.EOF) {
				c.logger.Info("feed closed", "url", c.url)
				return nil
			}
			return fmt.Errorf("read %s: %w", c.url, err)
		}
		c.deliver(data)
	}
}

// deliver decodes and forwards one message. Failures are logged, never
// returned: a bad message must not take the feed down.
func (c *Client) deliver(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.metrics.message(resultMalformed)
		c.logger.Warn("feed message malformed", "error", err)
		return
	}
	if msg.Series == "" {
		c.metrics.message(resultMalformed)
		c.logger.Warn("feed message has no series")
		return
	}

	if err := c.sink.Update(msg.Series, msg.Value); err != nil {
		c.metrics.message(resultRejected)
		c.logger.Warn("feed message rejected",
			"series", msg.Series,
			"value", msg.Value,
			"error", err,
		)
		return
	}
	c.metrics.message(resultAccepted)
	c.logger.Debug("feed message", "series", msg.Series, "value", msg.Value)
}
