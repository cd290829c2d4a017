// Package gateway implements the realtime websocket transport: it dials the
// event endpoint, authenticates, keeps the connection alive, and delivers
// decoded inbound events to a handler in arrival order.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"ex-revolt/internal/safe"
	"ex-revolt/pkg/revolt"
)

var (
	// ErrNotAuthenticated indicates a send attempted before Authenticate.
	ErrNotAuthenticated = errors.New("gateway: connection not authenticated")
	// ErrAlreadyAuthenticated indicates a second Authenticate on one connection.
	ErrAlreadyAuthenticated = errors.New("gateway: connection already authenticated")
	// ErrAuthViaSend indicates an authentication event passed to Send.
	ErrAuthViaSend = errors.New("gateway: authentication must use Authenticate")
	// ErrClosed indicates use of a closed connection.
	ErrClosed = errors.New("gateway: connection closed")
)

// Handler consumes one decoded inbound event.
//
// Handlers run on the read loop; a slow handler delays every later event.
type Handler func(ctx context.Context, event revolt.InboundEvent) error

// Conn is one authenticated-or-pending gateway connection.
type Conn struct {
	cfg config
	ws  *websocket.Conn

	writeMu       sync.Mutex
	closeOnce     sync.Once
	closed        atomic.Bool
	authenticated atomic.Bool
	running       atomic.Bool

	pingMu   sync.Mutex
	nextPing uint32
	pending  map[uint32]time.Time
	latency  atomic.Int64
}

// Dial opens a websocket connection to rawURL.
func Dial(ctx context.Context, rawURL string, options ...Option) (*Conn, error) {
	cfg := newConfig(options)

	ws, resp, err := cfg.dialer.DialContext(ctx, rawURL, cfg.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial gateway %s: status %d: %w", rawURL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial gateway %s: %w", rawURL, err)
	}
	ws.SetReadLimit(cfg.readLimit)

	cfg.logger.Debug("gateway connected", "url", rawURL)

	return &Conn{
		cfg:     cfg,
		ws:      ws,
		pending: make(map[uint32]time.Time),
	}, nil
}

// Authenticate sends the authentication message. It must be the first message
// on the connection and may be sent once.
func (c *Conn) Authenticate(ctx context.Context, auth revolt.AuthEvent) error {
	if auth == nil {
		return fmt.Errorf("gateway authenticate: %w", revolt.ErrNilEvent)
	}
	if !c.authenticated.CompareAndSwap(false, true) {
		return ErrAlreadyAuthenticated
	}
	if err := c.write(ctx, auth); err != nil {
		c.authenticated.Store(false)
		return fmt.Errorf("gateway authenticate: %w", err)
	}

	return nil
}

// Send writes one non-authentication outbound event.
func (c *Conn) Send(ctx context.Context, event revolt.OutboundEvent) error {
	if event == nil {
		return fmt.Errorf("gateway send: %w", revolt.ErrNilEvent)
	}
	if _, ok := event.(revolt.AuthEvent); ok {
		return ErrAuthViaSend
	}
	if !c.authenticated.Load() {
		return ErrNotAuthenticated
	}
	if err := c.write(ctx, event); err != nil {
		return fmt.Errorf("gateway send %s: %w", event.Type(), err)
	}

	return nil
}

// Ping sends one keepalive carrying a correlation time.
func (c *Conn) Ping(ctx context.Context) error {
	if !c.authenticated.Load() {
		return ErrNotAuthenticated
	}

	c.pingMu.Lock()
	c.nextPing++
	stamp := c.nextPing
	c.pending[stamp] = time.Now()
	c.pingMu.Unlock()

	if err := c.write(ctx, revolt.Ping{Time: stamp}); err != nil {
		c.pingMu.Lock()
		delete(c.pending, stamp)
		c.pingMu.Unlock()
		return fmt.Errorf("gateway ping: %w", err)
	}

	return nil
}

// Latency returns the round trip of the most recent answered ping, or zero.
func (c *Conn) Latency() time.Duration {
	return time.Duration(c.latency.Load())
}

// Run reads frames until ctx ends, the peer closes, or handler fails.
//
// Events reach handler in arrival order. Undecodable frames are logged and
// skipped unless WithStrictDecode is set. Run closes the connection on return,
// and returns nil for cancellation and normal closure.
func (c *Conn) Run(ctx context.Context, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("gateway run: nil handler")
	}
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.running.CompareAndSwap(false, true) {
		return fmt.Errorf("gateway run: already running")
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-runCtx.Done()
		_ = c.Close()
	}()

	if c.cfg.pingInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.keepalive(runCtx)
		}()
	}

	for {
		if c.cfg.pingInterval > 0 {
			_ = c.ws.SetReadDeadline(time.Now().Add(3 * c.cfg.pingInterval))
		}
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.cfg.logger.Debug("gateway closed by peer", "error", err)
				return nil
			}
			if c.closed.Load() {
				return ErrClosed
			}
			return fmt.Errorf("gateway read: %w", err)
		}

		event, err := revolt.DecodeInbound(data)
		if err != nil {
			if c.cfg.strictDecode {
				return fmt.Errorf("gateway run: %w", err)
			}
			c.cfg.logger.Warn("gateway skipped undecodable frame",
				"error", err,
				"size", len(data),
			)
			c.cfg.onDecodeError(runCtx, err)
			continue
		}

		if pong, ok := event.(revolt.PongEvent); ok {
			c.observePong(pong)
		}

		err = safe.Call("handle "+string(event.Type()), func() error {
			return handler(runCtx, event)
		})
		if err != nil {
			return fmt.Errorf("gateway run: %w", err)
		}
	}
}

// Close sends a close frame and releases the socket. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		c.writeMu.Lock()
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.writeTimeout))
		_ = c.ws.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		c.writeMu.Unlock()

		err = c.ws.Close()
	})

	return err
}

func (c *Conn) write(ctx context.Context, event revolt.OutboundEvent) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := revolt.EncodeOutbound(event)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(c.cfg.writeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}

	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Conn) keepalive(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.authenticated.Load() {
				continue
			}
			if err := c.Ping(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				c.cfg.logger.Warn("gateway keepalive failed", "error", err)
				return
			}
		}
	}
}

func (c *Conn) observePong(pong revolt.PongEvent) {
	c.pingMu.Lock()
	sentAt, ok := c.pending[pong.Time]
	if ok {
		delete(c.pending, pong.Time)
	}
	c.pingMu.Unlock()

	if !ok {
		return
	}
	c.latency.Store(int64(time.Since(sentAt)))
}

