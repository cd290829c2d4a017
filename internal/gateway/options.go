package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultPingInterval     = 30 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	defaultReadLimit        = 16 << 20
)

// config contains connection tuning and decode policy.
type config struct {
	logger           *slog.Logger
	dialer           *websocket.Dialer
	header           http.Header
	pingInterval     time.Duration
	handshakeTimeout time.Duration
	writeTimeout     time.Duration
	readLimit        int64
	strictDecode     bool
	onDecodeError    func(context.Context, error)
}

// Option mutates gateway connection configuration.
type Option func(*config)

// WithLogger injects the connection logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithDialer replaces the websocket dialer.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(cfg *config) {
		if dialer != nil {
			cfg.dialer = dialer
		}
	}
}

// WithHeader adds HTTP headers to the upgrade request.
func WithHeader(header http.Header) Option {
	return func(cfg *config) {
		for key, values := range header {
			for _, value := range values {
				cfg.header.Add(key, value)
			}
		}
	}
}

// WithPingInterval sets how often keepalive pings are sent after authentication.
func WithPingInterval(interval time.Duration) Option {
	return func(cfg *config) {
		if interval > 0 {
			cfg.pingInterval = interval
		}
	}
}

// WithoutKeepalive disables keepalive pings and the matching read deadline.
func WithoutKeepalive() Option {
	return func(cfg *config) {
		cfg.pingInterval = 0
	}
}

// WithHandshakeTimeout bounds the websocket upgrade.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		if timeout > 0 {
			cfg.handshakeTimeout = timeout
		}
	}
}

// WithWriteTimeout bounds every frame write.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		if timeout > 0 {
			cfg.writeTimeout = timeout
		}
	}
}

// WithStrictDecode makes Run fail on the first undecodable frame instead of
// logging and skipping it.
func WithStrictDecode() Option {
	return func(cfg *config) {
		cfg.strictDecode = true
	}
}

// WithDecodeErrorHandler observes frames skipped because they failed to decode.
func WithDecodeErrorHandler(handler func(context.Context, error)) Option {
	return func(cfg *config) {
		if handler != nil {
			cfg.onDecodeError = handler
		}
	}
}

func newConfig(options []Option) config {
	cfg := config{
		logger:           slog.Default(),
		header:           make(http.Header),
		pingInterval:     defaultPingInterval,
		handshakeTimeout: defaultHandshakeTimeout,
		writeTimeout:     defaultWriteTimeout,
		readLimit:        defaultReadLimit,
		onDecodeError:    func(context.Context, error) {},
	}
	for _, option := range options {
		option(&cfg)
	}
	if cfg.dialer == nil {
		cfg.dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.handshakeTimeout,
		}
	}

	return cfg
}
