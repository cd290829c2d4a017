// Package rest implements the HTTP fetch collaborator used by the resolver and
// the message send endpoint.
package rest

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"ex-revolt/pkg/revolt"
)

const (
	defaultTimeout     = 30 * time.Second
	maxErrorBodyLength = 4096

	headerBotToken     = "x-bot-token"
	headerUserID       = "x-user-id"
	headerSessionToken = "x-session-token"
)

// ErrNoCredentials indicates a client was built without bot or session credentials.
var ErrNoCredentials = errors.New("rest: no credentials configured")

// Credentials selects how requests authenticate.
//
// Exactly one of BotToken or the UserID and SessionToken pair must be set.
type Credentials struct {
	BotToken     string
	UserID       revolt.UserID
	SessionToken string
}

// Validate checks that exactly one credential shape is configured.
func (c Credentials) Validate() error {
	session := c.UserID != "" || c.SessionToken != ""
	switch {
	case c.BotToken != "" && session:
		return fmt.Errorf("rest credentials: bot token and session are mutually exclusive")
	case c.BotToken != "":
		return nil
	case c.UserID != "" && c.SessionToken != "":
		return nil
	case session:
		return fmt.Errorf("rest credentials: session requires user id and session token")
	default:
		return ErrNoCredentials
	}
}

// AuthEvent returns the gateway authentication message matching the credentials.
func (c Credentials) AuthEvent() revolt.AuthEvent {
	if c.BotToken != "" {
		return revolt.AuthenticateBot{Token: c.BotToken}
	}

	return revolt.Authenticate{UserID: c.UserID, SessionToken: c.SessionToken}
}

func (c Credentials) apply(header http.Header) {
	if c.BotToken != "" {
		header.Set(headerBotToken, c.BotToken)
		return
	}
	header.Set(headerUserID, string(c.UserID))
	header.Set(headerSessionToken, c.SessionToken)
}

// APIError reports a non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Type is the server's error discriminator when the body carried one.
	Type string
	Body string
}

// Error returns a readable API failure.
func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Type != "" {
		return fmt.Sprintf("rest: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Type)
	}

	return fmt.Sprintf("rest: %s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// NotFound reports whether the server answered 404.
func (e *APIError) NotFound() bool {
	return e != nil && e.StatusCode == http.StatusNotFound
}

// Option mutates client configuration.
type Option func(*Client)

// WithLogger injects the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(client *Client) {
		if logger != nil {
			client.logger = logger
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		if httpClient != nil {
			client.http = httpClient
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		if timeout > 0 {
			client.timeout = timeout
		}
	}
}

func withNonce(nonce func() string) Option {
	return func(client *Client) {
		if nonce != nil {
			client.nonce = nonce
		}
	}
}

// Client talks to the REST API.
type Client struct {
	baseURL     *url.URL
	credentials Credentials
	logger      *slog.Logger
	http        *http.Client
	timeout     time.Duration
	nonce       func() string
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, credentials Credentials, options ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("new rest client: parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("new rest client: unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	if err := credentials.Validate(); err != nil {
		return nil, fmt.Errorf("new rest client: %w", err)
	}

	client := &Client{
		baseURL:     parsed,
		credentials: credentials,
		logger:      slog.Default(),
		timeout:     defaultTimeout,
		nonce:       newNonceSource(),
	}
	for _, option := range options {
		option(client)
	}
	if client.http == nil {
		client.http = &http.Client{Timeout: client.timeout}
	}

	return client, nil
}

// FetchChannel loads one channel.
func (c *Client) FetchChannel(ctx context.Context, id revolt.ChannelID) (revolt.Channel, error) {
	var channel revolt.Channel
	err := c.do(ctx, http.MethodGet, pathOf("channels", string(id)), nil, &channel)
	return channel, err
}

// FetchServer loads one server.
func (c *Client) FetchServer(ctx context.Context, id revolt.ServerID) (revolt.Server, error) {
	var server revolt.Server
	err := c.do(ctx, http.MethodGet, pathOf("servers", string(id)), nil, &server)
	return server, err
}

// FetchUser loads one user.
func (c *Client) FetchUser(ctx context.Context, id revolt.UserID) (revolt.User, error) {
	var user revolt.User
	err := c.do(ctx, http.MethodGet, pathOf("users", string(id)), nil, &user)
	return user, err
}

// FetchMember loads one server membership.
func (c *Client) FetchMember(ctx context.Context, id revolt.MemberID) (revolt.Member, error) {
	var member revolt.Member
	err := c.do(ctx, http.MethodGet, pathOf("servers", string(id.Server), "members", string(id.User)), nil, &member)
	return member, err
}

// FetchMessage loads one message from channel.
func (c *Client) FetchMessage(ctx context.Context, channel revolt.ChannelID, id revolt.MessageID) (revolt.Message, error) {
	var message revolt.Message
	err := c.do(ctx, http.MethodGet, pathOf("channels", string(channel), "messages", string(id)), nil, &message)
	return message, err
}

// SendMessageParams is the body of a new message.
type SendMessageParams struct {
	Content     string                `json:"content"`
	Nonce       string                `json:"nonce"`
	Attachments []revolt.AttachmentID `json:"attachments,omitempty"`
	Replies     []revolt.ReplyData    `json:"replies,omitempty"`
}

// SendMessage posts a message to channel.
//
// A fresh ULID nonce is generated when params carries none, so the echo can be
// matched to this request.
func (c *Client) SendMessage(ctx context.Context, channel revolt.ChannelID, params SendMessageParams) (revolt.Message, error) {
	if strings.TrimSpace(params.Content) == "" && len(params.Attachments) == 0 {
		return revolt.Message{}, fmt.Errorf("send message to %s: empty content", channel)
	}
	if params.Nonce == "" {
		params.Nonce = c.nonce()
	}

	var message revolt.Message
	if err := c.do(ctx, http.MethodPost, pathOf("channels", string(channel), "messages"), params, &message); err != nil {
		return revolt.Message{}, err
	}

	return message, nil
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rest %s %s: encode body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("rest %s %s: build request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.credentials.apply(req.Header)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rest %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("rest request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(started),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rest %s %s: decode response: %w", method, path, err)
	}

	return nil
}

func newAPIError(method string, path string, resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
	apiErr := &APIError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Body:       string(raw),
	}

	var envelope struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		apiErr.Type = envelope.Type
	}

	return apiErr
}

func pathOf(segments ...string) string {
	escaped := make([]string, len(segments))
	for index, segment := range segments {
		escaped[index] = url.PathEscape(segment)
	}

	return strings.Join(escaped, "/")
}

func newNonceSource() func() string {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)

	return func() string {
		mu.Lock()
		defer mu.Unlock()

		return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	}
}

var _ revolt.Fetcher = (*Client)(nil)
