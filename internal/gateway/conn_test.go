package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"

	"ex-revolt/pkg/revolt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// serverScript drives the peer side of one connection.
type serverScript func(t *testing.T, ws *websocket.Conn)

func newGatewayServer(t *testing.T, script serverScript) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	var wg sync.WaitGroup
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wg.Add(1)
		defer wg.Done()

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer ws.Close()
		script(t, ws)
	}))
	t.Cleanup(func() {
		server.Close()
		wg.Wait()
	})

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func readOutbound(t *testing.T, ws *websocket.Conn) revolt.OutboundEvent {
	t.Helper()

	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Errorf("server read failed: %v", err)
		return nil
	}
	event, err := revolt.DecodeOutbound(data)
	if err != nil {
		t.Errorf("server decode failed: %v", err)
		return nil
	}

	return event
}

func writeFrames(t *testing.T, ws *websocket.Conn, frames ...string) {
	t.Helper()

	for _, frame := range frames {
		if err := ws.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Errorf("server write failed: %v", err)
			return
		}
	}
}

func closeNormally(ws *websocket.Conn) {
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	// Drain until the client acknowledges or drops.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func TestConnAuthenticateAndReceiveInOrder(t *testing.T) {
	t.Parallel()

	url := newGatewayServer(t, func(t *testing.T, ws *websocket.Conn) {
		auth := readOutbound(t, ws)
		if got, ok := auth.(revolt.AuthenticateBot); !ok || got.Token != "bot-secret" {
			t.Errorf("first message = %#v, want bot authenticate", auth)
			return
		}
		writeFrames(t, ws,
			`{"type":"Authenticated"}`,
			`{"type":"Ready","users":[],"servers":[],"channels":[],"members":[]}`,
			`{"type":"Bogus"}`,
			`{"type":"Message","_id":"m1","channel":"c1","author":"u1","content":"first"}`,
			`{"type":"Message","_id":"m2","channel":"c1","author":"u1","content":"second"}`,
		)
		closeNormally(ws)
	})

	var (
		mu        sync.Mutex
		skipped   []error
		delivered []revolt.EventType
	)
	conn, err := Dial(context.Background(), url,
		WithoutKeepalive(),
		WithDecodeErrorHandler(func(_ context.Context, err error) {
			mu.Lock()
			skipped = append(skipped, err)
			mu.Unlock()
		}),
	)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if err := conn.Authenticate(context.Background(), revolt.AuthenticateBot{Token: "bot-secret"}); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	var contents []string
	err = conn.Run(context.Background(), func(_ context.Context, event revolt.InboundEvent) error {
		delivered = append(delivered, event.Type())
		if message, ok := event.(revolt.MessageEvent); ok {
			contents = append(contents, message.Content)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []revolt.EventType{
		revolt.EventTypeAuthenticated,
		revolt.EventTypeReady,
		revolt.EventTypeMessage,
		revolt.EventTypeMessage,
	}
	if len(delivered) != len(want) {
		t.Fatalf("delivered = %v, want %v", delivered, want)
	}
	for index := range want {
		if delivered[index] != want[index] {
			t.Fatalf("delivered[%d] = %s, want %s", index, delivered[index], want[index])
		}
	}
	if len(contents) != 2 || contents[0] != "first" || contents[1] != "second" {
		t.Fatalf("contents = %v, want [first second]", contents)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(skipped) != 1 || !errors.Is(skipped[0], revolt.ErrUnknownEventType) {
		t.Fatalf("skipped = %v, want one unknown event type", skipped)
	}
}

func TestConnStrictDecodeStopsRun(t *testing.T) {
	t.Parallel()

	url := newGatewayServer(t, func(t *testing.T, ws *websocket.Conn) {
		readOutbound(t, ws)
		writeFrames(t, ws, `{"type":"ChannelDelete"}`)
		closeNormally(ws)
	})

	conn, err := Dial(context.Background(), url, WithoutKeepalive(), WithStrictDecode())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if err := conn.Authenticate(context.Background(), revolt.Authenticate{UserID: "u1", SessionToken: "s"}); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	err = conn.Run(context.Background(), func(context.Context, revolt.InboundEvent) error { return nil })
	var decodeErr *revolt.ProtocolDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Run error = %v, want *ProtocolDecodeError", err)
	}
	if !errors.Is(err, revolt.ErrMissingField) {
		t.Fatalf("Run error = %v, want missing field", err)
	}
}

func TestConnSendRules(t *testing.T) {
	t.Parallel()

	received := make(chan revolt.OutboundEvent, 4)
	url := newGatewayServer(t, func(t *testing.T, ws *websocket.Conn) {
		for range 3 {
			event := readOutbound(t, ws)
			if event == nil {
				return
			}
			received <- event
		}
		closeNormally(ws)
	})

	conn, err := Dial(context.Background(), url, WithoutKeepalive())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	if err := conn.Send(ctx, revolt.BeginTyping{Channel: "c1"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("Send before auth error = %v, want %v", err, ErrNotAuthenticated)
	}
	if err := conn.Send(ctx, revolt.AuthenticateBot{Token: "t"}); !errors.Is(err, ErrAuthViaSend) {
		t.Fatalf("Send auth error = %v, want %v", err, ErrAuthViaSend)
	}
	if err := conn.Authenticate(ctx, revolt.AuthenticateBot{Token: "t"}); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if err := conn.Authenticate(ctx, revolt.AuthenticateBot{Token: "t"}); !errors.Is(err, ErrAlreadyAuthenticated) {
		t.Fatalf("second Authenticate error = %v, want %v", err, ErrAlreadyAuthenticated)
	}

	session, err := conn.StartTyping(ctx, "c1")
	if err != nil {
		t.Fatalf("StartTyping failed: %v", err)
	}
	for range 2 {
		if err := session.Stop(ctx); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
	}

	want := []revolt.OutboundEvent{
		revolt.AuthenticateBot{Token: "t"},
		revolt.BeginTyping{Channel: "c1"},
		revolt.EndTyping{Channel: "c1"},
	}
	for index, expected := range want {
		select {
		case got := <-received:
			if got != expected {
				t.Fatalf("frame %d = %#v, want %#v", index, got, expected)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for frame %d", index)
		}
	}
}

func TestConnKeepaliveMeasuresLatency(t *testing.T) {
	t.Parallel()

	url := newGatewayServer(t, func(t *testing.T, ws *websocket.Conn) {
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			event, err := revolt.DecodeOutbound(data)
			if err != nil {
				t.Errorf("server decode failed: %v", err)
				return
			}
			ping, ok := event.(revolt.Ping)
			if !ok {
				continue
			}
			reply, err := revolt.EncodeInbound(revolt.PongEvent{Time: ping.Time})
			if err != nil {
				t.Errorf("encode pong failed: %v", err)
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, reply); err != nil {
				return
			}
		}
	})

	conn, err := Dial(context.Background(), url, WithPingInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if err := conn.Authenticate(context.Background(), revolt.AuthenticateBot{Token: "t"}); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pongs := 0
	err = conn.Run(ctx, func(_ context.Context, event revolt.InboundEvent) error {
		if _, ok := event.(revolt.PongEvent); ok {
			pongs++
			if pongs == 2 {
				cancel()
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if pongs < 2 {
		t.Fatalf("pongs = %d, want at least 2", pongs)
	}
	if conn.Latency() <= 0 {
		t.Fatalf("latency = %v, want positive", conn.Latency())
	}
}

func TestConnHandlerFailureAndPanic(t *testing.T) {
	tests := []struct {
		name      string
		handler   Handler
		wantInErr string
	}{
		{
			name: "error is returned",
			handler: func(context.Context, revolt.InboundEvent) error {
				return errors.New("sink full")
			},
			wantInErr: "sink full",
		},
		{
			name: "panic is recovered",
			handler: func(context.Context, revolt.InboundEvent) error {
				panic("boom")
			},
			wantInErr: "panic recovered: boom",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			url := newGatewayServer(t, func(t *testing.T, ws *websocket.Conn) {
				readOutbound(t, ws)
				writeFrames(t, ws, `{"type":"Authenticated"}`)
				closeNormally(ws)
			})

			conn, err := Dial(context.Background(), url, WithoutKeepalive())
			if err != nil {
				t.Fatalf("Dial failed: %v", err)
			}
			if err := conn.Authenticate(context.Background(), revolt.AuthenticateBot{Token: "t"}); err != nil {
				t.Fatalf("Authenticate failed: %v", err)
			}

			err = conn.Run(context.Background(), testCase.handler)
			if err == nil || !strings.Contains(err.Error(), testCase.wantInErr) {
				t.Fatalf("Run error = %v, want containing %q", err, testCase.wantInErr)
			}
			if err := conn.Send(context.Background(), revolt.EndTyping{Channel: "c1"}); !errors.Is(err, ErrClosed) {
				t.Fatalf("Send after Run error = %v, want %v", err, ErrClosed)
			}
		})
	}
}

func TestConnRunAfterClose(t *testing.T) {
	t.Parallel()

	url := newGatewayServer(t, func(t *testing.T, ws *websocket.Conn) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})

	conn, err := Dial(context.Background(), url, WithoutKeepalive())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	handler := func(context.Context, revolt.InboundEvent) error { return nil }
	for attempt := range 2 {
		if err := conn.Run(context.Background(), handler); !errors.Is(err, ErrClosed) {
			t.Fatalf("Run attempt %d error = %v, want %v", attempt, err, ErrClosed)
		}
	}
}

func TestDialFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := Dial(context.Background(), "ws"+strings.TrimPrefix(server.URL, "http"), WithHandshakeTimeout(time.Second))
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("Dial error = %v, want status 404", err)
	}
}
