package handlers_test

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"telecasino-dice/internal/handlers"
	"telecasino-dice/internal/lib/logger/sl"
	"telecasino-dice/internal/models"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	// A PONG proves the hub has registered the connection.
	if err := conn.WriteJSON(handlers.Message{Type: handlers.MessagePing}); err != nil {
		t.Fatal(err)
	}
	msg := readMessage(t, conn)
	if msg.Type != handlers.MessagePong {
		t.Fatalf("expected PONG, got %s", msg.Type)
	}

	return conn
}

type wireMessage struct {
	Type      string          `json:"type"`
	SessionID int64           `json:"session_id"`
	RoundID   string          `json:"round_id"`
	Data      json.RawMessage `json:"data"`
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wireMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWebSocketDeliversRoundsToTheirSession(t *testing.T) {
	s := newServer(t, serverOptions{faces: []int{2, 2}})
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	alice := dial(t, srv, "?gameSessionId=5")
	bob := dial(t, srv, "?gameSessionId=6")

	w := s.do(http.MethodPost, "/api/dice/play?wager=1&betArg=Pair2&gameSessionId=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("play: status = %d: %s", w.Code, w.Body.String())
	}

	msg := readMessage(t, alice)
	if msg.Type != handlers.MessageRoundResolved || msg.SessionID != 5 {
		t.Fatalf("unexpected message %+v", msg)
	}
	var result models.RoundResult
	if err := json.Unmarshal(msg.Data, &result); err != nil {
		t.Fatal(err)
	}
	if result.ID != msg.RoundID || !result.Win || result.BetType != models.BetPair2 {
		t.Errorf("unexpected broadcast result %+v", result)
	}

	bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var stray wireMessage
	err := bob.ReadJSON(&stray)
	if err == nil {
		t.Fatalf("session 6 should not see session 5's round, got %+v", stray)
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("expected a read timeout, got %v", err)
	}
}

func TestBroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	ws := handlers.NewWebSocketHandler(sl.Discard())
	defer ws.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			ws.BroadcastRoundResolved(&models.RoundResult{ID: "r", GameSessionID: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastRoundResolved blocked")
	}
}

func TestWebSocketRequiresSession(t *testing.T) {
	s := newServer(t, serverOptions{})
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	for _, query := range []string{"", "?gameSessionId=0", "?gameSessionId=abc"} {
		conn, resp, err := websocket.DefaultDialer.Dial(base+query, nil)
		if err == nil {
			conn.Close()
			t.Errorf("%q: anonymous subscription should be refused", query)
			continue
		}
		if resp == nil || resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%q: expected 400 handshake response, got %v", query, resp)
		}
		if resp != nil {
			resp.Body.Close()
		}
	}
}
