package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"session_id":"sess-1"}`))
	}))
	defer srv.Close()

	c := NewSessionClient(srv.URL, 5*time.Second)
	id, err := c.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if id != "sess-1" {
		t.Fatalf("expected sess-1, got %q", id)
	}
}

func TestCreateSessionMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewSessionClient(srv.URL, 5*time.Second)
	if _, err := c.CreateSession(context.Background()); !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("expected ErrUnexpectedResponse, got %v", err)
	}
}

func TestCreateSessionServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewSessionClient(srv.URL, time.Second)
	if _, err := c.CreateSession(context.Background()); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestFetchSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/sess-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"session":{"session_id":"sess-1","user_id":"u1"},
			"messages":[
				{"message_id":"m1","session_id":"sess-1","role":"assistant","content":"hi","created_at":"2026-08-30T10:00:00Z"},
				{"message_id":"m2","session_id":"sess-1","role":"user","content":"hello","created_at":"2026-08-30T10:00:05Z"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewSessionClient(srv.URL, 5*time.Second)
	rec, err := c.FetchSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("FetchSession: %v", err)
	}
	if rec.Session.SessionID != "sess-1" {
		t.Fatalf("wrong session id %q", rec.Session.SessionID)
	}
	if len(rec.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(rec.Messages))
	}
	if rec.Messages[0].Done != nil {
		t.Fatalf("done should be unset on a plain message")
	}
}

func TestFetchSessionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"session not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewSessionClient(srv.URL, 5*time.Second)
	if _, err := c.FetchSession(context.Background(), "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/sess-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"session_id":"sess-1","reply":"tell me more","done":false}`))
	}))
	defer srv.Close()

	c := NewSessionClient(srv.URL, 5*time.Second)
	turn, err := c.SendMessage(context.Background(), "sess-1", "I write Go")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if turn.Reply != "tell me more" || turn.Done {
		t.Fatalf("unexpected turn %+v", turn)
	}
}

func TestSendMessageEmptySessionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on empty session id")
		}
	}()
	c := NewSessionClient("http://localhost:0", time.Second)
	c.SendMessage(context.Background(), "", "x")
}

func TestSendMessageServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewSessionClient(srv.URL, 5*time.Second)
	if _, err := c.SendMessage(context.Background(), "sess-1", "x"); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}
