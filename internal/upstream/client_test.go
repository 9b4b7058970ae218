package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(url string, retries int) *Client {
	return New(Options{
		BaseURL:  url,
		APIKey:   "secret",
		Timeout:  5 * time.Second,
		RetryMax: retries,
		Logger:   zap.NewNop().Sugar(),
	})
}

func TestDo_SendsHeadersAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Errorf("missing X-Request-Id")
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chat_1"}`))
	}))
	defer srv.Close()

	var out struct {
		ID string `json:"id"`
	}
	err := newTestClient(srv.URL, 0).Do(context.Background(), "chats.create", http.MethodPost, "/v1/chats",
		map[string]string{"message": "hi"}, &out)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out.ID != "chat_1" {
		t.Fatalf("id = %q", out.ID)
	}
}

func TestDo_PreservesRemoteMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"nested", `{"error":{"message":"chat not found"}}`, "chat not found"},
		{"flat", `{"error":"quota exceeded"}`, "quota exceeded"},
		{"message", `{"message":"bad key"}`, "bad key"},
		{"text", `boom`, "boom"},
		{"empty", ``, "HTTP 400 Bad Request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			err := newTestClient(srv.URL, 0).Do(context.Background(), "chats.get", http.MethodGet, "/v1/chats/x", nil, nil)
			var ue *Error
			if !errors.As(err, &ue) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if ue.Message != tc.want || ue.Status != http.StatusBadRequest {
				t.Fatalf("got %q/%d, want %q/400", ue.Message, ue.Status, tc.want)
			}
		})
	}
}

func TestDo_RetriesOnlyIdempotentCalls(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	c := newTestClient(srv.URL, 2)

	_ = c.Do(context.Background(), "deployments.get", http.MethodGet, "/v1/deployments/d", nil, nil)
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("GET attempts = %d, want 3", got)
	}

	atomic.StoreInt32(&hits, 0)
	err := c.Do(context.Background(), "deployments.create", http.MethodPost, "/v1/deployments", map[string]string{}, nil)
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("POST attempts = %d, want 1", got)
	}
	var ue *Error
	if !errors.As(err, &ue) || ue.Status != http.StatusBadGateway {
		t.Fatalf("err = %v, want 502 *Error", err)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&Error{Status: http.StatusNotFound}) {
		t.Fatalf("404 should be not found")
	}
	if IsNotFound(errors.New("x")) || IsNotFound(&Error{Status: 500}) {
		t.Fatalf("non-404 reported as not found")
	}
}
