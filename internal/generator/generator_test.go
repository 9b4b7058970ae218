package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/pagesmith/internal/upstream"
)

func newGateway(t *testing.T, h http.HandlerFunc) *V0 {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	api := upstream.New(upstream.Options{BaseURL: srv.URL, APIKey: "k", Timeout: 5 * time.Second, Logger: zap.NewNop().Sugar()})
	return NewV0(api, zap.NewNop().Sugar())
}

func TestGenerate_MapsChat(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/chats" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !strings.Contains(body["message"], "a bakery in Lisbon") ||
			!strings.Contains(body["message"], "Tailwind CSS") {
			t.Errorf("prompt not framed: %q", body["message"])
		}
		_, _ = w.Write([]byte(`{
			"id": "chat_1",
			"url": "https://v0.dev/chat/chat_1",
			"webUrl": "https://v0.dev/chat/chat_1",
			"latestVersion": {"id": "v1", "demoUrl": "https://demo.vusercontent.net/1",
				"files": [{"name": "app/page.tsx", "content": "export default 1"}]}
		}`))
	})

	res, err := g.Generate(context.Background(), "  a bakery in Lisbon ")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.ChatID != "chat_1" || res.Content != "https://v0.dev/chat/chat_1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Demo != "https://demo.vusercontent.net/1" {
		t.Fatalf("demo should fall back to latestVersion.demoUrl, got %q", res.Demo)
	}
	if len(res.Files) != 1 || res.Files[0].Name != "app/page.tsx" {
		t.Fatalf("files = %+v", res.Files)
	}
}

func TestGenerate_MissingChatID(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":"https://v0.dev/chat/x"}`))
	})
	_, err := g.Generate(context.Background(), "anything")
	if !upstream.Is(err) {
		t.Fatalf("err = %v, want upstream error", err)
	}
}

func TestRevise_EchoesChatIDAndPropagatesMessage(t *testing.T) {
	g := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/chats/chat_1/messages":
			_, _ = w.Write([]byte(`{"id":"msg_9","url":"https://v0.dev/chat/chat_1?v=2"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"Chat not found"}}`))
		}
	})

	res, err := g.Revise(context.Background(), "chat_1", "make it blue")
	if err != nil {
		t.Fatalf("Revise: %v", err)
	}
	if res.ChatID != "chat_1" {
		t.Fatalf("chat id = %q, want echo of chat_1", res.ChatID)
	}
	if res.Files == nil {
		t.Fatalf("files must be empty, not nil")
	}

	_, err = g.Revise(context.Background(), "nope", "x")
	if !upstream.IsNotFound(err) || !strings.Contains(err.Error(), "Chat not found") {
		t.Fatalf("err = %v, want upstream 404 with message", err)
	}
}
