// internal/generator/generator.go
//
// Generation gateway.
//
// Context
// -------
// Translates "make a landing page from this prompt" and "revise it with this
// feedback" into v0 chat calls.  The gateway holds no state: the chat id it
// returns from Generate is the design lineage, and Revise echoes it back
// unchanged.
//
// Workflow
// --------
//  1. Generate wraps the prompt in landingPagePrompt and POSTs /v1/chats.
//  2. Revise POSTs the trimmed feedback to /v1/chats/{id}/messages.
//  3. Both map the chat payload to Result; a missing chat id is an error.
//
// Notes
// -----
//   - An unknown chat id comes back as an upstream 404; the gateway does not
//     special-case it.  Callers see the remote message.
//   - Oxford commas, two spaces after periods.
package generator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/pagesmith/internal/record"
	"github.com/yanizio/pagesmith/internal/upstream"
)

// Result is the design snapshot produced by one generate or revise call.
type Result struct {
	ChatID     string
	Content    string
	Files      []record.File
	WebURL     string
	PreviewURL string
	Demo       string
}

// Gateway is the contract the lifecycle coordinator depends on.
type Gateway interface {
	Generate(ctx context.Context, prompt string) (Result, error)
	Revise(ctx context.Context, chatID, feedback string) (Result, error)
}

// Doer is the slice of *upstream.Client the gateway uses.
type Doer interface {
	Do(ctx context.Context, call, method, path string, in, out any) error
}

// V0 implements Gateway over the v0 Platform API.
type V0 struct {
	api Doer
	log *zap.SugaredLogger
}

var _ Gateway = (*V0)(nil)

// NewV0 returns a gateway that issues calls through api.
func NewV0(api Doer, log *zap.SugaredLogger) *V0 {
	if log == nil {
		log = zap.S()
	}
	return &V0{api: api, log: log}
}

// chatPayload is the subset of the v0 chat object we read.
type chatPayload struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	WebURL        string `json:"webUrl"`
	PreviewURL    string `json:"previewUrl"`
	Demo          string `json:"demo"`
	LatestVersion *struct {
		ID      string `json:"id"`
		DemoURL string `json:"demoUrl"`
		Files   []struct {
			Name    string `json:"name"`
			Content string `json:"content"`
		} `json:"files"`
	} `json:"latestVersion"`
}

func (p chatPayload) result(chatID string) Result {
	res := Result{
		ChatID:     chatID,
		Content:    p.URL,
		Files:      []record.File{},
		WebURL:     p.WebURL,
		PreviewURL: p.PreviewURL,
		Demo:       p.Demo,
	}
	if v := p.LatestVersion; v != nil {
		for _, f := range v.Files {
			res.Files = append(res.Files, record.File{Name: f.Name, Content: f.Content})
		}
		if res.Demo == "" {
			res.Demo = v.DemoURL
		}
	}
	return res
}

// Generate starts a new chat (a new design lineage) from prompt.
func (g *V0) Generate(ctx context.Context, prompt string) (Result, error) {
	const call = "chats.create"
	g.log.Infow("generating landing page", "prompt_len", len(prompt))

	var out chatPayload
	in := map[string]string{"message": landingPagePrompt(prompt)}
	if err := g.api.Do(ctx, call, http.MethodPost, "/v1/chats", in, &out); err != nil {
		return Result{}, fmt.Errorf("generate landing page: %w", err)
	}
	if out.ID == "" {
		return Result{}, fmt.Errorf("generate landing page: %w",
			upstream.Errorf(call, nil, "no chat id returned"))
	}

	res := out.result(out.ID)
	g.log.Infow("landing page generated",
		"chat_id", res.ChatID, "files", len(res.Files), "demo", res.Demo != "")
	return res, nil
}

// Revise sends feedback into an existing chat.  The returned ChatID is the
// one passed in.
func (g *V0) Revise(ctx context.Context, chatID, feedback string) (Result, error) {
	const call = "chats.sendMessage"
	g.log.Infow("revising landing page", "chat_id", chatID, "feedback_len", len(feedback))

	var out chatPayload
	in := map[string]string{"message": strings.TrimSpace(feedback)}
	path := "/v1/chats/" + url.PathEscape(chatID) + "/messages"
	if err := g.api.Do(ctx, call, http.MethodPost, path, in, &out); err != nil {
		return Result{}, fmt.Errorf("update landing page: %w", err)
	}

	res := out.result(chatID)
	g.log.Infow("landing page revised", "chat_id", chatID, "files", len(res.Files))
	return res, nil
}
