package strategy

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/goresolve/internal/cache"
	"github.com/hyperifyio/goresolve/internal/extract"
)

type fakeLLM struct {
	calls int
	last  openai.ChatCompletionRequest
	reply string
	err   error
}

func (f *fakeLLM) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	if f.reply == "" {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{
		Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.reply},
	}}}, nil
}

func TestGenerative_NoCredentialIsUnavailable(t *testing.T) {
	req := newRequest(t, testProfile(wikiBase), "Gravity")
	if _, err := (&Generative{Model: "m"}).Attempt(context.Background(), req); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
}

func TestGenerative_SingleCallDeclinesOnFailure(t *testing.T) {
	req := newRequest(t, testProfile(wikiBase), "Gravity")
	f := &fakeLLM{err: errors.New("status 500")}
	if _, err := (&Generative{Client: f, Model: "m"}).Attempt(context.Background(), req); !errors.Is(err, ErrDeclined) || errors.Is(err, ErrUnavailable) {
		t.Fatalf("want plain decline, got %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("calls=%d", f.calls)
	}
	empty := &fakeLLM{}
	if _, err := (&Generative{Client: empty, Model: "m"}).Attempt(context.Background(), req); !errors.Is(err, ErrDeclined) {
		t.Fatalf("empty payload: want decline, got %v", err)
	}
}

func TestGenerative_ReturnsSanitizedArticle(t *testing.T) {
	p := testProfile(wikiBase)
	req := newRequest(t, p, "Gravity")
	f := &fakeLLM{reply: "Gravity is the attraction between masses. " + extract.Disclaimer + "\n\n\n\n## History\n\nNewton described it."}
	c, err := (&Generative{Client: f, Model: "m"}).Attempt(context.Background(), req)
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if c.Title != "Gravity" || c.SourceURL != p.SearchURL("Gravity") {
		t.Fatalf("unexpected content: %+v", c)
	}
	if !strings.HasPrefix(c.Body, "# Gravity\n\n") || strings.Contains(c.Body, "public sources") || strings.Contains(c.Body, "\n\n\n") {
		t.Fatalf("body not sanitized: %q", c.Body)
	}
	msgs := f.last.Messages
	if len(msgs) != 2 || msgs[0].Role != openai.ChatMessageRoleSystem || !strings.Contains(msgs[1].Content, `"Gravity"`) {
		t.Fatalf("unexpected prompt: %+v", msgs)
	}
	if !strings.Contains(msgs[0].Content, "neutral") {
		t.Fatalf("system instruction should fix the tone")
	}
}

func TestGenerative_CacheAvoidsSecondCall(t *testing.T) {
	req := newRequest(t, testProfile(wikiBase), "Gravity")
	f := &fakeLLM{reply: "# Gravity\n\nGravity is the attraction between masses."}
	g := &Generative{Client: f, Model: "m", Cache: &cache.LLMCache{Dir: t.TempDir()}}
	for i := 0; i < 2; i++ {
		if _, err := g.Attempt(context.Background(), req); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if f.calls != 1 {
		t.Fatalf("calls=%d, want 1", f.calls)
	}
}
