package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/goresolve/internal/cache"
	"github.com/hyperifyio/goresolve/internal/extract"
	"github.com/hyperifyio/goresolve/internal/llm"
)

// systemInstruction fixes the register of generated articles.
const systemInstruction = "You write encyclopedia articles. Use a formal, neutral and factual tone. " +
	"Structure the article with a single top-level Markdown heading followed by sections with subheadings. " +
	"Do not refer to yourself, to these instructions, or to the request."

// Generative asks a text-generation backend to write a substitute article.
// It makes at most one call per attempt.
type Generative struct {
	Client      llm.Client
	Model       string
	Temperature float32
	// Timeout bounds the call. Zero means 60s.
	Timeout time.Duration
	// Cache is optional; nil disables it.
	Cache *cache.LLMCache
}

func (g *Generative) Kind() Kind { return KindGenerative }

// Available reports whether a credential-backed client is configured.
func (g *Generative) Available() bool { return g != nil && g.Client != nil }

func userPrompt(topic string) string {
	return fmt.Sprintf("Write a comprehensive encyclopedia article about %q. "+
		"Open with a short summary paragraph, then cover background, key facts and significance.", topic)
}

func (g *Generative) Attempt(ctx context.Context, req Request) (*Content, error) {
	if g.Client == nil {
		return nil, unavailablef("no generation credential configured")
	}
	if strings.TrimSpace(g.Model) == "" {
		return nil, unavailablef("no generation model configured")
	}
	prompt := userPrompt(req.Topic)
	key := cache.KeyFrom(g.Model, systemInstruction+"\n"+prompt)
	if g.Cache != nil {
		if hit, ok, err := g.Cache.Get(ctx, key); err == nil && ok && strings.TrimSpace(hit.Body) != "" {
			req.Trace.Note("generative: cache hit")
			return g.content(req, hit.Body), nil
		}
	}

	cctx, cancel := context.WithTimeout(ctx, durationOr(g.Timeout, 60*time.Second))
	defer cancel()
	resp, err := g.Client.CreateChatCompletion(cctx, openai.ChatCompletionRequest{
		Model: g.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.Temperature,
		N:           1,
	})
	if err != nil {
		req.Trace.Note("generative: %v", err)
		return nil, declinef("generation: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, declinef("generation returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, declinef("generation returned empty content")
	}
	if g.Cache != nil {
		if err := g.Cache.Save(ctx, key, cache.Generation{Model: g.Model, Title: req.Topic, Body: text}); err != nil {
			log.Warn().Err(err).Msg("llm cache save")
		}
	}
	return g.content(req, text), nil
}

func (g *Generative) content(req Request, text string) *Content {
	body := extract.EnsureHeading(extract.Sanitize(text, req.Profile.Disclaimers...), req.Topic)
	return &Content{Title: req.Topic, Body: body, SourceURL: req.Profile.SearchURL(req.Topic)}
}
