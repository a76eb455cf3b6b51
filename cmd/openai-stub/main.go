// Command openai-stub serves a minimal OpenAI-compatible API that answers
// every chat completion with a canned encyclopedia article, for exercising
// the generative strategy without a real backend.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// quotedTopic finds the topic the resolver embeds in its prompt.
var quotedTopic = regexp.MustCompile(`"([^"]+)"`)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		user := req.Messages[len(req.Messages)-1].Content
		topic := "Unknown topic"
		if m := quotedTopic.FindStringSubmatch(user); m != nil {
			topic = m[1]
		}
		writeJSON(w, map[string]any{
			"id":      "chatcmpl-stub",
			"object":  "chat.completion",
			"model":   model,
			"choices": []map[string]any{{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": cannedArticle(topic)}}},
		})
	})
	return mux
}

func cannedArticle(topic string) string {
	return fmt.Sprintf("# %[1]s\n\n%[1]s is a subject documented across many public references. "+
		"This summary outlines its background, principal characteristics and significance.\n\n"+
		"## Background\n\nThe study of %[1]s developed over a long period through the work of many contributors.\n\n"+
		"## Key facts\n\n- %[1]s has been described in several reference works.\n- Its core ideas are widely taught.\n\n"+
		"## Significance\n\n%[1]s continues to influence related fields and remains an active area of interest.", topic)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
