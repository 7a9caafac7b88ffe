package adapter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const ollamaBaseURL = "http://localhost:11434"

// ollamaAdapter implements Provider for a local Ollama instance.
type ollamaAdapter struct {
	host   string
	client *http.Client
}

// NewOllama creates an Ollama provider. opts.APIKey is ignored.
func NewOllama(opts Options) Provider {
	host := opts.BaseURL
	if host == "" {
		host = ollamaBaseURL
	}
	return &ollamaAdapter{
		host:   strings.TrimRight(host, "/"),
		client: opts.httpClient(),
	}
}

func (o *ollamaAdapter) Info() ModelInfo {
	return ModelInfo{
		Name:              DefaultModel(ProviderOllama),
		Provider:          ProviderOllama,
		MaxContextWindow:  32768,
		SupportsStreaming: true,
	}
}

// ollamaChatRequest is the request body for the Ollama chat API.
type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ollamaChatChunk is a single streamed response chunk.
type ollamaChatChunk struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
	Error   string            `json:"error,omitempty"`
}

func ollamaOptions(cfg GenerationConfig) map[string]any {
	opts := map[string]any{
		"temperature":       cfg.Temperature,
		"top_p":             cfg.TopP,
		"num_predict":       cfg.MaxTokens,
		"presence_penalty":  cfg.PresencePenalty,
		"frequency_penalty": cfg.FrequencyPenalty,
	}
	if cfg.Seed != nil {
		opts["seed"] = *cfg.Seed
	}
	if len(cfg.Stop) > 0 {
		opts["stop"] = cfg.Stop
	}
	return opts
}

func (o *ollamaAdapter) Complete(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	var messages []ollamaChatMessage
	if req.System != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, ollamaChatMessage{Role: "user", Content: req.User})

	body, err := json.Marshal(ollamaChatRequest{
		Model:    req.Config.Model,
		Messages: messages,
		Stream:   req.Stream,
		Options:  ollamaOptions(req.Config),
	})
	if err != nil {
		return nil, fmt.Errorf("ollama complete marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama complete request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	ch := make(chan StreamChunk, 64)

	go func() {
		defer close(ch)

		resp, err := o.client.Do(httpReq)
		if err != nil {
			send(ctx, ch, StreamChunk{Error: fmt.Errorf("ollama complete: %w", err)})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			send(ctx, ch, StreamChunk{Error: &StatusError{
				Provider:   ProviderOllama,
				StatusCode: resp.StatusCode,
				Body:       strings.TrimSpace(string(respBody)),
			}})
			return
		}

		// Both modes answer with NDJSON; non-streaming is a single line.
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var chunk ollamaChatChunk
			if err := json.Unmarshal(line, &chunk); err != nil {
				send(ctx, ch, StreamChunk{Error: fmt.Errorf("ollama decode: %w: %v", ErrMalformedResponse, err)})
				return
			}
			if chunk.Error != "" {
				send(ctx, ch, StreamChunk{Error: fmt.Errorf("ollama: %s", chunk.Error)})
				return
			}
			if chunk.Message.Content != "" {
				if !send(ctx, ch, StreamChunk{Text: chunk.Message.Content}) {
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			send(ctx, ch, StreamChunk{Error: fmt.Errorf("ollama stream scan: %w", err)})
		}
	}()

	return ch, nil
}
