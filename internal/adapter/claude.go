package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	"github.com/rs/zerolog/log"
)

// claudeAdapter implements Provider for Anthropic Claude.
type claudeAdapter struct {
	client *anthropic.Client
}

// NewClaude creates a Claude provider. If opts.APIKey is empty,
// ANTHROPIC_API_KEY is used.
func NewClaude(opts Options) Provider {
	clientOpts := []anthropic.ClientOption{anthropic.WithHTTPClient(opts.httpClient())}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(opts.BaseURL))
	}
	return &claudeAdapter{
		client: anthropic.NewClient(opts.key("ANTHROPIC_API_KEY"), clientOpts...),
	}
}

func (c *claudeAdapter) Info() ModelInfo {
	return ModelInfo{
		Name:              DefaultModel(ProviderClaude),
		Provider:          ProviderClaude,
		MaxContextWindow:  200000,
		SupportsStreaming: true,
	}
}

// messagesRequest maps a Request onto the Messages API. Claude has no
// penalties or seed and caps temperature at 1, so those settings are
// rejected rather than dropped.
func (c *claudeAdapter) messagesRequest(req Request) (anthropic.MessagesRequest, error) {
	cfg := req.Config

	var unsupported []string
	if cfg.PresencePenalty != 0 {
		unsupported = append(unsupported, "presence_penalty")
	}
	if cfg.FrequencyPenalty != 0 {
		unsupported = append(unsupported, "frequency_penalty")
	}
	if cfg.Seed != nil {
		unsupported = append(unsupported, "seed")
	}
	if cfg.Temperature > 1 {
		unsupported = append(unsupported, "temperature above 1")
	}
	if len(unsupported) > 0 {
		return anthropic.MessagesRequest{}, fmt.Errorf("claude: %w: %s", ErrUnsupportedParameter, strings.Join(unsupported, ", "))
	}

	mr := anthropic.MessagesRequest{
		Model: anthropic.Model(cfg.Model),
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(req.User)},
			},
		},
		MaxTokens:     cfg.MaxTokens,
		System:        req.System,
		StopSequences: cfg.Stop,
	}

	// Current models accept temperature or top_p, not both. Temperature 1
	// and top_p 1 are the API defaults; when both restrict, temperature wins.
	temp := float32(cfg.Temperature)
	topP := float32(cfg.TopP)
	switch {
	case cfg.TopP >= 1:
		mr.Temperature = &temp
	case cfg.Temperature == 1:
		mr.TopP = &topP
	default:
		mr.Temperature = &temp
		log.Warn().
			Float64("temperature", cfg.Temperature).
			Float64("top_p", cfg.TopP).
			Msg("claude: top_p not sent with temperature")
	}
	return mr, nil
}

func (c *claudeAdapter) Complete(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	mr, err := c.messagesRequest(req)
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamChunk, 64)

	if !req.Stream {
		go func() {
			defer close(ch)
			resp, err := c.client.CreateMessages(ctx, mr)
			if err != nil {
				send(ctx, ch, StreamChunk{Error: fmt.Errorf("claude complete: %w", err)})
				return
			}
			var b strings.Builder
			for _, content := range resp.Content {
				if content.Type == anthropic.MessagesContentTypeText {
					b.WriteString(content.GetText())
				}
			}
			send(ctx, ch, StreamChunk{Text: b.String()})
		}()
		return ch, nil
	}

	// Streaming: the library uses a callback-based API.
	go func() {
		defer close(ch)

		streamReq := anthropic.MessagesStreamRequest{
			MessagesRequest: mr,
			OnContentBlockDelta: func(delta anthropic.MessagesEventContentBlockDeltaData) {
				if delta.Delta.Type == anthropic.MessagesContentTypeTextDelta {
					send(ctx, ch, StreamChunk{Text: delta.Delta.GetText()})
				}
			},
		}

		_, err := c.client.CreateMessagesStream(ctx, streamReq)
		if err != nil && !errors.Is(err, io.EOF) {
			send(ctx, ch, StreamChunk{Error: fmt.Errorf("claude stream: %w", err)})
		}
	}()

	return ch, nil
}
