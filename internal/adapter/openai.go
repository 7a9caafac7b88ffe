package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// openaiAdapter implements Provider for OpenAI and compatible endpoints.
type openaiAdapter struct {
	client *openai.Client
}

// NewOpenAI creates an OpenAI provider. If opts.APIKey is empty,
// OPENAI_API_KEY is used.
func NewOpenAI(opts Options) Provider {
	cfg := openai.DefaultConfig(opts.key("OPENAI_API_KEY"))
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	cfg.HTTPClient = opts.httpClient()
	return &openaiAdapter{
		client: openai.NewClientWithConfig(cfg),
	}
}

func (o *openaiAdapter) Info() ModelInfo {
	return ModelInfo{
		Name:              DefaultModel(ProviderOpenAI),
		Provider:          ProviderOpenAI,
		MaxContextWindow:  128000,
		SupportsStreaming: true,
	}
}

// chatRequest maps every GenerationConfig field onto the wire request.
// The library omits zero floats, so a zero temperature or top_p is sent as
// the smallest positive float32 instead of being left to the server default.
func (o *openaiAdapter) chatRequest(req Request) openai.ChatCompletionRequest {
	cfg := req.Config
	return openai.ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:        cfg.MaxTokens,
		Temperature:      explicitFloat32(cfg.Temperature),
		TopP:             explicitFloat32(cfg.TopP),
		PresencePenalty:  float32(cfg.PresencePenalty),
		FrequencyPenalty: float32(cfg.FrequencyPenalty),
		Stop:             cfg.Stop,
		Seed:             cfg.Seed,
		Stream:           req.Stream,
	}
}

func explicitFloat32(v float64) float32 {
	if v == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(v)
}

func (o *openaiAdapter) Complete(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	chatReq := o.chatRequest(req)
	ch := make(chan StreamChunk, 64)

	if !req.Stream {
		go func() {
			defer close(ch)
			resp, err := o.client.CreateChatCompletion(ctx, chatReq)
			if err != nil {
				send(ctx, ch, StreamChunk{Error: fmt.Errorf("openai complete: %w", err)})
				return
			}
			if len(resp.Choices) == 0 {
				send(ctx, ch, StreamChunk{Error: fmt.Errorf("openai complete: %w: no choices", ErrMalformedResponse)})
				return
			}
			send(ctx, ch, StreamChunk{Text: resp.Choices[0].Message.Content})
		}()
		return ch, nil
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		close(ch)
		return nil, fmt.Errorf("openai stream: %w", err)
	}

	go func() {
		defer close(ch)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				send(ctx, ch, StreamChunk{Error: fmt.Errorf("openai stream recv: %w", err)})
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if !send(ctx, ch, StreamChunk{Text: resp.Choices[0].Delta.Content}) {
				return
			}
		}
	}()

	return ch, nil
}
