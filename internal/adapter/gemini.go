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

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiAdapter implements Provider for Google Gemini via the REST API.
type geminiAdapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGemini creates a Gemini provider. If opts.APIKey is empty,
// GEMINI_API_KEY is used.
func NewGemini(opts Options) Provider {
	base := opts.BaseURL
	if base == "" {
		base = geminiBaseURL
	}
	return &geminiAdapter{
		apiKey:  opts.key("GEMINI_API_KEY"),
		baseURL: strings.TrimRight(base, "/"),
		client:  opts.httpClient(),
	}
}

func (g *geminiAdapter) Info() ModelInfo {
	return ModelInfo{
		Name:              DefaultModel(ProviderGemini),
		Provider:          ProviderGemini,
		MaxContextWindow:  1000000,
		SupportsStreaming: true,
	}
}

// geminiGenerateRequest is the request body for the Gemini generateContent API.
type geminiGenerateRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// Pointer fields so that an explicit zero is still sent.
type geminiGenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	PresencePenalty  *float64 `json:"presencePenalty,omitempty"`
	FrequencyPenalty *float64 `json:"frequencyPenalty,omitempty"`
	Seed             *int     `json:"seed,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
}

// geminiGenerateResponse is the response from the Gemini generateContent API.
type geminiGenerateResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (r geminiGenerateResponse) text() string {
	var b strings.Builder
	for _, cand := range r.Candidates {
		for _, part := range cand.Content.Parts {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func geminiBody(req Request) ([]byte, error) {
	cfg := req.Config
	gc := &geminiGenerationConfig{
		Temperature:     &cfg.Temperature,
		TopP:            &cfg.TopP,
		MaxOutputTokens: cfg.MaxTokens,
		Seed:            cfg.Seed,
		StopSequences:   cfg.Stop,
	}
	// Not every Gemini model accepts penalties; leave the defaults implicit.
	if cfg.PresencePenalty != 0 {
		gc.PresencePenalty = &cfg.PresencePenalty
	}
	if cfg.FrequencyPenalty != 0 {
		gc.FrequencyPenalty = &cfg.FrequencyPenalty
	}

	genReq := geminiGenerateRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.User}}},
		},
		GenerationConfig: gc,
	}
	if req.System != "" {
		genReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	return json.Marshal(genReq)
}

func (g *geminiAdapter) newRequest(ctx context.Context, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)
	return req, nil
}

func (g *geminiAdapter) statusError(resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{
		Provider:   ProviderGemini,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(respBody)),
	}
}

func (g *geminiAdapter) Complete(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	body, err := geminiBody(req)
	if err != nil {
		return nil, fmt.Errorf("gemini complete marshal: %w", err)
	}

	ch := make(chan StreamChunk, 64)

	if !req.Stream {
		url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, req.Config.Model)
		go func() {
			defer close(ch)
			text, err := g.doGenerate(ctx, url, body)
			if err != nil {
				send(ctx, ch, StreamChunk{Error: err})
				return
			}
			send(ctx, ch, StreamChunk{Text: text})
		}()
		return ch, nil
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", g.baseURL, req.Config.Model)
	httpReq, err := g.newRequest(ctx, url, body)
	if err != nil {
		return nil, fmt.Errorf("gemini stream request: %w", err)
	}

	go func() {
		defer close(ch)

		resp, err := g.client.Do(httpReq)
		if err != nil {
			send(ctx, ch, StreamChunk{Error: fmt.Errorf("gemini stream: %w", err)})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			send(ctx, ch, StreamChunk{Error: g.statusError(resp)})
			return
		}

		// Gemini SSE: each event is "data: {json}\n\n".
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")

			var genResp geminiGenerateResponse
			if err := json.Unmarshal([]byte(data), &genResp); err != nil {
				send(ctx, ch, StreamChunk{Error: fmt.Errorf("gemini stream decode: %w: %v", ErrMalformedResponse, err)})
				return
			}
			if genResp.Error != nil {
				send(ctx, ch, StreamChunk{Error: &StatusError{
					Provider:   ProviderGemini,
					StatusCode: genResp.Error.Code,
					Body:       genResp.Error.Message,
				}})
				return
			}
			if text := genResp.text(); text != "" {
				if !send(ctx, ch, StreamChunk{Text: text}) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			send(ctx, ch, StreamChunk{Error: fmt.Errorf("gemini stream scan: %w", err)})
		}
	}()

	return ch, nil
}

// doGenerate makes a non-streaming generateContent call and returns the text.
func (g *geminiAdapter) doGenerate(ctx context.Context, url string, body []byte) (string, error) {
	req, err := g.newRequest(ctx, url, body)
	if err != nil {
		return "", fmt.Errorf("gemini complete request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini complete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", g.statusError(resp)
	}

	var genResp geminiGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("gemini complete decode: %w: %v", ErrMalformedResponse, err)
	}
	if genResp.Error != nil {
		return "", &StatusError{Provider: ProviderGemini, StatusCode: genResp.Error.Code, Body: genResp.Error.Message}
	}
	if len(genResp.Candidates) == 0 {
		return "", fmt.Errorf("gemini complete: %w: no candidates", ErrMalformedResponse)
	}
	return genResp.text(), nil
}
