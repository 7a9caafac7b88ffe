package adapter

import (
	"context"
	"iter"
	"strings"

	"github.com/rs/zerolog/log"
)

// FailurePlaceholder is the text of every failed GenerationResult.
const FailurePlaceholder = "Error: documentation could not be generated."

// GenerationResult is the outcome of one call. When Error is set, Text is
// FailurePlaceholder and never a partial answer.
type GenerationResult struct {
	Text  string
	Error string
}

// Failed reports whether the call did not produce text.
func (r GenerationResult) Failed() bool { return r.Error != "" }

func failure(err *GenerationError) GenerationResult {
	return GenerationResult{Text: FailurePlaceholder, Error: err.Error()}
}

// Client runs generations against one Provider.
type Client struct {
	provider Provider
	name     string
}

// NewClient wraps p.
func NewClient(p Provider) *Client {
	return &Client{provider: p, name: p.Info().Provider}
}

// Provider returns the provider name.
func (c *Client) Provider() string { return c.name }

// Info returns metadata about the provider's default model.
func (c *Client) Info() ModelInfo { return c.provider.Info() }

// Complete sends system and user and waits for the whole answer. Failures of
// any kind come back in the result; Complete never panics or returns an error.
func (c *Client) Complete(ctx context.Context, system, user string, cfg GenerationConfig) GenerationResult {
	return c.start(ctx, system, user, cfg, false).Result()
}

// Stream starts a streaming call. Range over Fragments to receive text as it
// arrives, then call Result.
func (c *Client) Stream(ctx context.Context, system, user string, cfg GenerationConfig) *Stream {
	return c.start(ctx, system, user, cfg, true)
}

func (c *Client) start(ctx context.Context, system, user string, cfg GenerationConfig, stream bool) *Stream {
	s := &Stream{provider: c.name, parent: ctx, cancel: func() {}}
	if err := cfg.Validate(); err != nil {
		s.err = err
		return s
	}

	if stream && !c.provider.Info().SupportsStreaming {
		// Fragments then yields the whole answer at once.
		log.Debug().Str("provider", c.name).Msg("streaming unsupported, waiting for the full answer")
		stream = false
	}

	log.Debug().
		Str("provider", c.name).
		Str("model", cfg.Model).
		Bool("stream", stream).
		Int("prompt_chars", len(system)+len(user)).
		Msg("generation start")

	ctx, cancel := context.WithCancel(ctx)
	ch, err := c.provider.Complete(ctx, Request{
		System: system,
		User:   user,
		Config: cfg.clone(),
		Stream: stream,
	})
	if err != nil {
		cancel()
		s.err = err
		return s
	}
	s.ch = ch
	s.cancel = cancel
	return s
}

// Stream is a finite, single-use sequence of text fragments.
type Stream struct {
	provider string
	parent   context.Context
	ch       <-chan StreamChunk
	cancel   context.CancelFunc

	text     strings.Builder
	err      error
	consumed bool
	stopped  bool
}

// Fragments yields text in arrival order. Only the first range receives
// anything. Breaking out of the range cancels the upstream request.
func (s *Stream) Fragments() iter.Seq[string] {
	return func(yield func(string) bool) {
		if s.consumed {
			return
		}
		s.consumed = true
		defer s.cancel()

		if s.err != nil || s.ch == nil {
			return
		}
		for chunk := range s.ch {
			if chunk.Error != nil {
				s.err = chunk.Error
				return
			}
			if chunk.Text == "" {
				continue
			}
			s.text.WriteString(chunk.Text)
			if !yield(chunk.Text) {
				s.stopped = true
				return
			}
		}
	}
}

// Result drains anything not yet consumed and reports the outcome.
func (s *Stream) Result() GenerationResult {
	if !s.consumed {
		for range s.Fragments() {
		}
	}

	err := s.err
	switch {
	case err != nil:
	case s.stopped:
		err = ErrStreamAbandoned
	case s.parent != nil && s.parent.Err() != nil:
		// Providers close quietly when the caller's context ends.
		err = s.parent.Err()
	case s.text.Len() == 0:
		err = ErrEmptyResponse
	}
	if err != nil {
		ge := Classify(s.provider, err)
		log.Warn().
			Str("provider", s.provider).
			Str("kind", string(ge.Kind)).
			Err(ge.Err).
			Msg("generation failed")
		return failure(ge)
	}
	return GenerationResult{Text: s.text.String()}
}
