package docs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lightningmd/lightningmd/internal/adapter"
)

// Completer runs one non-streaming generation. *adapter.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, user string, cfg adapter.GenerationConfig) adapter.GenerationResult
}

// Outcome is the result of generating one Kind.
type Outcome struct {
	Kind     Kind
	Result   adapter.GenerationResult
	Duration time.Duration
}

// Generator produces documents through a Completer.
type Generator struct {
	client Completer
	system string
}

// NewGenerator returns a Generator that sends system with every request.
func NewGenerator(client Completer, system string) *Generator {
	return &Generator{client: client, system: system}
}

// Generate produces each kind in order against the same repository
// context. A failed kind does not stop the rest; check Outcome.Result.
func (g *Generator) Generate(ctx context.Context, kinds []Kind, repoContext string, cfg adapter.GenerationConfig) []Outcome {
	outcomes := make([]Outcome, 0, len(kinds))
	for _, k := range kinds {
		if ctx.Err() != nil {
			outcomes = append(outcomes, Outcome{
				Kind:   k,
				Result: adapter.GenerationResult{Text: adapter.FailurePlaceholder, Error: ctx.Err().Error()},
			})
			continue
		}

		log.Info().Str("kind", k.Name).Msg("generating")
		start := time.Now()
		res := g.client.Complete(ctx, g.system, k.Prompt(repoContext), cfg)
		outcomes = append(outcomes, Outcome{Kind: k, Result: res, Duration: time.Since(start)})
	}
	return outcomes
}
