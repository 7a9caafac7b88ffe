package adapter

import (
	"fmt"
	"math"
	"strings"
)

// DefaultMaxTokens is used when no WithMaxTokens option is given.
const DefaultMaxTokens = 2048

// GenerationConfig is the sampling configuration for one call. Build it with
// NewGenerationConfig; the zero value is not valid.
type GenerationConfig struct {
	Model            string
	Temperature      float64 // [0, 2]
	TopP             float64 // [0, 1]
	MaxTokens        int     // > 0
	PresencePenalty  float64 // [-2, 2]
	FrequencyPenalty float64 // [-2, 2]
	Seed             *int
	Stop             []string
}

// Option sets one GenerationConfig field.
type Option func(*GenerationConfig)

func WithTemperature(v float64) Option      { return func(c *GenerationConfig) { c.Temperature = v } }
func WithTopP(v float64) Option             { return func(c *GenerationConfig) { c.TopP = v } }
func WithMaxTokens(v int) Option            { return func(c *GenerationConfig) { c.MaxTokens = v } }
func WithPresencePenalty(v float64) Option  { return func(c *GenerationConfig) { c.PresencePenalty = v } }
func WithFrequencyPenalty(v float64) Option { return func(c *GenerationConfig) { c.FrequencyPenalty = v } }

// WithSeed requests deterministic sampling where the provider supports it.
func WithSeed(v int) Option {
	return func(c *GenerationConfig) { c.Seed = &v }
}

// WithStop sets stop sequences. Empty strings are dropped.
func WithStop(seqs ...string) Option {
	return func(c *GenerationConfig) {
		c.Stop = nil
		for _, s := range seqs {
			if s != "" {
				c.Stop = append(c.Stop, s)
			}
		}
	}
}

// NewGenerationConfig builds and validates a config. Unset fields take the
// provider-neutral defaults: temperature 1, top_p 1, DefaultMaxTokens and no
// penalties.
func NewGenerationConfig(model string, opts ...Option) (GenerationConfig, error) {
	c := GenerationConfig{
		Model:       model,
		Temperature: 1,
		TopP:        1,
		MaxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.Validate(); err != nil {
		return GenerationConfig{}, err
	}
	return c.clone(), nil
}

// Validate checks every field range.
func (c GenerationConfig) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return &ConfigValidationError{Field: "model", Value: c.Model, Reason: "must not be empty"}
	}
	if err := checkRange("temperature", c.Temperature, 0, 2); err != nil {
		return err
	}
	if err := checkRange("top_p", c.TopP, 0, 1); err != nil {
		return err
	}
	if c.MaxTokens <= 0 {
		return &ConfigValidationError{Field: "max_tokens", Value: c.MaxTokens, Reason: "must be greater than 0"}
	}
	if err := checkRange("presence_penalty", c.PresencePenalty, -2, 2); err != nil {
		return err
	}
	if err := checkRange("frequency_penalty", c.FrequencyPenalty, -2, 2); err != nil {
		return err
	}
	return nil
}

func (c GenerationConfig) clone() GenerationConfig {
	if c.Stop != nil {
		c.Stop = append([]string(nil), c.Stop...)
	}
	if c.Seed != nil {
		s := *c.Seed
		c.Seed = &s
	}
	return c
}

func checkRange(field string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return &ConfigValidationError{
			Field:  field,
			Value:  v,
			Reason: fmt.Sprintf("must be within [%g, %g]", lo, hi),
		}
	}
	return nil
}
