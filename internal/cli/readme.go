package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lightningmd/lightningmd/internal/adapter"
	"github.com/lightningmd/lightningmd/internal/config"
	ctxpkg "github.com/lightningmd/lightningmd/internal/context"
	"github.com/lightningmd/lightningmd/internal/docs"
	"github.com/lightningmd/lightningmd/internal/history"
)

// samplingFlags are the per-invocation overrides of a stored profile.
type samplingFlags struct {
	provider         string
	model            string
	temperature      float64
	topP             float64
	maxTokens        int
	presencePenalty  float64
	frequencyPenalty float64
	seed             int
	stop             []string
}

func (s *samplingFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&s.provider, "provider", "p", "", "provider override: openai, claude, gemini, ollama")
	fs.StringVarP(&s.model, "model", "m", "", "model override")
	fs.Float64Var(&s.temperature, "temperature", 0, "sampling temperature (0-2)")
	fs.Float64Var(&s.topP, "top-p", 0, "nucleus sampling (0-1)")
	fs.IntVar(&s.maxTokens, "max-tokens", 0, "maximum response tokens")
	fs.Float64Var(&s.presencePenalty, "presence-penalty", 0, "presence penalty (-2 to 2)")
	fs.Float64Var(&s.frequencyPenalty, "frequency-penalty", 0, "frequency penalty (-2 to 2)")
	fs.IntVar(&s.seed, "seed", 0, "sampling seed")
	fs.StringSliceVar(&s.stop, "stop", nil, "stop sequence (repeatable)")
}

// apply copies the flags that were set on the command line onto cfg and p.
func (s *samplingFlags) apply(fs *pflag.FlagSet, cfg *config.GlobalConfig, p *config.Profile) {
	if fs.Changed("provider") {
		cfg.Provider = s.provider
		// The configured model belongs to the previous provider.
		cfg.Model = ""
		p.Model = ""
	}
	if fs.Changed("model") {
		p.Model = s.model
	}
	if fs.Changed("temperature") {
		p.Temperature = s.temperature
	}
	if fs.Changed("top-p") {
		p.TopP = s.topP
	}
	if fs.Changed("max-tokens") {
		p.MaxTokens = s.maxTokens
	}
	if fs.Changed("presence-penalty") {
		p.PresencePenalty = s.presencePenalty
	}
	if fs.Changed("frequency-penalty") {
		p.FrequencyPenalty = s.frequencyPenalty
	}
	if fs.Changed("seed") {
		seed := s.seed
		p.Seed = &seed
	}
	if fs.Changed("stop") {
		p.Stop = s.stop
	}
}

func newReadmeCmd() *cobra.Command {
	var (
		sampling samplingFlags
		draft    bool
		req      ctxpkg.DraftRequest
		request  string
		stream   bool
		write    bool
	)

	cmd := &cobra.Command{
		Use:   "readme",
		Short: "Generate a README for the repository",
		Long: `Generate a README from the repository contents.

Sprint mode (the default) sends a short request; --prompt replaces it.
Draft mode (--draft) sends structured requirements built from the
--purpose, --detail, --focus, --sections, --tone, --audience and related
flags, and uses the draft sampling profile.

The README is printed to stdout. With --write it also replaces README.md in
the repository root; a failed generation never touches the file.

Examples:
  lightningmd readme
  lightningmd readme --stream --provider claude
  lightningmd readme --draft --audience "operators" --sections Install,Usage --write`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadProject()
			if err != nil {
				return err
			}

			profile := cfg.Profiles.Sprint
			if draft {
				profile = cfg.Profiles.Draft
			}
			sampling.apply(cmd.Flags(), &cfg, &profile)

			genCfg, err := cfg.GenerationConfig(profile)
			if err != nil {
				return err
			}

			repo, err := ctxpkg.PrepareRepo(repoOptions(root, cfg, genCfg.Model))
			if err != nil {
				return err
			}
			var user string
			if draft {
				user, err = repo.DraftPrompt(req)
			} else {
				user, err = repo.SprintPrompt(request)
			}
			if err != nil {
				return fmt.Errorf("build prompt: %w", err)
			}
			if repo.Context.Truncated {
				fmt.Fprintln(os.Stderr, warningStyle.Render(fmt.Sprintf(
					"  repository is %d tokens (budget %d); sending file names only",
					repo.Context.TokenEstimate, repo.Context.Budget)))
			}

			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			promptTokens := ctxpkg.EstimateTokens(user, genCfg.Model)
			if w := contextWindowWarning(client.Info(), promptTokens); w != "" {
				fmt.Fprintln(os.Stderr, warningStyle.Render(w))
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			var res adapter.GenerationResult
			if stream || cfg.Output.Stream {
				s := client.Stream(ctx, ctxpkg.SystemPrompt, user, genCfg)
				for fragment := range s.Fragments() {
					fmt.Fprint(out, fragment)
				}
				res = s.Result()
				fmt.Fprintln(out)
			} else {
				stopSpinner := startSpinner("  Generating README")
				res = client.Complete(ctx, ctxpkg.SystemPrompt, user, genCfg)
				stopSpinner()
				if !res.Failed() {
					fmt.Fprintln(out, res.Text)
				}
			}
			if res.Failed() {
				return fmt.Errorf("generate README: %s", res.Error)
			}

			recordGeneration(root, history.Generation{
				Kind:         "readme",
				Provider:     client.Provider(),
				Model:        genCfg.Model,
				Fingerprint:  repo.Report.Fingerprint,
				PromptTokens: promptTokens,
			}, res)

			if write {
				kind, _ := docs.Get("readme")
				path, err := docs.Write(root, docs.Outcome{Kind: kind, Result: res})
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "README written to %s\n", path)
			}
			return nil
		},
	}

	f := cmd.Flags()
	sampling.register(f)
	f.BoolVar(&draft, "draft", false, "use structured draft requirements")
	f.StringVar(&request, "prompt", "", "sprint request (default: a general README request)")
	f.StringVar(&req.Purpose, "purpose", "", "draft: purpose of the documentation")
	f.IntVar(&req.DetailLevel, "detail", 0, "draft: level of detail, 1-5")
	f.StringSliceVar(&req.FocusAreas, "focus", nil, "draft: key focus areas")
	f.StringVar(&req.CustomInstructions, "instructions", "", "draft: custom instructions")
	f.StringVar(&req.Format, "format", "", "draft: output format")
	f.StringSliceVar(&req.Sections, "sections", nil, "draft: mandatory sections")
	f.StringVar(&req.Tone, "tone", "", "draft: writing tone")
	f.StringVar(&req.Audience, "audience", "", "draft: target audience")
	f.StringVar(&req.CodeExamples, "examples", "", "draft: preference for code examples")
	f.BoolVar(&stream, "stream", false, "print the answer as it arrives")
	f.BoolVarP(&write, "write", "w", false, "replace README.md in the repository root")

	return cmd
}

// recordGeneration stores a successful result in the project history.
// History is best-effort: failures are logged, not returned.
func recordGeneration(root string, g history.Generation, res adapter.GenerationResult) {
	store, closeFn, err := openHistory(root)
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable")
		return
	}
	defer closeFn()

	id, err := store.Save(g, res)
	if err != nil {
		log.Warn().Err(err).Str("kind", g.Kind).Msg("history save failed")
		return
	}
	log.Debug().Str("id", id).Str("kind", g.Kind).Msg("generation recorded")
}
