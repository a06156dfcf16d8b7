package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/worldview/internal/agent"
	"github.com/ppiankov/worldview/internal/cache"
	"github.com/ppiankov/worldview/internal/llm"
	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/pipeline"
	"github.com/ppiankov/worldview/internal/render"
	"github.com/ppiankov/worldview/internal/validate"
	"github.com/ppiankov/worldview/internal/worker"
)

var (
	addFile        string
	addURL         string
	addMaxAttempts int
	llmProvider    string
	llmModel       string
	noCache        bool
)

// newProvider is replaced in tests
var newProvider = llm.NewProvider

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <fact>",
	Short: "Add a fact to a Worldview document with an LLM",
	Long: `Add asks a language model to encode a fact as edits to a Worldview
document. The edited document is validated and the model is shown the
diagnostics until it produces a valid document or runs out of attempts.
The file is only written when the result has no errors.

With --url the fact is taken from the declarative statements of a web page
and attributed to that page; a fact given alongside is passed as a note.

Example:
  worldview add "Trust builds slowly and collapses fast"
  worldview add "Water boils at 100C at sea level" --file science.wvf
  worldview add --url https://en.wikipedia.org/wiki/Trust_(social_science)
  worldview add "..." --llm-provider anthropic --llm-model claude-sonnet-4-20250514`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addFile, "file", "f", "", "document to edit (default from config: worldview.wvf)")
	addCmd.Flags().StringVar(&addURL, "url", "", "take the fact from a web page")
	addCmd.Flags().IntVar(&addMaxAttempts, "max-attempts", 0, "attempts before giving up (default from config)")
	addLLMFlags(addCmd)
}

// addLLMFlags registers the flags shared by commands that talk to a model
func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the LLM response cache")
}

// applyLLMFlags overrides cfg with the LLM flags the user set on cmd
func applyLLMFlags(cmd *cobra.Command, cfg *model.Config) {
	if cmd.Flags().Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if cmd.Flags().Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if cmd.Flags().Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
}

// newAgent wires a provider, cache and limiter from cfg into an agent
func newAgent(cfg *model.Config, v *validate.Validator) (*agent.Agent, llm.Provider, *worker.Limiter, error) {
	provider, err := newProvider(llm.ApplyEnv(llm.ConfigFromModel(cfg)))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create LLM provider: %w", err)
	}
	if provider == nil {
		return nil, nil, nil, fmt.Errorf("%w (use --llm-provider or set llm.provider)", agent.ErrNoProvider)
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	if provider.Name() == "ollama" {
		// Local model, no remote quota
		limiter.SetRate(provider.Name(), 0, 0)
	}
	a := agent.New(provider, agent.Options{
		MaxAttempts: cfg.Agent.MaxAttempts,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Validator:   v,
		Cache:       cache.New(cfg.Cache),
		CacheTTL:    cfg.Cache.TTL,
		Limiter:     limiter,
	})
	return a, provider, limiter, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	fact := ""
	if len(args) == 1 {
		fact = args[0]
	}
	if fact == "" && addURL == "" {
		return errors.New("a fact or --url is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLLMFlags(cmd, cfg)
	if cmd.Flags().Changed("file") {
		cfg.Agent.File = addFile
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.Agent.MaxAttempts = addMaxAttempts
	}

	v, err := loadValidator(cfg)
	if err != nil {
		return err
	}
	a, provider, limiter, err := newAgent(cfg, v)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !provider.IsAvailable(ctx) {
		return fmt.Errorf("LLM provider %s is not available", provider.Name())
	}

	stderr := cmd.ErrOrStderr()
	if verbose {
		fmt.Fprintf(stderr, "Provider: %s/%s\n", provider.Name(), cfg.LLM.Model)
		fmt.Fprintf(stderr, "File:     %s\n", cfg.Agent.File)
	}

	var out *agent.Outcome
	if addURL != "" {
		var res *pipeline.Result
		res, err = pipeline.NewPipeline(cfg, a, limiter).AddFromURL(ctx, cfg.Agent.File, addURL, fact)
		if res != nil {
			out = res.Outcome
			if verbose {
				fmt.Fprintf(stderr, "Source:   %s (%d statements)\n", res.Source.FinalURL, len(res.Source.Statements))
			}
		}
	} else {
		out, err = a.AddToFile(ctx, cfg.Agent.File, fact)
	}

	return reportOutcome(cmd.OutOrStdout(), stderr, cfg, out, err)
}

func reportOutcome(stdout, stderr io.Writer, cfg *model.Config, out *agent.Outcome, err error) error {
	if cfg.Output.Format == "json" && out != nil {
		if jsonErr := render.JSON(stdout, out); jsonErr != nil {
			return jsonErr
		}
	}

	switch {
	case errors.Is(err, agent.ErrRejected):
		fmt.Fprintf(stderr, "– not added: %v\n", err)
		return nil

	case errors.Is(err, agent.ErrValidation):
		fmt.Fprintf(stderr, "✗ %s not modified: %v\n", cfg.Agent.File, err)
		if out != nil {
			_ = render.Diagnostics(stderr, "", out.Diagnostics)
		}
		return &ExitError{Code: exitInvalid}

	case err != nil:
		return err
	}

	if len(out.Diagnostics) > 0 {
		_ = render.Diagnostics(stderr, cfg.Agent.File, out.Diagnostics)
	}
	fmt.Fprintf(stderr, "✓ %s updated (%d edit(s), %d attempt(s), %d tokens)\n",
		cfg.Agent.File, len(out.Edits), out.Attempts, out.TokensUsed)
	return nil
}
