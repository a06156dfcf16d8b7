package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/worldview/internal/eval"
	"github.com/ppiankov/worldview/internal/render"
	"github.com/ppiankov/worldview/internal/score"
)

var (
	evalJSON        string
	evalCases       string
	evalComplexity  string
	evalConcurrency int
)

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval [cases.yaml]",
	Short: "Measure how well a model writes Worldview documents",
	Long: `Eval runs write-evaluation cases through the add agent and scores each
result for syntax, expected concepts, facets, operators and terms, and claim
count. Nothing is written to disk except the optional JSON report.

Without a cases file the built-in suite of 14 cases is used.

Example:
  worldview eval --llm-provider openai --llm-model gpt-4o-mini
  worldview eval cases.yaml --concurrency 8 --json results.json
  worldview eval --complexity complex --case complex-supersession`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalJSON, "json", "", "write the full report as JSON to this path")
	evalCmd.Flags().StringVar(&evalCases, "case", "", "comma-separated case IDs to run")
	evalCmd.Flags().StringVar(&evalComplexity, "complexity", "", "only run cases of this complexity (simple, moderate, complex)")
	evalCmd.Flags().IntVar(&evalConcurrency, "concurrency", 0, "cases run in parallel (default from config)")
	addLLMFlags(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLLMFlags(cmd, cfg)
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = evalConcurrency
	}

	cases := eval.DefaultCases()
	if len(args) == 1 {
		if cases, err = eval.LoadCases(args[0]); err != nil {
			return err
		}
	}

	var ids []string
	for _, id := range strings.Split(evalCases, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	cases = eval.Filter(cases, ids, eval.Complexity(evalComplexity))
	if len(cases) == 0 {
		return errors.New("no cases selected")
	}

	v, err := loadValidator(cfg)
	if err != nil {
		return err
	}
	a, provider, _, err := newAgent(cfg, v)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !provider.IsAvailable(ctx) {
		return fmt.Errorf("LLM provider %s is not available", provider.Name())
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "⚙️  Running %d case(s) with %d worker(s)...\n\n", len(cases), cfg.Concurrency.Workers)

	runner := eval.NewRunner(a, score.NewScorerWithValidator(v), cfg.Concurrency.Workers, provider.Name(), cfg.LLM.Model)
	report := runner.Run(ctx, cases)

	if evalJSON != "" {
		if err := render.JSONFile(evalJSON, report); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "✓ Report written to %s\n\n", evalJSON)
	}
	if cfg.Output.Format == "json" {
		return render.JSON(cmd.OutOrStdout(), report)
	}

	eval.WriteText(cmd.OutOrStdout(), report)
	return nil
}
