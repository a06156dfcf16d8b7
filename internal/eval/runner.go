package eval

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ppiankov/worldview/internal/agent"
	"github.com/ppiankov/worldview/internal/logging"
	"github.com/ppiankov/worldview/internal/score"
	"github.com/ppiankov/worldview/internal/worker"
)

// CaseResult is the outcome of one case
type CaseResult struct {
	Case       Case          `json:"case"`
	Content    string        `json:"content"`
	Score      score.Score   `json:"score"`
	Attempts   int           `json:"attempts"`
	TokensUsed int           `json:"tokens_used"`
	Rejection  string        `json:"rejection,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`

	err error
}

// GetError returns the agent error, if any
func (r *CaseResult) GetError() error {
	return r.err
}

// Success reports whether the case ran without error and passed scoring
func (r *CaseResult) Success() bool {
	return r.Error == "" && r.Score.Passed()
}

// Report is the result of one evaluation run
type Report struct {
	RunID     string        `json:"run_id"`
	Provider  string        `json:"provider"`
	Model     string        `json:"model,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Results   []*CaseResult `json:"results"`
	Summary   Summary       `json:"summary"`
}

// Runner evaluates cases concurrently
type Runner struct {
	agent    *agent.Agent
	scorer   *score.Scorer
	workers  int
	provider string
	model    string
	log      zerolog.Logger
}

// NewRunner creates a runner. provider and model only label the report.
func NewRunner(a *agent.Agent, scorer *score.Scorer, workers int, provider, model string) *Runner {
	if scorer == nil {
		scorer = score.NewScorer()
	}
	return &Runner{
		agent:    a,
		scorer:   scorer,
		workers:  workers,
		provider: provider,
		model:    model,
		log:      logging.Component("eval"),
	}
}

type caseJob struct {
	c      Case
	runner *Runner
}

func (j *caseJob) Execute(ctx context.Context) worker.Result {
	return j.runner.runCase(ctx, j.c)
}

// Run evaluates cases and summarizes them. Results keep case order; cases
// not started before ctx is cancelled are missing from the report.
func (r *Runner) Run(ctx context.Context, cases []Case) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		Provider:  r.provider,
		Model:     r.model,
		StartedAt: time.Now().UTC(),
	}
	log := r.log.With().Str("run", report.RunID).Logger()
	log.Debug().Int("cases", len(cases)).Int("workers", r.workers).Msg("starting eval run")

	jobs := make([]worker.Job, len(cases))
	for i, c := range cases {
		jobs[i] = &caseJob{c: c, runner: r}
	}

	for _, res := range worker.Run(ctx, r.workers, jobs) {
		cr := res.(*CaseResult)
		report.Results = append(report.Results, cr)
		log.Debug().
			Str("case", cr.Case.ID).
			Float64("score", cr.Score.Overall).
			Bool("passed", cr.Success()).
			Msg("case finished")
	}

	report.Duration = time.Since(report.StartedAt)
	report.Summary = Summarize(report.Results)
	return report
}

// RunCase evaluates a single case
func (r *Runner) RunCase(ctx context.Context, c Case) *CaseResult {
	return r.runCase(ctx, c)
}

func (r *Runner) runCase(ctx context.Context, c Case) *CaseResult {
	start := time.Now()
	result := &CaseResult{Case: c}

	out, err := r.agent.Apply(ctx, c.Fact, c.BaseContent)
	if out != nil {
		result.Attempts = out.Attempts
		result.TokensUsed = out.TokensUsed
	}

	switch {
	case err == nil:
		result.Content = out.Content
	case errors.Is(err, agent.ErrRejected):
		// A rejected fact leaves the document as it was
		result.Rejection = out.Rejection
		result.Content = c.BaseContent
	default:
		result.err = err
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	result.Score = r.scorer.Score(result.Content, c.Expected)
	result.Duration = time.Since(start)
	return result
}
