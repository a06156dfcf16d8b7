// Package agent turns a plain-text fact into validated edits of a Worldview
// document with the help of a language model.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ppiankov/worldview/internal/cache"
	"github.com/ppiankov/worldview/internal/diag"
	"github.com/ppiankov/worldview/internal/llm"
	"github.com/ppiankov/worldview/internal/logging"
	"github.com/ppiankov/worldview/internal/render"
	"github.com/ppiankov/worldview/internal/validate"
	"github.com/ppiankov/worldview/internal/worker"
)

var (
	// ErrRejected is returned when the model declines the fact as ephemeral
	ErrRejected = errors.New("fact rejected")

	// ErrValidation is returned when no attempt produced a valid document
	ErrValidation = errors.New("edits did not produce a valid document")

	// ErrNoProvider is returned when no LLM provider is configured
	ErrNoProvider = errors.New("no LLM provider configured")
)

// Options configures an Agent. Zero values select defaults.
type Options struct {
	MaxAttempts int
	Model       string
	MaxTokens   int
	Temperature float32
	Validator   *validate.Validator
	Cache       cache.Cache
	CacheTTL    time.Duration
	Limiter     *worker.Limiter
}

// Agent asks a provider for edits, validates the result and retries with the
// diagnostics until the document is valid
type Agent struct {
	provider    llm.Provider
	validator   *validate.Validator
	cache       cache.Cache
	cacheTTL    time.Duration
	limiter     *worker.Limiter
	maxAttempts int
	model       string
	maxTokens   int
	temperature float32
	system      string
	log         zerolog.Logger
}

// Outcome describes a completed run
type Outcome struct {
	SessionID   string            `json:"session_id"`
	Content     string            `json:"content"`
	Edits       []Edit            `json:"edits,omitempty"`
	Attempts    int               `json:"attempts"`
	TokensUsed  int               `json:"tokens_used"`
	CachedTurns int               `json:"cached_turns,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"` // Warnings on success, errors of the last attempt on failure
	Rejection   string            `json:"rejection,omitempty"`
	Duration    time.Duration     `json:"duration"`
}

// New creates an agent for provider
func New(provider llm.Provider, opts Options) *Agent {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Validator == nil {
		opts.Validator = validate.Default()
	}
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}
	if opts.Limiter == nil {
		opts.Limiter = worker.NewLimiter(0, 1)
	}

	return &Agent{
		provider:    provider,
		validator:   opts.Validator,
		cache:       opts.Cache,
		cacheTTL:    opts.CacheTTL,
		limiter:     opts.Limiter,
		maxAttempts: opts.MaxAttempts,
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		system:      SystemPrompt(opts.Validator.Table()),
		log:         logging.Component("agent"),
	}
}

// Apply incorporates fact into current and returns the new document text.
// Every attempt edits current; only the feedback carries over.
func (a *Agent) Apply(ctx context.Context, fact, current string) (*Outcome, error) {
	if a.provider == nil {
		return nil, ErrNoProvider
	}
	if strings.TrimSpace(fact) == "" {
		return nil, fmt.Errorf("fact is empty")
	}

	start := time.Now()
	out := &Outcome{SessionID: uuid.NewString()}
	log := a.log.With().Str("session", out.SessionID).Str("provider", a.provider.Name()).Logger()

	messages := []llm.Message{{Role: llm.RoleUser, Content: userPrompt(fact, current)}}

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		out.Attempts = attempt

		text, tokens, cached, err := a.complete(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("attempt %d: %w", attempt, err)
		}
		out.TokensUsed += tokens
		if cached {
			out.CachedTurns++
		}
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: text})

		reply, err := parseReply(text)
		if err != nil {
			log.Debug().Int("attempt", attempt).Err(err).Msg("unusable reply")
			messages = append(messages, feedback(err.Error()))
			continue
		}
		if reply.Reject != "" {
			out.Rejection = reply.Reject
			out.Duration = time.Since(start)
			return out, fmt.Errorf("%w: %s", ErrRejected, reply.Reject)
		}

		content, err := ApplyEdits(current, reply.Edits)
		if err != nil {
			log.Debug().Int("attempt", attempt).Err(err).Msg("edit failed")
			messages = append(messages, feedback(err.Error()+"\nThe file was not modified."))
			continue
		}

		res, err := a.validator.Validate(content)
		if err != nil {
			messages = append(messages, feedback(err.Error()))
			continue
		}
		if !res.Valid() {
			out.Diagnostics = res.Errors()
			log.Debug().Int("attempt", attempt).Int("errors", len(out.Diagnostics)).Msg("validation failed")
			messages = append(messages, feedback("Validation failed - file not modified:\n"+render.DiagnosticsText(out.Diagnostics)))
			continue
		}

		out.Content = content
		out.Edits = reply.Edits
		out.Diagnostics = res.Warnings()
		out.Duration = time.Since(start)
		log.Debug().Int("attempt", attempt).Int("edits", len(reply.Edits)).Msg("edits validated")
		return out, nil
	}

	out.Duration = time.Since(start)
	return out, fmt.Errorf("%w after %d attempt(s)", ErrValidation, a.maxAttempts)
}

// AddToFile applies fact to the document at path and writes the result
// only when it validates. A missing file is treated as empty.
func (a *Agent) AddToFile(ctx context.Context, path, fact string) (*Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	out, err := a.Apply(ctx, fact, string(data))
	if err != nil {
		return out, err
	}

	if err := writeFile(path, out.Content); err != nil {
		return out, err
	}
	return out, nil
}

type cachedCompletion struct {
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
}

func (a *Agent) complete(ctx context.Context, messages []llm.Message) (string, int, bool, error) {
	parts := []string{a.provider.Name(), a.model, a.system}
	for _, m := range messages {
		parts = append(parts, m.Role, m.Content)
	}
	key := cache.Key(parts...)

	var hit cachedCompletion
	if cache.GetJSON(a.cache, key, &hit) {
		return hit.Text, 0, true, nil
	}

	if err := a.limiter.Wait(ctx, a.provider.Name()); err != nil {
		return "", 0, false, fmt.Errorf("rate limit: %w", err)
	}

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		System:      a.system,
		Messages:    messages,
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		JSON:        true,
	})
	if err != nil {
		return "", 0, false, fmt.Errorf("%s completion: %w", a.provider.Name(), err)
	}

	if err := cache.SetJSON(a.cache, key, cachedCompletion{Text: resp.Text, Tokens: resp.TokensUsed}, a.cacheTTL); err != nil {
		a.log.Warn().Err(err).Msg("cache write failed")
	}
	return resp.Text, resp.TokensUsed, false, nil
}

func parseReply(text string) (*Reply, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("reply is not a JSON object: %w", err)
	}
	var reply Reply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, fmt.Errorf("reply is not valid JSON: %w", err)
	}
	if reply.Reject == "" && len(reply.Edits) == 0 {
		return nil, errors.New(`reply has neither "edits" nor "reject"`)
	}
	return &reply, nil
}

func feedback(text string) llm.Message {
	return llm.Message{Role: llm.RoleUser, Content: text}
}

// writeFile replaces path through a temporary file in the same directory
func writeFile(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".worldview-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
