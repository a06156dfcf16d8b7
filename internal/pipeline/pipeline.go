package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/worldview/internal/agent"
	"github.com/ppiankov/worldview/internal/extract"
	"github.com/ppiankov/worldview/internal/fetch"
	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/worker"
)

// ErrNoStatements is returned when a page has nothing to encode
var ErrNoStatements = errors.New("no declarative statements found")

// Pipeline orchestrates add --url: fetch a page, pick its statements and
// hand them to the agent as one fact
type Pipeline struct {
	fetcher       *fetch.Fetcher
	extractor     *extract.Extractor
	agent         *agent.Agent
	maxStatements int
}

// NewPipeline creates a pipeline. Fetches are paced per host by limiter.
func NewPipeline(cfg *model.Config, a *agent.Agent, limiter *worker.Limiter) *Pipeline {
	n := cfg.Agent.Statements
	if n <= 0 {
		n = 5
	}
	return &Pipeline{
		fetcher:       fetch.NewFetcher(cfg.HTTP, limiter),
		extractor:     extract.NewExtractor(),
		agent:         a,
		maxStatements: n,
	}
}

// Source is a fact sourced from a web page
type Source struct {
	URL        string              `json:"url"`
	FinalURL   string              `json:"final_url"`
	Subject    string              `json:"subject"`
	SourceID   string              `json:"source_id"`
	Statements []extract.Statement `json:"statements"`
	Fact       string              `json:"fact"`
}

// Result pairs the page that was read with the agent's outcome
type Result struct {
	Source  *Source        `json:"source"`
	Outcome *agent.Outcome `json:"outcome,omitempty"`
}

// FactFromURL fetches rawURL and builds a fact from its most relevant
// statements. A non-empty note is placed before them.
func (p *Pipeline) FactFromURL(ctx context.Context, rawURL, note string) (*Source, error) {
	// 1. Fetch HTML
	page, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	// 2. Extract statements
	stmts, err := p.extractor.Extract(page.HTML, page.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("extract statements: %w", err)
	}
	if len(stmts) == 0 {
		return nil, fmt.Errorf("%s: %w", page.FinalURL, ErrNoStatements)
	}

	// 3. Keep the strongest few
	src := &Source{
		URL:        rawURL,
		FinalURL:   page.FinalURL,
		Subject:    page.Subject,
		SourceID:   SourceID(page.FinalURL),
		Statements: extract.Select(stmts, p.maxStatements),
	}
	src.Fact = BuildFact(src, note)
	return src, nil
}

// AddFromURL sources a fact from rawURL and adds it to the document at path
func (p *Pipeline) AddFromURL(ctx context.Context, path, rawURL, note string) (*Result, error) {
	src, err := p.FactFromURL(ctx, rawURL, note)
	if err != nil {
		return nil, err
	}

	out, err := p.agent.AddToFile(ctx, path, src.Fact)
	return &Result{Source: src, Outcome: out}, err
}

// BuildFact renders the statements of src as a single fact for the agent
func BuildFact(src *Source, note string) string {
	var b strings.Builder
	if note = strings.TrimSpace(note); note != "" {
		b.WriteString(note)
		b.WriteString("\n\n")
	}

	subject := src.Subject
	if subject == "" {
		subject = src.FinalURL
	}
	fmt.Fprintf(&b, "Statements from %q (%s):\n", subject, src.FinalURL)
	for _, s := range src.Statements {
		b.WriteString("- ")
		b.WriteString(s.Text)
		b.WriteString("\n")
	}
	if src.SourceID != "" {
		fmt.Fprintf(&b, "\nAttribute these claims to the source @%s.\n", src.SourceID)
	}
	return b.String()
}

// SourceID turns a page URL into a source identifier made of letters,
// digits and hyphens: https://en.wikipedia.org/... becomes en-wikipedia-org
func SourceID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	var b strings.Builder
	dash := false
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
