package eval

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Tally counts cases in one bucket
type Tally struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
}

// Rate is Successful/Total, 0 for an empty bucket
func (t Tally) Rate() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Successful) / float64(t.Total)
}

// Summary aggregates a run. Averages skip cases that errored.
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Errors     int `json:"errors"`

	ByComplexity map[Complexity]Tally `json:"by_complexity"`

	AvgSyntax   float64       `json:"avg_syntax_score"`
	AvgConcepts float64       `json:"avg_concept_score"`
	AvgOverall  float64       `json:"avg_overall_score"`
	AvgTokens   float64       `json:"avg_tokens"`
	AvgAttempts float64       `json:"avg_attempts"`
	AvgDuration time.Duration `json:"avg_duration_ns"`
}

// SuccessRate is Successful/Total
func (s Summary) SuccessRate() float64 {
	return Tally{Total: s.Total, Successful: s.Successful}.Rate()
}

// Summarize aggregates results
func Summarize(results []*CaseResult) Summary {
	s := Summary{ByComplexity: make(map[Complexity]Tally)}

	var scored int
	var duration time.Duration
	for _, r := range results {
		s.Total++
		t := s.ByComplexity[r.Case.Complexity]
		t.Total++

		switch {
		case r.Error != "":
			s.Errors++
		case r.Success():
			s.Successful++
			t.Successful++
		default:
			s.Failed++
		}
		s.ByComplexity[r.Case.Complexity] = t

		if r.Error != "" {
			continue
		}
		scored++
		s.AvgSyntax += r.Score.Syntax
		s.AvgConcepts += r.Score.Concepts
		s.AvgOverall += r.Score.Overall
		s.AvgTokens += float64(r.TokensUsed)
		s.AvgAttempts += float64(r.Attempts)
		duration += r.Duration
	}

	if scored > 0 {
		n := float64(scored)
		s.AvgSyntax /= n
		s.AvgConcepts /= n
		s.AvgOverall /= n
		s.AvgTokens /= n
		s.AvgAttempts /= n
		s.AvgDuration = duration / time.Duration(scored)
	}
	return s
}

// WriteText prints a per-case table followed by the summary
func WriteText(w io.Writer, report *Report) {
	fmt.Fprintf(w, "Run %s (%s", report.RunID, report.Provider)
	if report.Model != "" {
		fmt.Fprintf(w, " %s", report.Model)
	}
	fmt.Fprintf(w, ")\n\n")

	for _, r := range report.Results {
		status := "✓"
		detail := fmt.Sprintf("%.2f", r.Score.Overall)
		switch {
		case r.Error != "":
			status = "!"
			detail = "error: " + r.Error
		case !r.Success():
			status = "✗"
		}
		if r.Rejection != "" {
			detail += " (rejected: " + r.Rejection + ")"
		}
		fmt.Fprintf(w, "%s %-28s %-9s %s\n", status, r.Case.ID, r.Case.Complexity, detail)
		if r.Error == "" && r.Score.Notes != "" {
			fmt.Fprintf(w, "    %s\n", r.Score.Notes)
		}
	}

	s := report.Summary
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("-", 48))
	fmt.Fprintf(w, "Passed: %d/%d (%.1f%%), failed %d, errors %d\n",
		s.Successful, s.Total, s.SuccessRate()*100, s.Failed, s.Errors)
	for _, c := range Complexities {
		t, ok := s.ByComplexity[c]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-9s %d/%d (%.1f%%)\n", c, t.Successful, t.Total, t.Rate()*100)
	}
	fmt.Fprintf(w, "Avg score %.2f, syntax %.2f, concepts %.2f\n", s.AvgOverall, s.AvgSyntax, s.AvgConcepts)
	fmt.Fprintf(w, "Avg tokens %.0f, attempts %.1f, time %s\n", s.AvgTokens, s.AvgAttempts, s.AvgDuration.Round(time.Millisecond))
}
