package diag

import (
	"fmt"
	"sort"
)

// Kind classifies a diagnostic
type Kind string

const (
	IndentationError      Kind = "IndentationError"
	OrphanFacet           Kind = "OrphanFacet"
	OrphanClaim           Kind = "OrphanClaim"
	MissingFacet          Kind = "MissingFacet"
	MissingClaim          Kind = "MissingClaim"
	MissingMarker         Kind = "MissingMarker"
	MisplacedMarker       Kind = "MisplacedMarker"
	EmptyName             Kind = "EmptyName"
	EmptyClaimBody        Kind = "EmptyClaimBody"
	EmptyCondition        Kind = "EmptyCondition"
	MalformedSource       Kind = "MalformedSource"
	MalformedReference    Kind = "MalformedReference"
	MalformedSupersession Kind = "MalformedSupersession"
	UnknownSymbol         Kind = "UnknownSymbol"
	NonCanonicalOrder     Kind = "NonCanonicalOrder"
	MixedLineEndings      Kind = "MixedLineEndings"
	InvalidUTF8           Kind = "InvalidUtf8" // Fatal, never collected
)

// Severity is error or warning
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Severity returns the fixed severity of the kind
func (k Kind) Severity() Severity {
	switch k {
	case NonCanonicalOrder, MixedLineEndings:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Diagnostic is one located problem. Line and Column are 1-based; Column
// counts runes.
type Diagnostic struct {
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// String renders the diagnostic as <line>:<column>: <kind>: <message>
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Column, d.Kind, d.Message)
}

// IsError reports whether the diagnostic makes the document invalid
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Collector accumulates diagnostics across both parser stages
type Collector struct {
	items []Diagnostic
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Add records a diagnostic. Positions below 1 are clamped to 1.
func (c *Collector) Add(kind Kind, line, col int, format string, args ...interface{}) {
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	c.items = append(c.items, Diagnostic{
		Line:     line,
		Column:   col,
		Kind:     kind,
		Severity: kind.Severity(),
		Message:  msg,
	})
}

// Len returns the number of diagnostics collected so far
func (c *Collector) Len() int {
	return len(c.items)
}

// Sorted returns the diagnostics ordered by position. Diagnostics at the same
// position keep the order they were added in.
func (c *Collector) Sorted() []Diagnostic {
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Column < out[j].Column
	})
	return out
}

// Errors filters diagnostics of error severity
func Errors(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

// Warnings filters diagnostics of warning severity
func Warnings(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if !d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

// Count returns how many diagnostics have the given kind
func Count(diags []Diagnostic, kind Kind) int {
	n := 0
	for _, d := range diags {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
