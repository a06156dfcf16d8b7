package validate

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ppiankov/worldview/internal/claim"
	"github.com/ppiankov/worldview/internal/diag"
	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/scan"
	"github.com/ppiankov/worldview/internal/tokens"
)

// InvalidUTF8Error is returned when the input is not valid UTF-8. It is the
// only error Validate returns; every other problem is a diagnostic.
type InvalidUTF8Error struct {
	Line   int
	Column int
	Offset int // Byte offset of the first invalid byte
}

func (e *InvalidUTF8Error) Error() string {
	return fmt.Sprintf("invalid UTF-8 at line %d, column %d (byte %d)", e.Line, e.Column, e.Offset)
}

// Result pairs the parsed document with every diagnostic found. The document
// is returned even when there are errors.
type Result struct {
	Document    *model.Document   `json:"document"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

// Valid reports whether the document has no error diagnostics
func (r *Result) Valid() bool {
	for _, d := range r.Diagnostics {
		if d.IsError() {
			return false
		}
	}
	return true
}

// Errors returns the error diagnostics
func (r *Result) Errors() []diag.Diagnostic {
	return diag.Errors(r.Diagnostics)
}

// Warnings returns the warning diagnostics
func (r *Result) Warnings() []diag.Diagnostic {
	return diag.Warnings(r.Diagnostics)
}

// Validator parses Worldview text against one token table. It holds no
// per-call state and is safe for concurrent use.
type Validator struct {
	table   *tokens.Table
	scanner *scan.Scanner
	claims  *claim.Parser
}

// New creates a validator for table
func New(table *tokens.Table) *Validator {
	return &Validator{
		table:   table,
		scanner: scan.New(table),
		claims:  claim.New(table),
	}
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns the validator for the embedded token table
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultValidator = New(tokens.Default())
	})
	return defaultValidator
}

// Validate checks text with the default token table
func Validate(text string) (*Result, error) {
	return Default().Validate(text)
}

// Table returns the token table the validator reads
func (v *Validator) Table() *tokens.Table {
	return v.table
}

// Validate parses text in one pass and collects all diagnostics
func (v *Validator) Validate(text string) (*Result, error) {
	if err := checkUTF8(text); err != nil {
		return nil, err
	}

	dc := diag.NewCollector()
	lines := v.scanner.Scan(text, dc)
	doc := newParser(v.table, v.claims, dc).parse(lines)

	return &Result{
		Document:    doc,
		Diagnostics: dc.Sorted(),
	}, nil
}

// ValidateBytes is Validate for raw file contents
func (v *Validator) ValidateBytes(data []byte) (*Result, error) {
	return v.Validate(string(data))
}

func checkUTF8(text string) error {
	if utf8.ValidString(text) {
		return nil
	}

	line, col := 1, 1
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size <= 1 {
			return &InvalidUTF8Error{Line: line, Column: col, Offset: i}
		}
		if r == '\n' || (r == '\r' && !strings.HasPrefix(text[i+size:], "\n")) {
			line++
			col = 1
		} else {
			col++
		}
		i += size
	}
	return nil
}
