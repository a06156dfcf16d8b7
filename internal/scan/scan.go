package scan

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/worldview/internal/diag"
	"github.com/ppiankov/worldview/internal/tokens"
)

// tabWidth is how many columns a tab counts for when inferring the level
const tabWidth = 2

// Line is one classified non-blank input line
type Line struct {
	Number         int    // 1-based line number
	Width          int    // Leading whitespace width, tabs counted as tabWidth
	Level          int    // Nearest valid indentation at or below Width
	Marker         string // Hierarchy symbol at the start of the content, or ""
	MarkerColumn   int    // 1-based rune column of Marker (0 when absent)
	Residual       string // Content after indentation and marker
	ResidualColumn int    // 1-based rune column where Residual starts
	BadIndent      bool   // An IndentationError was reported for this line
}

// Scanner splits text into classified lines
type Scanner struct {
	indents []int
	markers []tokens.Token
}

// New creates a scanner over the hierarchy markers of table
func New(table *tokens.Table) *Scanner {
	return &Scanner{
		indents: table.Indents(),
		markers: table.ByCategory(tokens.CategoryHierarchy),
	}
}

// Scan classifies every non-blank line of text. Lines end at LF, CRLF or a
// bare CR. Indentation and line-ending problems are reported to dc; scanning
// never stops early.
func (s *Scanner) Scan(text string, dc *diag.Collector) []Line {
	raw := splitLines(text)
	lines := make([]Line, 0, len(raw))

	first := ""
	warned := false
	for i, r := range raw {
		number := i + 1

		if r.ending != "" {
			switch {
			case first == "":
				first = r.ending
			case r.ending != first && !warned:
				warned = true
				dc.Add(diag.MixedLineEndings, number, utf8.RuneCountInString(r.text)+1,
					"line ending %s differs from line 1 (%s)", endingName(r.ending), endingName(first))
			}
		}

		if IsBlank(r.text) {
			continue
		}
		lines = append(lines, s.classify(number, r.text, dc))
	}

	return lines
}

type rawLine struct {
	text   string
	ending string // "\n", "\r\n", "\r", or "" for the final segment
}

func splitLines(text string) []rawLine {
	var out []rawLine
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			out = append(out, rawLine{text: text[start:i], ending: "\n"})
			start = i + 1
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				out = append(out, rawLine{text: text[start:i], ending: "\r\n"})
				i++
			} else {
				out = append(out, rawLine{text: text[start:i], ending: "\r"})
			}
			start = i + 1
		}
	}
	return append(out, rawLine{text: text[start:]})
}

func endingName(ending string) string {
	switch ending {
	case "\r\n":
		return "CRLF"
	case "\r":
		return "CR"
	default:
		return "LF"
	}
}

func (s *Scanner) classify(number int, text string, dc *diag.Collector) Line {
	line := Line{Number: number}

	width, runes, tabCol := 0, 0, 0
	for _, r := range text {
		if r == ' ' {
			width++
		} else if r == '\t' {
			if tabCol == 0 {
				tabCol = runes + 1
			}
			width += tabWidth
		} else {
			break
		}
		runes++
	}
	line.Width = width
	line.Level = s.roundDown(width)

	switch {
	case tabCol > 0:
		line.BadIndent = true
		dc.Add(diag.IndentationError, number, tabCol, "tabs not permitted")
	case !s.validWidth(width):
		line.BadIndent = true
		dc.Add(diag.IndentationError, number, 1,
			"indentation of %d spaces is not one of %s", width, s.widthList())
	}

	content := strings.TrimLeft(text, " \t")
	col := runes + 1

	if tok, ok := s.marker(content); ok {
		line.Marker = tok.Symbol
		line.MarkerColumn = col
		content = content[len(tok.Symbol):]
		col += utf8.RuneCountInString(tok.Symbol)
	}
	line.Residual = content
	line.ResidualColumn = col

	return line
}

// marker returns the longest hierarchy symbol that prefixes content
func (s *Scanner) marker(content string) (tokens.Token, bool) {
	var best tokens.Token
	found := false
	for _, tok := range s.markers {
		if strings.HasPrefix(content, tok.Symbol) && len(tok.Symbol) > len(best.Symbol) {
			best = tok
			found = true
		}
	}
	return best, found
}

func (s *Scanner) roundDown(width int) int {
	level := 0
	for _, w := range s.indents {
		if w <= width {
			level = w
		}
	}
	return level
}

func (s *Scanner) validWidth(width int) bool {
	for _, w := range s.indents {
		if w == width {
			return true
		}
	}
	return false
}

func (s *Scanner) widthList() string {
	parts := make([]string, len(s.indents))
	for i, w := range s.indents {
		parts[i] = fmt.Sprint(w)
	}
	return strings.Join(parts, ", ")
}

// IsBlank reports whether a line holds only whitespace
func IsBlank(line string) bool {
	return strings.IndexFunc(line, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
