// Package extract pulls candidate facts out of web pages.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

const (
	minSentence = 30
	maxSentence = 500
)

// Statement is one declarative sentence found on a page
type Statement struct {
	Text string `json:"text"`

	// Signal is the keyword that marks the sentence as a definitional or
	// historical claim, empty when none matched
	Signal string `json:"signal,omitempty"`

	// Index is the sentence's position among extracted statements
	Index int `json:"index"`
}

var defaultSignals = []string{
	"originated", "origin", "first", "introduced", "invented",
	"according to", "is defined as", "refers to", "is a", "are a",
	"established", "founded", "created", "discovered", "developed",
	"requires", "depends on", "leads to", "causes",
}

var footnotePattern = regexp.MustCompile(`\[(?:\d+|[a-z]|citation needed|note \d+)\]`)

// Extractor turns HTML into statements
type Extractor struct {
	registry *Registry
	signals  []string
}

// NewExtractor creates an extractor with the built-in site layouts
func NewExtractor() *Extractor {
	return &Extractor{
		registry: NewRegistry(),
		signals:  defaultSignals,
	}
}

// Statements returns the declarative sentences of a page with the default
// extractor
func Statements(htmlContent, pageURL string) ([]Statement, error) {
	return NewExtractor().Extract(htmlContent, pageURL)
}

// Extract returns deduplicated sentences of 30 to 500 characters from the
// page's visible text, in document order
func (e *Extractor) Extract(htmlContent, pageURL string) ([]Statement, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	site := e.registry.Find(pageURL)
	root := site.Content(doc)
	if root == nil {
		root = doc
	}

	var out []Statement
	seen := make(map[string]bool)
	for _, block := range visibleBlocks(root, site) {
		for _, sentence := range splitSentences(block) {
			key := strings.ToLower(sentence)
			if seen[key] || !declarative(sentence) {
				continue
			}
			seen[key] = true
			out = append(out, Statement{
				Text:   sentence,
				Signal: e.signal(key),
				Index:  len(out),
			})
		}
	}
	return out, nil
}

func (e *Extractor) signal(lower string) string {
	for _, kw := range e.signals {
		if containsWord(lower, kw) {
			return kw
		}
	}
	return ""
}

// Select returns up to n statements, preferring those with a signal and
// keeping document order among the chosen
func Select(stmts []Statement, n int) []Statement {
	if n <= 0 || len(stmts) <= n {
		return stmts
	}
	ranked := make([]Statement, len(stmts))
	copy(ranked, stmts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Signal != "" && ranked[j].Signal == ""
	})
	ranked = ranked[:n]
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Index < ranked[j].Index })
	return ranked
}

// visibleBlocks collects the text of each block-level element separately
// so sentences never run across paragraphs
func visibleBlocks(root *html.Node, site Site) []string {
	var blocks []string
	var buf strings.Builder

	flush := func() {
		text := strings.Join(strings.Fields(buf.String()), " ")
		if text != "" {
			blocks = append(blocks, text)
		}
		buf.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skippedElements[n.Data] || site.Skip(n) {
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			return
		}

		block := n.Type == html.ElementNode && isBlock(n.Data)
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}

	walk(root)
	flush()
	return blocks
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "dl", "dd", "dt", "blockquote",
		"h1", "h2", "h3", "h4", "h5", "h6", "section", "article", "main",
		"table", "tr", "td", "th", "br", "pre", "figure", "figcaption":
		return true
	}
	return false
}

// splitSentences splits text at terminators followed by whitespace and an
// upper-case letter or digit, which keeps "e.g. this" and "U.S. law" whole
func splitSentences(text string) []string {
	text = footnotePattern.ReplaceAllString(text, "")
	runes := []rune(text)

	var sentences []string
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i + 1
		for j < len(runes) && (runes[j] == '"' || runes[j] == '\'' || runes[j] == ')' || runes[j] == '”') {
			j++
		}
		if j < len(runes) && !unicode.IsSpace(runes[j]) {
			continue
		}
		k := j
		for k < len(runes) && unicode.IsSpace(runes[k]) {
			k++
		}
		if k < len(runes) && !unicode.IsUpper(runes[k]) && !unicode.IsDigit(runes[k]) {
			continue
		}
		sentences = appendSentence(sentences, string(runes[start:j]))
		start = k
	}
	if start < len(runes) {
		sentences = appendSentence(sentences, string(runes[start:]))
	}
	return sentences
}

func appendSentence(sentences []string, s string) []string {
	s = strings.Join(strings.Fields(s), " ")
	if n := len([]rune(s)); n >= minSentence && n <= maxSentence {
		sentences = append(sentences, s)
	}
	return sentences
}

// declarative filters out questions, headings and fragments
func declarative(s string) bool {
	if strings.HasSuffix(s, "?") {
		return false
	}
	last := []rune(s)
	end := last[len(last)-1]
	if end != '.' && end != '!' && end != '"' && end != ')' && end != '”' {
		return false
	}
	return len(strings.Fields(s)) >= 5
}

func containsWord(lower, kw string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], kw)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordByte(lower[i-1])
		after := i+len(kw) >= len(lower) || !isWordByte(lower[i+len(kw)])
		if before && after {
			return true
		}
		idx = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
