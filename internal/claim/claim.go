package claim

import (
	"strings"
	"unicode"

	"github.com/ppiankov/worldview/internal/diag"
	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/tokens"
)

// group identifies a trailer group. The values are the canonical order.
type group int

const (
	groupText group = iota - 1
	groupCondition
	groupSource
	groupReference
)

func (g group) String() string {
	switch g {
	case groupCondition:
		return "condition"
	case groupSource:
		return "source"
	case groupReference:
		return "reference"
	default:
		return "text"
	}
}

// segment is a run of the claim body introduced by a trailer marker
type segment struct {
	kind    group
	start   int    // Rune index of the marker (or 0 for the text segment)
	content []rune // Runes after the marker
	offset  int    // Rune index where content starts
}

// Parser turns the residual text of a claim line into a model.Claim.
// It is safe for concurrent use.
type Parser struct {
	table      *tokens.Table
	condition  []rune
	source     []rune
	reference  []rune
	separator  string
	supOpen    []rune
	supClose   []rune
	briefForms map[string]bool
	modifiers  []tokens.Token
	inline     []string
}

// New creates a claim parser driven by table
func New(table *tokens.Table) *Parser {
	p := &Parser{
		table:      table,
		condition:  []rune(table.Symbol(tokens.CategoryInline, tokens.RoleCondition)),
		source:     []rune(table.Symbol(tokens.CategoryInline, tokens.RoleSource)),
		reference:  []rune(table.Symbol(tokens.CategoryInline, tokens.RoleReference)),
		separator:  table.Symbol(tokens.CategoryInline, tokens.RoleReferenceSeparator),
		supOpen:    []rune(table.Symbol(tokens.CategorySupersession, tokens.RoleSupersessionOpen)),
		supClose:   []rune(table.Symbol(tokens.CategorySupersession, tokens.RoleSupersessionClose)),
		briefForms: make(map[string]bool),
		modifiers:  table.ByCategory(tokens.CategoryModifier),
	}
	for _, tok := range table.ByCategory(tokens.CategoryBriefForm) {
		p.briefForms[tok.Symbol] = true
	}
	for _, tok := range table.ByCategory(tokens.CategoryInline) {
		p.inline = append(p.inline, tok.Symbol)
	}
	return p
}

// Parse parses body, the text after the claim marker. line and col locate the
// first rune of body so diagnostics point into the original line.
func (p *Parser) Parse(body string, line, col int, dc *diag.Collector) model.Claim {
	c := model.Claim{Line: line}
	rs := []rune(body)

	c.Supersession = p.extractSupersession(rs, line, col, dc)

	var (
		textWords []string
		maxRank   = groupText
		warned    bool
		found     = make(map[string]bool)
	)

	absorb := func(text string) {
		if n := len(c.Conditions); n > 0 {
			c.Conditions[n-1].Text += " " + text
			return
		}
		textWords = append(textWords, text)
	}

	for _, seg := range p.split(rs) {
		if seg.kind == groupText {
			textWords = append(textWords, strings.Fields(string(seg.content))...)
			continue
		}

		var (
			ok   bool
			tail []word
		)
		switch seg.kind {
		case groupCondition:
			text := normalize(seg.content)
			if text == "" {
				dc.Add(diag.EmptyCondition, line, col+seg.start, "condition marker %q has no text", string(p.condition))
				break
			}
			c.Conditions = append(c.Conditions, model.Condition{Text: text})
			ok = true
		case groupSource:
			var id string
			id, tail = splitWord(seg.content, seg.offset)
			ok = p.addSource(&c, id, line, col+seg.start, dc)
		default:
			var target string
			target, tail = splitWord(seg.content, seg.offset)
			ok = p.addReference(&c, target, line, col+seg.start, dc)
		}

		// Malformed trailers do not count towards the order
		if ok {
			if seg.kind < maxRank && !warned {
				warned = true
				dc.Add(diag.NonCanonicalOrder, line, col+seg.start,
					"%s after %s; expected conditions, then sources, then references", seg.kind, maxRank)
			}
			if seg.kind > maxRank {
				maxRank = seg.kind
			}
		}

		var stray []word
		for _, w := range tail {
			if p.isModifierWord(w.text) {
				for _, r := range w.text {
					found[string(r)] = true
				}
				continue
			}
			stray = append(stray, w)
		}
		if len(stray) == 0 {
			continue
		}
		text := joinWords(stray)
		if ok {
			dc.Add(diag.UnknownSymbol, line, col+stray[0].index,
				"unexpected %q after %s; only %s, %s or %s may follow", text, seg.kind,
				string(p.condition), string(p.source), string(p.reference))
		}
		absorb(text)
	}

	c.Text = strings.Join(textWords, " ")
	if c.Text == "" {
		dc.Add(diag.EmptyClaimBody, line, col, "claim has no text")
		return c
	}

	words := strings.Fields(c.Text)
	p.collectModifiers(words, found)

	if rel, at := p.relation(words); rel != nil {
		c.Relation = rel
		p.collectModifiers(words[:at], found)
	}

	for _, tok := range p.modifiers {
		if found[tok.Symbol] {
			c.Modifiers = append(c.Modifiers, model.Modifier(tok.Name))
		}
	}

	return c
}

// extractSupersession removes every [<= ... ] span from rs, replacing it with
// spaces so later columns stay valid, and returns the first prior text
func (p *Parser) extractSupersession(rs []rune, line, col int, dc *diag.Collector) string {
	var prior string
	found := false

	for i := 0; i < len(rs); {
		if !hasAt(rs, i, p.supOpen) {
			i++
			continue
		}

		start := i
		inner := i + len(p.supOpen)
		end := index(rs, inner, p.supClose)
		terminated := end >= 0
		next := len(rs)
		if terminated {
			next = end + len(p.supClose)
		} else {
			end = len(rs)
		}
		text := normalize(rs[inner:end])
		blank(rs, start, next)

		switch {
		case found:
			dc.Add(diag.MalformedSupersession, line, col+start, "claim already has a supersession marker")
		case !terminated:
			dc.Add(diag.MalformedSupersession, line, col+start, "supersession marker is missing %q", string(p.supClose))
		case text == "":
			dc.Add(diag.MalformedSupersession, line, col+start, "supersession marker has no prior belief")
		}

		if !found {
			prior = text
			found = true
		}
		i = next
	}

	return prior
}

// split cuts rs at trailer markers. '|' is a marker anywhere; '@' and '&'
// at the start of a word or right after a source or reference identifier.
func (p *Parser) split(rs []rune) []segment {
	segs := []segment{{kind: groupText}}
	from := 0
	ident := -1 // Rune index where the current source or reference word starts

	for i := 0; i < len(rs); {
		if unicode.IsSpace(rs[i]) {
			ident = -1
		}
		kind, width := p.markerAt(rs, i, ident >= 0 && i > ident)
		if width == 0 {
			i++
			continue
		}
		segs[len(segs)-1].content = rs[from:i]
		segs = append(segs, segment{kind: kind, start: i, offset: i + width})
		i += width
		from = i
		ident = -1
		if kind != groupCondition {
			ident = i
		}
	}
	segs[len(segs)-1].content = rs[from:]

	return segs
}

func (p *Parser) markerAt(rs []rune, i int, afterIdent bool) (group, int) {
	if hasAt(rs, i, p.condition) {
		return groupCondition, len(p.condition)
	}
	if !afterIdent && !p.wordStart(rs, i) {
		return groupText, 0
	}
	if hasAt(rs, i, p.source) {
		return groupSource, len(p.source)
	}
	if hasAt(rs, i, p.reference) {
		return groupReference, len(p.reference)
	}
	return groupText, 0
}

func (p *Parser) wordStart(rs []rune, i int) bool {
	return i == 0 || unicode.IsSpace(rs[i-1]) || hasSuffix(rs[:i], p.condition)
}

func (p *Parser) addSource(c *model.Claim, id string, line, col int, dc *diag.Collector) bool {
	if id == "" {
		dc.Add(diag.MalformedSource, line, col, "source marker %q has no identifier", string(p.source))
		return false
	}
	for _, r := range id {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			dc.Add(diag.MalformedSource, line, col,
				"source %q may only contain letters, digits and '-'", id)
			return false
		}
	}
	c.Sources = append(c.Sources, model.Source{ID: id})
	return true
}

func (p *Parser) addReference(c *model.Claim, target string, line, col int, dc *diag.Collector) bool {
	if target == "" {
		dc.Add(diag.MalformedReference, line, col, "reference marker %q has no concept name", string(p.reference))
		return false
	}
	if sym := p.leadingMarker(target); sym != "" {
		dc.Add(diag.MalformedReference, line, col,
			"reference marker %q is followed by %q instead of a concept name", string(p.reference), sym)
		return false
	}

	parts := strings.Split(target, p.separator)
	switch {
	case len(parts) > 2:
		dc.Add(diag.MalformedReference, line, col,
			"reference %q has more than one %q", target, p.separator)
		return false
	case parts[0] == "":
		dc.Add(diag.MalformedReference, line, col, "reference %q has no concept name", target)
		return false
	case len(parts) == 2 && parts[1] == "":
		dc.Add(diag.MalformedReference, line, col, "reference %q has an empty facet name", target)
		return false
	}
	for _, part := range parts {
		if strings.IndexFunc(part, notNameRune) >= 0 {
			dc.Add(diag.MalformedReference, line, col,
				"reference %q may only contain letters, digits, '-' and '_'", target)
			return false
		}
	}

	ref := model.Reference{Concept: parts[0]}
	if len(parts) == 2 {
		ref.Facet = parts[1]
	}
	c.References = append(c.References, ref)
	return true
}

// leadingMarker returns the inline symbol that target starts with, if any
func (p *Parser) leadingMarker(target string) string {
	for _, sym := range p.inline {
		if sym != "" && strings.HasPrefix(target, sym) {
			return sym
		}
	}
	return ""
}

func notNameRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_'
}

// relation finds the single whole-word brief-form operator in words and
// returns the relation and the operator's index
func (p *Parser) relation(words []string) (*model.Relation, int) {
	at := -1
	for i, w := range words {
		if !p.briefForms[w] {
			continue
		}
		if at >= 0 {
			return nil, -1
		}
		at = i
	}
	if at <= 0 || at == len(words)-1 {
		return nil, -1
	}

	left := p.operand(words[:at])
	right := p.operand(words[at+1:])
	if left == "" || right == "" {
		return nil, -1
	}
	return &model.Relation{Left: left, Operator: words[at], Right: right}, at
}

// operand joins words with modifiers removed
func (p *Parser) operand(words []string) string {
	var kept []string
	for _, w := range words {
		if !p.isModifierWord(w) {
			kept = append(kept, w)
		}
	}
	if n := len(kept); n > 0 {
		kept[n-1] = p.stripSuffix(kept[n-1])
	}
	return strings.Join(kept, " ")
}

// collectModifiers records modifiers at the end of words: standalone modifier
// words, then symbols glued to the last ordinary word
func (p *Parser) collectModifiers(words []string, found map[string]bool) {
	for i := len(words) - 1; i >= 0; i-- {
		w := words[i]
		if p.isModifierWord(w) {
			for _, r := range w {
				found[string(r)] = true
			}
			continue
		}
		rs := []rune(w)
		for j := len(rs) - 1; j > 0 && p.isSuffixRune(rs[j]); j-- {
			found[string(rs[j])] = true
		}
		return
	}
}

func (p *Parser) isModifierWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !p.table.IsModifierRune(r) {
			return false
		}
	}
	return true
}

// isSuffixRune reports whether r may be glued to a word as a modifier.
// Letter symbols such as 'v' only count standalone.
func (p *Parser) isSuffixRune(r rune) bool {
	return p.table.IsModifierRune(r) && !unicode.IsLetter(r)
}

func (p *Parser) stripSuffix(w string) string {
	rs := []rune(w)
	end := len(rs)
	for end > 1 && p.isSuffixRune(rs[end-1]) {
		end--
	}
	return string(rs[:end])
}

type word struct {
	text  string
	index int // Rune index within the claim body
}

// splitWord returns the first word of content (which must start right after
// a marker) and the remaining whitespace-separated words
func splitWord(content []rune, offset int) (string, []word) {
	end := 0
	for end < len(content) && !unicode.IsSpace(content[end]) {
		end++
	}
	first := string(content[:end])

	var tail []word
	for i := end; i < len(content); {
		if unicode.IsSpace(content[i]) {
			i++
			continue
		}
		j := i
		for j < len(content) && !unicode.IsSpace(content[j]) {
			j++
		}
		tail = append(tail, word{text: string(content[i:j]), index: offset + i})
		i = j
	}
	return first, tail
}

func joinWords(ws []word) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.text
	}
	return strings.Join(parts, " ")
}

func normalize(rs []rune) string {
	return strings.Join(strings.Fields(string(rs)), " ")
}

func hasAt(rs []rune, i int, sym []rune) bool {
	if len(sym) == 0 || i+len(sym) > len(rs) {
		return false
	}
	for k, r := range sym {
		if rs[i+k] != r {
			return false
		}
	}
	return true
}

func hasSuffix(rs []rune, sym []rune) bool {
	return len(rs) >= len(sym) && hasAt(rs, len(rs)-len(sym), sym)
}

func index(rs []rune, from int, sym []rune) int {
	for i := from; i < len(rs); i++ {
		if hasAt(rs, i, sym) {
			return i
		}
	}
	return -1
}

func blank(rs []rune, from, to int) {
	for i := from; i < to; i++ {
		rs[i] = ' '
	}
}
