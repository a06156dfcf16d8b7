package tokens

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tokens.yaml
var defaultSource []byte

// Category classifies what a symbol means to the parser
type Category string

const (
	CategoryHierarchy    Category = "hierarchy"    // Line markers for facets and claims
	CategoryInline       Category = "inline"       // Trailer markers inside a claim body
	CategoryBriefForm    Category = "brief_form"   // Relation operators
	CategoryModifier     Category = "modifier"     // Single-symbol inflections
	CategorySupersession Category = "supersession" // [<= prior] markers
)

// Role names the parser asks the table for
const (
	RoleFacet              = "facet"
	RoleClaim              = "claim"
	RoleCondition          = "condition"
	RoleSource             = "source"
	RoleReference          = "reference"
	RoleReferenceSeparator = "reference_separator"
	RoleSupersessionOpen   = "supersession_open"
	RoleSupersessionClose  = "supersession_close"
)

var requiredRoles = map[Category][]string{
	CategoryHierarchy:    {RoleFacet, RoleClaim},
	CategoryInline:       {RoleCondition, RoleSource, RoleReference, RoleReferenceSeparator},
	CategorySupersession: {RoleSupersessionOpen, RoleSupersessionClose},
}

// Token is one record of the token table
type Token struct {
	Symbol      string   `yaml:"symbol" json:"symbol"`
	Category    Category `yaml:"category" json:"category"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Example     string   `yaml:"example,omitempty" json:"example,omitempty"`
	Indent      int      `yaml:"indent,omitempty" json:"indent,omitempty"` // Hierarchy only
}

type tableFile struct {
	Tokens []Token `yaml:"tokens"`
}

type key struct {
	category Category
	symbol   string
}

// Table is the immutable symbol table. All lookups are safe for concurrent use.
type Table struct {
	tokens   []Token
	bySymbol map[key]Token
	byName   map[Category]map[string]Token
	indents  []int
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the table built from the embedded tokens.yaml.
// It is parsed once per process.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(defaultSource)
		if err != nil {
			panic(fmt.Sprintf("tokens: embedded table is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Load parses and checks a token table in the tokens.yaml format
func Load(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse token table: %w", err)
	}
	return New(f.Tokens)
}

// New builds a table from records
func New(records []Token) (*Table, error) {
	t := &Table{
		tokens:   make([]Token, 0, len(records)),
		bySymbol: make(map[key]Token, len(records)),
		byName:   make(map[Category]map[string]Token),
	}

	indentSet := map[int]bool{0: true}
	for i, tok := range records {
		switch tok.Category {
		case CategoryHierarchy, CategoryInline, CategoryBriefForm, CategoryModifier, CategorySupersession:
		default:
			return nil, fmt.Errorf("token %d (%q): unknown category %q", i, tok.Symbol, tok.Category)
		}
		if tok.Symbol == "" {
			return nil, fmt.Errorf("token %d (%s): empty symbol", i, tok.Name)
		}
		if tok.Name == "" {
			return nil, fmt.Errorf("token %d (%q): empty name", i, tok.Symbol)
		}

		k := key{tok.Category, tok.Symbol}
		if _, dup := t.bySymbol[k]; dup {
			return nil, fmt.Errorf("token %q: duplicate in category %s", tok.Symbol, tok.Category)
		}
		names := t.byName[tok.Category]
		if names == nil {
			names = make(map[string]Token)
			t.byName[tok.Category] = names
		}
		if _, dup := names[tok.Name]; dup {
			return nil, fmt.Errorf("token name %q: duplicate in category %s", tok.Name, tok.Category)
		}

		if tok.Category == CategoryHierarchy {
			if tok.Indent <= 0 {
				return nil, fmt.Errorf("hierarchy token %q: indent must be positive", tok.Symbol)
			}
			indentSet[tok.Indent] = true
		}

		t.bySymbol[k] = tok
		names[tok.Name] = tok
		t.tokens = append(t.tokens, tok)
	}

	for cat, roles := range requiredRoles {
		for _, role := range roles {
			if _, ok := t.byName[cat][role]; !ok {
				return nil, fmt.Errorf("missing required %s token %q", cat, role)
			}
		}
	}

	for w := range indentSet {
		t.indents = append(t.indents, w)
	}
	sort.Ints(t.indents)

	return t, nil
}

// Lookup finds the token for a symbol within a category
func (t *Table) Lookup(cat Category, symbol string) (Token, bool) {
	tok, ok := t.bySymbol[key{cat, symbol}]
	return tok, ok
}

// Find returns every token that uses the symbol, in table order
func (t *Table) Find(symbol string) []Token {
	var out []Token
	for _, tok := range t.tokens {
		if tok.Symbol == symbol {
			out = append(out, tok)
		}
	}
	return out
}

// Symbol returns the symbol registered for a role name, or "" if absent
func (t *Table) Symbol(cat Category, name string) string {
	return t.byName[cat][name].Symbol
}

// Named returns the token registered for a role name
func (t *Table) Named(cat Category, name string) (Token, bool) {
	tok, ok := t.byName[cat][name]
	return tok, ok
}

// ByCategory returns the tokens of a category in table order
func (t *Table) ByCategory(cat Category) []Token {
	var out []Token
	for _, tok := range t.tokens {
		if tok.Category == cat {
			out = append(out, tok)
		}
	}
	return out
}

// All returns a copy of every record in table order
func (t *Table) All() []Token {
	out := make([]Token, len(t.tokens))
	copy(out, t.tokens)
	return out
}

// Indents returns the valid indentation widths, ascending, starting at 0
func (t *Table) Indents() []int {
	out := make([]int, len(t.indents))
	copy(out, t.indents)
	return out
}

// HierarchyAt returns the hierarchy token whose indent equals width
func (t *Table) HierarchyAt(width int) (Token, bool) {
	for _, tok := range t.tokens {
		if tok.Category == CategoryHierarchy && tok.Indent == width {
			return tok, true
		}
	}
	return Token{}, false
}

// IsModifierRune reports whether r alone is a modifier symbol
func (t *Table) IsModifierRune(r rune) bool {
	_, ok := t.bySymbol[key{CategoryModifier, string(r)}]
	return ok
}

// Marshal renders the table back into the tokens.yaml format
func (t *Table) Marshal() ([]byte, error) {
	return yaml.Marshal(tableFile{Tokens: t.tokens})
}
