package model

// Claim is an assertion within a facet (4-space indent, '-' prefix)
type Claim struct {
	Text         string      `json:"text"`                   // Claim text segment, whitespace-normalized
	Relation     *Relation   `json:"relation,omitempty"`     // Set when the text is "operand OP operand"
	Conditions   []Condition `json:"conditions,omitempty"`   // '|' qualifiers
	Sources      []Source    `json:"sources,omitempty"`      // '@' attributions
	References   []Reference `json:"references,omitempty"`  // '&' links
	Modifiers    []Modifier  `json:"modifiers,omitempty"`    // Set semantics, token table order
	Supersession string      `json:"supersession,omitempty"` // Prior belief from [<= ...]
	Line         int         `json:"line,omitempty"`
}

// Relation is a brief-form triple such as "power => corruption"
type Relation struct {
	Left     string `json:"left"`
	Operator string `json:"operator"` // Symbol as written, e.g. "=>"
	Right    string `json:"right"`
}

// Condition is free text following '|'
type Condition struct {
	Text string `json:"text"`
}

// Source is an identifier following '@'
type Source struct {
	ID string `json:"id"`
}

// Reference links to another concept or concept.facet. The target is not
// checked for existence.
type Reference struct {
	Concept string `json:"concept"`
	Facet   string `json:"facet,omitempty"`
}

// Modifier is the table name of a modifier symbol (e.g. "uncertain")
type Modifier string

const (
	ModifierIncreasing Modifier = "increasing"
	ModifierDecreasing Modifier = "decreasing"
	ModifierEmphatic   Modifier = "emphatic"
	ModifierUncertain  Modifier = "uncertain"
	ModifierNotable    Modifier = "notable"
)

// HasModifier reports whether the claim carries m
func (c *Claim) HasModifier(m Modifier) bool {
	for _, have := range c.Modifiers {
		if have == m {
			return true
		}
	}
	return false
}

// Target renders the reference as Concept or Concept.facet using sep
func (r Reference) Target(sep string) string {
	if r.Facet == "" {
		return r.Concept
	}
	return r.Concept + sep + r.Facet
}
