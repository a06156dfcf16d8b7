package model

// Document is the root of a parsed Worldview file
type Document struct {
	Concepts []Concept `json:"concepts"`
}

// Concept is a top-level subject of belief (unindented line)
type Concept struct {
	Name   string  `json:"name"`
	Line   int     `json:"line,omitempty"` // Header line, 0 when built in code
	Facets []Facet `json:"facets"`
}

// Facet is a named aspect of a concept (2-space indent, '.' prefix)
type Facet struct {
	Name   string  `json:"name"`
	Line   int     `json:"line,omitempty"`
	Claims []Claim `json:"claims"`
}

// Concept returns the first concept with the given name
func (d *Document) Concept(name string) (*Concept, bool) {
	for i := range d.Concepts {
		if d.Concepts[i].Name == name {
			return &d.Concepts[i], true
		}
	}
	return nil, false
}

// Facet returns the first facet with the given name
func (c *Concept) Facet(name string) (*Facet, bool) {
	for i := range c.Facets {
		if c.Facets[i].Name == name {
			return &c.Facets[i], true
		}
	}
	return nil, false
}

// Stats counts the nodes of a document
type Stats struct {
	Concepts   int `json:"concepts"`
	Facets     int `json:"facets"`
	Claims     int `json:"claims"`
	Relations  int `json:"relations"`
	References int `json:"references"`
}

// Stats walks the document once
func (d *Document) Stats() Stats {
	var s Stats
	s.Concepts = len(d.Concepts)
	for _, c := range d.Concepts {
		s.Facets += len(c.Facets)
		for _, f := range c.Facets {
			s.Claims += len(f.Claims)
			for _, cl := range f.Claims {
				if cl.Relation != nil {
					s.Relations++
				}
				s.References += len(cl.References)
			}
		}
	}
	return s
}

// Operators returns the distinct relation operators used, in order of first use
func (d *Document) Operators() []string {
	seen := make(map[string]bool)
	var ops []string
	for _, c := range d.Concepts {
		for _, f := range c.Facets {
			for _, cl := range f.Claims {
				if cl.Relation != nil && !seen[cl.Relation.Operator] {
					seen[cl.Relation.Operator] = true
					ops = append(ops, cl.Relation.Operator)
				}
			}
		}
	}
	return ops
}

// StripPositions returns a copy of the document with all line numbers zeroed.
// Used to compare trees parsed from differently laid out text.
func (d *Document) StripPositions() *Document {
	out := &Document{Concepts: make([]Concept, len(d.Concepts))}
	for i, c := range d.Concepts {
		nc := Concept{Name: c.Name, Facets: make([]Facet, len(c.Facets))}
		for j, f := range c.Facets {
			nf := Facet{Name: f.Name, Claims: make([]Claim, len(f.Claims))}
			for k, cl := range f.Claims {
				cl.Line = 0
				nf.Claims[k] = cl
			}
			nc.Facets[j] = nf
		}
		out.Concepts[i] = nc
	}
	return out
}
