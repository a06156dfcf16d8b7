package validate

import (
	"strings"

	"github.com/ppiankov/worldview/internal/claim"
	"github.com/ppiankov/worldview/internal/diag"
	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/scan"
	"github.com/ppiankov/worldview/internal/tokens"
)

type state int

const (
	awaitingConcept state = iota
	inConcept
	inFacet
)

// parser builds the concept/facet/claim tree from classified lines. One
// parser is used per document.
type parser struct {
	table  *tokens.Table
	claims *claim.Parser
	dc     *diag.Collector

	doc   *model.Document
	state state

	concept  *model.Concept
	facet    *model.Facet
	facetCol int

	// Lines nested below a skipped line are dropped without further
	// structural diagnostics until the indentation returns to shadow or
	// less. Claim bodies on dropped lines are still checked.
	shadowed bool
	shadow   int

	claimMarker string
}

func newParser(table *tokens.Table, claims *claim.Parser, dc *diag.Collector) *parser {
	return &parser{
		table:       table,
		claims:      claims,
		dc:          dc,
		doc:         &model.Document{Concepts: []model.Concept{}},
		claimMarker: table.Symbol(tokens.CategoryHierarchy, tokens.RoleClaim),
	}
}

func (p *parser) parse(lines []scan.Line) *model.Document {
	for _, l := range lines {
		p.line(l)
	}
	p.closeConcept()
	return p.doc
}

func (p *parser) line(l scan.Line) {
	if p.shadowed {
		if l.Level > p.shadow {
			p.checkDropped(l)
			return
		}
		p.shadowed = false
	}

	if l.BadIndent {
		p.skip(l)
		return
	}

	if l.Level == 0 {
		if l.Marker != "" {
			p.misplaced(l)
			return
		}
		p.openConcept(l)
		return
	}

	want, ok := p.table.HierarchyAt(l.Level)
	if !ok {
		// Custom table with no marker for this indent
		p.skip(l)
		return
	}
	if l.Marker != want.Symbol {
		if l.Marker != "" {
			p.misplaced(l)
			return
		}
		p.dc.Add(diag.MissingMarker, l.Number, l.ResidualColumn,
			"line at indent %d must start with %q (%s)", l.Level, want.Symbol, want.Name)
		p.skip(l)
		return
	}

	switch want.Name {
	case tokens.RoleFacet:
		p.openFacet(l)
	case tokens.RoleClaim:
		p.addClaim(l)
	}
}

func (p *parser) openConcept(l scan.Line) {
	p.closeConcept()
	p.concept = &model.Concept{
		Name:   strings.TrimSpace(l.Residual),
		Line:   l.Number,
		Facets: []model.Facet{},
	}
	p.state = inConcept
}

func (p *parser) openFacet(l scan.Line) {
	if p.state == awaitingConcept {
		p.dc.Add(diag.OrphanFacet, l.Number, l.MarkerColumn, "facet appears before any concept")
		p.skip(l)
		return
	}

	p.closeFacet()
	name := strings.TrimSpace(l.Residual)
	if name == "" {
		p.dc.Add(diag.EmptyName, l.Number, l.MarkerColumn, "facet marker %q has no name", l.Marker)
	}
	p.facet = &model.Facet{Name: name, Line: l.Number, Claims: []model.Claim{}}
	p.facetCol = l.MarkerColumn
	p.state = inFacet
}

func (p *parser) addClaim(l scan.Line) {
	if p.state != inFacet {
		if p.concept == nil {
			p.dc.Add(diag.OrphanClaim, l.Number, l.MarkerColumn, "claim appears before any concept")
		} else {
			p.dc.Add(diag.OrphanClaim, l.Number, l.MarkerColumn,
				"claim under concept %q has no facet", p.concept.Name)
		}
		p.skip(l)
		return
	}

	c := p.claims.Parse(l.Residual, l.Number, l.ResidualColumn, p.dc)
	p.facet.Claims = append(p.facet.Claims, c)
}

func (p *parser) misplaced(l scan.Line) {
	tok, _ := p.table.Lookup(tokens.CategoryHierarchy, l.Marker)
	p.dc.Add(diag.MisplacedMarker, l.Number, l.MarkerColumn,
		"%q marks a %s and belongs at indent %d, not %d", l.Marker, tok.Name, tok.Indent, l.Level)
	p.skip(l)
}

// skip drops l and shadows the lines nested under it. The shadow depth is
// the deeper of the line's indent and the indent its marker implies.
func (p *parser) skip(l scan.Line) {
	p.checkDropped(l)
	level := l.Level
	if tok, ok := p.table.Lookup(tokens.CategoryHierarchy, l.Marker); ok && tok.Indent > level {
		level = tok.Indent
	}
	p.shadowed = true
	p.shadow = level
}

// checkDropped reports claim-body problems on a claim line that is not
// attached to the tree
func (p *parser) checkDropped(l scan.Line) {
	if l.Marker != "" && l.Marker == p.claimMarker {
		p.claims.Parse(l.Residual, l.Number, l.ResidualColumn, p.dc)
	}
}

func (p *parser) closeFacet() {
	if p.facet == nil {
		return
	}
	if len(p.facet.Claims) == 0 {
		p.dc.Add(diag.MissingClaim, p.facet.Line, p.facetCol, "facet %q has no claims", p.facet.Name)
	}
	p.concept.Facets = append(p.concept.Facets, *p.facet)
	p.facet = nil
}

func (p *parser) closeConcept() {
	if p.concept == nil {
		return
	}
	p.closeFacet()
	if len(p.concept.Facets) == 0 {
		p.dc.Add(diag.MissingFacet, p.concept.Line, 1, "concept %q has no facets", p.concept.Name)
	}
	p.doc.Concepts = append(p.doc.Concepts, *p.concept)
	p.concept = nil
}
