package render

import (
	"strings"

	"github.com/ppiankov/worldview/internal/claim"
	"github.com/ppiankov/worldview/internal/diag"
	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/tokens"
)

// Printer writes documents in canonical Worldview layout
type Printer struct {
	facetPrefix string
	claimPrefix string
	condition   string
	source      string
	reference   string
	separator   string
	supOpen     string
	supClose    string
	table       *tokens.Table
	claims      *claim.Parser
}

// NewPrinter creates a printer that uses the symbols of table
func NewPrinter(table *tokens.Table) *Printer {
	facet, _ := table.Named(tokens.CategoryHierarchy, tokens.RoleFacet)
	marker, _ := table.Named(tokens.CategoryHierarchy, tokens.RoleClaim)

	return &Printer{
		facetPrefix: strings.Repeat(" ", facet.Indent) + facet.Symbol,
		claimPrefix: strings.Repeat(" ", marker.Indent) + marker.Symbol + " ",
		condition:   table.Symbol(tokens.CategoryInline, tokens.RoleCondition),
		source:      table.Symbol(tokens.CategoryInline, tokens.RoleSource),
		reference:   table.Symbol(tokens.CategoryInline, tokens.RoleReference),
		separator:   table.Symbol(tokens.CategoryInline, tokens.RoleReferenceSeparator),
		supOpen:     table.Symbol(tokens.CategorySupersession, tokens.RoleSupersessionOpen),
		supClose:    table.Symbol(tokens.CategorySupersession, tokens.RoleSupersessionClose),
		table:       table,
		claims:      claim.New(table),
	}
}

// Document prints doc with the default token table
func Document(doc *model.Document) string {
	return NewPrinter(tokens.Default()).Print(doc)
}

// Print renders doc with a blank line between concepts and a trailing newline
func (p *Printer) Print(doc *model.Document) string {
	var b strings.Builder
	for i, c := range doc.Concepts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.Name)
		b.WriteString("\n")
		for _, f := range c.Facets {
			b.WriteString(p.facetPrefix)
			b.WriteString(f.Name)
			b.WriteString("\n")
			for _, cl := range f.Claims {
				b.WriteString(p.claimPrefix)
				b.WriteString(p.Claim(cl))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// Claim renders a claim body in canonical order:
// text [<= prior] | condition @source &Concept.facet
func (p *Printer) Claim(c model.Claim) string {
	parts := make([]string, 0, 1+len(c.Conditions)+len(c.Sources)+len(c.References))
	if text := p.text(c); text != "" {
		parts = append(parts, text)
	}
	if c.Supersession != "" {
		parts = append(parts, p.supOpen+" "+c.Supersession+p.supClose)
	}
	for _, cond := range c.Conditions {
		parts = append(parts, p.condition+" "+cond.Text)
	}
	for _, s := range c.Sources {
		parts = append(parts, p.source+s.ID)
	}
	for _, r := range c.References {
		parts = append(parts, p.reference+r.Target(p.separator))
	}
	return strings.Join(parts, " ")
}

// text is the claim text followed by standalone symbols for modifiers the
// text does not carry itself
func (p *Printer) text(c model.Claim) string {
	if len(c.Modifiers) == 0 || c.Text == "" {
		return c.Text
	}
	own := p.claims.Parse(c.Text, c.Line, 1, diag.NewCollector())

	text := c.Text
	for _, m := range c.Modifiers {
		if own.HasModifier(m) {
			continue
		}
		if sym := p.table.Symbol(tokens.CategoryModifier, string(m)); sym != "" {
			text += " " + sym
		}
	}
	return text
}
