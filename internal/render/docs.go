package render

import (
	"fmt"
	"strings"

	"github.com/ppiankov/worldview/internal/tokens"
)

// exampleDocument is shown in the system prompt. It must stay valid.
const exampleDocument = `Trust
  .formation
    - slow
    - requires consistency | over time
  .erosion
    - fast !
    - asymmetric vs formation &Trust.formation`

// Markdown renders the token table as reference tables
func Markdown(table *tokens.Table) string {
	var b strings.Builder

	b.WriteString("### Hierarchy\n\n")
	b.WriteString("| Element | Notation | Indentation |\n")
	b.WriteString("|---------|----------|-------------|\n")
	b.WriteString("| Concept | Bare text | None (column 0) |\n")
	for _, tok := range table.ByCategory(tokens.CategoryHierarchy) {
		fmt.Fprintf(&b, "| %s | `%s` | %d spaces |\n", title(tok.Name), tok.Symbol, tok.Indent)
	}
	b.WriteString("\n")

	b.WriteString("### Inline Elements\n\n")
	b.WriteString("| Element | Symbol | Meaning | Example |\n")
	b.WriteString("|---------|--------|---------|---------|\n")
	for _, tok := range table.ByCategory(tokens.CategoryInline) {
		fmt.Fprintf(&b, "| %s | `%s` | %s | `%s` |\n", title(tok.Name), tok.Symbol, tok.Description, tok.Example)
	}
	b.WriteString("\n")

	b.WriteString("## Brief Forms\n\n")
	b.WriteString("Minimal operators for common relationships (less common relationships use natural language):\n\n")
	symbolTable(&b, "Symbol", table.ByCategory(tokens.CategoryBriefForm))

	b.WriteString("## Modifiers\n\n")
	b.WriteString("Suffix markers inflect claim meaning:\n\n")
	symbolTable(&b, "Modifier", table.ByCategory(tokens.CategoryModifier))

	b.WriteString("## Evolution\n\n")
	open, _ := table.Named(tokens.CategorySupersession, tokens.RoleSupersessionOpen)
	fmt.Fprintf(&b, "Supersession marker `%s prior%s` %s:\n\n", open.Symbol,
		table.Symbol(tokens.CategorySupersession, tokens.RoleSupersessionClose), open.Description)
	fmt.Fprintf(&b, "```\n%s\n```\n", open.Example)

	return b.String()
}

// SystemPrompt renders the condensed notation guide given to language models
func SystemPrompt(table *tokens.Table) string {
	var b strings.Builder

	b.WriteString("# Worldview System Prompt\n\n")
	b.WriteString("You maintain a Worldview format document: a compact notation encoding beliefs, stances, and understanding. ")
	b.WriteString("The entire document is always in context; you update it as you learn.\n\n")

	b.WriteString("## Structure\n\n```\n")
	b.WriteString("Concept           (unindented)\n")
	for _, tok := range table.ByCategory(tokens.CategoryHierarchy) {
		line := strings.Repeat(" ", tok.Indent) + tok.Symbol + tok.Name
		fmt.Fprintf(&b, "%-18s(%d-space indent, %q prefix)\n", line, tok.Indent, tok.Symbol)
	}
	b.WriteString("```\n\n")
	b.WriteString("Every concept has facets. Every facet has claims. Claims may include conditions, sources, and references.\n\n")

	b.WriteString("## Notation\n\n")
	b.WriteString("| Symbol | Meaning | Example |\n")
	b.WriteString("|--------|---------|---------|\n")
	for _, tok := range table.ByCategory(tokens.CategoryInline) {
		fmt.Fprintf(&b, "| `%s` | %s (%s) | `%s` |\n", tok.Symbol, tok.Name, tok.Description, tok.Example)
	}
	for _, tok := range table.ByCategory(tokens.CategoryBriefForm) {
		fmt.Fprintf(&b, "| `%s` | %s | `%s` |\n", tok.Symbol, tok.Description, tok.Example)
	}
	for _, tok := range table.ByCategory(tokens.CategoryModifier) {
		fmt.Fprintf(&b, "| `%s` | %s | `%s` |\n", tok.Symbol, tok.Description, tok.Example)
	}
	open, _ := table.Named(tokens.CategorySupersession, tokens.RoleSupersessionOpen)
	closeSym := table.Symbol(tokens.CategorySupersession, tokens.RoleSupersessionClose)
	fmt.Fprintf(&b, "| `%s prior%s` | supersedes | `%s` |\n\n", open.Symbol, closeSym,
		strings.TrimPrefix(open.Example, table.Symbol(tokens.CategoryHierarchy, tokens.RoleClaim)+" "))

	cond := table.Symbol(tokens.CategoryInline, tokens.RoleCondition)
	src := table.Symbol(tokens.CategoryInline, tokens.RoleSource)
	ref := table.Symbol(tokens.CategoryInline, tokens.RoleReference)
	claim := table.Symbol(tokens.CategoryHierarchy, tokens.RoleClaim)

	b.WriteString("## Claim Order\n\n```\n")
	fmt.Fprintf(&b, "%s claim %s condition %ssource %sreference\n", claim, cond, src, ref)
	b.WriteString("```\n\n")
	b.WriteString("Position implies role. No labels needed.\n\n")

	b.WriteString("## Maintenance Rules\n\n")
	b.WriteString("- **Add** new concepts, facets, or claims as understanding develops\n")
	b.WriteString("- **Update** claims by replacing them or adding supersession markers\n")
	fmt.Fprintf(&b, "- **Reference** related concepts with `%s` rather than duplicating\n", ref)
	b.WriteString("- **Preserve** density: no prose, articles, or filler\n")
	b.WriteString("- **Tolerate** contradiction: conflicting claims may coexist\n\n")

	b.WriteString("## What's Stored vs Derived\n\n")
	b.WriteString("**Stored:** Claims, conditions, sources, references, structure\n\n")
	b.WriteString("**Derived at runtime:** Confidence (from sources/conditions), predictions, evaluations, identity\n\n")

	b.WriteString("## Example\n\n```\n")
	b.WriteString(exampleDocument)
	b.WriteString("\n```\n\n")
	b.WriteString("When you encounter information that refines understanding, update the Worldview document.\n")

	return b.String()
}

// ExampleDocument returns the sample document used in the system prompt
func ExampleDocument() string {
	return exampleDocument + "\n"
}

func symbolTable(b *strings.Builder, header string, toks []tokens.Token) {
	fmt.Fprintf(b, "| %s | Meaning | Example |\n", header)
	fmt.Fprintf(b, "|%s|---------|---------|\n", strings.Repeat("-", len(header)+2))
	for _, tok := range toks {
		fmt.Fprintf(b, "| `%s` | %s | `%s` |\n", tok.Symbol, tok.Description, tok.Example)
	}
	b.WriteString("\n")
}

func title(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
