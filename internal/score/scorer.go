package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/tokens"
	"github.com/ppiankov/worldview/internal/validate"
)

// Component weights of the overall score
const (
	WeightSyntax    = 0.20
	WeightConcepts  = 0.20
	WeightFacets    = 0.15
	WeightOperators = 0.15
	WeightTerms     = 0.20
	WeightClaims    = 0.10

	// PassThreshold is the minimum overall score of a passing case
	PassThreshold = 0.5
)

// Expected describes what a generated document should contain
type Expected struct {
	RequiredConcepts  []string `yaml:"required_concepts,omitempty" json:"required_concepts,omitempty"`
	RequiredFacets    []string `yaml:"required_facets,omitempty" json:"required_facets,omitempty"`
	RequiredOperators []string `yaml:"required_operators,omitempty" json:"required_operators,omitempty"`
	RequiredTerms     []string `yaml:"required_terms,omitempty" json:"required_terms,omitempty"`
	ForbiddenTerms    []string `yaml:"forbidden_terms,omitempty" json:"forbidden_terms,omitempty"`
	MinClaims         int      `yaml:"min_claims,omitempty" json:"min_claims,omitempty"`
}

// Score is the breakdown for one generated document. Component scores are in [0, 1].
type Score struct {
	SyntaxValid    bool     `json:"syntax_valid"`
	SyntaxErrors   []string `json:"syntax_errors,omitempty"`
	SyntaxWarnings []string `json:"syntax_warnings,omitempty"`

	ConceptsFound    []string `json:"concepts_found,omitempty"`
	ConceptsMissing  []string `json:"concepts_missing,omitempty"`
	FacetsFound      []string `json:"facets_found,omitempty"`
	FacetsMissing    []string `json:"facets_missing,omitempty"`
	OperatorsFound   []string `json:"operators_found,omitempty"`
	OperatorsMissing []string `json:"operators_missing,omitempty"`
	TermsFound       []string `json:"terms_found,omitempty"`
	TermsMissing     []string `json:"terms_missing,omitempty"`
	ForbiddenFound   []string `json:"forbidden_found,omitempty"`

	ClaimCount        int `json:"claim_count"`
	MinClaimsRequired int `json:"min_claims_required"`

	Syntax    float64 `json:"syntax_score"`
	Concepts  float64 `json:"concept_score"`
	Facets    float64 `json:"facet_score"`
	Operators float64 `json:"operator_score"`
	Terms     float64 `json:"term_score"`
	Claims    float64 `json:"claim_count_score"`
	Overall   float64 `json:"overall_score"`

	Notes string `json:"notes,omitempty"`
}

// Passed reports whether the document is valid and scores at least PassThreshold
func (s *Score) Passed() bool {
	return s.SyntaxValid && s.Overall >= PassThreshold
}

// Scorer grades generated Worldview text against an Expected structure
type Scorer struct {
	validator *validate.Validator
}

// NewScorer creates a scorer using the default token table
func NewScorer() *Scorer {
	return &Scorer{validator: validate.Default()}
}

// NewScorerWithValidator creates a scorer reading v's token table
func NewScorerWithValidator(v *validate.Validator) *Scorer {
	return &Scorer{validator: v}
}

// Score parses content and grades it
func (s *Scorer) Score(content string, expected Expected) Score {
	minClaims := expected.MinClaims
	if minClaims < 1 {
		minClaims = 1
	}
	result := Score{MinClaimsRequired: minClaims}

	res, err := s.validator.Validate(content)
	if err != nil {
		result.SyntaxErrors = []string{err.Error()}
		result.Notes = notes(&result)
		return result
	}
	for _, d := range res.Errors() {
		result.SyntaxErrors = append(result.SyntaxErrors, d.String())
	}
	for _, d := range res.Warnings() {
		result.SyntaxWarnings = append(result.SyntaxWarnings, d.String())
	}
	result.SyntaxValid = res.Valid()
	if result.SyntaxValid {
		result.Syntax = 1
	}

	doc := res.Document
	var names, facets []string
	for _, c := range doc.Concepts {
		names = append(names, c.Name)
		for _, f := range c.Facets {
			facets = append(facets, f.Name)
			result.ClaimCount += len(f.Claims)
		}
	}

	for _, want := range expected.RequiredConcepts {
		if containsFold(names, want) {
			result.ConceptsFound = append(result.ConceptsFound, want)
		} else {
			result.ConceptsMissing = append(result.ConceptsMissing, want)
		}
	}
	result.Concepts = ratio(len(result.ConceptsFound), len(expected.RequiredConcepts))

	for _, want := range expected.RequiredFacets {
		if containsFold(facets, strings.TrimPrefix(want, ".")) {
			result.FacetsFound = append(result.FacetsFound, want)
		} else {
			result.FacetsMissing = append(result.FacetsMissing, want)
		}
	}
	result.Facets = ratio(len(result.FacetsFound), len(expected.RequiredFacets))

	used := Operators(doc, s.validator.Table())
	for _, want := range expected.RequiredOperators {
		if used[want] {
			result.OperatorsFound = append(result.OperatorsFound, want)
		} else {
			result.OperatorsMissing = append(result.OperatorsMissing, want)
		}
	}
	result.Operators = ratio(len(result.OperatorsFound), len(expected.RequiredOperators))

	for _, want := range expected.RequiredTerms {
		if hasTerm(content, want) {
			result.TermsFound = append(result.TermsFound, want)
		} else {
			result.TermsMissing = append(result.TermsMissing, want)
		}
	}
	result.Terms = ratio(len(result.TermsFound), len(expected.RequiredTerms))
	for _, bad := range expected.ForbiddenTerms {
		if hasTerm(content, bad) {
			result.ForbiddenFound = append(result.ForbiddenFound, bad)
		}
	}
	if len(result.ForbiddenFound) > 0 {
		penalty := float64(len(result.ForbiddenFound)) / float64(len(expected.ForbiddenTerms))
		result.Terms *= 1 - penalty*0.5
	}

	result.Claims = float64(result.ClaimCount) / float64(minClaims)
	if result.Claims > 1 {
		result.Claims = 1
	}

	result.Overall = result.Syntax*WeightSyntax +
		result.Concepts*WeightConcepts +
		result.Facets*WeightFacets +
		result.Operators*WeightOperators +
		result.Terms*WeightTerms +
		result.Claims*WeightClaims
	result.Notes = notes(&result)
	return result
}

// Operators returns every notation symbol the document uses: relation and
// brief-form operators in claim text, modifiers, inline markers and the
// supersession opener
func Operators(doc *model.Document, table *tokens.Table) map[string]bool {
	used := make(map[string]bool)
	mark := func(cat tokens.Category, name string) {
		if sym := table.Symbol(cat, name); sym != "" {
			used[sym] = true
		}
	}
	modifiers := make(map[model.Modifier]string)
	for _, t := range table.ByCategory(tokens.CategoryModifier) {
		modifiers[model.Modifier(t.Name)] = t.Symbol
	}

	for _, c := range doc.Concepts {
		for _, f := range c.Facets {
			for _, cl := range f.Claims {
				if cl.Relation != nil {
					used[cl.Relation.Operator] = true
				}
				for _, word := range strings.Fields(cl.Text) {
					if _, ok := table.Lookup(tokens.CategoryBriefForm, word); ok {
						used[word] = true
					}
				}
				for _, m := range cl.Modifiers {
					if sym, ok := modifiers[m]; ok {
						used[sym] = true
					}
				}
				if len(cl.Conditions) > 0 {
					mark(tokens.CategoryInline, tokens.RoleCondition)
				}
				if len(cl.Sources) > 0 {
					mark(tokens.CategoryInline, tokens.RoleSource)
				}
				if len(cl.References) > 0 {
					mark(tokens.CategoryInline, tokens.RoleReference)
				}
				if cl.Supersession != "" {
					mark(tokens.CategorySupersession, tokens.RoleSupersessionOpen)
				}
			}
		}
	}
	return used
}

func ratio(found, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(found) / float64(total)
}

// containsFold matches want against names case-insensitively, allowing a
// name that contains want (".formation" matches ".trust-formation")
func containsFold(names []string, want string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			return true
		}
	}
	return false
}

// hasTerm is a case-insensitive substring match that treats spaces and
// hyphens as interchangeable
func hasTerm(content, term string) bool {
	content = strings.ToLower(content)
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	return strings.Contains(content, term) ||
		strings.Contains(content, strings.ReplaceAll(term, " ", "-")) ||
		strings.Contains(content, strings.ReplaceAll(term, "-", " "))
}

func notes(s *Score) string {
	var parts []string
	if !s.SyntaxValid {
		parts = append(parts, fmt.Sprintf("Syntax errors: %d", len(s.SyntaxErrors)))
	}
	if len(s.ConceptsMissing) > 0 {
		parts = append(parts, "Missing concepts: "+strings.Join(s.ConceptsMissing, ", "))
	}
	if len(s.FacetsMissing) > 0 {
		parts = append(parts, "Missing facets: "+strings.Join(s.FacetsMissing, ", "))
	}
	if len(s.OperatorsMissing) > 0 {
		parts = append(parts, "Missing operators: "+strings.Join(s.OperatorsMissing, ", "))
	}
	if len(s.ForbiddenFound) > 0 {
		parts = append(parts, "Forbidden terms found: "+strings.Join(s.ForbiddenFound, ", "))
	}
	return strings.Join(parts, "; ")
}
