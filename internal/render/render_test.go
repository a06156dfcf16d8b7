package render

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/worldview/internal/diag"
	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/tokens"
	"github.com/ppiankov/worldview/internal/validate"
)

const sample = `Power
  .core
    - absolute power => absolute corruption? | unchecked @acton &Trust.formation
    - reveals   character
    - x @src | cond
  .dynamics
    - concentration^ [<= stable] | over time
Trust
  .formation
    - slow
    - asymmetric vs formation &Trust.formation &Power
`

func TestPrint_RoundTrip(t *testing.T) {
	first, err := validate.Validate(sample)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Valid() {
		t.Fatalf("sample should be valid: %v", first.Diagnostics)
	}

	printed := Document(first.Document)
	second, err := validate.Validate(printed)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Diagnostics) != 0 {
		t.Fatalf("canonical output has diagnostics: %v\n%s", second.Diagnostics, printed)
	}

	if !reflect.DeepEqual(first.Document.StripPositions(), second.Document.StripPositions()) {
		t.Errorf("round trip changed the tree\nprinted:\n%s", printed)
	}
	if again := Document(second.Document); again != printed {
		t.Errorf("printing is not stable:\n%s\nvs\n%s", printed, again)
	}
}

func TestPrint_Canonical(t *testing.T) {
	res, err := validate.Validate(sample)
	if err != nil {
		t.Fatal(err)
	}
	out := Document(res.Document)

	want := []string{
		"Power",
		"  .core",
		"    - absolute power => absolute corruption? | unchecked @acton &Trust.formation",
		"    - reveals character",
		"    - x | cond @src",
		"  .dynamics",
		"    - concentration^ [<= stable] | over time",
		"",
		"Trust",
	}
	lines := strings.Split(out, "\n")
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i+1, lines[i], w)
		}
	}
	if !strings.HasSuffix(out, "&Trust.formation &Power\n") {
		t.Errorf("unexpected ending: %q", out[len(out)-40:])
	}
}

func TestPrinter_Claim(t *testing.T) {
	p := NewPrinter(tokens.Default())
	c := model.Claim{
		Text:         "gradual",
		Supersession: "sudden",
		Conditions:   []model.Condition{{Text: "in practice"}},
		Sources:      []model.Source{{ID: "history"}},
		References:   []model.Reference{{Concept: "Change"}},
	}
	if got := p.Claim(c); got != "gradual [<= sudden] | in practice @history &Change" {
		t.Errorf("Claim() = %q", got)
	}
}

func TestPrinter_TrailingModifiers(t *testing.T) {
	res, err := validate.Validate("Power\n  .core\n    - power => corruption? @src !\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}

	out := Document(res.Document)
	if !strings.Contains(out, "    - power => corruption? ! @src\n") {
		t.Errorf("modifier lost: %q", out)
	}

	again, err := validate.Validate(out)
	if err != nil {
		t.Fatal(err)
	}
	got := again.Document.Concepts[0].Facets[0].Claims[0]
	want := res.Document.Concepts[0].Facets[0].Claims[0]
	if !reflect.DeepEqual(got.Modifiers, want.Modifiers) || got.Relation == nil {
		t.Errorf("round trip changed claim: %+v, want %+v", got, want)
	}
}

func TestDiagnostics(t *testing.T) {
	diags := []diag.Diagnostic{
		{Line: 2, Column: 1, Kind: diag.IndentationError, Severity: diag.SeverityError, Message: "tabs not permitted"},
		{Line: 4, Column: 9, Kind: diag.NonCanonicalOrder, Severity: diag.SeverityWarning, Message: "order"},
	}

	var buf bytes.Buffer
	if err := Diagnostics(&buf, "", diags); err != nil {
		t.Fatal(err)
	}
	want := "2:1: IndentationError: tabs not permitted\n4:9: NonCanonicalOrder: order\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
	if DiagnosticsText(diags) != want {
		t.Errorf("DiagnosticsText differs from Diagnostics")
	}

	buf.Reset()
	if err := Diagnostics(&buf, "beliefs.wvf", diags[:1]); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "beliefs.wvf:2:1: IndentationError: tabs not permitted\n" {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	Summary(&buf, "beliefs.wvf", diags)
	if !strings.Contains(buf.String(), "1 error(s), 1 warning(s)") {
		t.Errorf("summary = %q", buf.String())
	}
}

func TestJSON(t *testing.T) {
	res, err := validate.Validate("Power\n  .core\n    - x &Trust\n")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := JSON(&buf, res); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Document struct {
			Concepts []struct {
				Name   string `json:"name"`
				Facets []struct {
					Claims []struct {
						References []struct {
							Concept string `json:"concept"`
						} `json:"references"`
					} `json:"claims"`
				} `json:"facets"`
			} `json:"concepts"`
		} `json:"document"`
		Diagnostics []diag.Diagnostic `json:"diagnostics"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Document.Concepts[0].Facets[0].Claims[0].References[0].Concept != "Trust" {
		t.Errorf("unexpected JSON: %s", buf.String())
	}
}

func TestMarkdown_CoversTable(t *testing.T) {
	table := tokens.Default()
	md := Markdown(table)
	for _, tok := range table.All() {
		if !strings.Contains(md, tok.Symbol) {
			t.Errorf("markdown does not mention %q (%s)", tok.Symbol, tok.Name)
		}
	}
	for _, heading := range []string{"### Hierarchy", "### Inline Elements", "## Brief Forms", "## Modifiers", "## Evolution"} {
		if !strings.Contains(md, heading) {
			t.Errorf("missing heading %q", heading)
		}
	}
}

func TestSystemPrompt(t *testing.T) {
	table := tokens.Default()
	prompt := SystemPrompt(table)

	for _, tok := range table.ByCategory(tokens.CategoryBriefForm) {
		if !strings.Contains(prompt, "| `"+tok.Symbol+"` |") {
			t.Errorf("prompt missing brief form %q", tok.Symbol)
		}
	}
	if !strings.Contains(prompt, "- claim | condition @source &reference") {
		t.Error("prompt missing claim order")
	}

	res, err := validate.Validate(ExampleDocument())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("example document has diagnostics: %v", res.Diagnostics)
	}
}
