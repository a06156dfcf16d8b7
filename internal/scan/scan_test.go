package scan

import (
	"strings"
	"testing"

	"github.com/ppiankov/worldview/internal/diag"
	"github.com/ppiankov/worldview/internal/tokens"
)

func scanText(text string) ([]Line, []diag.Diagnostic) {
	dc := diag.NewCollector()
	lines := New(tokens.Default()).Scan(text, dc)
	return lines, dc.Sorted()
}

func TestScan_Classification(t *testing.T) {
	lines, diags := scanText("Power\n  .core\n    - corrupts | unchecked\n\n    - reveals character\n")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}

	tests := []struct {
		idx      int
		number   int
		level    int
		marker   string
		residual string
		resCol   int
	}{
		{0, 1, 0, "", "Power", 1},
		{1, 2, 2, ".", "core", 4},
		{2, 3, 4, "-", " corrupts | unchecked", 6},
		{3, 5, 4, "-", " reveals character", 6},
	}

	for _, tt := range tests {
		l := lines[tt.idx]
		if l.Number != tt.number || l.Level != tt.level || l.Marker != tt.marker {
			t.Errorf("line %d: got number=%d level=%d marker=%q", tt.idx, l.Number, l.Level, l.Marker)
		}
		if l.Residual != tt.residual {
			t.Errorf("line %d: residual = %q, want %q", tt.idx, l.Residual, tt.residual)
		}
		if l.ResidualColumn != tt.resCol {
			t.Errorf("line %d: residual column = %d, want %d", tt.idx, l.ResidualColumn, tt.resCol)
		}
	}
}

func TestScan_BadWidths(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		level int
	}{
		{"one space", " .core", 0},
		{"three spaces", "   - x", 2},
		{"five spaces", "     - x", 4},
		{"eight spaces", "        - x", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, diags := scanText(tt.text)
			if len(lines) != 1 {
				t.Fatalf("expected 1 line, got %d", len(lines))
			}
			if !lines[0].BadIndent {
				t.Error("expected BadIndent")
			}
			if lines[0].Level != tt.level {
				t.Errorf("level = %d, want %d", lines[0].Level, tt.level)
			}
			if len(diags) != 1 || diags[0].Kind != diag.IndentationError || diags[0].Line != 1 {
				t.Errorf("expected one IndentationError on line 1, got %v", diags)
			}
		})
	}
}

func TestScan_Tabs(t *testing.T) {
	lines, diags := scanText("Power\n \t.core\n")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", diags)
	}
	d := diags[0]
	if d.Kind != diag.IndentationError || d.Line != 2 || d.Column != 2 {
		t.Errorf("unexpected diagnostic %s", d)
	}
	if d.Message != "tabs not permitted" {
		t.Errorf("message = %q", d.Message)
	}
	// space + tab counts as 3 columns, rounded down to 2
	if lines[1].Level != 2 || !lines[1].BadIndent {
		t.Errorf("tab line level=%d bad=%v", lines[1].Level, lines[1].BadIndent)
	}
	if lines[1].Marker != "." || lines[1].MarkerColumn != 3 {
		t.Errorf("marker %q at %d", lines[1].Marker, lines[1].MarkerColumn)
	}
}

func TestScan_LineEndings(t *testing.T) {
	t.Run("crlf only", func(t *testing.T) {
		lines, diags := scanText("Power\r\n  .core\r\n    - x\r\n")
		if len(diags) != 0 {
			t.Errorf("unexpected diagnostics: %v", diags)
		}
		if lines[2].Residual != " x" {
			t.Errorf("carriage return not stripped: %q", lines[2].Residual)
		}
	})

	t.Run("mixed", func(t *testing.T) {
		_, diags := scanText("Power\r\n  .core\n    - x\n    - y\r\n")
		if len(diags) != 1 {
			t.Fatalf("expected exactly one warning, got %v", diags)
		}
		if diags[0].Kind != diag.MixedLineEndings || diags[0].Line != 2 {
			t.Errorf("unexpected diagnostic %s", diags[0])
		}
		if diags[0].IsError() {
			t.Error("mixed line endings should be a warning")
		}
	})

	t.Run("bare carriage return", func(t *testing.T) {
		lines, diags := scanText("    - b\rTrust\n")
		if len(lines) != 2 || lines[0].Residual != " b" || lines[1].Residual != "Trust" {
			t.Fatalf("bare CR should end a line: %+v", lines)
		}
		if lines[1].Number != 2 {
			t.Errorf("second line number = %d, want 2", lines[1].Number)
		}
		if len(diags) != 1 || diags[0].Kind != diag.MixedLineEndings || diags[0].Line != 2 {
			t.Fatalf("expected one MixedLineEndings on line 2, got %v", diags)
		}
		if !strings.Contains(diags[0].Message, "CR") {
			t.Errorf("message should name the endings: %q", diags[0].Message)
		}
	})

	t.Run("cr only", func(t *testing.T) {
		lines, diags := scanText("Power\r  .core\r    - x\r")
		if len(diags) != 0 {
			t.Errorf("unexpected diagnostics: %v", diags)
		}
		if len(lines) != 3 || lines[2].Number != 3 {
			t.Errorf("lines = %+v", lines)
		}
	})
}

func TestScan_BlankLinesCounted(t *testing.T) {
	lines, _ := scanText("\n\n   \nPower\n")
	if len(lines) != 1 || lines[0].Number != 4 {
		t.Errorf("expected one line numbered 4, got %+v", lines)
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank(" \t ") || IsBlank("  x") {
		t.Error("IsBlank misclassified")
	}
}
