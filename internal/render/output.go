package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/worldview/internal/diag"
)

// Diagnostics writes one diagnostic per line as <line>:<column>: <kind>: <message>.
// A non-empty name is prefixed as <name>:.
func Diagnostics(w io.Writer, name string, diags []diag.Diagnostic) error {
	for _, d := range diags {
		var err error
		if name != "" {
			_, err = fmt.Fprintf(w, "%s:%s\n", name, d)
		} else {
			_, err = fmt.Fprintln(w, d)
		}
		if err != nil {
			return fmt.Errorf("write diagnostics: %w", err)
		}
	}
	return nil
}

// DiagnosticsText renders diagnostics the way Diagnostics writes them
func DiagnosticsText(diags []diag.Diagnostic) string {
	var b []byte
	for _, d := range diags {
		b = append(b, d.String()...)
		b = append(b, '\n')
	}
	return string(b)
}

// JSON writes v as indented JSON
func JSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// JSONFile writes v as indented JSON to path
func JSONFile(path string, v interface{}) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return JSON(f, v)
}

// Summary writes a one-line count of errors and warnings
func Summary(w io.Writer, name string, diags []diag.Diagnostic) {
	errs, warns := len(diag.Errors(diags)), len(diag.Warnings(diags))
	switch {
	case errs == 0 && warns == 0:
		fmt.Fprintf(w, "✓ %s: valid\n", name)
	case errs == 0:
		fmt.Fprintf(w, "✓ %s: valid with %d warning(s)\n", name, warns)
	default:
		fmt.Fprintf(w, "✗ %s: %d error(s), %d warning(s)\n", name, errs, warns)
	}
}
