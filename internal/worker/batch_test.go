package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ppiankov/worldview/internal/diag"
	"github.com/ppiankov/worldview/internal/validate"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBatchValidator_ValidateFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.wvf")
	bad := filepath.Join(dir, "bad.wvf")
	binary := filepath.Join(dir, "binary.wvf")
	writeFile(t, good, "Power\n  .core\n    - corrupts\n")
	writeFile(t, bad, "Power\n")
	writeFile(t, binary, "Power\n  .\xff\n")
	missing := filepath.Join(dir, "missing.wvf")

	paths := []string{good, bad, missing, binary}
	results := NewBatchValidator(validate.Default(), 2).ValidateFiles(context.Background(), paths)

	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("result %d is for %s, want %s", i, r.Path, paths[i])
		}
	}

	if results[0].Error != nil || !results[0].Result.Valid() {
		t.Errorf("good file: %+v", results[0])
	}
	if results[1].Error != nil || diag.Count(results[1].Result.Diagnostics, diag.MissingFacet) != 1 {
		t.Errorf("bad file: %+v", results[1])
	}
	if results[2].GetError() == nil {
		t.Error("missing file should report an error")
	}
	var uerr *validate.InvalidUTF8Error
	if results[3].Error == nil || !errors.As(results[3].Error, &uerr) {
		t.Errorf("binary file should fail decoding: %v", results[3].Error)
	}
}

func TestBatchValidator_Empty(t *testing.T) {
	results := NewBatchValidator(validate.Default(), 2).ValidateFiles(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.wvf"), "")
	writeFile(t, filepath.Join(dir, "nested", "a.wvf"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")

	explicit := filepath.Join(dir, "notes.txt")
	got, err := ExpandPaths([]string{dir, explicit, "absent.wvf"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "b.wvf"),
		filepath.Join(dir, "nested", "a.wvf"),
		explicit,
		"absent.wvf",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReadPathList(t *testing.T) {
	list := filepath.Join(t.TempDir(), "files.txt")
	writeFile(t, list, "a.wvf\n# comment\nb.wvf\n   \n a.wvf  \nc.wvf")

	paths, err := ReadPathList(list)
	if err != nil {
		t.Fatalf("ReadPathList failed: %v", err)
	}

	expected := []string{"a.wvf", "b.wvf", "c.wvf"}
	if !reflect.DeepEqual(paths, expected) {
		t.Errorf("got %v, want %v", paths, expected)
	}

	if _, err := ReadPathList("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
