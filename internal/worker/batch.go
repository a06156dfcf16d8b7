package worker

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/worldview/internal/validate"
)

// DocumentExt is the conventional extension of Worldview files
const DocumentExt = ".wvf"

// FileJob validates one file
type FileJob struct {
	Path      string
	Validator *validate.Validator
}

// Execute reads and validates the file
func (j *FileJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &FileResult{Path: j.Path, Error: err}
	}

	data, err := os.ReadFile(j.Path)
	if err != nil {
		return &FileResult{Path: j.Path, Error: fmt.Errorf("read %s: %w", j.Path, err)}
	}

	res, err := j.Validator.ValidateBytes(data)
	if err != nil {
		return &FileResult{Path: j.Path, Error: err}
	}
	return &FileResult{Path: j.Path, Result: res}
}

// FileResult is the outcome of validating one file. Error is set only
// when the file could not be read or decoded.
type FileResult struct {
	Path   string
	Result *validate.Result
	Error  error
}

// GetError returns the read or decode error
func (r *FileResult) GetError() error {
	return r.Error
}

// BatchValidator validates many files concurrently
type BatchValidator struct {
	validator   *validate.Validator
	concurrency int
}

// NewBatchValidator creates a batch validator
func NewBatchValidator(v *validate.Validator, concurrency int) *BatchValidator {
	return &BatchValidator{
		validator:   v,
		concurrency: concurrency,
	}
}

// ValidateFiles validates paths concurrently; results keep the order of paths
func (b *BatchValidator) ValidateFiles(ctx context.Context, paths []string) []*FileResult {
	if len(paths) == 0 {
		return []*FileResult{}
	}

	jobs := make([]Job, len(paths))
	for i, path := range paths {
		jobs[i] = &FileJob{Path: path, Validator: b.validator}
	}

	results := Run(ctx, b.concurrency, jobs)

	out := make([]*FileResult, len(results))
	for i, result := range results {
		out[i] = result.(*FileResult)
	}
	return out
}

// ExpandPaths replaces each directory argument with the Worldview files
// beneath it, sorted by path. File arguments are kept as given.
func ExpandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			// Missing files are reported when the job runs
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == DocumentExt {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return paths, nil
}

// ReadPathList reads file paths from a list file (one per line). Blank
// lines and # comments are skipped and duplicates dropped.
func ReadPathList(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
