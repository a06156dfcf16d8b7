package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/worldview/internal/diag"
	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/render"
	"github.com/ppiankov/worldview/internal/validate"
	"github.com/ppiankov/worldview/internal/worker"
)

// Exit codes of validate
const (
	exitOK      = 0
	exitInvalid = 1
	exitIO      = 2
)

const stdinName = "<stdin>"

var (
	validateStdin       bool
	validateFilesFrom   string
	validateFormat      string
	validateStrict      bool
	validateWatch       bool
	validateConcurrency int
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [files or directories...]",
	Short: "Validate Worldview documents",
	Long: `Validate checks Worldview documents and prints every diagnostic as
<line>:<column>: <kind>: <message>, prefixed with the file name when more
than one file is checked. Directories are searched for *.wvf files.

Exit status is 0 when no document has errors, 1 when any has errors (or
warnings with --strict) and 2 when a file cannot be read or decoded.

Example:
  worldview validate beliefs.wvf
  worldview validate notes/ --concurrency 8
  cat beliefs.wvf | worldview validate --stdin
  worldview validate beliefs.wvf --watch`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateStdin, "stdin", false, "read a single document from standard input")
	validateCmd.Flags().StringVar(&validateFilesFrom, "files-from", "", "read file paths from a list file (one per line)")
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "output format (text, json)")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat warnings as failures")
	validateCmd.Flags().BoolVar(&validateWatch, "watch", false, "re-validate files when they change")
	validateCmd.Flags().IntVar(&validateConcurrency, "concurrency", 0, "number of files validated in parallel (default from config)")
}

// fileReport is the JSON form of one validated file
type fileReport struct {
	File        string            `json:"file"`
	Valid       bool              `json:"valid"`
	Document    *model.Document   `json:"document,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
	Error       string            `json:"error,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return &ExitError{Code: exitIO, Err: err}
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = validateFormat
	}
	if cmd.Flags().Changed("strict") {
		cfg.Output.Strict = validateStrict
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = validateConcurrency
	}
	if cfg.Output.Format != "text" && cfg.Output.Format != "json" {
		return fmt.Errorf("unknown format %q (supported: text, json)", cfg.Output.Format)
	}

	v, err := loadValidator(cfg)
	if err != nil {
		return &ExitError{Code: exitIO, Err: err}
	}

	if validateStdin {
		if len(args) > 0 || validateFilesFrom != "" || validateWatch {
			return errors.New("--stdin cannot be combined with files, --files-from or --watch")
		}
		return validateReader(cmd, cfg.Output, v, cmd.InOrStdin())
	}

	paths, err := collectPaths(args, validateFilesFrom)
	if err != nil {
		return &ExitError{Code: exitIO, Err: err}
	}
	if len(paths) == 0 {
		return &ExitError{Code: exitIO, Err: errors.New("no files to validate")}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch := worker.NewBatchValidator(v, cfg.Concurrency.Workers)
	code := writeResults(cmd, cfg.Output, batch.ValidateFiles(ctx, paths), len(paths) > 1)
	if !validateWatch {
		return exitFor(code)
	}

	return watchFiles(ctx, cmd, cfg.Output, batch, paths)
}

func validateReader(cmd *cobra.Command, out model.OutputConfig, v *validate.Validator, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return &ExitError{Code: exitIO, Err: fmt.Errorf("read stdin: %w", err)}
	}
	res, err := v.ValidateBytes(data)
	result := &worker.FileResult{Path: stdinName, Result: res, Error: err}
	return exitFor(writeResults(cmd, out, []*worker.FileResult{result}, false))
}

func collectPaths(args []string, filesFrom string) ([]string, error) {
	paths, err := worker.ExpandPaths(args)
	if err != nil {
		return nil, err
	}
	if filesFrom != "" {
		listed, err := worker.ReadPathList(filesFrom)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filesFrom, err)
		}
		paths = append(paths, listed...)
	}
	return paths, nil
}

// writeResults prints results in the configured format and returns the exit
// code they call for
func writeResults(cmd *cobra.Command, out model.OutputConfig, results []*worker.FileResult, prefix bool) int {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	code := exitOK

	reports := make([]fileReport, 0, len(results))
	for _, r := range results {
		if r.Error != nil {
			code = exitIO
			if out.Format == "json" {
				reports = append(reports, fileReport{File: r.Path, Diagnostics: []diag.Diagnostic{}, Error: r.Error.Error()})
			} else {
				fmt.Fprintf(stderr, "%s: %v\n", r.Path, r.Error)
			}
			continue
		}

		diags := r.Result.Diagnostics
		if !r.Result.Valid() || (out.Strict && len(diags) > 0) {
			code = max(code, exitInvalid)
		}

		if out.Format == "json" {
			rep := fileReport{
				File:        r.Path,
				Valid:       r.Result.Valid(),
				Diagnostics: diags,
			}
			if out.Verbose {
				rep.Document = r.Result.Document
			}
			reports = append(reports, rep)
			continue
		}

		name := ""
		if prefix {
			name = r.Path
		}
		if err := render.Diagnostics(stdout, name, diags); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			code = exitIO
		}
		if out.Verbose || prefix {
			render.Summary(stderr, r.Path, diags)
		}
		if out.Verbose {
			st := r.Result.Document.Stats()
			fmt.Fprintf(stderr, "  %d concept(s), %d facet(s), %d claim(s), %d relation(s), %d reference(s)\n",
				st.Concepts, st.Facets, st.Claims, st.Relations, st.References)
			if ops := r.Result.Document.Operators(); len(ops) > 0 {
				fmt.Fprintf(stderr, "  operators: %s\n", strings.Join(ops, " "))
			}
		}
	}

	if out.Format == "json" {
		if err := render.JSON(stdout, reports); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			code = exitIO
		}
	}
	return code
}

func watchFiles(ctx context.Context, cmd *cobra.Command, out model.OutputConfig, batch *worker.BatchValidator, paths []string) error {
	w, err := worker.NewWatcher(paths, 0)
	if err != nil {
		return &ExitError{Code: exitIO, Err: err}
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "Watching %d file(s), press Ctrl+C to stop\n", len(paths))

	return w.Run(ctx, func(changed []string) {
		fmt.Fprintf(stderr, "\n── %s: %d file(s) changed\n", time.Now().Format("15:04:05"), len(changed))
		results := batch.ValidateFiles(ctx, changed)
		if writeResults(cmd, out, results, len(paths) > 1) == exitOK {
			fmt.Fprintln(stderr, "✓ no errors")
		}
	})
}

func exitFor(code int) error {
	if code == exitOK {
		return nil
	}
	return &ExitError{Code: code}
}
