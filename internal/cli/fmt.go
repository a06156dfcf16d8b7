package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/worldview/internal/render"
)

var fmtWrite bool

// fmtCmd represents the fmt command
var fmtCmd = &cobra.Command{
	Use:   "fmt [file]",
	Short: "Print a document in canonical form",
	Long: `Fmt parses a Worldview document and prints it in canonical form:
claim trailers in canonical order, single spaces between parts and a blank
line between concepts. Documents with errors are not formatted.

Without a file the document is read from standard input.

Example:
  worldview fmt beliefs.wvf
  worldview fmt beliefs.wvf --write`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFmt,
}

func init() {
	rootCmd.AddCommand(fmtCmd)

	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "write the result back to the file")
}

func runFmt(cmd *cobra.Command, args []string) error {
	if fmtWrite && len(args) == 0 {
		return fmt.Errorf("--write requires a file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return &ExitError{Code: exitIO, Err: err}
	}
	v, err := loadValidator(cfg)
	if err != nil {
		return &ExitError{Code: exitIO, Err: err}
	}

	name := stdinName
	var data []byte
	if len(args) == 1 {
		name = args[0]
		data, err = os.ReadFile(name)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return &ExitError{Code: exitIO, Err: fmt.Errorf("read %s: %w", name, err)}
	}

	res, err := v.ValidateBytes(data)
	if err != nil {
		return &ExitError{Code: exitIO, Err: fmt.Errorf("%s: %w", name, err)}
	}

	stderr := cmd.ErrOrStderr()
	if !res.Valid() {
		_ = render.Diagnostics(stderr, name, res.Errors())
		return &ExitError{Code: exitInvalid, Err: fmt.Errorf("%s has %d error(s), not formatted", name, len(res.Errors()))}
	}
	_ = render.Diagnostics(stderr, name, res.Warnings())

	formatted := render.NewPrinter(v.Table()).Print(res.Document)
	if !fmtWrite {
		_, err := io.WriteString(cmd.OutOrStdout(), formatted)
		return err
	}

	if formatted == string(data) {
		return nil
	}
	info, err := os.Stat(name)
	if err != nil {
		return &ExitError{Code: exitIO, Err: err}
	}
	if err := os.WriteFile(name, []byte(formatted), info.Mode().Perm()); err != nil {
		return &ExitError{Code: exitIO, Err: fmt.Errorf("write %s: %w", name, err)}
	}
	if verbose {
		fmt.Fprintf(stderr, "✓ formatted %s\n", name)
	}
	return nil
}
