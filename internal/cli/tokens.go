package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/worldview/internal/render"
)

var tokensFormat string

// tokensCmd represents the tokens command
var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Print the token table",
	Long: `Tokens prints the notation's token table: as markdown tables, as the
condensed system prompt used to teach the notation to a language model, or
as YAML that can be edited and passed back with --tokens.

Example:
  worldview tokens
  worldview tokens --format system
  worldview tokens --format yaml > tokens.yaml`,
	Args: cobra.NoArgs,
	RunE: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&tokensFormat, "format", "markdown", "output format (markdown, system, yaml)")
}

func runTokens(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := loadValidator(cfg)
	if err != nil {
		return err
	}
	table := v.Table()

	var text string
	switch tokensFormat {
	case "markdown", "md":
		text = render.Markdown(table)
	case "system":
		text = render.SystemPrompt(table)
	case "yaml":
		data, err := table.Marshal()
		if err != nil {
			return err
		}
		text = string(data)
	default:
		return fmt.Errorf("unknown format %q (supported: markdown, system, yaml)", tokensFormat)
	}

	_, err = io.WriteString(cmd.OutOrStdout(), text)
	return err
}
