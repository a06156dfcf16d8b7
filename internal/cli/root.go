package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/worldview/internal/logging"
	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/tokens"
	"github.com/ppiankov/worldview/internal/validate"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "0.1.0"

var (
	cfgFile    string
	verbose    bool
	tokensFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "worldview",
	Short: "Worldview - validator and tooling for the Worldview notation",
	Long: `Worldview is a compact notation for encoding beliefs, facts and
relationships as concepts, facets and claims.

The validator checks documents against the notation's token table and
reports every problem it finds with a line and column. Around it sit a
canonical formatter, token documentation, an LLM agent that adds facts to a
document, and an evaluation harness for that agent.

The validator checks form, not truth.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// ExitError carries a process exit code. Err is nil when the command has
// already reported the problem.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of worldview.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "worldview v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.worldview/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&tokensFile, "tokens", "", "token table YAML file (default: built-in table)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("tokens.file", rootCmd.PersistentFlags().Lookup("tokens"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	logging.Setup(verbose, os.Stderr)

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.worldview")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match WORLDVIEW_*, with
	// WORLDVIEW_LLM_PROVIDER mapping to llm.provider
	viper.SetEnvPrefix("WORLDVIEW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, config file, environment and bound flags into
// a model.Config
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	// Environment variables are only consulted for keys viper knows about
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}
	var defaults map[string]interface{}
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return nil, fmt.Errorf("unmarshal defaults: %w", err)
	}
	for key, value := range flatten("", defaults) {
		viper.SetDefault(key, value)
	}
	for _, key := range []string{"llm.api_key", "llm.base_url", "http.http_proxy", "http.https_proxy", "http.no_proxy"} {
		viper.SetDefault(key, "")
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func flatten(prefix string, m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// loadValidator builds a validator from the configured token table
func loadValidator(cfg *model.Config) (*validate.Validator, error) {
	if cfg.Tokens.File == "" {
		return validate.Default(), nil
	}

	data, err := os.ReadFile(cfg.Tokens.File)
	if err != nil {
		return nil, fmt.Errorf("read token table: %w", err)
	}
	table, err := tokens.Load(data)
	if err != nil {
		return nil, fmt.Errorf("load token table %s: %w", cfg.Tokens.File, err)
	}
	return validate.New(table), nil
}
