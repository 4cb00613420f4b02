package cli

import (
	"github.com/spf13/cobra"

	"github.com/Materials-Consortia/optimade-go/internal/config"
	"github.com/Materials-Consortia/optimade-go/internal/ui"
)

var (
	// Global flags
	configPathFlag  string
	schemaPathFlag  string
	grammarVersion  string
	maxDepthFlag    int
	cfg             *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "optiq",
	Short: "OPTIMADE filter compiler",
	Long: `optiq parses OPTIMADE filter strings against a versioned grammar and
compiles them into backend queries: document-store query objects,
search-engine query DSL, or SQL WHERE clauses over a JSON catalog.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPathFlag != "" {
			cfg, err = config.LoadFrom(configPathFlag)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			// Unlike RunE, returning nil here would still run the
			// command, so the error must propagate even in JSON mode.
			if jsonOutput {
				outputError(ErrConfigInvalid, err.Error(), "Check the config file syntax")
				cmd.Root().SilenceErrors = true
			}
			return err
		}
		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&schemaPathFlag, "schema", "", "Path to the backend mapping schema")
	rootCmd.PersistentFlags().StringVar(&grammarVersion, "grammar-version", "", "Filter grammar version (default: latest)")
	rootCmd.PersistentFlags().IntVar(&maxDepthFlag, "max-depth", 0, "Maximum filter nesting depth")
}
