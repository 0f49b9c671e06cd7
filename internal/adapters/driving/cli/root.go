// Package cli implements the notemill command-line interface.
//
// Commands construct the adapter stack from resolved configuration and
// drive the core services through their driving ports. Settings resolve
// in order: flag, environment variable, config file, default.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/staticfold-labs/notemill-cli/internal/logger"
)

// version is overridden by Execute with the build version.
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "notemill",
	Short: "Mirror published Notion posts into a Hugo site",
	Long: `Notemill incrementally mirrors published pages from a Notion database
into a Hugo content tree: pages are converted to Markdown with YAML
front matter, embedded media is downloaded and optimised, and a cache
snapshot keeps subsequent runs from redoing unchanged work.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the CLI with the given build version.
func Execute(buildVersion string) error {
	if buildVersion != "" {
		version = buildVersion
	}
	return rootCmd.Execute()
}
