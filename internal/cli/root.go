// Package cli holds the command line of the classifier. Running the binary
// without a subcommand starts the HTTP server.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	// cfgFile is the optional YAML config file given with --config.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "classify-api",
		Short: "Pretrained image classifier served over HTTP",
		Long: `Loads a class vocabulary and a pretrained ONNX image model once, then
classifies images given by URL or uploaded as multipart form data.

Settings come from an optional YAML file (--config) and IMGCLS_* environment
variables; PORT sets the listen port.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); IMGCLS_* environment variables override it")
}
