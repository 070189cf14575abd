package cli

import (
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/classify-api/internal/logging"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Load and verify the vocabulary and model, then exit",
	Long: `Runs the same startup as serve without opening a port. Use it at image
build time to fail early on a missing or mismatched model.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		a, err := newApp(cfg, logger)
		if err != nil {
			logger.Error("prepare failed", logging.Err(err))
			return err
		}
		defer a.Close()

		logger.Info("model ready",
			logging.String("architecture", a.handle.Architecture()),
			logging.Int("image_size", a.handle.ImageSize()),
			logging.Int("classes", a.vocab.Len()),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
}
