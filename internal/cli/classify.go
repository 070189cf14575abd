package cli

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/classify-api/internal/errs"
	"github.com/Brownie44l1/classify-api/internal/imageload"
)

var topN int

var classifyCmd = &cobra.Command{
	Use:   "classify <file|url>",
	Short: "Classify one image and print the JSON result",
	Example: `  classify-api classify ./dog.jpg
  classify-api classify --top 5 https://example.com/dog.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		img, err := readImage(cmd, a.loader, args[0])
		if err != nil {
			return err
		}
		res, err := a.pipeline.Classify(cmd.Context(), img, topN)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	classifyCmd.Flags().IntVarP(&topN, "top", "n", 0, "number of predictions (default inference.top_n)")
	rootCmd.AddCommand(classifyCmd)
}

func readImage(cmd *cobra.Command, loader *imageload.Loader, src string) (*imageload.Image, error) {
	if isURL(src) {
		return loader.FromURL(cmd.Context(), src)
	}
	buf, err := os.ReadFile(src)
	if err != nil {
		return nil, errs.Wrap(err, errs.InvalidInput, "read %s", src)
	}
	return loader.FromBytes(buf)
}

func isURL(s string) bool {
	for _, scheme := range []string{"http://", "https://", "s3://"} {
		if strings.HasPrefix(strings.ToLower(s), scheme) {
			return true
		}
	}
	return false
}
