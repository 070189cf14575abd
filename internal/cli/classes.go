package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/classify-api/internal/vocab"
)

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "Print the class vocabulary, sorted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		v, err := vocab.Load(cfg.Model.VocabularyPath)
		if err != nil {
			return err
		}
		for _, label := range v.Sorted() {
			fmt.Fprintln(cmd.OutOrStdout(), label)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classesCmd)
}
