package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corpuslab/crossqa/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "crossqa",
	Short: "Cross-lingual question dataset builder",
	Long:  "Streams question records, keeps those whose source-language page has a target-language version, and builds a resumable enriched CSV plus a paragraph corpus for retrieval experiments.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
