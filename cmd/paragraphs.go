package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corpuslab/crossqa/internal/paragraphs"
)

var (
	paragraphsRoot   string
	paragraphsLangs  string
	paragraphsOutput string
	paragraphsJobs   int
	paragraphsMin    int
)

var paragraphsCmd = &cobra.Command{
	Use:   "paragraphs",
	Short: "Extract clean paragraphs from the downloaded HTML corpus",
	Long: `Walks <root>/<lang>/*.html, strips navigation and reference
boilerplate, and writes one JSON record per paragraph to the output
JSONL file.

Example:
  crossqa paragraphs --root corpus --langs en,sc --output paragraphs.jsonl`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if paragraphsRoot != "" {
			cfg.Paragraphs.Root = paragraphsRoot
		}
		if paragraphsLangs != "" {
			cfg.Paragraphs.Langs = splitLangs(paragraphsLangs)
		}
		if paragraphsOutput != "" {
			cfg.Paragraphs.Output = paragraphsOutput
		}
		if cmd.Flags().Changed("jobs") {
			cfg.Paragraphs.Jobs = paragraphsJobs
		}
		if cmd.Flags().Changed("min-chars") {
			cfg.Paragraphs.MinChars = paragraphsMin
		}

		files, err := paragraphs.ListFiles(cfg.Paragraphs.Root, cfg.Paragraphs.Langs)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return eris.Errorf("paragraphs: no HTML files under %s for langs %v",
				cfg.Paragraphs.Root, cfg.Paragraphs.Langs)
		}

		out, err := os.Create(cfg.Paragraphs.Output)
		if err != nil {
			return eris.Wrap(err, "paragraphs: create output")
		}
		defer out.Close() //nolint:errcheck

		ext := paragraphs.NewExtractor(cfg.Paragraphs.Jobs, cfg.Paragraphs.MinChars)
		exStats, err := ext.Run(ctx, files, out)
		if err != nil {
			return err
		}
		zap.L().Info("paragraphs: complete",
			zap.Int("files", exStats.Files),
			zap.Int("failed", exStats.Failed),
			zap.Int("paragraphs", exStats.Paragraphs),
			zap.String("output", cfg.Paragraphs.Output),
		)
		return nil
	},
}

func init() {
	paragraphsCmd.Flags().StringVar(&paragraphsRoot, "root", "", "corpus root directory")
	paragraphsCmd.Flags().StringVar(&paragraphsLangs, "langs", "", "comma-separated language codes")
	paragraphsCmd.Flags().StringVar(&paragraphsOutput, "output", "", "output JSONL path")
	paragraphsCmd.Flags().IntVar(&paragraphsJobs, "jobs", 8, "parallel extraction jobs")
	paragraphsCmd.Flags().IntVar(&paragraphsMin, "min-chars", 40, "minimum paragraph length")
	rootCmd.AddCommand(paragraphsCmd)
}

func splitLangs(s string) []string {
	var out []string
	for _, l := range strings.Split(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
