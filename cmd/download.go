package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corpuslab/crossqa/internal/corpus"
)

var (
	downloadCSV       string
	downloadOutput    string
	downloadWorkers   int
	downloadOverwrite bool
	downloadLangCols  string
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download referenced pages into a local HTML corpus",
	Long: `Reads the enriched CSV and downloads every language URL into
<output>/<lang>/<id>_<title>.html. Existing files are kept unless
--overwrite is set, so interrupted downloads can simply be rerun.

Example:
  crossqa download --csv nq_sc.csv --output corpus --workers 16`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if downloadOutput != "" {
			cfg.Download.Output = downloadOutput
		}
		if cmd.Flags().Changed("workers") {
			cfg.Download.Workers = downloadWorkers
		}
		if cmd.Flags().Changed("overwrite") {
			cfg.Download.Overwrite = downloadOverwrite
		}

		langCols, err := parseLangCols(downloadLangCols)
		if err != nil {
			return err
		}
		if len(langCols) == 0 {
			langCols = map[string]string{
				cfg.Langs.Source: "url_" + cfg.Langs.Source,
				cfg.Langs.Target: "url_" + cfg.Langs.Target,
			}
			if cfg.Langs.Pivot != "" {
				langCols[cfg.Langs.Pivot] = "url_" + cfg.Langs.Pivot
			}
		}

		f, err := os.Open(downloadCSV)
		if err != nil {
			return eris.Wrap(err, "download: open csv")
		}
		defer f.Close() //nolint:errcheck

		d := corpus.NewDownloader(newWikiClient(), cfg.Download.Output, cfg.Download.Workers, cfg.Download.Overwrite)
		jobs, err := d.BuildJobs(f, langCols)
		if err != nil {
			return err
		}
		zap.L().Info("download: jobs built",
			zap.Int("jobs", len(jobs)),
			zap.String("output", cfg.Download.Output),
		)

		dlStats := d.Run(ctx, jobs)
		zap.L().Info("download: complete",
			zap.Int("downloaded", dlStats.Downloaded),
			zap.Int("skipped", dlStats.Skipped),
			zap.Int("failed", dlStats.Failed),
		)
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadCSV, "csv", "", "enriched CSV path (required)")
	downloadCmd.Flags().StringVar(&downloadOutput, "output", "", "corpus output directory")
	downloadCmd.Flags().IntVar(&downloadWorkers, "workers", 16, "parallel download workers")
	downloadCmd.Flags().BoolVar(&downloadOverwrite, "overwrite", false, "re-download existing files")
	downloadCmd.Flags().StringVar(&downloadLangCols, "lang-cols", "", "comma-separated lang:column overrides, e.g. en:url_en,sc:url_sc")
	_ = downloadCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(downloadCmd)
}

// parseLangCols parses "en:url_en,sc:url_sc" into a lang → column map.
func parseLangCols(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		lang, col, ok := strings.Cut(pair, ":")
		if !ok || lang == "" || col == "" {
			return nil, eris.Errorf("download: malformed lang-cols entry %q", pair)
		}
		out[lang] = col
	}
	return out, nil
}
