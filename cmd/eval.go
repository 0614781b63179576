package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corpuslab/crossqa/internal/metrics"
	"github.com/corpuslab/crossqa/internal/paragraphs"
)

var (
	evalCSV        string
	evalParagraphs string
	evalLang       string
	evalK          int
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate baseline retrieval over the extracted paragraphs",
	Long: `Loads (question, page) pairs from the enriched CSV, retrieves
paragraphs with a token-overlap baseline, and reports recall, precision
and MRR at k as JSON on stdout.

Example:
  crossqa eval --csv nq_sc.csv --paragraphs paragraphs.jsonl --lang sc --k 5`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if evalLang == "" {
			evalLang = cfg.Langs.Target
		}

		csvFile, err := os.Open(evalCSV)
		if err != nil {
			return eris.Wrap(err, "eval: open csv")
		}
		defer csvFile.Close() //nolint:errcheck

		queries, err := metrics.LoadQueries(csvFile, "question", "url_"+evalLang)
		if err != nil {
			return err
		}

		parFile, err := os.Open(evalParagraphs)
		if err != nil {
			return eris.Wrap(err, "eval: open paragraphs")
		}
		defer parFile.Close() //nolint:errcheck

		recs, err := paragraphs.Load(parFile, evalLang)
		if err != nil {
			return err
		}
		zap.L().Info("eval: corpus loaded",
			zap.Int("queries", len(queries)),
			zap.Int("paragraphs", len(recs)),
			zap.String("lang", evalLang),
		)

		report, err := metrics.Evaluate("overlap", metrics.NewOverlapRetriever(recs), queries, evalK)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "eval: encode report")
		}
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalCSV, "csv", "", "enriched CSV path (required)")
	evalCmd.Flags().StringVar(&evalParagraphs, "paragraphs", "", "paragraphs JSONL path (required)")
	evalCmd.Flags().StringVar(&evalLang, "lang", "", "language to evaluate (defaults to target language)")
	evalCmd.Flags().IntVar(&evalK, "k", 5, "retrieval depth")
	_ = evalCmd.MarkFlagRequired("csv")
	_ = evalCmd.MarkFlagRequired("paragraphs")
	rootCmd.AddCommand(evalCmd)
}
