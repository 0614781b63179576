package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/corpuslab/crossqa/internal/kilt"
	"github.com/corpuslab/crossqa/internal/ledger"
	"github.com/corpuslab/crossqa/internal/pipeline"
	"github.com/corpuslab/crossqa/internal/sink"
	"github.com/corpuslab/crossqa/pkg/wikipedia"
)

var (
	extractInput   string
	extractOutput  string
	extractWorkers int
	extractMax     int
	extractPause   string
	extractNoBar   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Stream question records and keep cross-lingual matches",
	Long: `Reads KILT-style JSONL records, keeps questions whose source-language
page has a target-language version, and appends enriched rows to the
output CSV.

Interrupt-safe: rows already in the output are skipped on rerun, so the
job can be stopped and resumed at any time.

Examples:
  # Fresh run, default languages (en via it to sc)
  crossqa extract --input kilt_nq.jsonl --output nq_sc.csv

  # Resume the same file, keep at most 500 new rows
  crossqa extract --input kilt_nq.jsonl --output nq_sc.csv --max 500

  # Stream from stdin
  zcat kilt_nq.jsonl.gz | crossqa extract --input - --output nq_sc.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if extractInput != "" {
			cfg.Extract.Input = extractInput
		}
		if extractOutput != "" {
			cfg.Extract.Output = extractOutput
		}
		if cmd.Flags().Changed("workers") {
			cfg.Extract.Workers = extractWorkers
		}
		if cmd.Flags().Changed("max") {
			cfg.Extract.MaxKeep = extractMax
		}
		if extractPause != "" {
			pause, err := parseDuration(extractPause)
			if err != nil {
				return err
			}
			cfg.Extract.Pause = pause
		}
		if cfg.Extract.Input == "" {
			return eris.New("extract: no input (set --input or extract.input)")
		}

		runID := uuid.NewString()
		log := zap.L().With(
			zap.String("run_id", runID),
			zap.String("output", cfg.Extract.Output),
		)

		led, err := ledger.Load(cfg.Extract.Output)
		if err != nil {
			return eris.Wrap(err, "extract: load ledger")
		}
		log.Info("extract: ledger loaded",
			zap.Int("known", led.Len()),
			zap.Bool("legacy", led.Legacy()),
		)

		stream, err := kilt.Open(cfg.Extract.Input)
		if err != nil {
			return eris.Wrap(err, "extract: open input")
		}
		defer stream.Close() //nolint:errcheck

		header := sink.Header(cfg.Langs.Source, cfg.Langs.Pivot, cfg.Langs.Target)
		out, err := sink.Open(cfg.Extract.Output, header)
		if err != nil {
			return eris.Wrap(err, "extract: open sink")
		}
		defer out.Close() //nolint:errcheck

		enricher := pipeline.NewEnricher(newWikiClient(), cfg.Dataset, cfg.Langs, cfg.Extract.Pause)

		opts := pipeline.Options{
			Workers: cfg.Extract.Workers,
			FanOut:  cfg.Extract.FanOut,
			MaxKeep: cfg.Extract.MaxKeep,
		}
		if !extractNoBar {
			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("extract"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("q"),
			)
			_ = bar.Add(led.Len())
			opts.Progress = func(delta int) { _ = bar.Add(delta) }
		}

		snap, runErr := pipeline.New(enricher, led, out, opts).Run(ctx, stream)
		if runErr != nil {
			return eris.Wrap(runErr, "extract: run")
		}

		fmt.Fprintf(os.Stderr, "\nAdded %d new rows to %s\n", snap.Kept, cfg.Extract.Output)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractInput, "input", "", "JSONL input path (- for stdin)")
	extractCmd.Flags().StringVar(&extractOutput, "output", "", "output CSV path (appended to on resume)")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 8, "concurrent enrichment workers")
	extractCmd.Flags().IntVar(&extractMax, "max", 0, "max rows to newly keep this run (0 = unlimited)")
	extractCmd.Flags().StringVar(&extractPause, "pause", "", "per-worker sleep after API calls, e.g. 50ms")
	extractCmd.Flags().BoolVar(&extractNoBar, "no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(extractCmd)
}

// newWikiClient builds the MediaWiki client from config, installing the
// shared rate limiter when one is configured.
func newWikiClient() wikipedia.Client {
	opts := []wikipedia.Option{
		wikipedia.WithAPIURL(cfg.Wiki.APIURL),
	}
	if cfg.Wiki.Timeout > 0 {
		opts = append(opts, wikipedia.WithHTTPClient(newHTTPClient(cfg.Wiki.Timeout)))
	}
	if cfg.Wiki.Rate > 0 {
		burst := cfg.Wiki.Burst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, wikipedia.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Wiki.Rate), burst)))
	}
	return wikipedia.NewClient(opts...)
}
