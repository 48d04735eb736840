package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/loadtest"
	"github.com/okian/spdscore/pkg/logger"
)

func newLoadtestCmd() *cobra.Command {
	var (
		cfg    loadtest.Config
		score  string
		format string
	)
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Drive a running server with synthetic batches and check the results",
		Long: `Loadtest submits generated cohorts concurrently, resubmits some of them to
exercise duplicate detection, waits until the newest accepted batch is the
latest report and checks the leaderboard against that report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Score = model.ScoreKind(score)
			stats, err := loadtest.Run(cmd.Context(), cfg, logger.Named("loadtest"))
			if stats != nil {
				if encErr := encode(cmd.OutOrStdout(), format, stats); encErr != nil && err == nil {
					err = encErr
				}
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the scoring server")
	f.IntVar(&cfg.Batches, "batches", loadtest.DefaultBatches, "distinct batches to submit")
	f.IntVar(&cfg.Duplicates, "duplicates", 2, "batches to resubmit after the first pass")
	f.IntVarP(&cfg.People, "people", "n", loadtest.DefaultPeople, "people per batch")
	f.Uint64Var(&cfg.Seed, "seed", 1, "seed of the first batch")
	f.BoolVar(&cfg.Messy, "messy", false, "emit string, negative and missing values")
	f.IntVar(&cfg.Workers, "workers", loadtest.DefaultWorkers, "concurrent submitters")
	f.StringVar(&score, "score", string(model.ScoreProductivity), "leaderboard to verify")
	f.IntVar(&cfg.TopN, "top", loadtest.DefaultTopN, "leaderboard size to request")
	f.DurationVar(&cfg.Timeout, "timeout", loadtest.DefaultTimeout, "request timeout and wait for the final report")
	f.DurationVar(&cfg.PollInterval, "poll", loadtest.DefaultPollInterval, "delay between report polls")
	f.StringVarP(&format, "format", "f", formatJSON, "output format: json or yaml")
	return cmd
}
