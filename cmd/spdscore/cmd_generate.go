package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/spdscore/internal/cohortgen"
)

func newGenerateCmd() *cobra.Command {
	var (
		people         int
		seed           uint64
		format         string
		messy          bool
		hoursAvailable bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a synthetic cohort batch",
		Long: `Generate prints a reproducible synthetic batch that score accepts as input:

  spdscore generate --people 40 --seed 7 | spdscore score`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := cohortgen.New(seed, cohortgen.WithMessyValues(messy)).Rows(people)
			return encode(cmd.OutOrStdout(), format, batchFile{HoursWorkedAvailable: hoursAvailable, Rows: rows})
		},
	}
	cmd.Flags().IntVarP(&people, "people", "n", 20, "number of people in the cohort")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json or yaml")
	cmd.Flags().BoolVar(&messy, "messy", false, "emit string, negative and missing values")
	cmd.Flags().BoolVar(&hoursAvailable, "hours-available", true, "set hours_worked_available on the batch")
	return cmd
}
