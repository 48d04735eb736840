package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/pkg/logger"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// batchFile is the on-disk batch shape shared by score and generate.
type batchFile struct {
	HoursWorkedAvailable bool        `json:"hours_worked_available" yaml:"hours_worked_available"`
	Rows                 []model.Row `json:"rows" yaml:"rows"`
}

func newRootCmd() *cobra.Command {
	var (
		verbose   bool
		logFormat string
	)
	root := &cobra.Command{
		Use:          "spdscore",
		Short:        "Score sterile processing cohorts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(logFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			if verbose {
				return logger.SetLevelString("debug")
			}
			return logger.SetLevelString("warn")
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().StringVar(&logFormat, "log-format", logger.FormatText, "log format: text or json")

	root.AddCommand(newScoreCmd(), newGenerateCmd(), newLoadtestCmd())
	return root
}

// encode writes v to w in the requested format.
func encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (want json or yaml)", format)
}
