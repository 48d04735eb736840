package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/okian/spdscore/internal/domain/engine"
	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/pkg/logger"
)

func newScoreCmd() *cobra.Command {
	var (
		input          string
		format         string
		hoursAvailable bool
		parallelism    int
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a batch file and print the report",
		Long: `Score reads a batch from a JSON or YAML file (or "-" for stdin) and prints
the processed report. The batch is either {"hours_worked_available": bool,
"rows": [...]} or a bare list of rows.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			bf, err := decodeBatch(data, isYAML(input))
			if err != nil {
				return fmt.Errorf("decode %s: %w", input, err)
			}
			if cmd.Flags().Changed("hours-available") {
				bf.HoursWorkedAvailable = hoursAvailable
			}

			eng, err := engine.New(
				engine.WithParallelism(parallelism),
				engine.WithLogger(logger.Named("engine")),
			)
			if err != nil {
				return err
			}
			report, err := eng.Build(cmd.Context(), model.Batch{
				ID:                   uuid.NewString(),
				Seq:                  1,
				HoursWorkedAvailable: bf.HoursWorkedAvailable,
				Rows:                 bf.Rows,
			})
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), format, report)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "batch file (.json, .yaml, .yml) or - for stdin")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json or yaml")
	cmd.Flags().BoolVar(&hoursAvailable, "hours-available", false, "override the batch's hours_worked_available flag")
	cmd.Flags().IntVar(&parallelism, "parallelism", 4, "per-person fan-out within a stage")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// decodeBatch accepts the batch object or a bare row list. Stdin is sniffed:
// anything not starting with '{' or '[' is treated as YAML.
func decodeBatch(data []byte, yamlInput bool) (batchFile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return batchFile{}, fmt.Errorf("empty input")
	}
	if !yamlInput && trimmed[0] != '{' && trimmed[0] != '[' {
		yamlInput = true
	}

	var bf batchFile
	if yamlInput {
		var probe any
		if err := yaml.Unmarshal(trimmed, &probe); err != nil {
			return batchFile{}, err
		}
		if _, ok := probe.([]any); ok {
			return bf, yaml.Unmarshal(trimmed, &bf.Rows)
		}
		return bf, yaml.Unmarshal(trimmed, &bf)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if trimmed[0] == '[' {
		return bf, dec.Decode(&bf.Rows)
	}
	return bf, dec.Decode(&bf)
}
