package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rulescout/internal/service"
)

var (
	predInput      string
	predSet        []string
	predOutputPath string
)

var predictCmd = &cobra.Command{
	Use:   "predict <dataset-id>",
	Short: "Predict one record with the model trained for a stored dataset",
	Example: `  rulescout predict 3f2c... --input '{"attendance": 62, "dept": "IT"}'
  rulescout predict 3f2c... --set attendance=62 --set dept=IT`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := parseRecord(predInput, predSet)
		if err != nil {
			return err
		}
		if len(input) == 0 {
			return fmt.Errorf("provide the record with --input or --set")
		}
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		svc, err := newService(st)
		if err != nil {
			return err
		}

		res, err := svc.Predict(cmd.Context(), args[0], input)
		var pe *service.PredictionError
		switch {
		case errors.Is(err, service.ErrModelNotFound):
			return fmt.Errorf("no model for dataset %s, run `rulescout train` first", args[0])
		case errors.As(err, &pe):
			return fmt.Errorf("%s (%s)", pe.Message, pe.Details)
		case err != nil:
			return err
		}
		return writeJSON(cmd, predOutputPath, res, "prediction")
	},
}

// parseRecord merges a JSON object with key=value pairs; pairs win.
func parseRecord(raw string, pairs []string) (map[string]any, error) {
	rec := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		m, err := cast.ToStringMapE(raw)
		if err != nil {
			return nil, fmt.Errorf("--input must be a JSON object: %w", err)
		}
		rec = m
	}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --set %q (use key=value)", p)
		}
		rec[strings.TrimSpace(k)] = v
	}
	return rec, nil
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().StringVar(&predInput, "input", "", "record as a JSON object")
	predictCmd.Flags().StringArrayVar(&predSet, "set", nil, "record field as key=value (repeatable)")
	predictCmd.Flags().StringVarP(&predOutputPath, "output", "o", "", "optional path to write the JSON result")
}
