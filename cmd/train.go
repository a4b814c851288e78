package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	trainInput      string
	trainSet        []string
	trainOutputPath string
	trainRead       readFlags
)

var trainCmd = &cobra.Command{
	Use:   "train <file>",
	Short: "Store a dataset, train its model and optionally predict one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := parseRecord(trainInput, trainSet)
		if err != nil {
			return err
		}
		ds, err := trainRead.load(args[0])
		if err != nil {
			return err
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

		res, err := svc.AnalyzeAndPredict(cmd.Context(), ds, input)
		if err != nil {
			return err
		}
		if trainOutputPath == "" {
			if res.ModelAvailable {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored dataset %s (target: %s)\n", res.DatasetID, res.TargetColumn)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored dataset %s (no target column, model not trained)\n", res.DatasetID)
			}
		}
		return writeJSON(cmd, trainOutputPath, res, "training result")
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().StringVar(&trainInput, "input", "", "JSON object to predict after training")
	trainCmd.Flags().StringArrayVar(&trainSet, "set", nil, "record field as key=value (repeatable)")
	trainCmd.Flags().StringVarP(&trainOutputPath, "output", "o", "", "optional path to write the JSON result")
	trainRead.register(trainCmd)
}
