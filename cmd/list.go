package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listPredictions string
	listJSON        bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored datasets, or the prediction log of one dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		out := cmd.OutOrStdout()

		if cmd.Flags().Changed("predictions") {
			recs, err := st.Predictions(cmd.Context(), listPredictions)
			if err != nil {
				return err
			}
			if listJSON {
				return writeJSON(cmd, "", recs, "predictions")
			}
			if len(recs) == 0 {
				fmt.Fprintln(out, "(no predictions)")
				return nil
			}
			for _, r := range recs {
				fmt.Fprintf(out, "- %s: %s → %s (%.2f)\n", r.PredictionID, r.DatasetID,
					r.PredictionResult.PredictedOutcome, r.PredictionResult.Confidence)
			}
			return nil
		}

		infos, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		if listJSON {
			return writeJSON(cmd, "", infos, "datasets")
		}
		if len(infos) == 0 {
			fmt.Fprintln(out, "(no datasets)")
			return nil
		}
		for _, d := range infos {
			model := "no model"
			if d.HasModel {
				model = "model"
			}
			fmt.Fprintf(out, "- %s: %s (%d rows, %d columns, %s) %s\n",
				d.ID, d.Name, d.Rows, d.Columns, model, d.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listPredictions, "predictions", "", "show the prediction log of a dataset id (empty = all)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "emit JSON")
}
