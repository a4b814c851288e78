package cmd

import (
	"github.com/spf13/cobra"
)

var (
	peOutputPath string
	peRead       readFlags
)

var predictEngineCmd = &cobra.Command{
	Use:   "predict-engine <file>",
	Short: "Run the keyword-category predictions (salary, attendance, leave, performance)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := peRead.load(args[0])
		if err != nil {
			return err
		}
		svc, err := newService(nil)
		if err != nil {
			return err
		}
		return writeJSON(cmd, peOutputPath, svc.PredictAll(ds), "predictions")
	},
}

func init() {
	rootCmd.AddCommand(predictEngineCmd)
	predictEngineCmd.Flags().StringVarP(&peOutputPath, "output", "o", "", "optional path to write the JSON report")
	peRead.register(predictEngineCmd)
}
