package cmd

import (
	"github.com/spf13/cobra"
)

var (
	decOutputPath string
	decJSON       bool
	decNoML       bool
	decRead       readFlags
)

var decideCmd = &cobra.Command{
	Use:   "decide <file>",
	Short: "Apply the HR decision rules to every record",
	Long: `Detects the dataset purpose, maps columns to roles and applies the salary,
attendance, leave, working-hours, performance and age rules to every record.
Rule discovery and pattern mining run unless --no-ml is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := decRead.load(args[0])
		if err != nil {
			return err
		}
		svc, err := newService(nil)
		if err != nil {
			return err
		}
		rep := svc.Decide(ds, !decNoML)
		if decJSON {
			return writeJSON(cmd, decOutputPath, rep, "decisions")
		}
		return writeOutput(cmd, decOutputPath, []byte(rep.Markdown()), "decisions")
	},
}

func init() {
	rootCmd.AddCommand(decideCmd)
	decideCmd.Flags().StringVarP(&decOutputPath, "output", "o", "", "optional path to write the report")
	decideCmd.Flags().BoolVar(&decJSON, "json", false, "emit JSON instead of Markdown")
	decideCmd.Flags().BoolVar(&decNoML, "no-ml", false, "skip rule discovery and pattern mining")
	decRead.register(decideCmd)
}
