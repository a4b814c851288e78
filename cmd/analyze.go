package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rulescout/internal/analysis"
)

var (
	anaOutputPath string
	anaJSON       bool
	anaSampleRows int
	anaGroupBy    []string
	anaCorr       bool
	anaOutliers   bool
	anaOutlierThr float64
	anaRead       readFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a CSV/TSV/XLSX dataset and suggest business rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := anaRead.load(args[0])
		if err != nil {
			return err
		}
		svc, err := newService(nil)
		if err != nil {
			return err
		}
		rep, err := svc.Profile(ds, analysisOptions(cmd, anaSampleRows, anaGroupBy, anaCorr, anaOutliers, anaOutlierThr))
		if err != nil {
			return err
		}
		if anaJSON {
			return writeJSON(cmd, anaOutputPath, rep, "analysis")
		}
		return writeOutput(cmd, anaOutputPath, []byte(rep.Markdown()), "analysis")
	},
}

// analysisOptions maps the shared analytics flags. Outliers default to on.
func analysisOptions(cmd *cobra.Command, samples int, groupBy []string, corr, outliers bool, thr float64) analysis.Options {
	opt := analysis.DefaultOptions()
	if samples >= 0 {
		opt.SampleRows = samples
	}
	opt.GroupBy = groupBy
	opt.Correlations = corr
	opt.Outliers = true
	if cmd.Flags().Changed("outliers") {
		opt.Outliers = outliers
	}
	if thr > 0 {
		opt.OutlierThreshold = thr
	}
	return opt
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "emit JSON instead of Markdown")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include")
	analyzeCmd.Flags().StringSliceVar(&anaGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	analyzeCmd.Flags().BoolVar(&anaOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	analyzeCmd.Flags().Float64Var(&anaOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	anaRead.register(analyzeCmd)
}
