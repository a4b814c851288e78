package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rulescout/internal/catalog"
	"github.com/KaramelBytes/rulescout/internal/utils"
)

var (
	catFile string
	catJSON bool
	catRead readFlags
)

// loadCatalog reads --file, else keywords_file, else the built-in catalog.
func loadCatalog() (catalog.Catalog, error) {
	if catFile != "" {
		return catalog.Load(utils.ExpandHome(catFile))
	}
	c, err := currentConfig()
	if err != nil {
		return catalog.Default(), nil
	}
	return catalog.LoadOrDefault(utils.ExpandHome(c.KeywordsFile), log), nil
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the HR keyword catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		if catJSON {
			return writeJSON(cmd, "", cat, "catalog")
		}
		out := cmd.OutOrStdout()
		for _, c := range cat.Categories {
			fmt.Fprintf(out, "[%s] (%d)\n", strings.ToUpper(c.Name), len(c.Keywords))
			fmt.Fprintf(out, "  %s\n", strings.Join(c.Keywords, ", "))
		}
		fmt.Fprintf(out, "\nTotal keywords: %d\n", len(cat.All))
		return nil
	},
}

var catalogMatchCmd = &cobra.Command{
	Use:   "match <file>",
	Short: "Show which catalog keywords match the columns of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		ds, err := catRead.load(args[0])
		if err != nil {
			return err
		}
		mapping := catalog.MapColumns(ds.ColumnNames(), cat.All)
		if catJSON {
			return writeJSON(cmd, "", mapping, "matches")
		}
		out := cmd.OutOrStdout()
		if len(mapping) == 0 {
			fmt.Fprintln(out, "(no keyword matches)")
			return nil
		}
		keys := make([]string, 0, len(mapping))
		for k := range mapping {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cols := make([]string, 0, len(mapping[k]))
			for _, m := range mapping[k] {
				cols = append(cols, fmt.Sprintf("%s (%s)", m.Column, m.MatchType))
			}
			fmt.Fprintf(out, "- %s: %s\n", k, strings.Join(cols, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogMatchCmd)
	catalogCmd.PersistentFlags().StringVar(&catFile, "file", "", "keyword file (Markdown or YAML) instead of keywords_file")
	catalogCmd.PersistentFlags().BoolVar(&catJSON, "json", false, "emit JSON")
	catRead.register(catalogMatchCmd)
}
