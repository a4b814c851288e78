package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rulescout/internal/catalog"
	cfgpkg "github.com/KaramelBytes/rulescout/internal/config"
	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/service"
	"github.com/KaramelBytes/rulescout/internal/store"
	"github.com/KaramelBytes/rulescout/internal/utils"
)

var (
	// Global flags
	cfgFile  string
	logLevel string

	// Loaded configuration
	cfg *cfgpkg.Global
	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "rulescout",
	Short: "RuleScout: discover HR business rules in tabular data",
	Long: `RuleScout profiles CSV/TSV/XLSX datasets, suggests validation and decision rules,
applies per-record HR decisions, trains explainable models and serves it all over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log.SetLevel(level)
		return nil
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.rulescout/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// currentConfig returns the loaded configuration, loading it on first use.
func currentConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// openStore opens the backend named by store_backend.
func openStore(ctx context.Context) (store.Store, error) {
	c, err := currentConfig()
	if err != nil {
		return nil, err
	}
	if c.StoreBackend == cfgpkg.BackendRedis {
		rs, err := store.DialRedis(ctx, c.RedisAddr, c.RedisPrefix, log)
		if err != nil {
			return nil, err
		}
		return rs, nil
	}
	fs, err := store.NewFileStore(utils.ExpandHome(c.StorageDir), log)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// newService builds a service from the configuration; st may be nil for the
// stateless commands.
func newService(st store.Store) (*service.Service, error) {
	c, err := currentConfig()
	if err != nil {
		return nil, err
	}
	cat := catalog.LoadOrDefault(utils.ExpandHome(c.KeywordsFile), log)
	rt := c.RuleThresholds()
	dt := c.DecisionThresholds()
	pt := c.PredictionThresholds()
	return service.New(service.Options{
		Store:      st,
		Catalog:    &cat,
		Rules:      &rt,
		Decision:   &dt,
		Prediction: &pt,
		Log:        log,
	}), nil
}

// readFlags holds the dataset loading flags shared by the file commands.
type readFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int
}

func (f *readFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	fs.StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	fs.StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	fs.IntVar(&f.maxRows, "max-rows", 0, "maximum rows to process (0 = use config max_rows)")
	fs.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fs.IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func (f *readFlags) options() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	if c, err := currentConfig(); err == nil {
		opt = c.ReadOptions()
	}
	if f.maxRows > 0 {
		opt.MaxRows = f.maxRows
	}
	switch f.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	opt.SheetName = f.sheetName
	if f.sheetIndex > 0 {
		opt.SheetIndex = f.sheetIndex
	}
	return opt, nil
}

// load reads path with the flag options.
func (f *readFlags) load(path string) (*dataset.Dataset, error) {
	opt, err := f.options()
	if err != nil {
		return nil, err
	}
	ds, err := dataset.LoadFile(path, opt)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"file": path, "rows": ds.Rows(), "columns": len(ds.Columns)}).Debug("Loaded dataset")
	return ds, nil
}

// writeOutput writes body to path, or prints it when path is empty.
func writeOutput(cmd *cobra.Command, path string, body []byte, what string) error {
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	}
	if err := utils.SafeWriteFile(path, body); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s to %s\n", what, path)
	return nil
}

// writeJSON renders v as indented JSON.
func writeJSON(cmd *cobra.Command, path string, v any, what string) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	return writeOutput(cmd, path, b, what)
}
