package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/decision"
	"github.com/KaramelBytes/rulescout/internal/prediction"
	"github.com/KaramelBytes/rulescout/internal/rules"
)

// Store backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// DirName is the per-user directory holding config.yaml and the file store.
const DirName = ".rulescout"

// Global configuration structure.
type Global struct {
	// Storage
	StorageDir   string `mapstructure:"storage_dir" yaml:"storage_dir"`
	StoreBackend string `mapstructure:"store_backend" yaml:"store_backend"`
	RedisAddr    string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPrefix  string `mapstructure:"redis_prefix" yaml:"redis_prefix"`

	// HTTP server
	ServerAddr  string `mapstructure:"server_addr" yaml:"server_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	// Loading
	KeywordsFile string `mapstructure:"keywords_file" yaml:"keywords_file"`
	MaxRows      int    `mapstructure:"max_rows" yaml:"max_rows"`

	// Advisory rule thresholds
	LateCutoff      string  `mapstructure:"late_cutoff" yaml:"late_cutoff"`
	StandardHours   float64 `mapstructure:"standard_hours" yaml:"standard_hours"`
	HalfDayMaxHours float64 `mapstructure:"half_day_max_hours" yaml:"half_day_max_hours"`
	MinAge          float64 `mapstructure:"min_age" yaml:"min_age"`
	MaxAge          float64 `mapstructure:"max_age" yaml:"max_age"`

	// Decision and prediction policy
	SalaryHigh          float64 `mapstructure:"salary_high" yaml:"salary_high"`
	SalaryMedium        float64 `mapstructure:"salary_medium" yaml:"salary_medium"`
	FullDayHours        float64 `mapstructure:"full_day_hours" yaml:"full_day_hours"`
	HalfDayHours        float64 `mapstructure:"half_day_hours" yaml:"half_day_hours"`
	CasualMaxDays       float64 `mapstructure:"casual_max_days" yaml:"casual_max_days"`
	RatingExcellent     float64 `mapstructure:"rating_excellent" yaml:"rating_excellent"`
	RatingGood          float64 `mapstructure:"rating_good" yaml:"rating_good"`
	AttendanceExcellent float64 `mapstructure:"attendance_excellent" yaml:"attendance_excellent"`
	AttendanceGood      float64 `mapstructure:"attendance_good" yaml:"attendance_good"`
	AttendanceFair      float64 `mapstructure:"attendance_fair" yaml:"attendance_fair"`
	OfficeStart         string  `mapstructure:"office_start" yaml:"office_start"`
	OfficeEnd           string  `mapstructure:"office_end" yaml:"office_end"`
}

// Dir returns ~/.rulescout.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.rulescout/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	rt := rules.DefaultThresholds()
	dt := decision.DefaultThresholds()
	pt := prediction.DefaultThresholds()

	v.SetDefault("store_backend", BackendFile)
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("redis_prefix", "rulescout:")
	v.SetDefault("server_addr", ":8000")
	v.SetDefault("max_upload_mb", 32)
	v.SetDefault("max_rows", dataset.DefaultOptions().MaxRows)

	v.SetDefault("late_cutoff", rt.LateCutoff)
	v.SetDefault("standard_hours", rt.StandardHours)
	v.SetDefault("half_day_max_hours", rt.HalfDayMaxHours)
	v.SetDefault("min_age", rt.MinAge)
	v.SetDefault("max_age", rt.MaxAge)

	v.SetDefault("salary_high", dt.SalaryHigh)
	v.SetDefault("salary_medium", dt.SalaryMedium)
	v.SetDefault("full_day_hours", dt.FullDayHours)
	v.SetDefault("half_day_hours", dt.HalfDayHours)
	v.SetDefault("casual_max_days", dt.CasualMaxDays)
	v.SetDefault("rating_excellent", dt.RatingExcellent)
	v.SetDefault("rating_good", dt.RatingGood)
	v.SetDefault("attendance_excellent", pt.AttendanceExcellent)
	v.SetDefault("attendance_good", pt.AttendanceGood)
	v.SetDefault("attendance_fair", pt.AttendanceFair)
	v.SetDefault("office_start", dt.OfficeStart)
	v.SetDefault("office_end", dt.OfficeEnd)
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("RULESCOUT")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.StorageDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.StorageDir = filepath.Join(dir, "data")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values that would otherwise fail deep inside an analysis.
func (c *Global) Validate() error {
	switch c.StoreBackend {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("invalid store_backend: %s (use file or redis)", c.StoreBackend)
	}
	for key, clock := range map[string]string{"late_cutoff": c.LateCutoff, "office_start": c.OfficeStart, "office_end": c.OfficeEnd} {
		if _, err := rules.ParseClock(clock); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	if c.SalaryMedium > c.SalaryHigh {
		return fmt.Errorf("salary_medium (%v) exceeds salary_high (%v)", c.SalaryMedium, c.SalaryHigh)
	}
	if c.RatingGood > c.RatingExcellent {
		return fmt.Errorf("rating_good (%v) exceeds rating_excellent (%v)", c.RatingGood, c.RatingExcellent)
	}
	return nil
}

// ReadOptions returns the dataset loading options.
func (c *Global) ReadOptions() dataset.Options {
	opt := dataset.DefaultOptions()
	opt.MaxRows = c.MaxRows
	return opt
}

// RuleThresholds returns the advisory rule thresholds.
func (c *Global) RuleThresholds() rules.Thresholds {
	th := rules.DefaultThresholds()
	th.LateCutoff = c.LateCutoff
	th.StandardHours = c.StandardHours
	th.HalfDayMaxHours = c.HalfDayMaxHours
	th.MinAge = c.MinAge
	th.MaxAge = c.MaxAge
	return th
}

// DecisionThresholds returns the per-record decision policy.
func (c *Global) DecisionThresholds() decision.Thresholds {
	th := decision.DefaultThresholds()
	th.SalaryHigh = c.SalaryHigh
	th.SalaryMedium = c.SalaryMedium
	th.FullDayHours = c.FullDayHours
	th.HalfDayHours = c.HalfDayHours
	th.CasualMaxDays = c.CasualMaxDays
	th.RatingExcellent = c.RatingExcellent
	th.RatingGood = c.RatingGood
	th.OfficeStart = c.OfficeStart
	th.OfficeEnd = c.OfficeEnd
	return th
}

// PredictionThresholds returns the prediction engine policy.
func (c *Global) PredictionThresholds() prediction.Thresholds {
	th := prediction.DefaultThresholds()
	th.SalaryHigh = c.SalaryHigh
	th.SalaryMedium = c.SalaryMedium
	th.CasualMaxDays = c.CasualMaxDays
	th.RatingExcellent = c.RatingExcellent
	th.RatingGood = c.RatingGood
	th.AttendanceExcellent = c.AttendanceExcellent
	th.AttendanceGood = c.AttendanceGood
	th.AttendanceFair = c.AttendanceFair
	return th
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Global) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// Set assigns val to the field tagged key and revalidates the result.
// Non-string fields parse val as a YAML scalar. Unknown keys and mistyped values are rejected.
func (c *Global) Set(key, val string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	fields := map[string]any{}
	if err := yaml.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("unmarshal yaml: %w", err)
	}
	cur, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}
	var parsed any = val
	if _, isString := cur.(string); !isString {
		if err := yaml.Unmarshal([]byte(val), &parsed); err != nil {
			return fmt.Errorf("invalid value for %s: %q", key, val)
		}
	}
	fields[key] = parsed

	if b, err = yaml.Marshal(fields); err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	next := *c
	if err := yaml.Unmarshal(b, &next); err != nil {
		return fmt.Errorf("invalid value for %s: %q", key, val)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
