package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/railctl/internal/core/aggregate"
	"github.com/example/railctl/internal/core/classify"
	"github.com/example/railctl/internal/core/kpi"
	"github.com/example/railctl/internal/core/rules"
	"github.com/example/railctl/internal/core/section"
	"github.com/example/railctl/internal/errs"
	"github.com/example/railctl/internal/models"
)

// DefaultPath is where the CLI looks for the config file.
const DefaultPath = "railctl.yaml"

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"` // empty disables auth on command endpoints
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type EngineConfig struct {
	CycleIntervalStr string `yaml:"cycle_interval"`
	TrendBucketStr   string `yaml:"trend_bucket"`
	TrendWindowStr   string `yaml:"trend_window"`
	SampleRetention  int    `yaml:"sample_retention"`

	CycleInterval time.Duration `yaml:"-"` // Parsed durations
	TrendBucket   time.Duration `yaml:"-"`
	TrendWindow   time.Duration `yaml:"-"`
}

type ClassifierConfig struct {
	NormalMaxUtilization    float64 `yaml:"normal_max_utilization"`
	CongestedMaxUtilization float64 `yaml:"congested_max_utilization"`
	SevereDelayMinutes      int     `yaml:"severe_delay_minutes"`
}

type AdvisoryConfig struct {
	AutoConfidenceThreshold float64      `yaml:"auto_confidence_threshold"`
	MaxDelayMinutes         int          `yaml:"max_delay_minutes"`
	CapacityAlertPercent    float64      `yaml:"capacity_alert_percent"`
	Rules                   RuleSwitches `yaml:"rules"`
}

// RuleSwitches turns advisory generation on or off per rule. Recommendations
// is the master switch.
type RuleSwitches struct {
	Recommendations    bool `yaml:"recommendations"`
	TrainDelay         bool `yaml:"train_delay"`
	SectionBlocked     bool `yaml:"section_blocked"`
	SectionMaintenance bool `yaml:"section_maintenance"`
	SectionCongested   bool `yaml:"section_congested"`
}

type TopologyConfig struct {
	Sections []models.SectionSpec `yaml:"sections"`
}

// Config is the full railctl configuration. Everything except Server,
// Database and Topology can be hot-reloaded.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Engine     EngineConfig     `yaml:"engine"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Advisory   AdvisoryConfig   `yaml:"advisory"`
	KPITargets kpi.Targets      `yaml:"kpi_targets"`
	Topology   TopologyConfig   `yaml:"topology"`
}

// Default returns the configuration used for any value the file leaves out.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "railctl.db"},
		Engine: EngineConfig{
			CycleIntervalStr: "5s",
			TrendBucketStr:   "4h",
			TrendWindowStr:   "24h",
			SampleRetention:  17280, // 24h of 5s cycles
			CycleInterval:    5 * time.Second,
			TrendBucket:      4 * time.Hour,
			TrendWindow:      24 * time.Hour,
		},
		Classifier: ClassifierConfig{
			NormalMaxUtilization:    60,
			CongestedMaxUtilization: 85,
			SevereDelayMinutes:      10,
		},
		Advisory: AdvisoryConfig{
			AutoConfidenceThreshold: 95,
			MaxDelayMinutes:         15,
			CapacityAlertPercent:    80,
			Rules: RuleSwitches{
				Recommendations:    true,
				TrainDelay:         true,
				SectionBlocked:     true,
				SectionMaintenance: true,
				SectionCongested:   true,
			},
		},
		KPITargets: kpi.DefaultTargets(),
	}
}

// Sample returns the defaults with the five-section demonstration network.
func Sample() *Config {
	cfg := Default()
	cfg.Topology.Sections = []models.SectionSpec{
		{ID: "SEC001", Name: "Delhi-Ghaziabad", LengthKm: 32, Capacity: 8},
		{ID: "SEC002", Name: "Ghaziabad-Aligarh", LengthKm: 82, Capacity: 12},
		{ID: "SEC003", Name: "Delhi-Gurgaon", LengthKm: 28, Capacity: 6},
		{ID: "SEC004", Name: "Gurgaon-Palwal", LengthKm: 45, Capacity: 10},
		{ID: "SEC005", Name: "Palwal-Mathura", LengthKm: 58, Capacity: 15},
	}
	return cfg
}

// LoadConfig reads and validates the YAML file at path. Variables from a .env
// file in the working directory and RAILCTL_* environment variables override
// file values.
func LoadConfig(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// LoadDefaults returns the defaults with .env and RAILCTL_* overrides applied,
// for when there is no config file.
func LoadDefaults() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return Parse(nil)
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Parse decodes YAML over the defaults, applies environment overrides and
// validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML to path.
func SaveConfig(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("RAILCTL_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("RAILCTL_JWT_SECRET"); v != "" {
		c.Server.JWTSecret = v
	}
	if v := os.Getenv("RAILCTL_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("RAILCTL_CYCLE_INTERVAL"); v != "" {
		c.Engine.CycleIntervalStr = v
	}
	if v := os.Getenv("RAILCTL_AUTO_CONFIDENCE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &errs.ConfigError{Field: "RAILCTL_AUTO_CONFIDENCE_THRESHOLD", Reason: err.Error()}
		}
		c.Advisory.AutoConfidenceThreshold = f
	}
	return nil
}

func (c *Config) parseDurations() error {
	fields := []struct {
		name string
		str  string
		dst  *time.Duration
	}{
		{"engine.cycle_interval", c.Engine.CycleIntervalStr, &c.Engine.CycleInterval},
		{"engine.trend_bucket", c.Engine.TrendBucketStr, &c.Engine.TrendBucket},
		{"engine.trend_window", c.Engine.TrendWindowStr, &c.Engine.TrendWindow},
	}
	for _, f := range fields {
		if f.str == "" {
			continue
		}
		d, err := time.ParseDuration(f.str)
		if err != nil {
			return &errs.ConfigError{Field: f.name, Reason: fmt.Sprintf("failed to parse duration %q", f.str)}
		}
		*f.dst = d
	}
	return nil
}

// Validate checks every tunable and returns the first problem as a ConfigError.
func (c *Config) Validate() error {
	bad := func(field, format string, args ...any) error {
		return &errs.ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
	}

	if c.Database.Path == "" {
		return bad("database.path", "must not be empty")
	}
	if c.Engine.CycleInterval <= 0 {
		return bad("engine.cycle_interval", "must be positive (got %s)", c.Engine.CycleInterval)
	}
	if c.Engine.TrendBucket <= 0 {
		return bad("engine.trend_bucket", "must be positive (got %s)", c.Engine.TrendBucket)
	}
	if c.Engine.TrendWindow < c.Engine.TrendBucket {
		return bad("engine.trend_window", "must be at least one trend bucket (got %s)", c.Engine.TrendWindow)
	}
	if c.Engine.SampleRetention < 1 {
		return bad("engine.sample_retention", "must be at least 1 (got %d)", c.Engine.SampleRetention)
	}

	cl := c.Classifier
	if cl.NormalMaxUtilization <= 0 || cl.NormalMaxUtilization >= cl.CongestedMaxUtilization {
		return bad("classifier.normal_max_utilization", "must be positive and below congested_max_utilization (got %v)", cl.NormalMaxUtilization)
	}
	if cl.CongestedMaxUtilization > 100 {
		return bad("classifier.congested_max_utilization", "must not exceed 100 (got %v)", cl.CongestedMaxUtilization)
	}
	if cl.SevereDelayMinutes <= 0 {
		return bad("classifier.severe_delay_minutes", "must be positive (got %d)", cl.SevereDelayMinutes)
	}

	a := c.Advisory
	if a.AutoConfidenceThreshold < 0 || a.AutoConfidenceThreshold > 100 {
		return bad("advisory.auto_confidence_threshold", "must be within 0..100 (got %v)", a.AutoConfidenceThreshold)
	}
	if a.MaxDelayMinutes < 0 {
		return bad("advisory.max_delay_minutes", "must not be negative (got %d)", a.MaxDelayMinutes)
	}
	if a.CapacityAlertPercent <= 0 || a.CapacityAlertPercent > 100 {
		return bad("advisory.capacity_alert_percent", "must be within (0, 100] (got %v)", a.CapacityAlertPercent)
	}

	for name, t := range c.KPITargets {
		if t.Tolerance < 0 {
			return bad("kpi_targets."+name, "tolerance must not be negative (got %v)", t.Tolerance)
		}
	}

	seen := make(map[string]bool, len(c.Topology.Sections))
	for i, s := range c.Topology.Sections {
		if r := section.CanConfigure(s); !r.Allowed {
			return bad(fmt.Sprintf("topology.sections[%d]", i), "%s", r.Reason)
		}
		if seen[s.ID] {
			return bad(fmt.Sprintf("topology.sections[%d]", i), "duplicate section id %s", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// Bands returns the classifier utilization bands.
func (c *Config) Bands() classify.Bands {
	return classify.Bands{
		NormalMax:    c.Classifier.NormalMaxUtilization,
		CongestedMax: c.Classifier.CongestedMaxUtilization,
	}
}

// DelayThresholds returns the classifier delay thresholds.
func (c *Config) DelayThresholds() classify.DelayThresholds {
	return classify.DelayThresholds{SevereMinutes: c.Classifier.SevereDelayMinutes}
}

// AggregateConfig returns the aggregator tunables.
func (c *Config) AggregateConfig() aggregate.Config {
	return aggregate.Config{
		Bands:       c.Bands(),
		Delay:       c.DelayThresholds(),
		BucketWidth: c.Engine.TrendBucket,
		Window:      c.Engine.TrendWindow,
	}
}

// Policy returns the advisory rule tunables.
func (c *Config) Policy() rules.Policy {
	sw := c.Advisory.Rules
	disabled := make(map[string]bool)
	for id, on := range map[string]bool{
		rules.RuleTrainDelay:         sw.TrainDelay,
		rules.RuleSectionBlocked:     sw.SectionBlocked,
		rules.RuleSectionMaintenance: sw.SectionMaintenance,
		rules.RuleSectionCongested:   sw.SectionCongested,
	} {
		if !on {
			disabled[id] = true
		}
	}
	return rules.Policy{
		MaxDelayMinutes:      c.Advisory.MaxDelayMinutes,
		CapacityAlertPercent: c.Advisory.CapacityAlertPercent,
		Suspended:            !sw.Recommendations,
		Disabled:             disabled,
	}
}
