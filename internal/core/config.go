// Package core contains the careclock service layer: configuration loading
// and the ScheduleManager that binds the scheduling engine to task and
// completion storage.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/careclock/internal/schedule"
	"github.com/valter-silva-au/careclock/pkg/models"
)

// ConfigFileName is the configuration file looked up in the base path,
// without its extension.
const ConfigFileName = ".careclock"

// ConfigurationManager loads and validates the facility configuration.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading .careclock.yaml and CARECLOCK_* environment overrides.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .careclock.yaml from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns the configuration used when no file exists.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Facility: models.FacilityConfig{Timezone: "Local"},
		Schedule: models.ScheduleConfig{
			DueSoonDays:    schedule.DefaultDueSoonDays,
			GapScanMaxDays: schedule.DefaultMaxScanDays,
			DefaultTime:    schedule.DefaultTimeOfDay,
		},
		Storage: models.StorageConfig{Backend: "file"},
		Alerts:  models.AlertsConfig{IncludeDueSoon: true, MaxOverdue: 10},
	}
}

// LoadGlobalConfig reads .careclock.yaml from the base path. A missing file
// yields the defaults; environment variables such as
// CARECLOCK_STORAGE_POSTGRES_DSN override either.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("CARECLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("facility.name", cfg.Facility.Name)
	v.SetDefault("facility.timezone", cfg.Facility.Timezone)
	v.SetDefault("schedule.legacy_cutoff", cfg.Schedule.LegacyCutoff)
	v.SetDefault("schedule.due_soon_days", cfg.Schedule.DueSoonDays)
	v.SetDefault("schedule.gap_scan_max_days", cfg.Schedule.GapScanMaxDays)
	v.SetDefault("schedule.default_time", cfg.Schedule.DefaultTime)
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.postgres_dsn", cfg.Storage.PostgresDSN)
	v.SetDefault("alerts.include_due_soon", cfg.Alerts.IncludeDueSoon)
	v.SetDefault("alerts.max_overdue", cfg.Alerts.MaxOverdue)
	v.SetDefault("notifications.enabled", cfg.Notifications.Enabled)
	v.SetDefault("notifications.slack.webhook_url", cfg.Notifications.Slack.WebhookURL)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
		}
	}

	cfg.Facility.Name = v.GetString("facility.name")
	cfg.Facility.Timezone = v.GetString("facility.timezone")
	cfg.Schedule.LegacyCutoff = v.GetString("schedule.legacy_cutoff")
	cfg.Schedule.DueSoonDays = v.GetInt("schedule.due_soon_days")
	cfg.Schedule.GapScanMaxDays = v.GetInt("schedule.gap_scan_max_days")
	cfg.Schedule.DefaultTime = v.GetString("schedule.default_time")
	cfg.Storage.Backend = v.GetString("storage.backend")
	cfg.Storage.PostgresDSN = v.GetString("storage.postgres_dsn")
	cfg.Alerts.IncludeDueSoon = v.GetBool("alerts.include_due_soon")
	cfg.Alerts.MaxOverdue = v.GetInt("alerts.max_overdue")
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")

	return cfg, nil
}

// ValidateConfig checks cfg for invalid values and reports all of them.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if _, err := LoadLocation(cfg.Facility.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("facility.timezone %q is invalid: %v", cfg.Facility.Timezone, err))
	}
	if cfg.Schedule.LegacyCutoff != "" {
		if _, err := time.Parse(schedule.DateLayout, cfg.Schedule.LegacyCutoff); err != nil {
			errs = append(errs, fmt.Sprintf("schedule.legacy_cutoff %q must be YYYY-MM-DD", cfg.Schedule.LegacyCutoff))
		}
	}
	if cfg.Schedule.DueSoonDays < 1 {
		errs = append(errs, fmt.Sprintf("schedule.due_soon_days must be at least 1, got %d", cfg.Schedule.DueSoonDays))
	}
	if cfg.Schedule.GapScanMaxDays < 1 || cfg.Schedule.GapScanMaxDays > 3660 {
		errs = append(errs, fmt.Sprintf("schedule.gap_scan_max_days %d is invalid, must be between 1 and 3660", cfg.Schedule.GapScanMaxDays))
	}
	if models.NormalizeClock(cfg.Schedule.DefaultTime) == "" {
		errs = append(errs, fmt.Sprintf("schedule.default_time %q must be HH:MM", cfg.Schedule.DefaultTime))
	}

	switch cfg.Storage.Backend {
	case "file":
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			errs = append(errs, "storage.postgres_dsn is required when storage.backend is postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend %q is invalid, must be one of: file, postgres", cfg.Storage.Backend))
	}

	if cfg.Alerts.MaxOverdue < 0 {
		errs = append(errs, fmt.Sprintf("alerts.max_overdue must be non-negative, got %d", cfg.Alerts.MaxOverdue))
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL == "" {
		errs = append(errs, "notifications.slack.webhook_url is required when notifications are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LoadLocation resolves a configured time zone name. Empty and "Local" mean
// the host zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// EngineOptions converts the schedule section of cfg into engine options.
func EngineOptions(cfg *models.GlobalConfig) (schedule.Options, error) {
	loc, err := LoadLocation(cfg.Facility.Timezone)
	if err != nil {
		return schedule.Options{}, fmt.Errorf("loading facility timezone: %w", err)
	}
	opts := schedule.Options{
		Location:    loc,
		DueSoonDays: cfg.Schedule.DueSoonDays,
		MaxScanDays: cfg.Schedule.GapScanMaxDays,
		DefaultTime: cfg.Schedule.DefaultTime,
	}
	if cfg.Schedule.LegacyCutoff != "" {
		cutoff, err := time.ParseInLocation(schedule.DateLayout, cfg.Schedule.LegacyCutoff, loc)
		if err != nil {
			return schedule.Options{}, fmt.Errorf("parsing schedule.legacy_cutoff: %w", err)
		}
		opts.LegacyCutoff = cutoff
	}
	return opts, nil
}
