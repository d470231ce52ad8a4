package models

// FacilityConfig describes the care facility the schedule runs for.
type FacilityConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
}

// ScheduleConfig tunes the scheduling engine.
type ScheduleConfig struct {
	// LegacyCutoff is a YYYY-MM-DD date. Tasks due on or before it are never
	// reported as urgent. Empty disables the cutoff.
	LegacyCutoff   string `yaml:"legacy_cutoff" mapstructure:"legacy_cutoff"`
	DueSoonDays    int    `yaml:"due_soon_days" mapstructure:"due_soon_days"`
	GapScanMaxDays int    `yaml:"gap_scan_max_days" mapstructure:"gap_scan_max_days"`
	DefaultTime    string `yaml:"default_time" mapstructure:"default_time"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend     string `yaml:"backend" mapstructure:"backend"` // file or postgres
	PostgresDSN string `yaml:"postgres_dsn" mapstructure:"postgres_dsn"`
}

// AlertsConfig holds the alert engine thresholds.
type AlertsConfig struct {
	IncludeDueSoon bool `yaml:"include_due_soon" mapstructure:"include_due_soon"`
	MaxOverdue     int  `yaml:"max_overdue" mapstructure:"max_overdue"`
}

// SlackConfig holds Slack webhook settings.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// NotificationsConfig controls outbound alert notifications.
type NotificationsConfig struct {
	Enabled bool        `yaml:"enabled" mapstructure:"enabled"`
	Slack   SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// GlobalConfig holds system-wide settings read from .careclock.yaml via Viper.
type GlobalConfig struct {
	Facility      FacilityConfig      `yaml:"facility" mapstructure:"facility"`
	Schedule      ScheduleConfig      `yaml:"schedule" mapstructure:"schedule"`
	Storage       StorageConfig       `yaml:"storage" mapstructure:"storage"`
	Alerts        AlertsConfig        `yaml:"alerts" mapstructure:"alerts"`
	Notifications NotificationsConfig `yaml:"notifications" mapstructure:"notifications"`
}
