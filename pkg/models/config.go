package models

// Config represents the application configuration. It is built once at
// startup (defaults, config file, environment, flags) and passed into every
// component; nothing reads configuration state after that.
type Config struct {
	Cache     CacheConfig    `mapstructure:"cache" yaml:"cache" json:"cache"`
	Catalog   CatalogConfig  `mapstructure:"catalog" yaml:"catalog" json:"catalog"`
	Owner     OwnerConfig    `mapstructure:"owner" yaml:"owner" json:"owner"`
	Service   ServiceConfig  `mapstructure:"service" yaml:"service" json:"service"`
	Fetch     FetchConfig    `mapstructure:"fetch" yaml:"fetch" json:"fetch"`
	Mirror    MirrorConfig   `mapstructure:"mirror" yaml:"mirror" json:"mirror"`
	Overrides OverrideConfig `mapstructure:"overrides" yaml:"overrides" json:"overrides"`
	Log       LogConfig      `mapstructure:"log" yaml:"log" json:"log"`
}

// CacheConfig contains cache-layout configuration
type CacheConfig struct {
	Root string `mapstructure:"root" yaml:"root" json:"root"`
}

// CatalogConfig contains firmware-catalog configuration
type CatalogConfig struct {
	Path              string `mapstructure:"path" yaml:"path" json:"path"`
	ControllerVersion string `mapstructure:"controller_version" yaml:"controller_version" json:"controller_version"` // "auto" = detect latest
}

// OwnerConfig contains the ownership applied to cached files in
// privileged (controller) mode.
type OwnerConfig struct {
	User  string `mapstructure:"user" yaml:"user" json:"user"`
	Group string `mapstructure:"group" yaml:"group" json:"group"`
}

// ServiceConfig contains service-lifecycle configuration
type ServiceConfig struct {
	Name         string `mapstructure:"name" yaml:"name" json:"name"`
	RestartAfter bool   `mapstructure:"restart_after" yaml:"restart_after" json:"restart_after"`
}

// FetchConfig contains download configuration
type FetchConfig struct {
	MaxRetries  int    `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries"`
	Timeout     int    `mapstructure:"timeout" yaml:"timeout" json:"timeout"` // seconds
	HostRewrite string `mapstructure:"host_rewrite" yaml:"host_rewrite" json:"host_rewrite"`
}

// MirrorConfig contains mirror-tree configuration
type MirrorConfig struct {
	Root string `mapstructure:"root" yaml:"root" json:"root"`
}

// LogConfig contains diagnostic-logging configuration. File is optional;
// when set, log lines are mirrored into a size-rotated file.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level" json:"level"`
	File       string `mapstructure:"file" yaml:"file" json:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" json:"max_backups"`
}

// OverrideConfig forces identity resolution for every source in a run.
// Overrides take priority over URL patterns and filename heuristics.
type OverrideConfig struct {
	DeviceCode string `mapstructure:"device_code" yaml:"device_code" json:"device_code"`
	Version    string `mapstructure:"version" yaml:"version" json:"version"`
}
