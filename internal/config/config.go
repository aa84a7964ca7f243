package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwhub/fwcache-cli/pkg/models"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var defaultConfig = models.Config{
	Cache: models.CacheConfig{
		Root: "/usr/lib/unifi/data/firmware",
	},
	Catalog: models.CatalogConfig{
		Path:              "/usr/lib/unifi/data/firmware.json",
		ControllerVersion: "auto",
	},
	Owner: models.OwnerConfig{
		User:  "unifi",
		Group: "unifi",
	},
	Service: models.ServiceConfig{
		Name:         "unifi",
		RestartAfter: true,
	},
	Fetch: models.FetchConfig{
		MaxRetries: 3,
		Timeout:    300,
	},
	Log: models.LogConfig{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 3,
	},
}

// Load loads configuration from file and environment
func Load(configPath string) (*models.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults
	v.SetDefault("cache.root", defaultConfig.Cache.Root)
	v.SetDefault("catalog.path", defaultConfig.Catalog.Path)
	v.SetDefault("catalog.controller_version", defaultConfig.Catalog.ControllerVersion)
	v.SetDefault("owner.user", defaultConfig.Owner.User)
	v.SetDefault("owner.group", defaultConfig.Owner.Group)
	v.SetDefault("service.name", defaultConfig.Service.Name)
	v.SetDefault("service.restart_after", defaultConfig.Service.RestartAfter)
	v.SetDefault("fetch.max_retries", defaultConfig.Fetch.MaxRetries)
	v.SetDefault("fetch.timeout", defaultConfig.Fetch.Timeout)
	v.SetDefault("fetch.host_rewrite", "")
	v.SetDefault("mirror.root", "")
	v.SetDefault("overrides.device_code", "")
	v.SetDefault("overrides.version", "")
	v.SetDefault("log.level", defaultConfig.Log.Level)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", defaultConfig.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", defaultConfig.Log.MaxBackups)

	// Try to load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("fwcache")
		v.AddConfigPath(".")

		// Also check in user's home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "fwcache"))
		}
	}

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is not an error, we'll use defaults
	}

	// Bind environment variables (FWCACHE_CACHE_ROOT, FWCACHE_CATALOG_PATH, ...)
	v.SetEnvPrefix("FWCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal into the immutable configuration struct
	var config models.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// SaveTemplate saves a configuration template with the built-in defaults
// rendered in place.
func SaveTemplate(path string) error {
	defaults, err := yaml.Marshal(&defaultConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal defaults: %w", err)
	}

	header := `# fwcache configuration file
#
# Every value may also be supplied via environment variables with the
# FWCACHE_ prefix (FWCACHE_CACHE_ROOT, FWCACHE_CATALOG_PATH, ...) or via
# command-line flags; flags take precedence over the environment, which
# takes precedence over this file.
#
# catalog.controller_version: "auto" selects the highest numeric version
# key present in the catalog document.
# owner: applied to cached files and directories when running as root.
# fetch.host_rewrite: optional "host[:port]" substituted for the download
# URL authority before dispatch; scheme and path are left untouched.

`

	return os.WriteFile(path, append([]byte(header), defaults...), 0644)
}
