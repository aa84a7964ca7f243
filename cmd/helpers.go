package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fwhub/fwcache-cli/internal/config"
	"github.com/fwhub/fwcache-cli/internal/i18n"
	"github.com/fwhub/fwcache-cli/pkg/cache"
	"github.com/fwhub/fwcache-cli/pkg/fetch"
	"github.com/fwhub/fwcache-cli/pkg/models"
	"github.com/fwhub/fwcache-cli/pkg/system"
	"github.com/fwhub/fwcache-cli/pkg/utils"
)

// loadConfig builds the run configuration: file + environment, then the
// root-level flag overrides. Components receive the result and never read
// ambient state themselves.
func loadConfig() (*models.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cacheRoot != "" {
		cfg.Cache.Root = cacheRoot
	}

	utils.InitGlobalLogger(&utils.LoggerConfig{
		Level:       utils.ParseLogLevel(cfg.Log.Level),
		FilePath:    cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		EnableColor: true,
	})

	return cfg, nil
}

// newOwner builds the ownership policy for cache writes. An explicit
// --owner request without root privilege is fatal; otherwise unprivileged
// runs silently fall back to mode-only handling.
func newOwner(cfg *models.Config) (*system.Owner, error) {
	if ownerSpec != "" {
		user, group := ownerSpec, ""
		if idx := strings.Index(ownerSpec, ":"); idx >= 0 {
			user, group = ownerSpec[:idx], ownerSpec[idx+1:]
		}
		return system.LookupOwner(user, group)
	}

	if os.Geteuid() != 0 {
		return system.NopOwner(), nil
	}
	return system.LookupOwner(cfg.Owner.User, cfg.Owner.Group)
}

// newPlacer wires the index, ownership policy and fetcher into a ready
// placement engine, initializing the cache root on the way.
func newPlacer(cfg *models.Config) (*cache.Placer, *cache.Index, error) {
	owner, err := newOwner(cfg)
	if err != nil {
		return nil, nil, err
	}

	index := cache.NewIndex(cfg.Cache.Root, owner)
	if err := index.EnsureInitialized(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize cache at %s: %w", cfg.Cache.Root, err)
	}

	placer := cache.NewPlacer(index, owner, fetch.New(cfg.Fetch))
	return placer, index, nil
}

// confirm asks a yes/no question; --yes answers it unattended.
func confirm(prompt string) bool {
	if skipConfirm {
		return true
	}
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// restartIfRequested restarts the consuming service after cache changes.
// Best-effort: failure is logged, never fatal.
func restartIfRequested(cfg *models.Config, placed int, noRestart bool) {
	if noRestart || !cfg.Service.RestartAfter || placed == 0 {
		return
	}

	fmt.Println(i18n.T("cmd.restart.start", map[string]interface{}{"service": cfg.Service.Name}))
	if err := system.RestartService(cfg.Service.Name); err != nil {
		utils.Warn("%s", i18n.T("cmd.restart.failed", map[string]interface{}{"error": err.Error()}))
		return
	}
	fmt.Println(i18n.T("cmd.restart.done", map[string]interface{}{"service": cfg.Service.Name}))
}
