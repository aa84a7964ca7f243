package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
	"github.com/fwhub/fwcache-cli/pkg/cache"
	"github.com/fwhub/fwcache-cli/pkg/models"
	"github.com/fwhub/fwcache-cli/pkg/utils"
)

var (
	addSourceURL string
	addDevice    string
	addVersion   string
	addNoRestart bool
)

var addCmd = &cobra.Command{
	Use:   "add <source...>",
	Short: "Add firmware files or URLs to the cache",
	Long: `Add one or more firmware sources to the cache. A source is either a local
file or an http(s) URL. Identity (device code + firmware version) is resolved
from --device/--fw-version overrides, the URL path, or the filename; sources
that cannot be resolved are skipped.

With --url, exactly one local file is expected: the file is placed under the
identity resolved from the URL, without downloading anything. This covers
firmware fetched out of band on an internet-connected machine.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if addDevice != "" {
			cfg.Overrides.DeviceCode = addDevice
		}
		if addVersion != "" {
			cfg.Overrides.Version = addVersion
		}

		if addSourceURL != "" && len(args) != 1 {
			return fmt.Errorf("--url pairs one URL with exactly one local file, got %d files", len(args))
		}

		placer, _, err := newPlacer(cfg)
		if err != nil {
			return err
		}

		report := &fwerrors.BatchReport{}
		for _, source := range args {
			identitySource := source
			if addSourceURL != "" {
				identitySource = addSourceURL
			}

			id, err := cache.Resolve(identitySource, cfg.Overrides)
			if err != nil {
				utils.Warn("%v", err)
				report.Skip(source, err)
				continue
			}

			var entry *models.CacheEntry
			if cache.IsURL(source) {
				entry, err = placer.PlaceFromURL(cmd.Context(), id, source)
			} else {
				entry, err = placer.Place(id.DeviceCode, id.Version, source, cache.SourceFilename(identitySource))
			}
			if err != nil {
				if !fwerrors.IsItem(err) {
					return err
				}
				utils.Warn("%v", err)
				report.Skip(source, err)
				continue
			}

			report.Add(source, entry)
			fmt.Printf("  ✓ %s -> %s\n", source, entry.Path)
		}

		fmt.Printf("✅ Cached %d, skipped %d\n", report.Placed(), report.Skipped())
		restartIfRequested(cfg, report.Placed(), addNoRestart)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addSourceURL, "url", "", "resolve identity and filename from this URL instead of the local path")
	addCmd.Flags().StringVar(&addDevice, "device", "", "force the device code for every source")
	addCmd.Flags().StringVar(&addVersion, "fw-version", "", "force the firmware version for every source")
	addCmd.Flags().BoolVar(&addNoRestart, "no-restart", false, "do not restart the controller service after caching")
	rootCmd.AddCommand(addCmd)
}
