package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
	"github.com/fwhub/fwcache-cli/pkg/cache"
	"github.com/fwhub/fwcache-cli/pkg/utils"
)

var (
	scanDevice    string
	scanVersion   string
	scanNoRestart bool
)

// firmware image extensions worth picking up during a directory scan
var firmwareExtensions = map[string]bool{
	".bin": true,
	".img": true,
	".tar": true,
}

var scanCmd = &cobra.Command{
	Use:   "scan <directory>",
	Short: "Scan a directory and cache every firmware image found",
	Long: `Scan a directory tree for firmware images (.bin, .img, .tar) and cache each
one that resolves to a (device code, firmware version) identity. Unresolvable
files are listed and skipped; the scan always runs to completion.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if scanDevice != "" {
			cfg.Overrides.DeviceCode = scanDevice
		}
		if scanVersion != "" {
			cfg.Overrides.Version = scanVersion
		}

		dir := args[0]
		var sources []string
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			if firmwareExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
				sources = append(sources, path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", dir, err)
		}

		if len(sources) == 0 {
			fmt.Printf("No firmware images found under %s\n", dir)
			return nil
		}
		fmt.Printf("🔍 Found %d firmware image(s) under %s\n", len(sources), dir)

		placer, _, err := newPlacer(cfg)
		if err != nil {
			return err
		}

		report := &fwerrors.BatchReport{}
		for _, source := range sources {
			id, err := cache.Resolve(source, cfg.Overrides)
			if err != nil {
				utils.Warn("%v", err)
				report.Skip(source, err)
				continue
			}

			entry, err := placer.Place(id.DeviceCode, id.Version, source, filepath.Base(source))
			if err != nil {
				if !fwerrors.IsItem(err) {
					return err
				}
				utils.Warn("%v", err)
				report.Skip(source, err)
				continue
			}

			report.Add(source, entry)
			fmt.Printf("  ✓ %s -> %s\n", filepath.Base(source), entry.Path)
		}

		fmt.Printf("✅ Cached %d, skipped %d\n", report.Placed(), report.Skipped())
		restartIfRequested(cfg, report.Placed(), scanNoRestart)
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanDevice, "device", "", "force the device code for every file found")
	scanCmd.Flags().StringVar(&scanVersion, "fw-version", "", "force the firmware version for every file found")
	scanCmd.Flags().BoolVar(&scanNoRestart, "no-restart", false, "do not restart the controller service after caching")
	rootCmd.AddCommand(scanCmd)
}
