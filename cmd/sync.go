package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
	"github.com/fwhub/fwcache-cli/internal/i18n"
	"github.com/fwhub/fwcache-cli/pkg/catalog"
	"github.com/fwhub/fwcache-cli/pkg/utils"
)

var (
	syncControllerVersion string
	syncNoRestart         bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [device-code...]",
	Short: i18n.T("cmd.sync.short"),
	Long:  i18n.T("cmd.sync.long"),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if syncControllerVersion != "" {
			cfg.Catalog.ControllerVersion = syncControllerVersion
		}

		reader, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		ctrlVer, err := reader.ResolveControllerVersion(cfg.Catalog.ControllerVersion)
		if err != nil {
			return err
		}
		fmt.Println(i18n.T("cmd.sync.controller", map[string]interface{}{
			"version": ctrlVer,
			"catalog": cfg.Catalog.Path,
		}))

		rel := reader.Release(ctrlVer)
		if rel == nil {
			return fwerrors.Fatal(fwerrors.CodeCatalogLoad,
				"no release set in catalog for controller version").
				WithContext("version", ctrlVer)
		}

		codes := args
		if len(codes) == 0 {
			codes = rel.Codes
			if !confirm(fmt.Sprintf("Sync all %d firmware releases for controller %s?", len(codes), ctrlVer)) {
				fmt.Println("Aborted.")
				return nil
			}
		}

		placer, _, err := newPlacer(cfg)
		if err != nil {
			return err
		}

		report := &fwerrors.BatchReport{}
		for _, code := range codes {
			rec := reader.Lookup(ctrlVer, code)
			if rec == nil {
				skipErr := fwerrors.Item(fwerrors.CodeRecordAbsent,
					"no release record in catalog").
					WithContext("device", code).
					WithContext("controller", ctrlVer)
				utils.Warn("%v", skipErr)
				report.Skip(code, skipErr)
				continue
			}

			entry, err := placer.PlaceFromCatalog(cmd.Context(), code, rec)
			if err != nil {
				if !fwerrors.IsItem(err) {
					return err
				}
				utils.Warn("%v", err)
				report.Skip(code, err)
				continue
			}

			report.Add(code, entry)
			fmt.Printf("  ✓ %s %s -> %s\n", code, rec.Version, entry.Path)
		}

		fmt.Println(i18n.T("cmd.sync.summary", map[string]interface{}{
			"placed":  report.Placed(),
			"skipped": report.Skipped(),
		}))

		restartIfRequested(cfg, report.Placed(), syncNoRestart)
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncControllerVersion, "controller-version", "", "catalog version key to sync (default: config, or auto-detect)")
	syncCmd.Flags().BoolVar(&syncNoRestart, "no-restart", false, "do not restart the controller service after caching")
	rootCmd.AddCommand(syncCmd)
}
