package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
	"github.com/fwhub/fwcache-cli/pkg/cache"
	"github.com/fwhub/fwcache-cli/pkg/catalog"
	"github.com/fwhub/fwcache-cli/pkg/system"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the cache, catalog and system environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		healthy := true
		check := func(ok bool, format string, a ...interface{}) {
			mark := "✅"
			if !ok {
				mark = "❌"
				healthy = false
			}
			fmt.Printf("%s %s\n", mark, fmt.Sprintf(format, a...))
		}

		// cache root
		if fi, err := os.Stat(cfg.Cache.Root); err != nil {
			check(false, "cache root %s: %v", cfg.Cache.Root, err)
		} else if !fi.IsDir() {
			check(false, "cache root %s is not a directory", cfg.Cache.Root)
		} else if err := system.CheckWritable(cfg.Cache.Root); err != nil {
			check(false, "cache root %s is not writable: %v", cfg.Cache.Root, err)
		} else {
			check(true, "cache root %s is writable", cfg.Cache.Root)
		}

		// metadata index
		index := cache.NewIndex(cfg.Cache.Root, system.NopOwner())
		if doc, err := index.Load(); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				check(false, "metadata index missing (run 'fwcache init')")
			} else {
				check(false, "metadata index: %v", err)
			}
		} else {
			check(true, "metadata index valid (%d entries)", len(doc.CachedFirmwares))
		}

		// catalog
		if reader, err := catalog.Load(cfg.Catalog.Path); err != nil {
			check(false, "catalog: %v", err)
		} else if ver, err := reader.ResolveControllerVersion(cfg.Catalog.ControllerVersion); err != nil {
			check(false, "catalog loaded but %v", err)
		} else {
			check(true, "catalog %s, controller version %s", reader.String(), ver)
		}

		// privilege / ownership
		if os.Geteuid() == 0 {
			if owner, err := system.LookupOwner(cfg.Owner.User, cfg.Owner.Group); err != nil {
				check(false, "owner lookup %s:%s failed: %v", cfg.Owner.User, cfg.Owner.Group, err)
			} else {
				check(true, "running as root, cache ownership will be %s", owner.String())
			}
		} else {
			check(true, "running unprivileged, ownership enforcement disabled")
		}

		// external tools
		var missingRequired []string
		for name, status := range system.CheckAll() {
			if status.Available {
				check(true, "%s available (%s)", name, status.Version)
			} else if status.Required {
				check(false, "%s missing: %s", name, status.Error)
				missingRequired = append(missingRequired, name)
			} else {
				fmt.Printf("⚠️  %s missing (optional, used by %v)\n", name, status.UsedBy)
			}
		}

		if len(missingRequired) > 0 {
			return fwerrors.Fatal(fwerrors.CodeToolMissing, "required tools are missing").
				WithContext("tools", strings.Join(missingRequired, ","))
		}
		if !healthy {
			return fmt.Errorf("some checks failed")
		}
		fmt.Println("\nAll checks passed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
