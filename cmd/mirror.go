package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fwhub/fwcache-cli/internal/i18n"
	"github.com/fwhub/fwcache-cli/pkg/catalog"
	"github.com/fwhub/fwcache-cli/pkg/fetch"
	"github.com/fwhub/fwcache-cli/pkg/mirror"
)

var (
	mirrorRoot              string
	mirrorControllerVersion string
	mirrorMetricsAddr       string
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: i18n.T("cmd.mirror.short"),
	Long:  i18n.T("cmd.mirror.long"),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if mirrorRoot != "" {
			cfg.Mirror.Root = mirrorRoot
		}
		if cfg.Mirror.Root == "" {
			return fmt.Errorf("no mirror root configured: set mirror.root or pass --mirror-root")
		}
		if mirrorControllerVersion != "" {
			cfg.Catalog.ControllerVersion = mirrorControllerVersion
		}

		reader, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		ctrlVer, err := reader.ResolveControllerVersion(cfg.Catalog.ControllerVersion)
		if err != nil {
			return err
		}

		mirror.StartMetricsServer(mirrorMetricsAddr)

		fmt.Println(i18n.T("cmd.mirror.start", map[string]interface{}{
			"version": ctrlVer,
			"root":    cfg.Mirror.Root,
		}))

		builder := mirror.NewBuilder(cfg.Mirror.Root, fetch.New(cfg.Fetch))
		report, err := builder.Mirror(cmd.Context(), reader, ctrlVer)
		if err != nil {
			return err
		}

		mirrored, upToDate, skipped, failed := report.Counts()
		fmt.Println(i18n.T("cmd.mirror.summary", map[string]interface{}{
			"mirrored": mirrored,
			"uptodate": upToDate,
			"skipped":  skipped,
			"failed":   failed,
		}))
		return nil
	},
}

func init() {
	mirrorCmd.Flags().StringVar(&mirrorRoot, "mirror-root", "", "mirror tree root (overrides mirror.root)")
	mirrorCmd.Flags().StringVar(&mirrorControllerVersion, "controller-version", "", "catalog version key to mirror (default: config, or auto-detect)")
	mirrorCmd.Flags().StringVar(&mirrorMetricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address (e.g. :9309)")
	rootCmd.AddCommand(mirrorCmd)
}
