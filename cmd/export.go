package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fwhub/fwcache-cli/pkg/bundle"
)

var (
	exportOut    string
	exportName   string
	exportSizeGB int64
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Bundle the cache into tar.zst archives for offline transfer",
	Long: `Bundle every file in the cache (firmware images plus the metadata index)
into one or more tar.zst archives, rotating at --size-gb so large caches
stay transferable on removable media. Index backups and partial downloads
are excluded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		archives, count, err := bundle.ExportTree(cfg.Cache.Root, exportOut, exportName, exportSizeGB)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("✅ Exported %d file(s) into %d archive(s):\n", count, len(archives))
		for _, a := range archives {
			fmt.Printf("   %s\n", a)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "directory to write archives into")
	exportCmd.Flags().StringVar(&exportName, "name", "fwcache-export", "archive base name")
	exportCmd.Flags().Int64Var(&exportSizeGB, "size-gb", 4, "rotate archives at this many GB of payload (0 = single archive)")
	rootCmd.AddCommand(exportCmd)
}
