package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fwhub/fwcache-cli/internal/config"
)

var initSaveConfig string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the cache root and metadata index",
	Long: `Create the cache root directory and an empty metadata index if none exists.
Safe to run repeatedly. With --save-config, also writes an annotated
configuration template.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		_, index, err := newPlacer(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Cache initialized at %s\n", index.Root())
		fmt.Printf("   Metadata index: %s\n", index.Path())

		if initSaveConfig != "" {
			if err := config.SaveTemplate(initSaveConfig); err != nil {
				return fmt.Errorf("failed to write config template: %w", err)
			}
			fmt.Printf("✅ Config template written to %s\n", initSaveConfig)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initSaveConfig, "save-config", "", "also write an annotated config template to this path")
	rootCmd.AddCommand(initCmd)
}
