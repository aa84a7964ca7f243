package cmd

import (
	"fmt"
	"os"

	"github.com/fwhub/fwcache-cli/internal/i18n"
	"github.com/fwhub/fwcache-cli/internal/version"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	cacheRoot   string
	langFlag    string
	ownerSpec   string
	skipConfirm bool
)

var rootCmd = &cobra.Command{
	Use:   "fwcache",
	Short: "fwcache - offline firmware cache for network controllers",
	Long: `fwcache maintains a local/offline cache of firmware binaries for a UniFi-style
network controller. It resolves firmware identity from catalogs, URLs or
filenames, lays files out in a versioned directory tree, keeps a JSON
metadata index in sync, and can build a flat mirror of the firmware catalog.`,
	Version: version.Short(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return i18n.Init(langFlag)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./fwcache.yaml or ~/.config/fwcache/fwcache.yaml)")
	rootCmd.PersistentFlags().StringVar(&cacheRoot, "cache-root", "", "firmware cache root (overrides config)")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "interface language (en, zh)")
	rootCmd.PersistentFlags().StringVar(&ownerSpec, "owner", "", "enforce cache ownership as user[:group] (requires root)")
	rootCmd.PersistentFlags().BoolVarP(&skipConfirm, "yes", "y", false, "skip confirmation prompts")
}
