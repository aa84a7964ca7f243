package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fwhub/fwcache-cli/pkg/cache"
	"github.com/fwhub/fwcache-cli/pkg/models"
	"github.com/fwhub/fwcache-cli/pkg/system"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached firmware images",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		index := cache.NewIndex(cfg.Cache.Root, system.NopOwner())
		doc, err := index.Load()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Println("Cache is not initialized. Run 'fwcache init' first.")
				return nil
			}
			return err
		}

		if listJSON {
			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		if len(doc.CachedFirmwares) == 0 {
			fmt.Println("Cache is empty.")
			return nil
		}

		entries := append([]models.CacheEntry(nil), doc.CachedFirmwares...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PATH\tVERSION\tSIZE\tDEVICES\tMD5")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				e.Path, e.Version, e.Size, strings.Join(e.Devices, ","), e.Checksum)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d cached firmware image(s)\n", len(entries))
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the raw metadata index as JSON")
	rootCmd.AddCommand(listCmd)
}
