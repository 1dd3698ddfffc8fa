package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tanq16/obito/internal/output"
	"github.com/tanq16/obito/internal/state"
	"github.com/tanq16/obito/internal/utils"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove leftover .part files from the download directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := utils.InitLogger(utils.LogFile, debugLog); err != nil {
			return fmt.Errorf("error initializing logger: %v", err)
		}
		dir := downloadDir
		if !cmd.Flags().Changed("dir") {
			dir = state.Load(statePath).Settings().DownloadDir
		}
		parts, err := filepath.Glob(filepath.Join(dir, "*"+utils.PartSuffix))
		if err != nil {
			return fmt.Errorf("error scanning download directory: %v", err)
		}
		removed := 0
		for _, part := range parts {
			if err := os.Remove(part); err != nil {
				output.PrintWarning(fmt.Sprintf("Could not remove %s: %v", part, err))
				continue
			}
			removed++
		}
		output.PrintSuccess(fmt.Sprintf("Removed %d partial file(s) from %s", removed, dir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
