package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tanq16/obito/internal/state"
	"github.com/tanq16/obito/internal/utils"
)

type batchRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

type batchFile struct {
	Packs  []int        `yaml:"packs"`
	Ranges []batchRange `yaml:"ranges"`
}

var batchCmd = &cobra.Command{
	Use:   "batch FILE",
	Short: "Download packs listed in a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := utils.InitLogger(utils.LogFile, debugLog); err != nil {
			return fmt.Errorf("error initializing logger: %v", err)
		}
		packs, err := parseBatchFile(args[0])
		if err != nil {
			return err
		}
		store := state.Load(statePath)
		return runDownload(cmd, store, packs)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

func parseBatchFile(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading batch file: %v", err)
	}
	var bf batchFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("error parsing batch file: %v", err)
	}
	packs := append([]int(nil), bf.Packs...)
	for _, r := range bf.Ranges {
		expanded, err := utils.ExpandRange(r.Start, r.End)
		if err != nil {
			return nil, fmt.Errorf("invalid range in batch file: %v", err)
		}
		packs = append(packs, expanded...)
	}
	if len(packs) == 0 {
		return nil, fmt.Errorf("batch file %s selects no packs", path)
	}
	return packs, nil
}
