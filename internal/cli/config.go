package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/bilisub/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the bilisub configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented sample config",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			defaultPath, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			path = defaultPath
		}
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return err
		}
		if err := config.CreateSample(expanded); err != nil {
			return err
		}
		fmt.Printf("Config written: %s\n", expanded)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}
