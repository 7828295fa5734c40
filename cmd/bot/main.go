package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "upkeep-sentinel",
		Short:         "Tracks shared upkeep payments and reminds you when it is your turn",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cfgPath)
		},
	}

	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "config file (.yaml or .toml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the reminder bot (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBot(cfgPath)
			},
		},
		newStatusCmd(&cfgPath),
		newRefreshCmd(&cfgPath),
		newSetCmd(&cfgPath),
		newAuthCmd(&cfgPath),
	)
	return root
}
