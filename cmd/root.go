package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var offline bool

var rootCmd = &cobra.Command{
	Use:           "easyplan",
	Short:         "Offline-first task manager with cloud sync",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "treat the network as unreachable")
}
