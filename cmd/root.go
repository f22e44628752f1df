package cmd

import (
	"fmt"
	"os"

	"github.com/mohamadaskravi2050-crypto/Muzic56/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "muzic56",
	Short: "Muzic56 is a music sharing service.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
