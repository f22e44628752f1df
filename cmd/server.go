package cmd

import (
	"github.com/mohamadaskravi2050-crypto/Muzic56/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Muzic56 HTTP server",
	Long:  `Start the Muzic56 HTTP server serving the REST API and uploaded media.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
