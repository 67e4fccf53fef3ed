package cmd

import (
	"fmt"
	"log"
	"os"

	"ScreenSync/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "screensync",
	Short: "ScreenSync is a multi-screen content player with cross-client sync.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting ScreenSync player node...")
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
