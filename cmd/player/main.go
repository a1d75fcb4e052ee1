package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "player",
	Short: "Signage player daemon",
	Long:  "The player registers a screen with the signage server, keeps it online and loops through its assigned playlist.",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the player until interrupted",
	RunE:  runPlayer,
}

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Print this screen's identifier, generating it if needed",
	RunE:  runIdentity,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "player.yaml", "path to the player config file")
	rootCmd.AddCommand(runCmd, identityCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
