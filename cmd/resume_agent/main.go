// Package main provides the resume_agent CLI: chat edits, scoring, color
// tools, undo/redo history and the HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath     string
	verbose        bool
	userFlag       string
	historyBackend string
)

var rootCmd = &cobra.Command{
	Use:           "resume_agent",
	Short:         "Chat-driven résumé editor",
	Long:          "Edit a JSON résumé with plain-English instructions, score it against a job description, and undo or redo every change.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a .json or .toml config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "User whose history is read and written (defaults to user_id from config)")
	rootCmd.PersistentFlags().StringVar(&historyBackend, "history", "", "History backend: memory, sqlite, redis or postgres")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
