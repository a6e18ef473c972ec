package main

import (
	"github.com/spf13/cobra"
)

const defaultServerURL = "http://localhost:3001"

var rootCmd = &cobra.Command{
	Use:   "milestoned",
	Short: "Task and milestone tracker",
	Long: `milestoned serves the task and milestone REST API and includes a few
read-only commands that talk to a running server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(showCmd)
}
