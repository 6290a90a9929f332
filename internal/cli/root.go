// Package cli implements the timetablectl commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"timetable-ical-backend/config"
)

var configPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "timetablectl",
	Short: "Generate school timetable calendars",
	Long:  "Generates iCal and cleaned JSON timetables from the configured provider accounts, without running the HTTP server.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config path (default: $CONFIG_PATH or ./config/config.yaml)")
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./config/config.yaml"
	}
	return config.Load(path)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
