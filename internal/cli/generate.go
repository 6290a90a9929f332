package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"timetable-ical-backend/internal/builder"
)

func init() {
	icalCmd := &cobra.Command{
		Use:   "ical <account-id>",
		Short: "Generate an iCal file",
		Long:  "Generates the calendar for one account and writes it as an .ics file.",
		Args:  cobra.ExactArgs(1),
		Run:   runICal,
	}
	addGenerateFlags(icalCmd, "icals")
	RootCmd.AddCommand(icalCmd)

	jsonCmd := &cobra.Command{
		Use:   "json <account-id>",
		Short: "Generate a cleaned JSON file",
		Long:  "Generates the cleaned timetable for one account and writes it as a JSON file.",
		Args:  cobra.ExactArgs(1),
		Run:   runJSON,
	}
	addGenerateFlags(jsonCmd, "jsons")
	RootCmd.AddCommand(jsonCmd)
}

func addGenerateFlags(cmd *cobra.Command, defaultOut string) {
	cmd.Flags().IntP("weeks", "w", 0, "Number of weeks to generate (default from config)")
	cmd.Flags().StringP("date", "d", "", "Start date yyyy-mm-dd (default: today)")
	cmd.Flags().StringP("out", "o", defaultOut, "Output directory")
}

// generateParams reads the shared flags and resolves the account service.
func generateParams(cmd *cobra.Command, args []string) (*builder.Service, time.Time, int, string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}

	account, ok := cfg.AccountByID(args[0])
	if !ok {
		exitErr("resolve account", fmt.Errorf("unknown account id %q", args[0]))
	}

	start := time.Now()
	if dateFlag, _ := cmd.Flags().GetString("date"); dateFlag != "" {
		start, err = time.Parse("2006-01-02", dateFlag)
		if err != nil {
			exitErr("parse date", err)
		}
	}

	weeks, _ := cmd.Flags().GetInt("weeks")
	if weeks == 0 {
		weeks = cfg.Timetable.DefaultWeeks
	}

	out, _ := cmd.Flags().GetString("out")
	return builder.NewService(account, cfg), start, weeks, out
}

func runICal(cmd *cobra.Command, args []string) {
	service, start, weeks, out := generateParams(cmd, args)

	doc, err := service.GenerateICal(cmd.Context(), start, weeks)
	if err != nil {
		exitErr("generate calendar", err)
	}

	name := fmt.Sprintf("school-timetable-%s.ics", time.Now().Format("2006-01-02"))
	target := writeOutput(out, name, []byte(doc))
	fmt.Printf("saved iCal to %s\n", target)
}

func runJSON(cmd *cobra.Command, args []string) {
	service, start, weeks, out := generateParams(cmd, args)

	doc, err := service.GenerateClean(cmd.Context(), start, weeks)
	if err != nil {
		exitErr("generate timetable", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		exitErr("encode timetable", err)
	}

	name := fmt.Sprintf("school-timetable-%s.json", time.Now().Format("2006-01-02"))
	target := writeOutput(out, name, data)
	fmt.Printf("saved timetable to %s\n", target)
}

func writeOutput(dir, name string, data []byte) string {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		exitErr("create output directory", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		exitErr("write output file", err)
	}
	return target
}
