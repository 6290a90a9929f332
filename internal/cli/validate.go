package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"timetable-ical-backend/internal/untis"
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long:  "Checks every configured account: the server name must be in the allow-list and the host must be reachable. Transient probe failures are retried once.",
		Run:   runValidate,
	}
	RootCmd.AddCommand(cmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}

	resolver := untis.NewResolver()
	failed := false
	for _, account := range cfg.Accounts {
		if account.BaseURL != "" {
			fmt.Printf("ok   %s: explicit base URL %s\n", account.ID, account.BaseURL)
			continue
		}
		host, err := resolver.Validate(cmd.Context(), account.Domain)
		if err != nil {
			fmt.Printf("FAIL %s: %v\n", account.ID, err)
			failed = true
			continue
		}
		fmt.Printf("ok   %s: using server %s\n", account.ID, host)
	}

	if failed {
		os.Exit(1)
	}
}
