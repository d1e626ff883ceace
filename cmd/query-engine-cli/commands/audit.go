package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixdata-ai/query-engine/cmd/query-engine-cli/ui"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent entries from the query audit trail",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "l", 20, "number of entries to show")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ui.InitUI(noColor, verbose)

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if a.auditStore == nil {
		return fmt.Errorf("auditing is not enabled: set audit.enabled in config or AUDIT_DSN")
	}

	entries, err := a.auditStore.Recent(ctx, auditLimit)
	if err != nil {
		return fmt.Errorf("list audit entries: %w", err)
	}
	if len(entries) == 0 {
		ui.Info("Audit trail is empty")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		request := e.UserRequest
		if len(request) > 60 {
			request = request[:57] + "..."
		}
		rows = append(rows, []string{
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Outcome,
			fmt.Sprintf("%dms", e.DurationMs),
			fmt.Sprintf("%d", e.ResultCount),
			request,
		})
	}
	ui.Table([]string{"When", "Outcome", "Duration", "Results", "Request"}, rows)
	return nil
}
