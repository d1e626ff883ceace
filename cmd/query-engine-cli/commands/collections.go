package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixdata-ai/query-engine/cmd/query-engine-cli/ui"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List collections in the configured database",
	RunE:  runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ui.InitUI(noColor, verbose)

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if err := a.store.Ensure(ctx); err != nil {
		return fmt.Errorf("connect to store: %w", err)
	}

	names, err := a.adapter.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	if len(names) == 0 {
		ui.Info("Database %s has no collections", a.cfg.Store.Database)
		return nil
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name})
	}
	ui.Table([]string{"Collection"}, rows)
	return nil
}
