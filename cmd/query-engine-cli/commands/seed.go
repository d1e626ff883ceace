package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixdata-ai/query-engine/cmd/query-engine-cli/ui"
)

var seedBatchSize int

var seedCmd = &cobra.Command{
	Use:   "seed <collection> <file.json>",
	Short: "Load fixture documents into a collection",
	Long: `Load documents from a JSON file (an array of objects) into the named
collection. Useful for setting up development and demo databases.`,
	Args: cobra.ExactArgs(2),
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedBatchSize, "batch-size", 500, "documents per insert batch")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	ui.InitUI(noColor, verbose)

	collection, path := args[0], args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture file: %w", err)
	}

	var docs []map[string]any
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("parse fixture file: %w", err)
	}
	if len(docs) == 0 {
		ui.Warning("No documents in %s, nothing to do", path)
		return nil
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if err := a.store.Ensure(ctx); err != nil {
		return fmt.Errorf("connect to store: %w", err)
	}

	bar := ui.NewProgressBar(int64(len(docs)), fmt.Sprintf("Seeding %s", collection))
	inserted := 0
	for start := 0; start < len(docs); start += seedBatchSize {
		end := start + seedBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		n, err := a.adapter.InsertDocuments(ctx, collection, docs[start:end])
		if err != nil {
			bar.Finish()
			return fmt.Errorf("insert batch starting at %d: %w", start, err)
		}
		inserted += n
		bar.Set(int64(end))
	}
	bar.Finish()

	ui.Success("Inserted %d documents into %s", inserted, collection)
	return nil
}
