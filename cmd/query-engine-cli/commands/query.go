package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixdata-ai/query-engine/cmd/query-engine-cli/ui"
	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/schema"
)

var (
	querySchemaPath  string
	queryLimit       int64
	queryAggregation bool
	queryJoins       string
	queryRawOutput   bool
)

var queryCmd = &cobra.Command{
	Use:   "query [request]",
	Short: "Run a natural-language query against the document store",
	Long: `Run a natural-language data request through the query pipeline: the request
and schema are sent to the language model, the generated query is executed
against the document store, and the normalized results are displayed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&querySchemaPath, "schema", "s", "", "path to the unified schema document")
	queryCmd.Flags().Int64VarP(&queryLimit, "limit", "l", 0, "maximum number of results")
	queryCmd.Flags().BoolVar(&queryAggregation, "aggregation", false, "hint the model to use an aggregation pipeline")
	queryCmd.Flags().StringVar(&queryJoins, "join-strategy", "", "join strategy (lookup or match)")
	queryCmd.Flags().BoolVar(&queryRawOutput, "json", false, "print the raw JSON envelope")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	ui.InitUI(noColor, verbose)

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close(ctx)

	schemaPath := querySchemaPath
	if schemaPath == "" {
		schemaPath = a.cfg.Pipeline.SchemaPath
	}
	if schemaPath == "" {
		return fmt.Errorf("no schema: pass --schema or set pipeline.schema_path in config")
	}

	sc, err := schema.LoadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	ui.Verbose("Loaded schema from %s (%d bytes)", schemaPath, sc.Len())

	request := strings.Join(args, " ")

	sp := ui.NewSpinner("Generating and executing query...")
	sp.Start()
	resp, err := a.engine.Execute(ctx, domain.Request{
		UserRequest:        request,
		SchemaText:         sc.Text(),
		Limit:              queryLimit,
		IncludeAggregation: queryAggregation,
		JoinStrategy:       queryJoins,
	})
	sp.Stop()
	if err != nil {
		ui.Error("Query failed: %v", err)
		return err
	}

	ui.QueryResponse(resp, queryRawOutput)
	ui.Success("%d results in %s", resp.Summary.ResultCount, resp.Summary.ExecutionTime)
	return nil
}
