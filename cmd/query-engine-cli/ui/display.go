package ui

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/helixdata-ai/query-engine/internal/domain"
)

// Table displays data in a formatted table.
func Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))

	separator := make([]string, len(headers))
	for i := range separator {
		separator[i] = strings.Repeat("-", len(headers[i]))
	}
	fmt.Fprintln(w, strings.Join(separator, "\t"))

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	_ = w.Flush()
}

// Section displays a section header.
func Section(title string) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Printf("\n%s\n", title)
	fmt.Printf("%s\n", strings.Repeat("=", len(title)))
}

// QueryResponse renders a formatted query response to stdout.
func QueryResponse(resp *domain.FormattedResponse, raw bool) {
	if raw {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			Error("failed to render response: %v", err)
			return
		}
		fmt.Println(string(data))
		return
	}

	Section("Query")
	Table([]string{"Collection", "Type", "Limit"}, [][]string{{
		resp.QueryInfo.PrimaryCollection,
		resp.QueryInfo.QueryType,
		fmt.Sprintf("%d", resp.QueryInfo.Limit),
	}})

	if len(resp.QueryInfo.Joins) > 0 {
		Section("Joins")
		rows := make([][]string, 0, len(resp.QueryInfo.Joins))
		for _, j := range resp.QueryInfo.Joins {
			rows = append(rows, []string{j.Collection, j.Type, j.LocalField, j.ForeignField, j.Alias})
		}
		Table([]string{"Collection", "Type", "Local Field", "Foreign Field", "As"}, rows)
	}

	Section(fmt.Sprintf("Results (%d)", resp.Results.TotalCount))
	for i, doc := range resp.Results.Data {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			continue
		}
		fmt.Printf("%d. %s\n", i+1, string(data))
	}

	Section("Summary")
	Table([]string{"Execution Time", "Result Count", "Collections"}, [][]string{{
		resp.Summary.ExecutionTime,
		fmt.Sprintf("%d", resp.Summary.ResultCount),
		strings.Join(resp.Summary.CollectionsInvolved, ", "),
	}})
}
