package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	domdoc "github.com/kailas-cloud/docapi/internal/domain/document"
	"github.com/kailas-cloud/docapi/internal/domain/filter"
)

var (
	listFilters []string
	listJSON    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents matching metadata filters",
	Example: `  docapi list
  docapi list --filter name=Acme --filter name=Beta
  docapi list --filter categoria=Fintech --json`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringArrayVar(&listFilters, "filter", nil,
		"Metadata filter as field=value; repeat a field to allow several values")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print documents as JSON")
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	f, err := parseFilterFlags(listFilters)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, env)
	if err != nil {
		return err
	}
	defer a.Close()
	a.warnEphemeralStore(cmd.ErrOrStderr())

	docs, err := a.documents.GetByFilters(ctx, f)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	out := cmd.OutOrStdout()
	if listJSON {
		items := make([]map[string]any, len(docs))
		for i := range docs {
			items[i] = map[string]any{
				"id":           docs[i].ID(),
				"content":      docs[i].Content(),
				"content_type": docs[i].ContentType(),
				"meta":         docs[i].Meta(),
			}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	fmt.Fprintf(out, "Total documents: %d\n\n", len(docs))
	for i := range docs {
		name, _ := docs[i].MetaString(domdoc.MetaName)
		split, _ := docs[i].MetaString(domdoc.MetaSplitID)
		fmt.Fprintf(out, "%d. %s [%s #%s] %s\n", i+1, docs[i].ID(), name, split, preview(docs[i].Content(), 80))
	}
	return nil
}

// parseFilterFlags turns repeated field=value flags into a filter.
func parseFilterFlags(flags []string) (filter.Filter, error) {
	fields := make(map[string][]string)
	for _, fl := range flags {
		k, v, ok := strings.Cut(fl, "=")
		if !ok || k == "" {
			return filter.Filter{}, fmt.Errorf("invalid --filter %q, want field=value", fl)
		}
		fields[k] = append(fields[k], v)
	}
	f, err := filter.New(fields)
	if err != nil {
		return filter.Filter{}, fmt.Errorf("build filter: %w", err)
	}
	return f, nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
