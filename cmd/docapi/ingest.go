package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv>",
	Short: "Replace the document collection with the rows of a startup CSV",
	Long: `Clears the document store, stages the file into the upload directory and
writes one or more chunks per CSV row, exactly like POST /documents/insert_csv.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, env)
	if err != nil {
		return err
	}
	defer a.Close()
	a.warnEphemeralStore(cmd.ErrOrStderr())

	path := args[0]
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	res, err := a.ingest.Ingest(ctx, filepath.Base(path), f)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Message())
	fmt.Fprintf(out, "rows: %d, chunks: %d, staged: %s\n", res.Rows, res.Chunks, res.StagedPath)
	return nil
}
