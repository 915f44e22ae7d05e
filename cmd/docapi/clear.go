package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docapi/internal/domain/filter"
)

var clearForce bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every document from the store",
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "Skip confirmation prompt")
}

func runClear(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if !clearForce {
		fmt.Fprint(cmd.OutOrStdout(), "Delete all documents? (yes/no): ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	a, err := newApp(ctx, env)
	if err != nil {
		return err
	}
	defer a.Close()
	a.warnEphemeralStore(cmd.ErrOrStderr())

	n, err := a.documents.DeleteByFilters(ctx, filter.Filter{})
	if err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d documents.\n", n)
	return nil
}
