package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/snipcheck/internal/model"
	"github.com/ppiankov/snipcheck/internal/pipeline"
)

var (
	listRevision   string
	listLanguages  []string
	listCategories []string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list <root>",
	Short: "List snippet records and their documented examples",
	Long: `List loads the snippet tree without evaluating anything and prints each
record with the examples found in it. Files that could not be loaded are
listed at the end.

Example:
  snipcheck list ./snippets
  snipcheck list ./snippets --lang java --rev HEAD~3`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listRevision, "rev", "", "git revision to read the tree from (default: working tree)")
	listCmd.Flags().StringSliceVar(&listLanguages, "lang", nil, "only list these languages (repeatable)")
	listCmd.Flags().StringSliceVar(&listCategories, "category", nil, "only list these categories (repeatable)")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg, logger)
	reg, err := p.Load(context.Background(), pipeline.Target{
		Root:       args[0],
		Revision:   listRevision,
		AllowEmpty: true,
	})
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("load failed: %w", err)}
	}

	records := reg.Select(listLanguages, listCategories)
	printRecords(cmd.OutOrStdout(), records)

	if issues := reg.Issues(); len(issues) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nLoad errors (%d):\n", len(issues))
		for _, issue := range issues {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", issue.Path, issue.Message)
		}
	}
	return nil
}

func printRecords(w io.Writer, records []model.SnippetRecord) {
	examples := 0
	for _, rec := range records {
		title := ""
		if rec.Title != "" {
			title = " - " + rec.Title
		}
		fmt.Fprintf(w, "%s [%s/%s]%s\n", rec.Path, rec.Category, rec.Language, title)
		if len(rec.Assertions) == 0 {
			fmt.Fprintln(w, "    (no examples)")
		}
		for _, a := range rec.Assertions {
			fmt.Fprintf(w, "  %4d  %s  =>  %s\n", a.Line, a.Expression, a.Expected)
		}
		examples += len(rec.Assertions)
	}
	fmt.Fprintf(w, "\n%d records, %d examples\n", len(records), examples)
}
