package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/snipcheck/internal/pipeline"
	"github.com/ppiankov/snipcheck/internal/watch"
)

var debounce time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <root>",
	Short: "Re-run the check whenever snippet files change",
	Long: `Watch runs a check of <root>, then keeps watching the tree and runs it
again after snippet or metadata files change. Rapid saves are collapsed
into one run. Stop with Ctrl-C.

Example:
  snipcheck watch ./snippets
  snipcheck watch ./snippets --lang go --debounce 1s`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addCheckFlags(watchCmd)
	watchCmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a change triggers a run")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, target, err := checkSetup(cmd, args[0])
	if err != nil {
		return err
	}
	if target.Revision != "" {
		return fmt.Errorf("--rev cannot be combined with watch: a revision does not change")
	}

	w, err := watch.New(target.Root, watch.WithDebounce(debounce), watch.WithLogger(logger))
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("watch %s: %w", target.Root, err)}
	}

	p := pipeline.NewPipeline(cfg, logger)
	p.SetOutput(cmd.OutOrStdout())
	out := resolveOutputs(cfg)
	run := func(ctx context.Context) {
		rep, err := p.Check(ctx, target)
		if rep == nil {
			fmt.Fprintf(os.Stderr, "Check failed: %v\n", err)
			return
		}
		if err := p.RenderReport(out.summaryWriter(cmd), rep, out.json, out.yaml, verbose); err != nil {
			fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", w.Root())
	run(ctx)

	return w.Run(ctx, func(ctx context.Context, paths []string) {
		if verbose {
			for _, path := range paths {
				fmt.Fprintf(os.Stderr, "  changed: %s\n", path)
			}
		}
		fmt.Fprintf(os.Stderr, "\n%s  %d file(s) changed, re-checking\n", time.Now().Format(time.Kitchen), len(paths))
		run(ctx)
	})
}
