package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/snipcheck/internal/model"
	"github.com/ppiankov/snipcheck/internal/pipeline"
	"github.com/ppiankov/snipcheck/internal/report"
)

var (
	revision   string
	outJSON    string
	outYAML    string
	languages  []string
	categories []string
	noCache    bool
	allowEmpty bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <root>",
	Short: "Run every documented example under a snippet tree",
	Long: `Check loads the snippet tree under <root>, extracts the examples documented
in trailing comments and evaluates each one:
- Go snippets run in an embedded interpreter
- Python, JavaScript and Java snippets run in python3, node and jshell
- Examples in languages without an evaluator are reported as unsupported

The command exits with status 1 when any example fails or any snippet file
could not be loaded.

Example:
  snipcheck check ./snippets
  snipcheck check ./snippets --rev v1.2.0 --json report.json
  snipcheck check ./snippets --lang python --category string-methods --json -`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addCheckFlags(checkCmd)
}

// addCheckFlags registers the flags shared by check and watch
func addCheckFlags(cmd *cobra.Command) {
	defaults := model.DefaultConfig()

	cmd.Flags().StringVar(&revision, "rev", "", "git revision to read the tree from (default: working tree)")
	cmd.Flags().Int("workers", runtime.NumCPU(), "number of records evaluated in parallel")
	cmd.Flags().Duration("timeout", defaults.Checker.Timeout, "deadline for a single evaluation")
	cmd.Flags().StringVar(&outJSON, "json", "", "write the JSON report to this path ('-' for stdout)")
	cmd.Flags().StringVar(&outYAML, "yaml", "", "write the YAML report to this path ('-' for stdout)")
	cmd.Flags().StringSliceVar(&languages, "lang", nil, "only check these languages (repeatable)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "only check these categories (repeatable)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the parsed-assertion cache")
	cmd.Flags().String("cache-dir", defaults.Cache.Dir, "parsed-assertion cache directory")
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "skip snippet files without examples instead of failing")
}

// bindCheckFlags points the shared config keys at the flags of the command
// being run. check and watch both define them, so binding happens per run.
func bindCheckFlags(cmd *cobra.Command) {
	_ = viper.BindPFlag("checker.workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("checker.timeout", cmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("cache.dir", cmd.Flags().Lookup("cache-dir"))
}

// checkSetup resolves configuration and target shared by check and watch
func checkSetup(cmd *cobra.Command, root string) (*model.Config, pipeline.Target, error) {
	bindCheckFlags(cmd)
	cfg, err := loadConfig()
	if err != nil {
		return nil, pipeline.Target{}, err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	cfg.Output.Verbose = verbose

	target := pipeline.Target{
		Root:       root,
		Revision:   revision,
		Languages:  languages,
		Categories: categories,
		AllowEmpty: allowEmpty,
	}
	return cfg, target, nil
}

// outputs are the machine report destinations of a run
type outputs struct {
	json string
	yaml string
}

// resolveOutputs applies output.format when no report flag was given
func resolveOutputs(cfg *model.Config) outputs {
	out := outputs{json: outJSON, yaml: outYAML}
	if out.json != "" || out.yaml != "" {
		return out
	}
	switch cfg.Output.Format {
	case "json":
		out.json = report.Stdout
	case "yaml":
		out.yaml = report.Stdout
	}
	return out
}

// summaryWriter keeps stdout clean when a machine report is streamed there
func (o outputs) summaryWriter(cmd *cobra.Command) io.Writer {
	if o.json == report.Stdout || o.yaml == report.Stdout {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, target, err := checkSetup(cmd, args[0])
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", target.Root)
		if target.Revision != "" {
			fmt.Fprintf(os.Stderr, "Revision: %s\n", target.Revision)
		}
		fmt.Fprintf(os.Stderr, "Workers: %d\n", cfg.Checker.Workers)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", cfg.Checker.Timeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg, logger)
	p.SetOutput(cmd.OutOrStdout())
	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Evaluators: %v\n", p.Adapters().Names())
	}

	start := time.Now()
	rep, err := p.Check(ctx, target)
	if rep == nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("check failed: %w", err)}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Check interrupted: %v (report covers completed snippets only)\n", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Checked %d examples in %v\n", rep.Total, time.Since(start).Round(time.Millisecond))
	}

	out := resolveOutputs(cfg)
	if err := p.RenderReport(out.summaryWriter(cmd), rep, out.json, out.yaml, verbose); err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("render failed: %w", err)}
	}

	if err != nil || !rep.OK() {
		return &ExitError{Code: 1}
	}
	return nil
}
