// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/stepwise/api/schemas"
	"github.com/xkilldash9x/stepwise/internal/actions"
	"github.com/xkilldash9x/stepwise/internal/browser"
	"github.com/xkilldash9x/stepwise/internal/config"
	"github.com/xkilldash9x/stepwise/internal/observability"
)

// errSequenceFailed signals a non-zero exit after results were already printed.
var errSequenceFailed = errors.New("one or more sequences failed")

const providerShutdownTimeout = 30 * time.Second

// providerFactory opens the browser behind a run. Tests swap in a mock.
type providerFactory func(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (schemas.PageProvider, error)

var defaultProviderFactory providerFactory = browser.NewProvider

type runOptions struct {
	url             string
	assertions      bool
	continueOnError bool
	driver          string
	headful         bool
	pretty          bool
}

// sequenceInput is one loaded sequence file.
type sequenceInput struct {
	path string
	data []byte
}

// fileResult is the printed outcome of one sequence file.
type fileResult struct {
	File string `json:"file"`
	schemas.SequenceResult
	Assertions *schemas.AssertionSummary `json:"assertions,omitempty"`
}

func newRunCmd(factory providerFactory) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [flags] file...",
		Short: "Execute one or more action sequence files",
		Long: `Run executes each sequence file (JSON or YAML) on its own browser tab and
prints the results as JSON on stdout. Files run concurrently up to
engine.parallelism. The exit status is non-zero when any sequence fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			logger := observability.GetLogger().Named("run")

			if cmd.Flags().Changed("driver") {
				cfg.SetBrowserDriver(opts.driver)
			}
			if opts.headful {
				cfg.SetBrowserHeadless(false)
			}
			if opts.continueOnError {
				cfg.SetEngineStopOnError(false)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			inputs := make([]sequenceInput, 0, len(args))
			for _, path := range args {
				data, err := readSequenceFile(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				inputs = append(inputs, sequenceInput{path: path, data: data})
			}

			if cfg.Tracing().Enabled {
				tp, err := observability.NewTracerProvider(cfg.Tracing().ServiceName, Version, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				defer func() {
					if err := tp.Shutdown(context.Background()); err != nil {
						logger.Warn("Failed to flush traces", zap.Error(err))
					}
				}()
			}

			results, err := executeRun(ctx, logger, cfg, inputs, opts, factory)
			if err != nil {
				return err
			}

			if cfg.Metrics().Enabled {
				if err := observability.WriteMetrics(cfg.Metrics().Textfile); err != nil {
					logger.Warn("Failed to write metrics", zap.Error(err))
				}
			}

			if err := writeResults(cmd.OutOrStdout(), results, opts.pretty); err != nil {
				return err
			}
			if !allSucceeded(results) {
				return errSequenceFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.url, "url", "u", "", "navigate each tab to this URL before running its sequence")
	cmd.Flags().BoolVarP(&opts.assertions, "assertions", "a", false, "include an assertion summary and fail when any assertion fails")
	cmd.Flags().BoolVar(&opts.continueOnError, "continue-on-error", false, "keep executing steps after a failure")
	cmd.Flags().StringVar(&opts.driver, "driver", "", "browser driver to use (chromedp or rod)")
	cmd.Flags().BoolVar(&opts.headful, "headful", false, "show the browser window")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent the JSON output")

	return cmd
}

// executeRun opens the browser, runs every input and always shuts the browser
// down again.
func executeRun(ctx context.Context, logger *zap.Logger, cfg *config.Config, inputs []sequenceInput, opts runOptions, factory providerFactory) ([]fileResult, error) {
	provider, err := factory(ctx, logger, cfg.Browser())
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), providerShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Browser shutdown did not complete cleanly", zap.Error(err))
		}
	}()

	return runSequences(ctx, logger, cfg, provider, inputs, opts)
}

// runSequences runs each input on its own page, at most engine.parallelism at
// a time. Results keep the input order.
func runSequences(ctx context.Context, logger *zap.Logger, cfg *config.Config, provider schemas.PageProvider, inputs []sequenceInput, opts runOptions) ([]fileResult, error) {
	runner := actions.NewRunner(logger, nil)
	results := make([]fileResult, len(inputs))

	var g errgroup.Group
	g.SetLimit(cfg.Engine().Parallelism)

	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = runSequence(ctx, runner, provider, cfg.Engine(), in, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runSequence acquires a page, runs one sequence on it and releases the page
// regardless of the outcome.
func runSequence(ctx context.Context, runner *actions.Runner, provider schemas.PageProvider, engine config.EngineConfig, in sequenceInput, opts runOptions) fileResult {
	out := fileResult{File: in.path}

	parsed := actions.ParseActionSequence(in.data)
	if !parsed.Success {
		out.SequenceResult = failedResult(parsed.Error)
		return out
	}

	page, release, err := provider.NewPage(ctx)
	if err != nil {
		out.SequenceResult = failedResult(fmt.Sprintf("failed to open page: %v", err))
		return out
	}
	defer release()

	if opts.url != "" {
		gotoSchema, _ := actions.LookupSchema(string(schemas.ActionGoto))
		navOpts := schemas.NavigateOptions{Timeout: gotoSchema.DefaultTimeout}
		if err := page.Navigate(ctx, opts.url, navOpts); err != nil {
			out.SequenceResult = failedResult(fmt.Sprintf("failed to navigate to %s: %v", opts.url, err))
			return out
		}
	}

	prefix := engine.LogPrefix
	if prefix == "" {
		prefix = filepath.Base(in.path)
	}
	out.SequenceResult = runner.Run(ctx, page, parsed.Sequence, actions.RunOptions{
		StopOnError: actions.Bool(engine.StopOnError),
		LogPrefix:   prefix,
	})

	if opts.assertions {
		summary := actions.CollectAssertionResults(out.Results)
		out.Assertions = &summary
	}
	return out
}

func failedResult(msg string) schemas.SequenceResult {
	return schemas.SequenceResult{Success: false, Results: []schemas.StepResult{}, Error: msg}
}

func allSucceeded(results []fileResult) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
		if r.Assertions != nil && !r.Assertions.AllPassed {
			return false
		}
	}
	return true
}

func writeResults(w io.Writer, results []fileResult, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = jsonAPI.MarshalIndent(results, "", "  ")
	} else {
		data, err = jsonAPI.Marshal(results)
	}
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
