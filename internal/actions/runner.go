// internal/actions/runner.go
package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stepwise/api/schemas"
)

const tracerName = "github.com/xkilldash9x/stepwise/internal/actions"

// RunOptions controls a single sequence run.
type RunOptions struct {
	// StopOnError ends the run at the first failed step. Nil means true.
	StopOnError *bool
	// LogPrefix is attached to every log line of the run.
	LogPrefix string
}

func (o RunOptions) stopOnError() bool {
	return o.StopOnError == nil || *o.StopOnError
}

// Bool returns a pointer to b, for filling optional fields such as StopOnError.
func Bool(b bool) *bool { return &b }

// Runner executes whole action sequences against one page, strictly in order.
type Runner struct {
	logger   *zap.Logger
	executor *Executor
	tracer   trace.Tracer
}

// NewRunner creates a Runner. A nil executor gets a default one.
func NewRunner(logger *zap.Logger, executor *Executor) *Runner {
	if executor == nil {
		executor = NewExecutor(logger)
	}
	return &Runner{
		logger:   logger.Named("runner"),
		executor: executor,
		tracer:   otel.Tracer(tracerName),
	}
}

// Run validates sequence and, if it is valid, executes its steps in array order
// against page. An invalid sequence never touches the page. The page is not
// acquired or released here.
func (r *Runner) Run(ctx context.Context, page schemas.Page, sequence interface{}, opts RunOptions) schemas.SequenceResult {
	runID := uuid.NewString()
	logger := r.logger.With(zap.String("run_id", runID))
	if opts.LogPrefix != "" {
		logger = logger.With(zap.String("prefix", opts.LogPrefix))
	}

	validation := ValidateActionSequence(sequence)
	if !validation.Valid {
		logger.Warn("Rejecting invalid action sequence", zap.Strings("errors", validation.Errors))
		recordSequence("invalid")
		return schemas.SequenceResult{
			Success: false,
			Results: []schemas.StepResult{},
			Error:   "Invalid action sequence: " + strings.Join(validation.Errors, "; "),
		}
	}
	for _, w := range validation.Warnings {
		logger.Warn("Action sequence warning", zap.String("warning", w))
	}

	// Validation succeeded, so the normalized tree has a non-empty steps array.
	raw, _ := normalize(sequence)
	steps, _ := raw.(map[string]interface{})["steps"].([]interface{})

	ctx, span := r.tracer.Start(ctx, "actions.sequence", trace.WithAttributes(
		attribute.String("stepwise.run_id", runID),
		attribute.Int("stepwise.total_steps", len(steps)),
	))
	defer span.End()

	stopOnError := opts.stopOnError()
	logger.Info("Starting action sequence",
		zap.Int("total_steps", len(steps)),
		zap.Bool("stop_on_error", stopOnError))

	rc := NewRunContext(runID)
	result := schemas.SequenceResult{
		Success:    true,
		Results:    make([]schemas.StepResult, 0, len(steps)),
		TotalSteps: len(steps),
	}

	for i, step := range steps {
		label := stepLabel(step, i)
		res := r.runStep(ctx, page, step, label, i, rc, logger)
		res.StepIndex = i + 1
		res.Label = label

		result.Results = append(result.Results, res)
		result.TotalDuration += res.Duration

		if !res.Success {
			result.Success = false
			if stopOnError {
				logger.Info("Stopping sequence after failed step",
					zap.Int("step", i+1),
					zap.String("label", label))
				break
			}
		}
	}
	result.CompletedSteps = len(result.Results)

	outcome := "success"
	if !result.Success {
		outcome = "failure"
		span.SetStatus(codes.Error, "sequence failed")
	}
	recordSequence(outcome)
	logger.Info("Action sequence finished",
		zap.Bool("success", result.Success),
		zap.Int("completed_steps", result.CompletedSteps),
		zap.Int64("total_duration_ms", result.TotalDuration))
	return result
}

func (r *Runner) runStep(ctx context.Context, page schemas.Page, step interface{}, label string, index int, rc *RunContext, logger *zap.Logger) schemas.StepResult {
	name := stepAction(step)
	ctx, span := r.tracer.Start(ctx, "actions.step", trace.WithAttributes(
		attribute.String("stepwise.action", name),
		attribute.Int("stepwise.step_index", index+1),
		attribute.String("stepwise.label", label),
	))
	defer span.End()

	var res schemas.StepResult
	action, err := decodeAction(step)
	if err != nil {
		res = schemas.StepResult{
			Action:    name,
			Error:     err.Error(),
			ErrorCode: string(ErrCodeInvalidParameters),
		}
	} else {
		logger.Debug("Executing step", zap.Int("step", index+1), zap.String("action", name), zap.String("label", label))
		res = r.executor.Execute(ctx, page, action, rc)
	}

	if !res.Success {
		span.SetStatus(codes.Error, res.Error)
		logger.Warn("Step failed",
			zap.Int("step", index+1),
			zap.String("action", name),
			zap.String("label", label),
			zap.String("error_code", res.ErrorCode),
			zap.String("error", res.Error))
	}
	return res
}

// stepLabel resolves the label a step is reported under.
func stepLabel(step interface{}, index int) string {
	if m, ok := step.(map[string]interface{}); ok {
		if label, isString := m["label"].(string); isString && label != "" {
			return label
		}
	}
	return fmt.Sprintf("Step %d", index+1)
}

func stepAction(step interface{}) string {
	if m, ok := step.(map[string]interface{}); ok {
		if name, isString := m["action"].(string); isString {
			return name
		}
	}
	return ""
}
