// internal/actions/executor.go
package actions

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stepwise/api/schemas"
)

// MaxWaitForTimeout bounds waitForTimeout regardless of what a step requests.
const MaxWaitForTimeout = 30 * time.Second

// RunContext is created once per sequence run and handed to every step. It is
// reserved for passing data between steps; no handler reads or writes Values yet.
type RunContext struct {
	RunID  string
	Values map[string]interface{}
}

// NewRunContext creates an empty per-run context.
func NewRunContext(runID string) *RunContext {
	return &RunContext{RunID: runID, Values: make(map[string]interface{})}
}

// actionHandler performs one action and returns its result payload.
type actionHandler func(ctx context.Context, page schemas.Page, action schemas.Action, rc *RunContext) (interface{}, error)

// Executor runs a single action against a page. It knows nothing about
// sequencing, retries or assertion aggregation.
type Executor struct {
	logger   *zap.Logger
	handlers map[schemas.ActionType]actionHandler
	// sleep is replaced in tests to observe waitForTimeout without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an Executor with a handler for every registered action type.
func NewExecutor(logger *zap.Logger) *Executor {
	e := &Executor{
		logger:   logger.Named("executor"),
		handlers: make(map[schemas.ActionType]actionHandler, len(registry)),
		sleep:    sleepContext,
	}
	e.registerHandlers()

	// The registry and the handler table must describe the same closed set.
	for t := range registry {
		if _, ok := e.handlers[t]; !ok {
			panic(fmt.Sprintf("actions: no handler registered for action type %q", t))
		}
	}
	return e
}

func (e *Executor) registerHandlers() {
	// -- Interaction --
	e.handlers[schemas.ActionClick] = e.handleClick
	e.handlers[schemas.ActionTypeText] = e.handleType
	e.handlers[schemas.ActionClear] = e.handleClear
	e.handlers[schemas.ActionSelect] = e.handleSelect
	e.handlers[schemas.ActionHover] = e.handleHover
	e.handlers[schemas.ActionFocus] = e.handleFocus
	e.handlers[schemas.ActionPress] = e.handlePress

	// -- Waiting --
	e.handlers[schemas.ActionWaitForSelector] = e.handleWaitForSelector
	e.handlers[schemas.ActionWaitForNavigation] = e.handleWaitForNavigation
	e.handlers[schemas.ActionWaitForTimeout] = e.handleWaitForTimeout
	e.handlers[schemas.ActionWaitForFunction] = e.handleWaitForFunction

	// -- Navigation --
	e.handlers[schemas.ActionGoto] = e.handleGoto
	e.handlers[schemas.ActionGoBack] = e.handleGoBack
	e.handlers[schemas.ActionGoForward] = e.handleGoForward
	e.handlers[schemas.ActionReload] = e.handleReload

	// -- Scrolling and page manipulation --
	e.handlers[schemas.ActionScroll] = e.handleScroll
	e.handlers[schemas.ActionScrollToElement] = e.handleScrollToElement
	e.handlers[schemas.ActionEvaluate] = e.handleEvaluate
	e.handlers[schemas.ActionSetViewport] = e.handleSetViewport

	// -- Assertions --
	e.handlers[schemas.ActionAssert] = e.handleAssert
	e.handlers[schemas.ActionAssertSelector] = e.handleAssertSelector
	e.handlers[schemas.ActionAssertText] = e.handleAssertText
	e.handlers[schemas.ActionAssertURL] = e.handleAssertURL
	e.handlers[schemas.ActionAssertTitle] = e.handleAssertTitle
}

// Execute runs one action and converts every failure, including panics raised
// by a page implementation, into a StepResult. It never returns an error.
func (e *Executor) Execute(ctx context.Context, page schemas.Page, action schemas.Action, rc *RunContext) (result schemas.StepResult) {
	start := time.Now()
	result.Action = string(action.Action)

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Result = nil
			result.Error = fmt.Sprintf("panic while executing %s: %v", action.Action, r)
			result.ErrorCode = string(ErrCodeExecutorPanic)
			e.logger.Error("Action handler panicked", zap.String("action", string(action.Action)), zap.Any("panic", r))
		}
		elapsed := time.Since(start)
		result.Duration = elapsed.Milliseconds()
		recordStep(result, elapsed)
	}()

	handler, ok := e.handlers[action.Action]
	if !ok {
		result.Error = fmt.Sprintf("Unknown action type: %s", action.Action)
		result.ErrorCode = string(ErrCodeUnknownAction)
		return result
	}

	out, err := handler(ctx, page, action, rc)
	if err != nil {
		result.Error = err.Error()
		result.ErrorCode = string(classifyError(err))
		e.logger.Warn("Action execution failed",
			zap.String("action", string(action.Action)),
			zap.String("error_code", result.ErrorCode),
			zap.Error(err))
		return result
	}

	result.Success = true
	result.Result = out
	return result
}

// timeoutFor resolves the effective timeout: the step's own positive timeout,
// otherwise the schema default.
func timeoutFor(action schemas.Action) time.Duration {
	if action.Timeout > 0 {
		return millis(action.Timeout)
	}
	if s, ok := registry[action.Action]; ok {
		return s.DefaultTimeout
	}
	return 0
}

func navigateOptions(action schemas.Action) schemas.NavigateOptions {
	waitUntil := action.WaitUntil
	if waitUntil == "" {
		waitUntil = schemas.WaitUntilNetworkAlmostIdle
	}
	return schemas.NavigateOptions{WaitUntil: waitUntil, Timeout: timeoutFor(action)}
}

// maxMillis is the largest millisecond count that fits in a time.Duration.
const maxMillis = int64(math.MaxInt64 / int64(time.Millisecond))

// millis converts a wire value in milliseconds to a Duration, saturating
// instead of overflowing.
func millis(ms int) time.Duration {
	switch {
	case int64(ms) > maxMillis:
		return time.Duration(math.MaxInt64)
	case int64(ms) < -maxMillis:
		return time.Duration(math.MinInt64)
	default:
		return time.Duration(ms) * time.Millisecond
	}
}

// clampWait applies the waitForTimeout ceiling. Negative requests wait zero.
func clampWait(ms int) time.Duration {
	switch {
	case ms <= 0:
		return 0
	case int64(ms) >= MaxWaitForTimeout.Milliseconds():
		return MaxWaitForTimeout
	default:
		return time.Duration(ms) * time.Millisecond
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
