// internal/actions/handlers_navigation.go
package actions

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stepwise/api/schemas"
)

// -- Waiting --

func (e *Executor) handleWaitForSelector(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	opts := schemas.WaitOptions{
		Visible: action.Visible,
		Hidden:  action.Hidden,
		Timeout: timeoutFor(action),
	}
	return nil, page.WaitForSelector(ctx, action.Selector, opts)
}

func (e *Executor) handleWaitForNavigation(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	return nil, page.WaitForNavigation(ctx, navigateOptions(action))
}

func (e *Executor) handleWaitForTimeout(ctx context.Context, _ schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	d := clampWait(action.Ms)
	if requested := millis(action.Ms); requested > d {
		e.logger.Debug("Clamping waitForTimeout",
			zap.Duration("requested", requested),
			zap.Duration("applied", d))
	}
	return nil, e.sleep(ctx, d)
}

func (e *Executor) handleWaitForFunction(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	opts := schemas.FunctionWaitOptions{Timeout: timeoutFor(action)}
	if action.Polling > 0 {
		opts.Polling = millis(action.Polling)
	}
	if err := page.WaitForFunction(ctx, action.Script, opts); err != nil {
		return nil, fmt.Errorf("waiting for function: %w", err)
	}
	return nil, nil
}

// -- Navigation --

func (e *Executor) handleGoto(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	if err := page.Navigate(ctx, action.URL, navigateOptions(action)); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", action.URL, err)
	}
	return nil, nil
}

func (e *Executor) handleGoBack(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	return nil, page.GoBack(ctx, navigateOptions(action))
}

func (e *Executor) handleGoForward(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	return nil, page.GoForward(ctx, navigateOptions(action))
}

func (e *Executor) handleReload(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	return nil, page.Reload(ctx, navigateOptions(action))
}
