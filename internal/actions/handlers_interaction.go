// internal/actions/handlers_interaction.go
package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/stepwise/api/schemas"
	"github.com/xkilldash9x/stepwise/internal/browser/scripts"
)

// waitPresent blocks until selector is attached to the DOM, bounded by the
// step's timeout or its schema default.
func waitPresent(ctx context.Context, page schemas.Page, action schemas.Action) error {
	if err := page.WaitForSelector(ctx, action.Selector, schemas.WaitOptions{Timeout: timeoutFor(action)}); err != nil {
		return fmt.Errorf("waiting for selector %q: %w", action.Selector, err)
	}
	return nil
}

func delayOf(action schemas.Action) time.Duration {
	if action.Delay <= 0 {
		return 0
	}
	return millis(action.Delay)
}

func (e *Executor) handleClick(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	if err := waitPresent(ctx, page, action); err != nil {
		return nil, err
	}
	opts := schemas.ClickOptions{Button: action.Button, ClickCount: action.ClickCount, Delay: delayOf(action)}
	if opts.Button == "" {
		opts.Button = "left"
	}
	if opts.ClickCount <= 0 {
		opts.ClickCount = 1
	}
	return nil, page.Click(ctx, action.Selector, opts)
}

func (e *Executor) handleType(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	if err := waitPresent(ctx, page, action); err != nil {
		return nil, err
	}
	return nil, page.Type(ctx, action.Selector, action.Text, delayOf(action))
}

// handleClear sets the value to "" and dispatches synthetic input/change events
// rather than using a native clear.
func (e *Executor) handleClear(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	if err := waitPresent(ctx, page, action); err != nil {
		return nil, err
	}
	if _, err := page.Evaluate(ctx, scripts.ClearValue(action.Selector)); err != nil {
		return nil, fmt.Errorf("clearing %q: %w", action.Selector, err)
	}
	return nil, nil
}

func (e *Executor) handleSelect(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	if err := waitPresent(ctx, page, action); err != nil {
		return nil, err
	}
	return nil, page.Select(ctx, action.Selector, action.SelectValues())
}

func (e *Executor) handleHover(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	if err := waitPresent(ctx, page, action); err != nil {
		return nil, err
	}
	return nil, page.Hover(ctx, action.Selector)
}

func (e *Executor) handleFocus(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	if err := waitPresent(ctx, page, action); err != nil {
		return nil, err
	}
	return nil, page.Focus(ctx, action.Selector)
}

// handlePress sends a raw key event to whatever currently has focus.
func (e *Executor) handlePress(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	return nil, page.Press(ctx, action.Key, delayOf(action))
}
