// internal/actions/handlers_page.go
package actions

import (
	"context"
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/stepwise/api/schemas"
	"github.com/xkilldash9x/stepwise/internal/browser/scripts"
)

// -- Scrolling --

// handleScroll scrolls the window, or the element named by selector, to an
// absolute offset.
func (e *Executor) handleScroll(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	script := scripts.ScrollWindow(action.X, action.Y)
	if action.Selector != "" {
		script = scripts.ScrollElement(action.Selector, action.X, action.Y)
	}
	if _, err := page.Evaluate(ctx, script); err != nil {
		return nil, fmt.Errorf("scrolling: %w", err)
	}
	return nil, nil
}

func (e *Executor) handleScrollToElement(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	if err := waitPresent(ctx, page, action); err != nil {
		return nil, err
	}
	block := orDefault(action.Block, "center")
	inline := orDefault(action.Inline, "nearest")
	behavior := orDefault(action.Behavior, "auto")
	if _, err := page.Evaluate(ctx, scripts.ScrollIntoView(action.Selector, block, inline, behavior)); err != nil {
		return nil, fmt.Errorf("scrolling %q into view: %w", action.Selector, err)
	}
	return nil, nil
}

// -- Page manipulation --

// handleEvaluate runs the step's script and returns its value unchanged.
func (e *Executor) handleEvaluate(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	return evaluateValue(ctx, page, action.Script)
}

func (e *Executor) handleSetViewport(ctx context.Context, page schemas.Page, action schemas.Action, _ *RunContext) (interface{}, error) {
	if action.Width <= 0 || action.Height <= 0 {
		return nil, fmt.Errorf("%w: viewport must have a positive width and height, got %dx%d",
			ErrInvalidParameters, action.Width, action.Height)
	}
	vp := schemas.Viewport{
		Width:             action.Width,
		Height:            action.Height,
		DeviceScaleFactor: action.DeviceScaleFactor,
		IsMobile:          action.IsMobile,
		HasTouch:          action.HasTouch,
	}
	if vp.DeviceScaleFactor <= 0 {
		vp.DeviceScaleFactor = 1
	}
	return nil, page.SetViewport(ctx, vp)
}

// evaluateValue runs a user script and decodes its JSON value. Failures are
// marked as script errors.
func evaluateValue(ctx context.Context, page schemas.Page, script string) (interface{}, error) {
	raw, err := page.Evaluate(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScript, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: could not decode script result: %v", ErrScript, err)
	}
	return v, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
