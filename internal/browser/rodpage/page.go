// Package rodpage drives browser tabs through go-rod. It is the alternative to
// the chromedp session and implements the same Page capability set.
package rodpage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/rod/lib/utils"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stepwise/api/schemas"
	"github.com/xkilldash9x/stepwise/internal/browser/scripts"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// lifecycleEvents maps WaitUntil policies to rod lifecycle event names.
var lifecycleEvents = map[string]proto.PageLifecycleEventName{
	schemas.WaitUntilLoad:              proto.PageLifecycleEventNameLoad,
	schemas.WaitUntilDOMContentLoaded:  proto.PageLifecycleEventNameDOMContentLoaded,
	schemas.WaitUntilNetworkIdle:       proto.PageLifecycleEventNameNetworkIdle,
	schemas.WaitUntilNetworkAlmostIdle: proto.PageLifecycleEventNameNetworkAlmostIdle,
}

func lifecycleEventFor(waitUntil string) (proto.PageLifecycleEventName, error) {
	if waitUntil == "" {
		waitUntil = schemas.WaitUntilNetworkAlmostIdle
	}
	name, ok := lifecycleEvents[waitUntil]
	if !ok {
		return "", fmt.Errorf("unsupported waitUntil %q", waitUntil)
	}
	return name, nil
}

// Page adapts a *rod.Page. Like the chromedp session it is driven by one runner
// at a time.
type Page struct {
	page   *rod.Page
	logger *zap.Logger
}

var _ schemas.Page = (*Page)(nil)

// New wraps an open rod page.
func New(p *rod.Page, logger *zap.Logger) *Page {
	return &Page{page: p, logger: logger}
}

// withTimeout derives the rod page bound to ctx and an optional deadline.
func (p *Page) withTimeout(ctx context.Context, timeout time.Duration) (*rod.Page, context.Context, context.CancelFunc) {
	opCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		opCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	return p.page.Context(opCtx), opCtx, cancel
}

// wrap reports deadline hits as context.DeadlineExceeded.
func wrap(opCtx context.Context, what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out: %w", what, context.DeadlineExceeded)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// -- Navigation --

func (p *Page) navigate(ctx context.Context, opts schemas.NavigateOptions, what string, trigger func(*rod.Page) error) error {
	event, err := lifecycleEventFor(opts.WaitUntil)
	if err != nil {
		return err
	}
	page, opCtx, cancel := p.withTimeout(ctx, opts.Timeout)
	defer cancel()

	// WaitNavigation subscribes immediately; the returned func blocks.
	wait := page.WaitNavigation(event)
	if trigger != nil {
		if err := trigger(page); err != nil {
			return wrap(opCtx, what, err)
		}
	}
	wait()
	return wrap(opCtx, what, opCtx.Err())
}

func (p *Page) Navigate(ctx context.Context, url string, opts schemas.NavigateOptions) error {
	return p.navigate(ctx, opts, "navigate", func(page *rod.Page) error { return page.Navigate(url) })
}

func (p *Page) GoBack(ctx context.Context, opts schemas.NavigateOptions) error {
	return p.navigate(ctx, opts, "go back", func(page *rod.Page) error { return page.NavigateBack() })
}

func (p *Page) GoForward(ctx context.Context, opts schemas.NavigateOptions) error {
	return p.navigate(ctx, opts, "go forward", func(page *rod.Page) error { return page.NavigateForward() })
}

func (p *Page) Reload(ctx context.Context, opts schemas.NavigateOptions) error {
	return p.navigate(ctx, opts, "reload", func(page *rod.Page) error { return page.Reload() })
}

func (p *Page) WaitForNavigation(ctx context.Context, opts schemas.NavigateOptions) error {
	return p.navigate(ctx, opts, "wait for navigation", nil)
}

// -- Waiting --

func (p *Page) WaitForSelector(ctx context.Context, selector string, opts schemas.WaitOptions) error {
	page, opCtx, cancel := p.withTimeout(ctx, opts.Timeout)
	defer cancel()
	what := fmt.Sprintf("wait for %q", selector)

	if opts.Hidden {
		return wrap(opCtx, what, page.Wait(rod.Eval(scripts.IsHiddenOrAbsent(selector))))
	}
	// Element retries until the selector matches.
	el, err := page.Element(selector)
	if err != nil {
		return wrap(opCtx, what, err)
	}
	if opts.Visible {
		return wrap(opCtx, what, el.WaitVisible())
	}
	return nil
}

func (p *Page) WaitForFunction(ctx context.Context, script string, opts schemas.FunctionWaitOptions) error {
	page, opCtx, cancel := p.withTimeout(ctx, opts.Timeout)
	defer cancel()
	if opts.Polling > 0 {
		interval := opts.Polling
		page = page.Sleeper(func() utils.Sleeper { return utils.BackoffSleeper(interval, interval, nil) })
	}
	return wrap(opCtx, "wait for function", page.Wait(rod.Eval(scripts.Truthy(script))))
}

// -- Interaction --

const dispatchTimeout = 10 * time.Second

// keyAllowance is the time budgeted per dispatched key on top of any delay.
const keyAllowance = 50 * time.Millisecond

// inputBudget bounds an input operation that dispatches the given number of
// key or mouse events, each followed by delay. It saturates instead of
// overflowing.
func inputBudget(delay time.Duration, keys int) time.Duration {
	if delay < 0 {
		delay = 0
	}
	per := delay + keyAllowance
	if per < 0 || (keys > 0 && per > (math.MaxInt64-dispatchTimeout)/time.Duration(keys)) {
		return math.MaxInt64
	}
	return dispatchTimeout + per*time.Duration(keys)
}

func (p *Page) element(ctx context.Context, timeout time.Duration, selector string) (*rod.Element, context.Context, context.CancelFunc, error) {
	page, opCtx, cancel := p.withTimeout(ctx, timeout)
	el, err := page.Element(selector)
	if err != nil {
		cancel()
		return nil, opCtx, nil, wrap(opCtx, fmt.Sprintf("find %q", selector), err)
	}
	return el, opCtx, cancel, nil
}

func (p *Page) Click(ctx context.Context, selector string, opts schemas.ClickOptions) error {
	el, opCtx, cancel, err := p.element(ctx, inputBudget(opts.Delay, 1), selector)
	if err != nil {
		return err
	}
	defer cancel()
	what := fmt.Sprintf("click %q", selector)

	if err := el.ScrollIntoView(); err != nil {
		return wrap(opCtx, what, err)
	}
	if err := el.Hover(); err != nil {
		return wrap(opCtx, what, err)
	}
	mouse := p.page.Context(opCtx).Mouse
	btn := proto.InputMouseButton(opts.Button)
	if err := mouse.Down(btn, opts.ClickCount); err != nil {
		return wrap(opCtx, what, err)
	}
	if err := sleep(opCtx, opts.Delay); err != nil {
		return wrap(opCtx, what, err)
	}
	return wrap(opCtx, what, mouse.Up(btn, opts.ClickCount))
}

func (p *Page) Hover(ctx context.Context, selector string) error {
	el, opCtx, cancel, err := p.element(ctx, dispatchTimeout, selector)
	if err != nil {
		return err
	}
	defer cancel()
	return wrap(opCtx, fmt.Sprintf("hover %q", selector), el.Hover())
}

func (p *Page) Focus(ctx context.Context, selector string) error {
	el, opCtx, cancel, err := p.element(ctx, dispatchTimeout, selector)
	if err != nil {
		return err
	}
	defer cancel()
	return wrap(opCtx, fmt.Sprintf("focus %q", selector), el.Focus())
}

func (p *Page) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	el, opCtx, cancel, err := p.element(ctx, inputBudget(delay, utf8.RuneCountInString(text)), selector)
	if err != nil {
		return err
	}
	defer cancel()
	what := fmt.Sprintf("type into %q", selector)

	if delay <= 0 {
		return wrap(opCtx, what, el.Input(text))
	}
	if err := el.Focus(); err != nil {
		return wrap(opCtx, what, err)
	}
	page := p.page.Context(opCtx)
	for _, r := range text {
		if err := page.InsertText(string(r)); err != nil {
			return wrap(opCtx, what, err)
		}
		if err := sleep(opCtx, delay); err != nil {
			return wrap(opCtx, what, err)
		}
	}
	return nil
}

func (p *Page) Press(ctx context.Context, key string, delay time.Duration) error {
	k, err := keyFor(key)
	if err != nil {
		return err
	}
	page, opCtx, cancel := p.withTimeout(ctx, inputBudget(delay, 1))
	defer cancel()
	what := fmt.Sprintf("press %s", key)

	if k.text != "" {
		down, up := k.events()
		if err := down.Call(page); err != nil {
			return wrap(opCtx, what, err)
		}
		if err := sleep(opCtx, delay); err != nil {
			return wrap(opCtx, what, err)
		}
		return wrap(opCtx, what, up.Call(page))
	}

	if err := page.Keyboard.Press(k.key); err != nil {
		return wrap(opCtx, what, err)
	}
	if err := sleep(opCtx, delay); err != nil {
		return wrap(opCtx, what, err)
	}
	return wrap(opCtx, what, page.Keyboard.Release(k.key))
}

func (p *Page) Select(ctx context.Context, selector string, values []string) error {
	_, err := p.Evaluate(ctx, scripts.SelectOptions(selector, values))
	return err
}

// -- Evaluation and page state --

// Evaluate runs script as a plain Runtime.evaluate expression so chromedp and
// rod pages see scripts identically.
func (p *Page) Evaluate(ctx context.Context, script string) (json.RawMessage, error) {
	res, err := proto.RuntimeEvaluate{
		Expression:    script,
		ReturnByValue: true,
		AwaitPromise:  true,
		UserGesture:   true,
	}.Call(p.page.Context(ctx))
	if err != nil {
		return nil, err
	}
	if res.ExceptionDetails != nil {
		return nil, fmt.Errorf("%s", exceptionText(res.ExceptionDetails))
	}
	if res.Result == nil || res.Result.Type == proto.RuntimeRemoteObjectTypeUndefined || res.Result.Value.Nil() {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(res.Result.Value.JSON("", "")), nil
}

func exceptionText(d *proto.RuntimeExceptionDetails) string {
	if d.Exception != nil && d.Exception.Description != "" {
		return d.Exception.Description
	}
	return d.Text
}

func (p *Page) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("read url: %w", err)
	}
	return info.URL, nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	return info.Title, nil
}

func (p *Page) SetViewport(ctx context.Context, vp schemas.Viewport) error {
	page := p.page.Context(ctx)
	err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: vp.DeviceScaleFactor,
		Mobile:            vp.IsMobile,
	})
	if err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}
	if err := (proto.EmulationSetTouchEmulationEnabled{Enabled: vp.HasTouch}).Call(page); err != nil {
		return fmt.Errorf("set touch emulation: %w", err)
	}
	return nil
}

func (p *Page) QueryCount(ctx context.Context, selector string) (int, error) {
	var n int
	err := p.evaluateInto(ctx, scripts.QueryCount(selector), &n)
	return n, err
}

func (p *Page) IsVisible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	err := p.evaluateInto(ctx, scripts.IsVisible(selector), &visible)
	return visible, err
}

func (p *Page) TextContent(ctx context.Context, selector string) (string, bool, error) {
	var text *string
	if err := p.evaluateInto(ctx, scripts.TextContent(selector), &text); err != nil {
		return "", false, err
	}
	if text == nil {
		return "", false, nil
	}
	return *text, true, nil
}

func (p *Page) evaluateInto(ctx context.Context, script string, out interface{}) error {
	raw, err := p.Evaluate(ctx, script)
	if err != nil {
		return err
	}
	return jsonAPI.Unmarshal(raw, out)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
