// internal/browser/session/session.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stepwise/api/schemas"
	"github.com/xkilldash9x/stepwise/internal/browser/scripts"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// dispatchTimeout bounds single input dispatches and DOM reads that the caller
// did not give a deadline of their own.
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

// Session is one chromedp browser tab driven through the Page capability set.
// A Session is not safe for concurrent use; the runner drives it one step at a
// time.
type Session struct {
	id     string
	ctx    context.Context // tab context, carries the CDP target
	cancel context.CancelFunc
	logger *zap.Logger

	onClose   func()
	closeOnce sync.Once
}

var _ schemas.Page = (*Session)(nil)

// NewSession wraps an existing chromedp tab context. cancel closes the tab.
func NewSession(tabCtx context.Context, cancel context.CancelFunc, logger *zap.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:     id,
		ctx:    tabCtx,
		cancel: cancel,
		logger: logger.With(zap.String("session_id", id), zap.String("driver", "chromedp")),
	}
}

// Initialize creates the tab and runs the setup tasks in it. Lifecycle events
// are always enabled since navigation waits depend on them.
func (s *Session) Initialize(ctx context.Context, setup ...chromedp.Action) error {
	// The first Run on a chromedp context creates the target and binds it to the
	// context it was given, so it has to be the tab context itself.
	created := make(chan error, 1)
	go func() { created <- chromedp.Run(s.ctx) }()
	select {
	case err := <-created:
		if err != nil {
			return fmt.Errorf("creating tab: %w", err)
		}
	case <-ctx.Done():
		s.cancel()
		return fmt.Errorf("creating tab: %w", ctx.Err())
	}

	tasks := append(chromedp.Tasks{page.Enable(), page.SetLifecycleEventsEnabled(true)}, setup...)
	if err := s.RunActions(ctx, tasks...); err != nil {
		return fmt.Errorf("initializing tab: %w", err)
	}
	s.logger.Debug("Browser tab initialized.")
	return nil
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// OnClose registers a hook run exactly once when the session closes.
func (s *Session) OnClose(fn func()) { s.onClose = fn }

// Close tears the tab down. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		err = chromedp.Cancel(s.ctx)
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Debug("Closing tab reported an error.", zap.Error(err))
		} else {
			err = nil
		}
	})
	return err
}

// RunActions runs chromedp actions against this tab, bounded by ctx.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

// runWithTimeout is RunActions with an optional extra deadline. A deadline hit
// is reported as context.DeadlineExceeded so callers can classify it.
func (s *Session) runWithTimeout(ctx context.Context, timeout time.Duration, what string, actions ...chromedp.Action) error {
	opCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := s.RunActions(opCtx, actions...)
	if err == nil {
		return nil
	}
	if errors.Is(opCtx.Err(), context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout) {
		s.logger.Debug("Browser operation timed out.", zap.String("operation", what), zap.Duration("timeout", timeout))
		return fmt.Errorf("%s timed out after %v: %w", what, timeout, context.DeadlineExceeded)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// -- Navigation --

func (s *Session) navigate(ctx context.Context, opts schemas.NavigateOptions, what string, trigger chromedp.Action) error {
	event, err := lifecycleEventFor(opts.WaitUntil)
	if err != nil {
		return err
	}

	// Listen before triggering so a fast page cannot slip past the waiter.
	w := listenLifecycle(s.ctx)
	defer w.close()

	return s.runWithTimeout(ctx, opts.Timeout, what, chromedp.ActionFunc(func(c context.Context) error {
		if trigger != nil {
			if err := trigger.Do(c); err != nil {
				return err
			}
		}
		return w.wait(c, event)
	}))
}

func (s *Session) Navigate(ctx context.Context, url string, opts schemas.NavigateOptions) error {
	return s.navigate(ctx, opts, "navigate", chromedp.Navigate(url))
}

func (s *Session) GoBack(ctx context.Context, opts schemas.NavigateOptions) error {
	return s.navigate(ctx, opts, "go back", chromedp.NavigateBack())
}

func (s *Session) GoForward(ctx context.Context, opts schemas.NavigateOptions) error {
	return s.navigate(ctx, opts, "go forward", chromedp.NavigateForward())
}

func (s *Session) Reload(ctx context.Context, opts schemas.NavigateOptions) error {
	return s.navigate(ctx, opts, "reload", chromedp.Reload())
}

// WaitForNavigation waits for the next lifecycle event matching opts.WaitUntil
// without triggering anything itself.
func (s *Session) WaitForNavigation(ctx context.Context, opts schemas.NavigateOptions) error {
	return s.navigate(ctx, opts, "wait for navigation", nil)
}

// -- Waiting --

func (s *Session) WaitForSelector(ctx context.Context, selector string, opts schemas.WaitOptions) error {
	var action chromedp.Action
	switch {
	case opts.Hidden:
		var hidden bool
		action = chromedp.Poll(scripts.IsHiddenOrAbsent(selector), &hidden, pollTimeout(opts.Timeout)...)
	case opts.Visible:
		action = chromedp.WaitVisible(selector, chromedp.ByQuery)
	default:
		action = chromedp.WaitReady(selector, chromedp.ByQuery)
	}
	return s.runWithTimeout(ctx, opts.Timeout, fmt.Sprintf("wait for %q", selector), action)
}

func (s *Session) WaitForFunction(ctx context.Context, script string, opts schemas.FunctionWaitOptions) error {
	pollOpts := pollTimeout(opts.Timeout)
	if opts.Polling > 0 {
		pollOpts = append(pollOpts, chromedp.WithPollingInterval(opts.Polling))
	}
	var ok bool
	return s.runWithTimeout(ctx, opts.Timeout, "wait for function", chromedp.Poll(scripts.Truthy(script), &ok, pollOpts...))
}

// pollTimeout lifts chromedp's built-in polling limit so the operation deadline
// is the only one in effect.
func pollTimeout(timeout time.Duration) []chromedp.PollOption {
	if timeout <= 0 {
		return nil
	}
	return []chromedp.PollOption{chromedp.WithPollingTimeout(timeout)}
}

// -- Interaction --

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// center scrolls the element into view and returns its midpoint in viewport
// coordinates, which is what Input.dispatchMouseEvent expects.
func (s *Session) center(ctx context.Context, selector string) (point, error) {
	var p point
	if err := chromedp.Evaluate(scripts.ElementCenter(selector), &p).Do(ctx); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Session) Click(ctx context.Context, selector string, opts schemas.ClickOptions) error {
	btn := input.MouseButton(opts.Button)
	count := int64(opts.ClickCount)
	return s.runWithTimeout(ctx, inputBudget(opts.Delay, 1), fmt.Sprintf("click %q", selector), chromedp.ActionFunc(func(c context.Context) error {
		p, err := s.center(c, selector)
		if err != nil {
			return err
		}
		if err := input.DispatchMouseEvent(input.MouseMoved, p.X, p.Y).Do(c); err != nil {
			return err
		}
		if err := input.DispatchMouseEvent(input.MousePressed, p.X, p.Y).WithButton(btn).WithClickCount(count).Do(c); err != nil {
			return err
		}
		if err := sleep(c, opts.Delay); err != nil {
			return err
		}
		return input.DispatchMouseEvent(input.MouseReleased, p.X, p.Y).WithButton(btn).WithClickCount(count).Do(c)
	}))
}

func (s *Session) Hover(ctx context.Context, selector string) error {
	return s.runWithTimeout(ctx, dispatchTimeout, fmt.Sprintf("hover %q", selector), chromedp.ActionFunc(func(c context.Context) error {
		p, err := s.center(c, selector)
		if err != nil {
			return err
		}
		return input.DispatchMouseEvent(input.MouseMoved, p.X, p.Y).Do(c)
	}))
}

func (s *Session) Focus(ctx context.Context, selector string) error {
	return s.runWithTimeout(ctx, dispatchTimeout, fmt.Sprintf("focus %q", selector), chromedp.Focus(selector, chromedp.ByQuery))
}

// Type focuses the element and types text into it. With a delay each
// character is sent separately.
func (s *Session) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	timeout := inputBudget(delay, utf8.RuneCountInString(text))
	what := fmt.Sprintf("type into %q", selector)
	if delay <= 0 {
		return s.runWithTimeout(ctx, timeout, what, chromedp.SendKeys(selector, text, chromedp.ByQuery))
	}
	return s.runWithTimeout(ctx, timeout, what,
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.ActionFunc(func(c context.Context) error {
			for _, r := range text {
				if err := chromedp.KeyEvent(string(r)).Do(c); err != nil {
					return err
				}
				if err := sleep(c, delay); err != nil {
					return err
				}
			}
			return nil
		}),
	)
}

// Press sends a key to the focused element, holding it down for delay.
func (s *Session) Press(ctx context.Context, key string, delay time.Duration) error {
	events, err := keyEvents(key)
	if err != nil {
		return err
	}
	return s.runWithTimeout(ctx, inputBudget(delay, 1), fmt.Sprintf("press %s", key), chromedp.ActionFunc(func(c context.Context) error {
		for i, ev := range events {
			if i == len(events)-1 {
				if err := sleep(c, delay); err != nil {
					return err
				}
			}
			if err := ev.Do(c); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (s *Session) Select(ctx context.Context, selector string, values []string) error {
	var selected []string
	return s.runWithTimeout(ctx, dispatchTimeout, fmt.Sprintf("select in %q", selector), chromedp.Evaluate(scripts.SelectOptions(selector, values), &selected))
}

// -- Evaluation and page state --

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true).WithReturnByValue(true)
}

// Evaluate runs script and returns its JSON value. Undefined and null both
// come back as "null".
func (s *Session) Evaluate(ctx context.Context, script string) (json.RawMessage, error) {
	var raw []byte
	err := s.RunActions(ctx, chromedp.Evaluate(script, &raw, awaitPromise))
	if errors.Is(err, chromedp.ErrJSUndefined) || errors.Is(err, chromedp.ErrJSNull) {
		return json.RawMessage("null"), nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(raw), nil
}

func (s *Session) URL(ctx context.Context) (string, error) {
	var u string
	err := s.runWithTimeout(ctx, dispatchTimeout, "read url", chromedp.Location(&u))
	return u, err
}

func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	err := s.runWithTimeout(ctx, dispatchTimeout, "read title", chromedp.Title(&title))
	return title, err
}

func (s *Session) SetViewport(ctx context.Context, vp schemas.Viewport) error {
	opts := []chromedp.EmulateViewportOption{chromedp.EmulateScale(vp.DeviceScaleFactor)}
	if vp.IsMobile {
		opts = append(opts, chromedp.EmulateMobile)
	}
	if vp.HasTouch {
		opts = append(opts, chromedp.EmulateTouch)
	}
	return s.runWithTimeout(ctx, dispatchTimeout, "set viewport",
		chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height), opts...))
}

func (s *Session) QueryCount(ctx context.Context, selector string) (int, error) {
	var n int
	err := s.runWithTimeout(ctx, dispatchTimeout, fmt.Sprintf("count %q", selector), chromedp.Evaluate(scripts.QueryCount(selector), &n))
	return n, err
}

func (s *Session) IsVisible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	err := s.runWithTimeout(ctx, dispatchTimeout, fmt.Sprintf("check visibility of %q", selector), chromedp.Evaluate(scripts.IsVisible(selector), &visible))
	return visible, err
}

func (s *Session) TextContent(ctx context.Context, selector string) (string, bool, error) {
	raw, err := s.Evaluate(ctx, scripts.TextContent(selector))
	if err != nil {
		return "", false, fmt.Errorf("read text of %q: %w", selector, err)
	}
	var text *string
	if err := jsonAPI.Unmarshal(raw, &text); err != nil {
		return "", false, fmt.Errorf("decoding text of %q: %w", selector, err)
	}
	if text == nil {
		return "", false, nil
	}
	return *text, true, nil
}

// sleep waits for d or until ctx is done.
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
