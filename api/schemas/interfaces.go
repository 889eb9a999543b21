package schemas

import (
	"context"
	"encoding/json"
	"time"
)

// Lifecycle policies accepted by WaitUntil.
const (
	WaitUntilLoad              = "load"
	WaitUntilDOMContentLoaded  = "domcontentloaded"
	WaitUntilNetworkIdle       = "networkidle0"
	WaitUntilNetworkAlmostIdle = "networkidle2"
)

// PressKeyNames are the named keys every Page.Press implementation accepts.
// Any single printable character is accepted as well.
var PressKeyNames = []string{
	"Enter", "Tab", "Escape", "Backspace", "Delete", "Insert", "Space",
	"ArrowUp", "ArrowDown", "ArrowLeft", "ArrowRight",
	"Home", "End", "PageUp", "PageDown",
	"Shift", "Control", "Alt", "Meta",
	"CapsLock", "NumLock", "ScrollLock",
	"PrintScreen", "Pause", "ContextMenu",
	"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12",
}

// NavigateOptions controls navigation-like page operations.
type NavigateOptions struct {
	WaitUntil string
	Timeout   time.Duration
}

// WaitOptions controls WaitForSelector. With neither flag set the element only
// has to be present in the DOM.
type WaitOptions struct {
	Visible bool
	Hidden  bool
	Timeout time.Duration
}

// FunctionWaitOptions controls WaitForFunction polling.
type FunctionWaitOptions struct {
	Timeout time.Duration
	Polling time.Duration
}

// ClickOptions controls Click.
type ClickOptions struct {
	Button     string // left, right or middle
	ClickCount int
	Delay      time.Duration
}

// Viewport describes the emulated device metrics applied by SetViewport.
type Viewport struct {
	Width             int
	Height            int
	DeviceScaleFactor float64
	IsMobile          bool
	HasTouch          bool
}

// Page is the capability set the action engine needs from a live browser page.
// The engine does not create, own or release pages; a Page is handed to it by the
// caller for the duration of one sequence run and must not be shared concurrently.
//
// Scripts passed to Evaluate and WaitForFunction are executed verbatim in the page.
// They are operator- or generator-authored and are trusted by design.
type Page interface {
	Navigate(ctx context.Context, url string, opts NavigateOptions) error
	GoBack(ctx context.Context, opts NavigateOptions) error
	GoForward(ctx context.Context, opts NavigateOptions) error
	Reload(ctx context.Context, opts NavigateOptions) error
	WaitForNavigation(ctx context.Context, opts NavigateOptions) error

	WaitForSelector(ctx context.Context, selector string, opts WaitOptions) error
	WaitForFunction(ctx context.Context, script string, opts FunctionWaitOptions) error

	Click(ctx context.Context, selector string, opts ClickOptions) error
	Type(ctx context.Context, selector, text string, delay time.Duration) error
	Select(ctx context.Context, selector string, values []string) error
	Hover(ctx context.Context, selector string) error
	Focus(ctx context.Context, selector string) error
	Press(ctx context.Context, key string, delay time.Duration) error

	// Evaluate runs script in the page and returns its value as JSON ("null" for
	// undefined or null results).
	Evaluate(ctx context.Context, script string) (json.RawMessage, error)
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	SetViewport(ctx context.Context, vp Viewport) error

	QueryCount(ctx context.Context, selector string) (int, error)
	// IsVisible reports whether the first match is rendered (not hidden through
	// display, visibility or opacity). It returns false when nothing matches.
	IsVisible(ctx context.Context, selector string) (bool, error)
	// TextContent returns the trimmed textContent of the first match.
	TextContent(ctx context.Context, selector string) (text string, found bool, err error)
}

// PageProvider hands out pages from a running browser. Each page is released
// by calling the returned function, whatever the outcome of the run.
type PageProvider interface {
	NewPage(ctx context.Context) (Page, func(), error)
	Shutdown(ctx context.Context) error
}
