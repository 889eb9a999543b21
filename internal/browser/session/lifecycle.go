// internal/browser/session/lifecycle.go
package session

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/stepwise/api/schemas"
)

// lifecycleEvents maps WaitUntil policies to the CDP Page.lifecycleEvent names
// that satisfy them.
var lifecycleEvents = map[string]string{
	schemas.WaitUntilLoad:              "load",
	schemas.WaitUntilDOMContentLoaded:  "DOMContentLoaded",
	schemas.WaitUntilNetworkIdle:       "networkIdle",
	schemas.WaitUntilNetworkAlmostIdle: "networkAlmostIdle",
}

// lifecycleEventFor resolves a WaitUntil policy. An empty policy means
// networkidle2.
func lifecycleEventFor(waitUntil string) (string, error) {
	if waitUntil == "" {
		waitUntil = schemas.WaitUntilNetworkAlmostIdle
	}
	name, ok := lifecycleEvents[waitUntil]
	if !ok {
		return "", fmt.Errorf("unsupported waitUntil %q", waitUntil)
	}
	return name, nil
}

// lifecycleWaiter records lifecycle events of a tab from the moment it is
// created. It must be registered before the navigation is triggered, otherwise
// fast pages finish before anyone is listening.
type lifecycleWaiter struct {
	events chan string
	stop   context.CancelFunc
}

func listenLifecycle(tabCtx context.Context) *lifecycleWaiter {
	lctx, stop := context.WithCancel(tabCtx)
	w := &lifecycleWaiter{events: make(chan string, 128), stop: stop}
	frame := mainFrameID(tabCtx)

	chromedp.ListenTarget(lctx, func(ev interface{}) {
		name, ok := mainFrameLifecycle(ev, frame)
		if !ok {
			return
		}
		select {
		case w.events <- name:
		default:
		}
	})
	return w
}

// mainFrameID returns the top-level frame of the tab, which shares the
// target's ID. It is empty when tabCtx carries no target.
func mainFrameID(tabCtx context.Context) cdp.FrameID {
	c := chromedp.FromContext(tabCtx)
	if c == nil || c.Target == nil {
		return ""
	}
	return cdp.FrameID(c.Target.TargetID)
}

// mainFrameLifecycle extracts the event name from a lifecycle event of frame.
// Iframe events are dropped so a subframe's load cannot satisfy a wait on the
// page. An empty frame accepts every frame.
func mainFrameLifecycle(ev interface{}, frame cdp.FrameID) (string, bool) {
	e, ok := ev.(*page.EventLifecycleEvent)
	if !ok {
		return "", false
	}
	if frame != "" && e.FrameID != frame {
		return "", false
	}
	return e.Name, true
}

// wait blocks until the named event arrives.
func (w *lifecycleWaiter) wait(ctx context.Context, name string) error {
	for {
		select {
		case got := <-w.events:
			if got == name {
				return nil
			}
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", name, ctx.Err())
		}
	}
}

func (w *lifecycleWaiter) close() { w.stop() }
