// internal/browser/session/context_utils.go
package session

import "context"

// CombineContext returns a context that carries the values of tab (the chromedp
// target) and is canceled when either tab or op is done. Page operations run
// under the caller's deadline while still addressing the right browser target.
func CombineContext(tab, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(tab)

	go func() {
		select {
		case <-op.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
