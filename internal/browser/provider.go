// internal/browser/provider.go
package browser

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stepwise/api/schemas"
	"github.com/xkilldash9x/stepwise/internal/browser/rodpage"
	"github.com/xkilldash9x/stepwise/internal/config"
)

// NewProvider launches the browser driver selected by cfg.Driver.
func NewProvider(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (schemas.PageProvider, error) {
	switch cfg.Driver {
	case config.DriverChromedp, "":
		return NewManager(ctx, logger, cfg)
	case config.DriverRod:
		return rodpage.NewManager(ctx, logger, cfg)
	default:
		return nil, fmt.Errorf("unknown browser driver %q", cfg.Driver)
	}
}
