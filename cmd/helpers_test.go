// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stepwise/api/schemas"
	"github.com/xkilldash9x/stepwise/internal/config"
	"github.com/xkilldash9x/stepwise/internal/mocks"
	"github.com/xkilldash9x/stepwise/internal/observability"
)

const quietConfig = `
logger:
  level: error
  format: json
engine:
  parallelism: 2
`

// writeFile creates name inside dir with the given contents and returns its path.
func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// executeCommand runs a pristine root command with factory standing in for the
// real browser. It returns what the command wrote to stdout and stderr.
func executeCommand(t *testing.T, factory providerFactory, configYAML string, args ...string) (string, string, error) {
	t.Helper()

	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	orig := defaultProviderFactory
	defaultProviderFactory = factory
	t.Cleanup(func() { defaultProviderFactory = orig })

	if configYAML == "" {
		configYAML = quietConfig
	}
	cfgPath := writeFile(t, t.TempDir(), "config.yaml", configYAML)

	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// stubFactory returns provider and records the browser config it was given.
func stubFactory(provider schemas.PageProvider, seen *config.BrowserConfig) providerFactory {
	return func(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (schemas.PageProvider, error) {
		if seen != nil {
			*seen = cfg
		}
		return provider, nil
	}
}

// newProvider returns a provider that hands out the given pages in order.
func newProvider(pages ...*mocks.MockPage) *mocks.MockPageProvider {
	provider := new(mocks.MockPageProvider)
	for _, p := range pages {
		provider.On("NewPage", mock.Anything).Return(p, nil).Once()
	}
	provider.On("release").Return()
	provider.On("Shutdown", mock.Anything).Return(nil)
	return provider
}

func decodeResults(t *testing.T, out string) []fileResult {
	t.Helper()
	var results []fileResult
	require.NoError(t, jsonAPI.Unmarshal([]byte(out), &results), "stdout: %s", out)
	return results
}
