// internal/mocks/mocks_test.go
package mocks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/stepwise/api/schemas"
)

// Compile-time checks that the mocks satisfy the interfaces they stand in for.
var (
	_ schemas.Page         = (*MockPage)(nil)
	_ schemas.PageProvider = (*MockPageProvider)(nil)
)

func TestMockPageEvaluateAcceptsStrings(t *testing.T) {
	page := new(MockPage)
	page.On("Evaluate", mock.Anything, "1+1").Return("2", nil)
	page.On("Evaluate", mock.Anything, "x").Return(json.RawMessage(`"x"`), nil)

	raw, err := page.Evaluate(context.Background(), "1+1")
	require.NoError(t, err)
	assert.JSONEq(t, "2", string(raw))

	raw, err = page.Evaluate(context.Background(), "x")
	require.NoError(t, err)
	assert.JSONEq(t, `"x"`, string(raw))
	page.AssertExpectations(t)
}

func TestMockPageProviderRelease(t *testing.T) {
	page := new(MockPage)
	provider := new(MockPageProvider)
	provider.On("NewPage", mock.Anything).Return(page, nil)
	provider.On("release").Return()

	got, release, err := provider.NewPage(context.Background())
	require.NoError(t, err)
	assert.Same(t, page, got)
	release()
	provider.AssertCalled(t, "release")
}
