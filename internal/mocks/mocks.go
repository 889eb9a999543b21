// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/stepwise/api/schemas"
)

// -- Page Mock --

// MockPage mocks schemas.Page.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) Navigate(ctx context.Context, url string, opts schemas.NavigateOptions) error {
	return m.Called(ctx, url, opts).Error(0)
}
func (m *MockPage) GoBack(ctx context.Context, opts schemas.NavigateOptions) error {
	return m.Called(ctx, opts).Error(0)
}
func (m *MockPage) GoForward(ctx context.Context, opts schemas.NavigateOptions) error {
	return m.Called(ctx, opts).Error(0)
}
func (m *MockPage) Reload(ctx context.Context, opts schemas.NavigateOptions) error {
	return m.Called(ctx, opts).Error(0)
}
func (m *MockPage) WaitForNavigation(ctx context.Context, opts schemas.NavigateOptions) error {
	return m.Called(ctx, opts).Error(0)
}
func (m *MockPage) WaitForSelector(ctx context.Context, selector string, opts schemas.WaitOptions) error {
	return m.Called(ctx, selector, opts).Error(0)
}
func (m *MockPage) WaitForFunction(ctx context.Context, script string, opts schemas.FunctionWaitOptions) error {
	return m.Called(ctx, script, opts).Error(0)
}
func (m *MockPage) Click(ctx context.Context, selector string, opts schemas.ClickOptions) error {
	return m.Called(ctx, selector, opts).Error(0)
}
func (m *MockPage) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	return m.Called(ctx, selector, text, delay).Error(0)
}
func (m *MockPage) Select(ctx context.Context, selector string, values []string) error {
	return m.Called(ctx, selector, values).Error(0)
}
func (m *MockPage) Hover(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}
func (m *MockPage) Focus(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}
func (m *MockPage) Press(ctx context.Context, key string, delay time.Duration) error {
	return m.Called(ctx, key, delay).Error(0)
}

// Evaluate returns the configured json.RawMessage. A string is accepted as a
// convenience and converted.
func (m *MockPage) Evaluate(ctx context.Context, script string) (json.RawMessage, error) {
	args := m.Called(ctx, script)
	var raw json.RawMessage
	switch v := args.Get(0).(type) {
	case json.RawMessage:
		raw = v
	case string:
		raw = json.RawMessage(v)
	}
	return raw, args.Error(1)
}

func (m *MockPage) URL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *MockPage) Title(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *MockPage) SetViewport(ctx context.Context, vp schemas.Viewport) error {
	return m.Called(ctx, vp).Error(0)
}
func (m *MockPage) QueryCount(ctx context.Context, selector string) (int, error) {
	args := m.Called(ctx, selector)
	return args.Int(0), args.Error(1)
}
func (m *MockPage) IsVisible(ctx context.Context, selector string) (bool, error) {
	args := m.Called(ctx, selector)
	return args.Bool(0), args.Error(1)
}
func (m *MockPage) TextContent(ctx context.Context, selector string) (string, bool, error) {
	args := m.Called(ctx, selector)
	return args.String(0), args.Bool(1), args.Error(2)
}

// -- Page Provider Mock --

// MockPageProvider mocks schemas.PageProvider. NewPage returns the configured
// page and a release func that records a "release" call.
type MockPageProvider struct {
	mock.Mock
}

func (m *MockPageProvider) NewPage(ctx context.Context) (schemas.Page, func(), error) {
	args := m.Called(ctx)
	var page schemas.Page
	if p := args.Get(0); p != nil {
		page = p.(schemas.Page)
	}
	return page, func() { m.MethodCalled("release") }, args.Error(1)
}

func (m *MockPageProvider) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
