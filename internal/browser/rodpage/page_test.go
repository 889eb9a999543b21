package rodpage

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/stepwise/api/schemas"
	"github.com/xkilldash9x/stepwise/internal/config"
)

func TestLifecycleEventFor(t *testing.T) {
	got, err := lifecycleEventFor("")
	require.NoError(t, err)
	assert.Equal(t, proto.PageLifecycleEventNameNetworkAlmostIdle, got)

	got, err = lifecycleEventFor(schemas.WaitUntilDOMContentLoaded)
	require.NoError(t, err)
	assert.Equal(t, proto.PageLifecycleEventNameDOMContentLoaded, got)

	_, err = lifecycleEventFor("never")
	assert.Error(t, err)
}

func TestKeyFor(t *testing.T) {
	k, err := keyFor("Enter")
	require.NoError(t, err)
	assert.Equal(t, keyStroke{key: input.Enter}, k)

	k, err = keyFor("x")
	require.NoError(t, err)
	assert.Equal(t, keyStroke{key: input.Key('x')}, k)

	k, err = keyFor("Shift")
	require.NoError(t, err)
	assert.Equal(t, "ShiftLeft", k.key.Info().Code)

	k, err = keyFor("é")
	require.NoError(t, err)
	assert.Equal(t, "é", k.text)
	down, up := k.events()
	assert.Equal(t, proto.InputDispatchKeyEventTypeKeyDown, down.Type)
	assert.Equal(t, "é", down.Text)
	assert.Equal(t, proto.InputDispatchKeyEventTypeKeyUp, up.Type)

	for _, bad := range []string{"", "Hyper", "\x01", "ab"} {
		_, err := keyFor(bad)
		assert.Error(t, err, bad)
	}
}

func TestKeyFor_AcceptsEveryPressKeyName(t *testing.T) {
	assert.Len(t, namedKeys, len(schemas.PressKeyNames))
	for _, name := range schemas.PressKeyNames {
		k, err := keyFor(name)
		if assert.NoError(t, err, name) {
			assert.Empty(t, k.text, name)
			assert.NotPanics(t, func() { k.key.Info() }, name)
		}
	}
}

func TestInputBudget(t *testing.T) {
	assert.Equal(t, dispatchTimeout+keyAllowance, inputBudget(0, 1))
	assert.Equal(t, dispatchTimeout+3*(100*time.Millisecond+keyAllowance), inputBudget(100*time.Millisecond, 3))
	assert.Equal(t, dispatchTimeout, inputBudget(-time.Second, 0))
	assert.Equal(t, time.Duration(math.MaxInt64), inputBudget(time.Duration(math.MaxInt64), 1))
	assert.Equal(t, time.Duration(math.MaxInt64), inputBudget(time.Hour, math.MaxInt32))
}

func TestNewLauncher(t *testing.T) {
	cfg := config.NewDefaultConfig().Browser()
	cfg.IgnoreTLSErrors = true
	cfg.Args = []string{"--lang=de-DE", "--mute-audio"}

	l := NewLauncher(cfg)

	assert.Equal(t, "1280,800", l.Get("window-size"))
	assert.True(t, l.Has("ignore-certificate-errors"))
	assert.Equal(t, "de-DE", l.Get("lang"))
	assert.True(t, l.Has("mute-audio"))
}

func TestManager_AgainstBrowser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	found := false
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("no Chrome or Chromium binary on PATH")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Rod</title></head><body><p class="x">a</p><p class="x">b</p></body></html>`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := config.NewDefaultConfig().Browser()
	cfg.Driver = config.DriverRod
	m, err := NewManager(ctx, zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, m.Shutdown(context.Background())) }()

	page, release, err := m.NewPage(ctx)
	require.NoError(t, err)
	defer release()

	require.NoError(t, page.Navigate(ctx, srv.URL, schemas.NavigateOptions{WaitUntil: schemas.WaitUntilLoad, Timeout: 15 * time.Second}))
	title, err := page.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Rod", title)

	n, err := page.QueryCount(ctx, ".x")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	raw, err := page.Evaluate(ctx, "undefined")
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}
