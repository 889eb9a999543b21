// internal/browser/session/keys.go
package session

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp/kb"
)

// namedKeys maps the key names accepted by the press action to chromedp key codes.
var namedKeys = map[string]string{
	"Enter":       kb.Enter,
	"Tab":         kb.Tab,
	"Escape":      kb.Escape,
	"Backspace":   kb.Backspace,
	"Delete":      kb.Delete,
	"Insert":      kb.Insert,
	"Space":       " ",
	"ArrowUp":     kb.ArrowUp,
	"ArrowDown":   kb.ArrowDown,
	"ArrowLeft":   kb.ArrowLeft,
	"ArrowRight":  kb.ArrowRight,
	"Home":        kb.Home,
	"End":         kb.End,
	"PageUp":      kb.PageUp,
	"PageDown":    kb.PageDown,
	"Shift":       kb.Shift,
	"Control":     kb.Control,
	"Alt":         kb.Alt,
	"Meta":        kb.Meta,
	"CapsLock":    kb.CapsLock,
	"NumLock":     kb.NumLock,
	"ScrollLock":  kb.ScrollLock,
	"PrintScreen": kb.PrintScreen,
	"Pause":       kb.Pause,
	"ContextMenu": kb.ContextMenu,
	"F1":          kb.F1,
	"F2":          kb.F2,
	"F3":          kb.F3,
	"F4":          kb.F4,
	"F5":          kb.F5,
	"F6":          kb.F6,
	"F7":          kb.F7,
	"F8":          kb.F8,
	"F9":          kb.F9,
	"F10":         kb.F10,
	"F11":         kb.F11,
	"F12":         kb.F12,
}

// keyEvents returns the CDP events for a single key press. Named keys come from
// namedKeys; anything else must be a single printable character.
func keyEvents(key string) ([]*input.DispatchKeyEventParams, error) {
	if code, ok := namedKeys[key]; ok {
		r, _ := utf8.DecodeRuneInString(code)
		return kb.Encode(r), nil
	}
	if utf8.RuneCountInString(key) != 1 {
		return nil, fmt.Errorf("unknown key %q", key)
	}
	r, _ := utf8.DecodeRuneInString(key)
	if !unicode.IsPrint(r) {
		return nil, fmt.Errorf("unknown key %q", key)
	}
	return kb.Encode(r), nil
}
