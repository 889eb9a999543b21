package rodpage

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

var namedKeys = map[string]input.Key{
	"Enter":       input.Enter,
	"Tab":         input.Tab,
	"Escape":      input.Escape,
	"Backspace":   input.Backspace,
	"Delete":      input.Delete,
	"Insert":      input.Insert,
	"Space":       input.Space,
	"ArrowUp":     input.ArrowUp,
	"ArrowDown":   input.ArrowDown,
	"ArrowLeft":   input.ArrowLeft,
	"ArrowRight":  input.ArrowRight,
	"Home":        input.Home,
	"End":         input.End,
	"PageUp":      input.PageUp,
	"PageDown":    input.PageDown,
	"Shift":       input.ShiftLeft,
	"Control":     input.ControlLeft,
	"Alt":         input.AltLeft,
	"Meta":        input.MetaLeft,
	"CapsLock":    input.CapsLock,
	"NumLock":     input.NumLock,
	"ScrollLock":  input.ScrollLock,
	"PrintScreen": input.PrintScreen,
	"Pause":       input.Pause,
	"ContextMenu": input.ContextMenu,
	"F1":          input.F1,
	"F2":          input.F2,
	"F3":          input.F3,
	"F4":          input.F4,
	"F5":          input.F5,
	"F6":          input.F6,
	"F7":          input.F7,
	"F8":          input.F8,
	"F9":          input.F9,
	"F10":         input.F10,
	"F11":         input.F11,
	"F12":         input.F12,
}

// keyStroke is either a key on rod's US layout or a character outside it,
// which is sent as raw key events carrying the text.
type keyStroke struct {
	key  input.Key
	text string
}

// keyFor resolves a key name or a single printable character.
func keyFor(name string) (keyStroke, error) {
	if k, ok := namedKeys[name]; ok {
		return keyStroke{key: k}, nil
	}
	if utf8.RuneCountInString(name) != 1 {
		return keyStroke{}, fmt.Errorf("unknown key %q", name)
	}
	r, _ := utf8.DecodeRuneInString(name)
	switch {
	case r >= 0x20 && r < 0x7f:
		return keyStroke{key: input.Key(r)}, nil
	case unicode.IsPrint(r):
		return keyStroke{text: name}, nil
	}
	return keyStroke{}, fmt.Errorf("unknown key %q", name)
}

// events returns the keyDown and keyUp events for a character outside the
// keyboard layout.
func (s keyStroke) events() (down, up *proto.InputDispatchKeyEvent) {
	down = &proto.InputDispatchKeyEvent{
		Type:           proto.InputDispatchKeyEventTypeKeyDown,
		Key:            s.text,
		Text:           s.text,
		UnmodifiedText: s.text,
	}
	up = &proto.InputDispatchKeyEvent{
		Type: proto.InputDispatchKeyEventTypeKeyUp,
		Key:  s.text,
	}
	return down, up
}
