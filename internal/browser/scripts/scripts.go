// Package scripts holds the in-page JavaScript used by the action executor and
// the page adapters. Every argument is embedded as a JSON literal so selectors
// and values cannot break out of the surrounding expression.
package scripts

import jsoniter "github.com/json-iterator/go"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Encode renders v as a JavaScript literal.
func Encode(v interface{}) string {
	b, err := jsonAPI.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}

// isHiddenFn is shared by the visibility helpers below.
const isHiddenFn = `function(el) {
		const style = window.getComputedStyle(el);
		return style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0';
	}`

// ClearValue empties an input and fires synthetic input and change events.
// Some frameworks only observe those events, so a native clear is not used.
func ClearValue(selector string) string {
	return `(() => {
	const sel = ` + Encode(selector) + `;
	const el = document.querySelector(sel);
	if (!el) throw new Error('Element not found: ' + sel);
	el.value = '';
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})()`
}

// SelectOptions selects the options of a <select> whose value is in values and
// returns the values that ended up selected.
func SelectOptions(selector string, values []string) string {
	if values == nil {
		values = []string{}
	}
	return `(() => {
	const sel = ` + Encode(selector) + `;
	const values = ` + Encode(values) + `;
	const el = document.querySelector(sel);
	if (!el) throw new Error('Element not found: ' + sel);
	if (el.nodeName.toLowerCase() !== 'select') throw new Error('Element is not a <select> element: ' + sel);
	for (const option of el.options) {
		option.selected = values.includes(option.value);
		if (option.selected && !el.multiple) break;
	}
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return Array.from(el.options).filter(o => o.selected).map(o => o.value);
})()`
}

// ScrollWindow scrolls the window to an absolute offset.
func ScrollWindow(x, y float64) string {
	return `(() => { window.scrollTo(` + Encode(x) + `, ` + Encode(y) + `); return true; })()`
}

// ScrollElement scrolls a scrollable element to an absolute offset.
func ScrollElement(selector string, x, y float64) string {
	return `(() => {
	const sel = ` + Encode(selector) + `;
	const el = document.querySelector(sel);
	if (!el) throw new Error('Element not found: ' + sel);
	el.scrollTo(` + Encode(x) + `, ` + Encode(y) + `);
	return true;
})()`
}

// ScrollIntoView brings an element into view with the given alignment.
func ScrollIntoView(selector, block, inline, behavior string) string {
	opts := map[string]string{"block": block, "inline": inline, "behavior": behavior}
	return `(() => {
	const sel = ` + Encode(selector) + `;
	const el = document.querySelector(sel);
	if (!el) throw new Error('Element not found: ' + sel);
	el.scrollIntoView(` + Encode(opts) + `);
	return true;
})()`
}

// QueryCount counts the elements matching selector.
func QueryCount(selector string) string {
	return `document.querySelectorAll(` + Encode(selector) + `).length`
}

// IsVisible reports whether the first match is rendered. It yields false when
// nothing matches.
func IsVisible(selector string) string {
	return `(() => {
	const isHidden = ` + isHiddenFn + `;
	const el = document.querySelector(` + Encode(selector) + `);
	return !!el && !isHidden(el);
})()`
}

// IsHiddenOrAbsent is the predicate behind waitForSelector with hidden: true.
func IsHiddenOrAbsent(selector string) string {
	return `(() => {
	const isHidden = ` + isHiddenFn + `;
	const el = document.querySelector(` + Encode(selector) + `);
	return !el || isHidden(el);
})()`
}

// TextContent yields the trimmed textContent of the first match, or null.
func TextContent(selector string) string {
	return `(() => {
	const el = document.querySelector(` + Encode(selector) + `);
	return el ? (el.textContent || '').trim() : null;
})()`
}

// Truthy wraps a user predicate so that polling loops receive a boolean. The
// predicate may be an expression or a function expression, which is invoked.
func Truthy(script string) string {
	return `(() => {
	const r = (` + script + `);
	return !!(typeof r === 'function' ? r() : r);
})()`
}

// ElementCenter scrolls the first match into view and yields the viewport
// coordinates of its center as {x, y}.
func ElementCenter(selector string) string {
	return `(() => {
	const sel = ` + Encode(selector) + `;
	const el = document.querySelector(sel);
	if (!el) throw new Error('Element not found: ' + sel);
	el.scrollIntoView({ block: 'center', inline: 'center', behavior: 'instant' });
	const rect = el.getBoundingClientRect();
	return { x: rect.left + rect.width / 2, y: rect.top + rect.height / 2 };
})()`
}
