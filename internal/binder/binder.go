// Package binder is the event-binding discipline for re-rendered regions.
// Destructive re-renders leave stale handlers behind when bindings are added
// ad hoc, so every binding goes through Bind, which replaces any previous
// handler for the same (selector, event) pair. Rebinding after each render is
// therefore idempotent: one user interaction fires one handler, no matter how
// many times the region was rebuilt.
package binder

import (
	"github.com/PuerkitoBio/goquery"
)

// Handler reacts to an event on the element selection that matched.
type Handler func(target *goquery.Selection)

// Common event names.
const (
	EventClick  = "click"
	EventSubmit = "submit"
)

type binding struct {
	selector string
	event    string
	handler  Handler
}

// Binder dispatches events to handlers by re-evaluating selectors at trigger
// time, so bindings survive the node churn of a re-render as long as they are
// re-established through Bind.
type Binder struct {
	keys     []string
	bindings map[string]*binding
}

// New creates an empty binder.
func New() *Binder {
	return &Binder{bindings: make(map[string]*binding)}
}

func key(selector, event string) string {
	return selector + "\x00" + event
}

// Bind attaches handler to (selector, event), replacing any previous handler
// for the same pair. Safe to call on every re-render.
func (b *Binder) Bind(selector, event string, handler Handler) {
	k := key(selector, event)
	if _, exists := b.bindings[k]; !exists {
		b.keys = append(b.keys, k)
	}
	b.bindings[k] = &binding{selector: selector, event: event, handler: handler}
}

// Off removes the handler for (selector, event), if any.
func (b *Binder) Off(selector, event string) {
	k := key(selector, event)
	if _, exists := b.bindings[k]; !exists {
		return
	}
	delete(b.bindings, k)
	for i, existing := range b.keys {
		if existing == k {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
}

// Trigger dispatches event on target: every binding for the event whose
// selector matches target fires once, in bind order.
func (b *Binder) Trigger(event string, target *goquery.Selection) {
	if target == nil || target.Length() == 0 {
		return
	}
	// Snapshot so handlers can rebind without affecting this dispatch.
	matched := make([]*binding, 0, len(b.keys))
	for _, k := range b.keys {
		bd := b.bindings[k]
		if bd != nil && bd.event == event && target.Is(bd.selector) {
			matched = append(matched, bd)
		}
	}
	for _, bd := range matched {
		bd.handler(target)
	}
}

// Click dispatches a click on target.
func (b *Binder) Click(target *goquery.Selection) {
	b.Trigger(EventClick, target)
}

// TriggerAll dispatches event on each element of the selection in turn,
// mirroring a programmatic jQuery-style trigger over a matched set.
func (b *Binder) TriggerAll(event string, targets *goquery.Selection) {
	targets.Each(func(_ int, el *goquery.Selection) {
		b.Trigger(event, el)
	})
}
