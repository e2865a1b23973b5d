// Package render materializes repeated content by cloning invisible template
// nodes. A region holds exactly one template per repeated shape; every render
// removes the previously rendered items and rebuilds the list from scratch.
// Full replace-on-every-render is the chosen simplicity tradeoff: list sizes
// here are small and a keyed diff would buy nothing.
package render

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/bookdenapp/bookden-shell/internal/dom"
)

// IdentityAttr carries a rendered item's stable identity out of band, so a
// clicked element can be correlated back to a server-side row without
// re-parsing rendered text.
const IdentityAttr = "data-identity"

// Populate fills one clone with the fields of item i.
type Populate func(i int, clone *goquery.Selection)

// Config describes where a list renders.
type Config struct {
	// Scope is the region containing the template and the rendered items.
	Scope *goquery.Selection
	// Item selects one rendered item within Scope, e.g. ".book".
	Item string
	// Anchor, when set, receives each clone immediately before itself.
	// When nil, clones are appended to the template's parent.
	Anchor *goquery.Selection
}

// List renders n items into the configured region: previously rendered items
// are removed, then one clone of the template is populated and inserted per
// item, in input order. The template itself keeps its marker and never
// renders. Returns an error when the scope holds no template for Item.
func List(cfg Config, n int, populate Populate) error {
	tmpl := cfg.Scope.Find(cfg.Item + "." + dom.TemplateClass).First()
	if tmpl.Length() == 0 {
		return fmt.Errorf("no template node for %q in scope", cfg.Item)
	}

	// Remove everything previously rendered, never the template.
	cfg.Scope.Find(cfg.Item).Not("." + dom.TemplateClass).Remove()

	for i := 0; i < n; i++ {
		clone := tmpl.Clone()
		clone.RemoveClass(dom.TemplateClass)
		populate(i, clone)
		if cfg.Anchor != nil && cfg.Anchor.Length() > 0 {
			cfg.Anchor.BeforeSelection(clone)
		} else {
			tmpl.Parent().AppendSelection(clone)
		}
	}
	return nil
}

// SetIdentity tags a clone with its stable identity.
func SetIdentity(clone *goquery.Selection, identity string) {
	clone.SetAttr(IdentityAttr, identity)
}

// Identity returns the identity on the element or its nearest tagged
// ancestor. Empty when neither carries one.
func Identity(s *goquery.Selection) string {
	if v, ok := s.Attr(IdentityAttr); ok {
		return v
	}
	return s.Closest("[" + IdentityAttr + "]").AttrOr(IdentityAttr, "")
}

// SetField sets the text of the first descendant matching selector. Absent
// values follow the uniform null policy: the container hides instead of
// rendering blank.
func SetField(clone *goquery.Selection, selector string, value *string) {
	target := clone.Find(selector).First()
	if value == nil {
		dom.Hide(target)
		return
	}
	dom.Show(target)
	target.SetText(*value)
}

// SetHTMLField is SetField for server-rendered HTML values such as synopsis
// paragraph blocks.
func SetHTMLField(clone *goquery.Selection, selector string, value *string) {
	target := clone.Find(selector).First()
	if value == nil {
		dom.Hide(target)
		return
	}
	dom.Show(target)
	target.SetHtml(*value)
}
