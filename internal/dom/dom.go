// Package dom wraps the shell's in-memory HTML document. All mutation goes
// through goquery selections; visibility is modeled with the "hidden" class
// since a headless document has no computed styles.
package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Class markers shared across the shell.
const (
	// TemplateClass marks an inert subtree used only as a stencil for clones.
	TemplateClass = "template"
	// HiddenClass marks a subtree that is not rendering.
	HiddenClass = "hidden"
	// ActiveClass marks the single active navigation anchor in a group.
	ActiveClass = "active"
)

// Document is the shell's single page document.
type Document struct {
	doc *goquery.Document
}

// Parse builds a Document from raw HTML.
func Parse(html string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Find returns the selection matching the selector anywhere in the document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// ReplaceMain splices HTML into the persistent main content region. Both
// fragment bodies and display-ready error pages land here.
func (d *Document) ReplaceMain(html string) {
	d.doc.Find("main").SetHtml(html)
}

// MainHTML returns the current HTML of the main region.
func (d *Document) MainHTML() string {
	html, err := d.doc.Find("main").Html()
	if err != nil {
		return ""
	}
	return html
}

// Show removes the hidden marker from the selection.
func Show(s *goquery.Selection) {
	s.RemoveClass(HiddenClass)
}

// Hide adds the hidden marker to the selection.
func Hide(s *goquery.Selection) {
	s.AddClass(HiddenClass)
}

// Visible reports whether the first element of the selection exists and is
// not hidden.
func Visible(s *goquery.Selection) bool {
	return s.Length() > 0 && !s.HasClass(HiddenClass)
}
