package binder

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/assert"

	"github.com/bookdenapp/bookden-shell/internal/dom"
	"github.com/bookdenapp/bookden-shell/internal/render"
)

const page = `
<html><body>
  <div class="entries">
    <div class="book template"><span class="title"></span><button class="delete">x</button></div>
  </div>
</body></html>`

func renderBooks(t *testing.T, doc *dom.Document, n int) {
	t.Helper()
	err := render.List(render.Config{Scope: doc.Find(".entries"), Item: ".book"}, n,
		func(i int, clone *goquery.Selection) {
			render.SetIdentity(clone, "bk-1")
		})
	require.NoError(t, err)
}

func TestBind_SingleFire(t *testing.T) {
	doc, err := dom.Parse(page)
	require.NoError(t, err)
	b := New()

	fired := 0
	b.Bind(".book button.delete", EventClick, func(*goquery.Selection) { fired++ })

	renderBooks(t, doc, 1)
	b.Click(doc.Find(".book").Not(".template").Find("button.delete"))
	assert.Equal(t, 1, fired)
}

func TestBind_NoDuplicateFireAcrossRerenders(t *testing.T) {
	doc, err := dom.Parse(page)
	require.NoError(t, err)
	b := New()

	fired := 0
	// Three successive re-renders, each re-establishing the binding the way
	// a controller does.
	for i := 0; i < 3; i++ {
		renderBooks(t, doc, 2)
		b.Bind(".book button.delete", EventClick, func(*goquery.Selection) { fired++ })
	}

	b.Click(doc.Find(".book").Not(".template").First().Find("button.delete"))
	assert.Equal(t, 1, fired, "one click fires exactly one handler after repeated renders")
}

func TestOff_RemovesBinding(t *testing.T) {
	doc, err := dom.Parse(page)
	require.NoError(t, err)
	b := New()

	fired := 0
	b.Bind("button.delete", EventClick, func(*goquery.Selection) { fired++ })
	b.Off("button.delete", EventClick)

	renderBooks(t, doc, 1)
	b.Click(doc.Find(".book").Not(".template").Find("button.delete"))
	assert.Zero(t, fired)
}

func TestTrigger_SelectorMatchesAtDispatchTime(t *testing.T) {
	doc, err := dom.Parse(page)
	require.NoError(t, err)
	b := New()

	var seen string
	b.Bind(".book button.delete", EventClick, func(target *goquery.Selection) {
		seen = render.Identity(target)
	})

	renderBooks(t, doc, 1)
	b.Click(doc.Find(".book").Not(".template").Find("button.delete"))
	assert.Equal(t, "bk-1", seen, "handler resolves identity from the clicked element")
}

func TestTrigger_EventKindsAreIndependent(t *testing.T) {
	doc, err := dom.Parse(page)
	require.NoError(t, err)
	b := New()

	clicks, submits := 0, 0
	b.Bind("button.delete", EventClick, func(*goquery.Selection) { clicks++ })
	b.Bind("button.delete", EventSubmit, func(*goquery.Selection) { submits++ })

	renderBooks(t, doc, 1)
	target := doc.Find(".book").Not(".template").Find("button.delete")
	b.Trigger(EventSubmit, target)

	assert.Zero(t, clicks)
	assert.Equal(t, 1, submits)
}

func TestTriggerAll_FiresPerElement(t *testing.T) {
	doc, err := dom.Parse(page)
	require.NoError(t, err)
	b := New()

	fired := 0
	b.Bind("button.delete", EventClick, func(*goquery.Selection) { fired++ })

	renderBooks(t, doc, 3)
	b.TriggerAll(EventClick, doc.Find(".book").Not(".template").Find("button.delete"))
	assert.Equal(t, 3, fired)
}
