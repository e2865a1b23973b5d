package viewname

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleCase(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single word", "home", "Home"},
		{"two words", "my books", "My Books"},
		{"already cased", "My Books", "My Books"},
		{"shouting", "MY BOOKS", "My Books"},
		{"apostrophe stays in token", "don't stop", "Don't Stop"},
		{"hyphen splits tokens", "sci-fi", "Sci-Fi"},
		// The slash is swallowed by the token's tail, so the segment after
		// it keeps its case lowered.
		{"slash stays inside the token", "genre/fantasy", "Genre/fantasy"},
		{"empty", "", ""},
		{"digits lead a token", "1984 revisited", "1984 Revisited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleCase(tt.in))
		})
	}
}

func TestSegment(t *testing.T) {
	assert.Equal(t, "home", Segment("Home"))
	assert.Equal(t, "my-books", Segment("My Books"))
	// Only the first space converts. Documented behavior, not a target to fix.
	assert.Equal(t, "want-to read", Segment("Want to Read"))
}

func TestFragmentPath(t *testing.T) {
	assert.Equal(t, "/html/home.html", FragmentPath("Home"))
	assert.Equal(t, "/html/my_books.html", FragmentPath("My Books"))
	assert.Equal(t, "/html/recommendations.html", FragmentPath("Recommendations"))
}

func TestFromPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"root is home", "/", Home},
		{"empty is home", "", Home},
		{"single word", "/recommendations", "Recommendations"},
		{"two words", "/my-books", "My Books"},
		{"genre path keeps the slash", "/genre/fantasy", "Genre/fantasy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromPath(tt.in))
		})
	}
}

// Round-trip holds for every supported single-space name; names with more
// than one space are fragile because only the first separator converts.
func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"Home", "Recommendations", "Diary", "My Books"} {
		assert.Equal(t, name, FromPath("/"+Segment(name)), "round trip for %q", name)
	}
}
