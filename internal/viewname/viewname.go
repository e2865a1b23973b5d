// Package viewname maps between display view names ("My Books") and their
// URL and fragment-file forms, and title-cases free text.
package viewname

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Home is the view an empty path denotes.
const Home = "Home"

// titleToken matches a run of word characters plus any trailing
// non-space/non-hyphen characters, with optional trailing spaces. Each match
// gets its first character upcased and the remainder downcased, so
// "the hobbit" becomes "The Hobbit" and "don't stop" becomes "Don't Stop".
var titleToken = regexp.MustCompile(`[0-9A-Za-z]+[^\s-]* *`)

// TitleCase capitalizes the first letter of every token and lowercases the
// rest of it. Hyphens separate tokens, so "sci-fi" becomes "Sci-Fi".
func TitleCase(s string) string {
	return titleToken.ReplaceAllStringFunc(s, func(tok string) string {
		r, size := utf8.DecodeRuneInString(tok)
		return string(unicode.ToUpper(r)) + strings.ToLower(tok[size:])
	})
}

// Segment converts a view name to its URL path segment: lowercase with the
// first space replaced by a hyphen. Only the first space converts; this
// mirrors the shipped behavior for multi-word names and is pinned by tests
// rather than fixed.
func Segment(name string) string {
	return strings.Replace(strings.ToLower(name), " ", "-", 1)
}

// FragmentPath converts a view name to the path of its HTML fragment:
// lowercase with the first space replaced by an underscore. A separate
// transform from Segment, not a shared one: the display URL uses hyphens
// while the fragment files on the server use underscores.
func FragmentPath(name string) string {
	return "/html/" + strings.Replace(strings.ToLower(name), " ", "_", 1) + ".html"
}

// FromPath converts a URL path back to a view name: the first hyphen becomes
// a space, the leading slash is stripped, and the remainder is title-cased.
// An empty remainder denotes the Home view.
func FromPath(path string) string {
	name := strings.Replace(path, "-", " ", 1)
	name = strings.TrimPrefix(name, "/")
	name = TitleCase(name)
	if name == "" {
		return Home
	}
	return name
}
