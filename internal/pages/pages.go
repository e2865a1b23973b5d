// Package pages holds the per-view controllers: the reading-list manager
// behind My Books and the parameterized genre and book pages. Controllers
// populate the shared fragment templates and bind their own controls; the
// router hands them navigation and they hand completion bookkeeping back.
package pages

import (
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/bookdenapp/bookden-shell/internal/rating"
)

// setStars paints a five-icon star row for value. The selection holds the
// five <i> elements in order.
func setStars(icons *goquery.Selection, value float64) {
	stars := rating.Stars(value)
	icons.Each(func(i int, s *goquery.Selection) {
		if i >= len(stars) {
			return
		}
		s.RemoveAttr("class")
		s.AddClass(stars[i].Class())
	})
}

func intText(v *int) *string {
	if v == nil {
		return nil
	}
	s := strconv.Itoa(*v)
	return &s
}

func floatText(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
