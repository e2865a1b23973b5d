package devserver

import (
	"fmt"
	"time"

	"github.com/bookdenapp/bookden-shell/internal/id"
)

// Seed fills the store with a small browsable catalog and two accounts:
//
//	demo / bookworm-demo
//	casey / bookworm-casey
//
// demo has books spread across the permanent lists and a review on one of
// them, so every page has something to show straight after sign-in.
func Seed(s *Store) error {
	genres := map[string]string{
		"Science Fiction": "Stories built on imagined futures, technologies and worlds.\nFrom hard engineering puzzles to sweeping space opera, the genre asks what people do when the rules change.",
		"Fantasy":         "Worlds where magic is part of the furniture.\nExpect invented histories, strange creatures and quests that take several hundred pages longer than planned.",
		"Mystery":         "Somebody did it. The fun is working out who before the detective does.",
		"Classics":        "The books that keep getting reprinted because they keep being read.",
		"Horror":          "Fiction that sets out to unsettle.\nGhosts, monsters and the far more frightening things people do to each other.",
	}
	for name, about := range genres {
		s.genres = append(s.genres, &genre{id: id.MustGenerate(id.PrefixGenre), name: name, about: about})
	}

	authors := []struct {
		key   string
		name  string
		about string
	}{
		{"herbert", "Frank Herbert", "American writer best known for the Dune saga.\nWorked as a journalist and ecological consultant before turning to fiction full time."},
		{"leguin", "Ursula K. Le Guin", "Celebrated for the Earthsea cycle and the Hainish novels.\nHer work treats anthropology and politics as seriously as any starship."},
		{"christie", "Agatha Christie", "The best-selling novelist of all time.\nCreated Hercule Poirot and Miss Marple across sixty-six detective novels."},
		{"jackson", "Shirley Jackson", "Master of quiet dread.\nHer short story The Lottery caused the largest volume of mail The New Yorker had ever received."},
		{"simmons", "Dan Simmons", "Writes across science fiction, horror and historical fiction, often in the same book."},
	}
	authorIDs := make(map[string]string, len(authors))
	for _, a := range authors {
		aid := id.MustGenerate(id.PrefixAuthor)
		authorIDs[a.key] = aid
		s.authors[aid] = &author{id: aid, name: a.name, about: a.about, followers: make(map[string]bool)}
	}

	books := []struct {
		key      string
		title    string
		author   string
		synopsis string
		link     string
		released string
		isbn     string
		genres   []string
	}{
		{"dune", "Dune", "herbert",
			"Paul Atreides arrives on Arrakis, the desert planet that is the universe's only source of the spice melange.\nWhen his family is betrayed, he is driven into the deep desert and towards a destiny he never asked for.",
			"https://example.com/buy/dune", "01/08/1965", "9780441013593",
			[]string{"Science Fiction", "Classics"}},
		{"left-hand", "The Left Hand of Darkness", "leguin",
			"An envoy from a league of worlds arrives alone on Gethen, a planet whose people have no fixed sex.\nTo win the planet over he must first learn to trust one of its exiled politicians, across a glacier in winter.",
			"https://example.com/buy/left-hand", "01/03/1969", "9780441478125",
			[]string{"Science Fiction", "Classics"}},
		{"wizard", "A Wizard of Earthsea", "leguin",
			"The boy Ged has a talent for magic and the arrogance to match.\nA duel at the school of wizardry looses a shadow into the world, and it hunts him from island to island.",
			"https://example.com/buy/wizard", "01/11/1968", "9780547773742",
			[]string{"Fantasy", "Classics"}},
		{"orient", "Murder on the Orient Express", "christie",
			"A snowdrift stops the most famous train in Europe, and in the morning one passenger is dead behind a locked door.\nHercule Poirot happens to be aboard.",
			"https://example.com/buy/orient", "01/01/1934", "9780062693662",
			[]string{"Mystery", "Classics"}},
		{"ackroyd", "The Murder of Roger Ackroyd", "christie",
			"A village doctor narrates the investigation into his neighbour's murder.\nThe solution broke the detective story's unwritten rules so thoroughly that readers argued about fairness for decades.",
			"https://example.com/buy/ackroyd", "01/06/1926", "9780062073563",
			[]string{"Mystery"}},
		{"hill-house", "The Haunting of Hill House", "jackson",
			"Four people spend a summer in a house with a reputation.\nThe house notices one of them.",
			"https://example.com/buy/hill-house", "16/10/1959", "9780143039983",
			[]string{"Horror", "Classics"}},
		{"hyperion", "Hyperion", "simmons",
			"Seven pilgrims travel to the Time Tombs on the eve of interstellar war, each carrying a story and a reason to meet the creature called the Shrike.\nThe stories are the novel.",
			"https://example.com/buy/hyperion", "26/05/1989", "9780553283686",
			[]string{"Science Fiction", "Horror"}},
		{"messiah", "Dune Messiah", "herbert",
			"Twelve years into Paul's reign, the jihad fought in his name has killed billions.\nConspirators inside his own court offer him a way out, at a price.",
			"https://example.com/buy/messiah", "01/10/1969", "9780441172696",
			[]string{"Science Fiction"}},
	}
	bookIDs := make(map[string]string, len(books))
	for _, b := range books {
		bid := id.MustGenerate(id.PrefixBook)
		bookIDs[b.key] = bid
		s.books[bid] = &book{
			id:           bid,
			title:        b.title,
			authorID:     authorIDs[b.author],
			cover:        "/covers/" + bid + ".svg",
			synopsis:     b.synopsis,
			purchaseLink: b.link,
			releaseDate:  b.released,
			isbn:         b.isbn,
			genres:       b.genres,
		}
	}

	demoID, err := s.CreateUser("Demo", "Reader", "demo", "bookworm-demo")
	if err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	caseyID, err := s.CreateUser("Casey", "Marlow", "casey", "bookworm-casey")
	if err != nil {
		return fmt.Errorf("seed casey user: %w", err)
	}

	s.authors[authorIDs["leguin"]].followers[caseyID] = true

	now := time.Now()
	addAt := func(userID, listName, bookKey string, daysAgo int) {
		l := s.findUserListLocked(userID, listName)
		l.entries = append(l.entries, listEntry{
			bookID: bookIDs[bookKey],
			added:  now.AddDate(0, 0, -daysAgo),
		})
	}
	addAt(demoID, "Currently Reading", "hyperion", 3)
	addAt(demoID, "Currently Reading", "wizard", 12)
	addAt(demoID, "Want to Read", "left-hand", 5)
	addAt(demoID, "Want to Read", "hill-house", 1)
	addAt(demoID, "Have Read", "dune", 40)
	addAt(demoID, "Have Read", "orient", 90)
	addAt(caseyID, "Have Read", "dune", 20)
	addAt(caseyID, "Have Read", "left-hand", 15)
	addAt(caseyID, "Currently Reading", "messiah", 2)

	intp := func(v int) *int { return &v }
	strp := func(v string) *string { return &v }
	addReview := func(userID, bookKey string, overall int, plot, character *int, summary, body *string, daysAgo int) {
		s.reviews = append(s.reviews, &review{
			id:        id.MustGenerate(id.PrefixReview),
			bookID:    bookIDs[bookKey],
			userID:    userID,
			overall:   overall,
			plot:      plot,
			character: character,
			summary:   summary,
			body:      body,
			added:     now.AddDate(0, 0, -daysAgo),
		})
	}
	addReview(demoID, "dune", 5, intp(5), intp(4),
		strp("The desert is the best character"),
		strp("Slow for the first hundred pages and then impossible to put down.\nThe ecology of Arrakis does more work than most casts of characters manage."), 38)
	addReview(demoID, "orient", 4, nil, intp(5),
		strp("The famous solution earns its fame"), nil, 85)
	addReview(caseyID, "dune", 4, intp(4), intp(3), nil,
		strp("Grand and strange. The appendices are half the fun."), 18)
	addReview(caseyID, "left-hand", 5, intp(4), intp(5),
		strp("Winter on Gethen stays with you"),
		strp("The trek across the ice is one of the great sustained passages in the genre."), 14)
	addReview(caseyID, "hyperion", 3, intp(4), intp(2),
		strp("Six brilliant stories, one abrupt ending"), nil, 7)
	addReview(caseyID, "hill-house", 5, nil, nil, nil,
		strp("No journeys end here, and whatever walks there, walks alone."), 30)

	return nil
}
