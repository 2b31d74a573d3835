// Package search ranks books against a free-text query with typo-tolerant
// matching over title, author, genre and ISBN.
//
// Scoring policy:
//
//   - Query and field text are lower-cased with whitespace collapsed.
//   - A field scores the smallest edit distance between the query and any
//     substring of the field, divided by the query length. 0 means the query
//     appears verbatim in the field; scores are clamped to 1.
//   - A book scores the minimum over its fields (best field wins).
//   - Books scoring above the threshold are dropped.
//   - Results are ordered by ascending score, ties by ascending ID.
//
// An empty query or an empty candidate set yields an empty result.
package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/model"
)

// DefaultThreshold admits roughly one typo per three query characters.
const DefaultThreshold = 0.4

const (
	FieldTitle  = "title"
	FieldAuthor = "author"
	FieldGenre  = "genre"
	FieldISBN   = "ISBN"
)

type Match struct {
	Book  model.Book
	Score float64
	Field string
}

type Ranker struct {
	threshold float64
}

type Option func(*Ranker)

// WithThreshold overrides DefaultThreshold. Values outside [0, 1] are ignored.
func WithThreshold(t float64) Option {
	return func(r *Ranker) {
		if t >= 0 && t <= 1 {
			r.threshold = t
		}
	}
}

func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Ranker) Threshold() float64 {
	return r.threshold
}

func (r *Ranker) Rank(query string, books []model.Book) []Match {
	q := normalize(query)
	if q == "" || len(books) == 0 {
		return []Match{}
	}
	qr, isbnQ := []rune(q), isbnQuery(q)

	matches := make([]Match, 0, len(books))
	for _, b := range books {
		score, field := scoreBook(qr, isbnQ, b)
		if score > r.threshold {
			continue
		}
		matches = append(matches, Match{Book: b, Score: score, Field: field})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score < matches[j].Score
		}
		return matches[i].Book.ID.String() < matches[j].Book.ID.String()
	})

	return matches
}

// Books strips scores from a ranked result.
func Books(matches []Match) []model.Book {
	books := make([]model.Book, 0, len(matches))
	for _, m := range matches {
		books = append(books, m.Book)
	}
	return books
}

// Distance is the normalized score of query against a single text.
func Distance(query, text string) float64 {
	q := normalize(query)
	if q == "" {
		return 1
	}
	return fieldScore([]rune(q), normalize(text))
}

func scoreBook(q []rune, isbnQ []rune, b model.Book) (float64, string) {
	fields := [...]struct {
		name  string
		query []rune
		text  string
	}{
		{FieldTitle, q, b.Title},
		{FieldAuthor, q, b.Author},
		{FieldGenre, q, b.Genre},
		{FieldISBN, isbnQ, b.ISBN},
	}

	best, bestField := 1.0, ""
	for _, f := range fields {
		if len(f.query) == 0 {
			continue
		}
		s := fieldScore(f.query, normalize(f.text))
		if bestField == "" || s < best {
			best, bestField = s, f.name
		}
		if best == 0 {
			break
		}
	}
	return best, bestField
}

// isbnQuery drops the separators ISBNs are usually written with; stored
// ISBNs never contain them.
func isbnQuery(q string) []rune {
	return []rune(strings.NewReplacer("-", "", " ", "").Replace(q))
}

func fieldScore(q []rune, text string) float64 {
	d := substringDistance(q, text)
	s := float64(d) / float64(len(q))
	if s > 1 {
		s = 1
	}
	return s
}

// substringDistance is Sellers' variant of Levenshtein: the match may start
// and end anywhere in text at no cost.
func substringDistance(q []rune, text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return len(q)
	}

	prev := make([]int, n+1)
	cur := make([]int, n+1)

	for i := 1; i <= len(q); i++ {
		cur[0] = i
		j := 1
		for _, tr := range text {
			cost := 1
			if q[i-1] == tr {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			j++
		}
		prev, cur = cur, prev
	}

	best := prev[0]
	for _, d := range prev[1:] {
		if d < best {
			best = d
		}
	}
	return best
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
