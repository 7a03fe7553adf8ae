package memorial

import "unicode/utf8"

// Pagination defaults used by the render pass.
const (
	DefaultMaxPageWeight      = 2400
	DefaultMaxCommentsPerPage = 2

	// Messages at or below this many characters count at half weight.
	shortMessageChars = 120
)

// Weight is the pagination cost of a comment: its message length in
// characters, halved for short messages.
func Weight(c Comment) float64 {
	n := utf8.RuneCountInString(c.Message)
	if n > shortMessageChars {
		return float64(n)
	}
	return float64(n) * 0.5
}

// PageWeight sums the weights of the comments on p.
func PageWeight(p Page) float64 {
	var total float64
	for _, c := range p {
		total += Weight(c)
	}
	return total
}

// Paginate groups comments into pages in a single greedy pass. A page is
// closed before a comment that would push it over maxWeight or past
// maxPerPage comments. A comment heavier than maxWeight still gets a page of
// its own; nothing is dropped or reordered.
func Paginate(comments []Comment, maxWeight float64, maxPerPage int) []Page {
	var pages []Page
	var current Page
	var weight float64

	for _, c := range comments {
		w := Weight(c)
		if len(current) > 0 && (weight+w > maxWeight || len(current) >= maxPerPage) {
			pages = append(pages, current)
			current = nil
			weight = 0
		}
		current = append(current, c)
		weight += w
	}
	if len(current) > 0 {
		pages = append(pages, current)
	}
	return pages
}
