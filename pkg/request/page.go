package request

import (
	"net/http"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page is a 1-based page window read from the query string
type Page struct {
	Number  int
	PerPage int
}

// ParsePage reads page and per_page. Missing or out-of-range values fall
// back to the first page and DefaultPerPage.
func ParsePage(r *http.Request) Page {
	q := r.URL.Query()
	p := Page{Number: 1, PerPage: DefaultPerPage}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && n > 0 && n <= MaxPerPage {
		p.PerPage = n
	}
	return p
}

// Offset is the number of rows before the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// QueryBool reports whether the query parameter is "true" or "1".
func QueryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
