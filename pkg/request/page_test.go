package request

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		query string
		want  Page
	}{
		{"", Page{Number: 1, PerPage: DefaultPerPage}},
		{"?page=3&per_page=10", Page{Number: 3, PerPage: 10}},
		{"?page=0&per_page=0", Page{Number: 1, PerPage: DefaultPerPage}},
		{"?page=-2&per_page=500", Page{Number: 1, PerPage: DefaultPerPage}},
		{"?page=x&per_page=y", Page{Number: 1, PerPage: DefaultPerPage}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/notifications"+tt.query, nil)
			assert.Equal(t, tt.want, ParsePage(r))
		})
	}
	assert.Equal(t, 20, Page{Number: 3, PerPage: 10}.Offset())
}

func TestQueryBool(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?a=true&b=1&c=yes&d=false", nil)
	assert.True(t, QueryBool(r, "a"))
	assert.True(t, QueryBool(r, "b"))
	assert.False(t, QueryBool(r, "c"))
	assert.False(t, QueryBool(r, "d"))
	assert.False(t, QueryBool(r, "missing"))
}
