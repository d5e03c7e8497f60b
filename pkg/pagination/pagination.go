// Package pagination parses the page/limit query parameters shared by the
// list endpoints.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Listings default to 20 rows and cap at 100 so a dashboard cannot page a
// whole table in one request.
const (
	defaultLimit = 20
	maxLimit     = 100
)

// Params is a validated, 1-based page/limit pair.
type Params struct {
	Page  int
	Limit int
}

// Parse reads "page" and "limit" from the query string. Anything missing,
// malformed or out of range falls back to the defaults.
func Parse(c *gin.Context) Params {
	p := Params{Page: 1, Limit: defaultLimit}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Offset converts the pair into a row offset.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}
