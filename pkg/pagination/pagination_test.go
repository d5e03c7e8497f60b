package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Page: 1, Limit: 20}},
		{"explicit", "page=3&limit=50", Params{Page: 3, Limit: 50}},
		{"zero page falls back", "page=0", Params{Page: 1, Limit: 20}},
		{"negative limit falls back", "limit=-5", Params{Page: 1, Limit: 20}},
		{"garbage falls back", "page=abc&limit=xyz", Params{Page: 1, Limit: 20}},
		{"limit capped", "limit=5000", Params{Page: 1, Limit: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/?"+tt.query, nil)
			assert.Equal(t, tt.want, Parse(c))
		})
	}
}

func TestParamsOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, Params{Page: 3, Limit: 20}.Offset())
}
