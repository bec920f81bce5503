package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Params{Page: 1, PageSize: 20}, Params{}.Normalize())
	assert.Equal(t, Params{Page: 3, PageSize: 100}, Params{Page: 3, PageSize: 500}.Normalize())
	assert.Equal(t, Params{Page: 1, PageSize: 5}, Params{Page: -2, PageSize: 5}.Normalize())
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{}.Offset())
	assert.Equal(t, 40, Params{Page: 3, PageSize: 20}.Offset())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestNewPage(t *testing.T) {
	page := NewPage[string](nil, 45, Params{Page: 2, PageSize: 20})
	assert.NotNil(t, page.Items)
	assert.Equal(t, int64(45), page.TotalCount)
	assert.Equal(t, 2, page.PageNumber)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 3, page.TotalPages)
}
