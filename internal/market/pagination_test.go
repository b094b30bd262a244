package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	res := Paginate([]int{1, 2, 3}, 25, 2, 10)
	assert.Equal(t, 25, res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 10, res.Limit)
	assert.Equal(t, 3, res.TotalPages)
	assert.Len(t, res.Data, 3)
}

func TestPaginateDefaults(t *testing.T) {
	res := Paginate([]string{}, 0, 0, 0)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 10, res.Limit)
	assert.Zero(t, res.TotalPages)
}

func TestPaginateExactFit(t *testing.T) {
	res := Paginate([]int{1, 2}, 20, 1, 10)
	assert.Equal(t, 2, res.TotalPages)
}
