package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catsite/internal/ir"
	"github.com/roach88/catsite/internal/queryir"
)

func TestSite(t *testing.T) {
	s := Site(t, map[string]string{"_page": "2"})
	assert.Equal(t, 3, s.PerPage)
	require.Len(t, s.Tables, 3)
	assert.True(t, queryir.Validate(s.Schema(), s.PrimaryKey).Valid)

	v, ok := s.Get("_page")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestNewStore(t *testing.T) {
	st := NewStore(t)
	rows, err := st.Query(context.Background(), `SELECT COUNT(*) AS n FROM catsite_cats`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(5), ir.ToInt(rows[0]["n"]))
}
