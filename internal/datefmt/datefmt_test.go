package datefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"%Y-%m-%d", "2024-03-05"},
		{"%d.%m.%y", "05.03.24"},
		{"%e", " 5"},
		{"%-d/%-m", "5/3"},
		{"%_m", " 3"},
		{"%0e", "05"},
		{"%A, %B %-d", "Tuesday, March 5"},
		{"%a %b", "Tue Mar"},
		{"%^a %#B", "TUE MARCH"},
		{"%10A|", "   Tuesday|"},
		{"%5Y", "02024"},
		{"%j", "065"},
		{"%F", "2024-03-05"},
		{"%x", "05.03.2024"},
		{"100%%", "100%"},
		{"%H:%M", "%H:%M"},
		{"%Ey %Od", "24 05"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := Format(tt.pattern, "2024-03-05")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_Values(t *testing.T) {
	got, err := Format("%d %B %Y", "1999-12-31 23:59:00")
	require.NoError(t, err)
	assert.Equal(t, "31 December 1999", got)

	got, err = Format("%Y", "")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	_, err = Format("%Y", "yesterday")
	assert.ErrorIs(t, err, ErrBadDate)

	_, err = Format("%Y", "2024-02-30")
	assert.ErrorIs(t, err, ErrBadDate)
}
