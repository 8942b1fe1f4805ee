package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantOut  string
		wantExit int
	}{
		{
			name:     "valid",
			args:     []string{"a*c", "[!abc]"},
			wantOut:  "a*c\t(?s)^a.*c$\n[!abc]\t(?s)^[^abc]$\n",
			wantExit: ExitSuccess,
		},
		{
			name:     "invalid",
			args:     []string{"a?c", `abc\`},
			wantOut:  "a?c\t(?s)^a.c$\nabc\\\tinvalid\n",
			wantExit: ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewMaskCommand(&RootOptions{Format: "text"})
			out, _, err := execute(cmd, tt.args...)

			assert.Equal(t, tt.wantOut, out)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
		})
	}
}

func TestMaskJSON(t *testing.T) {
	cmd := NewMaskCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, "a.b", `*\`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeInvalidMask)

	var resp struct {
		Status string       `json:"status"`
		Data   []MaskResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []MaskResult{
		{Mask: "a.b", Regex: `(?s)^a\.b$`, Valid: true},
		{Mask: `*\`},
	}, resp.Data)
}

func TestMaskRequiresArgs(t *testing.T) {
	cmd := NewMaskCommand(&RootOptions{Format: "text"})
	_, _, err := execute(cmd)
	require.Error(t, err)
}
