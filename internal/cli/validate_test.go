package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brokenSite = `catsite: tables: {
	cats: fields: {
		id:    1
		name:  1
		owner: "people"
	}
	dogs: fields: {}
}
`

func TestValidateValidSite(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, "--config", writeSite(t))

	require.NoError(t, err)
	assert.Contains(t, out, "✓ Site valid (3 tables)")
}

func TestValidateValidSiteJSON(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, "--config", writeSite(t))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Tables)
}

func TestValidateProblems(t *testing.T) {
	path := writeFile(t, t.TempDir(), "site.cue", brokenSite)

	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, "--config", path)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 problem(s)")
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, `E101: table "cats": field "owner" references unknown table "people"`)
	assert.Contains(t, out, `E101: table "dogs" has no fields`)
}

func TestValidateProblemsJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "site.cue", brokenSite)

	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, "--config", path)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Len(t, resp.Data.Problems, 2)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSchemaProblem, resp.Error.Code)
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		wantCode string
	}{
		{
			name:     "missing",
			path:     func(t *testing.T) string { return "/nonexistent/site.cue" },
			wantCode: ErrCodeNotFound,
		},
		{
			name: "schema_violation",
			path: func(t *testing.T) string {
				return writeFile(t, t.TempDir(), "site.cue", "catsite: per_page: -1\n")
			},
			wantCode: ErrCodeConfigInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewValidateCommand(&RootOptions{Format: "text"})
			out, _, err := execute(cmd, "--config", tt.path(t))

			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantCode)
			assert.Contains(t, out, "Error ["+tt.wantCode+"]")
		})
	}
}
