package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catsite/internal/store"
	"github.com/roach88/catsite/internal/testutil"
)

// writeFile writes content to name under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeSite writes the fixture site configuration to a temp dir.
func writeSite(t *testing.T) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "site.cue", testutil.SiteSource)
}

// seedDatabase creates a SQLite database holding the fixture rows and
// returns its path.
func seedDatabase(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cats.db")

	st, err := store.Open(ctx, store.Config{Driver: "sqlite3", DSN: path})
	require.NoError(t, err)
	require.NoError(t, testutil.Seed(ctx, st))
	require.NoError(t, st.Close())
	return path
}

// execute runs cmd with args and returns its stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
