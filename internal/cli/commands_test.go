package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func dbPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "slugkeeper.db")
}

// execute runs slugctl with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	require.NoError(t, err, "slugctl %v", args)
	return out
}

func TestMigrate_Golden(t *testing.T) {
	db := dbPath(t)
	g := newGoldie(t)

	g.Assert(t, "migrate_fresh", []byte(mustExecute(t, "--db", db, "migrate")))
	g.Assert(t, "migrate_noop", []byte(mustExecute(t, "--db", db, "migrate")))
}

func TestLifecycle_Golden(t *testing.T) {
	db := dbPath(t)
	g := newGoldie(t)

	g.Assert(t, "create", []byte(mustExecute(t, "--db", db, "create", "article", "Apple")))
	g.Assert(t, "create_sequenced", []byte(mustExecute(t, "--db", db, "create", "article", "Apple")))
	g.Assert(t, "assign", []byte(mustExecute(t, "--db", db, "assign", "article", "1", "Pear")))
	g.Assert(t, "resolve_history", []byte(mustExecute(t, "--db", db, "resolve", "article", "apple")))
	g.Assert(t, "resolve_history_json", []byte(mustExecute(t, "--db", db, "--format", "json", "resolve", "article", "apple")))
	g.Assert(t, "history", []byte(mustExecute(t, "--db", db, "history", "article", "1")))
	g.Assert(t, "delete", []byte(mustExecute(t, "--db", db, "delete", "article", "1")))
	g.Assert(t, "delete_json", []byte(mustExecute(t, "--db", db, "--format", "json", "delete", "article", "2")))
}

func TestCreate_FirstFreeCandidate(t *testing.T) {
	db := dbPath(t)
	mustExecute(t, "--db", db, "create", "article", "Apple")

	out := mustExecute(t, "--db", db, "create", "article", "Apple", "Apple Pie")
	assert.Equal(t, "article 2 apple-pie\n", out)
}

func TestResolve_PrimaryKey(t *testing.T) {
	db := dbPath(t)
	mustExecute(t, "--db", db, "create", "article", "Apple")

	out := mustExecute(t, "--db", db, "resolve", "article", "1")
	assert.Equal(t, "article 1 current=apple tier=primary_key stale=true\n", out)
}

func TestResolve_NotFound(t *testing.T) {
	db := dbPath(t)

	out, err := execute(t, "--db", db, "--format", "json", "resolve", "article", "nothing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `"code":"not_found"`)
}

func TestCommands_UnknownType(t *testing.T) {
	db := dbPath(t)

	_, err := execute(t, "--db", db, "create", "widget", "Apple")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCommands_InvalidID(t *testing.T) {
	db := dbPath(t)

	_, err := execute(t, "--db", db, "history", "article", "abc")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid id "abc"`)
}

func TestCommands_TypesFile(t *testing.T) {
	db := dbPath(t)
	types := filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(types, []byte(`
types:
  page:
    history: true
    scoped: true
    reserved: [Admin]
`), 0o600))

	assert.Equal(t, "page 1 about\n",
		mustExecute(t, "--db", db, "--types", types, "--scope", "site-a", "create", "page", "About"))
	assert.Equal(t, "page 2 about\n",
		mustExecute(t, "--db", db, "--types", types, "--scope", "site-b", "create", "page", "About"))

	out := mustExecute(t, "--db", db, "--types", types, "--scope", "site-b", "resolve", "page", "about")
	assert.Equal(t, "page 2 current=about tier=current stale=false\n", out)

	_, err := execute(t, "--db", db, "--types", types, "--scope", "site-a", "create", "page", "Admin")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCommands_BadTypesFile(t *testing.T) {
	_, err := execute(t, "--db", dbPath(t), "--types", filepath.Join(t.TempDir(), "missing.yaml"), "create", "article", "x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
