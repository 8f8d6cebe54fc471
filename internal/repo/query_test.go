package repo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/slugkeeper/internal/repo"
)

func TestBuildConflictQuery_Postgres(t *testing.T) {
	sql, args, err := repo.BuildConflictQuery(repo.Postgres, "subjects", "id", repo.ConflictQuery{
		SubjectType: "article",
		Candidate:   "apple",
		Separator:   "--",
		ExcludeID:   7,
	})

	require.NoError(t, err)
	assert.Equal(t,
		`SELECT slug FROM subjects WHERE subject_type = $1 AND (slug = $2 OR slug LIKE $3 ESCAPE '\') AND id <> $4 ORDER BY length(slug) DESC, slug DESC`,
		sql)
	assert.Equal(t, []any{"article", "apple", "apple--%", int64(7)}, args)
}

func TestBuildConflictQuery_ScopedSQLite(t *testing.T) {
	sql, args, err := repo.BuildConflictQuery(repo.SQLite, "slug_records", "subject_id", repo.ConflictQuery{
		SubjectType: "page",
		Candidate:   "a_b",
		Separator:   "--",
		Scoped:      true,
		Scope:       "site-1",
	})

	require.NoError(t, err)
	assert.Equal(t,
		`SELECT slug FROM slug_records WHERE subject_type = ? AND (slug = ? OR slug LIKE ? ESCAPE '\') AND scope = ? ORDER BY length(slug) DESC, slug DESC`,
		sql)
	assert.Equal(t, []any{"page", "a_b", `a\_b--%`, "site-1"}, args)
}
