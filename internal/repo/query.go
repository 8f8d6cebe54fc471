package repo

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// ConflictQuery selects the slugs that collide with Candidate: the
// candidate itself or Candidate+Separator followed by anything. Callers
// narrow the LIKE matches down to digit suffixes with slug.Matches, since
// LIKE cannot express "digits only" portably.
type ConflictQuery struct {
	SubjectType string
	Candidate   string
	Separator   string

	// Scoped restricts the search to rows whose scope equals Scope.
	Scoped bool
	Scope  string

	// ExcludeID omits rows owned by this subject. Zero excludes nothing.
	ExcludeID int64
}

// Dialect placeholder builders shared by both backends.
var (
	Postgres = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	SQLite   = sq.StatementBuilder.PlaceholderFormat(sq.Question)
)

// BuildConflictQuery renders q against table, whose owning-subject column
// is idColumn. Both the subjects table and slug_records share the
// subject_type, scope, and slug columns.
func BuildConflictQuery(b sq.StatementBuilderType, table, idColumn string, q ConflictQuery) (string, []any, error) {
	sel := b.Select("slug").
		From(table).
		Where(sq.Eq{"subject_type": q.SubjectType}).
		Where(sq.Or{
			sq.Eq{"slug": q.Candidate},
			sq.Expr(`slug LIKE ? ESCAPE '\'`, escapeLike(q.Candidate+q.Separator)+"%"),
		}).
		OrderBy("length(slug) DESC", "slug DESC")

	if q.Scoped {
		sel = sel.Where(sq.Eq{"scope": q.Scope})
	}
	if q.ExcludeID != 0 {
		sel = sel.Where(sq.NotEq{idColumn: q.ExcludeID})
	}
	return sel.ToSql()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
