package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes that signal "object already exists" during DDL, per
// SPEC_FULL.md §6: unique_violation and duplicate_object.
const (
	codeUniqueViolation = "23505"
	codeDuplicateObject = "42710"
)

func isDuplicateObjectError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeUniqueViolation || pgErr.Code == codeDuplicateObject
}
