// Package postgres implements the repository ports on pgx with squirrel
// built queries. Structured fields (question options, bookmarks) are stored
// as jsonb.
package postgres

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/TheVish04/CAprep/internal/repository"
)

// psql is the shared statement builder with Postgres placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const uniqueViolationCode = "23505"

// mapError converts driver errors to repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return repository.ErrDuplicate
	}
	return err
}

// repositoryNotFound wraps ErrNotFound with the entity name for log lines.
func repositoryNotFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, repository.ErrNotFound)
}

// normalizePage clamps paging parameters to sane bounds.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
