package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheVish04/CAprep/internal/core/domain"
)

// AuditRepository persists the admin audit trail. Entries are append only.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

var auditColumns = []string{
	"id", "actor_id", "action", "target_id", "detail", "ip", "created_at",
}

func (r *AuditRepository) Record(ctx context.Context, entry *domain.AuditEntry) error {
	query, args, err := psql.Insert("audit_log").
		Columns(auditColumns...).
		Values(
			entry.ID, entry.ActorID, entry.Action, entry.TargetID,
			entry.Detail, entry.IP, entry.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", mapError(err))
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	where := sq.And{}
	if filter.ActorID != "" {
		where = append(where, sq.Eq{"actor_id": filter.ActorID})
	}
	if filter.Action != "" {
		where = append(where, sq.Eq{"action": filter.Action})
	}
	if !filter.Since.IsZero() {
		where = append(where, sq.GtOrEq{"created_at": filter.Since})
	}
	if !filter.Until.IsZero() {
		where = append(where, sq.LtOrEq{"created_at": filter.Until})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").
		From("audit_log").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count audit query: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", mapError(err))
	}

	query, args, err := psql.Select(auditColumns...).
		From("audit_log").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list audit query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", mapError(err))
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.TargetID, &e.Detail, &e.IP, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, total, nil
}
