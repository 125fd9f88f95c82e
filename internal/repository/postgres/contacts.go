package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheVish04/CAprep/internal/core/domain"
)

// ContactRepository persists contact form submissions.
type ContactRepository struct {
	pool *pgxpool.Pool
}

func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

var contactColumns = []string{
	"id", "name", "email", "subject", "message", "created_at",
}

func (r *ContactRepository) Create(ctx context.Context, submission *domain.ContactSubmission) error {
	query, args, err := psql.Insert("contact_submissions").
		Columns(contactColumns...).
		Values(
			submission.ID, submission.Name, submission.Email,
			submission.Subject, submission.Message, submission.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert contact query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert contact submission: %w", mapError(err))
	}
	return nil
}

func (r *ContactRepository) List(ctx context.Context, page, pageSize int) ([]domain.ContactSubmission, int, error) {
	page, pageSize = normalizePage(page, pageSize)

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("contact_submissions").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count contacts query: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contact submissions: %w", mapError(err))
	}

	query, args, err := psql.Select(contactColumns...).
		From("contact_submissions").
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list contacts query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contact submissions: %w", mapError(err))
	}
	defer rows.Close()

	var submissions []domain.ContactSubmission
	for rows.Next() {
		var s domain.ContactSubmission
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Subject, &s.Message, &s.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan contact submission: %w", err)
		}
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate contact submissions: %w", err)
	}

	return submissions, total, nil
}
