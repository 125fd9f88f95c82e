package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheVish04/CAprep/internal/core/domain"
)

// AnnouncementRepository persists announcements.
type AnnouncementRepository struct {
	pool *pgxpool.Pool
}

func NewAnnouncementRepository(pool *pgxpool.Pool) *AnnouncementRepository {
	return &AnnouncementRepository{pool: pool}
}

var announcementColumns = []string{
	"id", "title", "content", "created_by", "created_at", "updated_at",
}

func (r *AnnouncementRepository) Create(ctx context.Context, announcement *domain.Announcement) error {
	query, args, err := psql.Insert("announcements").
		Columns(announcementColumns...).
		Values(
			announcement.ID, announcement.Title, announcement.Content,
			announcement.CreatedBy, announcement.CreatedAt, announcement.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert announcement query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert announcement: %w", mapError(err))
	}
	return nil
}

func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*domain.Announcement, error) {
	query, args, err := psql.Select(announcementColumns...).
		From("announcements").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select announcement query: %w", err)
	}

	var a domain.Announcement
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.Title, &a.Content, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("select announcement: %w", mapError(err))
	}
	return &a, nil
}

func (r *AnnouncementRepository) Update(ctx context.Context, announcement *domain.Announcement) error {
	query, args, err := psql.Update("announcements").
		Set("title", announcement.Title).
		Set("content", announcement.Content).
		Set("updated_at", announcement.UpdatedAt).
		Where(sq.Eq{"id": announcement.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update announcement query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update announcement: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repositoryNotFound("announcement")
	}
	return nil
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("announcements").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete announcement query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repositoryNotFound("announcement")
	}
	return nil
}

func (r *AnnouncementRepository) List(ctx context.Context, page, pageSize int) ([]domain.Announcement, int, error) {
	page, pageSize = normalizePage(page, pageSize)

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("announcements").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count announcements query: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", mapError(err))
	}

	query, args, err := psql.Select(announcementColumns...).
		From("announcements").
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list announcements query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", mapError(err))
	}
	defer rows.Close()

	var announcements []domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan announcement: %w", err)
		}
		announcements = append(announcements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate announcements: %w", err)
	}

	return announcements, total, nil
}
