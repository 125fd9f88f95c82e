package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheVish04/CAprep/internal/core/domain"
)

// ResourceRepository persists study material metadata. File contents live
// in object storage; only the object key is stored here.
type ResourceRepository struct {
	pool *pgxpool.Pool
}

func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

var resourceColumns = []string{
	"id", "title", "subject", "exam_stage", "year", "month", "paper_no",
	"object_key", "file_size", "uploaded_by", "created_at", "updated_at",
}

func (r *ResourceRepository) Create(ctx context.Context, resource *domain.Resource) error {
	query, args, err := psql.Insert("resources").
		Columns(resourceColumns...).
		Values(
			resource.ID, resource.Title, resource.Subject, resource.ExamStage,
			resource.Year, resource.Month, resource.PaperNo,
			resource.ObjectKey, resource.FileSize, resource.UploadedBy,
			resource.CreatedAt, resource.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert resource query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert resource: %w", mapError(err))
	}
	return nil
}

func (r *ResourceRepository) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	query, args, err := psql.Select(resourceColumns...).
		From("resources").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select resource query: %w", err)
	}

	resource, err := scanResource(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("select resource: %w", mapError(err))
	}
	return resource, nil
}

func (r *ResourceRepository) Update(ctx context.Context, resource *domain.Resource) error {
	query, args, err := psql.Update("resources").
		Set("title", resource.Title).
		Set("subject", resource.Subject).
		Set("exam_stage", resource.ExamStage).
		Set("year", resource.Year).
		Set("month", resource.Month).
		Set("paper_no", resource.PaperNo).
		Set("updated_at", resource.UpdatedAt).
		Where(sq.Eq{"id": resource.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update resource query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update resource: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repositoryNotFound("resource")
	}
	return nil
}

func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("resources").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete resource query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete resource: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repositoryNotFound("resource")
	}
	return nil
}

func (r *ResourceRepository) List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, int, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	where := sq.And{}
	if filter.Subject != "" {
		where = append(where, sq.Eq{"subject": filter.Subject})
	}
	if filter.ExamStage != "" {
		where = append(where, sq.Eq{"exam_stage": filter.ExamStage})
	}
	if filter.Year != "" {
		where = append(where, sq.Eq{"year": filter.Year})
	}
	if filter.Month != "" {
		where = append(where, sq.Eq{"month": filter.Month})
	}
	if filter.PaperNo != "" {
		where = append(where, sq.Eq{"paper_no": filter.PaperNo})
	}
	if filter.Search != "" {
		where = append(where, sq.ILike{"title": "%" + filter.Search + "%"})
	}
	if filter.Bookmarked != nil {
		where = append(where, sq.Eq{"id": filter.Bookmarked})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").
		From("resources").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count resources query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count resources: %w", mapError(err))
	}

	query, args, err := psql.Select(resourceColumns...).
		From("resources").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list resources query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", mapError(err))
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, *resource)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate resources: %w", err)
	}

	return resources, total, nil
}

func (r *ResourceRepository) Count(ctx context.Context) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("resources").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count resources query: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count resources: %w", mapError(err))
	}
	return count, nil
}

func scanResource(row rowScanner) (*domain.Resource, error) {
	var resource domain.Resource
	if err := row.Scan(
		&resource.ID, &resource.Title, &resource.Subject, &resource.ExamStage,
		&resource.Year, &resource.Month, &resource.PaperNo,
		&resource.ObjectKey, &resource.FileSize, &resource.UploadedBy,
		&resource.CreatedAt, &resource.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &resource, nil
}
