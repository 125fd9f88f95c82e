package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheVish04/CAprep/internal/core/domain"
)

// UserRepository persists accounts in the users table.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

var userColumns = []string{
	"id", "full_name", "email", "password_hash", "role",
	"bookmarked_questions", "bookmarked_resources",
	"reset_token_hash", "reset_token_expires_at",
	"created_at", "updated_at",
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	bookmarkedQuestions, err := json.Marshal(user.BookmarkedQuestions)
	if err != nil {
		return fmt.Errorf("encode bookmarked questions: %w", err)
	}
	bookmarkedResources, err := json.Marshal(user.BookmarkedResources)
	if err != nil {
		return fmt.Errorf("encode bookmarked resources: %w", err)
	}

	query, args, err := psql.Insert("users").
		Columns(userColumns...).
		Values(
			user.ID, user.FullName, strings.ToLower(user.Email), user.PasswordHash, user.Role,
			bookmarkedQuestions, bookmarkedResources,
			nullableString(user.ResetTokenHash), nullableTime(user.ResetTokenExpiresAt),
			user.CreatedAt, user.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert user: %w", mapError(err))
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, sq.Eq{"id": id})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, sq.Eq{"email": strings.ToLower(email)})
}

func (r *UserRepository) getBy(ctx context.Context, pred sq.Eq) (*domain.User, error) {
	query, args, err := psql.Select(userColumns...).
		From("users").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user query: %w", err)
	}

	row := r.pool.QueryRow(ctx, query, args...)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("select user: %w", mapError(err))
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	bookmarkedQuestions, err := json.Marshal(user.BookmarkedQuestions)
	if err != nil {
		return fmt.Errorf("encode bookmarked questions: %w", err)
	}
	bookmarkedResources, err := json.Marshal(user.BookmarkedResources)
	if err != nil {
		return fmt.Errorf("encode bookmarked resources: %w", err)
	}

	query, args, err := psql.Update("users").
		Set("full_name", user.FullName).
		Set("password_hash", user.PasswordHash).
		Set("role", user.Role).
		Set("bookmarked_questions", bookmarkedQuestions).
		Set("bookmarked_resources", bookmarkedResources).
		Set("updated_at", user.UpdatedAt).
		Where(sq.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repositoryNotFound("user")
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete user query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repositoryNotFound("user")
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, page, pageSize int) ([]domain.User, int, error) {
	page, pageSize = normalizePage(page, pageSize)

	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := psql.Select(userColumns...).
		From("users").
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list users query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", mapError(err))
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return users, total, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("users").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count users query: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", mapError(err))
	}
	return count, nil
}

func (r *UserRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("users").
		Where(sq.GtOrEq{"created_at": since}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count recent users query: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recent users: %w", mapError(err))
	}
	return count, nil
}

func (r *UserRepository) ListIDs(ctx context.Context) ([]string, error) {
	query, args, err := psql.Select("id").From("users").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list user ids query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", mapError(err))
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}
	return ids, nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	query, args, err := psql.Update("users").
		Set("reset_token_hash", tokenHash).
		Set("reset_token_expires_at", expiresAt).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set reset token query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set reset token: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repositoryNotFound("user")
	}
	return nil
}

func (r *UserRepository) ClearResetToken(ctx context.Context, userID string) error {
	query, args, err := psql.Update("users").
		Set("reset_token_hash", nil).
		Set("reset_token_expires_at", nil).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear reset token query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("clear reset token: %w", mapError(err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user                domain.User
		bookmarkedQuestions []byte
		bookmarkedResources []byte
		resetTokenHash      *string
		resetTokenExpiresAt *time.Time
	)

	if err := row.Scan(
		&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &user.Role,
		&bookmarkedQuestions, &bookmarkedResources,
		&resetTokenHash, &resetTokenExpiresAt,
		&user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(bookmarkedQuestions, &user.BookmarkedQuestions); err != nil {
		return nil, fmt.Errorf("decode bookmarked questions: %w", err)
	}
	if err := json.Unmarshal(bookmarkedResources, &user.BookmarkedResources); err != nil {
		return nil, fmt.Errorf("decode bookmarked resources: %w", err)
	}
	if resetTokenHash != nil {
		user.ResetTokenHash = *resetTokenHash
	}
	if resetTokenExpiresAt != nil {
		user.ResetTokenExpiresAt = *resetTokenExpiresAt
	}

	return &user, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
