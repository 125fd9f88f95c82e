package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheVish04/CAprep/internal/core/domain"
)

// NotificationRepository persists per-user notifications.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

var notificationColumns = []string{
	"id", "user_id", "title", "message", "read", "created_at",
}

func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	query, args, err := psql.Insert("notifications").
		Columns(notificationColumns...).
		Values(
			notification.ID, notification.UserID, notification.Title,
			notification.Message, notification.Read, notification.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert notification query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert notification: %w", mapError(err))
	}
	return nil
}

// CreateBatch inserts notifications for many users in one round trip.
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range notifications {
		query, args, err := psql.Insert("notifications").
			Columns(notificationColumns...).
			Values(n.ID, n.UserID, n.Title, n.Message, n.Read, n.CreatedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("build batch insert query: %w", err)
		}
		batch.Queue(query, args...)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range notifications {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert notifications: %w", mapError(err))
		}
	}
	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, int, error) {
	page, pageSize = normalizePage(page, pageSize)

	where := sq.And{sq.Eq{"user_id": userID}}
	if unreadOnly {
		where = append(where, sq.Eq{"read": false})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").
		From("notifications").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count notifications query: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", mapError(err))
	}

	query, args, err := psql.Select(notificationColumns...).
		From("notifications").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list notifications query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", mapError(err))
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, total, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("notifications").
		Where(sq.Eq{"user_id": userID, "read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count unread query: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", mapError(err))
	}
	return count, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	query, args, err := psql.Update("notifications").
		Set("read", true).
		Where(sq.Eq{"id": notificationID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark read query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repositoryNotFound("notification")
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	query, args, err := psql.Update("notifications").
		Set("read", true).
		Where(sq.Eq{"user_id": userID, "read": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark all read query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("mark all notifications read: %w", mapError(err))
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, userID, notificationID string) error {
	query, args, err := psql.Delete("notifications").
		Where(sq.Eq{"id": notificationID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete notification query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete notification: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repositoryNotFound("notification")
	}
	return nil
}
