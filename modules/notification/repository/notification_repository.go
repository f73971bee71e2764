package repository

import (
	"context"
	"time"

	"tablepick/core/database"
	"tablepick/core/logger"
	"tablepick/core/params"
	"tablepick/modules/notification/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type NotificationRepository struct {
	db database.IDatabase
}

func NewNotificationRepository(db database.IDatabase) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification row.
func (r *NotificationRepository) Create(ctx context.Context, notif *entity.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, title, message, type, data, is_read, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if notif.ID == uuid.Nil {
		notif.ID = uuid.New()
	}
	err := r.db.ExecContext(ctx, query,
		notif.ID, notif.UserID, notif.Title, notif.Message, notif.Type,
		notif.Data, notif.IsRead, notif.CreatedAt, notif.UpdatedAt,
	)
	if err != nil {
		logger.Error("NotificationRepository:Create:Error:", err)
		return err
	}
	return nil
}

// GetByUserID returns the user's notifications, newest first.
func (r *NotificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	queryParams = queryParams.Normalize()

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID); err != nil {
		logger.Error("NotificationRepository:GetByUserID:Count:Error:", err)
		return nil, err
	}

	var items []entity.Notification
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, user_id, title, message, type, data, is_read, created_at, updated_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, queryParams.Limit, queryParams.Offset())
	if err != nil {
		logger.Error("NotificationRepository:GetByUserID:Error:", err)
		return nil, err
	}

	return &entity.PaginatedNotificationEntity{
		Items: items,
		Total: total,
		Page:  queryParams.Page,
		Limit: queryParams.Limit,
	}, nil
}

// MarkAsRead flags the given notifications as read.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	query := `
		UPDATE notifications SET is_read = TRUE, updated_at = $1
		WHERE user_id = $2 AND id = ANY($3)
	`
	err := r.db.ExecContext(ctx, query, time.Now(), userID, pq.Array(ids))
	if err != nil {
		logger.Error("NotificationRepository:MarkAsRead:Error:", err)
		return err
	}
	return nil
}

// MarkAllAsRead flags every unread notification as read.
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE notifications SET is_read = TRUE, updated_at = $1
		WHERE user_id = $2 AND is_read = FALSE
	`
	err := r.db.ExecContext(ctx, query, time.Now(), userID)
	if err != nil {
		logger.Error("NotificationRepository:MarkAllAsRead:Error:", err)
		return err
	}
	return nil
}

// CountUnread counts unread notifications for a user.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	err := r.db.GetContext(ctx, &count, query, userID)
	if err != nil {
		logger.Error("NotificationRepository:CountUnread:Error:", err)
		return 0, err
	}
	return count, nil
}
