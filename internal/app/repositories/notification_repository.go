package repositories

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

var notificationColumns = []string{
	"id", "recipient_id", "title", "message", "notification_type",
	"is_read", "object_type", "object_id", "created_at",
}

type NotificationRepository struct {
	baseRepository
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{baseRepository{db: db}}
}

func notificationTargets(n *models.Notification) []any {
	return []any{&n.ID, &n.RecipientID, &n.Title, &n.Message, &n.NotificationType, &n.IsRead, &n.ObjectType, &n.ObjectID, &n.CreatedAt}
}

// CreateMany inserts one notification per element in a single statement and
// fills in their ids.
func (r *NotificationRepository) CreateMany(ctx context.Context, items []*models.Notification) error {
	if len(items) == 0 {
		return nil
	}
	query := psql.Insert(r.t(ctx, "notifications")).
		Columns("recipient_id", "title", "message", "notification_type", "object_type", "object_id")
	for _, n := range items {
		query = query.Values(n.RecipientID, n.Title, n.Message, n.NotificationType, n.ObjectType, n.ObjectID)
	}
	query = query.Suffix("RETURNING id, created_at")

	i := 0
	err := r.each(ctx, query, func(row rowScanner) error {
		if i >= len(items) {
			return nil
		}
		err := row.Scan(&items[i].ID, &items[i].CreatedAt)
		i++
		return err
	})
	return logFailure(constraintError(err, nil), "Failed to create notifications")
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	query := psql.Select(notificationColumns...).From(r.t(ctx, "notifications")).Where(squirrel.Eq{"id": id})

	var n models.Notification
	if err := r.getOne(ctx, query, apperrors.ErrNotificationNotFound, notificationTargets(&n)...); err != nil {
		return nil, logFailure(err, "Failed to get notification")
	}
	return &n, nil
}

// List returns the recipient's notifications newest first.
func (r *NotificationRepository) List(ctx context.Context, f models.CommunicationFilter, p helpers.PageRequest) ([]*models.Notification, int64, error) {
	query := psql.Select(notificationColumns...).From(r.t(ctx, "notifications")).
		Where(squirrel.Eq{"recipient_id": f.UserID}).
		OrderBy("created_at DESC", "id DESC")
	if f.IsRead != nil {
		query = query.Where(squirrel.Eq{"is_read": *f.IsRead})
	}

	items := []*models.Notification{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var n models.Notification
		if err := row.Scan(append(notificationTargets(&n), total)...); err != nil {
			return err
		}
		items = append(items, &n)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list notifications")
	}
	return items, total, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	query := psql.Update(r.t(ctx, "notifications")).Set("is_read", true).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrNotificationNotFound), "Failed to mark notification read")
}

// MarkAllRead returns how many notifications changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	query := psql.Update(r.t(ctx, "notifications")).Set("is_read", true).
		Where(squirrel.Eq{"recipient_id": recipientID, "is_read": false})
	n, err := r.exec(ctx, query)
	return n, logFailure(err, "Failed to mark notifications read")
}

func (r *NotificationRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "notifications")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrNotificationNotFound), "Failed to delete notification")
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	query := psql.Select("COUNT(*)").From(r.t(ctx, "notifications")).
		Where(squirrel.Eq{"recipient_id": recipientID, "is_read": false})
	n, err := r.count(ctx, query)
	return n, logFailure(err, "Failed to count unread notifications")
}
