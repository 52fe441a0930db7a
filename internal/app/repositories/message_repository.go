package repositories

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

var messageColumns = []string{"id", "sender_id", "recipient_id", "subject", "content", "attachment_key", "is_read", "created_at"}

type MessageRepository struct {
	baseRepository
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{baseRepository{db: db}}
}

func messageTargets(m *models.Message) []any {
	return []any{&m.ID, &m.SenderID, &m.RecipientID, &m.Subject, &m.Content, &m.AttachmentKey, &m.IsRead, &m.CreatedAt}
}

func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	query := psql.Insert(r.t(ctx, "messages")).
		Columns("sender_id", "recipient_id", "subject", "content", "attachment_key").
		Values(m.SenderID, m.RecipientID, m.Subject, m.Content, m.AttachmentKey).
		Suffix("RETURNING id, created_at")

	err := r.getOne(ctx, query, nil, &m.ID, &m.CreatedAt)
	return logFailure(constraintError(err, nil), "Failed to create message")
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	query := psql.Select(messageColumns...).From(r.t(ctx, "messages")).Where(squirrel.Eq{"id": id})

	var m models.Message
	if err := r.getOne(ctx, query, apperrors.ErrMessageNotFound, messageTargets(&m)...); err != nil {
		return nil, logFailure(err, "Failed to get message")
	}
	return &m, nil
}

// List returns the user's inbox, sent box, or both when Box is empty.
func (r *MessageRepository) List(ctx context.Context, f models.CommunicationFilter, p helpers.PageRequest) ([]*models.Message, int64, error) {
	query := psql.Select(messageColumns...).From(r.t(ctx, "messages")).OrderBy("created_at DESC", "id DESC")
	switch f.Box {
	case models.BoxInbox:
		query = query.Where(squirrel.Eq{"recipient_id": f.UserID})
	case models.BoxSent:
		query = query.Where(squirrel.Eq{"sender_id": f.UserID})
	default:
		query = query.Where(squirrel.Or{squirrel.Eq{"recipient_id": f.UserID}, squirrel.Eq{"sender_id": f.UserID}})
	}
	if f.IsRead != nil {
		query = query.Where(squirrel.Eq{"is_read": *f.IsRead})
	}

	items := []*models.Message{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var m models.Message
		if err := row.Scan(append(messageTargets(&m), total)...); err != nil {
			return err
		}
		items = append(items, &m)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list messages")
	}
	return items, total, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, id int64) error {
	query := psql.Update(r.t(ctx, "messages")).Set("is_read", true).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrMessageNotFound), "Failed to mark message read")
}

func (r *MessageRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "messages")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrMessageNotFound), "Failed to delete message")
}
