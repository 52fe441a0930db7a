package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/email"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

// DeliveryLogWindow is how far back email and SMS logs are listed.
const DeliveryLogWindow = 30 * 24 * time.Hour

// DeliveryLogRepository records outbound email and exposes email and SMS logs.
// The email log lives in the current tenant schema, or public for
// platform mail.
type DeliveryLogRepository struct {
	baseRepository
}

func NewDeliveryLogRepository(db *sql.DB) *DeliveryLogRepository {
	return &DeliveryLogRepository{baseRepository{db: db}}
}

// RecordEmail stores the outcome of one email.
func (r *DeliveryLogRepository) RecordEmail(ctx context.Context, l *models.EmailLog) error {
	query := psql.Insert(r.t(ctx, "email_logs")).
		Columns("recipient", "subject", "content", "status", "error_message", "sent_at").
		Values(l.Recipient, l.Subject, l.Content, l.Status, l.ErrorMessage, l.SentAt).
		Suffix("RETURNING id, created_at")

	return logFailure(r.getOne(ctx, query, nil, &l.ID, &l.CreatedAt), "Failed to record email")
}

// RecordDelivery implements email.Recorder.
func (r *DeliveryLogRepository) RecordDelivery(ctx context.Context, d email.Delivery) error {
	l := &models.EmailLog{
		Recipient:    d.Recipient,
		Subject:      d.Subject,
		Content:      d.Content,
		Status:       models.DeliveryFailed,
		ErrorMessage: d.Error,
	}
	if d.Sent {
		l.Status = models.DeliverySent
		sentAt := d.SentAt
		l.SentAt = &sentAt
	}
	return r.RecordEmail(ctx, l)
}

func (r *DeliveryLogRepository) ListEmails(ctx context.Context, since time.Time, p helpers.PageRequest) ([]*models.EmailLog, int64, error) {
	query := psql.Select("id", "recipient", "subject", "content", "status", "error_message", "sent_at", "created_at").
		From(r.t(ctx, "email_logs")).
		Where(squirrel.GtOrEq{"created_at": since}).
		OrderBy("created_at DESC", "id DESC")

	items := []*models.EmailLog{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var l models.EmailLog
		if err := row.Scan(&l.ID, &l.Recipient, &l.Subject, &l.Content, &l.Status, &l.ErrorMessage, &l.SentAt, &l.CreatedAt, total); err != nil {
			return err
		}
		items = append(items, &l)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list email logs")
	}
	return items, total, nil
}

func (r *DeliveryLogRepository) ListSMS(ctx context.Context, since time.Time, p helpers.PageRequest) ([]*models.SMSLog, int64, error) {
	query := psql.Select("id", "recipient", "message", "status", "error_message", "sent_at", "created_at").
		From(r.t(ctx, "sms_logs")).
		Where(squirrel.GtOrEq{"created_at": since}).
		OrderBy("created_at DESC", "id DESC")

	items := []*models.SMSLog{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var l models.SMSLog
		if err := row.Scan(&l.ID, &l.Recipient, &l.Message, &l.Status, &l.ErrorMessage, &l.SentAt, &l.CreatedAt, total); err != nil {
			return err
		}
		items = append(items, &l)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list sms logs")
	}
	return items, total, nil
}
