// Package services holds the business rules of the school platform. Services
// read the caller from the request context and the tenant from its schema
// binding; repositories never see an unscoped request.
package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolsphere/internal/app/auth"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/filestorage"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

// actorFrom returns the authenticated caller or an invalid token error.
func actorFrom(ctx context.Context) (*auth.Actor, error) {
	a, ok := auth.ActorFrom(ctx)
	if !ok {
		return nil, apperrors.ErrTokenInvalid
	}
	return a, nil
}

// requireTenant fails on the public schema, where school data does not exist.
func requireTenant(ctx context.Context) error {
	t, ok := tenancy.FromContext(ctx)
	if !ok || t.IsPublic() {
		return apperrors.ErrTenantRequired
	}
	return nil
}

// objectPrefix namespaces uploads by school and resource.
func objectPrefix(ctx context.Context, kind string) string {
	return path.Join(tenancy.Schema(ctx), kind)
}

// upload stores fh when present and returns its key.
func upload(ctx context.Context, files filestorage.FileStorage, fh *multipart.FileHeader, kind string) (string, error) {
	if fh == nil || files == nil {
		return "", nil
	}
	if fh.Size > filestorage.MaxUploadSize {
		return "", apperrors.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", filestorage.MaxUploadSize))
	}
	key, err := files.SaveFileWithPath(ctx, fh, objectPrefix(ctx, kind))
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return key, nil
}

// presign turns a stored key into a download link. Failures are logged and
// yield an empty link so listings still render.
func presign(ctx context.Context, files filestorage.FileStorage, logger zerolog.Logger, key string) string {
	if key == "" || files == nil {
		return ""
	}
	url, err := files.URL(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to presign object")
		return ""
	}
	return url
}

// Notifier stores notifications and pushes them to connected clients.
type Notifier struct {
	store  NotificationStore
	pusher Pusher
	logger zerolog.Logger
}

func NewNotifier(store NotificationStore, pusher Pusher, logger zerolog.Logger) *Notifier {
	return &Notifier{store: store, pusher: pusher, logger: logger}
}

// Notice is one notification fanned out to several recipients.
type Notice struct {
	Type       models.NotificationType
	Title      string
	Message    string
	ObjectType string
	ObjectID   int64
}

// NotificationEvent is the websocket event type for new notifications.
const NotificationEvent = "notification"

// Notify records n for every distinct recipient. Delivery is best effort: a
// failure is logged and never undoes the action that triggered it.
func (n *Notifier) Notify(ctx context.Context, recipients []int64, notice Notice) {
	if n == nil || len(recipients) == 0 {
		return
	}

	seen := make(map[int64]bool, len(recipients))
	items := make([]*models.Notification, 0, len(recipients))
	for _, id := range recipients {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		item := &models.Notification{
			RecipientID:      id,
			Title:            notice.Title,
			Message:          notice.Message,
			NotificationType: notice.Type,
			ObjectType:       notice.ObjectType,
		}
		if notice.ObjectID != 0 {
			objectID := notice.ObjectID
			item.ObjectID = &objectID
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return
	}

	if err := n.store.CreateMany(ctx, items); err != nil {
		n.logger.Error().Err(err).Str("type", string(notice.Type)).Int("recipients", len(items)).Msg("Failed to store notifications")
		return
	}

	if n.pusher == nil {
		return
	}
	schema := tenancy.Schema(ctx)
	for _, item := range items {
		n.pusher.Publish(schema, []int64{item.RecipientID}, NotificationEvent, item)
	}
}
