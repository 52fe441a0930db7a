package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolsphere/internal/app/auth"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/filestorage"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

// DeliveryLogWindow is how far back email and SMS logs are listed.
const DeliveryLogWindow = 30 * 24 * time.Hour

// CommunicationStores groups the persistence used by CommunicationService.
type CommunicationStores struct {
	Announcements AnnouncementStore
	Notifications NotificationStore
	Messages      MessageStore
	Deliveries    DeliveryLogStore
	Sections      SectionStore
	Users         UserStore
}

// CommunicationService runs announcements, notifications, direct messages
// and the delivery logs.
type CommunicationService struct {
	CommunicationStores
	files    filestorage.FileStorage
	notifier *Notifier
	tx       Transactor
	now      func() time.Time
	logger   zerolog.Logger
}

func NewCommunicationService(stores CommunicationStores, files filestorage.FileStorage, notifier *Notifier, tx Transactor, logger zerolog.Logger) *CommunicationService {
	return &CommunicationService{
		CommunicationStores: stores,
		files:               files,
		notifier:            notifier,
		tx:                  tx,
		now:                 time.Now,
		logger:              logger,
	}
}

// ---- announcements ----

func targetRoles(raw []string) ([]models.RoleType, error) {
	roles := make([]models.RoleType, 0, len(raw))
	for _, r := range raw {
		role := models.RoleType(strings.TrimSpace(r))
		if !role.IsValid() || role == models.RoleSuperAdmin {
			return nil, apperrors.NewValidationError("targetRoles", fmt.Sprintf("unknown role %q", r))
		}
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		return nil, apperrors.NewValidationError("targetRoles", "at least one target role is required")
	}
	return roles, nil
}

func fillAnnouncement(a *models.Announcement, req *dto.AnnouncementRequest) ([]models.RoleType, error) {
	roles, err := targetRoles(req.TargetRoles)
	if err != nil {
		return nil, err
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperrors.NewValidationError("priority", "priority must be low, medium or high")
	}

	a.Title = strings.TrimSpace(req.Title)
	a.Content = req.Content
	a.Priority = priority
	a.TargetRoles = make(models.StringList, len(roles))
	for i, r := range roles {
		a.TargetRoles[i] = string(r)
	}
	a.TargetClasses = req.TargetClasses
	a.TargetSections = req.TargetSections
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	return roles, nil
}

// announce notifies everyone the announcement reaches, except its author.
func (s *CommunicationService) announce(ctx context.Context, a *models.Announcement, roles []models.RoleType) {
	if !a.IsActive {
		return
	}
	ids, err := s.Users.AudienceIDs(ctx, roles, a.TargetClasses, a.TargetSections)
	if err != nil {
		s.logger.Error().Err(err).Int64("announcementId", a.ID).Msg("Failed to resolve announcement audience")
		return
	}
	recipients := ids[:0]
	for _, id := range ids {
		if id != a.AuthorID {
			recipients = append(recipients, id)
		}
	}
	s.notifier.Notify(ctx, recipients, Notice{
		Type:       models.NotifyAnnouncement,
		Title:      a.Title,
		Message:    a.Content,
		ObjectType: "announcement",
		ObjectID:   a.ID,
	})
}

// CreateAnnouncement publishes an announcement with an optional attachment.
func (s *CommunicationService) CreateAnnouncement(ctx context.Context, req *dto.AnnouncementRequest, file *multipart.FileHeader) (*models.Announcement, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Is(models.RoleTeacher) {
		return nil, apperrors.NewForbiddenError("only administrators and teachers can publish announcements")
	}

	a := &models.Announcement{AuthorID: actor.UserID, IsActive: true}
	roles, err := fillAnnouncement(a, req)
	if err != nil {
		return nil, err
	}
	if a.AttachmentKey, err = upload(ctx, s.files, file, "announcements"); err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.Announcements.Create(ctx, a)
	})
	if err != nil {
		s.discard(ctx, a.AttachmentKey)
		return nil, fmt.Errorf("error creating announcement: %w", err)
	}

	s.announce(ctx, a, roles)
	a.AttachmentURL = presign(ctx, s.files, s.logger, a.AttachmentKey)
	return a, nil
}

// authored loads an announcement the caller may change.
func (s *CommunicationService) authored(ctx context.Context, id int64) (*models.Announcement, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.Announcements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && a.AuthorID != actor.UserID {
		return nil, apperrors.NewForbiddenError("only the author or an administrator can change this announcement")
	}
	return a, nil
}

// UpdateAnnouncement rewrites an announcement. Re-activating it notifies
// its audience again.
func (s *CommunicationService) UpdateAnnouncement(ctx context.Context, id int64, req *dto.AnnouncementRequest, file *multipart.FileHeader) (*models.Announcement, error) {
	a, err := s.authored(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActive := a.IsActive
	roles, err := fillAnnouncement(a, req)
	if err != nil {
		return nil, err
	}

	oldKey := a.AttachmentKey
	newKey, err := upload(ctx, s.files, file, "announcements")
	if err != nil {
		return nil, err
	}
	if newKey != "" {
		a.AttachmentKey = newKey
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.Announcements.Update(ctx, a)
	})
	if err != nil {
		s.discard(ctx, newKey)
		return nil, fmt.Errorf("error updating announcement: %w", err)
	}
	if newKey != "" {
		s.discard(ctx, oldKey)
	}

	if !wasActive {
		s.announce(ctx, a, roles)
	}
	a.AttachmentURL = presign(ctx, s.files, s.logger, a.AttachmentKey)
	return a, nil
}

func (s *CommunicationService) DeleteAnnouncement(ctx context.Context, id int64) error {
	a, err := s.authored(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Announcements.Delete(ctx, id); err != nil {
		return err
	}
	s.discard(ctx, a.AttachmentKey)
	return nil
}

// audience describes what the caller can read. Admins get nil, which
// matches everything.
func (s *CommunicationService) audience(ctx context.Context, actor *auth.Actor) (*models.Audience, error) {
	if actor.IsAdmin() {
		return nil, nil
	}
	classes, sections, err := s.Sections.Affiliation(ctx, actor.UserID, actor.Role)
	if err != nil {
		return nil, fmt.Errorf("error resolving audience: %w", err)
	}
	return &models.Audience{Role: actor.Role, ClassIDs: classes, SectionIDs: sections}, nil
}

// visible applies the audience rule to a single announcement.
func visible(a *models.Announcement, au *models.Audience) bool {
	if au == nil {
		return true
	}
	if !a.IsActive || !a.TargetRoles.Contains(string(au.Role)) {
		return false
	}
	if len(a.TargetClasses) == 0 && len(a.TargetSections) == 0 {
		return true
	}
	return overlaps(a.TargetClasses, au.ClassIDs) || overlaps(a.TargetSections, au.SectionIDs)
}

func overlaps(a, b []int64) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func (s *CommunicationService) GetAnnouncement(ctx context.Context, id int64) (*models.Announcement, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	au, err := s.audience(ctx, actor)
	if err != nil {
		return nil, err
	}
	a, err := s.Announcements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(a, au) && a.AuthorID != actor.UserID {
		return nil, apperrors.ErrAnnouncementNotFound
	}
	a.AttachmentURL = presign(ctx, s.files, s.logger, a.AttachmentKey)
	return a, nil
}

func (s *CommunicationService) ListAnnouncements(ctx context.Context, f models.CommunicationFilter, p helpers.PageRequest) ([]*models.Announcement, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if f.Audience, err = s.audience(ctx, actor); err != nil {
		return nil, 0, err
	}
	items, total, err := s.Announcements.List(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}
	for _, a := range items {
		a.AttachmentURL = presign(ctx, s.files, s.logger, a.AttachmentKey)
	}
	return items, total, nil
}

// ---- notifications ----

func (s *CommunicationService) ListNotifications(ctx context.Context, isRead *bool, p helpers.PageRequest) ([]*models.Notification, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.Notifications.List(ctx, models.CommunicationFilter{UserID: actor.UserID, IsRead: isRead}, p)
}

// ownNotification hides other users' notifications behind a not found.
func (s *CommunicationService) ownNotification(ctx context.Context, id int64) (*models.Notification, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.Notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != actor.UserID {
		return nil, apperrors.ErrNotificationNotFound
	}
	return n, nil
}

func (s *CommunicationService) GetNotification(ctx context.Context, id int64) (*models.Notification, error) {
	return s.ownNotification(ctx, id)
}

func (s *CommunicationService) MarkNotificationRead(ctx context.Context, id int64) (*models.Notification, error) {
	n, err := s.ownNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.Notifications.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}

// MarkAllNotificationsRead returns how many notifications changed.
func (s *CommunicationService) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return 0, err
	}
	return s.Notifications.MarkAllRead(ctx, actor.UserID)
}

func (s *CommunicationService) DeleteNotification(ctx context.Context, id int64) error {
	if _, err := s.ownNotification(ctx, id); err != nil {
		return err
	}
	return s.Notifications.Delete(ctx, id)
}

func (s *CommunicationService) UnreadCount(ctx context.Context) (int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return 0, err
	}
	return s.Notifications.UnreadCount(ctx, actor.UserID)
}

// ---- messages ----

func (s *CommunicationService) SendMessage(ctx context.Context, req *dto.MessageRequest, file *multipart.FileHeader) (*models.Message, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req.RecipientID == actor.UserID {
		return nil, apperrors.NewValidationError("recipientId", "you cannot message yourself")
	}
	exists, err := s.Users.Exists(ctx, req.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("error checking recipient: %w", err)
	}
	if !exists {
		return nil, apperrors.NewValidationError("recipientId", "recipient does not exist")
	}

	m := &models.Message{
		SenderID:    actor.UserID,
		RecipientID: req.RecipientID,
		Subject:     strings.TrimSpace(req.Subject),
		Content:     req.Content,
	}
	if m.AttachmentKey, err = upload(ctx, s.files, file, "messages"); err != nil {
		return nil, err
	}
	if err := s.Messages.Create(ctx, m); err != nil {
		s.discard(ctx, m.AttachmentKey)
		return nil, fmt.Errorf("error sending message: %w", err)
	}

	s.logger.Debug().Int64("messageId", m.ID).Int64("recipientId", m.RecipientID).Msg("Message sent")
	m.AttachmentURL = presign(ctx, s.files, s.logger, m.AttachmentKey)
	return m, nil
}

// ListMessages lists the caller's inbox or sent box, or both for an empty box.
func (s *CommunicationService) ListMessages(ctx context.Context, box string, isRead *bool, p helpers.PageRequest) ([]*models.Message, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	switch box {
	case "", models.BoxInbox, models.BoxSent:
	default:
		return nil, 0, apperrors.NewValidationError("box", "box must be inbox or sent")
	}
	items, total, err := s.Messages.List(ctx, models.CommunicationFilter{UserID: actor.UserID, Box: box, IsRead: isRead}, p)
	if err != nil {
		return nil, 0, err
	}
	for _, m := range items {
		m.AttachmentURL = presign(ctx, s.files, s.logger, m.AttachmentKey)
	}
	return items, total, nil
}

// participant loads a message the caller sent or received.
func (s *CommunicationService) participant(ctx context.Context, id int64) (*auth.Actor, *models.Message, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, nil, err
	}
	m, err := s.Messages.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if m.SenderID != actor.UserID && m.RecipientID != actor.UserID {
		return nil, nil, apperrors.NewForbiddenError("you are not part of this conversation")
	}
	return actor, m, nil
}

func (s *CommunicationService) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	_, m, err := s.participant(ctx, id)
	if err != nil {
		return nil, err
	}
	m.AttachmentURL = presign(ctx, s.files, s.logger, m.AttachmentKey)
	return m, nil
}

func (s *CommunicationService) MarkMessageRead(ctx context.Context, id int64) (*models.Message, error) {
	actor, m, err := s.participant(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.RecipientID != actor.UserID {
		return nil, apperrors.NewForbiddenError("only the recipient can mark a message read")
	}
	if !m.IsRead {
		if err := s.Messages.MarkRead(ctx, id); err != nil {
			return nil, err
		}
		m.IsRead = true
	}
	return m, nil
}

func (s *CommunicationService) DeleteMessage(ctx context.Context, id int64) error {
	_, m, err := s.participant(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Messages.Delete(ctx, id); err != nil {
		return err
	}
	s.discard(ctx, m.AttachmentKey)
	return nil
}

// ---- delivery logs ----

func (s *CommunicationService) ListEmailLogs(ctx context.Context, p helpers.PageRequest) ([]*models.EmailLog, int64, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, 0, err
	}
	return s.Deliveries.ListEmails(ctx, s.now().Add(-DeliveryLogWindow), p)
}

func (s *CommunicationService) ListSMSLogs(ctx context.Context, p helpers.PageRequest) ([]*models.SMSLog, int64, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, 0, err
	}
	return s.Deliveries.ListSMS(ctx, s.now().Add(-DeliveryLogWindow), p)
}

func (s *CommunicationService) requireAdmin(ctx context.Context) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	return auth.RequireAdmin(actor)
}

// discard removes an object that is no longer referenced.
func (s *CommunicationService) discard(ctx context.Context, key string) {
	if key == "" || s.files == nil {
		return
	}
	if err := s.files.DeleteFile(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete object")
	}
}
