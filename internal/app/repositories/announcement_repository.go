package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

var announcementColumns = prefixed("a", []string{
	"id", "title", "content", "priority", "author_id", "target_roles",
	"attachment_key", "is_active", "created_at", "updated_at",
})

// AnnouncementRepository stores announcements with their class and section targets
type AnnouncementRepository struct {
	baseRepository
}

func NewAnnouncementRepository(db *sql.DB) *AnnouncementRepository {
	return &AnnouncementRepository{baseRepository{db: db}}
}

func announcementTargets(a *models.Announcement) []any {
	return []any{
		&a.ID, &a.Title, &a.Content, &a.Priority, &a.AuthorID, &a.TargetRoles,
		&a.AttachmentKey, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	}
}

// Create inserts the announcement and its targets. Run it in a transaction.
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	query := psql.Insert(r.t(ctx, "announcements")).
		Columns("title", "content", "priority", "author_id", "target_roles", "attachment_key", "is_active").
		Values(a.Title, a.Content, a.Priority, a.AuthorID, a.TargetRoles, a.AttachmentKey, a.IsActive).
		Suffix("RETURNING id, created_at, updated_at")

	if err := r.getOne(ctx, query, nil, &a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return logFailure(constraintError(err, nil), "Failed to create announcement")
	}
	return r.replaceTargets(ctx, a)
}

func (r *AnnouncementRepository) replaceTargets(ctx context.Context, a *models.Announcement) error {
	for _, target := range []struct {
		table, column string
		ids           []int64
	}{
		{"announcement_classes", "class_id", a.TargetClasses},
		{"announcement_sections", "section_id", a.TargetSections},
	} {
		del := psql.Delete(r.t(ctx, target.table)).Where(squirrel.Eq{"announcement_id": a.ID})
		if _, err := r.exec(ctx, del); err != nil {
			return logFailure(err, "Failed to clear announcement targets")
		}
		if len(target.ids) == 0 {
			continue
		}
		ins := psql.Insert(r.t(ctx, target.table)).Columns("announcement_id", target.column)
		for _, id := range target.ids {
			ins = ins.Values(a.ID, id)
		}
		if _, err := r.exec(ctx, ins.Suffix("ON CONFLICT DO NOTHING")); err != nil {
			return logFailure(constraintError(err, nil), "Failed to store announcement targets")
		}
	}
	return nil
}

func (r *AnnouncementRepository) loadTargets(ctx context.Context, items ...*models.Announcement) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Announcement, len(items))
	ids := make([]int64, 0, len(items))
	for _, a := range items {
		a.TargetClasses, a.TargetSections = []int64{}, []int64{}
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	classes := psql.Select("announcement_id", "class_id").From(r.t(ctx, "announcement_classes")).
		Where(squirrel.Eq{"announcement_id": ids}).OrderBy("class_id")
	err := r.each(ctx, classes, func(row rowScanner) error {
		var aid, cid int64
		if err := row.Scan(&aid, &cid); err != nil {
			return err
		}
		byID[aid].TargetClasses = append(byID[aid].TargetClasses, cid)
		return nil
	})
	if err != nil {
		return logFailure(err, "Failed to load announcement classes")
	}

	sections := psql.Select("announcement_id", "section_id").From(r.t(ctx, "announcement_sections")).
		Where(squirrel.Eq{"announcement_id": ids}).OrderBy("section_id")
	err = r.each(ctx, sections, func(row rowScanner) error {
		var aid, sid int64
		if err := row.Scan(&aid, &sid); err != nil {
			return err
		}
		byID[aid].TargetSections = append(byID[aid].TargetSections, sid)
		return nil
	})
	return logFailure(err, "Failed to load announcement sections")
}

func (r *AnnouncementRepository) GetByID(ctx context.Context, id int64) (*models.Announcement, error) {
	query := psql.Select(announcementColumns...).From(r.t(ctx, "announcements") + " a").Where(squirrel.Eq{"a.id": id})

	var a models.Announcement
	if err := r.getOne(ctx, query, apperrors.ErrAnnouncementNotFound, announcementTargets(&a)...); err != nil {
		return nil, logFailure(err, "Failed to get announcement")
	}
	if err := r.loadTargets(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// visibleTo matches active announcements aimed at the audience's role that
// either have no class or section targets or name one of the audience's.
func (r *AnnouncementRepository) visibleTo(ctx context.Context, au *models.Audience) squirrel.Sqlizer {
	classes, sections := r.t(ctx, "announcement_classes"), r.t(ctx, "announcement_sections")
	untargeted := fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s ac WHERE ac.announcement_id = a.id) AND NOT EXISTS (SELECT 1 FROM %s asec WHERE asec.announcement_id = a.id)", classes, sections)
	byClass := fmt.Sprintf("EXISTS (SELECT 1 FROM %s ac WHERE ac.announcement_id = a.id AND ac.class_id = ANY(?))", classes)
	bySection := fmt.Sprintf("EXISTS (SELECT 1 FROM %s asec WHERE asec.announcement_id = a.id AND asec.section_id = ANY(?))", sections)

	return squirrel.And{
		squirrel.Eq{"a.is_active": true},
		squirrel.Expr("a.target_roles @> jsonb_build_array(?::text)", string(au.Role)),
		squirrel.Or{
			squirrel.Expr(untargeted),
			squirrel.Expr(byClass, int64Array(au.ClassIDs)),
			squirrel.Expr(bySection, int64Array(au.SectionIDs)),
		},
	}
}

// List returns announcements newest first. A nil Audience lists everything.
func (r *AnnouncementRepository) List(ctx context.Context, f models.CommunicationFilter, p helpers.PageRequest) ([]*models.Announcement, int64, error) {
	query := psql.Select(announcementColumns...).From(r.t(ctx, "announcements") + " a").OrderBy("a.created_at DESC", "a.id DESC")
	if f.Audience != nil {
		query = query.Where(r.visibleTo(ctx, f.Audience))
	}
	if f.Priority != "" {
		query = query.Where(squirrel.Eq{"a.priority": f.Priority})
	}

	items := []*models.Announcement{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var a models.Announcement
		if err := row.Scan(append(announcementTargets(&a), total)...); err != nil {
			return err
		}
		items = append(items, &a)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list announcements")
	}
	if err := r.loadTargets(ctx, items...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update rewrites the announcement and its targets. Run it in a transaction.
func (r *AnnouncementRepository) Update(ctx context.Context, a *models.Announcement) error {
	a.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "announcements")).
		Set("title", a.Title).
		Set("content", a.Content).
		Set("priority", a.Priority).
		Set("target_roles", a.TargetRoles).
		Set("attachment_key", a.AttachmentKey).
		Set("is_active", a.IsActive).
		Set("updated_at", a.UpdatedAt).
		Where(squirrel.Eq{"id": a.ID})

	if err := r.execOne(ctx, query, apperrors.ErrAnnouncementNotFound); err != nil {
		return logFailure(err, "Failed to update announcement")
	}
	return r.replaceTargets(ctx, a)
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "announcements")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrAnnouncementNotFound), "Failed to delete announcement")
}
