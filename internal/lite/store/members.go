package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const memberColumns = `id, user_id, membership_type, card_number, start_date, end_date, max_books, is_active, created_at, updated_at`

type MemberRepository struct {
	db *sqlx.DB
}

// List returns members; activeOnly drops deactivated cards.
func (r *MemberRepository) List(ctx context.Context, activeOnly bool, p Page) ([]Member, error) {
	skip, limit := window(p)
	q := `SELECT ` + memberColumns + ` FROM library_members`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY card_number LIMIT $1 OFFSET $2`

	members := []Member{}
	err := r.db.SelectContext(ctx, &members, q, limit, skip)
	return members, translate(err, "listing members")
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*Member, error) {
	var m Member
	if err := r.db.GetContext(ctx, &m, `SELECT `+memberColumns+` FROM library_members WHERE id = $1`, id); err != nil {
		return nil, translate(err, "member by id")
	}
	return &m, nil
}

func (r *MemberRepository) GetByCard(ctx context.Context, card string) (*Member, error) {
	var m Member
	if err := r.db.GetContext(ctx, &m, `SELECT `+memberColumns+` FROM library_members WHERE card_number = $1`, card); err != nil {
		return nil, translate(err, "member by card")
	}
	return &m, nil
}

func (r *MemberRepository) GetByUser(ctx context.Context, userID int64) (*Member, error) {
	var m Member
	if err := r.db.GetContext(ctx, &m, `SELECT `+memberColumns+` FROM library_members WHERE user_id = $1`, userID); err != nil {
		return nil, translate(err, "member by user")
	}
	return &m, nil
}

func (r *MemberRepository) Create(ctx context.Context, m *Member) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO library_members (user_id, membership_type, card_number, start_date, end_date, max_books, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		m.UserID, m.MembershipType, m.CardNumber, m.StartDate, m.EndDate, m.MaxBooks, m.IsActive,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return translate(err, "creating member")
}

func (r *MemberRepository) Update(ctx context.Context, m *Member) error {
	err := r.db.QueryRowxContext(ctx,
		`UPDATE library_members SET membership_type = $2, card_number = $3, start_date = $4, end_date = $5,
			max_books = $6, is_active = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		m.ID, m.MembershipType, m.CardNumber, m.StartDate, m.EndDate, m.MaxBooks, m.IsActive,
	).Scan(&m.UpdatedAt)
	return translate(err, "updating member")
}

func (r *MemberRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM library_members WHERE id = $1`, id)
	return affected(res, err, "deleting member")
}
