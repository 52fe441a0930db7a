package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

const circulationColumns = `id, book_id, member_id, issue_date, due_date, return_date, fine_amount, status, remarks, created_at, updated_at`

type CirculationRepository struct {
	db *sqlx.DB
}

// IssueRequest describes one loan.
type IssueRequest struct {
	BookID   int64
	MemberID int64
	Today    time.Time
	LoanDays int
	Remarks  string
}

// Issue lends a copy: the book row is locked, one available copy is taken
// and the circulation recorded in the same transaction.
func (r *CirculationRepository) Issue(ctx context.Context, req IssueRequest) (*Circulation, error) {
	today := day(req.Today)
	c := &Circulation{
		BookID:     req.BookID,
		MemberID:   req.MemberID,
		IssueDate:  today,
		DueDate:    today.AddDate(0, 0, req.LoanDays),
		FineAmount: decimal.Zero,
		Status:     CirculationIssued,
		Remarks:    req.Remarks,
	}

	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var member Member
		if err := tx.GetContext(ctx, &member,
			`SELECT `+memberColumns+` FROM library_members WHERE id = $1 FOR UPDATE`, req.MemberID); err != nil {
			return translate(err, "member for issue")
		}
		if !member.IsActive || (member.EndDate.Valid && member.EndDate.Time.Before(today)) {
			return ErrInactive
		}

		var open int
		if err := tx.GetContext(ctx, &open,
			`SELECT COUNT(*) FROM book_circulations WHERE member_id = $1 AND return_date IS NULL`, req.MemberID); err != nil {
			return translate(err, "counting open loans")
		}
		if open >= member.MaxBooks {
			return ErrLoanLimit
		}

		var available int
		if err := tx.GetContext(ctx, &available,
			`SELECT available_copies FROM books WHERE id = $1 FOR UPDATE`, req.BookID); err != nil {
			return translate(err, "book for issue")
		}
		if available <= 0 {
			return ErrUnavailable
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE books SET available_copies = available_copies - 1, updated_at = NOW() WHERE id = $1`, req.BookID); err != nil {
			return translate(err, "taking copy")
		}
		err := tx.QueryRowxContext(ctx,
			`INSERT INTO book_circulations (book_id, member_id, issue_date, due_date, fine_amount, status, remarks)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, created_at, updated_at`,
			c.BookID, c.MemberID, c.IssueDate, c.DueDate, c.FineAmount, c.Status, c.Remarks,
		).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		return translate(err, "recording issue")
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Return closes an open loan, puts the copy back and charges finePerDay for
// every day past the due date.
func (r *CirculationRepository) Return(ctx context.Context, id int64, today time.Time, finePerDay decimal.Decimal) (*Circulation, error) {
	today = day(today)
	var c Circulation

	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &c,
			`SELECT `+circulationColumns+` FROM book_circulations WHERE id = $1 FOR UPDATE`, id); err != nil {
			return translate(err, "circulation for return")
		}
		if c.ReturnDate.Valid {
			return ErrReturned
		}

		c.FineAmount = Fine(c.DueDate, today, finePerDay)
		c.ReturnDate = null.TimeFrom(today)
		c.Status = CirculationReturned

		if err := tx.QueryRowxContext(ctx,
			`UPDATE book_circulations SET return_date = $2, fine_amount = $3, status = $4, updated_at = NOW()
			 WHERE id = $1
			 RETURNING updated_at`,
			c.ID, c.ReturnDate, c.FineAmount, c.Status,
		).Scan(&c.UpdatedAt); err != nil {
			return translate(err, "recording return")
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE books SET available_copies = LEAST(available_copies + 1, copies), updated_at = NOW() WHERE id = $1`, c.BookID)
		return translate(err, "restoring copy")
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CirculationRepository) GetByID(ctx context.Context, id int64) (*Circulation, error) {
	var c Circulation
	if err := r.db.GetContext(ctx, &c, `SELECT `+circulationColumns+` FROM book_circulations WHERE id = $1`, id); err != nil {
		return nil, translate(err, "circulation by id")
	}
	return &c, nil
}

func (r *CirculationRepository) List(ctx context.Context, p Page) ([]Circulation, error) {
	skip, limit := window(p)
	out := []Circulation{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+circulationColumns+` FROM book_circulations ORDER BY issue_date DESC, id DESC LIMIT $1 OFFSET $2`, limit, skip)
	return out, translate(err, "listing circulations")
}

// ActiveByMember lists the member's loans that are not yet returned.
func (r *CirculationRepository) ActiveByMember(ctx context.Context, memberID int64) ([]Circulation, error) {
	out := []Circulation{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+circulationColumns+` FROM book_circulations WHERE member_id = $1 AND return_date IS NULL ORDER BY due_date`, memberID)
	return out, translate(err, "listing active loans")
}

// Overdue lists open loans whose due date is before today.
func (r *CirculationRepository) Overdue(ctx context.Context, today time.Time) ([]Circulation, error) {
	out := []Circulation{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+circulationColumns+` FROM book_circulations WHERE return_date IS NULL AND due_date < $1 ORDER BY due_date`, day(today))
	return out, translate(err, "listing overdue loans")
}

// Fine is finePerDay times the whole days between due and returned.
func Fine(due, returned time.Time, finePerDay decimal.Decimal) decimal.Decimal {
	late := int64(day(returned).Sub(day(due)).Hours() / 24)
	if late <= 0 {
		return decimal.Zero
	}
	return finePerDay.Mul(decimal.NewFromInt(late))
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
