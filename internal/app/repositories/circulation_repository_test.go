package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/db"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

func TestBookRepository_CreateDuplicateISBN(t *testing.T) {
	sqlDB, mock, ctx := newMock(t)
	repo := NewBookRepository(sqlDB)

	mock.ExpectQuery(q(`INSERT INTO "school_a"."books"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "books_isbn_key"})

	err := repo.Create(ctx, &models.Book{Title: "Go", Author: "Pike", ISBN: "9780306406157", Copies: 1, AvailableCopies: 1, Status: models.BookAvailable})
	assert.ErrorIs(t, err, apperrors.ErrISBNExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_GetForUpdateLocksInTransaction(t *testing.T) {
	sqlDB, mock, ctx := newMock(t)
	repo := NewBookRepository(sqlDB)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(q(`FROM "school_a"."books" WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(bookColumns).
			AddRow(1, "Go", "Pike", "9780306406157", "", 2012, 3, 2, "available", now, now))
	mock.ExpectCommit()

	err := db.NewTransactor(sqlDB).WithTransaction(ctx, func(ctx context.Context) error {
		book, err := repo.GetForUpdate(ctx, 1)
		if err != nil {
			return err
		}
		assert.Equal(t, 2, book.AvailableCopies)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_ListSearchesTitleAuthorISBN(t *testing.T) {
	sqlDB, mock, ctx := newMock(t)
	repo := NewBookRepository(sqlDB)

	mock.ExpectQuery(q(`WHERE (title ILIKE $1 OR author ILIKE $2 OR isbn ILIKE $3)`)).
		WithArgs("%go%", "%go%", "%go%").
		WillReturnRows(sqlmock.NewRows(append(bookColumns, "count")))

	books, total, err := repo.List(ctx, models.BookFilter{Search: "go"}, helpers.PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_ListIssuesScopedToParent(t *testing.T) {
	sqlDB, mock, ctx := newMock(t)
	repo := NewBookRepository(sqlDB)
	now := time.Now()

	mock.ExpectQuery(q(`FROM "school_a"."book_issues" WHERE student_id IN (SELECT user_id FROM "school_a"."student_profiles" WHERE parent_id = $1)`)).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows(append(issueColumns, "count")).
			AddRow(4, 1, 30, now, now.AddDate(0, 0, 14), nil, "issued", "0", "", now, now, 1))

	issues, total, err := repo.ListIssues(ctx, models.BookFilter{Scope: models.Scope{ParentID: 12}}, helpers.PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, issues, 1)
	assert.Nil(t, issues[0].ReturnDate)
	assert.True(t, issues[0].FineAmount.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_MarkOverdue(t *testing.T) {
	sqlDB, mock, ctx := newMock(t)
	repo := NewBookRepository(sqlDB)

	mock.ExpectExec(q(`UPDATE "school_a"."book_issues" SET status = $1`)).
		WithArgs(models.IssueOverdue, sqlmock.AnyArg(), models.IssueIssued, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.MarkOverdue(ctx, models.Today())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentFeeRepository_GetByIDComputesBalance(t *testing.T) {
	sqlDB, mock, ctx := newMock(t)
	repo := NewStudentFeeRepository(sqlDB)
	now := time.Now()

	mock.ExpectQuery(q(`FROM "school_a"."student_fees" WHERE id = $1 AND student_id = $2`)).
		WithArgs(int64(8), int64(30)).
		WillReturnRows(sqlmock.NewRows(studentFeeColumns).
			AddRow(8, 30, 2, nil, now, "1000.00", "250.00", "partial", now, now))

	fee, err := repo.GetByID(ctx, 8, models.Scope{StudentID: 30})
	require.NoError(t, err)
	assert.Nil(t, fee.DiscountID)
	assert.True(t, decimal.RequireFromString("750").Equal(fee.Balance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentFeeRepository_PaidTotal(t *testing.T) {
	sqlDB, mock, ctx := newMock(t)
	repo := NewStudentFeeRepository(sqlDB)

	mock.ExpectQuery(q(`SELECT COALESCE(SUM(amount), 0) FROM "school_a"."payments" WHERE student_fee_id = $1`)).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("400.50"))

	total, err := repo.PaidTotal(ctx, 8)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("400.50").Equal(total))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentFeeRepository_Summary(t *testing.T) {
	sqlDB, mock, ctx := newMock(t)
	repo := NewStudentFeeRepository(sqlDB)
	from := models.NewDate(2024, 9, 1)

	mock.ExpectQuery(q(`JOIN "school_a"."student_fees" sf ON sf.id = p.student_fee_id WHERE p.payment_date >= $1`)).
		WithArgs(from.Time).
		WillReturnRows(sqlmock.NewRows([]string{"sum", "count"}).AddRow("1200.00", 3))

	summary, err := repo.Summary(ctx, models.FinanceFilter{From: &from, Scope: models.Scope{All: true}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Count)
	assert.True(t, decimal.RequireFromString("1200").Equal(summary.TotalAmount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentFeeRepository_PaymentOverBalanceRejected(t *testing.T) {
	sqlDB, mock, ctx := newMock(t)
	repo := NewStudentFeeRepository(sqlDB)

	mock.ExpectExec(q(`UPDATE "school_a"."student_fees"`)).
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "student_fees_paid_amount_check"})

	err := repo.Update(ctx, &models.StudentFee{ID: 8, Amount: decimal.NewFromInt(100), PaidAmount: decimal.NewFromInt(150)})
	assert.ErrorIs(t, err, apperrors.ErrPaymentExceedsBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepository_ListLoadsTargets(t *testing.T) {
	sqlDB, mock, ctx := newMock(t)
	repo := NewAnnouncementRepository(sqlDB)
	now := time.Now()

	mock.ExpectQuery(q(`FROM "school_a"."announcements" a ORDER BY a.created_at DESC, a.id DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "priority", "author_id", "target_roles", "attachment_key", "is_active", "created_at", "updated_at", "count"}).
			AddRow(1, "Sports day", "Friday", "high", 2, `["student","parent"]`, "", true, now, now, 1))
	mock.ExpectQuery(q(`FROM "school_a"."announcement_classes" WHERE announcement_id IN ($1)`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"announcement_id", "class_id"}).AddRow(1, 4))
	mock.ExpectQuery(q(`FROM "school_a"."announcement_sections" WHERE announcement_id IN ($1)`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"announcement_id", "section_id"}))

	items, total, err := repo.List(ctx, models.CommunicationFilter{}, helpers.PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, models.StringList{"student", "parent"}, items[0].TargetRoles)
	assert.Equal(t, []int64{4}, items[0].TargetClasses)
	assert.Equal(t, []int64{}, items[0].TargetSections)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_CreateMany(t *testing.T) {
	sqlDB, mock, ctx := newMock(t)
	repo := NewNotificationRepository(sqlDB)
	now := time.Now()

	mock.ExpectQuery(q(`INSERT INTO "school_a"."notifications" (recipient_id,title,message,notification_type,object_type,object_id) VALUES ($1,$2,$3,$4,$5,$6),($7,$8,$9,$10,$11,$12) RETURNING id, created_at`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(10, now).AddRow(11, now))

	items := []*models.Notification{
		{RecipientID: 30, Title: "Absent", Message: "Marked absent", NotificationType: models.NotifyAttendance},
		{RecipientID: 31, Title: "Absent", Message: "Marked absent", NotificationType: models.NotifyAttendance},
	}
	require.NoError(t, repo.CreateMany(ctx, items))
	assert.Equal(t, int64(10), items[0].ID)
	assert.Equal(t, int64(11), items[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_ListInbox(t *testing.T) {
	sqlDB, mock, ctx := newMock(t)
	repo := NewMessageRepository(sqlDB)

	mock.ExpectQuery(q(`FROM "school_a"."messages" WHERE recipient_id = $1`)).
		WithArgs(int64(30)).
		WillReturnRows(sqlmock.NewRows(append(messageColumns, "count")))

	_, total, err := repo.List(ctx, models.CommunicationFilter{UserID: 30, Box: models.BoxInbox}, helpers.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
