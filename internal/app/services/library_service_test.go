package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/app/services/mocks"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
)

type libraryFixture struct {
	books *mocks.MockBookStore
	users *mocks.MockUserStore
	tx    *mocks.InlineTransactor
	svc   *LibraryService
}

func newLibraryFixture() *libraryFixture {
	f := &libraryFixture{
		books: new(mocks.MockBookStore),
		users: new(mocks.MockUserStore),
		tx:    &mocks.InlineTransactor{},
	}
	f.svc = NewLibraryService(f.books, f.users, f.tx, LibraryConfig{LoanDays: 14, FinePerDay: decimal.RequireFromString("0.50")}, nop)
	f.svc.now = func() time.Time { return time.Date(2025, time.May, 20, 10, 0, 0, 0, time.UTC) }
	return f
}

func TestCreateBookStartsFullyAvailable(t *testing.T) {
	f := newLibraryFixture()
	f.books.On("Create", mock.Anything, mock.MatchedBy(func(b *models.Book) bool {
		return b.Copies == 3 && b.AvailableCopies == 3 && b.Status == models.BookAvailable && b.ISBN == "9780306406157"
	})).Return(nil)

	_, err := f.svc.CreateBook(asUser(models.RoleLibrarian, 3), &dto.BookRequest{
		Title: "Optics", Author: "Newton", ISBN: "978-0-306-40615-7", Copies: 3,
	})
	require.NoError(t, err)

	_, err = f.svc.CreateBook(asUser(models.RoleTeacher, 2), &dto.BookRequest{ISBN: "9780306406157", Copies: 1})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = f.svc.CreateBook(asUser(models.RoleLibrarian, 3), &dto.BookRequest{ISBN: "12345", Copies: 1})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestUpdateBookCopies(t *testing.T) {
	t.Run("below issued copies", func(t *testing.T) {
		f := newLibraryFixture()
		f.books.On("GetForUpdate", mock.Anything, int64(1)).Return(&models.Book{ID: 1, Copies: 5, AvailableCopies: 2, Status: models.BookAvailable}, nil)
		f.books.On("OutstandingCount", mock.Anything, int64(1)).Return(3, nil)

		two := 2
		_, err := f.svc.UpdateBook(asUser(models.RoleLibrarian, 3), 1, &dto.UpdateBookRequest{Copies: &two})
		assert.ErrorIs(t, err, apperrors.ErrCopiesBelowIssued)
		f.books.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("recomputes availability", func(t *testing.T) {
		f := newLibraryFixture()
		f.books.On("GetForUpdate", mock.Anything, int64(1)).Return(&models.Book{ID: 1, Copies: 5, AvailableCopies: 2, Status: models.BookAvailable}, nil)
		f.books.On("OutstandingCount", mock.Anything, int64(1)).Return(3, nil)
		f.books.On("Update", mock.Anything, mock.Anything).Return(nil)

		three := 3
		b, err := f.svc.UpdateBook(asUser(models.RoleLibrarian, 3), 1, &dto.UpdateBookRequest{Copies: &three})
		require.NoError(t, err)
		assert.Equal(t, 0, b.AvailableCopies)
		assert.Equal(t, models.BookIssued, b.Status)
	})
}

func TestUpdateBookKeepsLostCopyOffShelf(t *testing.T) {
	t.Run("title edit", func(t *testing.T) {
		f := newLibraryFixture()
		f.books.On("GetForUpdate", mock.Anything, int64(1)).Return(&models.Book{ID: 1, Title: "Old", Copies: 1, AvailableCopies: 0, Status: models.BookIssued}, nil)
		f.books.On("OutstandingCount", mock.Anything, int64(1)).Return(0, nil)
		f.books.On("Update", mock.Anything, mock.Anything).Return(nil)

		title := "New"
		b, err := f.svc.UpdateBook(asUser(models.RoleLibrarian, 3), 1, &dto.UpdateBookRequest{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, 0, b.AvailableCopies)
		assert.Equal(t, models.BookIssued, b.Status)
	})

	t.Run("added copy", func(t *testing.T) {
		f := newLibraryFixture()
		f.books.On("GetForUpdate", mock.Anything, int64(1)).Return(&models.Book{ID: 1, Copies: 1, AvailableCopies: 0, Status: models.BookIssued}, nil)
		f.books.On("OutstandingCount", mock.Anything, int64(1)).Return(0, nil)
		f.books.On("Update", mock.Anything, mock.Anything).Return(nil)

		two := 2
		b, err := f.svc.UpdateBook(asUser(models.RoleLibrarian, 3), 1, &dto.UpdateBookRequest{Copies: &two})
		require.NoError(t, err)
		assert.Equal(t, 1, b.AvailableCopies)
		assert.Equal(t, models.BookAvailable, b.Status)
	})
}

func TestIssueBook(t *testing.T) {
	req := &dto.IssueBookRequest{BookID: 1, StudentID: 8}

	tests := []struct {
		name string
		book *models.Book
		want error
	}{
		{"no copies", &models.Book{ID: 1, Copies: 1, AvailableCopies: 0, Status: models.BookIssued}, apperrors.ErrNoCopiesAvailable},
		{"lost title", &models.Book{ID: 1, Copies: 1, AvailableCopies: 1, Status: models.BookLost}, apperrors.ErrBookUnavailable},
		{"damaged title", &models.Book{ID: 1, Copies: 1, AvailableCopies: 1, Status: models.BookDamaged}, apperrors.ErrBookUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLibraryFixture()
			f.books.On("GetForUpdate", mock.Anything, int64(1)).Return(tt.book, nil)
			_, err := f.svc.IssueBook(asUser(models.RoleLibrarian, 3), req)
			assert.ErrorIs(t, err, tt.want)
			f.books.AssertNotCalled(t, "CreateIssue", mock.Anything, mock.Anything)
		})
	}

	t.Run("last copy", func(t *testing.T) {
		f := newLibraryFixture()
		f.books.On("GetForUpdate", mock.Anything, int64(1)).Return(&models.Book{ID: 1, Copies: 2, AvailableCopies: 1, Status: models.BookAvailable}, nil)
		f.users.On("GetStudent", mock.Anything, int64(8), allScope).Return(&models.Student{}, nil)
		f.books.On("CreateIssue", mock.Anything, mock.MatchedBy(func(i *models.BookIssue) bool {
			return i.Status == models.IssueIssued && i.DueDate.Equal(models.NewDate(2025, time.June, 3).Time)
		})).Return(nil)
		f.books.On("Update", mock.Anything, mock.MatchedBy(func(b *models.Book) bool {
			return b.AvailableCopies == 0 && b.Status == models.BookIssued
		})).Return(nil)

		issue, err := f.svc.IssueBook(asUser(models.RoleLibrarian, 3), req)
		require.NoError(t, err)
		assert.Equal(t, models.NewDate(2025, time.May, 20), issue.IssueDate)
		f.books.AssertExpectations(t)
		assert.Equal(t, 1, f.tx.Calls)
	})
}

func TestReturnBook(t *testing.T) {
	issued := func() *models.BookIssue {
		return &models.BookIssue{
			ID: 9, BookID: 1, StudentID: 8, Status: models.IssueOverdue,
			IssueDate: models.NewDate(2025, time.May, 1), DueDate: models.NewDate(2025, time.May, 15),
		}
	}

	t.Run("charges overdue days and restores the copy", func(t *testing.T) {
		f := newLibraryFixture()
		f.books.On("GetIssue", mock.Anything, int64(9), allScope).Return(issued(), nil)
		f.books.On("GetForUpdate", mock.Anything, int64(1)).Return(&models.Book{ID: 1, Copies: 1, AvailableCopies: 0, Status: models.BookIssued}, nil)
		f.books.On("UpdateIssue", mock.Anything, mock.Anything).Return(nil)
		f.books.On("Update", mock.Anything, mock.MatchedBy(func(b *models.Book) bool {
			return b.AvailableCopies == 1 && b.Status == models.BookAvailable
		})).Return(nil)

		issue, err := f.svc.ReturnBook(asUser(models.RoleLibrarian, 3), 9, &dto.ReturnBookRequest{})
		require.NoError(t, err)
		assert.Equal(t, models.IssueReturned, issue.Status)
		assert.Equal(t, "2.5", issue.FineAmount.String())
		assert.Equal(t, models.NewDate(2025, time.May, 20), *issue.ReturnDate)
		f.books.AssertExpectations(t)
	})

	t.Run("on time has no fine", func(t *testing.T) {
		f := newLibraryFixture()
		f.books.On("GetIssue", mock.Anything, int64(9), allScope).Return(issued(), nil)
		f.books.On("GetForUpdate", mock.Anything, int64(1)).Return(&models.Book{ID: 1, Copies: 1}, nil)
		f.books.On("UpdateIssue", mock.Anything, mock.Anything).Return(nil)
		f.books.On("Update", mock.Anything, mock.Anything).Return(nil)

		onTime := models.NewDate(2025, time.May, 15)
		issue, err := f.svc.ReturnBook(asUser(models.RoleSchoolAdmin, 1), 9, &dto.ReturnBookRequest{ReturnDate: &onTime})
		require.NoError(t, err)
		assert.True(t, issue.FineAmount.IsZero())
	})

	t.Run("twice", func(t *testing.T) {
		f := newLibraryFixture()
		done := issued()
		done.Status = models.IssueReturned
		f.books.On("GetIssue", mock.Anything, int64(9), allScope).Return(done, nil)

		_, err := f.svc.ReturnBook(asUser(models.RoleLibrarian, 3), 9, &dto.ReturnBookRequest{})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyReturned)
	})
}

func TestMarkLostKeepsCopiesOut(t *testing.T) {
	f := newLibraryFixture()
	f.books.On("GetIssue", mock.Anything, int64(9), allScope).Return(&models.BookIssue{ID: 9, BookID: 1, Status: models.IssueIssued}, nil)
	f.books.On("UpdateIssue", mock.Anything, mock.MatchedBy(func(i *models.BookIssue) bool {
		return i.Status == models.IssueLost
	})).Return(nil)

	_, err := f.svc.MarkLost(asUser(models.RoleLibrarian, 3), 9)
	require.NoError(t, err)
	f.books.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestListIssuesScopes(t *testing.T) {
	tests := []struct {
		role  models.RoleType
		scope models.Scope
	}{
		{models.RoleLibrarian, models.Scope{All: true}},
		{models.RoleSchoolAdmin, models.Scope{All: true}},
		{models.RoleStudent, models.Scope{StudentID: 5}},
		{models.RoleParent, models.Scope{ParentID: 5}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			f := newLibraryFixture()
			f.books.On("ListIssues", mock.Anything, models.BookFilter{Overdue: true, Scope: tt.scope}, firstPage).
				Return([]*models.BookIssue{}, int64(0), nil)
			_, _, err := f.svc.ListOverdue(asUser(tt.role, 5), firstPage)
			require.NoError(t, err)
			f.books.AssertExpectations(t)
		})
	}

	f := newLibraryFixture()
	_, _, err := f.svc.ListIssues(asUser(models.RoleAccountant, 5), models.BookFilter{}, firstPage)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestSweepOverdue(t *testing.T) {
	f := newLibraryFixture()
	f.books.On("MarkOverdue", mock.Anything, models.NewDate(2025, time.May, 20)).Return(int64(4), nil)

	n, err := f.svc.SweepOverdue(asUser(models.RoleSchoolAdmin, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	_, err = f.svc.SweepOverdue(asUser(models.RoleLibrarian, 3))
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
