package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/yigit/schoolsphere/internal/app/auth"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
	"github.com/yigit/schoolsphere/internal/pkg/validation"
)

// LibraryConfig holds the circulation rules of a school.
type LibraryConfig struct {
	LoanDays   int
	FinePerDay decimal.Decimal
}

// LibraryService runs the catalogue and book circulation
type LibraryService struct {
	books  BookStore
	users  UserStore
	tx     Transactor
	config LibraryConfig
	now    func() time.Time
	logger zerolog.Logger
}

func NewLibraryService(books BookStore, users UserStore, tx Transactor, config LibraryConfig, logger zerolog.Logger) *LibraryService {
	if config.LoanDays <= 0 {
		config.LoanDays = 14
	}
	return &LibraryService{
		books:  books,
		users:  users,
		tx:     tx,
		config: config,
		now:    time.Now,
		logger: logger,
	}
}

func (s *LibraryService) today() models.Date {
	return models.DateOf(s.now().UTC())
}

// librarian allows admins and librarians.
func librarian(ctx context.Context) (*auth.Actor, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() || actor.Is(models.RoleLibrarian) {
		return actor, nil
	}
	return nil, apperrors.NewForbiddenError("only librarians and administrators can manage the library")
}

func checkISBN(isbn string) (string, error) {
	isbn = strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
	if !validation.IsISBN13(isbn) {
		return "", apperrors.NewValidationError("isbn", "isbn must be 13 digits")
	}
	return isbn, nil
}

// ---- books ----

func (s *LibraryService) CreateBook(ctx context.Context, req *dto.BookRequest) (*models.Book, error) {
	if _, err := librarian(ctx); err != nil {
		return nil, err
	}
	isbn, err := checkISBN(req.ISBN)
	if err != nil {
		return nil, err
	}
	if req.Copies < 1 {
		return nil, apperrors.NewValidationError("copies", "a book needs at least one copy")
	}

	status := req.Status
	if status == "" || status == models.BookIssued {
		status = models.BookAvailable
	}
	b := &models.Book{
		Title:           strings.TrimSpace(req.Title),
		Author:          strings.TrimSpace(req.Author),
		ISBN:            isbn,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
		Copies:          req.Copies,
		AvailableCopies: req.Copies,
		Status:          status,
	}
	if err := s.books.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("error creating book: %w", err)
	}
	return b, nil
}

// UpdateBook shifts availability by the change in copies, so copies that are
// on loan or lost stay off the shelf.
func (s *LibraryService) UpdateBook(ctx context.Context, id int64, req *dto.UpdateBookRequest) (*models.Book, error) {
	if _, err := librarian(ctx); err != nil {
		return nil, err
	}

	var b *models.Book
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if b, err = s.books.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if req.Title != nil {
			b.Title = strings.TrimSpace(*req.Title)
		}
		if req.Author != nil {
			b.Author = strings.TrimSpace(*req.Author)
		}
		if req.ISBN != nil {
			if b.ISBN, err = checkISBN(*req.ISBN); err != nil {
				return err
			}
		}
		if req.Publisher != nil {
			b.Publisher = *req.Publisher
		}
		if req.PublicationYear != nil {
			b.PublicationYear = *req.PublicationYear
		}
		if req.Status != nil {
			if !req.Status.IsValid() {
				return apperrors.NewValidationError("status", "unknown book status")
			}
			b.Status = *req.Status
		}

		oldCopies := b.Copies
		outstanding, err := s.books.OutstandingCount(ctx, b.ID)
		if err != nil {
			return err
		}
		if req.Copies != nil {
			if *req.Copies < outstanding {
				return &apperrors.CustomError{
					Err:     apperrors.ErrCopiesBelowIssued,
					Message: fmt.Sprintf("%d copies are still issued", outstanding),
					Details: map[string]interface{}{"field": "copies"},
				}
			}
			b.Copies = *req.Copies
		}
		b.AvailableCopies += b.Copies - oldCopies
		if b.AvailableCopies < 0 {
			b.AvailableCopies = 0
		}
		if b.AvailableCopies > b.Copies {
			b.AvailableCopies = b.Copies
		}
		if b.Status == models.BookAvailable || b.Status == models.BookIssued {
			b.Status = models.BookAvailable
			if b.AvailableCopies == 0 {
				b.Status = models.BookIssued
			}
		}
		return s.books.Update(ctx, b)
	})
	if err != nil {
		return nil, fmt.Errorf("error updating book: %w", err)
	}
	return b, nil
}

func (s *LibraryService) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	return s.books.GetByID(ctx, id)
}

func (s *LibraryService) ListBooks(ctx context.Context, f models.BookFilter, p helpers.PageRequest) ([]*models.Book, int64, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, 0, err
	}
	return s.books.List(ctx, f, p)
}

func (s *LibraryService) DeleteBook(ctx context.Context, id int64) error {
	if _, err := librarian(ctx); err != nil {
		return err
	}
	outstanding, err := s.books.OutstandingCount(ctx, id)
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return apperrors.NewConflictError(fmt.Sprintf("%d copies are still issued", outstanding))
	}
	return s.books.Delete(ctx, id)
}

// ---- circulation ----

// IssueBook lends one copy to a student. The book row stays locked until the
// issue is recorded so two desks cannot hand out the last copy.
func (s *LibraryService) IssueBook(ctx context.Context, req *dto.IssueBookRequest) (*models.BookIssue, error) {
	if _, err := librarian(ctx); err != nil {
		return nil, err
	}

	issueDate := s.today()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	dueDate := issueDate.AddDays(s.config.LoanDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	if dueDate.Before(issueDate.Time) {
		return nil, apperrors.NewValidationError("dueDate", "due date cannot be before the issue date")
	}

	issue := &models.BookIssue{
		BookID:     req.BookID,
		StudentID:  req.StudentID,
		IssueDate:  issueDate,
		DueDate:    dueDate,
		Status:     models.IssueIssued,
		FineAmount: decimal.Zero,
		Remarks:    req.Remarks,
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		book, err := s.books.GetForUpdate(ctx, req.BookID)
		if err != nil {
			return refError(err, "bookId", "book")
		}
		if book.Status == models.BookLost || book.Status == models.BookDamaged {
			return &apperrors.CustomError{
				Err:     apperrors.ErrBookUnavailable,
				Message: fmt.Sprintf("book is %s", book.Status),
			}
		}
		if book.AvailableCopies <= 0 {
			return apperrors.ErrNoCopiesAvailable
		}
		if _, err := s.users.GetStudent(ctx, req.StudentID, models.Scope{All: true}); err != nil {
			return refError(err, "studentId", "student")
		}

		if err := s.books.CreateIssue(ctx, issue); err != nil {
			return err
		}
		book.CheckOut()
		return s.books.Update(ctx, book)
	})
	if err != nil {
		return nil, fmt.Errorf("error issuing book: %w", err)
	}

	s.logger.Info().Int64("bookId", issue.BookID).Int64("studentId", issue.StudentID).Msg("Book issued")
	return issue, nil
}

// ReturnBook closes an issue, charges the overdue fine and puts the copy back.
func (s *LibraryService) ReturnBook(ctx context.Context, id int64, req *dto.ReturnBookRequest) (*models.BookIssue, error) {
	if _, err := librarian(ctx); err != nil {
		return nil, err
	}

	var issue *models.BookIssue
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if issue, err = s.books.GetIssue(ctx, id, models.Scope{All: true}); err != nil {
			return err
		}
		if issue.Status == models.IssueReturned {
			return apperrors.ErrAlreadyReturned
		}
		book, err := s.books.GetForUpdate(ctx, issue.BookID)
		if err != nil {
			return err
		}

		returned := s.today()
		if req.ReturnDate != nil {
			returned = *req.ReturnDate
		}
		if returned.Before(issue.IssueDate.Time) {
			return apperrors.NewValidationError("returnDate", "return date cannot be before the issue date")
		}
		issue.ReturnDate = &returned
		issue.Status = models.IssueReturned
		issue.FineAmount = issue.FineFor(returned, s.config.FinePerDay)
		if req.Remarks != nil {
			issue.Remarks = *req.Remarks
		}
		if err := s.books.UpdateIssue(ctx, issue); err != nil {
			return err
		}

		book.CheckIn()
		return s.books.Update(ctx, book)
	})
	if err != nil {
		return nil, fmt.Errorf("error returning book: %w", err)
	}
	return issue, nil
}

// MarkLost flags an issue as lost. The copy stays off the shelf.
func (s *LibraryService) MarkLost(ctx context.Context, id int64) (*models.BookIssue, error) {
	if _, err := librarian(ctx); err != nil {
		return nil, err
	}

	var issue *models.BookIssue
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if issue, err = s.books.GetIssue(ctx, id, models.Scope{All: true}); err != nil {
			return err
		}
		switch issue.Status {
		case models.IssueReturned:
			return apperrors.ErrAlreadyReturned
		case models.IssueLost:
			return nil
		}
		issue.Status = models.IssueLost
		return s.books.UpdateIssue(ctx, issue)
	})
	if err != nil {
		return nil, fmt.Errorf("error marking book lost: %w", err)
	}
	return issue, nil
}

func issueScope(a *auth.Actor) (models.Scope, error) {
	scope := auth.ModuleScope(a, models.RoleLibrarian)
	if !auth.Visible(scope) {
		return scope, apperrors.NewForbiddenError("you cannot view book issues")
	}
	return scope, nil
}

func (s *LibraryService) GetIssue(ctx context.Context, id int64) (*models.BookIssue, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	scope, err := issueScope(actor)
	if err != nil {
		return nil, err
	}
	return s.books.GetIssue(ctx, id, scope)
}

func (s *LibraryService) ListIssues(ctx context.Context, f models.BookFilter, p helpers.PageRequest) ([]*models.BookIssue, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if f.Status != "" && !models.IssueStatus(f.Status).IsValid() {
		return nil, 0, apperrors.NewValidationError("status", "unknown issue status")
	}
	if f.Scope, err = issueScope(actor); err != nil {
		return nil, 0, err
	}
	return s.books.ListIssues(ctx, f, p)
}

// ListOverdue lists unreturned issues past their due date.
func (s *LibraryService) ListOverdue(ctx context.Context, p helpers.PageRequest) ([]*models.BookIssue, int64, error) {
	return s.ListIssues(ctx, models.BookFilter{Overdue: true}, p)
}

// SweepOverdue moves issued records past their due date to overdue.
func (s *LibraryService) SweepOverdue(ctx context.Context) (int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return 0, err
	}
	if err := auth.RequireAdmin(actor); err != nil {
		return 0, err
	}
	n, err := s.books.MarkOverdue(ctx, s.today())
	if err != nil {
		return 0, fmt.Errorf("error marking overdue issues: %w", err)
	}
	s.logger.Info().Int64("updated", n).Msg("Overdue book issues swept")
	return n, nil
}
