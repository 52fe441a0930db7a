package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookStatus is the shelf state of a title.
type BookStatus string

const (
	BookAvailable BookStatus = "available"
	BookIssued    BookStatus = "issued"
	BookLost      BookStatus = "lost"
	BookDamaged   BookStatus = "damaged"
)

func (s BookStatus) IsValid() bool {
	switch s {
	case BookAvailable, BookIssued, BookLost, BookDamaged:
		return true
	}
	return false
}

// IssueStatus tracks a circulation record.
type IssueStatus string

const (
	IssueIssued   IssueStatus = "issued"
	IssueReturned IssueStatus = "returned"
	IssueOverdue  IssueStatus = "overdue"
	IssueLost     IssueStatus = "lost"
)

func (s IssueStatus) IsValid() bool {
	switch s {
	case IssueIssued, IssueReturned, IssueOverdue, IssueLost:
		return true
	}
	return false
}

// Book keeps 0 <= AvailableCopies <= Copies.
type Book struct {
	ID              int64      `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Author          string     `json:"author" db:"author"`
	ISBN            string     `json:"isbn" db:"isbn"`
	Publisher       string     `json:"publisher" db:"publisher"`
	PublicationYear int        `json:"publicationYear" db:"publication_year"`
	Copies          int        `json:"copies" db:"copies"`
	AvailableCopies int        `json:"availableCopies" db:"available_copies"`
	Status          BookStatus `json:"status" db:"status"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// CheckOut takes one copy off the shelf.
func (b *Book) CheckOut() {
	if b.AvailableCopies > 0 {
		b.AvailableCopies--
	}
	if b.AvailableCopies == 0 {
		b.Status = BookIssued
	}
}

// CheckIn puts one copy back, never exceeding Copies.
func (b *Book) CheckIn() {
	if b.AvailableCopies < b.Copies {
		b.AvailableCopies++
	}
	b.Status = BookAvailable
}

// BookIssue is a circulation record.
type BookIssue struct {
	ID         int64           `json:"id" db:"id"`
	BookID     int64           `json:"bookId" db:"book_id"`
	StudentID  int64           `json:"studentId" db:"student_id"`
	IssueDate  Date            `json:"issueDate" db:"issue_date"`
	DueDate    Date            `json:"dueDate" db:"due_date"`
	ReturnDate *Date           `json:"returnDate,omitempty" db:"return_date"`
	Status     IssueStatus     `json:"status" db:"status"`
	FineAmount decimal.Decimal `json:"fineAmount" db:"fine_amount"`
	Remarks    string          `json:"remarks" db:"remarks"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

// FineFor returns the overdue fine when returned on the given day.
func (i *BookIssue) FineFor(returned Date, perDay decimal.Decimal) decimal.Decimal {
	late := i.DueDate.DaysUntil(returned)
	if late <= 0 {
		return decimal.Zero
	}
	return perDay.Mul(decimal.NewFromInt(int64(late)))
}

// BookFilter narrows book and issue listings.
type BookFilter struct {
	Search    string
	Status    string
	BookID    int64
	StudentID int64
	Overdue   bool
	Scope     Scope
}
