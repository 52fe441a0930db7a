package dto

import "github.com/yigit/schoolsphere/internal/app/models"

type BookRequest struct {
	Title           string            `json:"title" binding:"required,max=255"`
	Author          string            `json:"author" binding:"required,max=255"`
	ISBN            string            `json:"isbn" binding:"required,isbn13" example:"9780306406157"`
	Publisher       string            `json:"publisher" binding:"omitempty,max=255"`
	PublicationYear int               `json:"publicationYear" binding:"omitempty,min=1000,max=9999"`
	Copies          int               `json:"copies" binding:"required,min=1"`
	Status          models.BookStatus `json:"status" binding:"omitempty,oneof=available issued lost damaged"`
}

type UpdateBookRequest struct {
	Title           *string            `json:"title" binding:"omitempty,max=255"`
	Author          *string            `json:"author" binding:"omitempty,max=255"`
	ISBN            *string            `json:"isbn" binding:"omitempty,isbn13"`
	Publisher       *string            `json:"publisher" binding:"omitempty,max=255"`
	PublicationYear *int               `json:"publicationYear" binding:"omitempty,min=1000,max=9999"`
	Copies          *int               `json:"copies" binding:"omitempty,min=0"`
	Status          *models.BookStatus `json:"status" binding:"omitempty,oneof=available issued lost damaged"`
}

type IssueBookRequest struct {
	BookID    int64        `json:"bookId" binding:"required,gt=0"`
	StudentID int64        `json:"studentId" binding:"required,gt=0"`
	IssueDate *models.Date `json:"issueDate"`
	DueDate   *models.Date `json:"dueDate"`
	Remarks   string       `json:"remarks" binding:"omitempty,max=500"`
}

type ReturnBookRequest struct {
	ReturnDate *models.Date `json:"returnDate"`
	Remarks    *string      `json:"remarks" binding:"omitempty,max=500"`
}
