package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockBookStore struct {
	mock.Mock
}

func (m *MockBookStore) Create(ctx context.Context, b *models.Book) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookStore) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockBookStore) GetForUpdate(ctx context.Context, id int64) (*models.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockBookStore) List(ctx context.Context, f models.BookFilter, p helpers.PageRequest) ([]*models.Book, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.Book
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Book)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockBookStore) Update(ctx context.Context, b *models.Book) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookStore) OutstandingCount(ctx context.Context, bookID int64) (int, error) {
	args := m.Called(ctx, bookID)
	return args.Int(0), args.Error(1)
}

func (m *MockBookStore) CreateIssue(ctx context.Context, i *models.BookIssue) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}

func (m *MockBookStore) GetIssue(ctx context.Context, id int64, scope models.Scope) (*models.BookIssue, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookIssue), args.Error(1)
}

func (m *MockBookStore) ListIssues(ctx context.Context, f models.BookFilter, p helpers.PageRequest) ([]*models.BookIssue, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.BookIssue
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.BookIssue)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockBookStore) UpdateIssue(ctx context.Context, i *models.BookIssue) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}

func (m *MockBookStore) MarkOverdue(ctx context.Context, today models.Date) (int64, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(int64), args.Error(1)
}
