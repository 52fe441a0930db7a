package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) Create(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageStore) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageStore) List(ctx context.Context, f models.CommunicationFilter, p helpers.PageRequest) ([]*models.Message, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.Message
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Message)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockMessageStore) MarkRead(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMessageStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
