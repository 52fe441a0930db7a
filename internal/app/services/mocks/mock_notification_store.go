package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) CreateMany(ctx context.Context, items []*models.Notification) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockNotificationStore) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotificationStore) List(ctx context.Context, f models.CommunicationFilter, p helpers.PageRequest) ([]*models.Notification, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.Notification
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Notification)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationStore) MarkRead(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNotificationStore) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNotificationStore) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}
