package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockAnnouncementStore struct {
	mock.Mock
}

func (m *MockAnnouncementStore) Create(ctx context.Context, a *models.Announcement) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAnnouncementStore) GetByID(ctx context.Context, id int64) (*models.Announcement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Announcement), args.Error(1)
}

func (m *MockAnnouncementStore) List(ctx context.Context, f models.CommunicationFilter, p helpers.PageRequest) ([]*models.Announcement, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.Announcement
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Announcement)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockAnnouncementStore) Update(ctx context.Context, a *models.Announcement) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAnnouncementStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
