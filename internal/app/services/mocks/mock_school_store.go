package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockSchoolStore struct {
	mock.Mock
}

func (m *MockSchoolStore) Create(ctx context.Context, s *models.School) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSchoolStore) GetByID(ctx context.Context, id int64) (*models.School, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.School), args.Error(1)
}

func (m *MockSchoolStore) GetBySchema(ctx context.Context, schema string) (*models.School, error) {
	args := m.Called(ctx, schema)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.School), args.Error(1)
}

func (m *MockSchoolStore) GetByDomain(ctx context.Context, domain string) (*models.School, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.School), args.Error(1)
}

func (m *MockSchoolStore) List(ctx context.Context, f models.SchoolFilter, p helpers.PageRequest) ([]*models.School, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.School
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.School)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockSchoolStore) ListSchemas(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSchoolStore) Update(ctx context.Context, s *models.School) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSchoolStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSchoolStore) AddDomain(ctx context.Context, d *models.Domain) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockSchoolStore) ListDomains(ctx context.Context, schoolID int64) ([]models.Domain, error) {
	args := m.Called(ctx, schoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Domain), args.Error(1)
}

func (m *MockSchoolStore) DeleteDomain(ctx context.Context, schoolID int64, domainID int64) error {
	args := m.Called(ctx, schoolID, domainID)
	return args.Error(0)
}
