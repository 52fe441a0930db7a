package mocks

import (
	"context"
	"mime/multipart"

	"github.com/stretchr/testify/mock"
)

type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) SaveFileWithPath(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error) {
	args := m.Called(ctx, fileHeader, prefix)
	return args.String(0), args.Error(1)
}

func (m *MockFileStorage) DeleteFile(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockFileStorage) URL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
