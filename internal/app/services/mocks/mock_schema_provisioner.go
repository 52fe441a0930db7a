package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockSchemaProvisioner struct {
	mock.Mock
}

func (m *MockSchemaProvisioner) Provision(ctx context.Context, schema string) error {
	args := m.Called(ctx, schema)
	return args.Error(0)
}

func (m *MockSchemaProvisioner) Drop(ctx context.Context, schema string) error {
	args := m.Called(ctx, schema)
	return args.Error(0)
}
