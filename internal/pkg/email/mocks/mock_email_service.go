package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/pkg/email"
)

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendSchoolAdminCredentials(ctx context.Context, to email.Recipient, schoolName, username, password, loginURL string) error {
	args := m.Called(ctx, to, schoolName, username, password, loginURL)
	return args.Error(0)
}

func (m *MockEmailService) SendPasswordReset(ctx context.Context, to email.Recipient, token string) error {
	args := m.Called(ctx, to, token)
	return args.Error(0)
}

func (m *MockEmailService) SendWelcomeEmail(ctx context.Context, to email.Recipient) error {
	args := m.Called(ctx, to)
	return args.Error(0)
}
