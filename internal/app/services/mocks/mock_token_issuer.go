package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/pkg/auth"
)

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateTokenPair(sub auth.Subject) (*auth.TokenPair, error) {
	args := m.Called(sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TokenPair), args.Error(1)
}

func (m *MockTokenIssuer) GetRefreshTokenExpiry() time.Time {
	args := m.Called()
	return args.Get(0).(time.Time)
}
