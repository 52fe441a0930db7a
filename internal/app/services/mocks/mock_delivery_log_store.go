package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockDeliveryLogStore struct {
	mock.Mock
}

func (m *MockDeliveryLogStore) ListEmails(ctx context.Context, since time.Time, p helpers.PageRequest) ([]*models.EmailLog, int64, error) {
	args := m.Called(ctx, since, p)
	var r0 []*models.EmailLog
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.EmailLog)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockDeliveryLogStore) ListSMS(ctx context.Context, since time.Time, p helpers.PageRequest) ([]*models.SMSLog, int64, error) {
	args := m.Called(ctx, since, p)
	var r0 []*models.SMSLog
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.SMSLog)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}
