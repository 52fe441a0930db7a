package mocks

import (
	"github.com/stretchr/testify/mock"
)

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Publish(schema string, userIDs []int64, eventType string, data any) {
	m.Called(schema, userIDs, eventType, data)
}
