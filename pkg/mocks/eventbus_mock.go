package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mfigueira/formpilot/pkg/eventbus"
)

// MockEventPublisher is a mock implementation of eventbus.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, key string, event eventbus.Event) error {
	args := m.Called(ctx, key, event)

	return args.Error(0)
}
