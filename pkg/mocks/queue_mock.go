// Package mocks provides testify mock implementations of the engine's ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mfigueira/formpilot/pkg/models"
)

// MockQueue is a mock implementation of the persistence.Queue interface.
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) UpdateQueueStatus(ctx context.Context, recordID string, status models.QueueStatus, errorMessage string) error {
	args := m.Called(ctx, recordID, status, errorMessage)

	return args.Error(0)
}

func (m *MockQueue) DeleteFromQueue(ctx context.Context, recordID string) error {
	args := m.Called(ctx, recordID)

	return args.Error(0)
}
