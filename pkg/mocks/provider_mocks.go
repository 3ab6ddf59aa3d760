package mocks

import (
	"context"

	"github.com/praxisflow/praxisflow/pkg/providers/chat"
	"github.com/praxisflow/praxisflow/pkg/providers/mail"
	"github.com/stretchr/testify/mock"
)

// MockMailSender is a mock implementation of the mail.Sender interface.
type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) Send(ctx context.Context, email mail.Email) error {
	args := m.Called(ctx, email)

	return args.Error(0)
}

// MockChatSender is a mock implementation of the chat.Sender interface.
type MockChatSender struct {
	mock.Mock
}

func (m *MockChatSender) Send(ctx context.Context, message chat.OutboundMessage) (string, error) {
	args := m.Called(ctx, message)

	return args.String(0), args.Error(1)
}
