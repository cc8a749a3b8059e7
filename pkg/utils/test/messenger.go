package testutils

import (
	"context"
	"fmt"
)

// SentMessage is one message captured by the mock messenger.
type SentMessage struct {
	To   string
	Text string
}

// MockMessenger is a test messenger that captures outbound messages.
type MockMessenger struct {
	Sent []SentMessage

	// FailSend causes SendText to return an error.
	FailSend bool
}

func NewMockMessenger() *MockMessenger {
	return &MockMessenger{
		Sent: make([]SentMessage, 0),
	}
}

func (m *MockMessenger) SendText(_ context.Context, to string, text string) error {
	if m.FailSend {
		return fmt.Errorf("mock send failure")
	}
	m.Sent = append(m.Sent, SentMessage{To: to, Text: text})
	return nil
}

func (m *MockMessenger) Close() error {
	return nil
}
