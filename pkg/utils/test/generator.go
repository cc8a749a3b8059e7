package testutils

import (
	"context"
	"fmt"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/llm"
)

// MockGenerator is a test generator that returns a canned reply and records
// the prompts it receives.
type MockGenerator struct {
	// Reply is returned by every Generate call.
	Reply string

	// Prompts accumulates the message slices passed to Generate.
	Prompts [][]llm.Message

	// FailGenerate causes Generate to return an error.
	FailGenerate bool
}

func NewMockGenerator(reply string) *MockGenerator {
	return &MockGenerator{Reply: reply}
}

func (m *MockGenerator) Generate(_ context.Context, messages []llm.Message) (string, error) {
	prompt := make([]llm.Message, len(messages))
	copy(prompt, messages)
	m.Prompts = append(m.Prompts, prompt)

	if m.FailGenerate {
		return "", fmt.Errorf("mock generate failure")
	}
	return m.Reply, nil
}

func (m *MockGenerator) Close() error {
	return nil
}
