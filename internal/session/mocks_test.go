package session

import (
	"context"
	"sync"

	"github.com/avatarly/avatar-relay/internal/protocol"
	"github.com/stretchr/testify/mock"
)

// MockReplyGenerator mocks the ReplyGenerator interface
type MockReplyGenerator struct {
	mock.Mock
}

func (m *MockReplyGenerator) Generate(ctx context.Context, sessionID, userText string) (string, error) {
	args := m.Called(ctx, sessionID, userText)
	return args.String(0), args.Error(1)
}

// MockVideoSynthesizer mocks the VideoSynthesizer interface
type MockVideoSynthesizer struct {
	mock.Mock
}

func (m *MockVideoSynthesizer) Submit(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (m *MockVideoSynthesizer) AwaitCompletion(ctx context.Context, jobID string) (string, error) {
	args := m.Called(ctx, jobID)
	return args.String(0), args.Error(1)
}

// recordingSender captures every event pushed to the client
type recordingSender struct {
	mu     sync.Mutex
	events []protocol.Event
}

func (s *recordingSender) Send(ev protocol.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSender) Events() []protocol.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSender) Types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		types = append(types, ev.Type)
	}
	return types
}
