package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/avatarly/avatar-relay/internal/conversation"
	"github.com/avatarly/avatar-relay/internal/domain"
	"github.com/avatarly/avatar-relay/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReplyService(provider llm.Provider) (*ReplyService, *conversation.MemoryStore) {
	store := conversation.NewMemoryStore("sys prompt")
	router := llm.NewRouter("mock-provider")
	router.RegisterProvider(provider)
	return NewReplyService(store, router, "mock-provider", 150, 0.7), store
}

func TestReplyService_Generate(t *testing.T) {
	provider := new(MockProvider)
	svc, store := newReplyService(provider)
	ctx := context.Background()

	provider.On("Complete", ctx, mock.MatchedBy(func(req llm.Request) bool {
		// Full history, system turn first, user turn appended before the call
		return len(req.Turns) == 2 &&
			req.Turns[0].Role == domain.RoleSystem &&
			req.Turns[1].Role == domain.RoleUser &&
			req.Turns[1].Content == "hello" &&
			req.MaxTokens == 150 &&
			req.Temperature == 0.7
	})).Return(&llm.Response{Text: "hi there", Model: "mock-model"}, nil)

	reply, err := svc.Generate(ctx, "sess-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)

	turns := store.GetOrCreate("sess-1")
	require.Len(t, turns, 3)
	assert.Equal(t, domain.RoleAssistant, turns[2].Role)
	assert.Equal(t, "hi there", turns[2].Content)

	provider.AssertExpectations(t)
}

func TestReplyService_HistoryGrowsTwoPerTurn(t *testing.T) {
	provider := new(MockProvider)
	svc, store := newReplyService(provider)
	ctx := context.Background()

	provider.On("Complete", ctx, mock.Anything).Return(&llm.Response{Text: "ok"}, nil)

	const n = 4
	for i := 0; i < n; i++ {
		_, err := svc.Generate(ctx, "sess-1", fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	turns := store.GetOrCreate("sess-1")
	assert.Len(t, turns, 1+2*n)
	for i := 0; i < n; i++ {
		assert.Equal(t, domain.RoleUser, turns[1+2*i].Role)
		assert.Equal(t, domain.RoleAssistant, turns[2+2*i].Role)
	}
}

func TestReplyService_UpstreamFailure(t *testing.T) {
	provider := new(MockProvider)
	svc, store := newReplyService(provider)
	ctx := context.Background()

	provider.On("Complete", ctx, mock.Anything).Return(nil, errors.New("upstream 500"))

	_, err := svc.Generate(ctx, "sess-1", "hello")
	assert.Error(t, err)

	// The user turn stays appended even when the reply fails
	turns := store.GetOrCreate("sess-1")
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[1].Role)
}

func TestReplyService_RemovedSessionNotResurrected(t *testing.T) {
	provider := new(MockProvider)
	svc, store := newReplyService(provider)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	provider.On("Complete", ctx, mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(&llm.Response{Text: "reply"}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Generate(ctx, "sess-1", "hello")
	}()

	// Disconnect cleanup races the in-flight completion
	<-started
	store.Remove("sess-1")
	close(release)
	<-done

	// The assistant append after removal must not recreate the entry
	turns := store.GetOrCreate("sess-1")
	require.Len(t, turns, 1)
	assert.Equal(t, domain.RoleSystem, turns[0].Role)
}

func TestReplyService_UnknownProvider(t *testing.T) {
	store := conversation.NewMemoryStore("sys")
	router := llm.NewRouter("nope")
	svc := NewReplyService(store, router, "nope", 150, 0.7)

	_, err := svc.Generate(context.Background(), "sess-1", "hello")
	assert.Error(t, err)
}
