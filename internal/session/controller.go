// Package session drives the per-connection turn-taking state machine:
// one inbound user message triggers a reply generation followed by a
// video render, with progress events pushed to the client in between.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/avatarly/avatar-relay/internal/conversation"
	"github.com/avatarly/avatar-relay/internal/protocol"
	"github.com/rs/zerolog"
)

// State of a connection's turn pipeline
type State int

const (
	StateIdle State = iota
	StateAwaitingReply
	StateAwaitingVideo
	StateClosed
)

// EventSender delivers outbound events to one client connection
type EventSender interface {
	Send(ev protocol.Event) error
}

// ReplyGenerator produces the assistant reply for a user message
type ReplyGenerator interface {
	Generate(ctx context.Context, sessionID, userText string) (string, error)
}

// VideoSynthesizer renders a narrated avatar video for a script
type VideoSynthesizer interface {
	Submit(ctx context.Context, text string) (string, error)
	AwaitCompletion(ctx context.Context, jobID string) (string, error)
}

// Config holds controller settings shared by all connections
type Config struct {
	WelcomeVideoURL string
	LoadingImageURL string

	// WelcomeDelay is a cosmetic pause after the welcome event before
	// input is consumed. Zero disables it.
	WelcomeDelay time.Duration
}

// Controller owns the state machine for a single connection. Turns run
// one at a time: a message arriving while a turn is in flight is
// rejected with an error event.
type Controller struct {
	id      string
	cfg     Config
	store   conversation.Store
	replies ReplyGenerator
	videos  VideoSynthesizer
	sender  EventSender
	logger  zerolog.Logger

	mu       sync.Mutex
	state    State
	welcomed bool
}

// NewController creates the state machine for one connection identified
// by a generated session token.
func NewController(
	id string,
	cfg Config,
	store conversation.Store,
	replies ReplyGenerator,
	videos VideoSynthesizer,
	sender EventSender,
	logger zerolog.Logger,
) *Controller {
	return &Controller{
		id:      id,
		cfg:     cfg,
		store:   store,
		replies: replies,
		videos:  videos,
		sender:  sender,
		logger:  logger.With().Str("session_id", id).Logger(),
	}
}

// ID returns the session token
func (c *Controller) ID() string {
	return c.id
}

// State returns the current pipeline state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Welcome sends the one-time welcome event. Calling it again is a
// no-op, so a connection sees at most one welcome.
func (c *Controller) Welcome(ctx context.Context) {
	c.mu.Lock()
	if c.welcomed || c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.welcomed = true
	c.mu.Unlock()

	c.send(protocol.Welcome(c.cfg.WelcomeVideoURL))

	if c.cfg.WelcomeDelay > 0 {
		select {
		case <-time.After(c.cfg.WelcomeDelay):
		case <-ctx.Done():
		}
	}
}

// HandleMessage runs one full turn for an inbound message. Whitespace-
// only messages are ignored. It is safe to call from a fresh goroutine
// per message; the in-flight guard keeps turns sequential.
func (c *Controller) HandleMessage(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	c.mu.Lock()
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return
	case StateAwaitingReply, StateAwaitingVideo:
		c.mu.Unlock()
		c.send(protocol.Error(protocol.MsgBusy))
		return
	}
	c.state = StateAwaitingReply
	c.mu.Unlock()

	defer c.setIdle()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("unhandled fault during turn")
			c.send(protocol.Error(protocol.MsgServerError))
		}
	}()

	c.runTurn(ctx, text)
}

// runTurn executes the thinking -> reply -> speaking -> video sequence.
// A context.Canceled from any stage means the transport is gone, so
// nothing is reported to the client.
func (c *Controller) runTurn(ctx context.Context, text string) {
	c.send(protocol.Status(protocol.MsgThinking, c.cfg.LoadingImageURL))

	reply, err := c.replies.Generate(ctx, c.id, text)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Error().Err(err).Msg("reply generation failed")
		c.send(protocol.Error(protocol.MsgServerError))
		return
	}

	c.send(protocol.TextResponse(reply))
	c.send(protocol.Status(protocol.MsgSpeaking, c.cfg.LoadingImageURL))

	c.setState(StateAwaitingVideo)

	jobID, err := c.videos.Submit(ctx, reply)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Error().Err(err).Msg("video submission failed")
		c.send(protocol.Error(protocol.MsgVideoFailed))
		return
	}

	url, err := c.videos.AwaitCompletion(ctx, jobID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logger.Warn().Err(err).Str("job_id", jobID).Msg("video did not complete")
		c.send(protocol.Error(protocol.MsgVideoTimeout))
		return
	}

	c.send(protocol.VideoReady(url, reply))
}

// Close marks the connection terminal and discards its history. Any
// pending upstream work is released by the caller cancelling the
// connection context.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.state = StateClosed
	c.store.Remove(c.id)
	c.logger.Debug().Msg("session closed")
}

func (c *Controller) setIdle() {
	c.setState(StateIdle)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.state = s
}

func (c *Controller) send(ev protocol.Event) {
	if err := c.sender.Send(ev); err != nil {
		c.logger.Debug().Err(err).Str("type", ev.Type).Msg("event send failed")
	}
}
