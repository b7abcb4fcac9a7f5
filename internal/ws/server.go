// Package ws terminates the client websocket and bridges frames to the
// per-connection session controller.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/avatarly/avatar-relay/internal/conversation"
	"github.com/avatarly/avatar-relay/internal/protocol"
	"github.com/avatarly/avatar-relay/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	maxMessageSize = 4096
	pongWait       = 120 * time.Second
	pingInterval   = 45 * time.Second
	writeWait      = 10 * time.Second
)

// Server upgrades HTTP requests to websocket connections and runs one
// session controller per connection.
type Server struct {
	cfg      session.Config
	store    conversation.Store
	replies  session.ReplyGenerator
	videos   session.VideoSynthesizer
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new websocket server
func NewServer(
	cfg session.Config,
	store conversation.Store,
	replies session.ReplyGenerator,
	videos session.VideoSynthesizer,
	logger zerolog.Logger,
) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		replies: replies,
		videos:  videos,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Browser clients are served from the same process
				return true
			},
		},
	}
}

// Handle upgrades the request and services the connection until the
// client goes away. Each connection gets a generated session token and
// its own controller; closing the connection cancels any in-flight
// upstream work for that session only.
func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sessionID := uuid.New().String()
	sender := newConnSender(conn)
	ctrl := session.NewController(sessionID, s.cfg, s.store, s.replies, s.videos, sender, s.logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		ctrl.Close()
		conn.Close()
	}()

	s.logger.Info().Str("session_id", sessionID).Str("remote", r.RemoteAddr).Msg("client connected")

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go s.keepAlive(ctx, conn)

	ctrl.Welcome(ctx)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("websocket read error")
			}
			break
		}

		var msg protocol.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug().Err(err).Str("session_id", sessionID).Msg("malformed inbound frame")
			sender.Send(protocol.Error(protocol.MsgServerError))
			continue
		}

		// Turns run off the read loop so a slow upstream call never
		// blocks other connections or the busy-reject path.
		go ctrl.HandleMessage(ctx, msg.Message)
	}

	s.logger.Info().Str("session_id", sessionID).Msg("client disconnected")
}

// keepAlive pings the client until the connection context ends
func (s *Server) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// connSender serializes outbound event writes on one connection
type connSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newConnSender(conn *websocket.Conn) *connSender {
	return &connSender{conn: conn}
}

// Send encodes and writes a single event frame
func (s *connSender) Send(ev protocol.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(ev)
}
