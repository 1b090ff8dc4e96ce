package blog

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"blog-pulse/cmd/server/ctxkeys"
	"blog-pulse/cmd/server/handlers/handlerutil"
	"blog-pulse/cmd/server/handlers/httperr"
	"blog-pulse/internal/logger"
	"blog-pulse/internal/services/blog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// WSClosePolicyViolation represents WebSocket close code for policy violation
	WSClosePolicyViolation = 1008

	wsWriteTimeout     = 10 * time.Second
	wsPingInterval     = 25 * time.Second
	wsPingWriteTimeout = 5 * time.Second

	msgFailedToCloseWebSocketConnection = "failed to close WebSocket connection"
)

// Hub is the subscription side of the post event hub
type Hub interface {
	Subscribe(connULID ulid.ULID, postID bson.ObjectID) (*blog.Subscriber, func())
}

// WebSocketHandlers contains the post activity stream handlers
type WebSocketHandlers struct {
	hub           Hub
	maxSessionSec int
	pingInterval  time.Duration
}

// NewWebSocketHandlers creates new WebSocket handlers
func NewWebSocketHandlers(hub Hub, maxSessionSec int) *WebSocketHandlers {
	return &WebSocketHandlers{
		hub:           hub,
		maxSessionSec: maxSessionSec,
		pingInterval:  wsPingInterval,
	}
}

// WSUpgrade admits logged-in WebSocket upgrades to the post stream.
// The optional post query parameter narrows the stream to one post.
// @Summary Stream post activity
// @Tags blog
// @Param post query string false "Post ID filter"
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /ws/blog/stream [get]
func (h *WebSocketHandlers) WSUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		logger.L().Warn("websocket upgrade required", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(httperr.E{
			Status:  fiber.StatusBadRequest,
			Code:    httperr.CodeBadRequest,
			Message: "WebSocket upgrade required",
		})
	}

	s, ok := handlerutil.CurrentSession(c)
	if !ok {
		logger.L().Warn("websocket upgrade without session", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(httperr.ErrUnauthorized)
	}

	postID := blog.AllPosts
	if raw := c.Query("post"); raw != "" {
		id, err := bson.ObjectIDFromHex(raw)
		if err != nil {
			logger.L().Warn("invalid post filter", "handler", "WSUpgrade", "post", raw)
			return httperr.Fail(httperr.E{
				Status:  fiber.StatusBadRequest,
				Code:    httperr.CodeBadRequest,
				Message: "Invalid post id",
			})
		}
		postID = id
	}

	c.Locals(ctxkeys.StreamUserKey, s.User.ID.Hex())
	c.Locals(ctxkeys.StreamPostKey, postID)
	c.Locals(ctxkeys.ParentCtxKey, c.UserContext())

	return c.Next()
}

// WSPostStream pushes post events to a connected client until it leaves
// or the session cap elapses
func (h *WebSocketHandlers) WSPostStream(c *websocket.Conn) {
	conn, parentCtx, err := h.initializeConnection(c)
	if err != nil {
		h.closeConnection(c)
		return
	}

	ctx, cancelCtx := context.WithCancel(parentCtx)
	defer cancelCtx()

	subscriber, cancel := h.hub.Subscribe(conn.connULID, conn.postID)
	defer cancel()

	logger.L().Info("WebSocket connection established", "user_id", conn.userID, "post_id", conn.postID.Hex(), "conn_id", conn.connID)

	sessionTimer := h.startSessionTimer(c, conn, cancelCtx)
	defer sessionTimer.Stop()

	ping := h.startKeepAlive(ctx, c, conn)
	defer ping.Stop()

	go h.handleOutgoingMessages(ctx, c, conn, subscriber)

	h.handleIncomingMessages(c, conn)

	logger.L().Info("WebSocket connection closed", "user_id", conn.userID, "conn_id", conn.connID)
}

// wsConnection is the per-connection state. The keepalive, the event sender
// and the session timer all write to the same socket, which allows a single
// writer at a time; every write holds writeMu.
type wsConnection struct {
	userID   string
	postID   bson.ObjectID
	connULID ulid.ULID
	connID   string
	writeMu  sync.Mutex
}

func (h *WebSocketHandlers) initializeConnection(c *websocket.Conn) (*wsConnection, context.Context, error) {
	userID, ok := c.Locals(ctxkeys.StreamUserKey).(string)
	if !ok {
		logger.L().Error(ctxkeys.StreamUserKey + " not found in WebSocket context")
		return nil, nil, fmt.Errorf("%s not found", ctxkeys.StreamUserKey)
	}

	postID, ok := c.Locals(ctxkeys.StreamPostKey).(bson.ObjectID)
	if !ok {
		logger.L().Error(ctxkeys.StreamPostKey + " not found in WebSocket context")
		return nil, nil, fmt.Errorf("%s not found", ctxkeys.StreamPostKey)
	}

	parentCtx, ok := c.Locals(ctxkeys.ParentCtxKey).(context.Context)
	if !ok {
		logger.L().Error(ctxkeys.ParentCtxKey + " not found in WebSocket context")
		return nil, nil, errors.New(ctxkeys.ParentCtxKey + " not found")
	}

	connULID := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader)

	return &wsConnection{
		userID:   userID,
		postID:   postID,
		connULID: connULID,
		connID:   connULID.String(),
	}, parentCtx, nil
}

func (h *WebSocketHandlers) closeConnection(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		logger.L().Error(msgFailedToCloseWebSocketConnection, "error", err)
	}
}

func (h *WebSocketHandlers) startSessionTimer(c *websocket.Conn, conn *wsConnection, cancelCtx context.CancelFunc) *time.Timer {
	return time.AfterFunc(time.Duration(h.maxSessionSec)*time.Second, func() {
		logger.L().Info("WebSocket session timeout", "user_id", conn.userID, "conn_id", conn.connID)
		h.sendCloseMessage(c, conn)
		h.closeConnection(c)
		cancelCtx()
	})
}

func (h *WebSocketHandlers) sendCloseMessage(c *websocket.Conn, conn *wsConnection) {
	conn.writeMu.Lock()
	defer conn.writeMu.Unlock()

	err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(WSClosePolicyViolation, "session timeout"))
	if err != nil {
		logger.L().Error("failed to send close message", "error", err, "user_id", conn.userID, "conn_id", conn.connID)
	}
}

func (h *WebSocketHandlers) startKeepAlive(ctx context.Context, c *websocket.Conn, conn *wsConnection) *time.Ticker {
	ping := time.NewTicker(h.pingInterval)
	go func() {
		for {
			select {
			case <-ping.C:
				if h.sendPing(c, conn) != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return ping
}

func (h *WebSocketHandlers) sendPing(c *websocket.Conn, conn *wsConnection) error {
	conn.writeMu.Lock()
	defer conn.writeMu.Unlock()

	if err := c.SetWriteDeadline(time.Now().Add(wsPingWriteTimeout)); err != nil {
		logger.L().Error("failed to set write deadline", "error", err, "user_id", conn.userID, "conn_id", conn.connID)
		return err
	}
	if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
		logger.L().Warn("failed to write ping message", "error", err, "user_id", conn.userID, "conn_id", conn.connID)
		return err
	}
	return nil
}

func (h *WebSocketHandlers) handleOutgoingMessages(ctx context.Context, c *websocket.Conn, conn *wsConnection, subscriber *blog.Subscriber) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error("panic in WebSocket sender", "error", r, "user_id", conn.userID)
		}
	}()

	for {
		select {
		case event, ok := <-subscriber.Ch:
			if !ok {
				return
			}
			if h.sendEvent(c, conn, event) != nil {
				return
			}
		case <-subscriber.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *WebSocketHandlers) sendEvent(c *websocket.Conn, conn *wsConnection, event blog.PostEvent) error {
	conn.writeMu.Lock()
	defer conn.writeMu.Unlock()

	if err := c.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		logger.L().Error("failed to set write deadline", "error", err, "user_id", conn.userID, "conn_id", conn.connID)
		return err
	}
	if err := c.WriteJSON(event); err != nil {
		logger.L().Error("failed to write WebSocket message", "error", err, "user_id", conn.userID, "conn_id", conn.connID)
		return err
	}
	return nil
}

// handleIncomingMessages drains the client side; the stream is one-way
func (h *WebSocketHandlers) handleIncomingMessages(c *websocket.Conn, conn *wsConnection) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.L().Error("WebSocket error", "error", err, "user_id", conn.userID, "conn_id", conn.connID)
			}
			return
		}
	}
}

// LogWSConnections logs every WebSocket upgrade attempt with the session user, if any
func LogWSConnections() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			user := ""
			if s, ok := handlerutil.CurrentSession(c); ok {
				user = s.User.ID.Hex()
			}
			logger.L().Info("WebSocket upgrade attempt", "ip", c.IP(), "user", user)
		}
		return c.Next()
	}
}
