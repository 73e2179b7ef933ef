package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/idcard-backend/internal/middleware"
	"github.com/stemsi/idcard-backend/internal/model"
	"github.com/stemsi/idcard-backend/internal/response"
	ws "github.com/stemsi/idcard-backend/internal/websocket"
)

const feedPingInterval = 30 * time.Second

// EventSubscriber attaches to the registration event stream.
type EventSubscriber interface {
	Subscribe(ctx context.Context) *redis.PubSub
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// FeedHandler streams registration events to admins over WebSocket.
type FeedHandler struct {
	events   EventSubscriber
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(events EventSubscriber, log zerolog.Logger, allowedOrigins []string) *FeedHandler {
	return &FeedHandler{
		events:   events,
		log:      log.With().Str("component", "feed_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// Submissions godoc
// WS /ws/v1/admin/submissions
// Pushes student.submitted and student.status_changed events as they happen.
func (h *FeedHandler) Submissions(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.events.Subscribe(ctx)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before telling the client.
	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.Error().Err(err).Msg("Subscribe failed")
		ws.WriteError(conn, "event stream unavailable")
		return
	}

	wsLog := h.log.With().Str("username", session.Admin.Username).Logger()
	wsLog.Info().Msg("Admin attached to submission feed")
	defer wsLog.Info().Msg("Admin detached from submission feed")

	pings := make(chan struct{}, 1)
	go h.readPump(conn, cancel, pings)

	if err := ws.WriteTyped(conn, ws.ReadyResponse{Event: ws.EventReady, Username: session.Admin.Username}); err != nil {
		return
	}

	keepAlive := time.NewTicker(feedPingInterval)
	defer keepAlive.Stop()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event model.StudentEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				wsLog.Warn().Err(err).Msg("Dropping malformed event")
				continue
			}
			if err := ws.WriteTyped(conn, ws.StudentResponse{Event: ws.EventStudent, Data: event}); err != nil {
				return
			}

		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}

		case <-keepAlive.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}

// readPump consumes client frames until the connection closes. Only ping
// actions are understood; everything else is ignored.
func (h *FeedHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc, pings chan<- struct{}) {
	defer cancel()
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		if msg.Action == ws.ActionPing {
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}
