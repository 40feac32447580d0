package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/service"
	ws "github.com/newprojects-ai/lvnplus-apiV2/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
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

// EventSubscriber opens the live event feed of one plan.
type EventSubscriber interface {
	Subscribe(ctx context.Context, planID identity.ID) *redis.PubSub
}

// WSHandler streams execution events to the planner of a test plan.
type WSHandler struct {
	events      EventSubscriber
	planService *service.TestPlanService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(events EventSubscriber, planService *service.TestPlanService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		events:      events,
		planService: planService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// PlanStream godoc
// WS /ws/v1/test-plans/:id/stream?token=
// Sends the plan with its current execution, then every execution event
// of the plan as it happens.
func (h *WSHandler) PlanStream(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.planService.Watch(c.Request.Context(), a, planID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Subscribe before the snapshot is taken so no event falls in between.
	pubsub := h.events.Subscribe(ctx, planID)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		failWithError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("plan_id", planID.String()).
		Str("user_id", a.ID.String()).
		Logger()
	wsLog.Info().Msg("Watcher connected")

	if err := ws.WriteTyped(conn, ws.SnapshotResponse{Event: ws.EventSnapshot, TestPlan: view}); err != nil {
		return
	}

	replies := make(chan any, 4)
	go h.readLoop(ctx, cancel, conn, replies, wsLog)

	events := pubsub.Channel()
	ping := time.NewTicker(ws.PingPeriod)
	defer ping.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			wsLog.Info().Msg("Watcher disconnected")
			return

		case msg, ok := <-events:
			if !ok {
				return
			}
			err = ws.WriteTyped(conn, ws.ExecutionResponse{
				Event:   ws.EventExecution,
				Payload: []byte(msg.Payload),
			})

		case reply := <-replies:
			err = ws.WriteTyped(conn, reply)

		case <-ping.C:
			err = ws.WritePing(conn)
		}

		if err != nil {
			wsLog.Debug().Err(err).Msg("Write failed")
			return
		}
	}
}

// readLoop owns the read side of conn. All writes stay on the caller's
// goroutine; replies are handed over on the channel.
func (h *WSHandler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, replies chan<- any, log zerolog.Logger) {
	defer cancel()
	ws.KeepAlive(conn)

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		var reply any
		switch msg.Action {
		case ws.ActionPing:
			reply = ws.PongResponse{Event: ws.EventPong}
		default:
			reply = ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)}
		}

		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}
