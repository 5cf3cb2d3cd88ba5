package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/driftchat/realtime/internal/config"
	"github.com/driftchat/realtime/internal/domain"
	"github.com/driftchat/realtime/internal/hub"
	"github.com/driftchat/realtime/internal/service"
	"github.com/driftchat/realtime/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades connections and dispatches protocol events to the chat
// service. Authentication happens once, from the handshake, before the read
// loop starts.
type WSHandler struct {
	hub     *hub.Hub
	service service.ChatService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	h.hub.Register(client)
	go client.WritePump()

	if err := h.service.HandleConnect(c.Request.Context(), client, bearerToken(c.Request)); err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Str(log.FieldSessionID, client.ID).Msg("connection authentication failed")
		h.hub.Unregister(client)
		return
	}

	go func() {
		client.ReadPump(h.handleMessage)
		// ReadPump returns when the transport closes.
		if err := h.service.HandleDisconnect(context.Background(), client); err != nil {
			l := log.L()
			l.Error().Err(err).Str(log.FieldSessionID, client.ID).Msg("disconnect handling failed")
		}
	}()
}

// bearerToken extracts the credential from the Authorization header, falling
// back to the token query parameter for browser websocket clients that cannot
// set headers.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if tok, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return tok
		}
	}
	return r.URL.Query().Get("token")
}

// handleMessage runs on the session's read goroutine. Every branch reports
// failures back to the session; none may panic or kill the loop.
func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		client.SendEvent(domain.NewErrorEvent("BAD_REQUEST", "invalid message format"))
		return
	}

	ctx := context.Background()

	switch env.Event {
	case domain.EventJoinConversation:
		var p domain.JoinConversationPayload
		if !decode(client, env.Data, &p) {
			return
		}
		if err := h.service.HandleJoinConversation(ctx, client, p.ConversationID); err != nil {
			l := log.L()
			l.Debug().Err(err).Str(log.FieldSessionID, client.ID).Msg("join conversation failed")
		}

	case domain.EventLeaveConversation:
		var p domain.LeaveConversationPayload
		if !decode(client, env.Data, &p) {
			return
		}
		if err := h.service.HandleLeaveConversation(ctx, client, p.ConversationID); err != nil {
			l := log.L()
			l.Debug().Err(err).Str(log.FieldSessionID, client.ID).Msg("leave conversation failed")
		}

	case domain.EventSendMessage:
		var p domain.SendMessagePayload
		if !decode(client, env.Data, &p) {
			return
		}
		if err := h.service.HandleSendMessage(ctx, client, p); err != nil {
			l := log.L()
			l.Debug().Err(err).Str(log.FieldSessionID, client.ID).Msg("send message failed")
		}

	case domain.EventSendMediaMessage:
		var p domain.SendMediaMessagePayload
		if !decode(client, env.Data, &p) {
			return
		}
		if err := h.service.HandleSendMediaMessage(ctx, client, p); err != nil {
			l := log.L()
			l.Debug().Err(err).Str(log.FieldSessionID, client.ID).Msg("send media message failed")
		}

	case domain.EventGetFriendStatus:
		var p domain.GetFriendStatusPayload
		if !decode(client, env.Data, &p) {
			return
		}
		if err := h.service.HandleGetFriendStatus(ctx, client, p.FriendID); err != nil {
			l := log.L()
			l.Debug().Err(err).Str(log.FieldSessionID, client.ID).Msg("get friend status failed")
		}

	default:
		client.SendEvent(domain.NewErrorEvent("BAD_REQUEST", "unknown event"))
	}
}

func decode(client *hub.Client, data json.RawMessage, v interface{}) bool {
	if len(data) == 0 {
		client.SendEvent(domain.NewErrorEvent("BAD_REQUEST", "missing payload"))
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		client.SendEvent(domain.NewErrorEvent("BAD_REQUEST", "invalid payload"))
		return false
	}
	return true
}

// RegisterRoutes mounts the websocket endpoint.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}
