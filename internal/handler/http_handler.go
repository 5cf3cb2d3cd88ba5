package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/driftchat/realtime/internal/domain"
	"github.com/driftchat/realtime/internal/repository"
	"github.com/driftchat/realtime/internal/service"
	"github.com/driftchat/realtime/pkg/log"
	"github.com/driftchat/realtime/pkg/response"
)

// HTTPHandler serves the REST surface: conversation bootstrap, message
// history and the friend-request lifecycle. Realtime delivery stays on the
// websocket side.
type HTTPHandler struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	friends  service.FriendsService
}

func NewHTTPHandler(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	friends service.FriendsService,
) *HTTPHandler {
	return &HTTPHandler{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		friends:  friends,
	}
}

// RegisterRoutes mounts the authenticated API routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	api := r.Group("/api", auth)

	api.POST("/conversations/get-or-create", h.getOrCreateConversation)
	api.GET("/conversations", h.listConversations)
	api.GET("/messages", h.listMessages)
	api.POST("/messages", h.createMessage)
	api.POST("/friends/requests", h.sendFriendRequest)
	api.POST("/friends/requests/:id/accept", h.acceptFriendRequest)
	api.POST("/friends/requests/:id/reject", h.rejectFriendRequest)
	api.GET("/friends/requests", h.listPendingRequests)
	api.GET("/friends", h.listFriends)
}

type getOrCreateConversationRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

type conversationResponse struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	PeerID       string    `json:"peerId,omitempty"`
	UnreadCount  int64     `json:"unreadCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (h *HTTPHandler) getOrCreateConversation(c *gin.Context) {
	var req getOrCreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "participantId is required")
		return
	}
	userID := currentUser(c)

	conv, err := h.convRepo.GetOrCreate(c.Request.Context(), []string{userID, req.ParticipantID})
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("failed to get or create conversation")
		response.InternalError(c, "failed to get or create conversation")
		return
	}

	response.Success(c, conversationResponse{
		ID:           conv.ID,
		Participants: conv.Participants,
		PeerID:       conv.OtherParticipant(userID),
		UpdatedAt:    conv.UpdatedAt,
	})
}

func (h *HTTPHandler) listConversations(c *gin.Context) {
	userID := currentUser(c)
	ctx := c.Request.Context()

	convs, err := h.convRepo.ListForUser(ctx, userID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to list conversations")
		response.InternalError(c, "failed to list conversations")
		return
	}

	out := make([]conversationResponse, 0, len(convs))
	for _, conv := range convs {
		peer := conv.OtherParticipant(userID)
		var unread int64
		if peer != "" {
			if unread, err = h.msgRepo.UnreadCount(ctx, conv.ID, peer); err != nil {
				l := log.Ctx(ctx)
				l.Error().Err(err).Str(log.FieldConversationID, conv.ID).Msg("failed to count unread messages")
				unread = 0
			}
		}
		out = append(out, conversationResponse{
			ID:           conv.ID,
			Participants: conv.Participants,
			PeerID:       peer,
			UnreadCount:  unread,
			UpdatedAt:    conv.UpdatedAt,
		})
	}

	response.Success(c, out)
}

func (h *HTTPHandler) listMessages(c *gin.Context) {
	conversationID := c.Query("conversationId")
	if conversationID == "" {
		response.BadRequest(c, "conversationId is required")
		return
	}
	ctx := c.Request.Context()

	if !h.requireParticipant(c, conversationID) {
		return
	}

	msgs, err := h.msgRepo.ListOrdered(ctx, conversationID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldConversationID, conversationID).Msg("failed to list messages")
		response.InternalError(c, "failed to list messages")
		return
	}

	response.Success(c, msgs)
}

type createMessageRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
	Content        string `json:"content" binding:"required"`
	Type           string `json:"type"`
}

func (h *HTTPHandler) createMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "conversationId and content are required")
		return
	}
	ctx := c.Request.Context()

	if !h.requireParticipant(c, req.ConversationID) {
		return
	}

	msg := &domain.Message{
		ConversationID: req.ConversationID,
		SenderID:       currentUser(c),
		Content:        req.Content,
		Type:           domain.NormalizeMessageType(req.Type),
	}
	if err := h.msgRepo.Create(ctx, msg); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldConversationID, req.ConversationID).Msg("failed to create message")
		response.InternalError(c, "failed to create message")
		return
	}

	response.Created(c, msg)
}

// requireParticipant enforces the conversation authorization gate for REST
// callers, writing the error response itself on failure.
func (h *HTTPHandler) requireParticipant(c *gin.Context, conversationID string) bool {
	ok, err := h.convRepo.IsParticipant(c.Request.Context(), conversationID, currentUser(c))
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			response.NotFound(c, "conversation not found")
			return false
		}
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str(log.FieldConversationID, conversationID).Msg("failed to check participation")
		response.InternalError(c, "failed to check participation")
		return false
	}
	if !ok {
		response.Forbidden(c, "you are not a participant in this conversation")
		return false
	}
	return true
}

type friendRequestRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
}

func (h *HTTPHandler) sendFriendRequest(c *gin.Context) {
	var req friendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "receiverId is required")
		return
	}

	f, err := h.friends.SendRequest(c.Request.Context(), currentUser(c), req.ReceiverID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfRequest):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrAlreadyFriends),
			errors.Is(err, service.ErrRequestAlreadySent),
			errors.Is(err, service.ErrRequestAlreadyReceived):
			response.Conflict(c, err.Error())
		default:
			l := log.Ctx(c.Request.Context())
			l.Error().Err(err).Msg("failed to send friend request")
			response.InternalError(c, "failed to send friend request")
		}
		return
	}

	response.Created(c, f)
}

func (h *HTTPHandler) acceptFriendRequest(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}

	f, err := h.friends.AcceptRequest(c.Request.Context(), currentUser(c), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrFriendshipNotFound):
			response.NotFound(c, "friend request not found")
		case errors.Is(err, service.ErrNotRequestReceiver):
			response.Forbidden(c, err.Error())
		case errors.Is(err, service.ErrRequestNotPending):
			response.Conflict(c, err.Error())
		default:
			l := log.Ctx(c.Request.Context())
			l.Error().Err(err).Msg("failed to accept friend request")
			response.InternalError(c, "failed to accept friend request")
		}
		return
	}

	response.Success(c, f)
}

func (h *HTTPHandler) rejectFriendRequest(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}

	if err := h.friends.RejectRequest(c.Request.Context(), currentUser(c), uint(id)); err != nil {
		switch {
		case errors.Is(err, repository.ErrFriendshipNotFound):
			response.NotFound(c, "friend request not found")
		case errors.Is(err, service.ErrNotRequestReceiver):
			response.Forbidden(c, err.Error())
		case errors.Is(err, service.ErrRequestNotPending):
			response.Conflict(c, err.Error())
		default:
			l := log.Ctx(c.Request.Context())
			l.Error().Err(err).Msg("failed to reject friend request")
			response.InternalError(c, "failed to reject friend request")
		}
		return
	}

	response.Success(c, nil)
}

func (h *HTTPHandler) listPendingRequests(c *gin.Context) {
	reqs, err := h.friends.ListPending(c.Request.Context(), currentUser(c))
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("failed to list pending requests")
		response.InternalError(c, "failed to list pending requests")
		return
	}
	response.Success(c, reqs)
}

func (h *HTTPHandler) listFriends(c *gin.Context) {
	ids, err := h.friends.ListFriends(c.Request.Context(), currentUser(c))
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("failed to list friends")
		response.InternalError(c, "failed to list friends")
		return
	}
	response.Success(c, ids)
}
