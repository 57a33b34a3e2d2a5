package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"clique/internal/delivery/http/helpers"
	"clique/internal/delivery/http/middleware"
	"clique/internal/domain"
)

type ChatController struct {
	Logger  *slog.Logger
	Service domain.ChatService
}

func NewChatController(logger *slog.Logger, svc domain.ChatService) *ChatController {
	return &ChatController{
		Logger:  logger,
		Service: svc,
	}
}

// PostMessageRequest is the request body for POST /events/{eventID}/chat/messages.
type PostMessageRequest struct {
	Body string `json:"body"`
}

// Validate implements Validator.
func (p PostMessageRequest) Validate() []string {
	if strings.TrimSpace(p.Body) == "" {
		return []string{"body is required"}
	}
	return nil
}

// PostMessage godoc
// @Summary Post a chat message
// @Description Participants only. Increments the unread count of every other participant and pushes a notification to them.
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body PostMessageRequest true "Message"
// @Success 201 {object} helpers.APIResponse "data contains the message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/chat/messages [post]
func (c *ChatController) PostMessage(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req PostMessageRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	msg, err := c.Service.PostMessage(r.Context(), eventID, userID, req.Body)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, msg)
}

// ListMessagesResponse is the response body for GET /events/{eventID}/chat/messages.
type ListMessagesResponse struct {
	Messages []*domain.ChatMessage  `json:"messages"`
	Meta     helpers.PaginationMeta `json:"meta"`
}

// ListMessages godoc
// @Summary List chat messages for an event
// @Description Participants only. Newest page first.
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains messages and meta"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/chat/messages [get]
func (c *ChatController) ListMessages(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	msgs, total, err := c.Service.ListMessages(r.Context(), eventID, userID, params)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListMessagesResponse{
		Messages: msgs,
		Meta:     helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// GetMetadata godoc
// @Summary Get chat metadata for an event
// @Description Participants only. Last message preview and per-user unread counts.
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the metadata"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/chat [get]
func (c *ChatController) GetMetadata(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	meta, err := c.Service.GetMetadata(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, meta)
}

// MarkRead godoc
// @Summary Mark an event's chat as read
// @Description Zeroes the authenticated user's unread count for the event. Idempotent.
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/chat/read [post]
func (c *ChatController) MarkRead(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.MarkRead(r.Context(), eventID, userID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "read"})
}

// UnreadResponse is the response body for the unread count endpoints.
type UnreadResponse struct {
	Unread int `json:"unread"`
}

// UnreadCount godoc
// @Summary Get the unread count for one event's chat
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the count"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/chat/unread [get]
func (c *ChatController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	n, err := c.Service.UnreadCount(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, UnreadResponse{Unread: n})
}

// TotalUnread godoc
// @Summary Get the total unread count across all chats
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the count"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /chat/unread [get]
func (c *ChatController) TotalUnread(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	n, err := c.Service.TotalUnread(r.Context(), userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, UnreadResponse{Unread: n})
}
