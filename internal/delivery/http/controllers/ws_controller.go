package controllers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"clique/internal/delivery/http/helpers"
	"clique/internal/delivery/http/middleware"
	"clique/internal/domain"
	"clique/internal/realtime"
	"clique/internal/session"
)

// WSController upgrades authenticated requests to websocket connections and
// attaches them to the realtime hub.
type WSController struct {
	Logger         *slog.Logger
	Hub            *realtime.Hub
	ChatService    domain.ChatService
	EventRepo      domain.EventRepository
	FriendshipRepo domain.FriendshipRepository
	RequestRepo    domain.FriendRequestRepository
	ChatRepo       domain.ChatRepository
	AllowedOrigins []string
}

func NewWSController(
	logger *slog.Logger,
	hub *realtime.Hub,
	chatService domain.ChatService,
	eventRepo domain.EventRepository,
	friendshipRepo domain.FriendshipRepository,
	requestRepo domain.FriendRequestRepository,
	chatRepo domain.ChatRepository,
	allowedOrigins []string,
) *WSController {
	return &WSController{
		Logger:         logger,
		Hub:            hub,
		ChatService:    chatService,
		EventRepo:      eventRepo,
		FriendshipRepo: friendshipRepo,
		RequestRepo:    requestRepo,
		ChatRepo:       chatRepo,
		AllowedOrigins: allowedOrigins,
	}
}

// Connect godoc
// @Summary Open the realtime sync websocket
// @Description Upgrades to a websocket, sends a full state snapshot, then streams incremental updates.
// @Tags realtime
// @Security BearerAuth
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /ws [get]
func (c *WSController) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	snap, err := session.Load(r.Context(), userID, c.EventRepo, c.FriendshipRepo, c.RequestRepo, c.ChatRepo)
	if err != nil {
		c.Logger.Error("load session snapshot", "error", err, "user_id", userID)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return slices.Contains(c.AllowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		c.Logger.Warn("websocket upgrade failed", "error", err, "user_id", userID)
		return
	}

	client := realtime.NewClient(userID, snap, conn, c.Hub, c.ChatService, c.Logger)
	client.Register()
	go client.Write()
	go client.Read()
}
