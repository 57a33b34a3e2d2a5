package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"clique/internal/delivery/http/controllers"
	"clique/internal/delivery/http/middleware"
	"clique/internal/domain"
)

// Controllers bundles the controllers the router mounts.
type Controllers struct {
	Auth   *controllers.AuthController
	User   *controllers.UserController
	Event  *controllers.EventController
	Friend *controllers.FriendController
	Chat   *controllers.ChatController
	WS     *controllers.WSController
}

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(ctrl Controllers, verifier domain.TokenVerifier, logger *slog.Logger, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", ctrl.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", ctrl.Auth.Login)

	// Users
	mux.HandleFunc("GET /users/me", auth(ctrl.User.GetMe))
	mux.HandleFunc("PATCH /users/me", auth(ctrl.User.UpdateMe))
	mux.HandleFunc("DELETE /users/me", auth(ctrl.User.DeleteMe))
	mux.HandleFunc("GET /users", auth(ctrl.User.ListUsers))
	mux.HandleFunc("GET /users/search", auth(ctrl.User.SearchUsers))
	mux.HandleFunc("GET /users/{userID}", auth(ctrl.User.GetUser))

	// Events
	mux.HandleFunc("POST /events", auth(ctrl.Event.CreateEvent))
	mux.HandleFunc("GET /events", auth(ctrl.Event.ListEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(ctrl.Event.GetEvent))
	mux.HandleFunc("PATCH /events/{eventID}", auth(ctrl.Event.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(ctrl.Event.DeleteEvent))
	mux.HandleFunc("POST /events/{eventID}/invites", auth(ctrl.Event.InviteUsers))
	mux.HandleFunc("DELETE /events/{eventID}/invites/{userID}", auth(ctrl.Event.RemoveInvitee))
	mux.HandleFunc("POST /events/{eventID}/rsvp", auth(ctrl.Event.Respond))

	// Chat
	mux.HandleFunc("GET /events/{eventID}/chat", auth(ctrl.Chat.GetMetadata))
	mux.HandleFunc("GET /events/{eventID}/chat/messages", auth(ctrl.Chat.ListMessages))
	mux.HandleFunc("POST /events/{eventID}/chat/messages", auth(ctrl.Chat.PostMessage))
	mux.HandleFunc("POST /events/{eventID}/chat/read", auth(ctrl.Chat.MarkRead))
	mux.HandleFunc("GET /events/{eventID}/chat/unread", auth(ctrl.Chat.UnreadCount))
	mux.HandleFunc("GET /chat/unread", auth(ctrl.Chat.TotalUnread))

	// Friends
	mux.HandleFunc("GET /friends", auth(ctrl.Friend.ListFriends))
	mux.HandleFunc("DELETE /friends/{userID}", auth(ctrl.Friend.RemoveFriend))
	mux.HandleFunc("POST /friends/requests", auth(ctrl.Friend.SendRequest))
	mux.HandleFunc("GET /friends/requests/received", auth(ctrl.Friend.ListReceivedRequests))
	mux.HandleFunc("GET /friends/requests/sent", auth(ctrl.Friend.ListSentRequests))
	mux.HandleFunc("DELETE /friends/requests/{userID}", auth(ctrl.Friend.CancelRequest))
	mux.HandleFunc("POST /friends/requests/{userID}/accept", auth(ctrl.Friend.AcceptRequest))
	mux.HandleFunc("GET /friends/state/{userID}", auth(ctrl.Friend.State))

	// Realtime
	mux.HandleFunc("GET /ws", auth(ctrl.WS.Connect))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = mux
	handler = middleware.CORS(allowedOrigins, handler)
	handler = middleware.LoggingMiddleware(logger, handler)
	return handler
}
