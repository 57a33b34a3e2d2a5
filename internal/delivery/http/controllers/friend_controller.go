package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"clique/internal/delivery/http/helpers"
	"clique/internal/delivery/http/middleware"
	"clique/internal/domain"
)

type FriendController struct {
	Logger  *slog.Logger
	Service domain.FriendService
}

func NewFriendController(logger *slog.Logger, svc domain.FriendService) *FriendController {
	return &FriendController{
		Logger:  logger,
		Service: svc,
	}
}

// SendRequestRequest is the request body for POST /friends/requests.
type SendRequestRequest struct {
	ReceiverID string `json:"receiver_id"`
}

// Validate implements Validator.
func (s SendRequestRequest) Validate() []string {
	if strings.TrimSpace(s.ReceiverID) == "" {
		return []string{"receiver_id is required"}
	}
	return nil
}

// SendRequest godoc
// @Summary Send a friend request
// @Description Refused with 409 when the pair is already friends or a request is pending in either direction.
// @Tags friends
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SendRequestRequest true "Receiver"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /friends/requests [post]
func (c *FriendController) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req SendRequestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.SendRequest(r.Context(), userID, req.ReceiverID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, map[string]string{"status": "sent"})
}

// CancelRequest godoc
// @Summary Cancel or decline a friend request
// @Description The sender cancels their outgoing request; the receiver declines an incoming one. Either way the pending request between the two users is removed.
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param userID path string true "The other user's ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /friends/requests/{userID} [delete]
func (c *FriendController) CancelRequest(w http.ResponseWriter, r *http.Request) {
	otherID := r.PathValue("userID")
	if otherID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing userID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.CancelRequest(r.Context(), userID, otherID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "removed"})
}

// AcceptRequest godoc
// @Summary Accept a friend request
// @Description Creates the friendship and removes the pending request in one step.
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param userID path string true "The sender's user ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /friends/requests/{userID}/accept [post]
func (c *FriendController) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	senderID := r.PathValue("userID")
	if senderID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing userID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.AcceptRequest(r.Context(), userID, senderID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// ListFriends godoc
// @Summary List friends
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the friends"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /friends [get]
func (c *FriendController) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	friends, err := c.Service.ListFriends(r.Context(), userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, friends)
}

// RemoveFriend godoc
// @Summary Remove a friend
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param userID path string true "The friend's user ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /friends/{userID} [delete]
func (c *FriendController) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	friendID := r.PathValue("userID")
	if friendID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing userID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.RemoveFriend(r.Context(), userID, friendID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ListReceivedRequests godoc
// @Summary List received friend requests
// @Description Returns the users whose requests are waiting on the authenticated user.
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the senders"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /friends/requests/received [get]
func (c *FriendController) ListReceivedRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	users, err := c.Service.ListReceivedRequests(r.Context(), userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, users)
}

// ListSentRequests godoc
// @Summary List sent friend requests
// @Description Returns the users the authenticated user has pending requests to.
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the receivers"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /friends/requests/sent [get]
func (c *FriendController) ListSentRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	users, err := c.Service.ListSentRequests(r.Context(), userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, users)
}

// StateResponse is the response body for GET /friends/state/{userID}.
type StateResponse struct {
	State domain.PairState `json:"state"`
}

// State godoc
// @Summary Get the relationship state with another user
// @Description One of "none", "request_sent", "request_received", "friends", from the authenticated user's perspective.
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param userID path string true "The other user's ID"
// @Success 200 {object} helpers.APIResponse "data contains the state"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /friends/state/{userID} [get]
func (c *FriendController) State(w http.ResponseWriter, r *http.Request) {
	otherID := r.PathValue("userID")
	if otherID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing userID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	state, err := c.Service.StateBetween(r.Context(), userID, otherID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StateResponse{State: state})
}
