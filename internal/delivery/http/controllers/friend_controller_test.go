package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"clique/internal/delivery/http/helpers"
	"clique/internal/delivery/http/middleware"
	"clique/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFriendService implements domain.FriendService for handler tests.
type fakeFriendService struct {
	sendRequestErr   error
	cancelRequestErr error
	acceptRequestErr error
	removeFriendErr  error
	listErr          error
	friends          []*domain.User
	received         []*domain.User
	sent             []*domain.User
	stateErr         error
	stateResult      domain.PairState
	lastSenderID     string
	lastReceiverID   string
	lastCallerID     string
	lastOtherID      string
}

func (f *fakeFriendService) SendRequest(ctx context.Context, senderID, receiverID string) error {
	f.lastSenderID = senderID
	f.lastReceiverID = receiverID
	return f.sendRequestErr
}

func (f *fakeFriendService) CancelRequest(ctx context.Context, callerID, otherID string) error {
	f.lastCallerID = callerID
	f.lastOtherID = otherID
	return f.cancelRequestErr
}

func (f *fakeFriendService) AcceptRequest(ctx context.Context, receiverID, senderID string) error {
	f.lastReceiverID = receiverID
	f.lastSenderID = senderID
	return f.acceptRequestErr
}

func (f *fakeFriendService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	f.lastCallerID = userID
	f.lastOtherID = friendID
	return f.removeFriendErr
}

func (f *fakeFriendService) ListFriends(ctx context.Context, userID string) ([]*domain.User, error) {
	f.lastCallerID = userID
	return f.friends, f.listErr
}

func (f *fakeFriendService) ListReceivedRequests(ctx context.Context, userID string) ([]*domain.User, error) {
	f.lastCallerID = userID
	return f.received, f.listErr
}

func (f *fakeFriendService) ListSentRequests(ctx context.Context, userID string) ([]*domain.User, error) {
	f.lastCallerID = userID
	return f.sent, f.listErr
}

func (f *fakeFriendService) StateBetween(ctx context.Context, userID, otherID string) (domain.PairState, error) {
	f.lastCallerID = userID
	f.lastOtherID = otherID
	if f.stateErr != nil {
		return "", f.stateErr
	}
	if f.stateResult != "" {
		return f.stateResult, nil
	}
	return domain.PairNone, nil
}

func TestFriendController_SendRequest(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		fakeErr     error
		wantStatus  int
		wantErrCode string
	}{
		{
			name:       "success",
			body:       `{"receiver_id":"user-2"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:        "missing receiver",
			body:        `{}`,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "already friends",
			body:        `{"receiver_id":"user-2"}`,
			fakeErr:     domain.ErrAlreadyFriends,
			wantStatus:  http.StatusConflict,
			wantErrCode: helpers.ErrCodeConflict,
		},
		{
			name:        "request already pending",
			body:        `{"receiver_id":"user-2"}`,
			fakeErr:     domain.ErrRequestPending,
			wantStatus:  http.StatusConflict,
			wantErrCode: helpers.ErrCodeConflict,
		},
		{
			name:        "unknown receiver",
			body:        `{"receiver_id":"ghost"}`,
			fakeErr:     domain.ErrUserNotFound,
			wantStatus:  http.StatusNotFound,
			wantErrCode: helpers.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeFriendService{sendRequestErr: tt.fakeErr}
			ctrl := NewFriendController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
			rr := httptest.NewRecorder()

			ctrl.SendRequest(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				assert.Equal(t, "user-1", fake.lastSenderID)
				assert.Equal(t, "user-2", fake.lastReceiverID)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
			}
		})
	}
}

func TestFriendController_AcceptRequest(t *testing.T) {
	t.Run("receiver accepts", func(t *testing.T) {
		fake := &fakeFriendService{}
		ctrl := NewFriendController(testLogger, fake)
		req := httptest.NewRequest(http.MethodPost, "/friends/requests/user-1/accept", nil)
		req.SetPathValue("userID", "user-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-2"))
		rr := httptest.NewRecorder()

		ctrl.AcceptRequest(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "user-2", fake.lastReceiverID)
		assert.Equal(t, "user-1", fake.lastSenderID)
	})

	t.Run("only the receiver may accept", func(t *testing.T) {
		fake := &fakeFriendService{acceptRequestErr: domain.ErrForbidden}
		ctrl := NewFriendController(testLogger, fake)
		req := httptest.NewRequest(http.MethodPost, "/friends/requests/user-1/accept", nil)
		req.SetPathValue("userID", "user-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-3"))
		rr := httptest.NewRecorder()

		ctrl.AcceptRequest(rr, req)

		require.Equal(t, http.StatusForbidden, rr.Code)
		envelope := decodeEnvelope(t, rr)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, helpers.ErrCodeForbidden, envelope.Error.Code)
	})
}

func TestFriendController_CancelRequest(t *testing.T) {
	fake := &fakeFriendService{}
	ctrl := NewFriendController(testLogger, fake)
	req := httptest.NewRequest(http.MethodDelete, "/friends/requests/user-2", nil)
	req.SetPathValue("userID", "user-2")
	req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
	rr := httptest.NewRecorder()

	ctrl.CancelRequest(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-1", fake.lastCallerID)
	assert.Equal(t, "user-2", fake.lastOtherID)
}

func TestFriendController_ListFriends(t *testing.T) {
	fake := &fakeFriendService{friends: []*domain.User{
		{ID: "user-2", Username: "ben"},
		{ID: "user-3", Username: "cleo"},
	}}
	ctrl := NewFriendController(testLogger, fake)
	req := httptest.NewRequest(http.MethodGet, "/friends", nil)
	req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
	rr := httptest.NewRecorder()

	ctrl.ListFriends(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	envelope := decodeEnvelope(t, rr)
	require.Nil(t, envelope.Error)
	dataBytes, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var users []*domain.User
	require.NoError(t, json.Unmarshal(dataBytes, &users))
	require.Len(t, users, 2)
	assert.Equal(t, "ben", users[0].Username)
}

func TestFriendController_State(t *testing.T) {
	tests := []struct {
		name  string
		state domain.PairState
	}{
		{name: "none", state: domain.PairNone},
		{name: "request sent", state: domain.PairRequestSent},
		{name: "request received", state: domain.PairRequestReceived},
		{name: "friends", state: domain.PairFriends},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeFriendService{stateResult: tt.state}
			ctrl := NewFriendController(testLogger, fake)
			req := httptest.NewRequest(http.MethodGet, "/friends/state/user-2", nil)
			req.SetPathValue("userID", "user-2")
			req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
			rr := httptest.NewRecorder()

			ctrl.State(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)
			envelope := decodeEnvelope(t, rr)
			require.Nil(t, envelope.Error)
			dataBytes, err := json.Marshal(envelope.Data)
			require.NoError(t, err)
			var resp StateResponse
			require.NoError(t, json.Unmarshal(dataBytes, &resp))
			assert.Equal(t, tt.state, resp.State)
			assert.Equal(t, "user-2", fake.lastOtherID)
		})
	}
}
