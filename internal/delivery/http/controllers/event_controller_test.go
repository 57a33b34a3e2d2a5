package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clique/internal/delivery/http/helpers"
	"clique/internal/delivery/http/middleware"
	"clique/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	createEventErr     error
	getEventErr        error
	getEventResult     *domain.Event
	listForUserErr     error
	listForUserResult  []*domain.Event
	updateEventErr     error
	updateEventResult  *domain.Event
	deleteEventErr     error
	inviteUsersErr     error
	removeInviteeErr   error
	respondErr         error
	respondResult      *domain.RSVPResult
	lastCreateEvent    *domain.Event
	lastCreateIDs      []string
	lastCreatePhones   []string
	lastEventID        string
	lastCallerID       string
	lastInviteUserIDs  []string
	lastInvitePhones   []string
	lastRemovedUserID  string
	lastRespondAction  domain.RSVPAction
	lastUpdate         domain.EventUpdate
}

func (f *fakeEventService) CreateEvent(ctx context.Context, event *domain.Event, invitedIDs, invitedPhones []string) error {
	f.lastCreateEvent = event
	f.lastCreateIDs = invitedIDs
	f.lastCreatePhones = invitedPhones
	if f.createEventErr != nil {
		return f.createEventErr
	}
	event.ID = "ev-created"
	return nil
}

func (f *fakeEventService) GetEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	f.lastEventID = eventID
	f.lastCallerID = callerID
	if f.getEventErr != nil {
		return nil, f.getEventErr
	}
	if f.getEventResult != nil {
		return f.getEventResult, nil
	}
	return &domain.Event{ID: eventID, Title: "BBQ", HostID: callerID}, nil
}

func (f *fakeEventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	return f.listForUserResult, f.listForUserErr
}

func (f *fakeEventService) ListEventsForUser(ctx context.Context, userID string) ([]*domain.Event, error) {
	f.lastCallerID = userID
	return f.listForUserResult, f.listForUserErr
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, eventID, callerID string, upd domain.EventUpdate) (*domain.Event, error) {
	f.lastEventID = eventID
	f.lastCallerID = callerID
	f.lastUpdate = upd
	if f.updateEventErr != nil {
		return nil, f.updateEventErr
	}
	if f.updateEventResult != nil {
		return f.updateEventResult, nil
	}
	return &domain.Event{ID: eventID, HostID: callerID}, nil
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	f.lastEventID = eventID
	f.lastCallerID = callerID
	return f.deleteEventErr
}

func (f *fakeEventService) InviteUsers(ctx context.Context, eventID, callerID string, userIDs, phones []string) error {
	f.lastEventID = eventID
	f.lastCallerID = callerID
	f.lastInviteUserIDs = userIDs
	f.lastInvitePhones = phones
	return f.inviteUsersErr
}

func (f *fakeEventService) RemoveInvitee(ctx context.Context, eventID, callerID, userID string) error {
	f.lastEventID = eventID
	f.lastCallerID = callerID
	f.lastRemovedUserID = userID
	return f.removeInviteeErr
}

func (f *fakeEventService) RespondToInvite(ctx context.Context, eventID, userID string, action domain.RSVPAction) (*domain.RSVPResult, error) {
	f.lastEventID = eventID
	f.lastCallerID = userID
	f.lastRespondAction = action
	if f.respondErr != nil {
		return nil, f.respondErr
	}
	if f.respondResult != nil {
		return f.respondResult, nil
	}
	return &domain.RSVPResult{EventID: eventID, UserID: userID, From: domain.AttendanceInvited, To: domain.AttendanceAccepted}, nil
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be a valid JSON envelope")
	return envelope
}

func TestEventController_CreateEvent(t *testing.T) {
	start := time.Date(2026, 7, 4, 18, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	tests := []struct {
		name           string
		body           string
		fakeErr        error
		noUserContext  bool
		wantStatus     int
		wantErrSubstr  string
		checkService   func(t *testing.T, fake *fakeEventService)
	}{
		{
			name: "success",
			body: `{"title":"BBQ","start_time":"2026-07-04T18:00:00Z","end_time":"2026-07-04T21:00:00Z",` +
				`"invited_ids":["user-2"],"invited_phones":["+14155550100"]}`,
			wantStatus: http.StatusCreated,
			checkService: func(t *testing.T, fake *fakeEventService) {
				require.NotNil(t, fake.lastCreateEvent)
				assert.Equal(t, "BBQ", fake.lastCreateEvent.Title)
				assert.Equal(t, "user-123", fake.lastCreateEvent.HostID)
				assert.Equal(t, start, fake.lastCreateEvent.StartTime)
				assert.Equal(t, end, fake.lastCreateEvent.EndTime)
				assert.Equal(t, []string{"user-2"}, fake.lastCreateIDs)
				assert.Equal(t, []string{"+14155550100"}, fake.lastCreatePhones)
			},
		},
		{
			name:       "open ended event",
			body:       `{"title":"Game night","start_time":"2026-07-04T18:00:00Z","no_end_time":true}`,
			wantStatus: http.StatusCreated,
			checkService: func(t *testing.T, fake *fakeEventService) {
				require.NotNil(t, fake.lastCreateEvent)
				assert.True(t, fake.lastCreateEvent.NoEndTime)
				assert.True(t, fake.lastCreateEvent.EndTime.IsZero())
			},
		},
		{
			name:          "missing title",
			body:          `{"start_time":"2026-07-04T18:00:00Z","end_time":"2026-07-04T21:00:00Z"}`,
			wantStatus:    http.StatusBadRequest,
			wantErrSubstr: "title is required",
		},
		{
			name:          "missing end time without no_end_time",
			body:          `{"title":"BBQ","start_time":"2026-07-04T18:00:00Z"}`,
			wantStatus:    http.StatusBadRequest,
			wantErrSubstr: "end_time is required",
		},
		{
			name:          "invalid json",
			body:          `{invalid`,
			wantStatus:    http.StatusBadRequest,
			wantErrSubstr: "invalid",
		},
		{
			name:          "no user in context",
			body:          `{"title":"BBQ","start_time":"2026-07-04T18:00:00Z","no_end_time":true}`,
			noUserContext: true,
			wantStatus:    http.StatusUnauthorized,
			wantErrSubstr: "unauthorized",
		},
		{
			name:          "service error",
			body:          `{"title":"BBQ","start_time":"2026-07-04T18:00:00Z","no_end_time":true}`,
			fakeErr:       errors.New("db error"),
			wantStatus:    http.StatusInternalServerError,
			wantErrSubstr: "db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{createEventErr: tt.fakeErr}
			ctrl := NewEventController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if !tt.noUserContext {
				req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
			}
			rr := httptest.NewRecorder()

			ctrl.CreateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error, "success response must have error nil")
				if tt.checkService != nil {
					tt.checkService(t, fake)
				}
			} else {
				require.NotNil(t, envelope.Error, "error response must have error set")
				assert.Contains(t, envelope.Error.Message, tt.wantErrSubstr, "error message")
			}
		})
	}
}

func TestEventController_Respond(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		fakeErr       error
		wantStatus    int
		wantErrCode   string
		wantAction    domain.RSVPAction
	}{
		{
			name:       "accept",
			body:       `{"action":"accept"}`,
			wantStatus: http.StatusOK,
			wantAction: domain.RSVPAccept,
		},
		{
			name:       "leave",
			body:       `{"action":"leave"}`,
			wantStatus: http.StatusOK,
			wantAction: domain.RSVPLeave,
		},
		{
			name:        "unknown action",
			body:        `{"action":"maybe"}`,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "wrong state",
			body:        `{"action":"decline"}`,
			fakeErr:     domain.ErrPreconditionFailed,
			wantStatus:  http.StatusConflict,
			wantErrCode: helpers.ErrCodePreconditionFailed,
		},
		{
			name:        "event not found",
			body:        `{"action":"accept"}`,
			fakeErr:     domain.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantErrCode: helpers.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{respondErr: tt.fakeErr}
			ctrl := NewEventController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/events/ev-1/rsvp", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.SetPathValue("eventID", "ev-1")
			req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
			rr := httptest.NewRecorder()

			ctrl.Respond(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				assert.Equal(t, "ev-1", fake.lastEventID)
				assert.Equal(t, "user-123", fake.lastCallerID)
				assert.Equal(t, tt.wantAction, fake.lastRespondAction)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
			}
		})
	}
}

func TestEventController_UpdateEvent(t *testing.T) {
	t.Run("partial update passes only set fields", func(t *testing.T) {
		fake := &fakeEventService{}
		ctrl := NewEventController(testLogger, fake)
		req := httptest.NewRequest(http.MethodPatch, "/events/ev-1", bytes.NewBufferString(`{"title":"New title"}`))
		req.Header.Set("Content-Type", "application/json")
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.UpdateEvent(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, fake.lastUpdate.Title)
		assert.Equal(t, "New title", *fake.lastUpdate.Title)
		assert.Nil(t, fake.lastUpdate.StartTime)
		assert.Nil(t, fake.lastUpdate.Description)
	})

	t.Run("non host is forbidden", func(t *testing.T) {
		fake := &fakeEventService{updateEventErr: domain.ErrForbidden}
		ctrl := NewEventController(testLogger, fake)
		req := httptest.NewRequest(http.MethodPatch, "/events/ev-1", bytes.NewBufferString(`{"title":"New title"}`))
		req.Header.Set("Content-Type", "application/json")
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-456"))
		rr := httptest.NewRecorder()

		ctrl.UpdateEvent(rr, req)

		require.Equal(t, http.StatusForbidden, rr.Code)
		envelope := decodeEnvelope(t, rr)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, helpers.ErrCodeForbidden, envelope.Error.Code)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		fake := &fakeEventService{}
		ctrl := NewEventController(testLogger, fake)
		req := httptest.NewRequest(http.MethodPatch, "/events/ev-1", bytes.NewBufferString(`{"title":"  "}`))
		req.Header.Set("Content-Type", "application/json")
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.UpdateEvent(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestEventController_InviteUsers(t *testing.T) {
	t.Run("passes ids and phones through", func(t *testing.T) {
		fake := &fakeEventService{}
		ctrl := NewEventController(testLogger, fake)
		body := `{"user_ids":["user-2"],"phones":["+14155550100"]}`
		req := httptest.NewRequest(http.MethodPost, "/events/ev-1/invites", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.InviteUsers(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"user-2"}, fake.lastInviteUserIDs)
		assert.Equal(t, []string{"+14155550100"}, fake.lastInvitePhones)
	})

	t.Run("empty invite list rejected", func(t *testing.T) {
		fake := &fakeEventService{}
		ctrl := NewEventController(testLogger, fake)
		req := httptest.NewRequest(http.MethodPost, "/events/ev-1/invites", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.InviteUsers(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestEventController_DeleteEvent(t *testing.T) {
	t.Run("host deletes", func(t *testing.T) {
		fake := &fakeEventService{}
		ctrl := NewEventController(testLogger, fake)
		req := httptest.NewRequest(http.MethodDelete, "/events/ev-1", nil)
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.DeleteEvent(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ev-1", fake.lastEventID)
		assert.Equal(t, "user-123", fake.lastCallerID)
	})

	t.Run("missing eventID", func(t *testing.T) {
		fake := &fakeEventService{}
		ctrl := NewEventController(testLogger, fake)
		req := httptest.NewRequest(http.MethodDelete, "/events/", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.DeleteEvent(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
