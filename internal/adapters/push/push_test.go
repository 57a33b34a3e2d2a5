package push

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clique/internal/domain"
)

func TestOneSignalNotifier_Send(t *testing.T) {
	var captured oneSignalRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/notifications", r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := &oneSignalNotifier{
		appID:   "app-1",
		apiKey:  "key-1",
		client:  &http.Client{Timeout: time.Second},
		baseURL: srv.URL,
	}

	link := &domain.DeepLink{Route: domain.RouteEventDetail, EventID: "event-1", InviteFlag: true, PreferredTab: "details"}
	err := n.Send(context.Background(), domain.Notification{
		RecipientID: "user-1",
		Title:       "Picnic",
		Message:     "Ana invited you",
		DeepLink:    link,
	})
	require.NoError(t, err)

	require.Equal(t, "Basic key-1", auth)
	require.Equal(t, "app-1", captured.AppID)
	require.Equal(t, []string{"user-1"}, captured.ExternalUserIDs)
	require.Equal(t, map[string]string{"en": "Ana invited you"}, captured.Contents)
	require.Equal(t, map[string]string{"en": "Picnic"}, captured.Headings)

	// The data map must parse back to the deep link the app receives.
	decoded, ok := domain.DecodeDeepLink(captured.Data)
	require.True(t, ok)
	require.Equal(t, link, decoded)
}

func TestOneSignalNotifier_Send_Errors(t *testing.T) {
	t.Run("missing recipient", func(t *testing.T) {
		n := &oneSignalNotifier{client: http.DefaultClient}
		err := n.Send(context.Background(), domain.Notification{Message: "hi"})
		require.Error(t, err)
	})

	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"errors":["invalid app id"]}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		n := &oneSignalNotifier{
			appID:   "app-1",
			apiKey:  "key-1",
			client:  &http.Client{Timeout: time.Second},
			baseURL: srv.URL,
		}
		err := n.Send(context.Background(), domain.Notification{RecipientID: "user-1", Message: "hi"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "status 400")
	})
}
