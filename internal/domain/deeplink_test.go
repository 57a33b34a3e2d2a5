package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeepLinkRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		link *DeepLink
	}{
		{
			name: "event detail with invite and chat",
			link: &DeepLink{Route: RouteEventDetail, EventID: "ev1", InviteFlag: true, OpenChat: true, PreferredTab: "details"},
		},
		{
			name: "friends tab section",
			link: &DeepLink{Route: RouteFriendsTab, Section: "requests"},
		},
		{
			name: "plain tab",
			link: &DeepLink{Route: RouteTab, Tab: "events"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, ok := DecodeDeepLink(tt.link.EncodePayload())
			require.True(t, ok)
			require.Equal(t, tt.link, decoded)
		})
	}
}

func TestDecodeDeepLink_Tolerant(t *testing.T) {
	_, ok := DecodeDeepLink(map[string]string{"route": "settings_page"})
	require.False(t, ok)

	_, ok = DecodeDeepLink(map[string]string{"route": "event_detail"})
	require.False(t, ok, "event detail without event id")

	_, ok = DecodeDeepLink(nil)
	require.False(t, ok)
}
