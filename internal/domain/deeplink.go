package domain

import "strconv"

// DeepLinkRoute tags the in-app destination a notification tap should open.
type DeepLinkRoute string

const (
	RouteEventDetail DeepLinkRoute = "event_detail"
	RouteFriendsTab  DeepLinkRoute = "friends_tab"
	RouteTab         DeepLinkRoute = "tab"
)

// DeepLink is the navigation target serialized into a notification payload.
// It is a compatibility surface between the payload and the mobile apps, not
// a general protocol: fields are flat string keys.
type DeepLink struct {
	Route DeepLinkRoute

	// RouteEventDetail
	EventID      string
	InviteFlag   bool // open the invite response sheet
	PreferredTab string
	OpenChat     bool

	// RouteFriendsTab
	Section string

	// RouteTab
	Tab string
}

// EncodePayload flattens the deep link into notification payload data.
func (d *DeepLink) EncodePayload() map[string]string {
	if d == nil {
		return nil
	}
	data := map[string]string{"route": string(d.Route)}
	switch d.Route {
	case RouteEventDetail:
		data["event_id"] = d.EventID
		data["invite"] = strconv.FormatBool(d.InviteFlag)
		data["open_chat"] = strconv.FormatBool(d.OpenChat)
		if d.PreferredTab != "" {
			data["preferred_tab"] = d.PreferredTab
		}
	case RouteFriendsTab:
		if d.Section != "" {
			data["section"] = d.Section
		}
	case RouteTab:
		data["tab"] = d.Tab
	}
	return data
}

// DecodeDeepLink parses notification payload data back into a DeepLink.
// Unknown routes and missing keys decode to (nil, false) rather than an error;
// old app versions send payloads newer servers never wrote. The server only
// ever encodes; this mirrors the app-side parser so payload changes break a
// test here before they break a client.
func DecodeDeepLink(data map[string]string) (*DeepLink, bool) {
	route := DeepLinkRoute(data["route"])
	switch route {
	case RouteEventDetail:
		if data["event_id"] == "" {
			return nil, false
		}
		invite, _ := strconv.ParseBool(data["invite"])
		openChat, _ := strconv.ParseBool(data["open_chat"])
		return &DeepLink{
			Route:        route,
			EventID:      data["event_id"],
			InviteFlag:   invite,
			OpenChat:     openChat,
			PreferredTab: data["preferred_tab"],
		}, true
	case RouteFriendsTab:
		return &DeepLink{Route: route, Section: data["section"]}, true
	case RouteTab:
		if data["tab"] == "" {
			return nil, false
		}
		return &DeepLink{Route: route, Tab: data["tab"]}, true
	default:
		return nil, false
	}
}
