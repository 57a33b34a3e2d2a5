// Package realtime pushes state changes to connected clients over websockets.
// Services publish domain.Update values into the Hub, which folds each update
// into every affected user's session snapshot and fans the result out to that
// user's connections.
package realtime

import (
	"log/slog"
	"sync"

	"clique/internal/domain"
	"clique/internal/session"
)

// Hub routes updates to connected clients. It implements
// domain.UpdatePublisher; Publish never blocks.
type Hub struct {
	logger *slog.Logger

	registerChan   chan *Client
	deregisterChan chan *Client
	updates        chan domain.Update
	stop           chan struct{}
	done           chan struct{}

	clientsMu sync.Mutex
	clients   map[string]map[*Client]struct{} // user id -> connections
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:         logger,
		registerChan:   make(chan *Client),
		deregisterChan: make(chan *Client),
		updates:        make(chan domain.Update, 256),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
		clients:        make(map[string]map[*Client]struct{}),
	}
}

// Publish queues the update for fan-out. Drops with a log line when the hub
// is backed up; realtime delivery is best effort, storage is authoritative.
func (h *Hub) Publish(u domain.Update) {
	select {
	case h.updates <- u:
	default:
		h.logger.Warn("realtime update dropped", "kind", u.Kind)
	}
}

// Run processes registrations and updates until Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.registerChan:
			h.addClient(client)
			// Seed the connection with the full state.
			client.queueMessage(stateMessage(client.store.Current()))
		case client := <-h.deregisterChan:
			h.removeClient(client)
		case u := <-h.updates:
			h.fanOut(u)
		case <-h.stop:
			h.clientsMu.Lock()
			for _, conns := range h.clients {
				for c := range conns {
					c.stopClient()
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			h.clientsMu.Unlock()
			close(h.done)
			return
		}
	}
}

// Shutdown stops the run loop and disconnects all clients.
func (h *Hub) Shutdown() {
	close(h.stop)
	<-h.done
}

func (h *Hub) fanOut(u domain.Update) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for userID, conns := range h.clients {
		for c := range conns {
			snap := c.store.Current()
			if !relevant(u, userID, snap) {
				continue
			}
			next := c.store.Apply(u)
			if !c.queueMessage(updateMessage(u, next)) {
				h.logger.Warn("client send buffer full", "user_id", userID)
			}
		}
	}
}

// relevant reports whether the update concerns the user, given their current
// snapshot.
func relevant(u domain.Update, userID string, snap session.Snapshot) bool {
	switch u.Kind {
	case domain.UpdateEventUpserted:
		if u.Event == nil {
			return false
		}
		for _, id := range u.Event.Participants() {
			if id == userID {
				return true
			}
		}
		// The user may have just been removed from an event they still hold.
		return snap.EventByID(u.Event.ID) != nil
	case domain.UpdateEventDeleted:
		return snap.EventByID(u.EventID) != nil
	case domain.UpdateFriendAdded, domain.UpdateFriendRemoved, domain.UpdateRequestDeleted:
		return u.UserA == userID || u.UserB == userID
	case domain.UpdateRequestCreated:
		return u.Request != nil && (u.Request.SenderID == userID || u.Request.ReceiverID == userID)
	case domain.UpdateChatMessage:
		return snap.EventByID(u.EventID) != nil
	}
	return false
}

func (h *Hub) addClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	conns, ok := h.clients[c.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[c.userID] = conns
	}
	conns[c] = struct{}{}
}

func (h *Hub) removeClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if conns, ok := h.clients[c.userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.clients, c.userID)
		}
	}
}
