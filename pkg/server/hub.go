package server

// Hub owns both registries and is the only place that holds their locks
// together. The order is always Rooms, then Sessions.
type Hub struct {
	Rooms    *RoomRegistry
	Sessions *SessionRegistry
}

// NewHub creates a hub with an empty session registry and a room registry
// holding only the Lobby. metrics may be nil.
func NewHub(metrics *Metrics) *Hub {
	return &Hub{
		Rooms:    NewRoomRegistry(),
		Sessions: NewSessionRegistry(metrics),
	}
}

// inOrder runs fn holding the room lock and then the session lock, both
// exclusively. Every operation that moves a session between rooms uses it.
func (h *Hub) inOrder(fn func(rooms *RoomTx, sessions *SessionTx)) {
	h.Rooms.mu.Lock()
	defer h.Rooms.mu.Unlock()
	h.Sessions.Update(func(sessions *SessionTx) {
		fn(&RoomTx{r: h.Rooms}, sessions)
	})
}
