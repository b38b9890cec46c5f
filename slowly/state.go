package slowly

import (
	"sync"

	"github.com/tiagovla/slowly-go/api"
)

// DispatchFunc publishes an event on the owning client's bus.
type DispatchFunc func(event string, args ...any)

// ConnectionState is the shared bag every model holds a non-owning
// reference to: the live HTTP session and the client's dispatch
// function. It lets a User fetch its own letters without going back
// through the client.
type ConnectionState struct {
	HTTP     *api.Session
	Dispatch DispatchFunc

	mu    sync.Mutex
	users map[int64]*User
}

func newConnectionState(http *api.Session, dispatch DispatchFunc) *ConnectionState {
	return &ConnectionState{
		HTTP:     http,
		Dispatch: dispatch,
		users:    make(map[int64]*User),
	}
}

// StoreUser returns the already-stored user with the same id, or
// stores and returns the given one.
func (s *ConnectionState) StoreUser(user *User) *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[user.ID]; ok {
		return existing
	}
	s.users[user.ID] = user
	return user
}

// Clear drops all stored users.
func (s *ConnectionState) Clear() {
	s.mu.Lock()
	s.users = make(map[int64]*User)
	s.mu.Unlock()
}
