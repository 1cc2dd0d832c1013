package session

import (
	"sync"
)

type EventKind int

const (
	EventLogin EventKind = iota + 1
	EventRefreshed
	EventLogout
)

func (k EventKind) String() string {
	switch k {
	case EventLogin:
		return "login"
	case EventRefreshed:
		return "refreshed"
	case EventLogout:
		return "logout"
	}
	return "unknown"
}

// Event is broadcast to subscribers on every session transition.
type Event struct {
	Kind          EventKind
	Authenticated bool
}

const subscriberBuffer = 8

// State holds the in-memory credentials and fans transitions out to
// subscribers. A slow subscriber misses events rather than blocking writers.
type State struct {
	mu     sync.RWMutex
	creds  Credentials
	nextID int
	subs   map[int]chan Event
}

func NewState() *State {
	return &State{subs: make(map[int]chan Event)}
}

func (s *State) Credentials() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Valid()
}

// Set replaces both tokens and announces a login.
func (s *State) Set(c Credentials) {
	s.update(EventLogin, func(cur *Credentials) bool {
		*cur = c
		return true
	})
}

// SetAccessToken replaces the access token only.
func (s *State) SetAccessToken(access string) {
	s.update(EventRefreshed, func(cur *Credentials) bool {
		cur.AccessToken = access
		return true
	})
}

func (s *State) rotate(c Credentials) {
	s.update(EventRefreshed, func(cur *Credentials) bool {
		*cur = c
		return true
	})
}

// Clear empties the state. Only a transition from non-empty announces a logout.
func (s *State) Clear() {
	s.update(EventLogout, func(cur *Credentials) bool {
		if cur.Empty() {
			return false
		}
		*cur = Credentials{}
		return true
	})
}

// Subscribe returns a channel of future events and a func that releases it.
func (s *State) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Event, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *State) update(kind EventKind, apply func(*Credentials) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !apply(&s.creds) {
		return
	}
	ev := Event{Kind: kind, Authenticated: s.creds.Valid()}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
