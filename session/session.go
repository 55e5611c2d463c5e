// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/arena/network"
	"github.com/wfunc/arena/state"
)

// Session is one live transport connection. The embedded machine gates
// which protocol events are accepted for it.
type Session struct {
	ID        string
	Conn      network.Connection
	Username  string
	RoomKey   string // cached room key; may go stale, see game.Store.FindRoomOf
	Machine   *state.Machine
	CreatedAt time.Time
	mutex     sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	return &Session{
		ID:        id,
		Conn:      conn,
		Machine:   state.NewSessionMachine(),
		CreatedAt: time.Now(),
	}
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Send(event string, data []byte) error {
	return s.Conn.Send(event, data)
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

func (s *Session) SetRoomKey(key string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.RoomKey = key
}

func (s *Session) GetRoomKey() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.RoomKey
}

func (s *Session) SetUsername(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Username = name
}

func (s *Session) GetUsername() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.Username
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
