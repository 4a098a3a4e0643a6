package store

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Memory is an in-memory implementation of every store interface.
// Used by tests and by `serve --dev` when no database is configured.
type Memory struct {
	mu        sync.Mutex
	users     map[int64]User
	sessions  []Session
	messages  []Message
	knowledge map[int64]BotKnowledge
	platforms map[string]PlatformConn
	nextID    int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:     make(map[int64]User),
		knowledge: make(map[int64]BotKnowledge),
		platforms: make(map[string]PlatformConn),
		nextID:    1,
	}
}

// AddUser seeds a user row.
func (m *Memory) AddUser(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// SetKnowledge seeds a knowledge row.
func (m *Memory) SetKnowledge(k BotKnowledge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.knowledge[k.OwnerID] = k
}

func (m *Memory) FindUser(_ context.Context, id int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) SetAIModel(_ context.Context, id int64, model AIModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.AIModel = model
	m.users[id] = u
	return nil
}

func (m *Memory) FindByChatUser(_ context.Context, chatUserID string, platform Platform) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ChatUserID == chatUserID && s.Platform == platform {
			return s, nil
		}
	}
	return Session{}, ErrNotFound
}

func (m *Memory) Create(_ context.Context, s Session) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	s.ID = m.nextID
	m.nextID++
	s.StartedAt = now
	s.LastActiveAt = now
	m.sessions = append(m.sessions, s)
	return s, nil
}

func (m *Memory) Touch(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			m.sessions[i].LastActiveAt = at
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListByOwner(_ context.Context, ownerID int64, platform Platform) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, s := range m.sessions {
		if s.OwnerID == ownerID && s.Platform == platform {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) Append(_ context.Context, sessionID int64, text string, sender Sender) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{
		ID:        m.nextID,
		SessionID: sessionID,
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now(),
	})
	m.nextID++
	return nil
}

func (m *Memory) BySession(_ context.Context, sessionID int64) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Message
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *Memory) ContentByOwner(_ context.Context, ownerID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.knowledge[ownerID]
	if !ok {
		return "", ErrNotFound
	}
	return k.Content, nil
}

func platformKey(ownerID int64, platform Platform) string {
	return string(platform) + ":" + strconv.FormatInt(ownerID, 10)
}

func (m *Memory) FindByOwner(_ context.Context, ownerID int64, platform Platform) (PlatformConn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.platforms[platformKey(ownerID, platform)]
	if !ok {
		return PlatformConn{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) Save(_ context.Context, conn PlatformConn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.platforms[platformKey(conn.OwnerID, conn.Platform)] = conn
	return nil
}

func (m *Memory) SetStatus(_ context.Context, ownerID int64, platform Platform, status PlatformStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := platformKey(ownerID, platform)
	c, ok := m.platforms[key]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	m.platforms[key] = c
	return nil
}
