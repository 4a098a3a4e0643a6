package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// UserStore reads and updates business accounts.
type UserStore interface {
	FindUser(ctx context.Context, id int64) (User, error)
	SetAIModel(ctx context.Context, id int64, model AIModel) error
}

// SessionStore persists conversation sessions.
type SessionStore interface {
	// FindByChatUser looks up a session by its end-user identity on a platform.
	FindByChatUser(ctx context.Context, chatUserID string, platform Platform) (Session, error)
	Create(ctx context.Context, s Session) (Session, error)
	Touch(ctx context.Context, id int64, at time.Time) error
	ListByOwner(ctx context.Context, ownerID int64, platform Platform) ([]Session, error)
}

// MessageStore persists conversation turns.
type MessageStore interface {
	Append(ctx context.Context, sessionID int64, text string, sender Sender) error
	// BySession returns all turns of a session ordered by timestamp ascending.
	BySession(ctx context.Context, sessionID int64) ([]Message, error)
}

// KnowledgeStore reads owner-provided bot knowledge.
type KnowledgeStore interface {
	// ContentByOwner returns the knowledge text, or ErrNotFound when the
	// owner never configured any.
	ContentByOwner(ctx context.Context, ownerID int64) (string, error)
}

// PlatformStore persists per-owner platform connection records.
type PlatformStore interface {
	FindByOwner(ctx context.Context, ownerID int64, platform Platform) (PlatformConn, error)
	Save(ctx context.Context, conn PlatformConn) error
	SetStatus(ctx context.Context, ownerID int64, platform Platform, status PlatformStatus) error
}
