// Package store defines the durable conversation model and its Postgres
// persistence. Sessions and messages are the record of every conversation;
// everything else in the pipeline is ephemeral process memory.
package store

import "time"

// Platform identifies a chat platform.
type Platform string

const (
	PlatformTelegram Platform = "TELEGRAM"
	PlatformWhatsApp Platform = "WHATSAPP"
)

// PlatformStatus is the persisted connection state of a platform.
type PlatformStatus string

const (
	StatusActive   PlatformStatus = "ACTIVE"
	StatusInactive PlatformStatus = "INACTIVE"
)

// Sender marks who wrote a message.
type Sender string

const (
	SenderUser Sender = "USER"
	SenderBot  Sender = "BOT"
)

// AIModel selects an owner's completion backend.
type AIModel string

const (
	ModelGPT    AIModel = "GPT"
	ModelGemini AIModel = "GEMINI"
)

// User is a business account owning a bot.
type User struct {
	ID      int64
	Email   string
	AIModel AIModel
}

// Session is one end-user's conversation thread with one owner's bot on
// one platform. Created lazily on first message, never deleted here.
// Ownership is set once at creation and stays immutable.
type Session struct {
	ID           int64
	OwnerID      int64
	ChatUserID   string
	Platform     Platform
	StartedAt    time.Time
	LastActiveAt time.Time
}

// Message is one turn in a session. Append-only, ordered by timestamp.
type Message struct {
	ID        int64
	SessionID int64
	Sender    Sender
	Text      string
	CreatedAt time.Time
}

// BotKnowledge is the owner-provided text injected as system context.
type BotKnowledge struct {
	OwnerID    int64
	SourceType string
	Content    string
}

// PlatformConn is the persisted per-owner platform connection record.
type PlatformConn struct {
	OwnerID  int64
	Platform Platform
	Status   PlatformStatus
	APIToken string
}
