// Package convo resolves conversation keys to durable sessions and
// records conversation turns.
package convo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yerzhan-k/bizbot-go/internal/store"
)

// Resolver maps (owner, end-user, platform) to exactly one session and
// owns all message persistence for the pipeline.
type Resolver struct {
	users    store.UserStore
	sessions store.SessionStore
	messages store.MessageStore
}

// NewResolver creates a Resolver.
func NewResolver(users store.UserStore, sessions store.SessionStore, messages store.MessageStore) *Resolver {
	return &Resolver{users: users, sessions: sessions, messages: messages}
}

// GetOrCreateSession returns the session for (chatUserID, platform),
// creating it on first contact. The owner must exist; ownership is
// attached once at creation.
//
// Two concurrent first-contact calls for the same key can both miss the
// lookup and create two rows. The schema carries no unique constraint on
// (chat_user_id, platform), so the race is benign but observable: later
// lookups settle on whichever row the query returns first.
func (r *Resolver) GetOrCreateSession(ctx context.Context, ownerID int64, chatUserID string, platform store.Platform) (store.Session, error) {
	if _, err := r.users.FindUser(ctx, ownerID); err != nil {
		return store.Session{}, fmt.Errorf("owner %d: %w", ownerID, err)
	}

	s, err := r.sessions.FindByChatUser(ctx, chatUserID, platform)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Session{}, err
	}

	return r.sessions.Create(ctx, store.Session{
		OwnerID:    ownerID,
		ChatUserID: chatUserID,
		Platform:   platform,
	})
}

// RecordTurn appends one message to the session and bumps its activity
// timestamp.
func (r *Resolver) RecordTurn(ctx context.Context, session store.Session, text string, sender store.Sender) error {
	if err := r.messages.Append(ctx, session.ID, text, sender); err != nil {
		return err
	}
	return r.sessions.Touch(ctx, session.ID, time.Now())
}

// BuildHistory renders the session's turns as a newline-joined transcript,
// oldest first, each line prefixed with a role label.
func (r *Resolver) BuildHistory(ctx context.Context, sessionID int64) (string, error) {
	msgs, err := r.messages.BySession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var history strings.Builder
	for _, m := range msgs {
		label := "Bot"
		if m.Sender == store.SenderUser {
			label = "User"
		}
		history.WriteString(label)
		history.WriteString(": ")
		history.WriteString(m.Text)
		history.WriteString("\n")
	}
	return history.String(), nil
}
