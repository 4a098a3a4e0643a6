package platform

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yerzhan-k/bizbot-go/internal/store"
)

// Telegram controls an owner's Telegram bridge connection.
type Telegram struct {
	bridge    *bridgeClient
	platforms store.PlatformStore
	sessions  store.SessionStore
}

// NewTelegram creates the Telegram platform service.
func NewTelegram(bridgeURL string, platforms store.PlatformStore, sessions store.SessionStore) *Telegram {
	return &Telegram{
		bridge:    newBridgeClient(bridgeURL),
		platforms: platforms,
		sessions:  sessions,
	}
}

func (t *Telegram) Platform() store.Platform { return store.PlatformTelegram }

// Start launches the bridge for this owner's bot token and marks the
// connection active. The token is created on first start and may be
// replaced while the connection is inactive.
func (t *Telegram) Start(ctx context.Context, ownerID int64, apiToken string) error {
	conn, err := t.platforms.FindByOwner(ctx, ownerID, store.PlatformTelegram)
	if errors.Is(err, store.ErrNotFound) {
		if apiToken == "" {
			return fmt.Errorf("apiToken must be provided")
		}
		conn = store.PlatformConn{
			OwnerID:  ownerID,
			Platform: store.PlatformTelegram,
			Status:   store.StatusInactive,
			APIToken: apiToken,
		}
	} else if err != nil {
		return err
	}

	if apiToken != "" && apiToken != conn.APIToken && conn.Status == store.StatusInactive {
		conn.APIToken = apiToken
	}

	err = t.bridge.post(ctx, "/start-platform", map[string]any{
		"userId":   ownerID,
		"apiToken": conn.APIToken,
	})
	if err != nil {
		log.Printf("[Platform] ⚠️ unable to launch Telegram for user %d: %v", ownerID, err)
		return err
	}

	conn.Status = store.StatusActive
	return t.platforms.Save(ctx, conn)
}

// Stop shuts the owner's bridge down and marks the connection inactive.
func (t *Telegram) Stop(ctx context.Context, ownerID int64) error {
	if _, err := t.platforms.FindByOwner(ctx, ownerID, store.PlatformTelegram); err != nil {
		return err
	}

	err := t.bridge.post(ctx, "/stop-platform", map[string]any{"userId": ownerID})
	if err != nil {
		log.Printf("[Platform] ⚠️ unable to stop Telegram for user %d: %v", ownerID, err)
		return err
	}

	return t.platforms.SetStatus(ctx, ownerID, store.PlatformTelegram, store.StatusInactive)
}

// Status reports the persisted connection state.
func (t *Telegram) Status(ctx context.Context, ownerID int64) (store.PlatformStatus, error) {
	conn, err := t.platforms.FindByOwner(ctx, ownerID, store.PlatformTelegram)
	if err != nil {
		return "", err
	}
	return conn.Status, nil
}

// Sessions lists the owner's Telegram conversations.
func (t *Telegram) Sessions(ctx context.Context, ownerID int64) ([]store.Session, error) {
	return t.sessions.ListByOwner(ctx, ownerID, store.PlatformTelegram)
}
