package platform

import (
	"context"
	"errors"
	"log"

	"github.com/yerzhan-k/bizbot-go/internal/store"
)

// WhatsApp controls an owner's WhatsApp bridge connection. Pairing runs
// over QR events on the stream transport, so Start needs no token.
type WhatsApp struct {
	bridge    *bridgeClient
	platforms store.PlatformStore
	sessions  store.SessionStore
}

// NewWhatsApp creates the WhatsApp platform service.
func NewWhatsApp(bridgeURL string, platforms store.PlatformStore, sessions store.SessionStore) *WhatsApp {
	return &WhatsApp{
		bridge:    newBridgeClient(bridgeURL),
		platforms: platforms,
		sessions:  sessions,
	}
}

func (w *WhatsApp) Platform() store.Platform { return store.PlatformWhatsApp }

// Start launches the bridge session for this owner. The bridge answers
// with a QR event on the stream once it needs pairing.
func (w *WhatsApp) Start(ctx context.Context, ownerID int64, _ string) error {
	conn, err := w.platforms.FindByOwner(ctx, ownerID, store.PlatformWhatsApp)
	if errors.Is(err, store.ErrNotFound) {
		conn = store.PlatformConn{
			OwnerID:  ownerID,
			Platform: store.PlatformWhatsApp,
			Status:   store.StatusInactive,
		}
	} else if err != nil {
		return err
	}

	err = w.bridge.post(ctx, "/start-platform", map[string]any{"userId": ownerID})
	if err != nil {
		log.Printf("[Platform] ⚠️ unable to launch WhatsApp for user %d: %v", ownerID, err)
		return err
	}

	conn.Status = store.StatusActive
	return w.platforms.Save(ctx, conn)
}

// Stop shuts the owner's bridge session down.
func (w *WhatsApp) Stop(ctx context.Context, ownerID int64) error {
	if _, err := w.platforms.FindByOwner(ctx, ownerID, store.PlatformWhatsApp); err != nil {
		return err
	}

	err := w.bridge.post(ctx, "/stop-platform", map[string]any{"userId": ownerID})
	if err != nil {
		log.Printf("[Platform] ⚠️ unable to stop WhatsApp for user %d: %v", ownerID, err)
		return err
	}

	return w.platforms.SetStatus(ctx, ownerID, store.PlatformWhatsApp, store.StatusInactive)
}

// Status reports the persisted connection state.
func (w *WhatsApp) Status(ctx context.Context, ownerID int64) (store.PlatformStatus, error) {
	conn, err := w.platforms.FindByOwner(ctx, ownerID, store.PlatformWhatsApp)
	if err != nil {
		return "", err
	}
	return conn.Status, nil
}

// Sessions lists the owner's WhatsApp conversations.
func (w *WhatsApp) Sessions(ctx context.Context, ownerID int64) ([]store.Session, error) {
	return w.sessions.ListByOwner(ctx, ownerID, store.PlatformWhatsApp)
}
