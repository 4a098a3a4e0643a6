package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yerzhan-k/bizbot-go/internal/store"
)

type bridgeCall struct {
	path string
	body map[string]any
}

// fakeBridge records control calls and answers with a configurable status.
type fakeBridge struct {
	mu     sync.Mutex
	calls  []bridgeCall
	status int
}

func newFakeBridge() (*fakeBridge, *httptest.Server) {
	fb := &fakeBridge{status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		fb.mu.Lock()
		fb.calls = append(fb.calls, bridgeCall{path: r.URL.Path, body: body})
		status := fb.status
		fb.mu.Unlock()
		w.WriteHeader(status)
	}))
	return fb, srv
}

func (f *fakeBridge) snapshot() []bridgeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bridgeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func TestTelegramStart_FirstStartRequiresToken(t *testing.T) {
	_, srv := newFakeBridge()
	defer srv.Close()
	tg := NewTelegram(srv.URL, store.NewMemory(), store.NewMemory())

	err := tg.Start(context.Background(), 42, "")
	assert.ErrorContains(t, err, "apiToken")
}

func TestTelegramStart_CreatesConnectionAndActivates(t *testing.T) {
	fb, srv := newFakeBridge()
	defer srv.Close()
	mem := store.NewMemory()
	tg := NewTelegram(srv.URL, mem, mem)

	require.NoError(t, tg.Start(context.Background(), 42, "tok-1"))

	calls := fb.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "/start-platform", calls[0].path)
	assert.Equal(t, float64(42), calls[0].body["userId"])
	assert.Equal(t, "tok-1", calls[0].body["apiToken"])

	st, err := tg.Status(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, store.StatusActive, st)
}

func TestTelegramStart_TokenReplaceableOnlyWhileInactive(t *testing.T) {
	fb, srv := newFakeBridge()
	defer srv.Close()
	mem := store.NewMemory()
	tg := NewTelegram(srv.URL, mem, mem)
	ctx := context.Background()

	require.NoError(t, tg.Start(ctx, 42, "tok-1"))

	// Connection is active: a new token must be ignored.
	require.NoError(t, tg.Start(ctx, 42, "tok-2"))
	calls := fb.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "tok-1", calls[1].body["apiToken"])

	// After a stop the connection is inactive and the token may change.
	require.NoError(t, tg.Stop(ctx, 42))
	require.NoError(t, tg.Start(ctx, 42, "tok-2"))
	calls = fb.snapshot()
	require.Len(t, calls, 4)
	assert.Equal(t, "tok-2", calls[3].body["apiToken"])
}

func TestTelegramStart_BridgeFailureLeavesConnectionUntouched(t *testing.T) {
	fb, srv := newFakeBridge()
	defer srv.Close()
	fb.status = http.StatusBadGateway
	mem := store.NewMemory()
	tg := NewTelegram(srv.URL, mem, mem)

	err := tg.Start(context.Background(), 42, "tok-1")
	require.Error(t, err)

	_, err = mem.FindByOwner(context.Background(), 42, store.PlatformTelegram)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTelegramStop_UnknownConnectionFails(t *testing.T) {
	fb, srv := newFakeBridge()
	defer srv.Close()
	mem := store.NewMemory()
	tg := NewTelegram(srv.URL, mem, mem)

	err := tg.Stop(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, fb.snapshot())
}

func TestWhatsAppStart_NoTokenNeeded(t *testing.T) {
	fb, srv := newFakeBridge()
	defer srv.Close()
	mem := store.NewMemory()
	wa := NewWhatsApp(srv.URL, mem, mem)

	require.NoError(t, wa.Start(context.Background(), 42, ""))

	calls := fb.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "/start-platform", calls[0].path)
	_, hasToken := calls[0].body["apiToken"]
	assert.False(t, hasToken)

	st, err := wa.Status(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, store.StatusActive, st)
}

func TestWhatsAppStop_DeactivatesConnection(t *testing.T) {
	fb, srv := newFakeBridge()
	defer srv.Close()
	mem := store.NewMemory()
	wa := NewWhatsApp(srv.URL, mem, mem)
	ctx := context.Background()

	require.NoError(t, wa.Start(ctx, 42, ""))
	require.NoError(t, wa.Stop(ctx, 42))

	calls := fb.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "/stop-platform", calls[1].path)

	st, err := wa.Status(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, store.StatusInactive, st)
}

func TestRegistry_DispatchesByPlatform(t *testing.T) {
	_, srv := newFakeBridge()
	defer srv.Close()
	mem := store.NewMemory()

	r := NewRegistry()
	r.Register(NewTelegram(srv.URL, mem, mem))
	r.Register(NewWhatsApp(srv.URL, mem, mem))

	tg, err := r.For(store.PlatformTelegram)
	require.NoError(t, err)
	assert.Equal(t, store.PlatformTelegram, tg.Platform())

	_, err = r.For(store.Platform("SIGNAL"))
	assert.Error(t, err)
}
