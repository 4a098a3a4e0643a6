package responder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yerzhan-k/bizbot-go/internal/ai"
	"github.com/yerzhan-k/bizbot-go/internal/convo"
	"github.com/yerzhan-k/bizbot-go/internal/store"
)

type fakeCompletion struct {
	reply        string
	err          error
	systemPrompt string
	userPrompt   string
	calls        int
}

func (f *fakeCompletion) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.systemPrompt = systemPrompt
	f.userPrompt = userPrompt
	return f.reply, f.err
}

type sentReply struct {
	chatUserID string
	text       string
	ownerID    int64
}

func setup(t *testing.T, completion ai.Completion) (*Responder, *store.Memory, *[]sentReply, SendFunc) {
	t.Helper()
	mem := store.NewMemory()
	mem.AddUser(store.User{ID: 42, AIModel: store.ModelGPT})

	models := ai.NewRegistry()
	models.Register(store.ModelGPT, completion)

	resolver := convo.NewResolver(mem, mem, mem)
	r := New(mem, mem, resolver, models)

	var sent []sentReply
	send := func(chatUserID, text string, ownerID int64) {
		sent = append(sent, sentReply{chatUserID: chatUserID, text: text, ownerID: ownerID})
	}
	return r, mem, &sent, send
}

func TestRespond_PersistsTurnsAndSendsReply(t *testing.T) {
	fake := &fakeCompletion{reply: "I'm fine, thanks!"}
	r, mem, sent, send := setup(t, fake)

	r.Respond(context.Background(), 42, "u1", store.PlatformTelegram,
		[]string{"hi", "how are you"}, "hi. how are you", send)

	require.Len(t, *sent, 1)
	assert.Equal(t, "u1", (*sent)[0].chatUserID)
	assert.Equal(t, "I'm fine, thanks!", (*sent)[0].text)
	assert.Equal(t, int64(42), (*sent)[0].ownerID)

	session, err := mem.FindByChatUser(context.Background(), "u1", store.PlatformTelegram)
	require.NoError(t, err)
	msgs, err := mem.BySession(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	// Original segmentation preserved, bot turn last.
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, store.SenderUser, msgs[0].Sender)
	assert.Equal(t, "how are you", msgs[1].Text)
	assert.Equal(t, store.SenderUser, msgs[1].Sender)
	assert.Equal(t, "I'm fine, thanks!", msgs[2].Text)
	assert.Equal(t, store.SenderBot, msgs[2].Sender)
}

func TestRespond_AISeesCombinedTextAndPriorHistory(t *testing.T) {
	fake := &fakeCompletion{reply: "ok"}
	r, _, _, send := setup(t, fake)
	ctx := context.Background()

	r.Respond(ctx, 42, "u1", store.PlatformTelegram, []string{"first"}, "first", send)
	r.Respond(ctx, 42, "u1", store.PlatformTelegram, []string{"hi", "there"}, "hi. there", send)

	assert.Contains(t, fake.userPrompt, `The user just wrote: "hi. there"`)
	assert.Contains(t, fake.userPrompt, "User: first")
	assert.Contains(t, fake.userPrompt, "Bot: ok")
}

func TestRespond_FallsBackToDefaultPersona(t *testing.T) {
	fake := &fakeCompletion{reply: "hello"}
	r, _, _, send := setup(t, fake)

	r.Respond(context.Background(), 42, "u1", store.PlatformTelegram, []string{"hi"}, "hi", send)

	require.Equal(t, 1, fake.calls)
	assert.True(t, strings.HasPrefix(fake.systemPrompt, DefaultPersona),
		"system prompt should start with the default persona, got: %s", fake.systemPrompt)
}

func TestRespond_UsesConfiguredKnowledge(t *testing.T) {
	fake := &fakeCompletion{reply: "hello"}
	r, mem, _, send := setup(t, fake)
	mem.SetKnowledge(store.BotKnowledge{OwnerID: 42, Content: "You sell bicycles."})

	r.Respond(context.Background(), 42, "u1", store.PlatformTelegram, []string{"hi"}, "hi", send)

	assert.True(t, strings.HasPrefix(fake.systemPrompt, "You sell bicycles."))
}

func TestRespond_AIFailureDegradesToEmptyReply(t *testing.T) {
	fake := &fakeCompletion{err: errors.New("backend down")}
	r, mem, sent, send := setup(t, fake)

	r.Respond(context.Background(), 42, "u1", store.PlatformTelegram, []string{"hi"}, "hi", send)

	// The reply is empty but bookkeeping and the outbound hand-off still happen.
	require.Len(t, *sent, 1)
	assert.Empty(t, (*sent)[0].text)

	session, err := mem.FindByChatUser(context.Background(), "u1", store.PlatformTelegram)
	require.NoError(t, err)
	msgs, err := mem.BySession(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, store.SenderBot, msgs[1].Sender)
	assert.Empty(t, msgs[1].Text)
}

func TestRespond_UnknownOwnerDropsBurst(t *testing.T) {
	fake := &fakeCompletion{reply: "hello"}
	r, _, sent, send := setup(t, fake)

	r.Respond(context.Background(), 999, "u1", store.PlatformTelegram, []string{"hi"}, "hi", send)

	assert.Empty(t, *sent)
	assert.Zero(t, fake.calls)
}
