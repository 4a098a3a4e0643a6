// Package responder turns one coalesced burst of user messages into one
// AI reply: it resolves the session, persists the turns, builds the
// prompt from knowledge plus history, and hands the reply to an outbound
// publisher.
package responder

import (
	"context"
	"log"

	"github.com/yerzhan-k/bizbot-go/internal/ai"
	"github.com/yerzhan-k/bizbot-go/internal/convo"
	"github.com/yerzhan-k/bizbot-go/internal/store"
)

// DefaultPersona is used when an owner never configured bot knowledge.
const DefaultPersona = "You are a friendly assistant. Keep replies short, to the point, and in a natural human tone."

const styleInstructions = "If the user greets you, greet them back appropriately. " +
	"Otherwise continue the conversation on topic. " +
	"Do not add prefixes like 'Bot:' or 'Answer:'. " +
	"Write only what matters, without filler."

// SendFunc delivers the reply to the outbound publisher for the platform
// the burst arrived on.
type SendFunc func(chatUserID, text string, ownerID int64)

// Responder orchestrates burst replies.
type Responder struct {
	users     store.UserStore
	knowledge store.KnowledgeStore
	convo     *convo.Resolver
	models    *ai.Registry
}

// New creates a Responder.
func New(users store.UserStore, knowledge store.KnowledgeStore, resolver *convo.Resolver, models *ai.Registry) *Responder {
	return &Responder{
		users:     users,
		knowledge: knowledge,
		convo:     resolver,
		models:    models,
	}
}

// Respond handles one burst. fragments are the original user bubbles in
// arrival order; combined is their merged form as the AI should see it.
// Every failure is logged and contained here; a bad burst never takes
// down the scheduler or touches other conversations.
func (r *Responder) Respond(ctx context.Context, ownerID int64, chatUserID string, platform store.Platform, fragments []string, combined string, send SendFunc) {
	knowledge, err := r.knowledge.ContentByOwner(ctx, ownerID)
	if err != nil || knowledge == "" {
		knowledge = DefaultPersona
	}

	session, err := r.convo.GetOrCreateSession(ctx, ownerID, chatUserID, platform)
	if err != nil {
		log.Printf("[Responder] ❌ session resolve failed for owner=%d chatUser=%s: %v", ownerID, chatUserID, err)
		return
	}

	// Persist the user's original segmentation, not the merged text.
	for _, frag := range fragments {
		if err := r.convo.RecordTurn(ctx, session, frag, store.SenderUser); err != nil {
			log.Printf("[Responder] ❌ recording user turn failed for session=%d: %v", session.ID, err)
		}
	}

	history, err := r.convo.BuildHistory(ctx, session.ID)
	if err != nil {
		log.Printf("[Responder] ❌ history build failed for session=%d: %v", session.ID, err)
		return
	}

	systemPrompt := knowledge + " " + styleInstructions
	userPrompt := "--- Conversation history ---\n" + history + "\n\n" +
		"The user just wrote: \"" + combined + "\""

	reply := r.complete(ctx, ownerID, systemPrompt, userPrompt)

	if err := r.convo.RecordTurn(ctx, session, reply, store.SenderBot); err != nil {
		log.Printf("[Responder] ❌ recording bot turn failed for session=%d: %v", session.ID, err)
	}
	send(chatUserID, reply, ownerID)
}

// complete invokes the owner's selected backend. Any failure degrades to
// an empty reply so session bookkeeping still completes.
func (r *Responder) complete(ctx context.Context, ownerID int64, systemPrompt, userPrompt string) string {
	model := store.ModelGPT
	if user, err := r.users.FindUser(ctx, ownerID); err == nil && user.AIModel != "" {
		model = user.AIModel
	}

	backend := r.models.For(model)
	if backend == nil {
		log.Printf("[Responder] ⚠️ no completion backend registered for model %s", model)
		return ""
	}

	reply, err := backend.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		log.Printf("[Responder] ⚠️ completion failed for owner=%d: %v", ownerID, err)
		return ""
	}
	return reply
}
