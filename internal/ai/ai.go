// Package ai provides the vendor-agnostic completion capability and the
// per-owner backend selection behind it.
package ai

import (
	"context"

	"github.com/yerzhan-k/bizbot-go/internal/store"
)

// Completion is an AI text-generation backend. Implementations return
// their best answer or an error; callers degrade an error to an empty
// reply rather than failing the burst.
type Completion interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Registry maps an owner's configured model to a backend. Unknown or
// unset models fall back to the default backend.
type Registry struct {
	backends map[store.AIModel]Completion
	fallback store.AIModel
}

// NewRegistry creates a registry with GPT as the fallback backend.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[store.AIModel]Completion),
		fallback: store.ModelGPT,
	}
}

// Register binds a backend to a model choice.
func (r *Registry) Register(model store.AIModel, c Completion) {
	r.backends[model] = c
}

// For returns the backend for a model choice, falling back to the default
// when the choice is unknown. Returns nil if nothing is registered.
func (r *Registry) For(model store.AIModel) Completion {
	if c, ok := r.backends[model]; ok {
		return c
	}
	return r.backends[r.fallback]
}
