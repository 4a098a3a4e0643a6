package ai

import (
	"context"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	openAIModelMaxTokens    = 16000
	openAIDefaultCompletion = 1024
	openAIMinCompletion     = 64
	openAICompletionCap     = 4096
	openAISafetyMargin      = 256
	openAIMaxAttempts       = 3
)

// OpenAIClient is the GPT completion backend.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed completion client.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Complete sends one system+user prompt pair. When the model runs out of
// completion budget (finish_reason=length with empty content) the budget
// is doubled and the call retried, up to three attempts.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	maxCompletion := completionBudget(systemPrompt + "\n\n" + userPrompt)

	for attempt := 0; attempt < openAIMaxAttempts; attempt++ {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			MaxCompletionTokens: maxCompletion,
		})
		if err != nil {
			log.Printf("[AI] OpenAI error: %v", err)
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}

		choice := resp.Choices[0]
		content := strings.TrimSpace(choice.Message.Content)
		if content != "" {
			return content, nil
		}
		if choice.FinishReason != openai.FinishReasonLength {
			return "", nil
		}

		// Truncated before producing anything; grow the budget and retry.
		grown := maxCompletion * 2
		if grown < maxCompletion+256 {
			grown = maxCompletion + 256
		}
		if grown > openAICompletionCap {
			grown = openAICompletionCap
		}
		maxCompletion = grown
	}
	return "", nil
}

// completionBudget picks a completion-token budget that leaves room for
// the prompt inside the model's context window.
func completionBudget(prompt string) int {
	budget := openAIModelMaxTokens - estimateTokens(prompt) - openAISafetyMargin
	if budget < openAIMinCompletion {
		budget = openAIMinCompletion
	}
	if budget > openAIDefaultCompletion {
		budget = openAIDefaultCompletion
	}
	return budget
}

// estimateTokens approximates token count at four characters per token.
func estimateTokens(text string) int {
	if text == "" {
		return 1
	}
	n := (len(text) + 3) / 4
	if n < 1 {
		n = 1
	}
	return n
}
