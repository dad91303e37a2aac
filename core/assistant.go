package core

import "context"

type (
	// ChatMessage is one prior turn of a conversation transcript,
	// passed to the assistant for context.
	ChatMessage struct {
		Role string `json:"role"` // user | bot
		Text string `json:"text"`
	}

	AssistantRequest struct {
		Utterance     string
		PriorMessages []ChatMessage
		Instructions  string // optional per-bot persona/system prompt
	}

	AssistantResponse struct {
		Text string
		Raw  interface{} // provider-specific payload, for debugging only
	}

	// AssistantService is any external service that can classify or generate
	// a reply to an utterance. Implementations live under services/assistant.
	AssistantService interface {
		Reply(ctx context.Context, req AssistantRequest) (AssistantResponse, error)
	}
)
