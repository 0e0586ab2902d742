package recservice

import (
	"themerec/profile"
)

// Turn is one role/content pair of conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type recommendRequest struct {
	UserMessage         string `json:"user_message"`
	ConversationHistory []Turn `json:"conversation_history"`
}

// UserProfile is the structured profile the service extracted from the
// conversation.
type UserProfile struct {
	Theme      string                   `json:"theme,omitempty"`
	Summary    string                   `json:"summary,omitempty"`
	Attributes map[string]profile.Value `json:"attributes,omitempty"`
}

// Item is one ranked recommendation card.
type Item struct {
	Title    string            `json:"title"`
	Creator  string            `json:"creator"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Summary  string            `json:"summary"`
	Reason   string            `json:"reason"`
}

// Result is the structured payload of a recommendation call.
type Result struct {
	Theme           string       `json:"theme,omitempty"`
	Message         string       `json:"message"`
	UserProfile     *UserProfile `json:"user_profile"`
	Recommendations []Item       `json:"recommendations"`
}

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	Status string `json:"status"`
}

// errorBody covers the error shapes the service is known to return:
// {"error":{"message":...}}, {"error":"..."} and {"detail":"..."}.
type errorBody struct {
	Error  any `json:"error"`
	Detail any `json:"detail"`
}
