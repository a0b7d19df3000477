package support

import "time"

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one turn in a support conversation. Messages are immutable once
// appended to a session's history; the only exception is the transient typing
// placeholder, which is removed before the real reply is appended.
type Message struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Sender      Sender    `json:"sender"`
	Timestamp   time.Time `json:"timestamp"`
	Category    Category  `json:"category,omitempty"`
	Priority    Priority  `json:"priority,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`

	IsTyping             bool `json:"is_typing,omitempty"`
	IsError              bool `json:"is_error,omitempty"`
	IsTicketSuggestion   bool `json:"is_ticket_suggestion,omitempty"`
	IsTicketConfirmation bool `json:"is_ticket_confirmation,omitempty"`
}
