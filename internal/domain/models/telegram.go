package models

// Update mirrors the structure sent by the Telegram Bot API webhook callbacks.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message represents an inbound Telegram message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

// User represents the Telegram account that sent the message.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Chat identifies the conversation the message belongs to.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// OutboundMessageRequest represents requests to send a message manually via the API.
type OutboundMessageRequest struct {
	ChatID  int64  `json:"chat_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}
