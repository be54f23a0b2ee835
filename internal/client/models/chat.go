package models

import "time"

// ChatResponse is returned by /chat and /analyze_image.
type ChatResponse struct {
	Success   bool   `json:"success"`
	Response  string `json:"response,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ChatRequest is the JSON body of /chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// HistoryTurn is one stored conversation turn.
type HistoryTurn struct {
	Content   string `json:"content"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp,omitempty"`
}

// HistoryResponse is returned by /chat_history.
type HistoryResponse struct {
	Success bool          `json:"success"`
	History []HistoryTurn `json:"history"`
	Error   string        `json:"error,omitempty"`
}

// ChatMessage is a display-only line of a conversation.
type ChatMessage struct {
	Text      string
	IsUser    bool
	Timestamp time.Time
}

// Upload is a file attached to a multipart request.
type Upload struct {
	Filename string
	Data     []byte
}
