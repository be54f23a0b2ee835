package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/nutrinow/internal/client/client"
	"github.com/dmitrijs2005/nutrinow/internal/client/models"
	"github.com/dmitrijs2005/nutrinow/internal/logging"
)

const msgAssistantUnavailable = "Sorry, I could not reach the assistant. Check your connection and try again."

// Conversation is the chat screen state: an append-only list of display
// messages and a loading flag while a request is pending.
type Conversation struct {
	chat *ChatCoordinator
	log  logging.Logger

	mu       sync.Mutex
	messages []models.ChatMessage
	sending  inflight

	now func() time.Time
}

func NewConversation(chat *ChatCoordinator, log logging.Logger) *Conversation {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Conversation{chat: chat, log: log.With("component", "conversation"), now: time.Now}
}

// Load replaces the messages with the stored history of the current session.
func (c *Conversation) Load(ctx context.Context) error {
	history, err := c.chat.ChatHistory(ctx, "")
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.messages = history
	c.mu.Unlock()
	return nil
}

// Messages returns a snapshot in arrival order.
func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Loading() bool {
	return c.sending.active()
}

// Send appends the user's text and then the assistant reply. When the request
// fails the reply is an error notice and the error is returned as well.
func (c *Conversation) Send(ctx context.Context, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, invalid("message", "Message must not be empty.")
	}
	return c.exchange(ctx, text, func(ctx context.Context) (*models.ChatResponse, error) {
		return c.chat.SendMessage(ctx, text)
	})
}

// SendImage uploads an image and appends the analysis as the reply.
func (c *Conversation) SendImage(ctx context.Context, upload models.Upload) (models.ChatMessage, error) {
	if len(upload.Data) == 0 {
		return models.ChatMessage{}, invalid("file", "Choose an image to analyse.")
	}
	return c.exchange(ctx, "[image] "+upload.Filename, func(ctx context.Context) (*models.ChatResponse, error) {
		return c.chat.AnalyzeImage(ctx, upload, "")
	})
}

func (c *Conversation) exchange(ctx context.Context, userText string, call func(context.Context) (*models.ChatResponse, error)) (models.ChatMessage, error) {
	if !c.sending.begin() {
		return models.ChatMessage{}, ErrInFlight
	}
	defer c.sending.end()

	c.append(models.ChatMessage{Text: userText, IsUser: true, Timestamp: c.now()})

	resp, err := call(ctx)
	if err == nil && resp.SessionID != "" {
		if setErr := c.chat.SetSessionID(ctx, resp.SessionID); setErr != nil {
			c.log.Warn(ctx, "failed to adopt chat session id", "error", setErr)
		}
	}
	if err == nil && !resp.Success && resp.Error != "" {
		err = &client.APIError{Status: 200, Message: resp.Error}
	}

	reply := models.ChatMessage{Text: replyText(resp, err), Timestamp: c.now()}
	c.append(reply)
	return reply, err
}

func replyText(resp *models.ChatResponse, err error) string {
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return apiErr.Message
		}
		return msgAssistantUnavailable
	}
	return resp.Response
}

func (c *Conversation) append(m models.ChatMessage) {
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
}
