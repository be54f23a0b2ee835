package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/nutrinow/internal/client/client"
	"github.com/dmitrijs2005/nutrinow/internal/client/models"
	"github.com/dmitrijs2005/nutrinow/internal/client/storage"
	"github.com/dmitrijs2005/nutrinow/internal/common"
	"github.com/dmitrijs2005/nutrinow/internal/logging"
)

// SessionIDKey is the storage key owned by ChatCoordinator. It is shared by
// every client process using the same store.
const SessionIDKey = "nutrinow_session_id"

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// historyLayouts are the timestamp formats the backend has been seen to use.
var historyLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// ChatCoordinator tracks the chat session id and performs chat requests on
// its behalf. The id is independent of login: it is created on first use and
// lives until ClearSession.
type ChatCoordinator struct {
	client client.Client
	store  storage.Store
	log    logging.Logger

	mu        sync.Mutex
	sessionID string

	now    func() time.Time
	random func(n int) string
}

func NewChatCoordinator(c client.Client, store storage.Store, log logging.Logger) *ChatCoordinator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ChatCoordinator{
		client: c,
		store:  store,
		log:    log.With("component", "chat"),
		now:    time.Now,
		random: randomBase36,
	}
}

// SessionID returns the cached id, then the stored one, and otherwise
// generates and stores a new one. Repeated calls return the same value.
func (c *ChatCoordinator) SessionID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID != "" {
		return c.sessionID, nil
	}

	id, err := c.store.GetOrSet(ctx, SessionIDKey, c.newSessionID)
	if err != nil {
		return "", fmt.Errorf("load chat session id: %w", err)
	}
	if id == "" {
		id = c.newSessionID()
		if err := c.store.Set(ctx, SessionIDKey, id); err != nil {
			return "", fmt.Errorf("save chat session id: %w", err)
		}
	}
	c.sessionID = id
	return id, nil
}

// SetSessionID adopts an id, typically one issued by the backend.
func (c *ChatCoordinator) SetSessionID(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("session_id", "Session id must not be empty.")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessionID = id
	if err := c.store.Set(ctx, SessionIDKey, id); err != nil {
		return fmt.Errorf("save chat session id: %w", err)
	}
	return nil
}

// ClearSession forgets the id in memory and in the store.
func (c *ChatCoordinator) ClearSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessionID = ""
	if err := c.store.Remove(ctx, SessionIDKey); err != nil {
		return fmt.Errorf("clear chat session id: %w", err)
	}
	return nil
}

func (c *ChatCoordinator) newSessionID() string {
	return "session_" + strconv.FormatInt(c.now().UnixMilli(), 10) + "_" + c.random(9)
}

func randomBase36(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = base36[int(b[i])%len(base36)]
	}
	return string(b)
}

// SendMessage posts text to the assistant under the current session id. A
// session id in the response is not applied here; see Conversation.
func (c *ChatCoordinator) SendMessage(ctx context.Context, text string) (*models.ChatResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("message", "Message must not be empty.")
	}
	id, err := c.SessionID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.SendMessage(ctx, models.ChatRequest{Message: text, SessionID: id})
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return resp, nil
}

// ChatHistory loads the stored turns of sessionID (the current one when
// empty) in backend order. Turns of type "human" are the user's.
func (c *ChatCoordinator) ChatHistory(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	if sessionID == "" {
		id, err := c.SessionID(ctx)
		if err != nil {
			return nil, err
		}
		sessionID = id
	}

	resp, err := c.client.ChatHistory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	return c.toMessages(resp.History), nil
}

func (c *ChatCoordinator) toMessages(turns []models.HistoryTurn) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(turns))
	for _, t := range turns {
		out = append(out, models.ChatMessage{
			Text:      t.Content,
			IsUser:    t.Type == common.HistoryTypeHuman,
			Timestamp: c.parseTimestamp(t.Timestamp),
		})
	}
	return out
}

func (c *ChatCoordinator) parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range historyLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return c.now()
}

// AnalyzeImage uploads an image for nutritional analysis. An empty sessionID
// means the current one.
func (c *ChatCoordinator) AnalyzeImage(ctx context.Context, upload models.Upload, sessionID string) (*models.ChatResponse, error) {
	if len(upload.Data) == 0 {
		return nil, invalid("file", "Choose an image to analyse.")
	}
	if sessionID == "" {
		id, err := c.SessionID(ctx)
		if err != nil {
			return nil, err
		}
		sessionID = id
	}

	resp, err := c.client.AnalyzeImage(ctx, upload, sessionID)
	if err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	return resp, nil
}
