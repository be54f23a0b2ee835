package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/nutrinow/internal/client/models"
	"github.com/dmitrijs2005/nutrinow/internal/client/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newChat(fc *fakeClient, store storage.Store) *ChatCoordinator {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	c := NewChatCoordinator(fc, store, nil)
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestChat_SessionIDIsGeneratedOnceAndCached(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := NewChatCoordinator(&fakeClient{}, store, nil)

	first, err := c.SessionID(ctx)
	require.NoError(t, err)
	second, err := c.SessionID(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Regexp(t, regexp.MustCompile(`^session_\d+_[0-9a-z]{9}$`), first)

	stored, ok, err := store.Get(ctx, SessionIDKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, stored)
}

func TestChat_SessionIDFormat(t *testing.T) {
	c := newChat(&fakeClient{}, nil)
	c.random = func(n int) string { return "abcdefghi"[:n] }

	id, err := c.SessionID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session_1741944413000_abcdefghi", id)
}

func TestChat_SessionIDReadFromStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, SessionIDKey, "session_from_other_tab"))

	id, err := newChat(&fakeClient{}, store).SessionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "session_from_other_tab", id)
}

func TestChat_SessionIDSharedBetweenCoordinators(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := NewChatCoordinator(&fakeClient{}, store, nil).SessionID(ctx)
			assert.NoError(t, err)
			ids[i] = id
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestChat_SetAndClearSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := newChat(&fakeClient{}, store)

	require.NoError(t, c.SetSessionID(ctx, "srv-42"))
	id, err := c.SessionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "srv-42", id)

	var ve *ValidationError
	require.ErrorAs(t, c.SetSessionID(ctx, " "), &ve)

	require.NoError(t, c.ClearSession(ctx))
	_, ok, _ := store.Get(ctx, SessionIDKey)
	assert.False(t, ok)

	fresh, err := c.SessionID(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "srv-42", fresh)
}

func TestChat_SendMessageCarriesSessionID(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{ChatResp: &models.ChatResponse{Success: true, Response: "Olá!"}}
	c := newChat(fc, nil)
	require.NoError(t, c.SetSessionID(ctx, "s-1"))

	resp, err := c.SendMessage(ctx, "  oi  ")
	require.NoError(t, err)
	assert.Equal(t, "Olá!", resp.Response)
	assert.Equal(t, models.ChatRequest{Message: "oi", SessionID: "s-1"}, fc.LastChat)

	_, err = c.SendMessage(ctx, "   ")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, fc.calls("SendMessage"))
}

func TestChat_HistoryMapping(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{HistoryResp: &models.HistoryResponse{Success: true, History: []models.HistoryTurn{
		{Content: "quero emagrecer", Type: "human", Timestamp: "2025-03-01T10:00:00Z"},
		{Content: "Vamos montar um plano", Type: "ai", Timestamp: "2025-03-01T10:00:05.123456"},
		{Content: "obrigado", Type: "human"},
		{Content: "sistema", Type: "system", Timestamp: "garbage"},
	}}}
	c := newChat(fc, nil)

	got, err := c.ChatHistory(ctx, "s-9")
	require.NoError(t, err)
	assert.Equal(t, "s-9", fc.LastHistoryID)

	want := []models.ChatMessage{
		{Text: "quero emagrecer", IsUser: true, Timestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{Text: "Vamos montar um plano", IsUser: false, Timestamp: time.Date(2025, 3, 1, 10, 0, 5, 123456000, time.UTC)},
		{Text: "obrigado", IsUser: true, Timestamp: fixedNow},
		{Text: "sistema", IsUser: false, Timestamp: fixedNow},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestChat_HistoryDefaultsToCurrentSession(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{HistoryResp: &models.HistoryResponse{Success: true}}
	c := newChat(fc, nil)
	require.NoError(t, c.SetSessionID(ctx, "s-current"))

	got, err := c.ChatHistory(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, "s-current", fc.LastHistoryID)

	fc.HistoryErr = errors.New("boom")
	_, err = c.ChatHistory(ctx, "")
	require.Error(t, err)
}

func TestChat_AnalyzeImage(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{ImageResp: &models.ChatResponse{Success: true, Response: "~450 kcal"}}
	c := newChat(fc, nil)
	require.NoError(t, c.SetSessionID(ctx, "s-img"))

	_, err := c.AnalyzeImage(ctx, models.Upload{Filename: "x.png"}, "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, fc.calls("AnalyzeImage"))

	resp, err := c.AnalyzeImage(ctx, models.Upload{Filename: "x.png", Data: []byte{1}}, "")
	require.NoError(t, err)
	assert.Equal(t, "~450 kcal", resp.Response)
	assert.Equal(t, "s-img", fc.LastImageID)

	_, err = c.AnalyzeImage(ctx, models.Upload{Filename: "x.png", Data: []byte{1}}, "explicit")
	require.NoError(t, err)
	assert.Equal(t, "explicit", fc.LastImageID)
}
