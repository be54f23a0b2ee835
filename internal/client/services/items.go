package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/nutrinow/internal/client/client"
	"github.com/dmitrijs2005/nutrinow/internal/client/models"
	"github.com/dmitrijs2005/nutrinow/internal/logging"
	"golang.org/x/sync/errgroup"
)

// ItemManager keeps the workout and meal collections in step with the
// backend. Local state changes only after the backend confirms a change;
// failures are reported through the Alerter and never retried.
type ItemManager struct {
	client  client.Client
	alert   Alerter
	confirm Confirmer
	log     logging.Logger

	mu       sync.Mutex
	workouts []models.Item
	meals    []models.Item
	tab      models.Tab
	editing  *models.Item

	adding   inflight
	updating inflight
	deleting inflight
}

func NewItemManager(c client.Client, alert Alerter, confirm Confirmer, log logging.Logger) *ItemManager {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if alert == nil {
		alert = nopAlerter{}
	}
	return &ItemManager{
		client:   c,
		alert:    alert,
		confirm:  confirm,
		log:      log.With("component", "items"),
		workouts: []models.Item{},
		meals:    []models.Item{},
		tab:      models.TabWorkouts,
	}
}

// LoadItems fetches both collections concurrently. Each one is replaced only
// if its own request succeeds; the first failure is returned.
func (m *ItemManager) LoadItems(ctx context.Context) error {
	var g errgroup.Group
	for _, tab := range []models.Tab{models.TabWorkouts, models.TabMeals} {
		g.Go(func() error {
			items, err := m.client.ListItems(ctx, tab.Kind())
			if err != nil {
				m.log.Warn(ctx, "failed to load items", "kind", tab.Kind(), "error", err)
				return fmt.Errorf("load %s: %w", tab, err)
			}
			m.replace(tab, items)
			return nil
		})
	}
	return g.Wait()
}

func (m *ItemManager) replace(tab models.Tab, items []models.Item) {
	cp := make([]models.Item, len(items))
	copy(cp, items)

	m.mu.Lock()
	defer m.mu.Unlock()
	*m.collection(tab) = cp
}

// collection returns the slice for tab. Callers hold m.mu.
func (m *ItemManager) collection(tab models.Tab) *[]models.Item {
	if tab == models.TabMeals {
		return &m.meals
	}
	return &m.workouts
}

func normalizeItem(title, description, tm string) (string, string, string, error) {
	title, description, tm = strings.TrimSpace(title), strings.TrimSpace(description), strings.TrimSpace(tm)
	if title == "" || description == "" {
		return "", "", "", invalid("", "Title and description are required.")
	}
	return title, description, tm, nil
}

// AddItem creates an item in the active tab. The local copy always carries
// the id the backend assigned; when the response has none the collection is
// reloaded and the returned item is nil.
func (m *ItemManager) AddItem(ctx context.Context, title, description, tm string) (*models.Item, error) {
	title, description, tm, err := normalizeItem(title, description, tm)
	if err != nil {
		m.alert.Alert(UserMessage(err, ""))
		return nil, err
	}
	if !m.adding.begin() {
		return nil, ErrInFlight
	}
	defer m.adding.end()

	tab := m.ActiveTab()
	resp, err := m.client.CreateItem(ctx, models.ItemInput{
		Title:       title,
		Description: description,
		Time:        tm,
		Kind:        tab.Kind(),
	})
	if err == nil {
		err = logicalFailure(resp.Success, resp.Error)
	}
	if err != nil {
		m.alert.Alert(UserMessage(err, "Could not add the item."))
		return nil, fmt.Errorf("add item: %w", err)
	}

	id, ok := resp.CreatedID()
	if !ok {
		m.log.Warn(ctx, "create response carries no id, reloading", "kind", tab.Kind())
		items, err := m.client.ListItems(ctx, tab.Kind())
		if err != nil {
			m.alert.Alert(UserMessage(err, "Item added, but the list could not be refreshed."))
			return nil, fmt.Errorf("reload %s: %w", tab, err)
		}
		m.replace(tab, items)
		return nil, nil
	}

	item := models.Item{ID: id, Title: title, Description: description, Time: tm}
	m.mu.Lock()
	upsert(m.collection(tab), item)
	m.mu.Unlock()
	return &item, nil
}

// upsert replaces the element with item's id or appends item. A reload that
// finished while the create was in flight may already hold the new row.
func upsert(col *[]models.Item, item models.Item) {
	for i := range *col {
		if (*col)[i].ID == item.ID {
			(*col)[i] = item
			return
		}
	}
	*col = append(*col, item)
}

// EditItem selects item for editing.
func (m *ItemManager) EditItem(item models.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editing = &item
}

// EditItemByID selects the item with id from the active tab.
func (m *ItemManager) EditItemByID(id int64) (models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range *m.collection(m.tab) {
		if it.ID == id {
			sel := it
			m.editing = &sel
			return it, nil
		}
	}
	return models.Item{}, ErrItemNotFound
}

func (m *ItemManager) CancelEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editing = nil
}

// clearSelection drops sel unless the user has picked another item since.
func (m *ItemManager) clearSelection(sel *models.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editing == sel {
		m.editing = nil
	}
}

// Editing returns the selected item, if any.
func (m *ItemManager) Editing() (models.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editing == nil {
		return models.Item{}, false
	}
	return *m.editing, true
}

// UpdateItem saves the selected item. On success the element with the same
// id is replaced in place; if the collection no longer has it nothing is
// inserted. The selection is cleared once the request has been made, unless
// another item was selected meanwhile.
func (m *ItemManager) UpdateItem(ctx context.Context, title, description, tm string) error {
	m.mu.Lock()
	sel, tab := m.editing, m.tab
	m.mu.Unlock()
	if sel == nil {
		return ErrNoSelection
	}

	title, description, tm, err := normalizeItem(title, description, tm)
	if err != nil {
		m.alert.Alert(UserMessage(err, ""))
		return err
	}
	if !m.updating.begin() {
		return ErrInFlight
	}
	defer m.updating.end()
	defer m.clearSelection(sel)

	resp, err := m.client.UpdateItem(ctx, sel.ID, models.ItemInput{
		Title:       title,
		Description: description,
		Time:        tm,
		Kind:        tab.Kind(),
	})
	if err == nil {
		err = logicalFailure(resp.Success, resp.Error)
	}
	if err != nil {
		m.alert.Alert(UserMessage(err, "Could not update the item."))
		return fmt.Errorf("update item %d: %w", sel.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	col := *m.collection(tab)
	for i := range col {
		if col[i].ID == sel.ID {
			col[i] = models.Item{ID: sel.ID, Title: title, Description: description, Time: tm}
			return nil
		}
	}
	m.log.Debug(ctx, "updated item not in local collection", "id", sel.ID)
	return nil
}

// DeleteItem removes id from the active tab after the user confirms.
func (m *ItemManager) DeleteItem(ctx context.Context, id int64) error {
	if m.confirm == nil || !m.confirm.Confirm("Delete this item?") {
		return ErrCancelled
	}
	if !m.deleting.begin() {
		return ErrInFlight
	}
	defer m.deleting.end()

	tab := m.ActiveTab()
	resp, err := m.client.DeleteItem(ctx, id)
	if err == nil {
		err = logicalFailure(resp.Success, resp.Error)
	}
	if err != nil {
		m.alert.Alert(UserMessage(err, "Could not delete the item."))
		return fmt.Errorf("delete item %d: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	col := m.collection(tab)
	kept := make([]models.Item, 0, len(*col))
	for _, it := range *col {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	*col = kept
	return nil
}

// SwitchTab changes the active tab and drops any edit selection.
func (m *ItemManager) SwitchTab(tab models.Tab) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tab = tab
	m.editing = nil
}

func (m *ItemManager) ActiveTab() models.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tab
}

// Items returns a copy of the active collection.
func (m *ItemManager) Items() []models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneItems(*m.collection(m.tab))
}

func (m *ItemManager) Workouts() []models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneItems(m.workouts)
}

func (m *ItemManager) Meals() []models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneItems(m.meals)
}

func cloneItems(in []models.Item) []models.Item {
	out := make([]models.Item, len(in))
	copy(out, in)
	return out
}
