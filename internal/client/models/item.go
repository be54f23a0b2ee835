package models

import (
	"fmt"

	"github.com/dmitrijs2005/nutrinow/internal/common"
)

// Tab selects which item collection is active.
type Tab string

const (
	TabWorkouts Tab = "treinos"
	TabMeals    Tab = "dietas"
)

// Kind maps the tab to the backend "tipo" discriminator.
func (t Tab) Kind() string {
	if t == TabMeals {
		return common.KindMeal
	}
	return common.KindWorkout
}

// ParseTab accepts a tab name or its kind ("treino", "dieta").
func ParseTab(s string) (Tab, error) {
	switch s {
	case string(TabWorkouts), common.KindWorkout:
		return TabWorkouts, nil
	case string(TabMeals), common.KindMeal:
		return TabMeals, nil
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// Item is a workout or a meal entry.
type Item struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Time        string `json:"time,omitempty"`
}

// ItemInput is the POST/PUT body of /dieta-treino.
type ItemInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Time        string `json:"time"`
	Kind        string `json:"tipo"`
}

// ItemsResponse is returned by GET /dieta-treino.
type ItemsResponse struct {
	Success bool   `json:"success"`
	Items   []Item `json:"items"`
	Error   string `json:"error,omitempty"`
}

// ItemMutationResponse is returned by POST, PUT and DELETE /dieta-treino.
type ItemMutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	ID      int64  `json:"id,omitempty"`
	Item    *Item  `json:"item,omitempty"`
}

// CreatedID returns the server-assigned id of a created item, if any.
func (r *ItemMutationResponse) CreatedID() (int64, bool) {
	if r == nil {
		return 0, false
	}
	if r.Item != nil && r.Item.ID > 0 {
		return r.Item.ID, true
	}
	if r.ID > 0 {
		return r.ID, true
	}
	return 0, false
}
