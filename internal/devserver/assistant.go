package devserver

import (
	"fmt"
	"path/filepath"
	"strings"
)

// reply produces the canned assistant answer for a chat message.
func reply(message string) string {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "treino"), strings.Contains(m, "workout"), strings.Contains(m, "exerc"):
		return "Try 30 minutes of brisk walking today and two strength sessions this week."
	case strings.Contains(m, "dieta"), strings.Contains(m, "meal"), strings.Contains(m, "comer"), strings.Contains(m, "refei"):
		return "Build each meal around a protein, a vegetable and a whole-grain carbohydrate."
	case strings.Contains(m, "água"), strings.Contains(m, "agua"), strings.Contains(m, "water"):
		return "Aim for about 35 ml of water per kilogram of body weight each day."
	}
	return fmt.Sprintf("You said: %q. Ask me about meals, workouts or hydration.", message)
}

// analysis produces the canned answer for an uploaded image.
func analysis(filename string, size int) string {
	return fmt.Sprintf("Image %s (%d bytes) looks like a balanced plate, roughly 450 kcal.",
		filepath.Base(filename), size)
}
