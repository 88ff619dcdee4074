package habitstore

import (
	"time"

	"github.com/julianstephens/habitflow/internal/models"
)

// SeedHabits is the starter collection written to an empty store.
func SeedHabits(now time.Time) []models.Habit {
	starter := []struct {
		id     string
		title  string
		points int
	}{
		{"1", "Breathing Exercises", 10},
		{"2", "Drink Water", 5},
		{"3", "Stretching", 15},
		{"4", "Cold Shower", 20},
		{"5", "Healthy Breakfast", 10},
	}

	habits := make([]models.Habit, len(starter))
	for i, st := range starter {
		created := now
		habits[i] = models.Habit{
			ID:          st.id,
			Title:       st.title,
			Category:    models.CategoryMorning,
			Status:      models.StatusPending,
			PointsValue: st.points,
			CreatedAt:   &created,
		}
	}
	return habits
}
