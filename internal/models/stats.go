package models

// UserStats is the single streak/points ledger.
type UserStats struct {
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
	TotalPoints   int    `json:"totalPoints"`
	LastLoginDate string `json:"lastLoginDate"` // YYYY-MM-DD format
}

// DefaultStats returns a fresh ledger anchored on today.
func DefaultStats(today string) UserStats {
	return UserStats{LastLoginDate: today}
}
