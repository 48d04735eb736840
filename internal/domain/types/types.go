// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry for one composite score
type Entry struct {
	Rank       int     `json:"rank"`
	UserID     string  `json:"user_id"`
	UserName   string  `json:"user_name"`
	Score      float64 `json:"score"`
	Percentile float64 `json:"percentile"`
	Archetype  string  `json:"archetype"`
}
