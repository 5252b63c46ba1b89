// Package types contains common types used across the application
package types

// Entry represents an expert leaderboard entry
type Entry struct {
	Rank      int     `json:"rank"`
	ExpertID  string  `json:"expert_id,omitempty"`
	Name      string  `json:"name"`
	WinRate   float64 `json:"win_rate"`
	TotalWins int     `json:"total_wins"`
	Activity  int     `json:"activity"`
	Tier      string  `json:"tier"`
	GradeName string  `json:"grade_name,omitempty"`
}
