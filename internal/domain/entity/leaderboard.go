package entity

import (
	"time"
)

// LeaderboardEntry — производная строка таблицы лидеров группы.
// Не хранится как отдельная таблица: вычисляется из рассчитанных прогнозов.
type LeaderboardEntry struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`

	TotalPoints  int `json:"total_points"`
	ExactCount   int `json:"exact_count"`
	OutcomeCount int `json:"outcome_count"`
	Predictions  int `json:"predictions"`

	// RegisteredAt нужен для детерминированного упорядочивания при равенстве очков.
	RegisteredAt time.Time `json:"registered_at"`

	Rank int `json:"rank"`
}
