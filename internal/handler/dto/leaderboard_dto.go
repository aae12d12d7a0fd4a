package dto

import (
	"github.com/yourusername/matchbet-api/internal/domain/entity"
)

// LeaderboardEntryDTO представляет одну строку таблицы лидеров группы
type LeaderboardEntryDTO struct {
	Rank         int    `json:"rank"`          // Место участника в группе
	UserID       uint   `json:"user_id"`       // ID пользователя
	Username     string `json:"username"`      // Имя пользователя
	TotalPoints  int    `json:"total_points"`  // Суммарные очки
	ExactCount   int    `json:"exact_count"`   // Количество точных счетов
	OutcomeCount int    `json:"outcome_count"` // Количество угаданных исходов без счета
	Predictions  int    `json:"predictions"`   // Количество рассчитанных прогнозов
}

// LeaderboardResponse представляет таблицу лидеров группы
type LeaderboardResponse struct {
	GroupID uint                   `json:"group_id"`
	Entries []*LeaderboardEntryDTO `json:"entries"`
	Total   int                    `json:"total"`
}

// NewLeaderboardEntryDTO создает DTO для строки таблицы лидеров
func NewLeaderboardEntryDTO(e *entity.LeaderboardEntry) *LeaderboardEntryDTO {
	if e == nil {
		return nil
	}
	return &LeaderboardEntryDTO{
		Rank:         e.Rank,
		UserID:       e.UserID,
		Username:     e.Username,
		TotalPoints:  e.TotalPoints,
		ExactCount:   e.ExactCount,
		OutcomeCount: e.OutcomeCount,
		Predictions:  e.Predictions,
	}
}

// NewLeaderboardResponse создает DTO для таблицы лидеров группы
func NewLeaderboardResponse(groupID uint, entries []entity.LeaderboardEntry) *LeaderboardResponse {
	list := make([]*LeaderboardEntryDTO, len(entries))
	for i := range entries {
		list[i] = NewLeaderboardEntryDTO(&entries[i])
	}
	return &LeaderboardResponse{
		GroupID: groupID,
		Entries: list,
		Total:   len(list),
	}
}
