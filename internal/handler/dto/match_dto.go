package dto

import (
	"time"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
)

// MatchResponse представляет матч в формате для ответа клиенту
type MatchResponse struct {
	ID             uint      `json:"id"`
	CompetitionID  uint      `json:"competition_id"`
	HomeTeam       string    `json:"home_team"`
	AwayTeam       string    `json:"away_team"`
	StartTime      time.Time `json:"start_time"`
	DeadlineAt     time.Time `json:"deadline_at"`
	DeadlineLocked bool      `json:"deadline_locked"`
	Status         string    `json:"status"`
	LockState      string    `json:"lock_state,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PaginatedMatchResponse представляет пагинированный список матчей
type PaginatedMatchResponse struct {
	Matches []*MatchResponse `json:"matches"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// NewMatchResponse создает DTO для матча.
// lockState опционален: для списков он не вычисляется.
func NewMatchResponse(match *entity.Match, lockState string) *MatchResponse {
	if match == nil {
		return nil
	}
	return &MatchResponse{
		ID:             match.ID,
		CompetitionID:  match.CompetitionID,
		HomeTeam:       match.HomeTeam,
		AwayTeam:       match.AwayTeam,
		StartTime:      match.StartTime,
		DeadlineAt:     match.DeadlineAt,
		DeadlineLocked: match.DeadlineLocked,
		Status:         match.Status,
		LockState:      lockState,
		CreatedAt:      match.CreatedAt,
		UpdatedAt:      match.UpdatedAt,
	}
}

// NewListMatchResponse создает слайс DTO для списка матчей
func NewListMatchResponse(matches []entity.Match) []*MatchResponse {
	list := make([]*MatchResponse, len(matches))
	for i, match := range matches {
		list[i] = NewMatchResponse(&match, "")
	}
	return list
}

// NewPaginatedMatchResponse создает DTO для пагинированного списка матчей
func NewPaginatedMatchResponse(matches []entity.Match, total int64, page, perPage int) *PaginatedMatchResponse {
	return &PaginatedMatchResponse{
		Matches: NewListMatchResponse(matches),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}
}
