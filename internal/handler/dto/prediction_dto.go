package dto

import (
	"time"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
)

// PredictionResponse представляет прогноз в формате для ответа клиенту
type PredictionResponse struct {
	ID                 uint       `json:"id"`
	UserID             uint       `json:"user_id"`
	MatchID            uint       `json:"match_id"`
	GroupID            uint       `json:"group_id"`
	PredictedOutcome   string     `json:"predicted_outcome"`
	PredictedHomeScore int        `json:"predicted_home_score"`
	PredictedAwayScore int        `json:"predicted_away_score"`
	PlacedAt           time.Time  `json:"placed_at"`
	Points             *int       `json:"points,omitempty"`
	Status             string     `json:"status"`
	SettledAt          *time.Time `json:"settled_at,omitempty"`
}

// PaginatedPredictionResponse представляет пагинированный список прогнозов
type PaginatedPredictionResponse struct {
	Predictions []*PredictionResponse `json:"predictions"`
	Total       int64                 `json:"total"`
	Page        int                   `json:"page"`
	PerPage     int                   `json:"per_page"`
}

// NewPredictionResponse создает DTO для прогноза
func NewPredictionResponse(p *entity.Prediction) *PredictionResponse {
	if p == nil {
		return nil
	}
	return &PredictionResponse{
		ID:                 p.ID,
		UserID:             p.UserID,
		MatchID:            p.MatchID,
		GroupID:            p.GroupID,
		PredictedOutcome:   p.PredictedOutcome,
		PredictedHomeScore: p.PredictedHomeScore,
		PredictedAwayScore: p.PredictedAwayScore,
		PlacedAt:           p.PlacedAt,
		Points:             p.Points,
		Status:             p.Status,
		SettledAt:          p.SettledAt,
	}
}

// NewListPredictionResponse создает слайс DTO для списка прогнозов
func NewListPredictionResponse(predictions []entity.Prediction) []*PredictionResponse {
	list := make([]*PredictionResponse, len(predictions))
	for i, p := range predictions {
		list[i] = NewPredictionResponse(&p)
	}
	return list
}

// NewPaginatedPredictionResponse создает DTO для пагинированного списка прогнозов
func NewPaginatedPredictionResponse(predictions []entity.Prediction, total int64, page, perPage int) *PaginatedPredictionResponse {
	return &PaginatedPredictionResponse{
		Predictions: NewListPredictionResponse(predictions),
		Total:       total,
		Page:        page,
		PerPage:     perPage,
	}
}
