package repository

import (
	"time"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"gorm.io/gorm"
)

// PredictionRepository определяет методы для работы с прогнозами
type PredictionRepository interface {
	// Upsert атомарно создает или полностью замещает прогноз
	// по тройке (user_id, match_id, group_id)
	Upsert(tx *gorm.DB, prediction *entity.Prediction) error
	GetByUserMatchGroup(userID, matchID, groupID uint) (*entity.Prediction, error)
	GetByMatch(tx *gorm.DB, matchID uint) ([]entity.Prediction, error)
	// GetByMatchGroup возвращает прогнозы всех участников группы на матч
	GetByMatchGroup(matchID, groupID uint) ([]entity.Prediction, error)
	GetUserPredictions(userID, groupID uint, limit, offset int) ([]entity.Prediction, int64, error)
	// UpdateSettlement записывает начисленные очки и переводит прогноз в settled
	UpdateSettlement(tx *gorm.DB, predictionID uint, points int, settledAt time.Time) error
	// VoidByMatch аннулирует все нерассчитанные прогнозы на матч, возвращает их число
	VoidByMatch(tx *gorm.DB, matchID uint) (int64, error)
	// AggregateGroupTotals считает суммарные очки и счетчики точности по группе.
	// Счетчики точности опираются на начисленные очки, поэтому передаются
	// значения таблицы очков за точный счет и за угаданный исход.
	AggregateGroupTotals(groupID uint, exactPoints, outcomePoints int) ([]entity.LeaderboardEntry, error)
}
