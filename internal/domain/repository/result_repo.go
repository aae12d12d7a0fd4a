package repository

import (
	"time"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"gorm.io/gorm"
)

// ResultRepository определяет методы для работы с результатами матчей
type ResultRepository interface {
	Create(result *entity.MatchResult) error
	GetByMatchID(matchID uint) (*entity.MatchResult, error)
	// GetByMatchIDForUpdate читает результат с блокировкой строки
	GetByMatchIDForUpdate(tx *gorm.DB, matchID uint) (*entity.MatchResult, error)
	// UpdateScore корректирует предварительный результат с проверкой версии.
	// Возвращает ErrConcurrentModification при несовпадении версии.
	UpdateScore(resultID uint, homeScore, awayScore int, winner string, expectedVersion int64) error
	// Finalize переводит результат в финальное состояние с проверкой версии
	Finalize(tx *gorm.DB, resultID uint, finalizedAt time.Time, expectedVersion int64) error
}
