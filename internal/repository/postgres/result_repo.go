package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
)

// ResultRepo реализует repository.ResultRepository
type ResultRepo struct {
	db *gorm.DB
}

// NewResultRepo создает новый репозиторий результатов
func NewResultRepo(db *gorm.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// Create создает предварительный результат матча
func (r *ResultRepo) Create(result *entity.MatchResult) error {
	err := r.db.Create(result).Error
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: result for match #%d already exists", apperrors.ErrConflict, result.MatchID)
	}
	return err
}

// GetByMatchID возвращает результат матча
func (r *ResultRepo) GetByMatchID(matchID uint) (*entity.MatchResult, error) {
	var result entity.MatchResult
	err := r.db.Where("match_id = ?", matchID).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// GetByMatchIDForUpdate читает результат с блокировкой строки в рамках транзакции
func (r *ResultRepo) GetByMatchIDForUpdate(tx *gorm.DB, matchID uint) (*entity.MatchResult, error) {
	var result entity.MatchResult
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("match_id = ?", matchID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// UpdateScore корректирует предварительный результат с проверкой версии.
// Условие is_provisional = true не дает скорректировать финальный результат
// даже при гонке с финализацией.
func (r *ResultRepo) UpdateScore(resultID uint, homeScore, awayScore int, winner string, expectedVersion int64) error {
	result := r.db.Model(&entity.MatchResult{}).
		Where("id = ? AND version = ? AND is_provisional = true", resultID, expectedVersion).
		Updates(map[string]interface{}{
			"home_score": homeScore,
			"away_score": awayScore,
			"winner":     winner,
			"version":    gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return fmt.Errorf("update score for result #%d failed: %w", resultID, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: result #%d", apperrors.ErrConcurrentModification, resultID)
	}

	return nil
}

// Finalize переводит результат в финальное состояние с проверкой версии
func (r *ResultRepo) Finalize(tx *gorm.DB, resultID uint, finalizedAt time.Time, expectedVersion int64) error {
	result := tx.Model(&entity.MatchResult{}).
		Where("id = ? AND version = ? AND is_provisional = true", resultID, expectedVersion).
		Updates(map[string]interface{}{
			"is_provisional": false,
			"finalized_at":   finalizedAt,
			"version":        gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return fmt.Errorf("finalize result #%d failed: %w", resultID, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: result #%d", apperrors.ErrConcurrentModification, resultID)
	}

	return nil
}
