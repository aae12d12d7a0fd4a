package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"github.com/yourusername/matchbet-api/internal/domain/repository"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
)

// MatchRepo реализует repository.MatchRepository
type MatchRepo struct {
	db *gorm.DB
}

// NewMatchRepo создает новый репозиторий матчей
func NewMatchRepo(db *gorm.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// Create создает новый матч
func (r *MatchRepo) Create(match *entity.Match) error {
	return r.db.Create(match).Error
}

// GetByID возвращает матч по ID
func (r *MatchRepo) GetByID(id uint) (*entity.Match, error) {
	var match entity.Match
	err := r.db.First(&match, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &match, nil
}

// GetByIDForUpdate читает матч с блокировкой строки в рамках транзакции
func (r *MatchRepo) GetByIDForUpdate(tx *gorm.DB, id uint) (*entity.Match, error) {
	var match entity.Match
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&match, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &match, nil
}

// ListWithFilters возвращает список матчей с фильтрами и total count
func (r *MatchRepo) ListWithFilters(filters repository.MatchFilters, limit, offset int) ([]entity.Match, int64, error) {
	var matches []entity.Match
	var total int64

	query := r.db.Model(&entity.Match{})

	if filters.CompetitionID != 0 {
		query = query.Where("competition_id = ?", filters.CompetitionID)
	}

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	if filters.DateFrom != nil {
		query = query.Where("start_time >= ?", *filters.DateFrom)
	}

	if filters.DateTo != nil {
		query = query.Where("start_time <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("start_time ASC, id ASC").Find(&matches).Error
	if err != nil {
		return nil, 0, err
	}

	return matches, total, nil
}

// GetNextUnlocked возвращает незаблокированные матчи ближайшей пачки турнира.
// Время ближайшей пачки вычисляется по еще не начавшимся запланированным
// матчам без учета защелки: уже заблокированная пачка продолжает считаться
// ближайшей, пока не начнется, и очередь не продвигается каскадом. Матчи
// с одинаковым временем начала возвращаются вместе.
func (r *MatchRepo) GetNextUnlocked(competitionID uint, now time.Time) ([]entity.Match, error) {
	var matches []entity.Match
	err := r.db.Where(`competition_id = ? AND status = ? AND deadline_locked = false
		AND start_time = (
			SELECT MIN(start_time) FROM matches
			WHERE competition_id = ? AND status = ? AND start_time > ?
		)`,
		competitionID, entity.MatchStatusScheduled,
		competitionID, entity.MatchStatusScheduled, now).
		Order("id ASC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// ListActiveCompetitionIDs возвращает турниры с незаблокированными запланированными матчами
func (r *MatchRepo) ListActiveCompetitionIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entity.Match{}).
		Where("status = ? AND deadline_locked = false", entity.MatchStatusScheduled).
		Distinct("competition_id").
		Order("competition_id ASC").
		Pluck("competition_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateDeadline точечно обновляет дедлайн с проверкой версии
func (r *MatchRepo) UpdateDeadline(matchID uint, deadline time.Time, expectedVersion int64) error {
	result := r.db.Model(&entity.Match{}).
		Where("id = ? AND version = ?", matchID, expectedVersion).
		Updates(map[string]interface{}{
			"deadline_at": deadline,
			"version":     gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return fmt.Errorf("update deadline for match #%d failed: %w", matchID, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: match #%d", apperrors.ErrConcurrentModification, matchID)
	}

	return nil
}

// UpdateSchedule обновляет время начала и дедлайн одним запросом с проверкой версии
func (r *MatchRepo) UpdateSchedule(matchID uint, startTime, deadline time.Time, expectedVersion int64) error {
	result := r.db.Model(&entity.Match{}).
		Where("id = ? AND version = ?", matchID, expectedVersion).
		Updates(map[string]interface{}{
			"start_time":  startTime,
			"deadline_at": deadline,
			"version":     gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return fmt.Errorf("update schedule for match #%d failed: %w", matchID, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: match #%d", apperrors.ErrConcurrentModification, matchID)
	}

	return nil
}

// LockDeadlines выставляет защелку дедлайна для набора матчей.
// Условие deadline_locked = false делает операцию идемпотентной: уже
// заблокированные матчи повторно не трогаются.
func (r *MatchRepo) LockDeadlines(tx *gorm.DB, matchIDs []uint) error {
	if len(matchIDs) == 0 {
		return nil
	}
	return tx.Model(&entity.Match{}).
		Where("id IN ? AND deadline_locked = false", matchIDs).
		Updates(map[string]interface{}{
			"deadline_locked": true,
			"version":         gorm.Expr("version + 1"),
		}).Error
}

// UpdateStatus переводит матч в новый статус с проверкой версии
func (r *MatchRepo) UpdateStatus(tx *gorm.DB, matchID uint, status string, expectedVersion int64) error {
	result := tx.Model(&entity.Match{}).
		Where("id = ? AND version = ?", matchID, expectedVersion).
		Updates(map[string]interface{}{
			"status":  status,
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return fmt.Errorf("update status for match #%d failed: %w", matchID, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: match #%d", apperrors.ErrConcurrentModification, matchID)
	}

	return nil
}
