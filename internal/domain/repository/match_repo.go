package repository

import (
	"time"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"gorm.io/gorm"
)

// MatchFilters определяет фильтры для поиска матчей
type MatchFilters struct {
	CompetitionID uint       // Фильтр по турниру
	Status        string     // Фильтр по статусу (scheduled, finished, cancelled)
	DateFrom      *time.Time // Фильтр по дате начала
	DateTo        *time.Time // Фильтр по дате окончания
}

// MatchRepository определяет методы для работы с матчами
type MatchRepository interface {
	Create(match *entity.Match) error
	GetByID(id uint) (*entity.Match, error)
	// GetByIDForUpdate читает матч с блокировкой строки (SELECT ... FOR UPDATE)
	GetByIDForUpdate(tx *gorm.DB, id uint) (*entity.Match, error)
	ListWithFilters(filters MatchFilters, limit, offset int) ([]entity.Match, int64, error) // Возвращает также total count
	// GetNextUnlocked возвращает незаблокированные матчи ближайшей пачки турнира.
	// Очередь считается по еще не начавшимся запланированным матчам независимо
	// от защелки: пока ближайший матч не начался, следующая пачка не продвигается.
	// Одновременные матчи возвращаются вместе.
	GetNextUnlocked(competitionID uint, now time.Time) ([]entity.Match, error)
	// ListActiveCompetitionIDs возвращает турниры, в которых еще есть
	// незаблокированные запланированные матчи
	ListActiveCompetitionIDs() ([]uint, error)
	// UpdateDeadline точечно обновляет дедлайн с проверкой версии.
	// Возвращает ErrConcurrentModification при несовпадении версии.
	UpdateDeadline(matchID uint, deadline time.Time, expectedVersion int64) error
	// UpdateSchedule обновляет время начала и дедлайн одним запросом с проверкой версии
	UpdateSchedule(matchID uint, startTime, deadline time.Time, expectedVersion int64) error
	// LockDeadlines выставляет одностороннюю защелку дедлайна для набора матчей
	LockDeadlines(tx *gorm.DB, matchIDs []uint) error
	// UpdateStatus переводит матч в новый статус с проверкой версии
	UpdateStatus(tx *gorm.DB, matchID uint, status string, expectedVersion int64) error
}
