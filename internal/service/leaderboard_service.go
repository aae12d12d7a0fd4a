package service

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"github.com/yourusername/matchbet-api/internal/domain/repository"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
)

// leaderboardCacheKey возвращает ключ кеша снимка таблицы лидеров группы
func leaderboardCacheKey(groupID uint) string {
	return fmt.Sprintf("leaderboard:group:%d", groupID)
}

// CompareEntries сравнивает две строки таблицы лидеров.
// Порядок критериев фиксированный: очки по убыванию, точные попадания по
// убыванию, угаданные исходы по убыванию, момент регистрации по возрастанию,
// ID пользователя по возрастанию. Последний критерий уникален, поэтому
// итоговый порядок полный и не зависит от порядка входных данных.
func CompareEntries(a, b *entity.LeaderboardEntry) bool {
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	if a.ExactCount != b.ExactCount {
		return a.ExactCount > b.ExactCount
	}
	if a.OutcomeCount != b.OutcomeCount {
		return a.OutcomeCount > b.OutcomeCount
	}
	if !a.RegisteredAt.Equal(b.RegisteredAt) {
		return a.RegisteredAt.Before(b.RegisteredAt)
	}
	return a.UserID < b.UserID
}

// SortEntries упорядочивает строки таблицы лидеров и проставляет ранги
func SortEntries(entries []entity.LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return CompareEntries(&entries[i], &entries[j])
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// ScoreDelta — приращение показателей одного участника после расчета матча
type ScoreDelta struct {
	Points       int
	ExactCount   int
	OutcomeCount int
	Predictions  int
}

// ApplyDeltas применяет приращения к снимку таблицы лидеров и
// переупорядочивает его. Участники, которых нет в снимке, игнорируются:
// в этом случае нужен полный пересчет.
func ApplyDeltas(entries []entity.LeaderboardEntry, deltas map[uint]ScoreDelta) ([]entity.LeaderboardEntry, bool) {
	index := make(map[uint]int, len(entries))
	for i := range entries {
		index[entries[i].UserID] = i
	}

	for userID := range deltas {
		if _, ok := index[userID]; !ok {
			return nil, false
		}
	}

	updated := make([]entity.LeaderboardEntry, len(entries))
	copy(updated, entries)

	for userID, delta := range deltas {
		i := index[userID]
		updated[i].TotalPoints += delta.Points
		updated[i].ExactCount += delta.ExactCount
		updated[i].OutcomeCount += delta.OutcomeCount
		updated[i].Predictions += delta.Predictions
	}

	SortEntries(updated)
	return updated, true
}

// LeaderboardService предоставляет методы для работы с таблицами лидеров групп
type LeaderboardService struct {
	predictionRepo repository.PredictionRepository
	groupRepo      repository.GroupRepository
	cacheRepo      repository.CacheRepository
	config         *Config
}

// NewLeaderboardService создает новый сервис таблиц лидеров
func NewLeaderboardService(
	predictionRepo repository.PredictionRepository,
	groupRepo repository.GroupRepository,
	cacheRepo repository.CacheRepository,
	config *Config,
) *LeaderboardService {
	return &LeaderboardService{
		predictionRepo: predictionRepo,
		groupRepo:      groupRepo,
		cacheRepo:      cacheRepo,
		config:         config,
	}
}

// GetLeaderboard возвращает таблицу лидеров группы. Сначала проверяется
// кеш; при промахе таблица пересчитывается из рассчитанных прогнозов и
// снимок кладется в кеш с TTL.
func (s *LeaderboardService) GetLeaderboard(groupID uint) ([]entity.LeaderboardEntry, error) {
	if _, err := s.groupRepo.GetByID(groupID); err != nil {
		return nil, err
	}

	var cached []entity.LeaderboardEntry
	err := s.cacheRepo.GetJSON(leaderboardCacheKey(groupID), &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		// Кеш недоступен: продолжаем с пересчетом из базы
		log.Printf("[LeaderboardService] Ошибка чтения кеша группы #%d: %v", groupID, err)
	}

	return s.Recompute(groupID)
}

// Recompute полностью пересчитывает таблицу лидеров группы и обновляет кеш
func (s *LeaderboardService) Recompute(groupID uint) ([]entity.LeaderboardEntry, error) {
	entries, err := s.predictionRepo.AggregateGroupTotals(groupID, s.config.PointsTable.Exact, s.config.PointsTable.Outcome)
	if err != nil {
		return nil, err
	}

	SortEntries(entries)

	if err := s.cacheRepo.SetJSON(leaderboardCacheKey(groupID), entries, s.config.LeaderboardCacheTTL); err != nil {
		log.Printf("[LeaderboardService] Ошибка записи кеша группы #%d: %v", groupID, err)
	}

	return entries, nil
}

// ApplySettlement инкрементально обновляет кешированный снимок таблицы
// после расчета матча. При промахе кеша или появлении нового участника
// выполняется полный пересчет: оба пути дают одинаковый результат.
func (s *LeaderboardService) ApplySettlement(groupID uint, deltas map[uint]ScoreDelta) ([]entity.LeaderboardEntry, error) {
	var cached []entity.LeaderboardEntry
	err := s.cacheRepo.GetJSON(leaderboardCacheKey(groupID), &cached)
	if err != nil {
		return s.Recompute(groupID)
	}

	updated, ok := ApplyDeltas(cached, deltas)
	if !ok {
		return s.Recompute(groupID)
	}

	if err := s.cacheRepo.SetJSON(leaderboardCacheKey(groupID), updated, s.config.LeaderboardCacheTTL); err != nil {
		log.Printf("[LeaderboardService] Ошибка записи кеша группы #%d: %v", groupID, err)
	}

	return updated, nil
}

// Invalidate сбрасывает кешированный снимок таблицы лидеров группы
func (s *LeaderboardService) Invalidate(groupID uint) error {
	return s.cacheRepo.Delete(leaderboardCacheKey(groupID))
}
