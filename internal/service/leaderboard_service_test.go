package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
)

// ============================================================================
// Моки для LeaderboardService
// ============================================================================

// MockPredictionRepoForLeaderboardService реализует repository.PredictionRepository
type MockPredictionRepoForLeaderboardService struct {
	mock.Mock
}

func (m *MockPredictionRepoForLeaderboardService) Upsert(tx *gorm.DB, prediction *entity.Prediction) error {
	args := m.Called(tx, prediction)
	return args.Error(0)
}

func (m *MockPredictionRepoForLeaderboardService) GetByUserMatchGroup(userID, matchID, groupID uint) (*entity.Prediction, error) {
	args := m.Called(userID, matchID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Prediction), args.Error(1)
}

func (m *MockPredictionRepoForLeaderboardService) GetByMatch(tx *gorm.DB, matchID uint) ([]entity.Prediction, error) {
	args := m.Called(tx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Prediction), args.Error(1)
}

func (m *MockPredictionRepoForLeaderboardService) GetByMatchGroup(matchID, groupID uint) ([]entity.Prediction, error) {
	args := m.Called(matchID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Prediction), args.Error(1)
}

func (m *MockPredictionRepoForLeaderboardService) GetUserPredictions(userID, groupID uint, limit, offset int) ([]entity.Prediction, int64, error) {
	args := m.Called(userID, groupID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Prediction), args.Get(1).(int64), args.Error(2)
}

func (m *MockPredictionRepoForLeaderboardService) UpdateSettlement(tx *gorm.DB, predictionID uint, points int, settledAt time.Time) error {
	args := m.Called(tx, predictionID, points, settledAt)
	return args.Error(0)
}

func (m *MockPredictionRepoForLeaderboardService) VoidByMatch(tx *gorm.DB, matchID uint) (int64, error) {
	args := m.Called(tx, matchID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPredictionRepoForLeaderboardService) AggregateGroupTotals(groupID uint, exactPoints, outcomePoints int) ([]entity.LeaderboardEntry, error) {
	args := m.Called(groupID, exactPoints, outcomePoints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LeaderboardEntry), args.Error(1)
}

// MockGroupRepoForLeaderboardService реализует repository.GroupRepository
type MockGroupRepoForLeaderboardService struct {
	mock.Mock
}

func (m *MockGroupRepoForLeaderboardService) Create(group *entity.Group) error {
	args := m.Called(group)
	return args.Error(0)
}

func (m *MockGroupRepoForLeaderboardService) GetByID(id uint) (*entity.Group, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Group), args.Error(1)
}

func (m *MockGroupRepoForLeaderboardService) List(limit, offset int) ([]entity.Group, int64, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Group), args.Get(1).(int64), args.Error(2)
}

func (m *MockGroupRepoForLeaderboardService) AddMember(member *entity.GroupMember) error {
	args := m.Called(member)
	return args.Error(0)
}

func (m *MockGroupRepoForLeaderboardService) GetMember(groupID, userID uint) (*entity.GroupMember, error) {
	args := m.Called(groupID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GroupMember), args.Error(1)
}

func (m *MockGroupRepoForLeaderboardService) ListMembers(groupID uint) ([]entity.GroupMember, error) {
	args := m.Called(groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.GroupMember), args.Error(1)
}

func (m *MockGroupRepoForLeaderboardService) ListUserGroups(userID uint) ([]entity.Group, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Group), args.Error(1)
}

// MockCacheRepoForLeaderboardService реализует repository.CacheRepository
type MockCacheRepoForLeaderboardService struct {
	mock.Mock
}

func (m *MockCacheRepoForLeaderboardService) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepoForLeaderboardService) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepoForLeaderboardService) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepoForLeaderboardService) Increment(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepoForLeaderboardService) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepoForLeaderboardService) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepoForLeaderboardService) Exists(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepoForLeaderboardService) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

// ============================================================================
// Тесты для CompareEntries и SortEntries
// ============================================================================

func TestCompareEntries(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.AddDate(0, 1, 0)

	testCases := []struct {
		name string
		a, b entity.LeaderboardEntry
	}{
		{
			name: "Больше очков выше",
			a:    entity.LeaderboardEntry{UserID: 1, TotalPoints: 10},
			b:    entity.LeaderboardEntry{UserID: 2, TotalPoints: 7, ExactCount: 5},
		},
		{
			name: "При равных очках решают точные попадания",
			a:    entity.LeaderboardEntry{UserID: 1, TotalPoints: 9, ExactCount: 3},
			b:    entity.LeaderboardEntry{UserID: 2, TotalPoints: 9, ExactCount: 2, OutcomeCount: 9},
		},
		{
			name: "Далее решают угаданные исходы",
			a:    entity.LeaderboardEntry{UserID: 1, TotalPoints: 9, ExactCount: 2, OutcomeCount: 3},
			b:    entity.LeaderboardEntry{UserID: 2, TotalPoints: 9, ExactCount: 2, OutcomeCount: 2},
		},
		{
			name: "Далее ранняя регистрация выше",
			a:    entity.LeaderboardEntry{UserID: 5, TotalPoints: 9, ExactCount: 2, OutcomeCount: 3, RegisteredAt: early},
			b:    entity.LeaderboardEntry{UserID: 1, TotalPoints: 9, ExactCount: 2, OutcomeCount: 3, RegisteredAt: late},
		},
		{
			name: "Последний критерий — меньший ID пользователя",
			a:    entity.LeaderboardEntry{UserID: 1, TotalPoints: 9, ExactCount: 2, OutcomeCount: 3, RegisteredAt: early},
			b:    entity.LeaderboardEntry{UserID: 2, TotalPoints: 9, ExactCount: 2, OutcomeCount: 3, RegisteredAt: early},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, CompareEntries(&tc.a, &tc.b), "a должен стоять выше b")
			assert.False(t, CompareEntries(&tc.b, &tc.a), "Сравнение антисимметрично")
		})
	}
}

func TestSortEntriesOrderInvariance(t *testing.T) {
	// Итоговый порядок не зависит от порядка входных данных
	reg := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	base := []entity.LeaderboardEntry{
		{UserID: 1, TotalPoints: 9, ExactCount: 2, RegisteredAt: reg},
		{UserID: 2, TotalPoints: 9, ExactCount: 2, RegisteredAt: reg},
		{UserID: 3, TotalPoints: 9, ExactCount: 3, RegisteredAt: reg},
		{UserID: 4, TotalPoints: 12, RegisteredAt: reg},
		{UserID: 5, TotalPoints: 9, ExactCount: 2, OutcomeCount: 1, RegisteredAt: reg},
	}

	expected := make([]entity.LeaderboardEntry, len(base))
	copy(expected, base)
	SortEntries(expected)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := make([]entity.LeaderboardEntry, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		SortEntries(shuffled)
		assert.Equal(t, expected, shuffled, "Перестановка входных данных не меняет итоговый порядок")
	}
}

func TestSortEntriesAssignsRanks(t *testing.T) {
	entries := []entity.LeaderboardEntry{
		{UserID: 1, TotalPoints: 3},
		{UserID: 2, TotalPoints: 9},
		{UserID: 3, TotalPoints: 6},
	}

	SortEntries(entries)

	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
	assert.Equal(t, uint(2), entries[0].UserID)
}

// ============================================================================
// Тесты для ApplyDeltas: инкрементальный путь эквивалентен полному пересчету
// ============================================================================

func TestApplyDeltasMatchesFullRecompute(t *testing.T) {
	reg := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Снимок до расчета матча
	before := []entity.LeaderboardEntry{
		{UserID: 1, Username: "anna", TotalPoints: 4, ExactCount: 1, OutcomeCount: 1, Predictions: 2, RegisteredAt: reg},
		{UserID: 2, Username: "boris", TotalPoints: 3, ExactCount: 1, Predictions: 1, RegisteredAt: reg},
		{UserID: 3, Username: "vera", TotalPoints: 0, Predictions: 1, RegisteredAt: reg},
	}
	SortEntries(before)

	// Результат расчета очередного матча
	deltas := map[uint]ScoreDelta{
		1: {Points: 1, OutcomeCount: 1, Predictions: 1},
		2: {Points: 3, ExactCount: 1, Predictions: 1},
		3: {Points: 0, Predictions: 1},
	}

	// Полный пересчет из суммарной истории
	full := []entity.LeaderboardEntry{
		{UserID: 1, Username: "anna", TotalPoints: 5, ExactCount: 1, OutcomeCount: 2, Predictions: 3, RegisteredAt: reg},
		{UserID: 2, Username: "boris", TotalPoints: 6, ExactCount: 2, Predictions: 2, RegisteredAt: reg},
		{UserID: 3, Username: "vera", TotalPoints: 0, Predictions: 2, RegisteredAt: reg},
	}
	SortEntries(full)

	incremental, ok := ApplyDeltas(before, deltas)

	require.True(t, ok)
	assert.Equal(t, full, incremental, "Инкрементальное обновление эквивалентно полному пересчету")
}

func TestApplyDeltasUnknownUserForcesRecompute(t *testing.T) {
	entries := []entity.LeaderboardEntry{{UserID: 1, TotalPoints: 3}}

	_, ok := ApplyDeltas(entries, map[uint]ScoreDelta{99: {Points: 1}})

	assert.False(t, ok, "Новый участник требует полного пересчета")
}

// ============================================================================
// Тесты для LeaderboardService
// ============================================================================

func createTestLeaderboardService(
	predictionRepo *MockPredictionRepoForLeaderboardService,
	groupRepo *MockGroupRepoForLeaderboardService,
	cacheRepo *MockCacheRepoForLeaderboardService,
) *LeaderboardService {
	return &LeaderboardService{
		predictionRepo: predictionRepo,
		groupRepo:      groupRepo,
		cacheRepo:      cacheRepo,
		config:         DefaultConfig(),
	}
}

func TestLeaderboardService_GetLeaderboard(t *testing.T) {
	reg := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	group := &entity.Group{ID: 10, Name: "Лига двора", CompetitionID: 1}

	t.Run("Попадание в кеш не трогает базу", func(t *testing.T) {
		// Arrange
		mockPredictionRepo := new(MockPredictionRepoForLeaderboardService)
		mockGroupRepo := new(MockGroupRepoForLeaderboardService)
		mockCacheRepo := new(MockCacheRepoForLeaderboardService)
		svc := createTestLeaderboardService(mockPredictionRepo, mockGroupRepo, mockCacheRepo)

		cached := []entity.LeaderboardEntry{{UserID: 1, TotalPoints: 9, Rank: 1, RegisteredAt: reg}}
		mockGroupRepo.On("GetByID", uint(10)).Return(group, nil)
		mockCacheRepo.On("GetJSON", leaderboardCacheKey(10), mock.Anything).
			Run(func(args mock.Arguments) {
				dest := args.Get(1).(*[]entity.LeaderboardEntry)
				*dest = cached
			}).Return(nil)

		// Act
		entries, err := svc.GetLeaderboard(10)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, cached, entries)
		mockPredictionRepo.AssertNotCalled(t, "AggregateGroupTotals", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Промах кеша ведет к пересчету и записи снимка", func(t *testing.T) {
		// Arrange
		mockPredictionRepo := new(MockPredictionRepoForLeaderboardService)
		mockGroupRepo := new(MockGroupRepoForLeaderboardService)
		mockCacheRepo := new(MockCacheRepoForLeaderboardService)
		svc := createTestLeaderboardService(mockPredictionRepo, mockGroupRepo, mockCacheRepo)

		aggregated := []entity.LeaderboardEntry{
			{UserID: 2, TotalPoints: 3, RegisteredAt: reg},
			{UserID: 1, TotalPoints: 9, RegisteredAt: reg},
		}
		mockGroupRepo.On("GetByID", uint(10)).Return(group, nil)
		mockCacheRepo.On("GetJSON", leaderboardCacheKey(10), mock.Anything).Return(apperrors.ErrNotFound)
		mockPredictionRepo.On("AggregateGroupTotals", uint(10), 3, 1).Return(aggregated, nil)
		mockCacheRepo.On("SetJSON", leaderboardCacheKey(10), mock.Anything, svc.config.LeaderboardCacheTTL).Return(nil)

		// Act
		entries, err := svc.GetLeaderboard(10)

		// Assert
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, uint(1), entries[0].UserID, "Снимок упорядочен по очкам")
		assert.Equal(t, 1, entries[0].Rank)
		mockCacheRepo.AssertExpectations(t)
	})

	t.Run("Несуществующая группа дает ErrNotFound", func(t *testing.T) {
		mockGroupRepo := new(MockGroupRepoForLeaderboardService)
		svc := createTestLeaderboardService(nil, mockGroupRepo, nil)

		mockGroupRepo.On("GetByID", uint(99)).Return(nil, apperrors.ErrNotFound)

		_, err := svc.GetLeaderboard(99)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestLeaderboardService_ApplySettlement(t *testing.T) {
	reg := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Промах кеша переключает на полный пересчет", func(t *testing.T) {
		mockPredictionRepo := new(MockPredictionRepoForLeaderboardService)
		mockCacheRepo := new(MockCacheRepoForLeaderboardService)
		svc := createTestLeaderboardService(mockPredictionRepo, nil, mockCacheRepo)

		aggregated := []entity.LeaderboardEntry{{UserID: 1, TotalPoints: 3, RegisteredAt: reg}}
		mockCacheRepo.On("GetJSON", leaderboardCacheKey(10), mock.Anything).Return(apperrors.ErrNotFound)
		mockPredictionRepo.On("AggregateGroupTotals", uint(10), 3, 1).Return(aggregated, nil)
		mockCacheRepo.On("SetJSON", leaderboardCacheKey(10), mock.Anything, mock.Anything).Return(nil)

		entries, err := svc.ApplySettlement(10, map[uint]ScoreDelta{1: {Points: 3}})

		require.NoError(t, err)
		assert.Len(t, entries, 1)
		mockPredictionRepo.AssertExpectations(t)
	})

	t.Run("Горячий кеш обновляется инкрементально", func(t *testing.T) {
		mockPredictionRepo := new(MockPredictionRepoForLeaderboardService)
		mockCacheRepo := new(MockCacheRepoForLeaderboardService)
		svc := createTestLeaderboardService(mockPredictionRepo, nil, mockCacheRepo)

		cached := []entity.LeaderboardEntry{
			{UserID: 1, TotalPoints: 3, RegisteredAt: reg, Rank: 1},
			{UserID: 2, TotalPoints: 2, RegisteredAt: reg, Rank: 2},
		}
		mockCacheRepo.On("GetJSON", leaderboardCacheKey(10), mock.Anything).
			Run(func(args mock.Arguments) {
				dest := args.Get(1).(*[]entity.LeaderboardEntry)
				*dest = cached
			}).Return(nil)
		mockCacheRepo.On("SetJSON", leaderboardCacheKey(10), mock.Anything, mock.Anything).Return(nil)

		entries, err := svc.ApplySettlement(10, map[uint]ScoreDelta{2: {Points: 3, ExactCount: 1, Predictions: 1}})

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, uint(2), entries[0].UserID, "Участник с новыми очками поднялся наверх")
		mockPredictionRepo.AssertNotCalled(t, "AggregateGroupTotals", mock.Anything, mock.Anything, mock.Anything)
	})
}
