package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"github.com/yourusername/matchbet-api/internal/domain/repository"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
)

// ============================================================================
// Моки для PredictionService
// ============================================================================

// MockMatchRepoForPredictionService реализует repository.MatchRepository
type MockMatchRepoForPredictionService struct {
	mock.Mock
}

func (m *MockMatchRepoForPredictionService) Create(match *entity.Match) error {
	args := m.Called(match)
	return args.Error(0)
}

func (m *MockMatchRepoForPredictionService) GetByID(id uint) (*entity.Match, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Match), args.Error(1)
}

func (m *MockMatchRepoForPredictionService) GetByIDForUpdate(tx *gorm.DB, id uint) (*entity.Match, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Match), args.Error(1)
}

func (m *MockMatchRepoForPredictionService) ListWithFilters(filters repository.MatchFilters, limit, offset int) ([]entity.Match, int64, error) {
	args := m.Called(filters, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Match), args.Get(1).(int64), args.Error(2)
}

func (m *MockMatchRepoForPredictionService) GetNextUnlocked(competitionID uint, now time.Time) ([]entity.Match, error) {
	args := m.Called(competitionID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Match), args.Error(1)
}

func (m *MockMatchRepoForPredictionService) ListActiveCompetitionIDs() ([]uint, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockMatchRepoForPredictionService) UpdateDeadline(matchID uint, deadline time.Time, expectedVersion int64) error {
	args := m.Called(matchID, deadline, expectedVersion)
	return args.Error(0)
}

func (m *MockMatchRepoForPredictionService) UpdateSchedule(matchID uint, startTime, deadline time.Time, expectedVersion int64) error {
	args := m.Called(matchID, startTime, deadline, expectedVersion)
	return args.Error(0)
}

func (m *MockMatchRepoForPredictionService) LockDeadlines(tx *gorm.DB, matchIDs []uint) error {
	args := m.Called(tx, matchIDs)
	return args.Error(0)
}

func (m *MockMatchRepoForPredictionService) UpdateStatus(tx *gorm.DB, matchID uint, status string, expectedVersion int64) error {
	args := m.Called(tx, matchID, status, expectedVersion)
	return args.Error(0)
}

// MockGroupRepoForPredictionService реализует repository.GroupRepository
type MockGroupRepoForPredictionService struct {
	mock.Mock
}

func (m *MockGroupRepoForPredictionService) Create(group *entity.Group) error {
	args := m.Called(group)
	return args.Error(0)
}

func (m *MockGroupRepoForPredictionService) GetByID(id uint) (*entity.Group, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Group), args.Error(1)
}

func (m *MockGroupRepoForPredictionService) List(limit, offset int) ([]entity.Group, int64, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Group), args.Get(1).(int64), args.Error(2)
}

func (m *MockGroupRepoForPredictionService) AddMember(member *entity.GroupMember) error {
	args := m.Called(member)
	return args.Error(0)
}

func (m *MockGroupRepoForPredictionService) GetMember(groupID, userID uint) (*entity.GroupMember, error) {
	args := m.Called(groupID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GroupMember), args.Error(1)
}

func (m *MockGroupRepoForPredictionService) ListMembers(groupID uint) ([]entity.GroupMember, error) {
	args := m.Called(groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.GroupMember), args.Error(1)
}

func (m *MockGroupRepoForPredictionService) ListUserGroups(userID uint) ([]entity.Group, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Group), args.Error(1)
}

// ============================================================================
// createTestPredictionService создаёт PredictionService для тестирования
// ============================================================================

func createTestPredictionService(
	matchRepo *MockMatchRepoForPredictionService,
	groupRepo *MockGroupRepoForPredictionService,
	clk *fakeClock,
) *PredictionService {
	return &PredictionService{
		predictionRepo: nil, // nil для этих тестов: до транзакции дело не доходит
		matchRepo:      matchRepo,
		groupRepo:      groupRepo,
		db:             nil,
		clock:          clk,
		config:         DefaultConfig(),
	}
}

// ============================================================================
// Тесты для SubmitPrediction: отказы до транзакции
// ============================================================================

func TestPredictionService_SubmitPrediction_Rejections(t *testing.T) {
	start := time.Date(2026, 6, 14, 18, 0, 0, 0, time.UTC)
	deadline := start.Add(-time.Hour)
	beforeDeadline := deadline.Add(-2 * time.Hour)

	group := &entity.Group{ID: 10, CompetitionID: 1}
	member := &entity.GroupMember{GroupID: 10, UserID: 1, Role: entity.GroupRoleMember}
	match := func() *entity.Match {
		return &entity.Match{
			ID: 5, CompetitionID: 1, Status: entity.MatchStatusScheduled,
			StartTime: start, DeadlineAt: deadline,
		}
	}

	t.Run("Не член группы", func(t *testing.T) {
		// Arrange
		mockGroupRepo := new(MockGroupRepoForPredictionService)
		svc := createTestPredictionService(nil, mockGroupRepo, newFakeClock(beforeDeadline))

		mockGroupRepo.On("GetMember", uint(10), uint(1)).Return(nil, apperrors.ErrNotFound)

		// Act
		_, err := svc.SubmitPrediction(1, 10, 5, entity.OutcomeHomeWin, 2, 1)

		// Assert
		assert.ErrorIs(t, err, apperrors.ErrNotGroupMember)
	})

	t.Run("Противоречивый прогноз", func(t *testing.T) {
		mockGroupRepo := new(MockGroupRepoForPredictionService)
		svc := createTestPredictionService(nil, mockGroupRepo, newFakeClock(beforeDeadline))

		mockGroupRepo.On("GetMember", uint(10), uint(1)).Return(member, nil)
		mockGroupRepo.On("GetByID", uint(10)).Return(group, nil)

		// Заявлена ничья при счете 2:1
		_, err := svc.SubmitPrediction(1, 10, 5, entity.OutcomeDraw, 2, 1)

		assert.ErrorIs(t, err, apperrors.ErrInvalidPrediction)
	})

	t.Run("Матч чужого турнира", func(t *testing.T) {
		mockMatchRepo := new(MockMatchRepoForPredictionService)
		mockGroupRepo := new(MockGroupRepoForPredictionService)
		svc := createTestPredictionService(mockMatchRepo, mockGroupRepo, newFakeClock(beforeDeadline))

		foreign := match()
		foreign.CompetitionID = 2
		mockGroupRepo.On("GetMember", uint(10), uint(1)).Return(member, nil)
		mockGroupRepo.On("GetByID", uint(10)).Return(group, nil)
		mockMatchRepo.On("GetByID", uint(5)).Return(foreign, nil)

		_, err := svc.SubmitPrediction(1, 10, 5, entity.OutcomeHomeWin, 2, 1)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("Дедлайн прошел", func(t *testing.T) {
		mockMatchRepo := new(MockMatchRepoForPredictionService)
		mockGroupRepo := new(MockGroupRepoForPredictionService)
		svc := createTestPredictionService(mockMatchRepo, mockGroupRepo, newFakeClock(deadline))

		mockGroupRepo.On("GetMember", uint(10), uint(1)).Return(member, nil)
		mockGroupRepo.On("GetByID", uint(10)).Return(group, nil)
		mockMatchRepo.On("GetByID", uint(5)).Return(match(), nil)

		_, err := svc.SubmitPrediction(1, 10, 5, entity.OutcomeHomeWin, 2, 1)

		assert.ErrorIs(t, err, apperrors.ErrDeadlinePassed)
	})

	t.Run("Защелка закрывает прием до наступления дедлайна", func(t *testing.T) {
		mockMatchRepo := new(MockMatchRepoForPredictionService)
		mockGroupRepo := new(MockGroupRepoForPredictionService)
		svc := createTestPredictionService(mockMatchRepo, mockGroupRepo, newFakeClock(beforeDeadline))

		locked := match()
		locked.DeadlineLocked = true
		mockGroupRepo.On("GetMember", uint(10), uint(1)).Return(member, nil)
		mockGroupRepo.On("GetByID", uint(10)).Return(group, nil)
		mockMatchRepo.On("GetByID", uint(5)).Return(locked, nil)

		_, err := svc.SubmitPrediction(1, 10, 5, entity.OutcomeHomeWin, 2, 1)

		assert.ErrorIs(t, err, apperrors.ErrDeadlinePassed,
			"защелка ближайшего матча закрывает прием, даже если дедлайн в будущем")
	})

	t.Run("Отмененный матч", func(t *testing.T) {
		mockMatchRepo := new(MockMatchRepoForPredictionService)
		mockGroupRepo := new(MockGroupRepoForPredictionService)
		svc := createTestPredictionService(mockMatchRepo, mockGroupRepo, newFakeClock(beforeDeadline))

		cancelled := match()
		cancelled.Status = entity.MatchStatusCancelled
		mockGroupRepo.On("GetMember", uint(10), uint(1)).Return(member, nil)
		mockGroupRepo.On("GetByID", uint(10)).Return(group, nil)
		mockMatchRepo.On("GetByID", uint(5)).Return(cancelled, nil)

		_, err := svc.SubmitPrediction(1, 10, 5, entity.OutcomeHomeWin, 2, 1)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestPredictionService_GetMatchPredictions(t *testing.T) {
	start := time.Date(2026, 6, 14, 18, 0, 0, 0, time.UTC)
	deadline := start.Add(-time.Hour)
	member := &entity.GroupMember{GroupID: 10, UserID: 1, Role: entity.GroupRoleMember}

	match := func() *entity.Match {
		return &entity.Match{
			ID: 5, CompetitionID: 100, Status: entity.MatchStatusScheduled,
			StartTime: start, DeadlineAt: deadline,
		}
	}

	t.Run("Не член группы не видит прогнозы", func(t *testing.T) {
		// Arrange
		mockGroupRepo := new(MockGroupRepoForPredictionService)
		svc := createTestPredictionService(nil, mockGroupRepo, newFakeClock(deadline.Add(time.Minute)))

		mockGroupRepo.On("GetMember", uint(10), uint(1)).Return(nil, apperrors.ErrNotFound)

		// Act
		_, err := svc.GetMatchPredictions(1, 5, 10)

		// Assert
		assert.ErrorIs(t, err, apperrors.ErrNotGroupMember)
	})

	t.Run("До дедлайна чужие прогнозы скрыты", func(t *testing.T) {
		mockMatchRepo := new(MockMatchRepoForPredictionService)
		mockGroupRepo := new(MockGroupRepoForPredictionService)
		svc := createTestPredictionService(mockMatchRepo, mockGroupRepo, newFakeClock(deadline.Add(-time.Minute)))

		mockGroupRepo.On("GetMember", uint(10), uint(1)).Return(member, nil)
		mockMatchRepo.On("GetByID", uint(5)).Return(match(), nil)

		_, err := svc.GetMatchPredictions(1, 5, 10)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("После дедлайна прогнозы группы доступны", func(t *testing.T) {
		mockMatchRepo := new(MockMatchRepoForPredictionService)
		mockGroupRepo := new(MockGroupRepoForPredictionService)
		mockPredictionRepo := new(MockPredictionRepoForLeaderboardService)
		svc := createTestPredictionService(mockMatchRepo, mockGroupRepo, newFakeClock(deadline.Add(time.Minute)))
		svc.predictionRepo = mockPredictionRepo

		stored := []entity.Prediction{
			{ID: 1, UserID: 1, MatchID: 5, GroupID: 10, PredictedOutcome: entity.OutcomeHomeWin},
			{ID: 2, UserID: 2, MatchID: 5, GroupID: 10, PredictedOutcome: entity.OutcomeDraw},
		}
		mockGroupRepo.On("GetMember", uint(10), uint(1)).Return(member, nil)
		mockMatchRepo.On("GetByID", uint(5)).Return(match(), nil)
		mockPredictionRepo.On("GetByMatchGroup", uint(5), uint(10)).Return(stored, nil)

		predictions, err := svc.GetMatchPredictions(1, 5, 10)

		require.NoError(t, err)
		assert.Len(t, predictions, 2, "должны вернуться прогнозы обоих участников")
	})
}

// ПРИМЕЧАНИЕ: успешная подача и перепроверка дедлайна под блокировкой строки
// используют реальную транзакцию gorm и проверяются интеграционными тестами.
