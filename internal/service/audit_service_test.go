package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
)

// ============================================================================
// Моки для AuditService
// ============================================================================

// MockAuditRepoForAuditService реализует repository.AuditRepository
type MockAuditRepoForAuditService struct {
	mock.Mock
}

func (m *MockAuditRepoForAuditService) Append(record *entity.AuditRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockAuditRepoForAuditService) AppendTx(tx *gorm.DB, record *entity.AuditRecord) error {
	args := m.Called(tx, record)
	return args.Error(0)
}

func (m *MockAuditRepoForAuditService) History(entityType string, entityID uint, limit, offset int) ([]entity.AuditRecord, int64, error) {
	args := m.Called(entityType, entityID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.AuditRecord), args.Get(1).(int64), args.Error(2)
}

// ============================================================================
// Тесты для AuditService
// ============================================================================

func TestAuditService_GetHistory(t *testing.T) {
	t.Run("Пагинация транслируется в limit/offset", func(t *testing.T) {
		// Arrange
		mockAuditRepo := new(MockAuditRepoForAuditService)
		svc := NewAuditService(mockAuditRepo)

		records := []entity.AuditRecord{
			{ID: 1, Action: entity.AuditActionDeadlineSet},
			{ID: 2, Action: entity.AuditActionMatchRescheduled},
		}
		mockAuditRepo.On("History", entity.AuditEntityMatch, uint(7), 10, 10).Return(records, int64(12), nil)

		// Act
		got, total, err := svc.GetHistory(entity.AuditEntityMatch, 7, 2, 10)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, records, got)
		assert.Equal(t, int64(12), total)
	})

	t.Run("Некорректная пагинация приводится к значениям по умолчанию", func(t *testing.T) {
		mockAuditRepo := new(MockAuditRepoForAuditService)
		svc := NewAuditService(mockAuditRepo)

		mockAuditRepo.On("History", entity.AuditEntityResult, uint(3), 20, 0).Return([]entity.AuditRecord{}, int64(0), nil)

		_, _, err := svc.GetHistory(entity.AuditEntityResult, 3, 0, -5)

		require.NoError(t, err)
		mockAuditRepo.AssertExpectations(t)
	})

	t.Run("Слишком большой размер страницы урезается", func(t *testing.T) {
		mockAuditRepo := new(MockAuditRepoForAuditService)
		svc := NewAuditService(mockAuditRepo)

		mockAuditRepo.On("History", entity.AuditEntityMatch, uint(7), 100, 0).Return([]entity.AuditRecord{}, int64(0), nil)

		_, _, err := svc.GetHistory(entity.AuditEntityMatch, 7, 1, 500)

		require.NoError(t, err)
		mockAuditRepo.AssertExpectations(t)
	})
}

// ============================================================================
// Тесты для newAuditRecord
// ============================================================================

func TestNewAuditRecord(t *testing.T) {
	now := time.Date(2026, 6, 14, 12, 0, 0, 0, time.UTC)
	clk := newFakeClock(now)

	t.Run("Снимки сериализуются в JSON", func(t *testing.T) {
		// Arrange
		oldVal := deadlineSnapshot{DeadlineAt: now.Add(-time.Hour)}
		newVal := deadlineSnapshot{DeadlineAt: now.Add(-2 * time.Hour)}

		// Act
		record, err := newAuditRecord(clk, 42, entity.AuditActionDeadlineSet, entity.AuditEntityMatch, 7, oldVal, newVal)

		// Assert
		require.NoError(t, err)
		assert.NotEmpty(t, record.RecordUID, "Каждая запись получает уникальный идентификатор")
		assert.Equal(t, uint(42), record.ActorID)
		assert.Equal(t, now, record.CreatedAt)

		var decoded deadlineSnapshot
		require.NoError(t, json.Unmarshal([]byte(record.OldValue), &decoded))
		assert.Equal(t, oldVal.DeadlineAt.Unix(), decoded.DeadlineAt.Unix())
	})

	t.Run("Отсутствующий снимок оставляет поле пустым", func(t *testing.T) {
		record, err := newAuditRecord(clk, 42, entity.AuditActionResultRecorded, entity.AuditEntityResult, 9,
			nil, scoreSnapshot{HomeScore: 2, AwayScore: 1, Winner: entity.OutcomeHomeWin})

		require.NoError(t, err)
		assert.Empty(t, record.OldValue)
		assert.NotEmpty(t, record.NewValue)
	})

	t.Run("Идентификаторы записей не повторяются", func(t *testing.T) {
		first, err := newAuditRecord(clk, 1, entity.AuditActionDeadlineSet, entity.AuditEntityMatch, 1, nil, nil)
		require.NoError(t, err)
		second, err := newAuditRecord(clk, 1, entity.AuditActionDeadlineSet, entity.AuditEntityMatch, 1, nil, nil)
		require.NoError(t, err)

		assert.NotEqual(t, first.RecordUID, second.RecordUID)
	})
}
