package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"github.com/yourusername/matchbet-api/internal/domain/repository"
	"github.com/yourusername/matchbet-api/pkg/clock"
)

// AuditService предоставляет методы для чтения журнала аудита.
// Записи в журнал делают доменные сервисы в своих транзакциях.
type AuditService struct {
	auditRepo repository.AuditRepository
}

// NewAuditService создает новый сервис журнала аудита
func NewAuditService(auditRepo repository.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// GetHistory возвращает историю изменений сущности в порядке возрастания времени
func (s *AuditService) GetHistory(entityType string, entityID uint, page, pageSize int) ([]entity.AuditRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	return s.auditRepo.History(entityType, entityID, pageSize, offset)
}

// newAuditRecord собирает запись журнала со снимками «до» и «после» в JSON
func newAuditRecord(clk clock.Clock, actorID uint, action, entityType string, entityID uint, oldValue, newValue interface{}) (*entity.AuditRecord, error) {
	record := &entity.AuditRecord{
		RecordUID:  uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  clk.Now(),
	}

	if oldValue != nil {
		data, err := json.Marshal(oldValue)
		if err != nil {
			return nil, fmt.Errorf("marshal audit old value: %w", err)
		}
		record.OldValue = string(data)
	}

	if newValue != nil {
		data, err := json.Marshal(newValue)
		if err != nil {
			return nil, fmt.Errorf("marshal audit new value: %w", err)
		}
		record.NewValue = string(data)
	}

	return record, nil
}

// deadlineSnapshot — снимок дедлайна для журнала
type deadlineSnapshot struct {
	DeadlineAt time.Time `json:"deadline_at"`
}

// scheduleSnapshot — снимок расписания матча для журнала
type scheduleSnapshot struct {
	StartTime  time.Time `json:"start_time"`
	DeadlineAt time.Time `json:"deadline_at"`
}

// scoreSnapshot — снимок счета для журнала
type scoreSnapshot struct {
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Winner    string `json:"winner"`
}
