package service

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"github.com/yourusername/matchbet-api/internal/domain/repository"
	"github.com/yourusername/matchbet-api/internal/notification"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
	"github.com/yourusername/matchbet-api/pkg/clock"
)

// LockState описывает состояние дедлайна матча
type LockState string

// Константы состояний дедлайна
const (
	// StateOpen — дедлайн открыт для административного переноса
	StateOpen LockState = "open"
	// StateNextLocked — матч стал ближайшим в очереди, дедлайн заморожен
	StateNextLocked LockState = "next_locked"
	// StateDeadlinePassed — дедлайн прошел, прием прогнозов закрыт
	StateDeadlinePassed LockState = "deadline_passed"
)

// EvaluateLockState вычисляет состояние дедлайна матча на момент now.
// Функция чистая: не читает часы и базу, решение принимается только по
// переданным данным. Порядок проверок важен: прошедший дедлайн поглощает
// состояние защелки.
func EvaluateLockState(match *entity.Match, now time.Time) LockState {
	if !match.IsScheduled() {
		return StateDeadlinePassed
	}
	if !now.Before(match.DeadlineAt) {
		return StateDeadlinePassed
	}
	if match.DeadlineLocked {
		return StateNextLocked
	}
	return StateOpen
}

// DeadlineService предоставляет методы для работы с расписанием матчей
// и дедлайнами приема прогнозов
type DeadlineService struct {
	matchRepo repository.MatchRepository
	auditRepo repository.AuditRepository
	db        *gorm.DB
	notifier  notification.Notifier
	clock     clock.Clock
	config    *Config
}

// NewDeadlineService создает новый сервис дедлайнов
func NewDeadlineService(
	matchRepo repository.MatchRepository,
	auditRepo repository.AuditRepository,
	db *gorm.DB,
	notifier notification.Notifier,
	clk clock.Clock,
	config *Config,
) *DeadlineService {
	return &DeadlineService{
		matchRepo: matchRepo,
		auditRepo: auditRepo,
		db:        db,
		notifier:  notifier,
		clock:     clk,
		config:    config,
	}
}

// DefaultDeadline возвращает дедлайн по умолчанию: отступ от начала матча
func (s *DeadlineService) DefaultDeadline(startTime time.Time) time.Time {
	return startTime.Add(-s.config.DefaultDeadlineOffset)
}

// CreateMatch создает матч. Если дедлайн не задан, он выводится из времени
// начала по отступу из конфигурации.
func (s *DeadlineService) CreateMatch(match *entity.Match) error {
	if match.HomeTeam == "" || match.AwayTeam == "" {
		return fmt.Errorf("%w: команды матча обязательны", apperrors.ErrValidation)
	}
	if match.StartTime.IsZero() {
		return fmt.Errorf("%w: время начала матча обязательно", apperrors.ErrValidation)
	}

	if match.DeadlineAt.IsZero() {
		match.DeadlineAt = s.DefaultDeadline(match.StartTime)
	}
	if !match.DeadlineAt.Before(match.StartTime) {
		return fmt.Errorf("%w: дедлайн должен быть строго раньше начала матча", apperrors.ErrValidation)
	}

	match.Status = entity.MatchStatusScheduled
	match.DeadlineLocked = false

	if err := s.matchRepo.Create(match); err != nil {
		return err
	}

	log.Printf("[DeadlineService] Создан матч #%d (%s - %s), начало %s, дедлайн %s",
		match.ID, match.HomeTeam, match.AwayTeam,
		match.StartTime.Format(time.RFC3339), match.DeadlineAt.Format(time.RFC3339))
	return nil
}

// GetMatch возвращает матч по ID
func (s *DeadlineService) GetMatch(matchID uint) (*entity.Match, error) {
	return s.matchRepo.GetByID(matchID)
}

// GetLockState возвращает текущее состояние дедлайна матча
func (s *DeadlineService) GetLockState(matchID uint) (LockState, error) {
	match, err := s.matchRepo.GetByID(matchID)
	if err != nil {
		return "", err
	}
	return EvaluateLockState(match, s.clock.Now()), nil
}

// ListMatches возвращает список матчей с фильтрами и пагинацией
func (s *DeadlineService) ListMatches(filters repository.MatchFilters, page, pageSize int) ([]entity.Match, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	return s.matchRepo.ListWithFilters(filters, pageSize, offset)
}

// SetDeadline переносит дедлайн матча. Разрешено только в открытом состоянии:
// защелка ближайшего матча и прошедший дедлайн делают перенос невозможным.
// Конфликт версий повторяется ограниченное число раз.
func (s *DeadlineService) SetDeadline(actorID, matchID uint, newDeadline time.Time) error {
	return withRetry(s.config.MaxRetries, func() error {
		match, err := s.matchRepo.GetByID(matchID)
		if err != nil {
			return err
		}

		switch EvaluateLockState(match, s.clock.Now()) {
		case StateNextLocked:
			return fmt.Errorf("%w: match #%d", apperrors.ErrDeadlineLocked, matchID)
		case StateDeadlinePassed:
			return fmt.Errorf("%w: match #%d", apperrors.ErrDeadlinePassed, matchID)
		}

		if !newDeadline.Before(match.StartTime) {
			return fmt.Errorf("%w: дедлайн должен быть строго раньше начала матча", apperrors.ErrValidation)
		}

		oldDeadline := match.DeadlineAt

		if err := s.matchRepo.UpdateDeadline(matchID, newDeadline, match.Version); err != nil {
			return err
		}

		record, err := newAuditRecord(s.clock, actorID, entity.AuditActionDeadlineSet, entity.AuditEntityMatch, matchID,
			deadlineSnapshot{DeadlineAt: oldDeadline},
			deadlineSnapshot{DeadlineAt: newDeadline})
		if err != nil {
			return err
		}
		if err := s.auditRepo.Append(record); err != nil {
			return fmt.Errorf("запись в журнал аудита не удалась: %w", err)
		}

		s.publishEvent(notification.EventDeadlineChanged, map[string]interface{}{
			"match_id":     matchID,
			"old_deadline": oldDeadline,
			"new_deadline": newDeadline,
		})

		log.Printf("[DeadlineService] Дедлайн матча #%d перенесен: %s -> %s (актор #%d)",
			matchID, oldDeadline.Format(time.RFC3339), newDeadline.Format(time.RFC3339), actorID)
		return nil
	})
}

// RescheduleMatch переносит время начала матча. Дедлайн пересчитывается так,
// чтобы сохранить прежний отступ от начала. Перенос подчиняется тем же
// ограничениям защелки, что и перенос дедлайна.
func (s *DeadlineService) RescheduleMatch(actorID, matchID uint, newStartTime time.Time) error {
	return withRetry(s.config.MaxRetries, func() error {
		match, err := s.matchRepo.GetByID(matchID)
		if err != nil {
			return err
		}

		switch EvaluateLockState(match, s.clock.Now()) {
		case StateNextLocked:
			return fmt.Errorf("%w: match #%d", apperrors.ErrDeadlineLocked, matchID)
		case StateDeadlinePassed:
			return fmt.Errorf("%w: match #%d", apperrors.ErrDeadlinePassed, matchID)
		}

		offset := match.StartTime.Sub(match.DeadlineAt)
		newDeadline := newStartTime.Add(-offset)

		oldSnapshot := scheduleSnapshot{StartTime: match.StartTime, DeadlineAt: match.DeadlineAt}
		newSnapshot := scheduleSnapshot{StartTime: newStartTime, DeadlineAt: newDeadline}

		if err := s.matchRepo.UpdateSchedule(matchID, newStartTime, newDeadline, match.Version); err != nil {
			return err
		}

		record, err := newAuditRecord(s.clock, actorID, entity.AuditActionMatchRescheduled, entity.AuditEntityMatch, matchID, oldSnapshot, newSnapshot)
		if err != nil {
			return err
		}
		if err := s.auditRepo.Append(record); err != nil {
			return fmt.Errorf("запись в журнал аудита не удалась: %w", err)
		}

		s.publishEvent(notification.EventMatchRescheduled, map[string]interface{}{
			"match_id":    matchID,
			"start_time":  newStartTime,
			"deadline_at": newDeadline,
		})

		log.Printf("[DeadlineService] Матч #%d перенесен на %s (актор #%d)",
			matchID, newStartTime.Format(time.RFC3339), actorID)
		return nil
	})
}

// LockNextMatches выставляет защелку дедлайна для ближайших матчей турнира.
// Матчи, начинающиеся одновременно с самым ранним еще не начавшимся, считаются
// одновременными и блокируются пачкой. Повторный вызов безвреден: пока
// заблокированная пачка не начнется, следующая не продвигается в очереди.
func (s *DeadlineService) LockNextMatches(competitionID uint) ([]uint, error) {
	matches, err := s.matchRepo.GetNextUnlocked(competitionID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	matchIDs := make([]uint, 0, len(matches))
	for _, m := range matches {
		matchIDs = append(matchIDs, m.ID)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			log.Printf("PANIC recovered during LockNextMatches transaction: %v", r)
		}
	}()

	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := s.matchRepo.LockDeadlines(tx, matchIDs); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("блокировка дедлайнов не удалась: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.publishEvent(notification.EventDeadlineLocked, map[string]interface{}{
		"competition_id": competitionID,
		"match_ids":      matchIDs,
	})

	log.Printf("[DeadlineService] Защелка дедлайна выставлена для матчей %v турнира #%d", matchIDs, competitionID)
	return matchIDs, nil
}

// SweepDeadlines обходит все турниры с незаблокированными матчами и
// выставляет защелки для ближайших. Вызывается фоновым свипером по тикеру.
func (s *DeadlineService) SweepDeadlines() (int, error) {
	competitionIDs, err := s.matchRepo.ListActiveCompetitionIDs()
	if err != nil {
		return 0, err
	}

	locked := 0
	for _, competitionID := range competitionIDs {
		matchIDs, err := s.LockNextMatches(competitionID)
		if err != nil {
			// Ошибка одного турнира не прерывает обход остальных
			log.Printf("[DeadlineService] Ошибка блокировки очереди турнира #%d: %v", competitionID, err)
			continue
		}
		locked += len(matchIDs)
	}
	return locked, nil
}

// publishEvent публикует доменное событие, не прерывая основную операцию при ошибке
func (s *DeadlineService) publishEvent(eventType string, payload interface{}) {
	event, err := notification.NewEvent(eventType, payload)
	if err != nil {
		log.Printf("[DeadlineService] Ошибка сборки события %s: %v", eventType, err)
		return
	}
	if err := s.notifier.Publish(notification.ChannelEvents, event); err != nil {
		log.Printf("[DeadlineService] Ошибка публикации события %s: %v", eventType, err)
	}
}
