package service

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"github.com/yourusername/matchbet-api/internal/domain/repository"
	"github.com/yourusername/matchbet-api/internal/notification"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
	"github.com/yourusername/matchbet-api/internal/service/scoring"
	"github.com/yourusername/matchbet-api/pkg/clock"
)

// ResultService предоставляет методы для работы с результатами матчей:
// ввод предварительного результата, корректировки, финализация с расчетом
// прогнозов и отмена матча
type ResultService struct {
	resultRepo     repository.ResultRepository
	matchRepo      repository.MatchRepository
	predictionRepo repository.PredictionRepository
	auditRepo      repository.AuditRepository
	cacheRepo      repository.CacheRepository
	db             *gorm.DB
	notifier       notification.Notifier
	clock          clock.Clock
	config         *Config
}

// NewResultService создает новый сервис результатов
func NewResultService(
	resultRepo repository.ResultRepository,
	matchRepo repository.MatchRepository,
	predictionRepo repository.PredictionRepository,
	auditRepo repository.AuditRepository,
	cacheRepo repository.CacheRepository,
	db *gorm.DB,
	notifier notification.Notifier,
	clk clock.Clock,
	config *Config,
) *ResultService {
	return &ResultService{
		resultRepo:     resultRepo,
		matchRepo:      matchRepo,
		predictionRepo: predictionRepo,
		auditRepo:      auditRepo,
		cacheRepo:      cacheRepo,
		db:             db,
		notifier:       notifier,
		clock:          clk,
		config:         config,
	}
}

// GetResult возвращает результат матча
func (s *ResultService) GetResult(matchID uint) (*entity.MatchResult, error) {
	return s.resultRepo.GetByMatchID(matchID)
}

// RecordProvisional вводит или корректирует предварительный результат матча.
// Победитель выводится из счета и вручную не задается. Каждая корректировка
// оставляет запись в журнале аудита со старым и новым счетом.
func (s *ResultService) RecordProvisional(actorID, matchID uint, homeScore, awayScore int) (*entity.MatchResult, error) {
	if homeScore < 0 || awayScore < 0 {
		return nil, fmt.Errorf("%w: счет не может быть отрицательным", apperrors.ErrValidation)
	}

	match, err := s.matchRepo.GetByID(matchID)
	if err != nil {
		return nil, err
	}
	if match.IsCancelled() {
		return nil, fmt.Errorf("%w: матч #%d отменен", apperrors.ErrValidation, matchID)
	}
	if !match.HasStarted(s.clock.Now()) {
		return nil, fmt.Errorf("%w: матч #%d еще не начался", apperrors.ErrValidation, matchID)
	}

	existing, err := s.resultRepo.GetByMatchID(matchID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return s.createProvisional(actorID, matchID, homeScore, awayScore)
	}

	return s.correctProvisional(actorID, existing, homeScore, awayScore)
}

// createProvisional создает первую запись результата
func (s *ResultService) createProvisional(actorID, matchID uint, homeScore, awayScore int) (*entity.MatchResult, error) {
	result := &entity.MatchResult{
		MatchID:       matchID,
		IsProvisional: true,
		EnteredBy:     actorID,
		EnteredAt:     s.clock.Now(),
	}
	result.ApplyScore(homeScore, awayScore)

	if err := s.resultRepo.Create(result); err != nil {
		return nil, err
	}

	// Записи аудита результата привязываются к ID матча: результат и матч
	// соотносятся один к одному, а история запрашивается по матчу
	record, err := newAuditRecord(s.clock, actorID, entity.AuditActionResultRecorded, entity.AuditEntityResult, matchID,
		nil,
		scoreSnapshot{HomeScore: homeScore, AwayScore: awayScore, Winner: result.Winner})
	if err != nil {
		return nil, err
	}
	if err := s.auditRepo.Append(record); err != nil {
		return nil, fmt.Errorf("запись в журнал аудита не удалась: %w", err)
	}
	s.publishEvent(notification.EventProvisionalResultPosted, map[string]interface{}{
		"match_id":   matchID,
		"home_score": homeScore,
		"away_score": awayScore,
		"winner":     result.Winner,
	})

	log.Printf("[ResultService] Введен предварительный результат матча #%d: %d:%d (актор #%d)",
		matchID, homeScore, awayScore, actorID)
	return result, nil
}

// correctProvisional корректирует существующий предварительный результат
func (s *ResultService) correctProvisional(actorID uint, existing *entity.MatchResult, homeScore, awayScore int) (*entity.MatchResult, error) {
	if existing.IsFinal() {
		return nil, fmt.Errorf("%w: result for match #%d", apperrors.ErrResultAlreadyFinal, existing.MatchID)
	}

	oldSnapshot := scoreSnapshot{HomeScore: existing.HomeScore, AwayScore: existing.AwayScore, Winner: existing.Winner}
	newWinner := entity.DeriveOutcome(homeScore, awayScore)
	newSnapshot := scoreSnapshot{HomeScore: homeScore, AwayScore: awayScore, Winner: newWinner}

	err := withRetry(s.config.MaxRetries, func() error {
		current, err := s.resultRepo.GetByMatchID(existing.MatchID)
		if err != nil {
			return err
		}
		if current.IsFinal() {
			return fmt.Errorf("%w: result for match #%d", apperrors.ErrResultAlreadyFinal, existing.MatchID)
		}
		return s.resultRepo.UpdateScore(current.ID, homeScore, awayScore, newWinner, current.Version)
	})
	if err != nil {
		return nil, err
	}

	record, err := newAuditRecord(s.clock, actorID, entity.AuditActionResultCorrected, entity.AuditEntityResult, existing.MatchID, oldSnapshot, newSnapshot)
	if err != nil {
		return nil, err
	}
	if err := s.auditRepo.Append(record); err != nil {
		return nil, fmt.Errorf("запись в журнал аудита не удалась: %w", err)
	}

	s.publishEvent(notification.EventProvisionalResultPosted, map[string]interface{}{
		"match_id":   existing.MatchID,
		"home_score": homeScore,
		"away_score": awayScore,
		"winner":     newWinner,
	})

	log.Printf("[ResultService] Скорректирован результат матча #%d: %d:%d -> %d:%d (актор #%d)",
		existing.MatchID, oldSnapshot.HomeScore, oldSnapshot.AwayScore, homeScore, awayScore, actorID)

	existing.ApplyScore(homeScore, awayScore)
	return existing, nil
}

// settlementItem — одна строка плана расчета матча
type settlementItem struct {
	PredictionID uint
	GroupID      uint
	Points       int
}

// buildSettlementPlan строит план расчета по финальному результату.
// Функция чистая и не прощает рассогласованных данных: ошибка начисления
// по любому прогнозу отменяет расчет целиком.
func buildSettlementPlan(predictions []entity.Prediction, result *entity.MatchResult, table scoring.PointsTable) ([]settlementItem, error) {
	res := scoring.ResultFacts{
		Winner:    result.Winner,
		HomeScore: result.HomeScore,
		AwayScore: result.AwayScore,
	}

	plan := make([]settlementItem, 0, len(predictions))
	for _, p := range predictions {
		// Уже рассчитанные и аннулированные прогнозы не трогаем:
		// это делает повторный расчет безопасным
		if p.Status != entity.PredictionStatusPending {
			continue
		}

		points, err := scoring.Score(scoring.PredictionFacts{
			Outcome:   p.PredictedOutcome,
			HomeScore: p.PredictedHomeScore,
			AwayScore: p.PredictedAwayScore,
		}, res, table)
		if err != nil {
			return nil, fmt.Errorf("расчет прогноза #%d: %w", p.ID, err)
		}

		plan = append(plan, settlementItem{PredictionID: p.ID, GroupID: p.GroupID, Points: points})
	}
	return plan, nil
}

// Finalize финализирует результат матча и рассчитывает все прогнозы в одной
// транзакции. Финализация односторонняя: второй вызов возвращает
// ErrResultAlreadyFinal, уже рассчитанные прогнозы повторно не трогаются.
func (s *ResultService) Finalize(actorID, matchID uint) error {
	var affectedGroups map[uint]struct{}

	err := withRetry(s.config.MaxRetries, func() error {
		tx := s.db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
				log.Printf("PANIC recovered during Finalize transaction: %v", r)
			}
		}()

		if tx.Error != nil {
			return tx.Error
		}

		result, err := s.resultRepo.GetByMatchIDForUpdate(tx, matchID)
		if err != nil {
			tx.Rollback()
			return err
		}
		if result.IsFinal() {
			tx.Rollback()
			return fmt.Errorf("%w: result for match #%d", apperrors.ErrResultAlreadyFinal, matchID)
		}

		match, err := s.matchRepo.GetByIDForUpdate(tx, matchID)
		if err != nil {
			tx.Rollback()
			return err
		}
		if match.IsCancelled() {
			tx.Rollback()
			return fmt.Errorf("%w: матч #%d отменен", apperrors.ErrValidation, matchID)
		}

		now := s.clock.Now()

		if err := s.resultRepo.Finalize(tx, result.ID, now, result.Version); err != nil {
			tx.Rollback()
			return err
		}

		if err := s.matchRepo.UpdateStatus(tx, matchID, entity.MatchStatusFinished, match.Version); err != nil {
			tx.Rollback()
			return err
		}

		predictions, err := s.predictionRepo.GetByMatch(tx, matchID)
		if err != nil {
			tx.Rollback()
			return err
		}

		plan, err := buildSettlementPlan(predictions, result, s.config.PointsTable)
		if err != nil {
			// Рассогласованные данные — внутренний сбой, расчет не продолжается
			tx.Rollback()
			return fmt.Errorf("расчет матча #%d прерван: %w", matchID, err)
		}

		affectedGroups = make(map[uint]struct{})
		for _, item := range plan {
			if err := s.predictionRepo.UpdateSettlement(tx, item.PredictionID, item.Points, now); err != nil {
				tx.Rollback()
				return fmt.Errorf("сохранение расчета прогноза #%d: %w", item.PredictionID, err)
			}
			affectedGroups[item.GroupID] = struct{}{}
		}

		record, err := newAuditRecord(s.clock, actorID, entity.AuditActionResultFinalized, entity.AuditEntityResult, matchID,
			scoreSnapshot{HomeScore: result.HomeScore, AwayScore: result.AwayScore, Winner: result.Winner},
			nil)
		if err != nil {
			tx.Rollback()
			return err
		}
		if err := s.auditRepo.AppendTx(tx, record); err != nil {
			tx.Rollback()
			return fmt.Errorf("запись в журнал аудита не удалась: %w", err)
		}

		if err := tx.Commit().Error; err != nil {
			return err
		}

		log.Printf("[ResultService] Матч #%d финализирован, рассчитано прогнозов: %d (актор #%d)",
			matchID, len(plan), actorID)
		return nil
	})
	if err != nil {
		return err
	}

	// Кеш таблиц лидеров сбрасывается после коммита: потеря инвалидации
	// приводит лишь к устаревшему снимку до истечения TTL
	for groupID := range affectedGroups {
		if err := s.cacheRepo.Delete(leaderboardCacheKey(groupID)); err != nil {
			log.Printf("[ResultService] Ошибка сброса кеша таблицы лидеров группы #%d: %v", groupID, err)
		}
	}

	s.publishEvent(notification.EventResultFinalized, map[string]interface{}{
		"match_id": matchID,
	})
	if len(affectedGroups) > 0 {
		groupIDs := make([]uint, 0, len(affectedGroups))
		for groupID := range affectedGroups {
			groupIDs = append(groupIDs, groupID)
		}
		s.publishEvent(notification.EventLeaderboardUpdated, map[string]interface{}{
			"match_id":  matchID,
			"group_ids": groupIDs,
		})
	}

	return nil
}

// SettleMatch повторно прогоняет расчет прогнозов матча по финальному
// результату. Операция идемпотентна: рассчитываются только ожидающие
// прогнозы, поэтому повторный вызов после полного расчета ничего не меняет.
// Служит страховкой на случай, когда финализация состоялась, а часть
// прогнозов осталась нерассчитанной.
func (s *ResultService) SettleMatch(matchID uint) error {
	result, err := s.resultRepo.GetByMatchID(matchID)
	if err != nil {
		return err
	}
	if !result.IsFinal() {
		return fmt.Errorf("%w: результат матча #%d не финализирован", apperrors.ErrValidation, matchID)
	}

	predictions, err := s.predictionRepo.GetByMatch(s.db, matchID)
	if err != nil {
		return err
	}

	plan, err := buildSettlementPlan(predictions, result, s.config.PointsTable)
	if err != nil {
		return fmt.Errorf("расчет матча #%d прерван: %w", matchID, err)
	}
	if len(plan) == 0 {
		log.Printf("[ResultService] Матч #%d: нерассчитанных прогнозов нет, повторный расчет не требуется", matchID)
		return nil
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			log.Printf("PANIC recovered during SettleMatch transaction: %v", r)
		}
	}()

	if tx.Error != nil {
		return tx.Error
	}

	now := s.clock.Now()
	affectedGroups := make(map[uint]struct{})
	for _, item := range plan {
		if err := s.predictionRepo.UpdateSettlement(tx, item.PredictionID, item.Points, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("сохранение расчета прогноза #%d: %w", item.PredictionID, err)
		}
		affectedGroups[item.GroupID] = struct{}{}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	groupIDs := make([]uint, 0, len(affectedGroups))
	for groupID := range affectedGroups {
		if err := s.cacheRepo.Delete(leaderboardCacheKey(groupID)); err != nil {
			log.Printf("[ResultService] Ошибка сброса кеша таблицы лидеров группы #%d: %v", groupID, err)
		}
		groupIDs = append(groupIDs, groupID)
	}
	s.publishEvent(notification.EventLeaderboardUpdated, map[string]interface{}{
		"match_id":  matchID,
		"group_ids": groupIDs,
	})

	log.Printf("[ResultService] Матч #%d дорассчитан, прогнозов: %d", matchID, len(plan))
	return nil
}

// CancelMatch отменяет матч. Все нерассчитанные прогнозы аннулируются и
// навсегда исключаются из подсчета очков.
func (s *ResultService) CancelMatch(actorID, matchID uint) error {
	return withRetry(s.config.MaxRetries, func() error {
		tx := s.db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
				log.Printf("PANIC recovered during CancelMatch transaction: %v", r)
			}
		}()

		if tx.Error != nil {
			return tx.Error
		}

		match, err := s.matchRepo.GetByIDForUpdate(tx, matchID)
		if err != nil {
			tx.Rollback()
			return err
		}
		if !match.IsScheduled() {
			tx.Rollback()
			return fmt.Errorf("%w: матч #%d нельзя отменить в статусе %s", ErrMatchNotSchedulable, matchID, match.Status)
		}

		if err := s.matchRepo.UpdateStatus(tx, matchID, entity.MatchStatusCancelled, match.Version); err != nil {
			tx.Rollback()
			return err
		}

		voided, err := s.predictionRepo.VoidByMatch(tx, matchID)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("аннулирование прогнозов матча #%d: %w", matchID, err)
		}

		record, err := newAuditRecord(s.clock, actorID, entity.AuditActionMatchCancelled, entity.AuditEntityMatch, matchID,
			map[string]interface{}{"status": match.Status},
			map[string]interface{}{"status": entity.MatchStatusCancelled, "voided_predictions": voided})
		if err != nil {
			tx.Rollback()
			return err
		}
		if err := s.auditRepo.AppendTx(tx, record); err != nil {
			tx.Rollback()
			return fmt.Errorf("запись в журнал аудита не удалась: %w", err)
		}

		if err := tx.Commit().Error; err != nil {
			return err
		}

		s.publishEvent(notification.EventMatchCancelled, map[string]interface{}{
			"match_id":           matchID,
			"voided_predictions": voided,
		})

		log.Printf("[ResultService] Матч #%d отменен, аннулировано прогнозов: %d (актор #%d)", matchID, voided, actorID)
		return nil
	})
}

// publishEvent публикует доменное событие, не прерывая основную операцию при ошибке
func (s *ResultService) publishEvent(eventType string, payload interface{}) {
	event, err := notification.NewEvent(eventType, payload)
	if err != nil {
		log.Printf("[ResultService] Ошибка сборки события %s: %v", eventType, err)
		return
	}
	if err := s.notifier.Publish(notification.ChannelEvents, event); err != nil {
		log.Printf("[ResultService] Ошибка публикации события %s: %v", eventType, err)
	}
}
