package service

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"github.com/yourusername/matchbet-api/internal/domain/repository"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
	"github.com/yourusername/matchbet-api/pkg/clock"
)

// PredictionService предоставляет методы для работы с прогнозами
type PredictionService struct {
	predictionRepo repository.PredictionRepository
	matchRepo      repository.MatchRepository
	groupRepo      repository.GroupRepository
	db             *gorm.DB
	clock          clock.Clock
	config         *Config
}

// NewPredictionService создает новый сервис прогнозов
func NewPredictionService(
	predictionRepo repository.PredictionRepository,
	matchRepo repository.MatchRepository,
	groupRepo repository.GroupRepository,
	db *gorm.DB,
	clk clock.Clock,
	config *Config,
) *PredictionService {
	return &PredictionService{
		predictionRepo: predictionRepo,
		matchRepo:      matchRepo,
		groupRepo:      groupRepo,
		db:             db,
		clock:          clk,
		config:         config,
	}
}

// SubmitPrediction принимает прогноз участника. Повторная подача полностью
// замещает предыдущий прогноз. Срез дедлайна перепроверяется в транзакции
// под блокировкой строки матча: прогноз, прошедший предварительную проверку,
// не может проскочить в базу после наступления дедлайна.
func (s *PredictionService) SubmitPrediction(userID, groupID, matchID uint, outcome string, homeScore, awayScore int) (*entity.Prediction, error) {
	// Членство в группе проверяется до любых обращений к матчу
	if _, err := s.groupRepo.GetMember(groupID, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user #%d, group #%d", apperrors.ErrNotGroupMember, userID, groupID)
		}
		return nil, err
	}

	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		return nil, err
	}

	prediction := &entity.Prediction{
		UserID:             userID,
		MatchID:            matchID,
		GroupID:            groupID,
		PredictedOutcome:   outcome,
		PredictedHomeScore: homeScore,
		PredictedAwayScore: awayScore,
	}

	if err := prediction.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidPrediction, err)
	}

	// Предварительная проверка без транзакции: отсекает заведомо поздние
	// подачи дешево, но решающей является проверка под блокировкой ниже
	match, err := s.matchRepo.GetByID(matchID)
	if err != nil {
		return nil, err
	}
	if match.CompetitionID != group.CompetitionID {
		return nil, fmt.Errorf("%w: матч #%d не относится к турниру группы #%d", apperrors.ErrValidation, matchID, groupID)
	}
	if err := s.checkDeadline(match); err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			log.Printf("PANIC recovered during SubmitPrediction transaction: %v", r)
		}
	}()

	if tx.Error != nil {
		return nil, tx.Error
	}

	// Решающая проверка среза: строка матча блокируется, дедлайн
	// перечитывается уже внутри транзакции
	lockedMatch, err := s.matchRepo.GetByIDForUpdate(tx, matchID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := s.checkDeadline(lockedMatch); err != nil {
		tx.Rollback()
		return nil, err
	}

	prediction.PlacedAt = s.clock.Now()
	prediction.Status = entity.PredictionStatusPending

	if err := s.predictionRepo.Upsert(tx, prediction); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("сохранение прогноза не удалось: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	log.Printf("[PredictionService] Прогноз пользователя #%d на матч #%d в группе #%d принят (%d:%d)",
		userID, matchID, groupID, homeScore, awayScore)
	return prediction, nil
}

// checkDeadline проверяет, что матч еще принимает прогнозы. Прием закрыт
// не только после дедлайна, но и с момента выставления защелки ближайшего
// матча: защелка замораживает и дедлайн, и прием подач.
func (s *PredictionService) checkDeadline(match *entity.Match) error {
	if !match.IsScheduled() {
		return fmt.Errorf("%w: матч #%d не принимает прогнозы", apperrors.ErrValidation, match.ID)
	}
	if EvaluateLockState(match, s.clock.Now()) != StateOpen {
		return fmt.Errorf("%w: match #%d", apperrors.ErrDeadlinePassed, match.ID)
	}
	return nil
}

// GetPrediction возвращает прогноз участника на матч в группе
func (s *PredictionService) GetPrediction(userID, matchID, groupID uint) (*entity.Prediction, error) {
	return s.predictionRepo.GetByUserMatchGroup(userID, matchID, groupID)
}

// GetMatchPredictions возвращает прогнозы всех участников группы на матч.
// Доступно только членам группы и только после дедлайна: до него чужие
// прогнозы скрыты.
func (s *PredictionService) GetMatchPredictions(viewerID, matchID, groupID uint) ([]entity.Prediction, error) {
	if _, err := s.groupRepo.GetMember(groupID, viewerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь #%d не состоит в группе #%d", apperrors.ErrNotGroupMember, viewerID, groupID)
		}
		return nil, err
	}

	match, err := s.matchRepo.GetByID(matchID)
	if err != nil {
		return nil, err
	}
	if match.IsScheduled() && s.clock.Now().Before(match.DeadlineAt) {
		return nil, fmt.Errorf("%w: прогнозы группы скрыты до дедлайна матча #%d", apperrors.ErrForbidden, matchID)
	}

	return s.predictionRepo.GetByMatchGroup(matchID, groupID)
}

// GetUserPredictions возвращает прогнозы участника в группе с пагинацией
func (s *PredictionService) GetUserPredictions(userID, groupID uint, page, pageSize int) ([]entity.Prediction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	return s.predictionRepo.GetUserPredictions(userID, groupID, pageSize, offset)
}
