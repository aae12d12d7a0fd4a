package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
)

// PredictionRepo реализует repository.PredictionRepository
type PredictionRepo struct {
	db *gorm.DB
}

// NewPredictionRepo создает новый репозиторий прогнозов
func NewPredictionRepo(db *gorm.DB) *PredictionRepo {
	return &PredictionRepo{db: db}
}

// Upsert атомарно создает или полностью замещает прогноз по тройке
// (user_id, match_id, group_id). Частичных обновлений нет: все поля
// прогноза перезаписываются значениями новой подачи.
func (r *PredictionRepo) Upsert(tx *gorm.DB, prediction *entity.Prediction) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "match_id"}, {Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"predicted_outcome",
			"predicted_home_score",
			"predicted_away_score",
			"placed_at",
			"updated_at",
		}),
	}).Create(prediction).Error
}

// GetByUserMatchGroup возвращает прогноз участника на матч в группе
func (r *PredictionRepo) GetByUserMatchGroup(userID, matchID, groupID uint) (*entity.Prediction, error) {
	var prediction entity.Prediction
	err := r.db.Where("user_id = ? AND match_id = ? AND group_id = ?", userID, matchID, groupID).
		First(&prediction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &prediction, nil
}

// GetByMatch возвращает все прогнозы на матч
func (r *PredictionRepo) GetByMatch(tx *gorm.DB, matchID uint) ([]entity.Prediction, error) {
	var predictions []entity.Prediction
	err := tx.Where("match_id = ?", matchID).Order("id ASC").Find(&predictions).Error
	if err != nil {
		return nil, err
	}
	return predictions, nil
}

// GetByMatchGroup возвращает прогнозы всех участников группы на матч
func (r *PredictionRepo) GetByMatchGroup(matchID, groupID uint) ([]entity.Prediction, error) {
	var predictions []entity.Prediction
	err := r.db.Where("match_id = ? AND group_id = ?", matchID, groupID).
		Order("placed_at ASC, id ASC").
		Find(&predictions).Error
	if err != nil {
		return nil, err
	}
	return predictions, nil
}

// GetUserPredictions возвращает прогнозы участника в группе с пагинацией
func (r *PredictionRepo) GetUserPredictions(userID, groupID uint, limit, offset int) ([]entity.Prediction, int64, error) {
	var predictions []entity.Prediction
	var total int64

	query := r.db.Model(&entity.Prediction{}).
		Where("user_id = ? AND group_id = ?", userID, groupID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("placed_at DESC").Find(&predictions).Error
	if err != nil {
		return nil, 0, err
	}

	return predictions, total, nil
}

// UpdateSettlement записывает начисленные очки и переводит прогноз в settled
func (r *PredictionRepo) UpdateSettlement(tx *gorm.DB, predictionID uint, points int, settledAt time.Time) error {
	return tx.Model(&entity.Prediction{}).
		Where("id = ?", predictionID).
		Updates(map[string]interface{}{
			"points":     points,
			"status":     entity.PredictionStatusSettled,
			"settled_at": settledAt,
		}).Error
}

// VoidByMatch аннулирует все нерассчитанные прогнозы на матч
func (r *PredictionRepo) VoidByMatch(tx *gorm.DB, matchID uint) (int64, error) {
	result := tx.Model(&entity.Prediction{}).
		Where("match_id = ? AND status = ?", matchID, entity.PredictionStatusPending).
		Update("status", entity.PredictionStatusVoid)
	return result.RowsAffected, result.Error
}

// AggregateGroupTotals считает суммарные очки и счетчики точности по группе.
// Учитываются только рассчитанные прогнозы; участники без единого рассчитанного
// прогноза попадают в выборку с нулями через LEFT JOIN по членству.
func (r *PredictionRepo) AggregateGroupTotals(groupID uint, exactPoints, outcomePoints int) ([]entity.LeaderboardEntry, error) {
	var entries []entity.LeaderboardEntry
	err := r.db.Raw(`
		SELECT
			u.id AS user_id,
			u.username AS username,
			u.registered_at AS registered_at,
			COALESCE(SUM(p.points), 0) AS total_points,
			COUNT(p.id) FILTER (WHERE p.points = ?) AS exact_count,
			COUNT(p.id) FILTER (WHERE p.points = ?) AS outcome_count,
			COUNT(p.id) AS predictions
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		LEFT JOIN predictions p
			ON p.user_id = gm.user_id
			AND p.group_id = gm.group_id
			AND p.status = ?
		WHERE gm.group_id = ?
		GROUP BY u.id, u.username, u.registered_at
	`, exactPoints, outcomePoints, entity.PredictionStatusSettled, groupID).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
