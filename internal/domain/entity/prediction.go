package entity

import (
	"fmt"
	"time"
)

// Константы исходов матча
const (
	OutcomeHomeWin = "home_win"
	OutcomeAwayWin = "away_win"
	OutcomeDraw    = "draw"
)

// Константы статусов прогноза
const (
	PredictionStatusPending = "pending"
	PredictionStatusSettled = "settled"
	PredictionStatusVoid    = "void"
)

// Prediction представляет прогноз участника на матч в рамках группы.
// На тройку (пользователь, матч, группа) существует не более одной записи;
// повторная подача полностью замещает предыдущую.
type Prediction struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	UserID  uint `gorm:"not null;uniqueIndex:idx_user_match_group" json:"user_id"`
	MatchID uint `gorm:"not null;uniqueIndex:idx_user_match_group;index" json:"match_id"`
	GroupID uint `gorm:"not null;uniqueIndex:idx_user_match_group;index" json:"group_id"`

	PredictedOutcome   string `gorm:"size:20;not null" json:"predicted_outcome"`
	PredictedHomeScore int    `gorm:"not null" json:"predicted_home_score"`
	PredictedAwayScore int    `gorm:"not null" json:"predicted_away_score"`

	// PlacedAt — момент последней подачи; обновляется при каждой перезаписи.
	PlacedAt time.Time `gorm:"not null" json:"placed_at"`

	// Points заполняется только после расчета матча.
	Points    *int       `json:"points,omitempty"`
	Status    string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	SettledAt *time.Time `json:"settled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Prediction) TableName() string {
	return "predictions"
}

// IsSettled проверяет, рассчитан ли прогноз
func (p *Prediction) IsSettled() bool {
	return p.Status == PredictionStatusSettled
}

// DeriveOutcome возвращает исход, однозначно вытекающий из счета
func DeriveOutcome(homeScore, awayScore int) string {
	switch {
	case homeScore > awayScore:
		return OutcomeHomeWin
	case awayScore > homeScore:
		return OutcomeAwayWin
	default:
		return OutcomeDraw
	}
}

// ValidOutcome проверяет, что строка является допустимым исходом
func ValidOutcome(outcome string) bool {
	return outcome == OutcomeHomeWin || outcome == OutcomeAwayWin || outcome == OutcomeDraw
}

// Validate проверяет внутреннюю согласованность прогноза: счет неотрицателен,
// исход допустим и соответствует счету.
func (p *Prediction) Validate() error {
	if p.PredictedHomeScore < 0 || p.PredictedAwayScore < 0 {
		return fmt.Errorf("счет не может быть отрицательным: %d:%d", p.PredictedHomeScore, p.PredictedAwayScore)
	}
	if !ValidOutcome(p.PredictedOutcome) {
		return fmt.Errorf("недопустимый исход: %q", p.PredictedOutcome)
	}
	if derived := DeriveOutcome(p.PredictedHomeScore, p.PredictedAwayScore); p.PredictedOutcome != derived {
		return fmt.Errorf("исход %q противоречит счету %d:%d", p.PredictedOutcome, p.PredictedHomeScore, p.PredictedAwayScore)
	}
	return nil
}
