package entity

import (
	"time"
)

// MatchResult представляет результат матча. Жизненный цикл односторонний:
// предварительный результат можно корректировать, финальный — неизменяем.
type MatchResult struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	MatchID uint `gorm:"not null;uniqueIndex" json:"match_id"`

	HomeScore int `gorm:"not null" json:"home_score"`
	AwayScore int `gorm:"not null" json:"away_score"`

	// Winner всегда выводится из счета, вручную не задается.
	Winner string `gorm:"size:20;not null" json:"winner"`

	IsProvisional bool `gorm:"not null;default:true" json:"is_provisional"`

	EnteredBy   uint       `gorm:"not null" json:"entered_by"`
	EnteredAt   time.Time  `gorm:"not null" json:"entered_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`

	// Version — монотонный счетчик для оптимистичной блокировки.
	Version int64 `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (MatchResult) TableName() string {
	return "match_results"
}

// IsFinal проверяет, зафиксирован ли результат окончательно
func (r *MatchResult) IsFinal() bool {
	return !r.IsProvisional
}

// ApplyScore обновляет счет и пересчитывает победителя
func (r *MatchResult) ApplyScore(homeScore, awayScore int) {
	r.HomeScore = homeScore
	r.AwayScore = awayScore
	r.Winner = DeriveOutcome(homeScore, awayScore)
}
