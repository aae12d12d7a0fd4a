package entity

import (
	"time"
)

// Константы статусов матча
const (
	MatchStatusScheduled = "scheduled"
	MatchStatusFinished  = "finished"
	MatchStatusCancelled = "cancelled"
)

// Match представляет запланированный матч, на который принимаются ставки.
// Расписанием владеет внешний коллаборатор; ядро ставок меняет только
// дедлайн и флаг его блокировки.
type Match struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CompetitionID uint      `gorm:"not null;index" json:"competition_id"`
	HomeTeam      string    `gorm:"size:100;not null" json:"home_team"`
	AwayTeam      string    `gorm:"size:100;not null" json:"away_team"`
	StartTime     time.Time `gorm:"not null;index" json:"start_time"`

	// DeadlineAt — эффективный дедлайн приема ставок. Всегда строго раньше StartTime.
	DeadlineAt time.Time `gorm:"not null" json:"deadline_at"`

	// DeadlineLocked — одноразовая защелка: выставляется, когда матч становится
	// ближайшим в очереди своего турнира, и никогда не сбрасывается.
	DeadlineLocked bool `gorm:"not null;default:false;index" json:"deadline_locked"`

	Status string `gorm:"size:20;not null;default:'scheduled';index" json:"status"`

	// Version — монотонный счетчик для оптимистичной блокировки.
	Version int64 `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Match) TableName() string {
	return "matches"
}

// IsScheduled проверяет, что матч еще в расписании (не сыгран и не отменен)
func (m *Match) IsScheduled() bool {
	return m.Status == MatchStatusScheduled
}

// IsCancelled проверяет, отменен ли матч
func (m *Match) IsCancelled() bool {
	return m.Status == MatchStatusCancelled
}

// HasStarted проверяет, начался ли матч к моменту now
func (m *Match) HasStarted(now time.Time) bool {
	return !now.Before(m.StartTime)
}

// DeadlineValid проверяет инвариант "дедлайн строго раньше начала матча"
func (m *Match) DeadlineValid() bool {
	return m.DeadlineAt.Before(m.StartTime)
}
