package entity

import (
	"time"
)

// Константы типов сущностей в журнале аудита
const (
	AuditEntityMatch  = "match"
	AuditEntityResult = "result"
)

// Константы действий в журнале аудита
const (
	AuditActionDeadlineSet         = "deadline_set"
	AuditActionMatchRescheduled    = "match_rescheduled"
	AuditActionMatchCancelled      = "match_cancelled"
	AuditActionResultRecorded      = "result_recorded"
	AuditActionResultCorrected     = "result_corrected"
	AuditActionResultFinalized     = "result_finalized"
)

// AuditRecord представляет запись журнала аудита административных действий.
// Журнал только дополняется: записи никогда не изменяются и не удаляются.
type AuditRecord struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// RecordUID — глобально уникальный идентификатор записи.
	RecordUID string `gorm:"size:36;not null;uniqueIndex" json:"record_uid"`

	ActorID    uint   `gorm:"not null;index" json:"actor_id"`
	Action     string `gorm:"size:50;not null" json:"action"`
	EntityType string `gorm:"size:20;not null;index:idx_audit_entity" json:"entity_type"`
	EntityID   uint   `gorm:"not null;index:idx_audit_entity" json:"entity_id"`

	// Значения «до» и «после» в сериализованном виде.
	OldValue string `gorm:"type:text" json:"old_value"`
	NewValue string `gorm:"type:text" json:"new_value"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (AuditRecord) TableName() string {
	return "audit_records"
}
