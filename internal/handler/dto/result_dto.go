package dto

import (
	"time"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
)

// ResultResponse представляет результат матча в формате для ответа клиенту
type ResultResponse struct {
	ID            uint       `json:"id"`
	MatchID       uint       `json:"match_id"`
	HomeScore     int        `json:"home_score"`
	AwayScore     int        `json:"away_score"`
	Winner        string     `json:"winner"`
	IsProvisional bool       `json:"is_provisional"`
	EnteredBy     uint       `json:"entered_by"`
	EnteredAt     time.Time  `json:"entered_at"`
	FinalizedAt   *time.Time `json:"finalized_at,omitempty"`
}

// NewResultResponse создает DTO для результата матча
func NewResultResponse(result *entity.MatchResult) *ResultResponse {
	if result == nil {
		return nil
	}
	return &ResultResponse{
		ID:            result.ID,
		MatchID:       result.MatchID,
		HomeScore:     result.HomeScore,
		AwayScore:     result.AwayScore,
		Winner:        result.Winner,
		IsProvisional: result.IsProvisional,
		EnteredBy:     result.EnteredBy,
		EnteredAt:     result.EnteredAt,
		FinalizedAt:   result.FinalizedAt,
	}
}

// AuditRecordResponse представляет запись журнала аудита для ответа клиенту
type AuditRecordResponse struct {
	ID         uint      `json:"id"`
	RecordUID  string    `json:"record_uid"`
	ActorID    uint      `json:"actor_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   uint      `json:"entity_id"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewAuditRecordResponse создает DTO для записи аудита
func NewAuditRecordResponse(record *entity.AuditRecord) *AuditRecordResponse {
	if record == nil {
		return nil
	}
	return &AuditRecordResponse{
		ID:         record.ID,
		RecordUID:  record.RecordUID,
		ActorID:    record.ActorID,
		Action:     record.Action,
		EntityType: record.EntityType,
		EntityID:   record.EntityID,
		OldValue:   record.OldValue,
		NewValue:   record.NewValue,
		CreatedAt:  record.CreatedAt,
	}
}

// NewListAuditRecordResponse создает слайс DTO для истории аудита
func NewListAuditRecordResponse(records []entity.AuditRecord) []*AuditRecordResponse {
	list := make([]*AuditRecordResponse, len(records))
	for i, record := range records {
		list[i] = NewAuditRecordResponse(&record)
	}
	return list
}
