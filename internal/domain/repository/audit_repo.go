package repository

import (
	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"gorm.io/gorm"
)

// AuditRepository определяет методы для работы с журналом аудита.
// Журнал только дополняется: операций изменения и удаления нет.
type AuditRepository interface {
	Append(record *entity.AuditRecord) error
	// AppendTx дописывает запись в рамках внешней транзакции
	AppendTx(tx *gorm.DB, record *entity.AuditRecord) error
	// History возвращает записи по сущности в порядке возрастания времени
	History(entityType string, entityID uint, limit, offset int) ([]entity.AuditRecord, int64, error)
}
