package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
)

// AuditRepo реализует repository.AuditRepository.
// Таблица журнала только дополняется: UPDATE и DELETE здесь не появляются.
type AuditRepo struct {
	db *gorm.DB
}

// NewAuditRepo создает новый репозиторий журнала аудита
func NewAuditRepo(db *gorm.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Append дописывает запись в журнал
func (r *AuditRepo) Append(record *entity.AuditRecord) error {
	return r.db.Create(record).Error
}

// AppendTx дописывает запись в журнал в рамках внешней транзакции
func (r *AuditRepo) AppendTx(tx *gorm.DB, record *entity.AuditRecord) error {
	return tx.Create(record).Error
}

// History возвращает записи по сущности в порядке возрастания времени.
// При равных метках времени порядок стабилизируется по ID вставки.
func (r *AuditRepo) History(entityType string, entityID uint, limit, offset int) ([]entity.AuditRecord, int64, error) {
	var records []entity.AuditRecord
	var total int64

	query := r.db.Model(&entity.AuditRecord{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("created_at ASC, id ASC").Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
