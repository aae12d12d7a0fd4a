package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
)

// GroupRepo реализует repository.GroupRepository
type GroupRepo struct {
	db *gorm.DB
}

// NewGroupRepo создает новый репозиторий групп
func NewGroupRepo(db *gorm.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// Create создает новую группу
func (r *GroupRepo) Create(group *entity.Group) error {
	return r.db.Create(group).Error
}

// GetByID возвращает группу по ID
func (r *GroupRepo) GetByID(id uint) (*entity.Group, error) {
	var group entity.Group
	err := r.db.First(&group, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

// List возвращает список групп с пагинацией
func (r *GroupRepo) List(limit, offset int) ([]entity.Group, int64, error) {
	var groups []entity.Group
	var total int64

	if err := r.db.Model(&entity.Group{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Limit(limit).Offset(offset).Order("id ASC").Find(&groups).Error
	if err != nil {
		return nil, 0, err
	}

	return groups, total, nil
}

// AddMember добавляет участника в группу
func (r *GroupRepo) AddMember(member *entity.GroupMember) error {
	err := r.db.Create(member).Error
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: user #%d already in group #%d", apperrors.ErrConflict, member.UserID, member.GroupID)
	}
	return err
}

// GetMember возвращает запись членства или ErrNotFound
func (r *GroupRepo) GetMember(groupID, userID uint) (*entity.GroupMember, error) {
	var member entity.GroupMember
	err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

// ListMembers возвращает всех участников группы
func (r *GroupRepo) ListMembers(groupID uint) ([]entity.GroupMember, error) {
	var members []entity.GroupMember
	err := r.db.Where("group_id = ?", groupID).Order("joined_at ASC").Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// ListUserGroups возвращает группы, в которых состоит пользователь
func (r *GroupRepo) ListUserGroups(userID uint) ([]entity.Group, error) {
	var groups []entity.Group
	err := r.db.Joins("JOIN group_members gm ON gm.group_id = groups.id").
		Where("gm.user_id = ?", userID).
		Order("groups.id ASC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}
