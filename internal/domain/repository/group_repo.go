package repository

import (
	"github.com/yourusername/matchbet-api/internal/domain/entity"
)

// GroupRepository определяет методы для работы с группами и членством
type GroupRepository interface {
	Create(group *entity.Group) error
	GetByID(id uint) (*entity.Group, error)
	List(limit, offset int) ([]entity.Group, int64, error)
	AddMember(member *entity.GroupMember) error
	// GetMember возвращает запись членства или ErrNotFound
	GetMember(groupID, userID uint) (*entity.GroupMember, error)
	ListMembers(groupID uint) ([]entity.GroupMember, error)
	ListUserGroups(userID uint) ([]entity.Group, error)
}
