package entity

import (
	"time"
)

// Константы ролей участников группы
const (
	GroupRoleMember = "member"
	GroupRoleAdmin  = "admin"
)

// Group представляет группу участников, соревнующихся в рамках одного турнира.
type Group struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Name          string `gorm:"size:100;not null" json:"name"`
	CompetitionID uint   `gorm:"not null;index" json:"competition_id"`
	OwnerID       uint   `gorm:"not null" json:"owner_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Group) TableName() string {
	return "groups"
}

// GroupMember представляет членство пользователя в группе
type GroupMember struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	GroupID uint   `gorm:"not null;uniqueIndex:idx_group_user" json:"group_id"`
	UserID  uint   `gorm:"not null;uniqueIndex:idx_group_user;index" json:"user_id"`
	Role    string `gorm:"size:20;not null;default:'member'" json:"role"`

	JoinedAt time.Time `gorm:"not null" json:"joined_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (GroupMember) TableName() string {
	return "group_members"
}

// IsAdmin проверяет, имеет ли участник права администратора группы
func (m *GroupMember) IsAdmin() bool {
	return m.Role == GroupRoleAdmin
}
