package dto

import (
	"time"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
)

// GroupResponse представляет группу в формате для ответа клиенту
type GroupResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	CompetitionID uint      `json:"competition_id"`
	OwnerID       uint      `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// GroupMemberResponse представляет участника группы
type GroupMemberResponse struct {
	UserID   uint      `json:"user_id"`
	GroupID  uint      `json:"group_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// UserResponse представляет пользователя в формате для ответа клиенту
type UserResponse struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	RegisteredAt time.Time `json:"registered_at"`
}

// NewGroupResponse создает DTO для группы
func NewGroupResponse(g *entity.Group) *GroupResponse {
	if g == nil {
		return nil
	}
	return &GroupResponse{
		ID:            g.ID,
		Name:          g.Name,
		CompetitionID: g.CompetitionID,
		OwnerID:       g.OwnerID,
		CreatedAt:     g.CreatedAt,
	}
}

// NewListGroupResponse создает слайс DTO для списка групп
func NewListGroupResponse(groups []entity.Group) []*GroupResponse {
	list := make([]*GroupResponse, len(groups))
	for i, g := range groups {
		list[i] = NewGroupResponse(&g)
	}
	return list
}

// NewGroupMemberResponse создает DTO для участника группы
func NewGroupMemberResponse(m *entity.GroupMember) *GroupMemberResponse {
	if m == nil {
		return nil
	}
	return &GroupMemberResponse{
		UserID:   m.UserID,
		GroupID:  m.GroupID,
		Role:     m.Role,
		JoinedAt: m.JoinedAt,
	}
}

// NewListGroupMemberResponse создает слайс DTO для списка участников
func NewListGroupMemberResponse(members []entity.GroupMember) []*GroupMemberResponse {
	list := make([]*GroupMemberResponse, len(members))
	for i, m := range members {
		list[i] = NewGroupMemberResponse(&m)
	}
	return list
}

// NewUserResponse создает DTO для пользователя
func NewUserResponse(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		RegisteredAt: u.RegisteredAt,
	}
}

// NewListUserResponse создает слайс DTO для списка пользователей
func NewListUserResponse(users []entity.User) []*UserResponse {
	list := make([]*UserResponse, len(users))
	for i, u := range users {
		list[i] = NewUserResponse(&u)
	}
	return list
}
