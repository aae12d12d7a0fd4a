package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"github.com/yourusername/matchbet-api/internal/domain/repository"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
	"github.com/yourusername/matchbet-api/pkg/clock"
)

// GroupService предоставляет методы для работы с группами участников
type GroupService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	clock     clock.Clock
}

// NewGroupService создает новый сервис групп
func NewGroupService(groupRepo repository.GroupRepository, userRepo repository.UserRepository, clk clock.Clock) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		clock:     clk,
	}
}

// CreateGroup создает группу и добавляет создателя как администратора
func (s *GroupService) CreateGroup(ownerID uint, name string, competitionID uint) (*entity.Group, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: имя группы обязательно", apperrors.ErrValidation)
	}
	if competitionID == 0 {
		return nil, fmt.Errorf("%w: турнир группы обязателен", apperrors.ErrValidation)
	}

	if _, err := s.userRepo.GetByID(ownerID); err != nil {
		return nil, err
	}

	group := &entity.Group{
		Name:          name,
		CompetitionID: competitionID,
		OwnerID:       ownerID,
	}

	if err := s.groupRepo.Create(group); err != nil {
		return nil, err
	}

	owner := &entity.GroupMember{
		GroupID:  group.ID,
		UserID:   ownerID,
		Role:     entity.GroupRoleAdmin,
		JoinedAt: s.clock.Now(),
	}
	if err := s.groupRepo.AddMember(owner); err != nil {
		return nil, fmt.Errorf("добавление владельца в группу #%d: %w", group.ID, err)
	}

	log.Printf("[GroupService] Создана группа #%d %q (владелец #%d)", group.ID, name, ownerID)
	return group, nil
}

// GetGroup возвращает группу по ID
func (s *GroupService) GetGroup(groupID uint) (*entity.Group, error) {
	return s.groupRepo.GetByID(groupID)
}

// ListGroups возвращает список групп с пагинацией
func (s *GroupService) ListGroups(page, pageSize int) ([]entity.Group, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	return s.groupRepo.List(pageSize, offset)
}

// JoinGroup добавляет пользователя в группу
func (s *GroupService) JoinGroup(groupID, userID uint) error {
	if _, err := s.groupRepo.GetByID(groupID); err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(userID); err != nil {
		return err
	}

	if _, err := s.groupRepo.GetMember(groupID, userID); err == nil {
		return fmt.Errorf("%w: user #%d already in group #%d", apperrors.ErrConflict, userID, groupID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	member := &entity.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		Role:     entity.GroupRoleMember,
		JoinedAt: s.clock.Now(),
	}
	if err := s.groupRepo.AddMember(member); err != nil {
		return err
	}

	log.Printf("[GroupService] Пользователь #%d вступил в группу #%d", userID, groupID)
	return nil
}

// ListMembers возвращает участников группы
func (s *GroupService) ListMembers(groupID uint) ([]entity.GroupMember, error) {
	if _, err := s.groupRepo.GetByID(groupID); err != nil {
		return nil, err
	}
	return s.groupRepo.ListMembers(groupID)
}

// ListUserGroups возвращает группы пользователя
func (s *GroupService) ListUserGroups(userID uint) ([]entity.Group, error) {
	return s.groupRepo.ListUserGroups(userID)
}
