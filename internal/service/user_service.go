package service

import (
	"fmt"
	"log"

	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"github.com/yourusername/matchbet-api/internal/domain/repository"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
	"github.com/yourusername/matchbet-api/pkg/clock"
)

// UserService предоставляет методы для работы с профилями участников
type UserService struct {
	userRepo repository.UserRepository
	clock    clock.Clock
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository, clk clock.Clock) *UserService {
	return &UserService{
		userRepo: userRepo,
		clock:    clk,
	}
}

// Register создает профиль участника. Момент регистрации фиксируется один
// раз и далее участвует в тай-брейках таблицы лидеров.
func (s *UserService) Register(username string) (*entity.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: имя пользователя обязательно", apperrors.ErrValidation)
	}

	user := &entity.User{
		Username:     username,
		RegisteredAt: s.clock.Now(),
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	log.Printf("[UserService] Зарегистрирован пользователь #%d %q", user.ID, username)
	return user, nil
}

// GetUser возвращает профиль по ID
func (s *UserService) GetUser(userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(userID)
}

// ListUsers возвращает список пользователей с пагинацией
func (s *UserService) ListUsers(page, pageSize int) ([]entity.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	return s.userRepo.List(pageSize, offset)
}
