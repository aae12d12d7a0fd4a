package service

import (
	"errors"
	"fmt"

	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
)

// Определяем кастомные ошибки для сервисов
var (
	ErrMatchNotSchedulable = errors.New("match cannot be modified in its current state")
)

// withRetry выполняет операцию с ограниченным числом повторов при конфликте
// версий. Любая другая ошибка возвращается сразу.
func withRetry(maxRetries int, op func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrConcurrentModification) {
			return err
		}
	}
	return fmt.Errorf("не удалось выполнить операцию за %d попыток: %w", maxRetries, err)
}
