package service

import (
	"time"

	"github.com/yourusername/matchbet-api/internal/service/scoring"
)

// Config задает параметры ядра ставок
type Config struct {
	// DefaultDeadlineOffset — отступ дедлайна от начала матча по умолчанию
	DefaultDeadlineOffset time.Duration

	// MaxRetries — число внутренних повторов при конфликте версий
	MaxRetries int

	// PointsTable — таблица начисления очков
	PointsTable scoring.PointsTable

	// LeaderboardCacheTTL — время жизни снимка таблицы лидеров в кеше
	LeaderboardCacheTTL time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		DefaultDeadlineOffset: time.Hour,
		MaxRetries:            3,
		PointsTable:           scoring.DefaultPointsTable(),
		LeaderboardCacheTTL:   5 * time.Minute,
	}
}
