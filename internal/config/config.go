package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Betting  BettingConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	// Для 'single', если не пуст, используется первый адрес из списка.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single' (для обратной совместимости).
	// Используется, если Mode="single" и Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: Максимальное количество попыток переподключения (-1 - бесконечно). По умолчанию 0 (без ретраев).
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff: Минимальный интервал между попытками (в миллисекундах). По умолчанию 8ms.
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`

	// MaxRetryBackoff: Максимальный интервал между попытками (в миллисекундах). По умолчанию 512ms.
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// BettingConfig содержит настройки ядра ставок
type BettingConfig struct {
	// DeadlineOffset — отступ дедлайна от начала матча по умолчанию
	DeadlineOffset time.Duration `mapstructure:"deadline_offset"`

	// LockSweepInterval — период фоновой проверки очереди ближайших матчей
	LockSweepInterval time.Duration `mapstructure:"lock_sweep_interval"`

	// MaxRetries — число внутренних повторов при конфликте версий
	MaxRetries int `mapstructure:"max_retries"`

	// ExactPoints — очки за точный счет
	ExactPoints int `mapstructure:"exact_points"`

	// OutcomePoints — очки за угаданный исход
	OutcomePoints int `mapstructure:"outcome_points"`

	// LeaderboardCacheTTL — время жизни снимка таблицы лидеров в кеше
	LeaderboardCacheTTL time.Duration `mapstructure:"leaderboard_cache_ttl"`

	// NotificationsEnabled — публиковать ли доменные события в Redis
	NotificationsEnabled bool `mapstructure:"notifications_enabled"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию для ядра ставок
	vip.SetDefault("betting.deadline_offset", time.Hour)
	vip.SetDefault("betting.lock_sweep_interval", time.Minute)
	vip.SetDefault("betting.max_retries", 3)
	vip.SetDefault("betting.exact_points", 3)
	vip.SetDefault("betting.outcome_points", 1)
	vip.SetDefault("betting.leaderboard_cache_ttl", 5*time.Minute)
	vip.SetDefault("betting.notifications_enabled", false)

	// 2. Привязываем переменные окружения ЯВНО
	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS") // Для массива строк
	vip.BindEnv("redis.addr", "REDIS_ADDR")   // Для одиночной строки
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для секции Betting
	vip.BindEnv("betting.deadline_offset", "BETTING_DEADLINE_OFFSET")
	vip.BindEnv("betting.lock_sweep_interval", "BETTING_LOCK_SWEEP_INTERVAL")
	vip.BindEnv("betting.max_retries", "BETTING_MAX_RETRIES")
	vip.BindEnv("betting.exact_points", "BETTING_EXACT_POINTS")
	vip.BindEnv("betting.outcome_points", "BETTING_OUTCOME_POINTS")
	vip.BindEnv("betting.notifications_enabled", "BETTING_NOTIFICATIONS_ENABLED")

	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")

	// 3. Устанавливаем путь к файлу конфигурации
	if configPath != "" {
		vip.SetConfigFile(configPath)
		// 4. Пытаемся прочитать файл конфигурации (не страшно, если его нет, т.к. есть BindEnv)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 5. Анмаршалим конфигурацию (Viper объединит значения из файла и привязанных env vars)
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Логирование конфигурации (только в debug режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Port: %s", cfg.Database.Port)
		log.Printf("Database User: %s", cfg.Database.User)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Database SSLMode: %s", cfg.Database.SSLMode)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Deadline Offset: %s", cfg.Betting.DeadlineOffset)
		log.Printf("Lock Sweep Interval: %s", cfg.Betting.LockSweepInterval)
		log.Printf("Points: exact=%d outcome=%d", cfg.Betting.ExactPoints, cfg.Betting.OutcomePoints)
		log.Printf("Notifications Enabled: %t", cfg.Betting.NotificationsEnabled)
		log.Printf("-----------------------------------------")
	}

	// 7. Проверка обязательных параметров
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.Betting.DeadlineOffset <= 0 {
		return nil, fmt.Errorf("betting deadline offset must be positive (check BETTING_DEADLINE_OFFSET env var)")
	}
	// Градации очков обязаны быть различимы: агрегация таблицы лидеров
	// восстанавливает категорию попадания по числу начисленных очков
	if cfg.Betting.OutcomePoints <= 0 {
		return nil, fmt.Errorf("outcome points must be positive (got %d, check BETTING_OUTCOME_POINTS env var)", cfg.Betting.OutcomePoints)
	}
	if cfg.Betting.ExactPoints <= cfg.Betting.OutcomePoints {
		return nil, fmt.Errorf("exact points must exceed outcome points (got exact=%d outcome=%d)", cfg.Betting.ExactPoints, cfg.Betting.OutcomePoints)
	}
	ginMode := vip.GetString("GIN_MODE")
	if ginMode != "debug" {
		if cfg.Database.Password == "" {
			return nil, fmt.Errorf("database password is required in production mode (check DATABASE_PASSWORD env var)")
		}
	}

	return &cfg, nil
}
