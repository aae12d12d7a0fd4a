package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yourusername/matchbet-api/internal/config"
	"github.com/yourusername/matchbet-api/internal/handler"
	"github.com/yourusername/matchbet-api/internal/middleware"
	"github.com/yourusername/matchbet-api/internal/notification"
	pgRepo "github.com/yourusername/matchbet-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/matchbet-api/internal/repository/redis"
	"github.com/yourusername/matchbet-api/internal/service"
	"github.com/yourusername/matchbet-api/internal/service/scoring"
	"github.com/yourusername/matchbet-api/pkg/clock"
	"github.com/yourusername/matchbet-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	groupRepo := pgRepo.NewGroupRepo(db)
	matchRepo := pgRepo.NewMatchRepo(db)
	predictionRepo := pgRepo.NewPredictionRepo(db)
	resultRepo := pgRepo.NewResultRepo(db)
	auditRepo := pgRepo.NewAuditRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Создаем контекст с отменой для корректного завершения фоновых горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Инициализация публикации доменных событий ---
	var notifier notification.Notifier = &notification.NoOpNotifier{}
	if cfg.Betting.NotificationsEnabled {
		log.Println("Инициализация Redis-публикации доменных событий...")
		redisNotifier, errNotif := notification.NewRedisNotifier(redisClient)
		if errNotif != nil {
			log.Printf("Ошибка при создании Redis-нотификатора: %v. События публиковаться не будут.", errNotif)
		} else {
			log.Println("Redis-нотификатор успешно инициализирован")
			notifier = redisNotifier
		}
	}

	// Собираем конфигурацию ядра ставок из загруженных настроек
	betConfig := &service.Config{
		DefaultDeadlineOffset: cfg.Betting.DeadlineOffset,
		MaxRetries:            cfg.Betting.MaxRetries,
		PointsTable: scoring.PointsTable{
			Exact:   cfg.Betting.ExactPoints,
			Outcome: cfg.Betting.OutcomePoints,
		},
		LeaderboardCacheTTL: cfg.Betting.LeaderboardCacheTTL,
	}

	clk := clock.New()

	// Инициализируем сервисы
	userService := service.NewUserService(userRepo, clk)
	groupService := service.NewGroupService(groupRepo, userRepo, clk)
	deadlineService := service.NewDeadlineService(matchRepo, auditRepo, db, notifier, clk, betConfig)
	predictionService := service.NewPredictionService(predictionRepo, matchRepo, groupRepo, db, clk, betConfig)
	resultService := service.NewResultService(resultRepo, matchRepo, predictionRepo, auditRepo, cacheRepo, db, notifier, clk, betConfig)
	leaderboardService := service.NewLeaderboardService(predictionRepo, groupRepo, cacheRepo, betConfig)
	auditService := service.NewAuditService(auditRepo)

	// Инициализируем обработчики
	userHandler := handler.NewUserHandler(userService)
	groupHandler := handler.NewGroupHandler(groupService)
	matchHandler := handler.NewMatchHandler(deadlineService, resultService, auditService)
	predictionHandler := handler.NewPredictionHandler(predictionService)
	resultHandler := handler.NewResultHandler(resultService, auditService)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)

	// Инициализируем middleware
	actorMiddleware := middleware.NewActorMiddleware()
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Фоновый свипер очереди дедлайнов: периодически выставляет защелку
	// для ближайших матчей каждого турнира
	go func() {
		ticker := time.NewTicker(cfg.Betting.LockSweepInterval)
		defer ticker.Stop()

		log.Printf("Запуск фонового свипера дедлайнов (каждые %s)", cfg.Betting.LockSweepInterval)

		for {
			select {
			case <-ticker.C:
				locked, err := deadlineService.SweepDeadlines()
				if err != nil {
					log.Printf("Ошибка свипера дедлайнов: %v", err)
				} else if locked > 0 {
					log.Printf("Свипер дедлайнов заблокировал матчей: %d", locked)
				}
			case <-ctx.Done():
				log.Println("Завершение работы свипера дедлайнов")
				return
			}
		}
	}()

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	// В production (GIN_MODE=release): не доверяем прокси (защита от IP spoofing)
	// В development: доверяем localhost
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-ID", "X-User-Role"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Пользователи
		users := api.Group("/users")
		{
			users.POST("", userHandler.Register)
			users.GET("", userHandler.ListUsers)

			userWithID := users.Group("/:id")
			userWithID.Use(middleware.ExtractUintParam("id", "userID"))
			{
				userWithID.GET("", userHandler.GetUser)
			}
		}

		// Группы
		groups := api.Group("/groups")
		{
			groups.GET("", groupHandler.ListGroups)

			authedGroups := groups.Group("")
			authedGroups.Use(actorMiddleware.RequireActor())
			{
				authedGroups.POST("", groupHandler.CreateGroup)
				authedGroups.GET("/my", groupHandler.ListMyGroups)
			}

			groupWithID := groups.Group("/:id")
			groupWithID.Use(middleware.ExtractUintParam("id", "groupID"))
			{
				groupWithID.GET("", groupHandler.GetGroup)
				groupWithID.GET("/members", groupHandler.ListMembers)
				groupWithID.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
				groupWithID.GET("/leaderboard/export", leaderboardHandler.ExportLeaderboard)

				authedGroupWithID := groupWithID.Group("")
				authedGroupWithID.Use(actorMiddleware.RequireActor())
				{
					authedGroupWithID.POST("/join", groupHandler.JoinGroup)
				}

				adminGroupWithID := groupWithID.Group("")
				adminGroupWithID.Use(actorMiddleware.RequireActor(), actorMiddleware.AdminOnly())
				{
					adminGroupWithID.POST("/leaderboard/recompute", leaderboardHandler.RecomputeLeaderboard)
				}
			}
		}

		// Матчи
		matches := api.Group("/matches")
		{
			matches.GET("", matchHandler.ListMatches)

			matchWithID := matches.Group("/:id")
			matchWithID.Use(middleware.ExtractUintParam("id", "matchID"))
			{
				matchWithID.GET("", matchHandler.GetMatch)
				matchWithID.GET("/lock-state", matchHandler.GetLockState)
				matchWithID.GET("/result", resultHandler.GetResult)

				// Маршруты для администраторов
				adminMatches := matchWithID.Group("")
				adminMatches.Use(actorMiddleware.RequireActor(), actorMiddleware.AdminOnly())
				adminMatches.Use(rateLimiter.Limit(middleware.AdminRateLimitConfig()))
				{
					adminMatches.PUT("/deadline", matchHandler.SetDeadline)
					adminMatches.PUT("/schedule", matchHandler.RescheduleMatch)
					adminMatches.PUT("/cancel", matchHandler.CancelMatch)
					adminMatches.PUT("/result", resultHandler.RecordResult)
					adminMatches.POST("/result/finalize", resultHandler.FinalizeResult)
					adminMatches.POST("/result/settle", resultHandler.SettleResult)
					adminMatches.GET("/audit", matchHandler.GetMatchAudit)
					adminMatches.GET("/result/audit", resultHandler.GetResultAudit)
				}
			}

			// Маршруты создания матча и ручной блокировки очереди (не требуют ID)
			adminCreateMatch := matches.Group("")
			adminCreateMatch.Use(actorMiddleware.RequireActor(), actorMiddleware.AdminOnly())
			{
				adminCreateMatch.POST("", matchHandler.CreateMatch)
				adminCreateMatch.POST("/lock-next", matchHandler.LockNext)
			}
		}

		// Прогнозы
		predictions := api.Group("/predictions")
		predictions.Use(actorMiddleware.RequireActor())
		{
			predictions.POST("", rateLimiter.Limit(middleware.DefaultPredictionRateLimitConfig()), predictionHandler.SubmitPrediction)
			predictions.GET("", predictionHandler.ListMyPredictions)

			predictionMatch := predictions.Group("/match/:id")
			predictionMatch.Use(middleware.ExtractUintParam("id", "matchID"))
			{
				predictionMatch.GET("", predictionHandler.GetMyPrediction)
				predictionMatch.GET("/group", predictionHandler.ListMatchPredictions)
			}
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// После получения сигнала SIGINT или SIGTERM вызываем cancel() для завершения горутин
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Отправляем сигнал завершения для всех горутин
	cancel()

	// Закрываем нотификатор, если он был создан
	if err := notifier.Close(); err != nil {
		log.Printf("Error closing notifier: %v", err)
	}

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
