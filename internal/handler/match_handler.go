package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"github.com/yourusername/matchbet-api/internal/domain/repository"
	"github.com/yourusername/matchbet-api/internal/handler/dto"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
	"github.com/yourusername/matchbet-api/internal/service"

	"log"
)

// MatchHandler обрабатывает запросы, связанные с матчами и их дедлайнами
type MatchHandler struct {
	deadlineService *service.DeadlineService
	resultService   *service.ResultService
	auditService    *service.AuditService
}

// NewMatchHandler создает новый обработчик матчей
func NewMatchHandler(
	deadlineService *service.DeadlineService,
	resultService *service.ResultService,
	auditService *service.AuditService,
) *MatchHandler {
	return &MatchHandler{
		deadlineService: deadlineService,
		resultService:   resultService,
		auditService:    auditService,
	}
}

// CreateMatchRequest представляет запрос на создание матча
type CreateMatchRequest struct {
	CompetitionID uint       `json:"competition_id" binding:"required"`
	HomeTeam      string     `json:"home_team" binding:"required,min=1,max=100"`
	AwayTeam      string     `json:"away_team" binding:"required,min=1,max=100"`
	StartTime     time.Time  `json:"start_time" binding:"required"`
	DeadlineAt    *time.Time `json:"deadline_at"` // Опционально, nil = дефолтное смещение
}

// CreateMatch обрабатывает запрос на создание матча
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	var req CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match := &entity.Match{
		CompetitionID: req.CompetitionID,
		HomeTeam:      req.HomeTeam,
		AwayTeam:      req.AwayTeam,
		StartTime:     req.StartTime,
	}
	if req.DeadlineAt != nil {
		match.DeadlineAt = *req.DeadlineAt
	}

	if err := h.deadlineService.CreateMatch(match); err != nil {
		h.handleMatchError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewMatchResponse(match, string(service.StateOpen)))
}

// GetMatch возвращает информацию о матче вместе с текущим состоянием дедлайна
func (h *MatchHandler) GetMatch(c *gin.Context) {
	matchID := c.MustGet("matchID").(uint) // Получаем из контекста

	match, err := h.deadlineService.GetMatch(matchID)
	if err != nil {
		h.handleMatchError(c, err)
		return
	}

	state, err := h.deadlineService.GetLockState(matchID)
	if err != nil {
		h.handleMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMatchResponse(match, string(state)))
}

// GetLockState возвращает только состояние дедлайна матча
func (h *MatchHandler) GetLockState(c *gin.Context) {
	matchID := c.MustGet("matchID").(uint)

	state, err := h.deadlineService.GetLockState(matchID)
	if err != nil {
		h.handleMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"match_id":   matchID,
		"lock_state": string(state),
	})
}

// ListMatches возвращает список матчей с пагинацией и фильтрацией
func (h *MatchHandler) ListMatches(c *gin.Context) {
	pageStr := c.DefaultQuery("page", "1")
	pageSizeStr := c.DefaultQuery("page_size", "20")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	// Собираем фильтры из query-параметров
	filters := repository.MatchFilters{
		Status: c.Query("status"), // scheduled, finished, cancelled
	}

	if competitionStr := c.Query("competition_id"); competitionStr != "" {
		if competitionID, err := strconv.ParseUint(competitionStr, 10, 64); err == nil {
			filters.CompetitionID = uint(competitionID)
		}
	}

	// Парсим даты если переданы
	if dateFromStr := c.Query("date_from"); dateFromStr != "" {
		if dateFrom, err := time.Parse(time.RFC3339, dateFromStr); err == nil {
			filters.DateFrom = &dateFrom
		}
	}
	if dateToStr := c.Query("date_to"); dateToStr != "" {
		if dateTo, err := time.Parse(time.RFC3339, dateToStr); err == nil {
			filters.DateTo = &dateTo
		}
	}

	matches, total, err := h.deadlineService.ListMatches(filters, page, pageSize)
	if err != nil {
		h.handleMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedMatchResponse(matches, total, page, pageSize))
}

// SetDeadlineRequest представляет запрос на ручную установку дедлайна
type SetDeadlineRequest struct {
	DeadlineAt time.Time `json:"deadline_at" binding:"required"`
}

// SetDeadline обрабатывает запрос на ручную установку дедлайна матча
func (h *MatchHandler) SetDeadline(c *gin.Context) {
	matchID := c.MustGet("matchID").(uint)
	actorID := c.MustGet("user_id").(uint)

	var req SetDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.deadlineService.SetDeadline(actorID, matchID, req.DeadlineAt); err != nil {
		h.handleMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deadline updated successfully"})
}

// RescheduleMatchRequest представляет запрос на перенос матча
type RescheduleMatchRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
}

// RescheduleMatch обрабатывает запрос на перенос времени начала матча
func (h *MatchHandler) RescheduleMatch(c *gin.Context) {
	matchID := c.MustGet("matchID").(uint)
	actorID := c.MustGet("user_id").(uint)

	var req RescheduleMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.deadlineService.RescheduleMatch(actorID, matchID, req.StartTime); err != nil {
		h.handleMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Match rescheduled successfully"})
}

// CancelMatch обрабатывает запрос на отмену матча.
// Все нерасчитанные прогнозы на матч аннулируются.
func (h *MatchHandler) CancelMatch(c *gin.Context) {
	matchID := c.MustGet("matchID").(uint)
	actorID := c.MustGet("user_id").(uint)

	if err := h.resultService.CancelMatch(actorID, matchID); err != nil {
		h.handleMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Match cancelled successfully"})
}

// LockNextRequest представляет запрос на ручной запуск блокировки очереди
type LockNextRequest struct {
	CompetitionID uint `json:"competition_id" binding:"required"`
}

// LockNext запускает блокировку дедлайнов ближайших матчей турнира.
// Обычно вызывается фоновым свипером, но доступен и вручную.
func (h *MatchHandler) LockNext(c *gin.Context) {
	var req LockNextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lockedIDs, err := h.deadlineService.LockNextMatches(req.CompetitionID)
	if err != nil {
		h.handleMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"locked_match_ids": lockedIDs,
		"count":            len(lockedIDs),
	})
}

// GetMatchAudit возвращает историю административных действий над матчем
func (h *MatchHandler) GetMatchAudit(c *gin.Context) {
	matchID := c.MustGet("matchID").(uint)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, total, err := h.auditService.GetHistory(entity.AuditEntityMatch, matchID, page, pageSize)
	if err != nil {
		h.handleMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": dto.NewListAuditRecordResponse(records),
		"total":   total,
	})
}

// handleMatchError обрабатывает ошибки от сервисов матчей и отправляет соответствующий HTTP ответ
func (h *MatchHandler) handleMatchError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrDeadlineLocked) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "deadline_locked"})
	} else if errors.Is(err, apperrors.ErrDeadlinePassed) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "deadline_passed"})
	} else if errors.Is(err, service.ErrMatchNotSchedulable) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "match_not_schedulable"})
	} else if errors.Is(err, apperrors.ErrConcurrentModification) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "concurrent_modification"})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in MatchHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
