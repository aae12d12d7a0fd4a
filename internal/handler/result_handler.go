package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"github.com/yourusername/matchbet-api/internal/handler/dto"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
	"github.com/yourusername/matchbet-api/internal/service"
)

// ResultHandler обрабатывает запросы, связанные с результатами матчей
type ResultHandler struct {
	resultService *service.ResultService
	auditService  *service.AuditService
}

// NewResultHandler создает новый обработчик результатов
func NewResultHandler(resultService *service.ResultService, auditService *service.AuditService) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		auditService:  auditService,
	}
}

// RecordResultRequest представляет запрос на ввод или корректировку результата
type RecordResultRequest struct {
	HomeScore int `json:"home_score" binding:"min=0"`
	AwayScore int `json:"away_score" binding:"min=0"`
}

// RecordResult обрабатывает ввод предварительного результата.
// Повторный вызов до финализации корректирует существующий результат.
func (h *ResultHandler) RecordResult(c *gin.Context) {
	matchID := c.MustGet("matchID").(uint)
	actorID := c.MustGet("user_id").(uint)

	var req RecordResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.resultService.RecordProvisional(actorID, matchID, req.HomeScore, req.AwayScore)
	if err != nil {
		h.handleResultError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewResultResponse(result))
}

// GetResult возвращает текущий результат матча
func (h *ResultHandler) GetResult(c *gin.Context) {
	matchID := c.MustGet("matchID").(uint)

	result, err := h.resultService.GetResult(matchID)
	if err != nil {
		h.handleResultError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewResultResponse(result))
}

// FinalizeResult финализирует результат матча и запускает расчет прогнозов
func (h *ResultHandler) FinalizeResult(c *gin.Context) {
	matchID := c.MustGet("matchID").(uint)
	actorID := c.MustGet("user_id").(uint)

	if err := h.resultService.Finalize(actorID, matchID); err != nil {
		h.handleResultError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Result finalized and predictions settled"})
}

// SettleResult повторно запускает расчет прогнозов по финальному результату.
// Повторный вызов после полного расчета безвреден.
func (h *ResultHandler) SettleResult(c *gin.Context) {
	matchID := c.MustGet("matchID").(uint)

	if err := h.resultService.SettleMatch(matchID); err != nil {
		h.handleResultError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Predictions settled"})
}

// GetResultAudit возвращает историю действий над результатом матча
func (h *ResultHandler) GetResultAudit(c *gin.Context) {
	matchID := c.MustGet("matchID").(uint)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, total, err := h.auditService.GetHistory(entity.AuditEntityResult, matchID, page, pageSize)
	if err != nil {
		h.handleResultError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": dto.NewListAuditRecordResponse(records),
		"total":   total,
	})
}

// handleResultError обрабатывает ошибки от сервиса результатов и отправляет соответствующий HTTP ответ
func (h *ResultHandler) handleResultError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrResultAlreadyFinal) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "result_already_final"})
	} else if errors.Is(err, service.ErrMatchNotSchedulable) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "match_not_schedulable"})
	} else if errors.Is(err, apperrors.ErrConcurrentModification) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "concurrent_modification"})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in ResultHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
