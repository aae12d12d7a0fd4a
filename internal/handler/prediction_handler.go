package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/matchbet-api/internal/handler/dto"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
	"github.com/yourusername/matchbet-api/internal/service"
)

// PredictionHandler обрабатывает запросы, связанные с прогнозами
type PredictionHandler struct {
	predictionService *service.PredictionService
}

// NewPredictionHandler создает новый обработчик прогнозов
func NewPredictionHandler(predictionService *service.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

// SubmitPredictionRequest представляет запрос на подачу прогноза
type SubmitPredictionRequest struct {
	GroupID   uint   `json:"group_id" binding:"required"`
	MatchID   uint   `json:"match_id" binding:"required"`
	Outcome   string `json:"outcome" binding:"required"`
	HomeScore int    `json:"home_score" binding:"min=0"`
	AwayScore int    `json:"away_score" binding:"min=0"`
}

// SubmitPrediction обрабатывает подачу прогноза.
// Повторная подача до дедлайна полностью замещает предыдущий прогноз.
func (h *PredictionHandler) SubmitPrediction(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req SubmitPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prediction, err := h.predictionService.SubmitPrediction(
		userID, req.GroupID, req.MatchID, req.Outcome, req.HomeScore, req.AwayScore)
	if err != nil {
		h.handlePredictionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPredictionResponse(prediction))
}

// GetMyPrediction возвращает прогноз текущего пользователя на матч в группе
// GET /api/predictions/match/:match_id?group_id=N
func (h *PredictionHandler) GetMyPrediction(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	matchID := c.MustGet("matchID").(uint)

	groupID, err := strconv.ParseUint(c.Query("group_id"), 10, 64)
	if err != nil || groupID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group_id query parameter is required"})
		return
	}

	prediction, err := h.predictionService.GetPrediction(userID, matchID, uint(groupID))
	if err != nil {
		h.handlePredictionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPredictionResponse(prediction))
}

// ListMatchPredictions возвращает прогнозы всех участников группы на матч.
// Чужие прогнозы раскрываются только после дедлайна.
// GET /api/predictions/match/:id/group?group_id=N
func (h *PredictionHandler) ListMatchPredictions(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	matchID := c.MustGet("matchID").(uint)

	groupID, err := strconv.ParseUint(c.Query("group_id"), 10, 64)
	if err != nil || groupID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group_id query parameter is required"})
		return
	}

	predictions, err := h.predictionService.GetMatchPredictions(userID, matchID, uint(groupID))
	if err != nil {
		h.handlePredictionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": dto.NewListPredictionResponse(predictions),
		"total":       len(predictions),
	})
}

// ListMyPredictions возвращает пагинированный список прогнозов пользователя в группе
// GET /api/predictions?group_id=N&page=1&page_size=20
func (h *PredictionHandler) ListMyPredictions(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	groupID, err := strconv.ParseUint(c.Query("group_id"), 10, 64)
	if err != nil || groupID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group_id query parameter is required"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	predictions, total, err := h.predictionService.GetUserPredictions(userID, uint(groupID), page, pageSize)
	if err != nil {
		h.handlePredictionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedPredictionResponse(predictions, total, page, pageSize))
}

// handlePredictionError обрабатывает ошибки от сервиса прогнозов и отправляет соответствующий HTTP ответ
func (h *PredictionHandler) handlePredictionError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrDeadlinePassed) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "deadline_passed"})
	} else if errors.Is(err, apperrors.ErrInvalidPrediction) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "invalid_prediction"})
	} else if errors.Is(err, apperrors.ErrNotGroupMember) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "error_type": "not_group_member"})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in PredictionHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
