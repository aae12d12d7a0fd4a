package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/matchbet-api/internal/domain/entity"
	"github.com/yourusername/matchbet-api/internal/handler/dto"
	apperrors "github.com/yourusername/matchbet-api/internal/pkg/errors"
	"github.com/yourusername/matchbet-api/internal/service"
)

// LeaderboardHandler обрабатывает запросы к таблицам лидеров групп
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewLeaderboardHandler создает новый обработчик таблиц лидеров
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetLeaderboard возвращает таблицу лидеров группы
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	groupID := c.MustGet("groupID").(uint) // Получаем из контекста

	entries, err := h.leaderboardService.GetLeaderboard(groupID)
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLeaderboardResponse(groupID, entries))
}

// RecomputeLeaderboard принудительно пересчитывает таблицу лидеров группы
// POST /api/admin/groups/:id/leaderboard/recompute
func (h *LeaderboardHandler) RecomputeLeaderboard(c *gin.Context) {
	groupID := c.MustGet("groupID").(uint)

	entries, err := h.leaderboardService.Recompute(groupID)
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLeaderboardResponse(groupID, entries))
}

// ExportLeaderboard экспортирует таблицу лидеров группы в CSV или Excel формате
// GET /api/groups/:id/leaderboard/export?format=csv|xlsx
func (h *LeaderboardHandler) ExportLeaderboard(c *gin.Context) {
	groupID := c.MustGet("groupID").(uint)
	format := c.DefaultQuery("format", "csv")

	entries, err := h.leaderboardService.GetLeaderboard(groupID)
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	filename := fmt.Sprintf("group_%d_leaderboard_%s", groupID, time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, entries, filename)
	default:
		h.exportCSV(c, entries, filename)
	}
}

// exportCSV экспортирует таблицу лидеров в CSV с правильным экранированием спецсимволов
func (h *LeaderboardHandler) exportCSV(c *gin.Context, entries []entity.LeaderboardEntry, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	// Используем encoding/csv для правильного экранирования запятых/кавычек
	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// Заголовки
	writer.Write([]string{"Место", "Участник", "Очки", "Точных счетов", "Угаданных исходов", "Прогнозов"})

	// Данные
	for _, e := range entries {
		writer.Write([]string{
			strconv.Itoa(e.Rank),
			sanitizeForExcel(e.Username),
			strconv.Itoa(e.TotalPoints),
			strconv.Itoa(e.ExactCount),
			strconv.Itoa(e.OutcomeCount),
			strconv.Itoa(e.Predictions),
		})
	}
}

// exportXLSX экспортирует таблицу лидеров в Excel с использованием StreamWriter
func (h *LeaderboardHandler) exportXLSX(c *gin.Context, entries []entity.LeaderboardEntry, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Таблица лидеров"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[LeaderboardHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	// Заголовки
	headers := []interface{}{"Место", "Участник", "Очки", "Точных счетов", "Угаданных исходов", "Прогнозов"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка записи заголовков: %v", err)
	}

	// Данные
	for i, e := range entries {
		rowNum := i + 2 // Начинаем с 2 строки (1 - заголовки)
		cell := fmt.Sprintf("A%d", rowNum)

		row := []interface{}{e.Rank, sanitizeForExcel(e.Username), e.TotalPoints, e.ExactCount, e.OutcomeCount, e.Predictions}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[LeaderboardHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка при Flush: %v", err)
	}

	// Записываем в response
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// handleLeaderboardError обрабатывает ошибки от сервиса таблиц лидеров
func (h *LeaderboardHandler) handleLeaderboardError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in LeaderboardHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
