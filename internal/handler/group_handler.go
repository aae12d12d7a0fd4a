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

// GroupHandler обрабатывает запросы, связанные с группами участников
type GroupHandler struct {
	groupService *service.GroupService
}

// NewGroupHandler создает новый обработчик групп
func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroupRequest представляет запрос на создание группы
type CreateGroupRequest struct {
	Name          string `json:"name" binding:"required,min=3,max=100"`
	CompetitionID uint   `json:"competition_id" binding:"required"`
}

// CreateGroup обрабатывает запрос на создание группы.
// Создатель автоматически становится администратором группы.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	ownerID := c.MustGet("user_id").(uint)

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groupService.CreateGroup(ownerID, req.Name, req.CompetitionID)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewGroupResponse(group))
}

// GetGroup возвращает информацию о группе
func (h *GroupHandler) GetGroup(c *gin.Context) {
	groupID := c.MustGet("groupID").(uint)

	group, err := h.groupService.GetGroup(groupID)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGroupResponse(group))
}

// ListGroups возвращает список групп с пагинацией
func (h *GroupHandler) ListGroups(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	groups, total, err := h.groupService.ListGroups(page, pageSize)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groups":   dto.NewListGroupResponse(groups),
		"total":    total,
		"page":     page,
		"per_page": pageSize,
	})
}

// JoinGroup обрабатывает вступление текущего пользователя в группу
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	groupID := c.MustGet("groupID").(uint)
	userID := c.MustGet("user_id").(uint)

	if err := h.groupService.JoinGroup(groupID, userID); err != nil {
		h.handleGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Joined group successfully"})
}

// ListMembers возвращает список участников группы
func (h *GroupHandler) ListMembers(c *gin.Context) {
	groupID := c.MustGet("groupID").(uint)

	members, err := h.groupService.ListMembers(groupID)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members": dto.NewListGroupMemberResponse(members),
		"total":   len(members),
	})
}

// ListMyGroups возвращает группы, в которых состоит текущий пользователь
func (h *GroupHandler) ListMyGroups(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	groups, err := h.groupService.ListUserGroups(userID)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groups": dto.NewListGroupResponse(groups),
		"total":  len(groups),
	})
}

// handleGroupError обрабатывает ошибки от сервиса групп и отправляет соответствующий HTTP ответ
func (h *GroupHandler) handleGroupError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in GroupHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
