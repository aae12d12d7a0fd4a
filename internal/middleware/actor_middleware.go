package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Заголовки, проставляемые вышестоящим API-шлюзом после аутентификации.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Роли, которые шлюз может передать в X-User-Role
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ActorMiddleware извлекает действующего пользователя из заголовков шлюза
// и помещает его в контекст Gin. Сама аутентификация выполняется на шлюзе.
type ActorMiddleware struct{}

// NewActorMiddleware создает новый ActorMiddleware
func NewActorMiddleware() *ActorMiddleware {
	return &ActorMiddleware{}
}

// RequireActor проверяет наличие идентификатора пользователя в запросе
func (m *ActorMiddleware) RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := c.GetHeader(HeaderUserID)
		if rawID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "actor_missing"})
			c.Abort()
			return
		}

		userID, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil || userID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user identifier", "error_type": "actor_invalid"})
			c.Abort()
			return
		}

		// Устанавливаем ID пользователя в контекст
		c.Set("user_id", uint(userID))

		role := c.GetHeader(HeaderUserRole)
		if role == RoleAdmin {
			c.Set("is_admin", true)
		}

		c.Next()
	}
}

// AdminOnly проверяет, является ли пользователь администратором.
// Должен применяться ПОСЛЕ RequireActor.
func (m *ActorMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user_id"); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		isAdmin, exists := c.Get("is_admin")
		if !exists || !isAdmin.(bool) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin rights required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
