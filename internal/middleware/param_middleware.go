package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam извлекает числовой параметр маршрута и кладет его в контекст
// Gin под заданным ключом. Вешается на группы /matches/:id и /groups/:id, чтобы
// обработчики матчей, результатов и таблиц лидеров читали готовый идентификатор
// через c.MustGet(contextKey).(uint), не повторяя разбор строки.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", paramName)})
			c.Abort()
			return
		}
		// Идентификаторы сущностей везде uint, сужаем сразу здесь
		c.Set(contextKey, uint(id))
		c.Next()
	}
}
