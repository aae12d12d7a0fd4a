package entity

import (
	"time"
)

// User представляет участника. Аутентификацией занимается внешний шлюз,
// здесь хранится только профиль и момент регистрации для тай-брейков.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:50;not null;unique" json:"username"`

	// RegisteredAt участвует в упорядочивании таблицы лидеров и не меняется.
	RegisteredAt time.Time `gorm:"not null" json:"registered_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}
