package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden используется, когда у актора недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (например, повторная финализация результата).
	ErrConflict = errors.New("resource state conflict")
)

// Доменные ошибки ставочного ядра
var (
	// ErrDeadlinePassed используется, когда ставка или перенос дедлайна
	// выполняются после эффективного дедлайна матча.
	ErrDeadlinePassed = errors.New("betting deadline has passed")

	// ErrDeadlineLocked используется при попытке изменить дедлайн матча,
	// который стал ближайшим в очереди и заблокирован навсегда.
	ErrDeadlineLocked = errors.New("betting deadline is locked")

	// ErrInvalidPrediction используется для несогласованного прогноза
	// (исход не соответствует счету, отрицательный счет и т.п.).
	ErrInvalidPrediction = errors.New("prediction is invalid")

	// ErrNotGroupMember используется, когда у пользователя нет активного
	// членства в группе, для которой делается ставка.
	ErrNotGroupMember = errors.New("user is not an active group member")

	// ErrResultAlreadyFinal используется при любой попытке записи в
	// финализированный результат матча.
	ErrResultAlreadyFinal = errors.New("match result is already final")

	// ErrConcurrentModification используется при конфликте оптимистичной
	// блокировки. Операцию безопасно повторить после перечитывания состояния.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)
