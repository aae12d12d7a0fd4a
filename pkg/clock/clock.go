package clock

import "time"

// Clock абстрагирует источник текущего времени.
// Все проверки дедлайнов в сервисах идут через этот интерфейс,
// чтобы тесты могли детерминированно "сдвигать" время без time.Sleep.
type Clock interface {
	Now() time.Time
}

// RealClock возвращает системное время
type RealClock struct{}

// Now реализует Clock для RealClock
func (RealClock) Now() time.Time {
	return time.Now()
}

// New возвращает часы на основе системного времени
func New() Clock {
	return RealClock{}
}
