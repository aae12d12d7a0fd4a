package service

import (
	"context"
	"time"

	"github.com/yourusername/matchbet-api/internal/notification"
)

// fakeClock — детерминированный источник времени для тестов
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

// recordingNotifier накапливает опубликованные события для проверок в тестах
type recordingNotifier struct {
	events []*notification.Event
}

func (n *recordingNotifier) Publish(channel string, event *notification.Event) error {
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Subscribe(ctx context.Context, channel string) (<-chan *notification.Event, error) {
	return nil, nil
}

func (n *recordingNotifier) Close() error {
	return nil
}

// eventTypes возвращает типы опубликованных событий в порядке публикации
func (n *recordingNotifier) eventTypes() []string {
	types := make([]string, 0, len(n.events))
	for _, e := range n.events {
		types = append(types, e.Type)
	}
	return types
}
