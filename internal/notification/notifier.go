package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ChannelEvents — канал Pub/Sub, в который публикуются доменные события
const ChannelEvents = "matchbet:events"

// Константы типов событий
const (
	EventDeadlineChanged         = "deadline_changed"
	EventMatchRescheduled        = "match_rescheduled"
	EventMatchCancelled          = "match_cancelled"
	EventDeadlineLocked          = "deadline_locked"
	EventProvisionalResultPosted = "provisional_result_posted"
	EventResultFinalized         = "result_finalized"
	EventLeaderboardUpdated      = "leaderboard_updated"
)

// Event представляет доменное событие, публикуемое для внешних потребителей
// (шлюз уведомлений, фронтенд и т.д.). Доставкой занимаются подписчики,
// ядро лишь публикует факт.
type Event struct {
	EventID   string          `json:"event_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent создает событие с уникальным идентификатором
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return &Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now(),
	}, nil
}

// Notifier определяет интерфейс для публикации доменных событий
type Notifier interface {
	// Publish публикует событие в указанный канал
	Publish(channel string, event *Event) error

	// Subscribe подписывается на указанный канал и возвращает канал событий
	Subscribe(ctx context.Context, channel string) (<-chan *Event, error)

	// Close закрывает все соединения и освобождает ресурсы
	Close() error
}

// NoOpNotifier реализует Notifier для одиночного режима работы.
// Не выполняет реальных действий и используется, когда внешняя шина
// уведомлений отключена.
type NoOpNotifier struct{}

// Publish реализует метод Notifier.Publish для NoOpNotifier
func (n *NoOpNotifier) Publish(channel string, event *Event) error {
	return nil
}

// Subscribe реализует метод Notifier.Subscribe для NoOpNotifier
func (n *NoOpNotifier) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	// Возвращаем пустой канал, который никогда не получит сообщения
	eventCh := make(chan *Event)
	go func() {
		<-ctx.Done()
		close(eventCh)
	}()
	return eventCh, nil
}

// Close реализует метод Notifier.Close для NoOpNotifier
func (n *NoOpNotifier) Close() error {
	return nil
}

// RedisNotifier реализует Notifier через Redis Pub/Sub
type RedisNotifier struct {
	client        redis.UniversalClient
	ctx           context.Context
	cancel        context.CancelFunc
	subscriptions sync.Map // channel -> *redis.PubSub
	mu            sync.Mutex
}

// NewRedisNotifier создает Redis-провайдер уведомлений, используя существующий UniversalClient
func NewRedisNotifier(client redis.UniversalClient) (*RedisNotifier, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil for RedisNotifier")
	}

	// Проверяем соединение клиента перед использованием
	pingCtx, cancelCheck := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelCheck()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("provided redis client failed ping check: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &RedisNotifier{
		client: client,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Publish публикует событие в указанный канал
func (n *RedisNotifier) Publish(channel string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventID, err)
	}

	cmd := n.client.Publish(n.ctx, channel, data)
	if err := cmd.Err(); err != nil {
		log.Printf("[RedisNotifier] Ошибка публикации в канал '%s': %v", channel, err)
		return fmt.Errorf("failed to publish to Redis channel %s: %w", channel, err)
	}
	return nil
}

// Subscribe подписывается на указанный канал Redis
func (n *RedisNotifier) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	pubsub := n.client.Subscribe(n.ctx, channel)

	// Ждем подтверждения подписки
	if _, err := pubsub.Receive(n.ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to Redis channel %s: %w", channel, err)
	}

	n.subscriptions.Store(channel, pubsub)
	log.Printf("[RedisNotifier] Подписка на канал '%s' установлена", channel)

	eventCh := make(chan *Event, 100)

	go func() {
		defer func() {
			n.mu.Lock()
			n.subscriptions.Delete(channel)
			n.mu.Unlock()
			pubsub.Close()
			close(eventCh)
		}()

		redisCh := pubsub.Channel()
		for {
			select {
			case msg, ok := <-redisCh:
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("[RedisNotifier] Ошибка десериализации события из канала '%s': %v", channel, err)
					continue
				}

				select {
				case eventCh <- &event:
				case <-n.ctx.Done():
					return
				case <-ctx.Done():
					return
				}
			case <-n.ctx.Done():
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return eventCh, nil
}

// Close закрывает все активные подписки
func (n *RedisNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.cancel()

	var lastErr error
	n.subscriptions.Range(func(key, value interface{}) bool {
		if pubsub, ok := value.(*redis.PubSub); ok {
			if err := pubsub.Close(); err != nil {
				lastErr = err
			}
		}
		return true
	})

	return lastErr
}
