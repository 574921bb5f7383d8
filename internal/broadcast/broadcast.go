// Package broadcast рассылает зафиксированные снимки заказов подписанным
// клиентам (терминал, дисплей покупателя, админ). Публикация не блокируется:
// у каждого подписчика ограниченный буфер, переполнившийся подписчик
// отключается и обязан перечитать текущее состояние при переподключении.
package broadcast

import (
	"log"
	"sync"

	"github.com/agamariel/poscore/internal/models"
	"github.com/google/uuid"
)

// DefaultBufferSize - размер буфера подписчика по умолчанию.
const DefaultBufferSize = 64

// Broadcaster владеет списком подписчиков. Данные заказов ему не
// принадлежат: он получает готовые неизменяемые снимки.
type Broadcaster struct {
	mu         sync.Mutex
	subs       map[uuid.UUID]*Subscriber
	bufferSize int
	logger     *log.Logger
}

// Subscriber - один подписанный клиент с собственным буферизованным каналом.
type Subscriber struct {
	id         uuid.UUID
	clientType string
	ch         chan *models.OrderSnapshot
	b          *Broadcaster
	once       sync.Once
}

// New создаёт рассыльщик с заданным размером буфера подписчика.
func New(bufferSize int, logger *log.Logger) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Broadcaster{
		subs:       make(map[uuid.UUID]*Subscriber),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Subscribe регистрирует нового подписчика указанного типа клиента.
func (b *Broadcaster) Subscribe(clientType string) *Subscriber {
	sub := &Subscriber{
		id:         uuid.New(),
		clientType: clientType,
		ch:         make(chan *models.OrderSnapshot, b.bufferSize),
		b:          b,
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()

	b.logger.Printf("subscriber %s (%s) connected", sub.id, clientType)
	return sub
}

// Publish раздаёт снимок всем подписчикам без блокировки. Вызывающая
// сторона публикует снимки одного заказа строго в порядке фиксации, и
// канал подписчика сохраняет этот порядок. Подписчик с переполненным
// буфером отключается.
func (b *Broadcaster) Publish(snap *models.OrderSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subs {
		select {
		case sub.ch <- snap:
		default:
			// Медленный клиент: отключаем, он перечитает состояние сам.
			delete(b.subs, id)
			sub.once.Do(func() { close(sub.ch) })
			b.logger.Printf("subscriber %s (%s) dropped: buffer overflow", id, sub.clientType)
		}
	}
}

// Subscribers возвращает текущее число подписчиков.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Events возвращает канал снимков подписчика. Канал закрывается при
// отключении подписчика рассыльщиком или вызове Close.
func (s *Subscriber) Events() <-chan *models.OrderSnapshot {
	return s.ch
}

// ID возвращает идентификатор подписки.
func (s *Subscriber) ID() uuid.UUID {
	return s.id
}

// Close снимает подписку. Безопасно вызывать повторно и после отключения
// рассыльщиком.
func (s *Subscriber) Close() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if _, ok := s.b.subs[s.id]; ok {
		delete(s.b.subs, s.id)
		s.once.Do(func() { close(s.ch) })
		s.b.logger.Printf("subscriber %s (%s) disconnected", s.id, s.clientType)
	}
}
