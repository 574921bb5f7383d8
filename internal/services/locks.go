package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// lockTable выдаёт эксклюзивные блокировки по идентификатору заказа.
// Записи создаются по требованию и удаляются, когда ожидающих не осталось.
type lockTable struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*orderLock
}

type orderLock struct {
	ch   chan struct{}
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[uuid.UUID]*orderLock)}
}

// acquire захватывает блокировку заказа с ограниченным ожиданием.
// По истечении wait возвращает ErrConflict, по отмене контекста - ErrTimeout.
// Возвращённая функция снимает блокировку.
func (t *lockTable) acquire(ctx context.Context, id uuid.UUID, wait time.Duration) (func(), error) {
	t.mu.Lock()
	l, ok := t.locks[id]
	if !ok {
		l = &orderLock{ch: make(chan struct{}, 1)}
		t.locks[id] = l
	}
	l.refs++
	t.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			t.unref(id, l)
		}, nil
	case <-timer.C:
		t.unref(id, l)
		return nil, ErrConflict
	case <-ctx.Done():
		t.unref(id, l)
		return nil, ErrTimeout
	}
}

func (t *lockTable) unref(id uuid.UUID, l *orderLock) {
	t.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(t.locks, id)
	}
	t.mu.Unlock()
}
