package numberpool

import (
	"errors"
	"sync"
)

const (
	// MinNumber - наименьший выдаваемый номер заказа.
	MinNumber = 1
	// MaxNumber - наибольший выдаваемый номер заказа.
	MaxNumber = 99
)

var (
	// ErrExhausted возвращается, когда все номера заняты открытыми заказами.
	ErrExhausted = errors.New("all order numbers are in flight")
)

// Pool выдаёт циклические номера заказов 1-99. Номер считается занятым,
// пока заказ с ним открыт; два одновременно открытых заказа никогда не
// получают одинаковый номер.
type Pool struct {
	mu       sync.Mutex
	next     int
	inFlight map[int]struct{}
}

// New создаёт пул с начальным номером 1 и пустым множеством занятых.
func New() *Pool {
	return &Pool{
		next:     MinNumber,
		inFlight: make(map[int]struct{}),
	}
}

// Allocate возвращает наименьший свободный номер, начиная с текущего
// счётчика и с переходом через 99 на 1. Выданный номер помечается занятым,
// счётчик сдвигается на следующий за ним.
func (p *Pool) Allocate() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.inFlight) >= MaxNumber {
		return 0, ErrExhausted
	}

	n := p.next
	for i := 0; i < MaxNumber; i++ {
		if _, busy := p.inFlight[n]; !busy {
			p.inFlight[n] = struct{}{}
			p.next = wrap(n + 1)
			return n, nil
		}
		n = wrap(n + 1)
	}

	// Недостижимо при корректном множестве занятых, но не паникуем.
	return 0, ErrExhausted
}

// Release освобождает номер закрытого или отменённого заказа. Номер
// становится доступным сразу, не дожидаясь полного круга счётчика.
func (p *Pool) Release(number int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, number)
}

// Reset возвращает счётчик на 1. Номера, закреплённые за открытыми
// заказами, остаются занятыми: сброс никогда не отнимает номер у
// открытого заказа.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next = MinNumber
}

// Restore восстанавливает состояние пула при старте процесса: счётчик из
// сохранённых настроек и множество занятых из открытых заказов хранилища.
func (p *Pool) Restore(next int, inFlight []int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if next < MinNumber || next > MaxNumber {
		next = MinNumber
	}
	p.next = next
	p.inFlight = make(map[int]struct{}, len(inFlight))
	for _, n := range inFlight {
		if n >= MinNumber && n <= MaxNumber {
			p.inFlight[n] = struct{}{}
		}
	}
}

// Next возвращает текущее значение счётчика (для сохранения в настройках).
func (p *Pool) Next() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next
}

// InFlight возвращает количество занятых номеров.
func (p *Pool) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inFlight)
}

// wrap переводит номер в диапазон 1-99 с переходом 99 -> 1.
func wrap(n int) int {
	if n > MaxNumber {
		return MinNumber
	}
	return n
}
