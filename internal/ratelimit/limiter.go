package ratelimit

import (
	"sync"
	"time"
)

// Limiter — простой гейт "не чаще одного запроса в окно" по ключу.
// Отметка времени обновляется только на принятых запросах: отклонённый
// запрос окно не продлевает.
//
// В отличие от исходного однопоточного окружения Go обслуживает запросы
// из разных горутин, поэтому read-then-write по ключу держим под мьютексом.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	last   map[string]time.Time
}

// New создаёт лимитер. now инжектируется ради тестов; nil — time.Now.
func New(window time.Duration, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		window: window,
		now:    now,
		last:   make(map[string]time.Time),
	}
}

// Allow возвращает true и обновляет отметку, если с последнего принятого
// запроса по ключу прошло не меньше окна.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.last[key]; ok && now.Sub(last) < l.window {
		return false
	}
	l.last[key] = now
	return true
}

// Window — размер настроенного окна.
func (l *Limiter) Window() time.Duration {
	return l.window
}
