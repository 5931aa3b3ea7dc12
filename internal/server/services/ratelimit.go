package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ticketLimiter throttles support tickets per identity. A non-positive
// perMinute disables throttling.
type ticketLimiter struct {
	mu        sync.Mutex
	perMinute int
	limiters  map[string]*rate.Limiter
	now       func() time.Time
}

func newTicketLimiter(perMinute int) *ticketLimiter {
	return &ticketLimiter{
		perMinute: perMinute,
		limiters:  make(map[string]*rate.Limiter),
		now:       time.Now,
	}
}

func (l *ticketLimiter) allow(id string) bool {
	if l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[id]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
		l.limiters[id] = lim
	}
	return lim.AllowN(l.now(), 1)
}
