package memorial

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter rate-limits login attempts per IP address: at most max
// attempts in a burst, refilled evenly over window.
type LoginLimiter struct {
	mu      sync.Mutex
	clients map[string]*limiterClient
	max     int
	window  time.Duration
	stop    chan struct{}
	done    chan struct{}
}

type limiterClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter creates a LoginLimiter that allows max attempts per window.
// Call Stop to release its cleanup goroutine.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		clients: make(map[string]*limiterClient),
		max:     max,
		window:  window,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *LoginLimiter) cleanup() {
	defer close(l.done)
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-l.window)
			l.mu.Lock()
			for ip, c := range l.clients {
				if c.lastSeen.Before(cutoff) {
					delete(l.clients, ip)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *LoginLimiter) Stop() {
	l.mu.Lock()
	select {
	case <-l.stop:
	default:
		close(l.stop)
	}
	l.mu.Unlock()
	<-l.done
}

func (l *LoginLimiter) client(ip string) *limiterClient {
	c, ok := l.clients[ip]
	if !ok {
		every := l.window / time.Duration(max(l.max, 1))
		c = &limiterClient{limiter: rate.NewLimiter(rate.Every(every), l.max)}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c
}

// Check returns true if the IP has not exceeded the rate limit.
// It does not record an attempt; call Record separately on failure.
func (l *LoginLimiter) Check(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client(ip).limiter.Tokens() >= 1
}

// Record registers a failed login attempt for the given IP.
func (l *LoginLimiter) Record(ip string) {
	l.mu.Lock()
	l.client(ip).limiter.Allow()
	l.mu.Unlock()
}
